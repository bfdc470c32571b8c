// Command modbusd runs a standalone Modbus/TCP server. Flag/CLI parsing
// beyond a single optional config-file path is out of scope (spec.md
// places CLI ergonomics among the external collaborators this repository
// does not specify) — everything else is driven by internal/config.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	modbus "github.com/modbus-tcp/server"
	"github.com/modbus-tcp/server/internal/config"
	"github.com/modbus-tcp/server/internal/statusapi"
)

func main() {
	var configPath string
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, v, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "modbusd: config:", err)
		os.Exit(1)
	}

	log := buildLogger(cfg.Logger.Level)
	defer log.Sync() //nolint:errcheck

	config.WatchLevel(v, func(level string) {
		if lvl, perr := zapcore.ParseLevel(level); perr == nil {
			atomicLevel.SetLevel(lvl)
			log.Info("log level changed", zap.String("level", level))
		}
	})

	srv := modbus.NewServer(modbus.Config{
		Host:     cfg.Server.Host,
		Port:     cfg.Server.Port,
		IPv6:     cfg.Server.IPv6,
		Blocking: false,
	}, log)

	var api *statusapi.API
	if cfg.StatusAPI.Enabled {
		api = statusapi.New(srv, log.Named("statusapi"))
		srv.OnConnEvent(statusapi.ConnEventAdapter(api.Hub()))
		go func() {
			if lerr := api.Listen(cfg.StatusAPI.Addr); lerr != nil {
				log.Warn("status api stopped", zap.Error(lerr))
			}
		}()
	}

	heartbeat := cron.New()
	if _, herr := heartbeat.AddFunc("@every 30s", func() {
		st := srv.Stats()
		log.Info("heartbeat",
			zap.Duration("uptime", st.Uptime),
			zap.Int64("active_connections", st.ActiveConns),
			zap.Uint64("total_connections", st.TotalConns),
			zap.Uint64("total_requests", st.TotalRequests),
			zap.Uint64("total_exceptions", st.TotalExceptions),
		)
	}); herr != nil {
		log.Warn("could not schedule heartbeat", zap.Error(herr))
	}
	heartbeat.Start()
	defer heartbeat.Stop()

	if err := srv.Start(); err != nil {
		log.Fatal("server failed to start", zap.Error(err))
	}
	log.Info("modbusd started", zap.String("addr", srv.ListenAddr()))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	if api != nil {
		_ = api.Shutdown()
	}
	_ = srv.Stop()
	srv.Wait()
}

var atomicLevel = zap.NewAtomicLevel()

// buildLogger follows the console-encoder construction this corpus's
// services use, with the level wrapped in an AtomicLevel so WatchLevel
// can hot-swap it without rebuilding the logger.
func buildLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	atomicLevel.SetLevel(lvl)

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stdout), atomicLevel)
	return zap.New(core, zap.AddCaller())
}
