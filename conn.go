package modbus

import (
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modbus-tcp/server/databank"
)

// conn drives the request/response loop for a single accepted TCP
// connection. One conn runs on its own goroutine for the lifetime of the
// socket; it never shares mutable state with another conn except through
// the Server's databank.Bank.
type conn struct {
	id      uuid.UUID
	nc      net.Conn
	bank    *databank.Bank
	log     *zap.Logger
	stats   *stats
	onEvent func(ConnEvent) // may be nil
}

func (c *conn) fireEvent(kind string) {
	if c.onEvent == nil {
		return
	}
	c.onEvent(ConnEvent{
		ID:     c.id.String(),
		Remote: c.nc.RemoteAddr().String(),
		Kind:   kind,
		Time:   time.Now(),
	})
}

// serve reads frames until the peer disconnects or a framing violation
// occurs, at which point the connection is closed and serve returns.
func (c *conn) serve() {
	defer c.nc.Close()
	log := c.log.With(zap.String("conn", c.id.String()), zap.String("remote", c.nc.RemoteAddr().String()))
	log.Debug("connection accepted")
	c.stats.connOpened()
	c.fireEvent("connected")
	defer c.stats.connClosed()
	defer c.fireEvent("disconnected")
	defer log.Debug("connection closed")

	for {
		var headerBuf [7]byte
		if _, err := io.ReadFull(c.nc, headerBuf[:]); err != nil {
			// EOF/closed before a header arrived: clean shutdown, not an error.
			return
		}

		header, err := decodeHeader(headerBuf)
		if err != nil {
			log.Debug("closing connection: malformed MBAP header", zap.Error(err))
			return
		}

		body := make([]byte, int(header.length)-1)
		if _, err := io.ReadFull(c.nc, body); err != nil {
			log.Debug("closing connection: short body read", zap.Error(errBodyLength), zap.NamedError("cause", err))
			return
		}

		fc := body[0]
		if fc&0x80 != 0 {
			log.Debug("closing connection", zap.Error(errReservedFunctionBit))
			return
		}

		resp, ex := dispatch(c.bank, fc, body[1:])
		c.stats.recordRequest()

		var frame []byte
		if ex != 0 {
			c.stats.recordException()
			log.Warn("request rejected", zap.Uint8("fc", fc), zap.Uint8("exception", byte(ex)))
			frame = encodeException(header, fc, ex)
		} else {
			frame = encodeResponse(header, fc, resp)
		}

		if _, err := c.nc.Write(frame); err != nil {
			log.Error("write failed, closing connection", zap.Error(err))
			return
		}
	}
}
