package databank

import (
	"encoding/binary"
	"math"

	"github.com/modbus-tcp/server/wordutil"
)

func float32FromBits(v uint32) float32 {
	return wordutil.DecodeIEEE754(v)
}

func float32ToBits(f float32) uint32 {
	return wordutil.EncodeIEEE754(f)
}

func float64FromBits(buf [8]byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(buf[:]))
}

func float64ToBits(f float64) [8]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(f))
	return buf
}
