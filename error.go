package modbus

import "errors"

// Framing errors are never answered in-band — on any of these the worker
// closes the connection without writing a response (spec.md §4.3/§7).
var (
	// errBadHeader signals protocol_id != 0 or length outside (2, 256).
	errBadHeader = errors.New("modbus: malformed MBAP header")
	// errBodyLength signals the body read did not match the header's
	// declared length.
	errBodyLength = errors.New("modbus: body length mismatch")
	// errReservedFunctionBit signals a request function code with the
	// high bit already set — only responses use that bit.
	errReservedFunctionBit = errors.New("modbus: function code has reserved high bit set")
)
