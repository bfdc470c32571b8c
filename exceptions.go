package modbus

import "fmt"

// Exception is a Modbus exception code, returned as the one-byte payload
// following a high-bit-set function code in an exception response. The
// zero value means "no exception" — 0x00 is not a code the protocol
// defines, so dispatch functions use it as their success sentinel.
type Exception byte

const (
	// ExIllegalFunction indicates the function code is not recognized or
	// not wired to a databank.Bank operation by this server.
	ExIllegalFunction Exception = 0x01
	// ExIllegalDataAddress indicates the combination of starting address
	// and quantity falls outside the bank's [0, 65535] cell range.
	ExIllegalDataAddress Exception = 0x02
	// ExIllegalDataValue indicates a quantity outside the per-function
	// limit, or a byte_count field inconsistent with the stated quantity.
	ExIllegalDataValue Exception = 0x03
)

// Error satisfies the error interface so an Exception can be returned and
// compared with errors.Is from request-handling code.
func (ex Exception) Error() string {
	switch ex {
	case ExIllegalFunction:
		return "modbus: illegal function"
	case ExIllegalDataAddress:
		return "modbus: illegal data address"
	case ExIllegalDataValue:
		return "modbus: illegal data value"
	}
	return fmt.Sprintf("modbus: exception %#x", byte(ex))
}
