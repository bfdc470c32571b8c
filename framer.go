package modbus

import "encoding/binary"

// mbapHeader is the 7-byte Modbus Application Protocol header that
// prefixes every TCP frame.
type mbapHeader struct {
	transactionID uint16
	protocolID    uint16
	length        uint16 // bytes following this field (unit id + PDU)
	unitID        byte
}

// decodeHeader parses the 7-byte MBAP header and validates the two fields
// that, per spec.md §4.3 validation step 1, must be checked before the
// function code or body are even looked at. A non-nil error here means
// "close the connection", never "respond with an exception".
func decodeHeader(buf [7]byte) (mbapHeader, error) {
	h := mbapHeader{
		transactionID: binary.BigEndian.Uint16(buf[0:2]),
		protocolID:    binary.BigEndian.Uint16(buf[2:4]),
		length:        binary.BigEndian.Uint16(buf[4:6]),
		unitID:        buf[6],
	}
	if h.protocolID != 0 || h.length <= 2 || h.length >= 256 {
		return mbapHeader{}, errBadHeader
	}
	return h, nil
}

// encodeResponse assembles a full MBAP header + body response frame. code
// already carries the 0x80 exception bit when responding with an
// exception; body is the PDU bytes following the function code.
func encodeResponse(h mbapHeader, code byte, body []byte) []byte {
	frame := make([]byte, 7+1+len(body))
	binary.BigEndian.PutUint16(frame[0:2], h.transactionID)
	binary.BigEndian.PutUint16(frame[2:4], 0) // protocol id is always 0
	binary.BigEndian.PutUint16(frame[4:6], uint16(1+1+len(body)))
	frame[6] = h.unitID
	frame[7] = code
	copy(frame[8:], body)
	return frame
}

// encodeException builds a complete exception response frame for request
// function code fc and exception ex.
func encodeException(h mbapHeader, fc byte, ex Exception) []byte {
	return encodeResponse(h, fc|0x80, []byte{byte(ex)})
}
