package engine

import (
	"encoding/binary"
	"fmt"
)

// SizedPayloadHandler returns the built-in benchmark handler. A request
// whose first four bytes encode a big-endian size gets a zero-filled
// response of that size; shorter requests are echoed back. Sizes above
// maxBytes fail the call with an internal status, carried through the
// normal finish step.
func SizedPayloadHandler(maxBytes int) Handler {
	return func(req []byte) ([]byte, Status) {
		if len(req) < 4 {
			resp := make([]byte, len(req))
			copy(resp, req)
			return resp, StatusOK
		}
		size := int(binary.BigEndian.Uint32(req[:4]))
		if size > maxBytes {
			return nil, Status{Code: CodeInternal, Message: fmt.Sprintf("response size %d exceeds limit %d", size, maxBytes)}
		}
		return make([]byte, size), StatusOK
	}
}

// EchoHandler returns every request unchanged.
func EchoHandler() Handler {
	return func(req []byte) ([]byte, Status) {
		resp := make([]byte, len(req))
		copy(resp, req)
		return resp, StatusOK
	}
}
