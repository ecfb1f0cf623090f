package types

import "errors"

// Error classes returned by the codec, normalizer and overlay client. Callers match them
// with errors.Is; the wrapped error carries the detail.
var (
	ErrEncode         = errors.New("encode error")
	ErrDecode         = errors.New("decode error")
	ErrConversion     = errors.New("conversion error")
	ErrTransport      = errors.New("transport error")
	ErrResponseFormat = errors.New("response format error")
)
