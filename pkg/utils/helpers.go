package utils

import (
	"encoding/hex"
	"strings"
)

// ConcatFields joins PushDrop fields into the byte string their signature covers.
func ConcatFields(fields [][]byte) []byte {
	size := 0
	for _, field := range fields {
		size += len(field)
	}

	data := make([]byte, 0, size)
	for _, field := range fields {
		data = append(data, field...)
	}
	return data
}

// HexToBytes decodes a hex string, tolerating surrounding whitespace and a 0x prefix.
func HexToBytes(hexStr string) ([]byte, error) {
	hexStr = strings.TrimSpace(hexStr)
	hexStr = strings.TrimPrefix(strings.TrimPrefix(hexStr, "0x"), "0X")
	return hex.DecodeString(hexStr)
}
