package utils

import (
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	hash "github.com/bsv-blockchain/go-sdk/primitives/hash"
)

// IsTokenSignatureCorrectlyLinked checks that the last PushDrop field is a signature over
// the preceding fields made by the key that locks the output.
//
// HelloWorld tokens are signed by their owner for themselves, so the signing key and the
// locking key are the same derived child key and no identity key travels in the fields.
func IsTokenSignatureCorrectlyLinked(lockingPublicKey *ec.PublicKey, fields [][]byte) bool {
	if lockingPublicKey == nil || len(fields) < 2 {
		return false
	}

	signatureBytes := fields[len(fields)-1]
	sig, err := ec.ParseSignature(signatureBytes)
	if err != nil {
		return false
	}

	data := ConcatFields(fields[:len(fields)-1])
	return sig.Verify(hash.Sha256(data), lockingPublicKey)
}
