package detector

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Canonicalize serializes validated content to a stable byte form:
// JSON with sorted object keys, NFC-normalized so visually identical
// text always produces the same bytes.
func Canonicalize(content any) ([]byte, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize content: %w", err)
	}
	return norm.NFC.Bytes(data), nil
}

// Fingerprint computes a deterministic content digest over the
// canonical serialization. It depends only on content, never on time
// or run identity, so identical content always fingerprints equally.
func Fingerprint(serialized []byte) string {
	hash := sha256.Sum256(serialized)
	return hex.EncodeToString(hash[:])
}
