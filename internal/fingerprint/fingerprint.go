// Package fingerprint computes the content digests used as deduplication keys.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Bytes returns the lowercase hex SHA-256 digest of b.
// Identical inputs always produce identical digests.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Reader consumes r to EOF and returns the lowercase hex SHA-256 digest of
// its contents along with the number of bytes read. It fails only if the
// stream cannot be fully read.
func Reader(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
