package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON hashes the JSON encoding of v. Struct fields encode in declaration
// order and map keys sorted, so equal values hash equally.
func HashJSON(v any) (string, error) {
	h := sha256.New()
	if err := json.NewEncoder(h).Encode(v); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashKey returns "prefix:<digest>" where the digest covers every part in order.
func hashKey(prefix string, parts ...any) string {
	digest, err := HashJSON(parts)
	if err != nil {
		// Key options are plain structs of strings and numbers.
		panic("cache: unhashable key part: " + err.Error())
	}
	return prefix + ":" + digest
}
