// Package idhash derives deterministic identifiers for pipeline entities.
package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// SessionIDLen is the length of the base58-encoded session id.
const SessionIDLen = 22

// ComputeSessionID computes a deterministic session_id from the session's
// natural key. Formula: base58(SHA256(visitor_id|visit_id)) truncated to
// SessionIDLen characters. Base58 keeps the id compact and safe for file
// names and URLs in downstream marketing tooling.
func ComputeSessionID(visitorID string, visitID int64) string {
	data := fmt.Sprintf("%s|%d", visitorID, visitID)
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])[:SessionIDLen]
}

// ComputeModelID computes a deterministic model id from the schema hash and
// the training window bounds. Two runs trained on the same columns and
// window produce the same id.
func ComputeModelID(schemaHash string, trainStart, trainEnd string) string {
	data := fmt.Sprintf("%s|%s|%s", schemaHash, trainStart, trainEnd)
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])[:SessionIDLen]
}
