package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTraceID computes a deterministic trace_id using SHA256.
// Formula: SHA256(source_address|asset|started_at)
// Returns hex-encoded hash (64 characters).
func ComputeTraceID(sourceAddress, asset string, startedAt int64) string {
	data := fmt.Sprintf("%s|%s|%d", sourceAddress, asset, startedAt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
