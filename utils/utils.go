package utils

import (
	"math/rand"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// API error codes surfaced in JSON error bodies.
const (
	ErrorTokenAuthFail = "auth_failure"
	ErrorSelfFollow    = "self_follow"
	ErrorInvalidInput  = "invalid_input"
	ErrorNotFound      = "not_found"
	ErrorInternal      = "internal_failure"
)

// ContainsString returns true iff the provided string slice hay contains
// string needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

// ChunkStrings partitions ids into ordered chunks of at most chunkSize
// elements. The final chunk holds the remainder and is never padded. A nil
// or empty input yields no chunks.
func ChunkStrings(ids []string, chunkSize int) [][]string {
	if chunkSize <= 0 {
		return [][]string{ids}
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// RandomAlphabetString generates a random lowercase string of given length.
func RandomAlphabetString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
