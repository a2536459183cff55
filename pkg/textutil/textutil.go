package textutil

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// HashString returns the hex md5 digest of the input. Cache keys are
// content-addressed with this hash after trimming surrounding whitespace.
func HashString(input string) string {
	hash := md5.Sum([]byte(strings.TrimSpace(input)))
	return fmt.Sprintf("%x", hash)
}

// WordCount counts whitespace-delimited tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Truncate cuts text to at most n bytes.
func Truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n]
}

// ContainsAny reports whether the lowercased text contains any of the
// given lowercase markers.
func ContainsAny(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
