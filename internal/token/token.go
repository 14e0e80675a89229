// Package token produces the short human-shareable codes attached to meeting
// requests. Codes are distinct from storage identifiers and are displayed to
// the requester when a meeting is scheduled.
package token

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"time"
)

// Prefix is the fixed leading segment of every meeting token.
const Prefix = "SJU-"

// alphabet is the base-36 uppercase code space; three positions give 46656
// combinations, so uniqueness relies on the storage constraint, not on the
// generator.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const codeLength = 3

var pattern = regexp.MustCompile(`^SJU-[0-9A-Z]{3}$`)

// Generate returns a fresh meeting token of the shape SJU-XXX where each X is
// drawn from [0-9A-Z]. Entropy comes from crypto/rand; if the random source is
// unavailable the code falls back to the current clock so the caller still
// receives a well-formed token.
func Generate() string {
	buf := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		seed := time.Now().UnixNano()
		for i := range buf {
			buf[i] = byte(seed >> (8 * i))
		}
	}

	code := make([]byte, codeLength)
	for i, b := range buf {
		code[i] = alphabet[int(b)%len(alphabet)]
	}

	return fmt.Sprintf("%s%s", Prefix, code)
}

// Valid reports whether value is a well-formed meeting token.
func Valid(value string) bool {
	return pattern.MatchString(value)
}
