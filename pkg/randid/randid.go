// Package randid generates short random identifiers and one-time passwords
// from fixed alphabets using crypto/rand.
package randid

import (
	"crypto/rand"
	"fmt"
)

const (
	// Alphanumeric is the 62-character alphabet used for log entry ids.
	Alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// passwordAlphabet extends Alphanumeric with symbols for generated
	// account passwords.
	passwordAlphabet = Alphanumeric + "!@#$%^&*_-+="

	// EntryIDLength is the length of log entry identifiers.
	EntryIDLength = 20
)

// New returns a random string of length n drawn from the 62-character
// alphanumeric alphabet.
func New(n int) string {
	return fromAlphabet(Alphanumeric, n)
}

// NewEntryID returns a fresh 20-character log entry identifier.
func NewEntryID() string {
	return New(EntryIDLength)
}

// Password returns a random password of length n, including symbols.
func Password(n int) string {
	return fromAlphabet(passwordAlphabet, n)
}

// fromAlphabet draws n characters uniformly from alphabet using rejection
// sampling so no character is favored by modulo bias.
func fromAlphabet(alphabet string, n int) string {
	out := make([]byte, 0, n)
	// Reject bytes >= the largest multiple of len(alphabet) below 256.
	max := byte(256 - (256 % len(alphabet)))

	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand never fails on supported platforms; if it does,
			// ids are unusable and continuing would corrupt the log keyspace.
			panic(fmt.Sprintf("randid: crypto/rand read failed: %v", err))
		}
		for _, b := range buf {
			if b >= max {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}
