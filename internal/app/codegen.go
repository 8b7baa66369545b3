package app

import (
	"errors"
	"math/rand/v2"
	"strconv"
)

const (
	codeMin = 100000
	codeMax = 999999

	// The space holds 900k codes; hitting this many collisions means the
	// registry is effectively saturated.
	maxCodeAttempts = 1000
)

var ErrCodeSpaceExhausted = errors.New("join code space exhausted")

// generateCode draws uniformly random 6-digit codes until taken reports a
// free one. The caller must hold whatever lock makes taken authoritative.
func generateCode(taken func(code string) bool) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := strconv.Itoa(codeMin + rand.IntN(codeMax-codeMin+1))
		if !taken(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
