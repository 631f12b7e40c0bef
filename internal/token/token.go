// Package token generates secret tokens such as the runner registration token.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// RunnerRegistrationPrefix marks instance level runner registration tokens.
	RunnerRegistrationPrefix = "GR1348941"

	// RandomLen is the number of random characters of a token.
	RandomLen = 20

	// byteRange is the number of possible byte values.
	byteRange = 256
)

// alphabet of generated tokens; '-' and '_' keep tokens URL safe.
var alphabet = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_")

// ErrInvalidLength is returned for non positive lengths.
var ErrInvalidLength = errors.New("token length must be positive")

// Random returns length random characters of the token alphabet.
// Bytes above the largest multiple of the alphabet size are rejected to avoid modulo bias.
func Random(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	var (
		clen  = len(alphabet)
		limit = byteRange - (byteRange % clen)
		out   = make([]byte, 0, length)
		buf   = make([]byte, length+length/2)
	)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, alphabet[int(b)%clen])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}

// RunnerRegistration returns a new prefixed runner registration token.
func RunnerRegistration() (string, error) {
	r, err := Random(RandomLen)
	if err != nil {
		return "", err
	}

	return RunnerRegistrationPrefix + r, nil
}
