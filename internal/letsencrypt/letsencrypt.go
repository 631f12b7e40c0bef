// Package letsencrypt looks up the terms of service of an ACME directory.
package letsencrypt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/acme"
)

const lookupTimeout = 10 * time.Second

// ErrNoTerms is returned when the directory does not publish terms of service.
var ErrNoTerms = errors.New("acme directory has no terms of service")

// TermsOfService returns the terms of service URL of the ACME directory at directoryURL.
// An empty directoryURL selects the Let's Encrypt production directory.
func TermsOfService(ctx context.Context, directoryURL string) (string, error) {
	if directoryURL == "" {
		directoryURL = acme.LetsEncryptURL
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	client := &acme.Client{DirectoryURL: directoryURL, UserAgent: "gitforge-admin"}

	dir, err := client.Discover(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to discover acme directory %s: %w", directoryURL, err)
	}

	if dir.Terms == "" {
		return "", ErrNoTerms
	}

	return dir.Terms, nil
}
