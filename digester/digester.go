package digester

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"
	"os"
	"strings"
)

// Algorithm names a hash function accepted in an SRI value.
type Algorithm string

// Supported algorithms. SHA384 is the default.
const (
	SHA256 Algorithm = "sha256"
	SHA384 Algorithm = "sha384"
	SHA512 Algorithm = "sha512"

	Default = SHA384
)

var (
	// ErrUnsupportedAlgorithm is returned for hash names outside the
	// sha256/sha384/sha512 set.
	ErrUnsupportedAlgorithm = errors.New("unsupported integrity algorithm")

	// ErrMalformedIntegrity is returned when an integrity value holds no
	// token with a supported algorithm.
	ErrMalformedIntegrity = errors.New("malformed integrity value")
)

// ParseAlgorithm maps a case-insensitive name to an Algorithm.
// An empty name selects Default.
func ParseAlgorithm(name string) (Algorithm, error) {
	const errCtx = "parsing algorithm"

	if name == "" {
		return Default, nil
	}

	al := Algorithm(strings.ToLower(strings.TrimSpace(name)))

	if _, err := al.newHash(); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return al, nil
}

func (al Algorithm) newHash() (hash.Hash, error) {
	switch al {
	case SHA256:
		return sha256.New(), nil
	case SHA384:
		return sha512.New384(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(al))
	}
}

// Sum returns the SRI value of data.
func Sum(al Algorithm, data []byte) (string, error) {
	const errCtx = "computing integrity"

	ha, err := al.newHash()
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	_, _ = ha.Write(data) //nolint:errcheck // hash.Hash never fails

	return string(al) + "-" +
		base64.StdEncoding.EncodeToString(ha.Sum(nil)), nil
}

// CalculateIntegrity reads the whole file at path and returns its
// SRI value. A missing file is an error; callers that want to
// skip absent assets must check before calling.
func CalculateIntegrity(path string, al Algorithm) (string, error) {
	const errCtx = "calculating integrity"

	content, err := os.ReadFile(path) //nolint:gosec // path is caller-provided by design
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	sri, err := Sum(al, content)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return sri, nil
}

// VerifyIntegrity reports whether the file at path matches
// integrity. The value may list several space separated tokens,
// each optionally followed by "?options"; the file matches when
// any token with a supported algorithm matches. Tokens with an
// unknown algorithm are ignored.
func VerifyIntegrity(path string, integrity string) (bool, error) {
	const errCtx = "verifying integrity"

	var tokens []string

	for _, tok := range strings.Fields(integrity) {
		if idx := strings.IndexByte(tok, '?'); idx >= 0 {
			tok = tok[:idx]
		}

		name, _, ok := strings.Cut(tok, "-")
		if !ok {
			continue
		}

		if _, err := Algorithm(strings.ToLower(name)).newHash(); err != nil {
			continue
		}

		tokens = append(tokens, tok)
	}

	if len(tokens) == 0 {
		return false, fmt.Errorf(
			"%s: %w: %q", errCtx, ErrMalformedIntegrity, integrity,
		)
	}

	content, err := os.ReadFile(path) //nolint:gosec // path is caller-provided by design
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	for _, tok := range tokens {
		name, _, _ := strings.Cut(tok, "-")

		calc, err := Sum(Algorithm(strings.ToLower(name)), content)
		if err != nil {
			return false, fmt.Errorf("%s: %w", errCtx, err)
		}

		_, want, _ := strings.Cut(tok, "-")
		_, got, _ := strings.Cut(calc, "-")

		if subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1 {
			return true, nil
		}
	}

	return false, nil
}
