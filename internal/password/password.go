// Package password implements the credential hashing and verification used
// by the auth service. Hashing is bcrypt with a fixed cost; verification
// degrades malformed or legacy credentials to a plain "denied" instead of
// an error, so a bad stored hash can never crash a login or leak detail.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const hashCost = 12

// ErrVerifierFailure indicates the hashing library itself misbehaved. This
// is a configuration-level fault: callers must treat it as fatal, never as
// an authentication result.
var ErrVerifierFailure = errors.New("password verifier failure")

// Hash derives a bcrypt credential from plaintext. The salt is random per
// call, so hashing the same password twice yields different credentials.
func Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: empty password", ErrVerifierFailure)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), hashCost)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrVerifierFailure, err)
	}

	return string(hash), nil
}

// Verify reports whether plaintext matches the stored credential. A
// mismatch and a malformed credential both return (false, nil): the caller
// sees "denied" either way and cannot distinguish the two. The comparison
// inside bcrypt is constant-time. A non-nil error is reserved for verifier
// malfunction and must not be mapped to an auth decision.
func Verify(plaintext string, credential string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(credential), []byte(plaintext))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	// Malformed or truncated stored hashes deny authentication rather than
	// erroring; the record is unusable but the failure mode is safe.
	var prefixErr bcrypt.InvalidHashPrefixError
	if errors.Is(err, bcrypt.ErrHashTooShort) || errors.As(err, &prefixErr) {
		return false, nil
	}
	var costErr bcrypt.InvalidCostError
	if errors.As(err, &costErr) {
		return false, nil
	}

	return false, fmt.Errorf("%w: %w", ErrVerifierFailure, err)
}

// SelfCheck runs a hash/verify round trip. The auth service calls it once at
// construction so a broken verifier aborts startup instead of silently
// denying (or worse, bypassing) every login.
func SelfCheck() error {
	const probe = "self-check-probe"

	hash, err := Hash(probe)
	if err != nil {
		return err
	}

	ok, err := Verify(probe, hash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: round trip did not verify", ErrVerifierFailure)
	}

	return nil
}
