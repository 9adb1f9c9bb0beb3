package accounts

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"

	goerrors "github.com/goliatone/go-errors"
)

const (
	verificationCodeDigits = 6
	resetTokenBytes        = 20
)

var verificationCodeSpace = big.NewInt(1_000_000)

// GenerateVerificationCode returns a zero padded 6 digit numeric code drawn
// uniformly from 000000-999999. The low entropy is acceptable because codes
// are short lived and single use per account.
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, verificationCodeSpace)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to draw verification code")
	}
	return fmt.Sprintf("%0*d", verificationCodeDigits, n), nil
}

// GenerateResetToken returns a hex encoded opaque token backed by 20 bytes
// of cryptographically secure random data.
func GenerateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate reset token")
	}
	return hex.EncodeToString(buf), nil
}

// SecureCompare reports whether two secrets are equal without leaking, via
// timing, where or whether they differ. Inputs are digested first so the
// comparison cost is independent of their lengths.
func SecureCompare(supplied, stored string) bool {
	a := sha256.Sum256([]byte(supplied))
	b := sha256.Sum256([]byte(stored))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
