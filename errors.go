package accounts

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeAccountExists      = "ACCOUNT_EXISTS"
	TextCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeAlreadyVerified    = "ALREADY_VERIFIED"
	TextCodeCodeMismatch       = "VERIFICATION_CODE_MISMATCH"
	TextCodeCodeExpired        = "VERIFICATION_CODE_EXPIRED"
	TextCodeResetTokenInvalid  = "RESET_TOKEN_INVALID"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
)

// ErrAccountExists is returned when signup hits an email already registered.
var ErrAccountExists = goerrors.New("account already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeAccountExists).
	WithCode(goerrors.CodeConflict)

// ErrAccountNotFound is returned when no account matches the identifier.
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidCredentials deliberately covers both unknown email and wrong
// password. Callers must not split the two apart in responses.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeBadRequest)

// ErrAlreadyVerified is returned when verifying an account a second time.
var ErrAlreadyVerified = goerrors.New("email is already verified", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(goerrors.CodeConflict)

// ErrCodeMismatch is returned when the supplied verification code does not
// match the stored one.
var ErrCodeMismatch = goerrors.New("invalid verification code", goerrors.CategoryValidation).
	WithTextCode(TextCodeCodeMismatch).
	WithCode(goerrors.CodeBadRequest)

// ErrCodeExpired is returned when the stored verification code expired.
var ErrCodeExpired = goerrors.New("verification code has expired", goerrors.CategoryValidation).
	WithTextCode(TextCodeCodeExpired).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidResetToken covers unknown, expired, and already used reset
// tokens. One message for all three on purpose.
var ErrInvalidResetToken = goerrors.New("invalid or expired reset token", goerrors.CategoryValidation).
	WithTextCode(TextCodeResetTokenInvalid).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned for session tokens past their window.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for session tokens we cannot parse or whose
// signature does not verify.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = errors.New("unable to find session")

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data")

// ErrUnableToMapClaims unable to coerce JWT claims
var ErrUnableToMapClaims = errors.New("unable to map claims")

// ErrNoEmptyString guards hashing empty passwords
var ErrNoEmptyString = errors.New("password must not be empty")

// ErrMismatchedHashAndPassword is the sentinel for a failed password check
var ErrMismatchedHashAndPassword = errors.New("mismatched password")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
