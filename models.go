package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountStatus tracks where an account sits in the email verification
// lifecycle. The transition is monotonic: once verified, never back.
type AccountStatus = string

const (
	StatusUnverified AccountStatus = "unverified"
	StatusVerified   AccountStatus = "verified"
)

// Account is the account model
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID           uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email        string    `bun:"email,notnull,unique" json:"email,omitempty"`
	Name         string    `bun:"name,notnull" json:"name,omitempty"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	Status       AccountStatus `bun:"status,notnull" json:"status,omitempty"`

	VerificationCode      *string    `bun:"verification_code,nullzero" json:"-"`
	VerificationExpiresAt *time.Time `bun:"verification_expires_at,nullzero" json:"-"`
	ResetToken            *string    `bun:"reset_token,nullzero" json:"-"`
	ResetExpiresAt        *time.Time `bun:"reset_expires_at,nullzero" json:"-"`

	LastLoginAt *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CreatedAt   *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt   *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt   *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// EnsureStatus normalizes a zero-value status to unverified.
func (a *Account) EnsureStatus() {
	if a.Status == "" {
		a.Status = StatusUnverified
	}
}

// IsVerified reports whether the account completed email verification.
func (a *Account) IsVerified() bool {
	return a.Status == StatusVerified
}

// SetVerificationCode stores a fresh code and its expiry as a pair.
func (a *Account) SetVerificationCode(code string, expiresAt time.Time) {
	a.VerificationCode = &code
	a.VerificationExpiresAt = &expiresAt
}

// ClearVerification drops the code and its expiry together.
func (a *Account) ClearVerification() {
	a.VerificationCode = nil
	a.VerificationExpiresAt = nil
}

// SetResetToken stores a fresh reset token and its expiry as a pair.
func (a *Account) SetResetToken(token string, expiresAt time.Time) {
	a.ResetToken = &token
	a.ResetExpiresAt = &expiresAt
}

// ClearReset drops the reset token and its expiry together. Called in the
// same save that replaces the password hash so the token is single use.
func (a *Account) ClearReset() {
	a.ResetToken = nil
	a.ResetExpiresAt = nil
}

// MarkVerified flips the account to verified and clears the verification
// pair. Verification fields are never repopulated afterwards.
func (a *Account) MarkVerified() {
	a.Status = StatusVerified
	a.ClearVerification()
}

// PublicAccount is the credential free projection of an Account handed to
// transport boundaries. It never carries the password hash or any pending
// secret.
type PublicAccount struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	IsVerified  bool       `json:"is_verified"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// Public returns the redacted projection of the account.
func (a *Account) Public() *PublicAccount {
	if a == nil {
		return nil
	}
	return &PublicAccount{
		ID:          a.ID.String(),
		Email:       a.Email,
		Name:        a.Name,
		IsVerified:  a.IsVerified(),
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
	}
}

var _ Identity = (*accountIdentity)(nil)

type accountIdentity struct {
	account *Account
}

// AsIdentity adapts an account record to the Identity interface.
func AsIdentity(a *Account) Identity {
	return &accountIdentity{account: a}
}

func (i *accountIdentity) ID() string     { return i.account.ID.String() }
func (i *accountIdentity) Email() string  { return i.account.Email }
func (i *accountIdentity) Name() string   { return i.account.Name }
func (i *accountIdentity) Verified() bool { return i.account.IsVerified() }

func isExpired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return true
	}
	return now.After(*expiresAt)
}
