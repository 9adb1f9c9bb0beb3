package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
)

// AccountTracker is a store we can use to retrieve accounts
type AccountTracker interface {
	GetByIdentifier(ctx context.Context, identifier string) (*Account, error)
	TrackLogin(ctx context.Context, account *Account) error
}

// AccountProvider resolves identities against the accounts store.
type AccountProvider struct {
	store  AccountTracker
	logger Logger
}

// NewAccountProvider will create a new AccountProvider
func NewAccountProvider(store AccountTracker) *AccountProvider {
	return &AccountProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *AccountProvider) WithLogger(l Logger) *AccountProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the account, compare the password, and return
// the identity. Unknown emails and wrong passwords both come back as
// ErrInvalidCredentials, and an unknown email still pays for a bcrypt
// comparison so the two cases take comparable time.
func (u AccountProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	account, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			_ = ComparePasswordAndHash(password, RandomPasswordHash())
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account during verification")
	}

	if account == nil {
		return nil, ErrIdentityNotFound
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := u.store.TrackLogin(ctx, account); err != nil {
		u.logger.Error("failed to track login: %v", err)
	}

	return AsIdentity(account), nil
}

func (u AccountProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	account, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if account == nil {
		return nil, ErrIdentityNotFound
	}

	return AsIdentity(account), nil
}
