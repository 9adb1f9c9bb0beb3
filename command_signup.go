package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type SignupMessage struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	UseHashid  bool
	OnResponse func(resp *SignupResponse)
}

func (e SignupMessage) Type() string { return "account.signup" }

type SignupResponse struct {
	Account *Account
	// EmailSent is false when the account was created but the verification
	// email could not be delivered. Callers should still treat the signup
	// as successful and let the user request a new code.
	EmailSent bool
}

type SignupHandler struct {
	repo     RepositoryManager
	mailer   Mailer
	activity ActivitySink
	logger   Logger
	codeTTL  time.Duration
	now      func() time.Time
}

// NewSignupHandler creates a handler with sane defaults.
func NewSignupHandler(repo RepositoryManager, mailer Mailer) *SignupHandler {
	return &SignupHandler{
		repo:     repo,
		mailer:   normalizeMailer(mailer),
		activity: noopActivitySink{},
		logger:   defLogger{},
		codeTTL:  24 * time.Hour,
		now:      time.Now,
	}
}

// WithActivitySink sets the sink used to emit signup events.
func (h *SignupHandler) WithActivitySink(sink ActivitySink) *SignupHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *SignupHandler) WithLogger(logger Logger) *SignupHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithVerificationTTL overrides how long a fresh verification code stays valid.
func (h *SignupHandler) WithVerificationTTL(ttl time.Duration) *SignupHandler {
	if ttl > 0 {
		h.codeTTL = ttl
	}
	return h
}

// WithClock injects a custom clock (useful for tests).
func (h *SignupHandler) WithClock(clock func() time.Time) *SignupHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *SignupHandler) Execute(ctx context.Context, event SignupMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during signup",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupHandler) execute(ctx context.Context, event SignupMessage) error {
	account := &Account{}
	code := ""

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Accounts().FindByEmailTx(ctx, tx, event.Email); err == nil {
			return ErrAccountExists
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		code, err = GenerateVerificationCode()
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification code")
		}

		account.Name = event.Name
		account.Email = event.Email
		account.PasswordHash = hash
		account.SetVerificationCode(code, h.now().Add(h.codeTTL))
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				account.ID = id
			}
		}

		if account, err = h.repo.Accounts().RegisterTx(ctx, tx, account); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "signup transaction failed")
	}

	emailSent := true
	if err := h.mailer.SendVerificationEmail(ctx, account.Email, code); err != nil {
		emailSent = false
		h.logger.Warn("signup verification email failed for %s: %v", account.Email, err)
	}

	h.recordActivity(ctx, account)

	if event.OnResponse != nil {
		event.OnResponse(&SignupResponse{
			Account:   account,
			EmailSent: emailSent,
		})
	}

	return nil
}

func (h *SignupHandler) recordActivity(ctx context.Context, account *Account) {
	event := ActivityEvent{
		EventType: ActivityEventSignup,
		Actor: ActorRef{
			ID:   account.ID.String(),
			Type: "account",
		},
		AccountID:  account.ID.String(),
		ToStatus:   account.Status,
		OccurredAt: h.now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during signup: %v", err)
	}
}
