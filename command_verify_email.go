package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type VerifyEmailMessage struct {
	Email      string `json:"email"`
	Code       string `json:"code"`
	OnResponse func(resp *VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "account.verify_email" }

type VerifyEmailResponse struct {
	Account *Account
}

type VerifyEmailHandler struct {
	repo     RepositoryManager
	mailer   Mailer
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

// NewVerifyEmailHandler creates a handler with sane defaults.
func NewVerifyEmailHandler(repo RepositoryManager, mailer Mailer) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:     repo,
		mailer:   normalizeMailer(mailer),
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

// WithActivitySink sets the sink used to emit verification events.
func (h *VerifyEmailHandler) WithActivitySink(sink ActivitySink) *VerifyEmailHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock (useful for tests).
func (h *VerifyEmailHandler) WithClock(clock func() time.Time) *VerifyEmailHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	account, err := h.repo.Accounts().FindByEmail(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrAccountNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for verification")
	}

	if account.IsVerified() {
		return ErrAlreadyVerified
	}

	// The code comparison runs before the expiry check so a wrong code
	// never learns whether the stored one is stale.
	stored := ""
	if account.VerificationCode != nil {
		stored = *account.VerificationCode
	}

	if !SecureCompare(event.Code, stored) || stored == "" {
		return ErrCodeMismatch
	}

	if isExpired(account.VerificationExpiresAt, h.now()) {
		return ErrCodeExpired
	}

	actor := ActorRef{ID: account.ID.String(), Type: "account"}

	account, err = h.repo.Accounts().Verify(ctx, actor, account,
		WithTransitionReason("email verification"),
	)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify account")
	}

	h.recordActivity(ctx, account)

	sendBestEffort(h.logger, "welcome email", func(ctx context.Context) error {
		return h.mailer.SendWelcomeEmail(ctx, account.Email, account.Name)
	})

	if event.OnResponse != nil {
		event.OnResponse(&VerifyEmailResponse{Account: account})
	}

	return nil
}

func (h *VerifyEmailHandler) recordActivity(ctx context.Context, account *Account) {
	event := ActivityEvent{
		EventType: ActivityEventAccountVerified,
		Actor: ActorRef{
			ID:   account.ID.String(),
			Type: "account",
		},
		AccountID:  account.ID.String(),
		FromStatus: StatusUnverified,
		ToStatus:   StatusVerified,
		OccurredAt: h.now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during verification: %v", err)
	}
}
