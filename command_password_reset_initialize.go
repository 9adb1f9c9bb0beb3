package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "account.password_reset" }

type InitializePasswordResetResponse struct {
	Account   *Account
	Token     string
	ResetLink string
	Success   bool
}

type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	mailer   Mailer
	activity ActivitySink
	logger   Logger
	tokenTTL time.Duration
	baseURL  string
	now      func() time.Time
}

// NewInitializePasswordResetHandler creates a handler with sane defaults.
func NewInitializePasswordResetHandler(repo RepositoryManager, mailer Mailer) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:     repo,
		mailer:   normalizeMailer(mailer),
		activity: noopActivitySink{},
		logger:   defLogger{},
		tokenTTL: time.Hour,
		now:      time.Now,
	}
}

// WithActivitySink sets the sink used to emit password reset events.
func (h *InitializePasswordResetHandler) WithActivitySink(sink ActivitySink) *InitializePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithResetTokenTTL overrides how long the reset token stays valid.
func (h *InitializePasswordResetHandler) WithResetTokenTTL(ttl time.Duration) *InitializePasswordResetHandler {
	if ttl > 0 {
		h.tokenTTL = ttl
	}
	return h
}

// WithClientBaseURL sets the base URL used to build the reset link.
func (h *InitializePasswordResetHandler) WithClientBaseURL(baseURL string) *InitializePasswordResetHandler {
	h.baseURL = strings.TrimRight(baseURL, "/")
	return h
}

// WithClock injects a custom clock (useful for tests).
func (h *InitializePasswordResetHandler) WithClock(clock func() time.Time) *InitializePasswordResetHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	account := &Account{}
	token := ""

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var err error

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err = h.repo.Accounts().FindByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrAccountNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for password reset")
		}

		token, err = GenerateResetToken()
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate reset token")
		}

		// Issuing a new token invalidates any previous one.
		if _, err = h.repo.Accounts().SetResetTokenTx(ctx, tx, account.ID, token, h.now().Add(h.tokenTTL)); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store reset token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	resetLink := h.resetLink(token)

	if err := h.mailer.SendPasswordResetEmail(ctx, account.Email, resetLink); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send password reset email")
	}

	h.recordActivity(ctx, account)

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{
			Account:   account,
			Token:     token,
			ResetLink: resetLink,
			Success:   true,
		})
	}

	return nil
}

func (h *InitializePasswordResetHandler) resetLink(token string) string {
	if h.baseURL == "" {
		return fmt.Sprintf("/reset-password/%s", token)
	}
	return fmt.Sprintf("%s/reset-password/%s", h.baseURL, token)
}

func (h *InitializePasswordResetHandler) recordActivity(ctx context.Context, account *Account) {
	event := ActivityEvent{
		EventType: ActivityEventPasswordResetRequest,
		Actor: ActorRef{
			ID:   account.ID.String(),
			Type: "account",
		},
		AccountID:  account.ID.String(),
		OccurredAt: h.now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during password reset request: %v", err)
	}
}
