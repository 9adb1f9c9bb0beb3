package accounts

import "context"

// LogMailer is the default Mailer. It only writes the would-be sends to the
// logger, which is what you want in development and in tests.
type LogMailer struct {
	logger Logger
}

var _ Mailer = (*LogMailer)(nil)

// NewLogMailer creates a mailer that logs instead of delivering.
func NewLogMailer(logger Logger) *LogMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerificationEmail(ctx context.Context, email, code string) error {
	m.logger.Info("mail: verification email to=%s code=%s", email, code)
	return nil
}

func (m *LogMailer) SendWelcomeEmail(ctx context.Context, email, name string) error {
	m.logger.Info("mail: welcome email to=%s name=%s", email, name)
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(ctx context.Context, email, resetLink string) error {
	m.logger.Info("mail: password reset email to=%s link=%s", email, resetLink)
	return nil
}

func (m *LogMailer) SendResetSuccessEmail(ctx context.Context, email string) error {
	m.logger.Info("mail: reset success email to=%s", email)
	return nil
}

func normalizeMailer(m Mailer) Mailer {
	if m == nil {
		return NewLogMailer(nil)
	}
	return m
}

// sendBestEffort runs an email send after a committed transition. Delivery
// failure is logged and swallowed: it must never roll back or fail the
// transition that already succeeded. The send is detached from the request
// context so a cancelled request does not cancel the notification.
func sendBestEffort(logger Logger, what string, send func(ctx context.Context) error) {
	if logger == nil {
		logger = defLogger{}
	}
	go func() {
		if err := send(context.Background()); err != nil {
			logger.Warn("best effort %s email failed: %v", what, err)
		}
	}()
}
