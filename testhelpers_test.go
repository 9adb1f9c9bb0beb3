package accounts_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	accounts "github.com/meridian-labs/go-accounts"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const sqliteCreateAccounts = `CREATE TABLE accounts (
    id TEXT NOT NULL PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'unverified',
    verification_code TEXT,
    verification_expires_at TIMESTAMP NULL,
    reset_token TEXT,
    reset_expires_at TIMESTAMP NULL,
    last_login_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`

func setupTestDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateAccounts)
	require.NoError(t, err)

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return bunDB, cleanup
}

func setupRepoManager(t *testing.T) (accounts.RepositoryManager, func()) {
	t.Helper()

	db, cleanup := setupTestDB(t)
	return accounts.NewRepositoryManager(db), cleanup
}

func seedAccount(t *testing.T, repo accounts.Accounts, account *accounts.Account) *accounts.Account {
	t.Helper()

	if account.PasswordHash == "" {
		hash, err := accounts.HashPassword("password123")
		require.NoError(t, err)
		account.PasswordHash = hash
	}

	record, err := repo.Register(context.Background(), account)
	require.NoError(t, err)
	return record
}

type capturingSink struct {
	mu     sync.Mutex
	events []accounts.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt accounts.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) Events() []accounts.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]accounts.ActivityEvent, len(c.events))
	copy(out, c.events)
	return out
}

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

type mailerCall struct {
	Kind  string
	Email string
	Value string
}

// recordingMailer is a thread safe Mailer fake. Best effort sends happen on
// a background goroutine, so every access goes through the mutex.
type recordingMailer struct {
	mu    sync.Mutex
	calls []mailerCall

	verificationErr error
	resetErr        error
}

func (m *recordingMailer) SendVerificationEmail(ctx context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.verificationErr != nil {
		return m.verificationErr
	}
	m.calls = append(m.calls, mailerCall{Kind: "verification", Email: email, Value: code})
	return nil
}

func (m *recordingMailer) SendWelcomeEmail(ctx context.Context, email, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mailerCall{Kind: "welcome", Email: email, Value: name})
	return nil
}

func (m *recordingMailer) SendPasswordResetEmail(ctx context.Context, email, resetLink string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resetErr != nil {
		return m.resetErr
	}
	m.calls = append(m.calls, mailerCall{Kind: "reset", Email: email, Value: resetLink})
	return nil
}

func (m *recordingMailer) SendResetSuccessEmail(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mailerCall{Kind: "reset_success", Email: email})
	return nil
}

func (m *recordingMailer) Calls(kind string) []mailerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mailerCall
	for _, c := range m.calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func waitForMailerCall(t *testing.T, m *recordingMailer, kind string) mailerCall {
	t.Helper()

	require.Eventually(t, func() bool {
		return len(m.Calls(kind)) > 0
	}, 2*time.Second, 10*time.Millisecond, "expected a %q email", kind)

	return m.Calls(kind)[0]
}
