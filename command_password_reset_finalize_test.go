package accounts_test

import (
	"context"
	"testing"
	"time"

	accounts "github.com/meridian-labs/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccountWithResetToken(t *testing.T, repo accounts.RepositoryManager, email string, expiresAt time.Time) (*accounts.Account, string) {
	t.Helper()

	seeded := seedAccount(t, repo.Accounts(), &accounts.Account{
		Email: email,
		Name:  "Person",
	})

	token, err := accounts.GenerateResetToken()
	require.NoError(t, err)

	_, err = repo.Accounts().SetResetToken(context.Background(), seeded.ID, token, expiresAt)
	require.NoError(t, err)

	return seeded, token
}

func TestFinalizePasswordResetHandler(t *testing.T) {
	repo, cleanup := setupRepoManager(t)
	defer cleanup()

	ctx := context.Background()
	mailer := &recordingMailer{}
	sink := &capturingSink{}

	seeded, token := seedAccountWithResetToken(t, repo, "person@example.com", time.Now().Add(time.Hour))

	handler := accounts.NewFinalizePasswordResetHandler(repo, mailer).
		WithLogger(testLogger{}).
		WithActivitySink(sink)

	var res *accounts.FinalizePasswordResetResponse

	err := handler.Execute(ctx, accounts.FinalizePasswordResetMessage{
		Token:    token,
		Password: "brand-new-password",
		OnResponse: func(resp *accounts.FinalizePasswordResetResponse) {
			res = resp
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Success)

	stored, err := repo.Accounts().FindByEmail(ctx, "person@example.com")
	require.NoError(t, err)
	assert.NoError(t, accounts.ComparePasswordAndHash("brand-new-password", stored.PasswordHash))
	assert.Nil(t, stored.ResetToken)
	assert.Nil(t, stored.ResetExpiresAt)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, accounts.ActivityEventPasswordResetSuccess, events[0].EventType)
	assert.Equal(t, seeded.ID.String(), events[0].AccountID)

	confirmation := waitForMailerCall(t, mailer, "reset_success")
	assert.Equal(t, "person@example.com", confirmation.Email)
}

func TestFinalizePasswordResetHandlerTokenIsSingleUse(t *testing.T) {
	repo, cleanup := setupRepoManager(t)
	defer cleanup()

	ctx := context.Background()
	_, token := seedAccountWithResetToken(t, repo, "person@example.com", time.Now().Add(time.Hour))

	handler := accounts.NewFinalizePasswordResetHandler(repo, &recordingMailer{}).
		WithLogger(testLogger{})

	err := handler.Execute(ctx, accounts.FinalizePasswordResetMessage{
		Token:    token,
		Password: "first-new-password",
	})
	require.NoError(t, err)

	err = handler.Execute(ctx, accounts.FinalizePasswordResetMessage{
		Token:    token,
		Password: "second-new-password",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrInvalidResetToken)

	stored, err := repo.Accounts().FindByEmail(ctx, "person@example.com")
	require.NoError(t, err)
	assert.NoError(t, accounts.ComparePasswordAndHash("first-new-password", stored.PasswordHash))
}

func TestFinalizePasswordResetHandlerExpiredToken(t *testing.T) {
	repo, cleanup := setupRepoManager(t)
	defer cleanup()

	_, token := seedAccountWithResetToken(t, repo, "person@example.com", time.Now().Add(-time.Minute))

	handler := accounts.NewFinalizePasswordResetHandler(repo, &recordingMailer{}).
		WithLogger(testLogger{})

	err := handler.Execute(context.Background(), accounts.FinalizePasswordResetMessage{
		Token:    token,
		Password: "whatever-password",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrInvalidResetToken)
}

func TestFinalizePasswordResetHandlerUnknownToken(t *testing.T) {
	repo, cleanup := setupRepoManager(t)
	defer cleanup()

	handler := accounts.NewFinalizePasswordResetHandler(repo, &recordingMailer{}).
		WithLogger(testLogger{})

	err := handler.Execute(context.Background(), accounts.FinalizePasswordResetMessage{
		Token:    "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
		Password: "whatever-password",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrInvalidResetToken)
}

func TestFinalizePasswordResetHandlerEmptyPassword(t *testing.T) {
	repo, cleanup := setupRepoManager(t)
	defer cleanup()

	ctx := context.Background()
	_, token := seedAccountWithResetToken(t, repo, "person@example.com", time.Now().Add(time.Hour))

	handler := accounts.NewFinalizePasswordResetHandler(repo, &recordingMailer{}).
		WithLogger(testLogger{})

	err := handler.Execute(ctx, accounts.FinalizePasswordResetMessage{
		Token: token,
	})
	require.Error(t, err)

	// the rejected attempt must not consume the token
	found, err := repo.Accounts().FindByResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "person@example.com", found.Email)
}
