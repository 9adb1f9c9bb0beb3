package accounts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	accounts "github.com/meridian-labs/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializePasswordResetHandler(t *testing.T) {
	repo, cleanup := setupRepoManager(t)
	defer cleanup()

	ctx := context.Background()
	mailer := &recordingMailer{}
	sink := &capturingSink{}
	now := time.Now()

	seeded := seedAccount(t, repo.Accounts(), &accounts.Account{
		Email: "person@example.com",
		Name:  "Person",
	})

	handler := accounts.NewInitializePasswordResetHandler(repo, mailer).
		WithLogger(testLogger{}).
		WithActivitySink(sink).
		WithResetTokenTTL(time.Hour).
		WithClientBaseURL("https://app.example.com/")

	var res *accounts.InitializePasswordResetResponse

	err := handler.Execute(ctx, accounts.InitializePasswordResetMessage{
		Email: "person@example.com",
		OnResponse: func(resp *accounts.InitializePasswordResetResponse) {
			res = resp
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Success)
	assert.Len(t, res.Token, 40)
	assert.Equal(t, "https://app.example.com/reset-password/"+res.Token, res.ResetLink)

	stored, err := repo.Accounts().FindByEmail(ctx, "person@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.ResetToken)
	assert.Equal(t, res.Token, *stored.ResetToken)
	require.NotNil(t, stored.ResetExpiresAt)
	assert.WithinDuration(t, now.Add(time.Hour), *stored.ResetExpiresAt, 5*time.Second)

	calls := mailer.Calls("reset")
	require.Len(t, calls, 1)
	assert.Equal(t, "person@example.com", calls[0].Email)
	assert.Equal(t, res.ResetLink, calls[0].Value)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, accounts.ActivityEventPasswordResetRequest, events[0].EventType)
	assert.Equal(t, seeded.ID.String(), events[0].AccountID)
}

func TestInitializePasswordResetHandlerRelativeLink(t *testing.T) {
	repo, cleanup := setupRepoManager(t)
	defer cleanup()

	seedAccount(t, repo.Accounts(), &accounts.Account{
		Email: "person@example.com",
		Name:  "Person",
	})

	handler := accounts.NewInitializePasswordResetHandler(repo, &recordingMailer{}).
		WithLogger(testLogger{})

	var res *accounts.InitializePasswordResetResponse

	err := handler.Execute(context.Background(), accounts.InitializePasswordResetMessage{
		Email: "person@example.com",
		OnResponse: func(resp *accounts.InitializePasswordResetResponse) {
			res = resp
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/reset-password/"+res.Token, res.ResetLink)
}

func TestInitializePasswordResetHandlerUnknownEmail(t *testing.T) {
	repo, cleanup := setupRepoManager(t)
	defer cleanup()

	handler := accounts.NewInitializePasswordResetHandler(repo, &recordingMailer{}).
		WithLogger(testLogger{})

	err := handler.Execute(context.Background(), accounts.InitializePasswordResetMessage{
		Email: "missing@example.com",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
}

func TestInitializePasswordResetHandlerNewTokenReplacesOld(t *testing.T) {
	repo, cleanup := setupRepoManager(t)
	defer cleanup()

	ctx := context.Background()
	seedAccount(t, repo.Accounts(), &accounts.Account{
		Email: "person@example.com",
		Name:  "Person",
	})

	handler := accounts.NewInitializePasswordResetHandler(repo, &recordingMailer{}).
		WithLogger(testLogger{})

	issue := func() string {
		var res *accounts.InitializePasswordResetResponse
		err := handler.Execute(ctx, accounts.InitializePasswordResetMessage{
			Email: "person@example.com",
			OnResponse: func(resp *accounts.InitializePasswordResetResponse) {
				res = resp
			},
		})
		require.NoError(t, err)
		return res.Token
	}

	first := issue()
	second := issue()
	require.NotEqual(t, first, second)

	_, err := repo.Accounts().FindByResetToken(ctx, first)
	assert.Error(t, err)

	found, err := repo.Accounts().FindByResetToken(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "person@example.com", found.Email)
}

func TestInitializePasswordResetHandlerMailFailure(t *testing.T) {
	repo, cleanup := setupRepoManager(t)
	defer cleanup()

	ctx := context.Background()
	mailer := &recordingMailer{resetErr: errors.New("smtp unavailable")}

	seedAccount(t, repo.Accounts(), &accounts.Account{
		Email: "person@example.com",
		Name:  "Person",
	})

	handler := accounts.NewInitializePasswordResetHandler(repo, mailer).
		WithLogger(testLogger{})

	err := handler.Execute(ctx, accounts.InitializePasswordResetMessage{
		Email: "person@example.com",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send password reset email")
}
