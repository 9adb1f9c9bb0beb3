package accounts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	accounts "github.com/meridian-labs/go-accounts"
	"github.com/meridian-labs/go-accounts/middleware/jwtware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPAuthenticator(t *testing.T) {
	mockAuth := new(MockAuthenticator)

	httpAuth, err := accounts.NewHTTPAuthenticator(mockAuth, newTestConfig())

	require.NoError(t, err)
	assert.NotNil(t, httpAuth)
	assert.Equal(t, 24*time.Hour, httpAuth.GetCookieDuration())
}

func TestRouteAuthenticator_Login(t *testing.T) {
	mockAuth := new(MockAuthenticator)
	mockCtx := new(MockContext)

	mockAuth.On("Login", mock.Anything, "user@example.com", "password123").Return("valid.jwt.token", nil)

	mockCtx.On("Context").Return(context.Background())
	mockCtx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == "session" &&
			c.Value == "valid.jwt.token" &&
			c.HTTPOnly &&
			c.Secure &&
			c.SameSite == "None" &&
			c.Expires.After(time.Now())
	})).Return()

	httpAuth, err := accounts.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)

	payload := MockLoginPayload{
		Identifier: "user@example.com",
		Password:   "password123",
	}

	err = httpAuth.Login(mockCtx, payload)
	require.NoError(t, err)

	mockAuth.AssertExpectations(t)
	mockCtx.AssertExpectations(t)
}

func TestRouteAuthenticator_LoginError(t *testing.T) {
	mockAuth := new(MockAuthenticator)
	mockCtx := new(MockContext)

	mockAuth.On("Login", mock.Anything, "user@example.com", "wrongpass").
		Return("", accounts.ErrInvalidCredentials)

	mockCtx.On("Context").Return(context.Background())

	httpAuth, err := accounts.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)

	payload := MockLoginPayload{
		Identifier: "user@example.com",
		Password:   "wrongpass",
	}

	err = httpAuth.Login(mockCtx, payload)
	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)

	mockCtx.AssertNotCalled(t, "Cookie", mock.Anything)

	mockAuth.AssertExpectations(t)
	mockCtx.AssertExpectations(t)
}

func TestRouteAuthenticator_SetSession(t *testing.T) {
	mockAuth := new(MockAuthenticator)
	mockCtx := new(MockContext)

	mockCtx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == "session" && c.Value == "some.jwt.token" && c.HTTPOnly
	})).Return()

	httpAuth, err := accounts.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)

	httpAuth.SetSession(mockCtx, "some.jwt.token")

	mockCtx.AssertExpectations(t)
}

func TestRouteAuthenticator_Logout(t *testing.T) {
	mockAuth := new(MockAuthenticator)
	mockCtx := new(MockContext)

	mockCtx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == "session" && c.Value == "" && c.HTTPOnly && c.Expires.Before(time.Now())
	})).Return()

	httpAuth, err := accounts.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)

	httpAuth.Logout(mockCtx)

	mockCtx.AssertExpectations(t)
}

func TestRouteAuthenticator_ProtectedRoute(t *testing.T) {
	mockAuth := new(MockAuthenticator)

	httpAuth, err := accounts.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)

	errorHandler := func(ctx router.Context, err error) error {
		return ctx.Status(router.StatusUnauthorized).SendString("Unauthorized")
	}

	middleware := httpAuth.ProtectedRoute(newTestConfig(), errorHandler)

	middlewareFunc := router.ToMiddleware(func(c router.Context) error { return nil })
	assert.IsType(t, middlewareFunc, middleware)
}

func TestRouteAuthenticator_ProtectedRouteAcceptsIssuedToken(t *testing.T) {
	cfg := newTestConfig()
	auther := accounts.NewAuthenticator(new(MockIdentityProvider), cfg)

	httpAuth, err := accounts.NewHTTPAuthenticator(auther, cfg)
	require.NoError(t, err)

	token, err := auther.TokenService().Issue("9a1d7f10-50a8-4b4c-9b5e-6a5d0a3b92e1")
	require.NoError(t, err)

	mockCtx := new(MockContext)
	mockCtx.On("Cookies", "session").Return("")
	mockCtx.On("GetString", "Authorization", "").Return("Bearer " + token)
	mockCtx.On("Locals", "session", mock.AnythingOfType("*jwt.Token")).Return()

	middleware := httpAuth.ProtectedRoute(cfg, httpAuth.MakeClientRouteAuthErrorHandler(false))
	handler := middleware(func(c router.Context) error { return nil })

	err = handler(mockCtx)
	require.NoError(t, err)
	assert.True(t, mockCtx.NextCalled)

	mockCtx.AssertExpectations(t)
}

func TestRouteAuthenticator_ProtectedRouteRejectsBadTokens(t *testing.T) {
	cfg := newTestConfig()
	auther := accounts.NewAuthenticator(new(MockIdentityProvider), cfg)

	httpAuth, err := accounts.NewHTTPAuthenticator(auther, cfg)
	require.NoError(t, err)

	var capturedErr error
	httpAuth.AuthErrorHandler = func(c router.Context, err error) error {
		capturedErr = err
		return nil
	}

	middleware := httpAuth.ProtectedRoute(cfg, httpAuth.MakeClientRouteAuthErrorHandler(false))
	handler := middleware(func(c router.Context) error { return nil })

	t.Run("missing token", func(t *testing.T) {
		capturedErr = nil
		mockCtx := new(MockContext)
		mockCtx.On("Cookies", "session").Return("")
		mockCtx.On("GetString", "Authorization", "").Return("")

		err := handler(mockCtx)
		require.NoError(t, err)
		assert.ErrorIs(t, capturedErr, accounts.ErrTokenMalformed)
		assert.False(t, mockCtx.NextCalled)
	})

	t.Run("garbage token", func(t *testing.T) {
		capturedErr = nil
		mockCtx := new(MockContext)
		mockCtx.On("Cookies", "session").Return("")
		mockCtx.On("GetString", "Authorization", "").Return("Bearer not.a.token")

		err := handler(mockCtx)
		require.NoError(t, err)
		assert.ErrorIs(t, capturedErr, accounts.ErrTokenMalformed)
	})

	t.Run("expired token", func(t *testing.T) {
		capturedErr = nil

		stale := accounts.NewTokenService(
			[]byte(cfg.GetSigningKey()),
			cfg.GetTokenExpiration(),
			cfg.GetIssuer(),
			cfg.GetAudience(),
			nil,
		).WithClock(func() time.Time {
			return time.Now().Add(-48 * time.Hour)
		})

		token, err := stale.Issue("9a1d7f10-50a8-4b4c-9b5e-6a5d0a3b92e1")
		require.NoError(t, err)

		mockCtx := new(MockContext)
		mockCtx.On("Cookies", "session").Return("")
		mockCtx.On("GetString", "Authorization", "").Return("Bearer " + token)

		err = handler(mockCtx)
		require.NoError(t, err)
		assert.ErrorIs(t, capturedErr, accounts.ErrTokenExpired)
	})
}

func TestRouteAuthenticator_MakeClientRouteAuthErrorHandler(t *testing.T) {
	mockAuth := new(MockAuthenticator)

	httpAuth, err := accounts.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)

	t.Run("optional auth proceeds on failure", func(t *testing.T) {
		mockCtx := new(MockContext)

		handler := httpAuth.MakeClientRouteAuthErrorHandler(true)

		err := handler(mockCtx, jwtware.ErrJWTMissingOrMalformed)
		require.NoError(t, err)
		assert.True(t, mockCtx.NextCalled, "next handler should run for optional routes")

		mockCtx.AssertExpectations(t)
	})

	t.Run("required auth invokes error handler", func(t *testing.T) {
		mockCtx := new(MockContext)

		var capturedErr error
		origHandler := httpAuth.AuthErrorHandler
		httpAuth.AuthErrorHandler = func(c router.Context, err error) error {
			capturedErr = err
			return nil
		}
		defer func() { httpAuth.AuthErrorHandler = origHandler }()

		handler := httpAuth.MakeClientRouteAuthErrorHandler(false)

		err := handler(mockCtx, jwtware.ErrJWTMissingOrMalformed)
		require.NoError(t, err)
		assert.ErrorIs(t, capturedErr, accounts.ErrTokenMalformed)
		assert.False(t, mockCtx.NextCalled)
	})

	t.Run("expired errors map to the expired sentinel", func(t *testing.T) {
		mockCtx := new(MockContext)

		var capturedErr error
		origHandler := httpAuth.AuthErrorHandler
		httpAuth.AuthErrorHandler = func(c router.Context, err error) error {
			capturedErr = err
			return nil
		}
		defer func() { httpAuth.AuthErrorHandler = origHandler }()

		handler := httpAuth.MakeClientRouteAuthErrorHandler(false)

		err := handler(mockCtx, errors.New("token has invalid claims: token is expired"))
		require.NoError(t, err)
		assert.ErrorIs(t, capturedErr, accounts.ErrTokenExpired)
	})

	t.Run("default handler responds with a generic 401", func(t *testing.T) {
		mockCtx := new(MockContext)

		mockCtx.On("JSON", router.StatusUnauthorized, mock.MatchedBy(func(resp accounts.APIResponse) bool {
			return !resp.Success && resp.Message == "Unauthorized"
		})).Return(nil)

		handler := httpAuth.MakeClientRouteAuthErrorHandler(false)

		err := handler(mockCtx, errors.New("token is malformed: bad segments"))
		require.NoError(t, err)

		mockCtx.AssertExpectations(t)
	})
}
