package accounts

import "time"

// SimpleConfig is an immutable, explicitly constructed Config. Components
// receive it at construction time so tests can inject deterministic keys,
// windows, and cost factors instead of reading ambient state.
type SimpleConfig struct {
	SigningKey          string
	SigningMethod       string
	ContextKey          string
	TokenExpiration     int // hours
	TokenLookup         string
	AuthScheme          string
	Issuer              string
	Audience            []string
	VerificationCodeTTL time.Duration
	ResetTokenTTL       time.Duration
	BcryptCost          int
	ClientBaseURL       string
}

var _ Config = (*SimpleConfig)(nil)

// NewDefaultConfig returns a config carrying the stock defaults: seven day
// session tokens delivered in a cookie named "session", 24h verification
// codes, and 1h reset tokens.
func NewDefaultConfig(signingKey string) *SimpleConfig {
	return &SimpleConfig{
		SigningKey:          signingKey,
		SigningMethod:       "HS256",
		ContextKey:          "session",
		TokenExpiration:     7 * 24,
		TokenLookup:         "cookie:session,header:Authorization",
		AuthScheme:          "Bearer",
		VerificationCodeTTL: 24 * time.Hour,
		ResetTokenTTL:       time.Hour,
	}
}

func (c *SimpleConfig) GetSigningKey() string    { return c.SigningKey }
func (c *SimpleConfig) GetSigningMethod() string { return c.SigningMethod }

func (c *SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "session"
	}
	return c.ContextKey
}

func (c *SimpleConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return 7 * 24
	}
	return c.TokenExpiration
}

func (c *SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "cookie:" + c.GetContextKey() + ",header:Authorization"
	}
	return c.TokenLookup
}

func (c *SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c *SimpleConfig) GetIssuer() string     { return c.Issuer }
func (c *SimpleConfig) GetAudience() []string { return c.Audience }

func (c *SimpleConfig) GetVerificationCodeTTL() time.Duration {
	if c.VerificationCodeTTL <= 0 {
		return 24 * time.Hour
	}
	return c.VerificationCodeTTL
}

func (c *SimpleConfig) GetResetTokenTTL() time.Duration {
	if c.ResetTokenTTL <= 0 {
		return time.Hour
	}
	return c.ResetTokenTTL
}

func (c *SimpleConfig) GetBcryptCost() int { return c.BcryptCost }

func (c *SimpleConfig) GetClientBaseURL() string { return c.ClientBaseURL }
