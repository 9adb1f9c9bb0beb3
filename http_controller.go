package accounts

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

type Middleware interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message,omitempty"`
	User       *PublicAccount `json:"user,omitempty"`
	IsVerified *bool          `json:"isVerified,omitempty"`
}

func GetRouterSession(c router.Context, key string) (*SessionObject, error) {
	cookie := c.Locals(key)
	if cookie == nil {
		return nil, ErrUnableToFindSession
	}

	token, ok := cookie.(*jwt.Token)
	if token == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if claims == nil || !ok {
		return nil, ErrUnableToMapClaims
	}

	return sessionFromClaims(claims)
}

func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Signup, controller.SignupPost).
		SetName("signup.post")

	app.Post(controller.Routes.VerifyEmail, controller.VerifyEmailPost).
		SetName("verify-email.post")

	app.Get(controller.Routes.CheckVerification, controller.CheckVerificationGet).
		SetName("check-verification.get")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	app.Post(controller.Routes.Logout, controller.LogOut).
		SetName("sign-out.post")

	app.Post(controller.Routes.ForgotPassword, controller.ForgotPasswordPost).
		SetName("pwd-forgot.post")

	app.Post(controller.Routes.ResetPassword+"/:token", controller.ResetPasswordPost).
		SetName("pwd-reset.post")

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.Auther.MakeClientRouteAuthErrorHandler(false),
	)

	app.Get(controller.Routes.CheckAuth, protected(controller.CheckAuthGet)).
		SetName("check-auth.get")
}

type AuthControllerRoutes struct {
	Signup            string
	VerifyEmail       string
	CheckVerification string
	Login             string
	Logout            string
	ForgotPassword    string
	ResetPassword     string
	CheckAuth         string
}

type AuthController struct {
	Debug  bool
	Logger Logger
	Repo   RepositoryManager
	Mailer Mailer
	Config Config
	Tokens TokenService
	Routes *AuthControllerRoutes
	Auther HTTPAuthenticator
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Signup:            "/signup",
			VerifyEmail:       "/verify-email",
			CheckVerification: "/check-verification",
			Login:             "/login",
			Logout:            "/logout",
			ForgotPassword:    "/forgot-password",
			ResetPassword:     "/reset-password",
			CheckAuth:         "/check-auth",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	if c.Mailer == nil {
		c.Mailer = NewLogMailer(c.Logger)
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithControllerMailer(mailer Mailer) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Mailer = mailer
		return c
	}
}

func WithControllerTokenService(tokens TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Tokens = tokens
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// SignupRequest payload
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

func (a *AuthController) SignupPost(ctx router.Context) error {
	payload := new(SignupRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("signup parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("signup validate payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, APIResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	var res *SignupResponse

	req := SignupMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(resp *SignupResponse) {
			res = resp
		},
	}

	signup := NewSignupHandler(a.Repo, a.Mailer).
		WithLogger(a.Logger).
		WithVerificationTTL(a.Config.GetVerificationCodeTTL())

	if err := signup.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("signup error: %v", err)
		return a.respondError(ctx, err)
	}

	message := "User registered successfully. Please check your email for the verification code."
	if !res.EmailSent {
		message = "User registered successfully, but the verification email could not be sent."
	}

	return ctx.JSON(fiber.StatusCreated, APIResponse{
		Success: true,
		Message: message,
		User:    res.Account.Public(),
	})
}

// VerifyEmailRequest payload
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Validate will run validation rules
func (r VerifyEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Code, validation.Required, validation.Length(6, 6), is.Digit),
	)
}

func (a *AuthController) VerifyEmailPost(ctx router.Context) error {
	payload := new(VerifyEmailRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("verify email parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, APIResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	var res *VerifyEmailResponse

	req := VerifyEmailMessage{
		Email: payload.Email,
		Code:  payload.Code,
		OnResponse: func(resp *VerifyEmailResponse) {
			res = resp
		},
	}

	verify := NewVerifyEmailHandler(a.Repo, a.Mailer).WithLogger(a.Logger)

	if err := verify.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("verify email error: %v", err)
		return a.respondError(ctx, err)
	}

	if a.Tokens != nil {
		if token, err := a.Tokens.Issue(res.Account.ID.String()); err != nil {
			a.Logger.Error("verify email token issue error: %v", err)
		} else {
			a.Auther.SetSession(ctx, token)
		}
	}

	return ctx.JSON(router.StatusOK, APIResponse{
		Success: true,
		Message: "Email verified successfully",
		User:    res.Account.Public(),
	})
}

func (a *AuthController) CheckVerificationGet(ctx router.Context) error {
	email := ctx.Query("email", "")
	if email == "" {
		return ctx.JSON(router.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Email is required",
		})
	}

	account, err := a.Repo.Accounts().FindByEmail(ctx.Context(), email)
	if err != nil {
		if errors.IsNotFound(err) {
			return ctx.JSON(fiber.StatusNotFound, APIResponse{
				Success: false,
				Message: "Account not found",
			})
		}
		return a.respondError(ctx, err)
	}

	verified := account.IsVerified()

	return ctx.JSON(router.StatusOK, APIResponse{
		Success:    true,
		IsVerified: &verified,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, APIResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	if err := a.Auther.Login(ctx, payload); err != nil {
		return a.respondError(ctx, err)
	}

	account, err := a.Repo.Accounts().FindByEmail(ctx.Context(), payload.Email)
	if err != nil {
		return a.respondError(ctx, err)
	}

	verified := account.IsVerified()

	return ctx.JSON(router.StatusOK, APIResponse{
		Success:    true,
		Message:    "Login successful",
		User:       account.Public(),
		IsVerified: &verified,
	})
}

func (a *AuthController) LogOut(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.JSON(router.StatusOK, APIResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// ForgotPasswordRequest payload
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(ForgotPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("forgot password parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, APIResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	req := InitializePasswordResetMessage{
		Email: payload.Email,
	}

	initPwdReset := NewInitializePasswordResetHandler(a.Repo, a.Mailer).
		WithLogger(a.Logger).
		WithResetTokenTTL(a.Config.GetResetTokenTTL()).
		WithClientBaseURL(a.Config.GetClientBaseURL())

	if err := initPwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("forgot password error: %v", err)
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, APIResponse{
		Success: true,
		Message: "Password reset link sent to your email",
	})
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

func (a *AuthController) ResetPasswordPost(ctx router.Context) error {
	token := ctx.Param("token", "")
	payload := new(ResetPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("reset password parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, APIResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	req := FinalizePasswordResetMessage{
		Token:    token,
		Password: payload.Password,
	}

	finalizePwdReset := NewFinalizePasswordResetHandler(a.Repo, a.Mailer).WithLogger(a.Logger)

	if err := finalizePwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("reset password error: %v", err)
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, APIResponse{
		Success: true,
		Message: "Password reset successful",
	})
}

func (a *AuthController) CheckAuthGet(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return ctx.JSON(router.StatusUnauthorized, APIResponse{
			Success: false,
			Message: "Unauthorized",
		})
	}

	account, err := a.Repo.Accounts().GetByIdentifier(ctx.Context(), session.GetAccountID())
	if err != nil {
		if errors.IsNotFound(err) {
			return ctx.JSON(router.StatusUnauthorized, APIResponse{
				Success: false,
				Message: "Unauthorized",
			})
		}
		return a.respondError(ctx, err)
	}

	verified := account.IsVerified()

	return ctx.JSON(router.StatusOK, APIResponse{
		Success:    true,
		User:       account.Public(),
		IsVerified: &verified,
	})
}

func (a *AuthController) respondError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	return ctx.JSON(errorStatus(richErr), APIResponse{
		Success: false,
		Message: richErr.Message,
	})
}
