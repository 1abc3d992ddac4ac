package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// SignupPayload is the JSON body for POST /auth/signup.
type SignupPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p SignupPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required, validation.Length(6, 128)),
		validation.Field(&p.Username, validation.Length(0, 64)),
	)
}

// LoginPayload mirrors the password grant form: username carries the email.
type LoginPayload struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required),
		validation.Field(&p.Password, validation.Required),
	)
}

// RequestEmailPayload is the JSON body for POST /auth/request_email.
type RequestEmailPayload struct {
	Email string `json:"email"`
}

func (p RequestEmailPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
	)
}

// ControllerConfig tunes the HTTP controller.
type ControllerConfig struct {
	// BaseURL is the externally reachable host used in verification links
	BaseURL string
	// UseHashid derives user IDs deterministically from the email
	UseHashid bool
	// Debug dumps request payloads to the logger
	Debug bool
}

// AuthController exposes the session lifecycle over JSON routes.
type AuthController struct {
	session      SessionAuthenticator
	verification *VerificationFlow
	register     *RegisterUserHandler
	config       ControllerConfig
	logger       Logger
}

func NewAuthController(session SessionAuthenticator, verification *VerificationFlow, register *RegisterUserHandler, cfg ControllerConfig) *AuthController {
	return &AuthController{
		session:      session,
		verification: verification,
		register:     register,
		config:       cfg,
		logger:       defLogger{},
	}
}

func (c *AuthController) WithLogger(logger Logger) *AuthController {
	c.logger = logger
	return c
}

// RegisterAuthRoutes mounts the auth endpoints on the given router group.
func (c *AuthController) RegisterAuthRoutes(group RouteRegistrar) {
	group.Post("/auth/signup", c.Signup)
	group.Post("/auth/login", c.Login)
	group.Get("/auth/refresh_token", c.RefreshToken)
	group.Get("/auth/confirmed_email/:token", c.ConfirmEmail)
	group.Post("/auth/request_email", c.RequestEmail)
}

// Signup creates a new unconfirmed account and queues its verification
// email. Duplicate emails get a 409.
func (c *AuthController) Signup(ctx router.Context) error {
	payload := SignupPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorDetail{Detail: DetailMalformedPayload})
	}

	if c.config.Debug {
		c.logger.Debug("signup payload", "body", print.MaybePrettyJSON(payload))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorDetail{Detail: err.Error()})
	}

	user, err := c.register.Execute(ctx.Context(), RegisterUserMessage{
		Username:  payload.Username,
		Email:     payload.Email,
		Password:  payload.Password,
		UseHashid: c.config.UseHashid,
		BaseURL:   c.config.BaseURL,
	})
	if err != nil {
		c.logger.Error("signup failed", "email", payload.Email, "error", err)
		return RenderAuthError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"user":   user,
		"detail": DetailUserCreated,
	})
}

// Login exchanges email and password form fields for a token pair.
func (c *AuthController) Login(ctx router.Context) error {
	payload := LoginPayload{
		Username: ctx.FormValue("username"),
		Password: ctx.FormValue("password"),
	}

	if payload.Username == "" && payload.Password == "" {
		if err := ctx.Bind(&payload); err != nil {
			return ctx.JSON(router.StatusBadRequest, ErrorDetail{Detail: DetailMalformedPayload})
		}
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorDetail{Detail: err.Error()})
	}

	pair, err := c.session.Login(ctx.Context(), payload.Username, payload.Password)
	if err != nil {
		c.logger.Info("login rejected", "email", payload.Username, "error", err)
		return RenderAuthError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

// RefreshToken rotates the refresh token presented as a bearer credential
// and returns a fresh pair.
func (c *AuthController) RefreshToken(ctx router.Context) error {
	token, err := BearerToken(ctx)
	if err != nil {
		return RenderAuthError(ctx, err)
	}

	pair, err := c.session.Refresh(ctx.Context(), token)
	if err != nil {
		c.logger.Info("refresh rejected", "error", err)
		return RenderAuthError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

// ConfirmEmail flips the confirmed flag for the identity encoded in the
// path token. Repeat confirmations are a no-op.
func (c *AuthController) ConfirmEmail(ctx router.Context) error {
	token := ctx.Param("token")

	outcome, err := c.verification.Confirm(ctx.Context(), token)
	if err != nil {
		c.logger.Info("email confirmation rejected", "error", err)
		return RenderAuthError(ctx, err)
	}

	if outcome.Status == StatusAlreadyConfirmed {
		return ctx.JSON(router.StatusOK, MessageBody{Message: DetailEmailConfirmed})
	}

	return ctx.JSON(router.StatusOK, MessageBody{Message: DetailEmailConfirmedNow})
}

// RequestEmail re-sends the verification email. The response for unknown
// emails matches the response for known unconfirmed ones.
func (c *AuthController) RequestEmail(ctx router.Context) error {
	payload := RequestEmailPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorDetail{Detail: DetailMalformedPayload})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, ErrorDetail{Detail: err.Error()})
	}

	outcome, err := c.verification.RequestVerification(ctx.Context(), payload.Email, c.config.BaseURL)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			c.logger.Error("verification request failed", "email", payload.Email, "error", richErr.Message)
		}
		return RenderAuthError(ctx, err)
	}

	if outcome.Status == StatusAlreadyConfirmed {
		return ctx.JSON(router.StatusOK, MessageBody{Message: DetailEmailConfirmed})
	}

	return ctx.JSON(router.StatusOK, MessageBody{Message: DetailCheckYourEmail})
}
