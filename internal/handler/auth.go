package handler

import (
    "log/slog"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/contacts-api/internal/model"
    "github.com/iliyamo/contacts-api/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints. BaseURL is the
// public root emailed links point at; the request's Host header is never
// used for them.
type AuthHandler struct {
    Auth    *service.AuthService
    BaseURL string
    Log     *slog.Logger
}

func NewAuthHandler(a *service.AuthService, baseURL string, log *slog.Logger) *AuthHandler {
    return &AuthHandler{Auth: a, BaseURL: linkBase(baseURL), Log: log}
}

// ----- DTOs -----

type registerReq struct {
    Username string `json:"username" validate:"required,min=3,max=50"`
    Email    string `json:"email" validate:"required,email,max=100"`
    Password string `json:"password" validate:"required,min=6,bcryptlen"`
}

// loginReq is an OAuth2 password-grant style form.
type loginReq struct {
    Username string `form:"username" json:"username" validate:"required"`
    Password string `form:"password" json:"password" validate:"required"`
}

type emailReq struct {
    Email string `json:"email" validate:"required,email,max=100"`
}

type resetReq struct {
    Email       string `json:"email" validate:"required,email,max=100"`
    NewPassword string `json:"new_password" validate:"required,min=6,bcryptlen"`
    Token       string `json:"token" validate:"required"`
}

type tokenResp struct {
    AccessToken string `json:"access_token"`
    TokenType   string `json:"token_type"`
}

// Register creates a regular user and queues the confirmation email.
func (h *AuthHandler) Register(c echo.Context) error {
    return h.register(c, model.RoleUser)
}

// RegisterAdmin creates an admin account. The route is admin-only.
func (h *AuthHandler) RegisterAdmin(c echo.Context) error {
    return h.register(c, model.RoleAdmin)
}

func (h *AuthHandler) register(c echo.Context, role model.Role) error {
    var req registerReq
    if err := bindAndValidate(c, &req); err != nil {
        return respondErr(c, h.Log, err)
    }
    u, err := h.Auth.Register(c.Request().Context(),
        service.RegisterInput{Username: req.Username, Email: req.Email, Password: req.Password},
        role, h.BaseURL)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, u)
}

// Login exchanges a username and password for a bearer access token.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bindAndValidate(c, &req); err != nil {
        return respondErr(c, h.Log, err)
    }
    token, err := h.Auth.Login(c.Request().Context(), req.Username, req.Password)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, tokenResp{AccessToken: token, TokenType: "bearer"})
}

// ConfirmedEmail redeems the token from the confirmation link.
func (h *AuthHandler) ConfirmedEmail(c echo.Context) error {
    msg, err := h.Auth.ConfirmEmail(c.Request().Context(), c.Param("token"))
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    return message(c, msg)
}

// RequestEmail resends the confirmation email.
func (h *AuthHandler) RequestEmail(c echo.Context) error {
    var req emailReq
    if err := bindAndValidate(c, &req); err != nil {
        return respondErr(c, h.Log, err)
    }
    msg, err := h.Auth.RequestEmail(c.Request().Context(), req.Email, h.BaseURL)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    return message(c, msg)
}

// RequestPasswordReset always answers with the same message.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
    var req emailReq
    if err := bindAndValidate(c, &req); err != nil {
        return respondErr(c, h.Log, err)
    }
    return message(c, h.Auth.RequestPasswordReset(c.Request().Context(), req.Email, h.BaseURL))
}

// ConfirmPasswordReset sets a new password using a reset token.
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
    var req resetReq
    if err := bindAndValidate(c, &req); err != nil {
        return respondErr(c, h.Log, err)
    }
    msg, err := h.Auth.ConfirmPasswordReset(c.Request().Context(),
        service.ResetInput{Email: req.Email, NewPassword: req.NewPassword, Token: req.Token})
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    return message(c, msg)
}
