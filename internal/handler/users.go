package handler

import (
    "io"
    "log/slog"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/contacts-api/internal/apperr"
    "github.com/iliyamo/contacts-api/internal/middleware"
    "github.com/iliyamo/contacts-api/internal/model"
    "github.com/iliyamo/contacts-api/internal/service"
    "github.com/iliyamo/contacts-api/internal/storage"
)

// UserHandler serves the profile endpoints of the authenticated user.
type UserHandler struct {
    Users *service.UserService
    Log   *slog.Logger
}

func NewUserHandler(u *service.UserService, log *slog.Logger) *UserHandler {
    return &UserHandler{Users: u, Log: log}
}

type roleReq struct {
    Email string `json:"email" validate:"required,email,max=100"`
    Role  string `json:"role" validate:"required,oneof=user admin"`
}

func (h *UserHandler) current(c echo.Context) (model.User, error) {
    u, ok := middleware.CurrentUser(c)
    if !ok {
        return model.User{}, apperr.Unauthenticated("could not validate credentials")
    }
    return u, nil
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c echo.Context) error {
    u, err := h.current(c)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, u)
}

// UpdateAvatar accepts a multipart "file" field and stores it as the
// caller's avatar.
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
    u, err := h.current(c)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    fh, err := c.FormFile("file")
    if err != nil {
        return respondErr(c, h.Log, apperr.BadRequest("file is required"))
    }
    contentType := fh.Header.Get(echo.HeaderContentType)
    // reject before reading the body into memory
    if err := storage.Validate(int(fh.Size), contentType); err != nil {
        return respondErr(c, h.Log, err)
    }
    src, err := fh.Open()
    if err != nil {
        return respondErr(c, h.Log, apperr.BadRequest("cannot read file"))
    }
    defer src.Close()
    data, err := io.ReadAll(io.LimitReader(src, storage.MaxAvatarSize+1))
    if err != nil {
        return respondErr(c, h.Log, apperr.BadRequest("cannot read file"))
    }

    updated, err := h.Users.UpdateAvatar(c.Request().Context(), u, data, contentType)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, updated)
}

// DeleteAvatar resets the caller's avatar to the Gravatar default.
func (h *UserHandler) DeleteAvatar(c echo.Context) error {
    u, err := h.current(c)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    updated, err := h.Users.ResetAvatar(c.Request().Context(), u)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, updated)
}

// UpdateRole changes another user's role. The route is admin-only.
func (h *UserHandler) UpdateRole(c echo.Context) error {
    var req roleReq
    if err := bindAndValidate(c, &req); err != nil {
        return respondErr(c, h.Log, err)
    }
    updated, err := h.Users.UpdateRole(c.Request().Context(), req.Email, model.Role(req.Role))
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, updated)
}
