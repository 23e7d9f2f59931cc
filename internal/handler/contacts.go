package handler

import (
    "log/slog"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/contacts-api/internal/apperr"
    "github.com/iliyamo/contacts-api/internal/middleware"
    "github.com/iliyamo/contacts-api/internal/model"
    "github.com/iliyamo/contacts-api/internal/service"
)

// ContactHandler serves the per-user contact book.
type ContactHandler struct {
    Contacts *service.ContactService
    Log      *slog.Logger
}

func NewContactHandler(s *service.ContactService, log *slog.Logger) *ContactHandler {
    return &ContactHandler{Contacts: s, Log: log}
}

type contactReq struct {
    FirstName      string     `json:"first_name" validate:"required,max=50"`
    LastName       string     `json:"last_name" validate:"required,max=50"`
    Email          string     `json:"email" validate:"required,email,max=100"`
    Phone          string     `json:"phone" validate:"required,max=50"`
    BirthDate      model.Date `json:"birth_date" validate:"required"`
    AdditionalData *string    `json:"additional_data" validate:"omitempty,max=500"`
}

type contactPatchReq struct {
    FirstName      *string     `json:"first_name" validate:"omitempty,min=1,max=50"`
    LastName       *string     `json:"last_name" validate:"omitempty,min=1,max=50"`
    Email          *string     `json:"email" validate:"omitempty,email,max=100"`
    Phone          *string     `json:"phone" validate:"omitempty,min=1,max=50"`
    BirthDate      *model.Date `json:"birth_date"`
    AdditionalData *string     `json:"additional_data" validate:"omitempty,max=500"`
}

// owner and id extraction shared by the item routes
func (h *ContactHandler) owner(c echo.Context) (model.User, error) {
    u, ok := middleware.CurrentUser(c)
    if !ok {
        return model.User{}, apperr.Unauthenticated("could not validate credentials")
    }
    return u, nil
}

func contactID(c echo.Context) (uint64, error) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return 0, apperr.BadRequest("invalid contact id")
    }
    return id, nil
}

func (h *ContactHandler) Create(c echo.Context) error {
    u, err := h.owner(c)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    var req contactReq
    if err := bindAndValidate(c, &req); err != nil {
        return respondErr(c, h.Log, err)
    }
    out, err := h.Contacts.Create(c.Request().Context(), u, model.Contact{
        FirstName:      req.FirstName,
        LastName:       req.LastName,
        Email:          req.Email,
        Phone:          req.Phone,
        BirthDate:      req.BirthDate,
        AdditionalData: req.AdditionalData,
    })
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, out)
}

// List supports ?skip=&limit=&search=.
func (h *ContactHandler) List(c echo.Context) error {
    u, err := h.owner(c)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    skip, limit, search := 0, service.DefaultContactLimit, ""
    if err := echo.QueryParamsBinder(c).
        Int("skip", &skip).
        Int("limit", &limit).
        String("search", &search).
        BindError(); err != nil {
        return respondErr(c, h.Log, apperr.BadRequest("skip and limit must be integers"))
    }
    out, err := h.Contacts.List(c.Request().Context(), u, skip, limit, search)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *ContactHandler) UpcomingBirthdays(c echo.Context) error {
    u, err := h.owner(c)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    out, err := h.Contacts.UpcomingBirthdays(c.Request().Context(), u)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, out)
}

func (h *ContactHandler) Get(c echo.Context) error {
    u, err := h.owner(c)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    id, err := contactID(c)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    out, err := h.Contacts.Get(c.Request().Context(), u, id)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, out)
}

// Update applies the fields present in the body.
func (h *ContactHandler) Update(c echo.Context) error {
    u, err := h.owner(c)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    id, err := contactID(c)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    var req contactPatchReq
    if err := bindAndValidate(c, &req); err != nil {
        return respondErr(c, h.Log, err)
    }
    patch := model.ContactPatch{
        FirstName:      req.FirstName,
        LastName:       req.LastName,
        Email:          req.Email,
        Phone:          req.Phone,
        BirthDate:      req.BirthDate,
        AdditionalData: req.AdditionalData,
    }
    if patch.Empty() {
        return respondErr(c, h.Log, apperr.BadRequest("no fields to update"))
    }
    out, err := h.Contacts.Update(c.Request().Context(), u, id, patch)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, out)
}

// Delete returns the removed contact.
func (h *ContactHandler) Delete(c echo.Context) error {
    u, err := h.owner(c)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    id, err := contactID(c)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    out, err := h.Contacts.Delete(c.Request().Context(), u, id)
    if err != nil {
        return respondErr(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, out)
}
