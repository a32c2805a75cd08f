package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"clouddisk/internal/auth"
	"clouddisk/internal/errors"
	"clouddisk/internal/service"
)

// UserHandler handles account and session endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// SendCodeRequest carries the destination address for a verification code.
type SendCodeRequest struct {
	Email string `query:"email" validate:"required,email"`
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20"`
	Password string `json:"password" validate:"required,min=6,max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
	Code     string `json:"code"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest carries the profile fields a user may change.
type UpdateUserRequest struct {
	Phone  *string `json:"phone"`
	Email  *string `json:"email" validate:"omitempty,email"`
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
	Wechat *string `json:"wechat"`
}

// LoginData is the payload returned on successful login.
type LoginData struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	UserID   uint   `json:"userId"`
}

// SendVerificationCode godoc
// @Summary Send a registration verification code
// @Tags user
// @Produce json
// @Param email query string true "Destination address"
// @Success 200 {object} errors.Response
// @Failure 400 {object} errors.ErrorBody
// @Failure 500 {object} errors.ErrorBody
// @Router /user/regcode [get]
func (h *UserHandler) SendVerificationCode(c echo.Context) error {
	var req SendCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.userService.SendVerificationCode(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, errors.OK(echo.Map{"message": "verification code sent"}))
}

// Register godoc
// @Summary Register a new user
// @Tags user
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 200 {object} errors.Response
// @Failure 400 {object} errors.ErrorBody
// @Failure 401 {object} errors.ErrorBody
// @Failure 409 {object} errors.ErrorBody
// @Router /user/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := h.userService.Register(c.Request().Context(), req.Username, req.Password, req.Email, req.Code); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, errors.OK(echo.Map{"message": "registered"}))
}

// Login godoc
// @Summary Login with username and password
// @Tags user
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} errors.Response
// @Failure 400 {object} errors.ErrorBody
// @Failure 401 {object} errors.ErrorBody
// @Router /user/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, user, err := h.userService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, errors.OK(LoginData{
		Token:    token,
		Username: user.Username,
		UserID:   user.ID,
	}))
}

// Logout godoc
// @Summary Logout and revoke the current session
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} errors.Response
// @Failure 401 {object} errors.ErrorBody
// @Router /user/logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	claims, ok := c.Get(auth.ContextClaimsKey).(*auth.Claims)
	if !ok {
		return errors.ErrInvalidToken
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if err := h.userService.Logout(c.Request().Context(), claims.ID, remaining); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, errors.OK(echo.Map{"message": "logged out"}))
}

// GetUserInfo godoc
// @Summary Get the current user's profile
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} errors.Response
// @Failure 401 {object} errors.ErrorBody
// @Failure 404 {object} errors.ErrorBody
// @Router /user/info [get]
func (h *UserHandler) GetUserInfo(c echo.Context) error {
	username, _ := c.Get(auth.ContextUsernameKey).(string)

	user, err := h.userService.GetUserInfo(c.Request().Context(), username)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, errors.OK(user))
}

// UpdateUserInfo godoc
// @Summary Update the current user's profile
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateUserRequest true "Fields to change"
// @Success 200 {object} errors.Response
// @Failure 400 {object} errors.ErrorBody
// @Failure 401 {object} errors.ErrorBody
// @Failure 404 {object} errors.ErrorBody
// @Router /user/info [put]
func (h *UserHandler) UpdateUserInfo(c echo.Context) error {
	username, _ := c.Get(auth.ContextUsernameKey).(string)

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userService.UpdateUserInfo(c.Request().Context(), username, &service.UserUpdate{
		Phone:  req.Phone,
		Email:  req.Email,
		Name:   req.Name,
		Avatar: req.Avatar,
		Wechat: req.Wechat,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, errors.OK(user))
}
