package router

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"clouddisk/internal/config"
	"clouddisk/internal/errors"
	"clouddisk/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	userHandler *handler.UserHandler,
	fileHandler *handler.FileHandler,
	authMiddleware echo.MiddlewareFunc,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = errorHandler

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// The static root also serves uploaded files and default assets.
	e.Static("/", cfg.StaticDir)

	api := e.Group("/api")

	// Public routes
	api.GET("/user/regcode", userHandler.SendVerificationCode)
	api.POST("/user/register", userHandler.Register)
	api.POST("/user/login", userHandler.Login)

	// Secured routes
	secured := api.Group("", authMiddleware)
	secured.POST("/user/logout", userHandler.Logout)
	secured.GET("/user/info", userHandler.GetUserInfo)
	secured.PUT("/user/info", userHandler.UpdateUserInfo)
	secured.POST("/files/upload", fileHandler.Upload)
	secured.DELETE("/files/delete", fileHandler.Delete)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// errorHandler renders every failure in the uniform envelope. Domain
// errors map through errors.MapError; echo's own HTTP errors (binding,
// routing) keep their status. Internal detail is logged, never returned.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var status int
	var body errors.ErrorBody

	var httpErr *echo.HTTPError
	if stderrors.As(err, &httpErr) {
		status = httpErr.Code
		body = errors.NewErrorBody(businessCode(status), fmt.Sprintf("%v", httpErr.Message), c.Request().URL.Path)
	} else {
		mapped := errors.MapError(err)
		status = mapped.StatusCode
		body = errors.NewErrorBody(mapped.Code, mapped.Message, c.Request().URL.Path)
		if status == http.StatusInternalServerError {
			c.Logger().Error(err)
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}

func businessCode(status int) int {
	switch status {
	case http.StatusBadRequest:
		return errors.CodeInvalidParam
	case http.StatusUnauthorized:
		return errors.CodeUnauthorized
	case http.StatusNotFound:
		return errors.CodeNotFound
	case http.StatusConflict:
		return errors.CodeConflict
	default:
		return errors.CodeInternal
	}
}
