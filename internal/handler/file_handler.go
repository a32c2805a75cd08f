package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"clouddisk/internal/auth"
	"clouddisk/internal/errors"
	"clouddisk/internal/service"
	"clouddisk/internal/storage"
)

// FileHandler handles upload and delete endpoints.
type FileHandler struct {
	fileService service.FileService
}

// NewFileHandler creates a new file handler.
func NewFileHandler(fileService service.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// DeleteFileRequest names the stored file to remove.
type DeleteFileRequest struct {
	FilePath string `json:"filePath" validate:"required"`
}

// Upload godoc
// @Summary Upload a file into the current user's directory
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File content"
// @Param dir query string false "Optional subdirectory"
// @Success 200 {object} errors.Response
// @Failure 400 {object} errors.ErrorBody
// @Failure 401 {object} errors.ErrorBody
// @Router /files/upload [post]
func (h *FileHandler) Upload(c echo.Context) error {
	username, _ := c.Get(auth.ContextUsernameKey).(string)

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file")
	}

	saved, err := h.fileService.Upload(c.Request().Context(), username, c.QueryParam("dir"), file)
	if err != nil {
		if stderrors.Is(err, storage.ErrInvalidPath) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid file path")
		}
		return err
	}

	return c.JSON(http.StatusOK, errors.OK(saved))
}

// Delete godoc
// @Summary Delete a previously uploaded file
// @Tags files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DeleteFileRequest true "File path"
// @Success 200 {object} errors.Response
// @Failure 400 {object} errors.ErrorBody
// @Failure 401 {object} errors.ErrorBody
// @Router /files/delete [delete]
func (h *FileHandler) Delete(c echo.Context) error {
	var req DeleteFileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	removed, err := h.fileService.Delete(c.Request().Context(), req.FilePath)
	if err != nil {
		if stderrors.Is(err, storage.ErrInvalidPath) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid file path")
		}
		return err
	}

	message := "file deleted"
	if !removed {
		message = "file not found"
	}
	return c.JSON(http.StatusOK, errors.OK(echo.Map{
		"message": message,
		"success": removed,
	}))
}
