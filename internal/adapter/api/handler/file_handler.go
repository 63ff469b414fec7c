package handler

import (
	"github.com/labstack/echo/v4"

	"back2me/internal/infrastructure/storage"
	"back2me/pkg/errors"
	"back2me/pkg/response"
)

type FileHandler struct {
	storageClient *storage.CloudStorageClient
}

func NewFileHandler(storageClient *storage.CloudStorageClient) *FileHandler {
	return &FileHandler{
		storageClient: storageClient,
	}
}

// UploadImage accepts a multipart "file" part and returns the public URL to
// store on the item document.
func (h *FileHandler) UploadImage(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("A file part is required", err))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read uploaded file", err))
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.storageClient.UploadItemImage(c.Request().Context(), file, contentType)
	if err != nil {
		return response.Error(c, errors.Unavailable("Failed to upload image", err))
	}

	return response.Created(c, map[string]string{"url": url})
}
