package tempfile

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"databox/internal/pkg/logging"
)

// Handler exposes the FilePond-compatible staging endpoints. The process
// and revert endpoints speak text/plain because that is the contract the
// upload widget expects.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Process handles POST /files/process (multipart upload, one file).
func (h *Handler) Process(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		// FilePond posts the file under its field name; fall back to the
		// first file of the form.
		form, formErr := c.MultipartForm()
		if formErr != nil {
			c.String(http.StatusBadRequest, "no file uploaded")
			return
		}
		for _, headers := range form.File {
			if len(headers) > 0 {
				fileHeader = headers[0]
				break
			}
		}
		if fileHeader == nil {
			logging.Warn("no file uploaded")
			c.String(http.StatusBadRequest, "no file uploaded")
			return
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to read upload")
		return
	}
	defer src.Close()

	id, err := h.store.Save(c.Request.Context(), fileHeader.Filename, fileHeader.Size, src)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyFile), errors.Is(err, ErrFileTooLarge):
			c.String(http.StatusBadRequest, err.Error())
		default:
			logging.Error("failed to stage upload", "file", fileHeader.Filename, "err", err)
			c.String(http.StatusInternalServerError, "failed to store file")
		}
		return
	}

	logging.Info("file uploaded", "file", fileHeader.Filename, "id", id)
	c.String(http.StatusOK, id)
}

// Revert handles DELETE /files/revert with a text/plain body carrying the id.
func (h *Handler) Revert(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 256))
	if err != nil {
		c.String(http.StatusBadRequest, "missing id")
		return
	}

	if err := h.deleteByID(c, strings.TrimSpace(string(body))); err != nil {
		return
	}
	c.Status(http.StatusOK)
}

// Remove handles DELETE /files/remove/:id.
func (h *Handler) Remove(c *gin.Context) {
	if err := h.deleteByID(c, c.Param("id")); err != nil {
		return
	}
	logging.Info("removed staged file", "id", c.Param("id"))
	c.Status(http.StatusOK)
}

// Load handles GET /files/load/:id and /files/restore/:id, streaming the
// staged file back to the browser.
func (h *Handler) Load(c *gin.Context) {
	id := c.Param("id")

	f, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidID):
			c.String(http.StatusBadRequest, "id is not a valid uuid")
		case errors.Is(err, ErrFileNotFound):
			c.String(http.StatusNotFound, "file not found")
		default:
			logging.Error("failed to load staged file", "id", id, "err", err)
			c.String(http.StatusInternalServerError, "failed to load file")
		}
		return
	}

	rc, err := f.Open()
	if err != nil {
		logging.Error("failed to open staged file", "id", id, "err", err)
		c.String(http.StatusInternalServerError, "failed to load file")
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", f.Name))
	c.DataFromReader(http.StatusOK, f.Size, f.ContentType, rc, nil)
}

func (h *Handler) deleteByID(c *gin.Context, id string) error {
	err := h.store.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidID):
		c.String(http.StatusBadRequest, "id is not a valid uuid")
	case errors.Is(err, ErrFileNotFound):
		logging.Warn("attempted to delete non-existent staged file", "id", id)
		c.String(http.StatusNotFound, "file not found")
	default:
		logging.Error("failed to delete staged file", "id", id, "err", err)
		c.String(http.StatusInternalServerError, "failed to delete file")
	}
	return err
}
