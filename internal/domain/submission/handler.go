package submission

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"databox/internal/domain/tempfile"
	"databox/internal/pkg/logging"
	"databox/internal/pkg/response"
	"databox/internal/pkg/validator"
)

// Handler handles submission HTTP requests. Every claim-path failure maps
// to the same INVALID_CODE outcome so an unauthenticated caller cannot
// probe which codes ever existed.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /submissions (public intake).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	if fields := validator.Validate(&req); fields != nil {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fields)
		return
	}

	if _, err := h.service.Create(c.Request.Context(), req.Email); err != nil {
		logging.Error("intake failed", "err", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not create submission")
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{
		"message": "Check your email for a link to continue.",
	})
}

// Verify handles GET /submissions/verify?code=...
func (h *Handler) Verify(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.Error(c, http.StatusBadRequest, "MISSING_CODE", "code query parameter is required")
		return
	}

	sub, err := h.service.Resolve(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, ErrSubmissionNotFound) {
			logging.Warn("invalid or claimed code attempted")
			response.Error(c, http.StatusNotFound, "INVALID_CODE", "This link is invalid or has expired")
			return
		}
		logging.Error("verify failed", "err", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not verify code")
		return
	}

	response.Success(c, http.StatusOK, VerifyResponse{Email: sub.Email})
}

// Send handles POST /submissions/send.
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	if fields := validator.Validate(&req); fields != nil {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fields)
		return
	}

	err := h.service.Finalize(c.Request.Context(), req.Code, req.Message, req.Files)
	if err != nil {
		if errors.Is(err, ErrSubmissionNotFound) {
			logging.Warn("invalid or claimed code attempted in send")
			response.Error(c, http.StatusNotFound, "INVALID_CODE", "This link is invalid or has expired")
			return
		}
		if errors.Is(err, tempfile.ErrFileNotFound) || errors.Is(err, tempfile.ErrInvalidID) {
			response.Error(c, http.StatusBadRequest, "MISSING_FILE", "One of the referenced files is no longer available")
			return
		}
		logging.Error("send failed", "err", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not deliver submission")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Your documents have been sent."})
}
