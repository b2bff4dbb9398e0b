package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/project-mc/server/internal/domain/appointment"
	"github.com/project-mc/server/internal/domain/document"
	"github.com/project-mc/server/internal/domain/patient"
	"github.com/project-mc/server/internal/domain/question"
	"github.com/project-mc/server/internal/domain/share"
	"github.com/project-mc/server/internal/drive"
	"github.com/project-mc/server/internal/service"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, appointment.ErrFileNotFound),
		errors.Is(err, question.ErrQuestionNotFound),
		errors.Is(err, question.ErrLinkNotFound),
		errors.Is(err, document.ErrDocumentNotFound),
		errors.Is(err, drive.ErrFolderNotFound),
		errors.Is(err, drive.ErrObjectNotFound),
		errors.Is(err, share.ErrShareNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, drive.ErrFolderAlreadyExists),
		errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, patient.ErrNameRequired),
		errors.Is(err, appointment.ErrTitleRequired),
		errors.Is(err, appointment.ErrInvalidTimeRange),
		errors.Is(err, question.ErrTitleRequired),
		errors.Is(err, question.ErrInvalidStatus),
		errors.Is(err, document.ErrFileNameRequired),
		errors.Is(err, document.ErrNoExtractedText),
		errors.Is(err, drive.ErrInvalidFolderName):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, share.ErrNotRecipient):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})

	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "account temporarily locked",
			Code:  "ACCOUNT_LOCKED",
		})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})

	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// patientScope reads the optional patient_id query parameter. Absent means
// the owner's general namespace.
func patientScope(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("patient_id")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid patient_id: must be a valid UUID"})
		return nil, false
	}
	return &id, true
}

// parseDate reads a YYYY-MM-DD query parameter, defaulting to today.
func parseDate(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Now(), true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + key + ": expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}
