package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/project-mc/server/internal/domain/appointment"
)

type createAppointmentRequest struct {
	PatientID *uuid.UUID `json:"patient_id"`
	Title     string     `json:"title" binding:"required"`
	Notes     string     `json:"notes"`
	StartAt   time.Time  `json:"start_at" binding:"required"`
	EndAt     time.Time  `json:"end_at" binding:"required"`
	AllDay    bool       `json:"all_day"`
}

func (h *Handler) createAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	a, err := h.apptSvc.CreateAppointment(c.Request.Context(), &appointment.CreateAppointmentCommand{
		OwnerID:   claims.UserID,
		PatientID: req.PatientID,
		Title:     req.Title,
		Notes:     req.Notes,
		StartAt:   req.StartAt,
		EndAt:     req.EndAt,
		AllDay:    req.AllDay,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, a)
}

func (h *Handler) listAppointments(c *gin.Context) {
	patientID, ok := patientScope(c)
	if !ok {
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid from: expected RFC3339 timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid to: expected RFC3339 timestamp")
		return
	}

	claims := callerClaims(c)
	appointments, svcErr := h.apptSvc.ListAppointments(c.Request.Context(), &appointment.ListAppointmentsQuery{
		OwnerID:   claims.UserID,
		PatientID: patientID,
		From:      from,
		To:        to,
	})
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondOK(c, appointments)
}

func (h *Handler) dayView(c *gin.Context) {
	patientID, ok := patientScope(c)
	if !ok {
		return
	}
	date, ok := parseDate(c, "date")
	if !ok {
		return
	}

	claims := callerClaims(c)
	view, err := h.apptSvc.GetDayView(c.Request.Context(), claims.UserID, patientID, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, view)
}

func (h *Handler) getAppointment(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := callerClaims(c)
	a, err := h.apptSvc.GetAppointment(c.Request.Context(), claims.UserID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

type updateAppointmentRequest struct {
	Title   *string    `json:"title"`
	Notes   *string    `json:"notes"`
	StartAt *time.Time `json:"start_at"`
	EndAt   *time.Time `json:"end_at"`
	AllDay  *bool      `json:"all_day"`
}

func (h *Handler) updateAppointment(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	a, err := h.apptSvc.UpdateAppointment(c.Request.Context(), claims.UserID, id, &appointment.UpdateAppointmentCommand{
		Title:   req.Title,
		Notes:   req.Notes,
		StartAt: req.StartAt,
		EndAt:   req.EndAt,
		AllDay:  req.AllDay,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *Handler) deleteAppointment(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := callerClaims(c)
	if err := h.apptSvc.DeleteAppointment(c.Request.Context(), claims.UserID, id, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func (h *Handler) attachAppointmentFile(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "missing file upload")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "unreadable file upload")
		return
	}
	defer file.Close()

	claims := callerClaims(c)
	f, svcErr := h.apptSvc.AttachFile(c.Request.Context(), claims.UserID, id,
		fileHeader.Filename, file, fileHeader.Header.Get("Content-Type"), c.ClientIP())
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondCreated(c, f)
}

func (h *Handler) listAppointmentFiles(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := callerClaims(c)
	files, err := h.apptSvc.ListFiles(c.Request.Context(), claims.UserID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, files)
}

func (h *Handler) appointmentFileURL(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	fileID, ok := parseUUID(c, "fileID")
	if !ok {
		return
	}

	claims := callerClaims(c)
	url, err := h.apptSvc.FileDownloadURL(c.Request.Context(), claims.UserID, id, fileID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"url": url})
}

func (h *Handler) deleteAppointmentFile(c *gin.Context) {
	if _, ok := parseUUID(c, "id"); !ok {
		return
	}
	fileID, ok := parseUUID(c, "fileID")
	if !ok {
		return
	}

	claims := callerClaims(c)
	if err := h.apptSvc.DeleteFile(c.Request.Context(), claims.UserID, fileID, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}
