package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/project-mc/server/internal/domain/question"
)

type createQuestionRequest struct {
	PatientID   *uuid.UUID `json:"patient_id"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Priority    int        `json:"priority"`
}

func (h *Handler) createQuestion(c *gin.Context) {
	var req createQuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	q, err := h.questionSvc.CreateQuestion(c.Request.Context(), &question.CreateQuestionCommand{
		OwnerID:     claims.UserID,
		PatientID:   req.PatientID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, q)
}

func (h *Handler) listQuestions(c *gin.Context) {
	patientID, ok := patientScope(c)
	if !ok {
		return
	}

	var status *question.Status
	if raw := c.Query("status"); raw != "" {
		s := question.Status(raw)
		status = &s
	}

	claims := callerClaims(c)
	questions, err := h.questionSvc.ListQuestions(c.Request.Context(), &question.ListQuestionsQuery{
		OwnerID:   claims.UserID,
		PatientID: patientID,
		Status:    status,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, questions)
}

func (h *Handler) getQuestion(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := callerClaims(c)
	q, err := h.questionSvc.GetQuestion(c.Request.Context(), claims.UserID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, q)
}

type updateQuestionRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    *int             `json:"priority"`
	Status      *question.Status `json:"status"`
}

func (h *Handler) updateQuestion(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateQuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	q, err := h.questionSvc.UpdateQuestion(c.Request.Context(), claims.UserID, id, &question.UpdateQuestionCommand{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, q)
}

func (h *Handler) deleteQuestion(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := callerClaims(c)
	if err := h.questionSvc.DeleteQuestion(c.Request.Context(), claims.UserID, id, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func (h *Handler) listQuestionAppointments(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := callerClaims(c)
	links, err := h.questionSvc.ListAppointmentLinks(c.Request.Context(), claims.UserID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, links)
}

func (h *Handler) linkQuestionAppointment(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	appointmentID, ok := parseUUID(c, "appointmentID")
	if !ok {
		return
	}

	claims := callerClaims(c)
	link, err := h.questionSvc.LinkAppointment(c.Request.Context(), claims.UserID, id, appointmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, link)
}

func (h *Handler) unlinkQuestionAppointment(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	appointmentID, ok := parseUUID(c, "appointmentID")
	if !ok {
		return
	}

	claims := callerClaims(c)
	if err := h.questionSvc.UnlinkAppointment(c.Request.Context(), claims.UserID, id, appointmentID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func (h *Handler) attachQuestionFile(c *gin.Context) {
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
	link, svcErr := h.questionSvc.AttachFile(c.Request.Context(), claims.UserID, id,
		fileHeader.Filename, file, fileHeader.Header.Get("Content-Type"), c.ClientIP())
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondCreated(c, link)
}

func (h *Handler) listQuestionFiles(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := callerClaims(c)
	links, err := h.questionSvc.ListFileLinks(c.Request.Context(), claims.UserID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, links)
}

func (h *Handler) questionFileURL(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	linkID, ok := parseUUID(c, "linkID")
	if !ok {
		return
	}

	claims := callerClaims(c)
	url, err := h.questionSvc.FileDownloadURL(c.Request.Context(), claims.UserID, id, linkID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"url": url})
}

func (h *Handler) detachQuestionFile(c *gin.Context) {
	if _, ok := parseUUID(c, "id"); !ok {
		return
	}
	linkID, ok := parseUUID(c, "linkID")
	if !ok {
		return
	}

	claims := callerClaims(c)
	if err := h.questionSvc.DetachFile(c.Request.Context(), claims.UserID, linkID, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}
