package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/project-mc/server/internal/domain/document"
)

func (h *Handler) uploadDocument(c *gin.Context) {
	patientID, ok := patientScope(c)
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
	d, svcErr := h.documentSvc.UploadDocument(c.Request.Context(), &document.CreateDocumentCommand{
		OwnerID:   claims.UserID,
		PatientID: patientID,
		FileName:  fileHeader.Filename,
	}, file, fileHeader.Header.Get("Content-Type"), c.ClientIP())
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondCreated(c, d)
}

func (h *Handler) processDocument(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := callerClaims(c)
	d, err := h.documentSvc.ProcessDocument(c.Request.Context(), claims.UserID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}

func (h *Handler) listDocuments(c *gin.Context) {
	patientID, ok := patientScope(c)
	if !ok {
		return
	}

	var status *document.Status
	if raw := c.Query("status"); raw != "" {
		s := document.Status(raw)
		status = &s
	}

	claims := callerClaims(c)
	docs, err := h.documentSvc.ListDocuments(c.Request.Context(), &document.ListDocumentsQuery{
		OwnerID:   claims.UserID,
		PatientID: patientID,
		Status:    status,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, docs)
}

func (h *Handler) getDocument(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := callerClaims(c)
	d, err := h.documentSvc.GetDocument(c.Request.Context(), claims.UserID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}

func (h *Handler) documentDownloadURL(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := callerClaims(c)
	url, err := h.documentSvc.DownloadURL(c.Request.Context(), claims.UserID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"url": url})
}

func (h *Handler) summarizeDocument(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := callerClaims(c)
	summary, err := h.documentSvc.Summarize(c.Request.Context(), claims.UserID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"summary": summary})
}

type translateRequest struct {
	TargetLang string `json:"target_lang"`
}

func (h *Handler) translateDocument(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req translateRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	translated, err := h.documentSvc.Translate(c.Request.Context(), claims.UserID, id, req.TargetLang)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"translated": translated})
}

type chatRequest struct {
	PatientID *uuid.UUID `json:"patient_id"`
	Question  string     `json:"question" binding:"required"`
}

func (h *Handler) chatDocuments(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	answer, err := h.documentSvc.Chat(c.Request.Context(), claims.UserID, req.PatientID, req.Question)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"answer": answer})
}

type reassignRequest struct {
	PatientID *uuid.UUID `json:"patient_id"`
}

func (h *Handler) reassignDocument(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req reassignRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	d, err := h.documentSvc.ReassignDocument(c.Request.Context(), claims.UserID, id, req.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}

func (h *Handler) deleteDocument(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := callerClaims(c)
	if err := h.documentSvc.DeleteDocument(c.Request.Context(), claims.UserID, id, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}
