package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/project-mc/server/internal/domain/patient"
)

type patientRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) createPatient(c *gin.Context) {
	var req patientRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	p, err := h.patientSvc.CreatePatient(c.Request.Context(), &patient.CreatePatientCommand{
		OwnerID: claims.UserID,
		Name:    req.Name,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h *Handler) listPatients(c *gin.Context) {
	claims := callerClaims(c)
	patients, err := h.patientSvc.ListPatients(c.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, patients)
}

func (h *Handler) getPatient(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := callerClaims(c)
	p, err := h.patientSvc.GetPatient(c.Request.Context(), claims.UserID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *Handler) renamePatient(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req patientRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	p, err := h.patientSvc.RenamePatient(c.Request.Context(), claims.UserID, id, req.Name, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *Handler) deletePatient(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims := callerClaims(c)
	if err := h.patientSvc.DeletePatient(c.Request.Context(), claims.UserID, id, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}
