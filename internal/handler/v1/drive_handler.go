package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/project-mc/server/internal/drive"
)

type createFolderRequest struct {
	PatientID  *uuid.UUID `json:"patient_id"`
	ParentPath string     `json:"parent_path"`
	Name       string     `json:"name" binding:"required"`
}

func (h *Handler) createFolder(c *gin.Context) {
	var req createFolderRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	f, err := h.driveSvc.CreateFolder(c.Request.Context(), &drive.CreateFolderCommand{
		OwnerID:    claims.UserID,
		PatientID:  req.PatientID,
		ParentPath: req.ParentPath,
		Name:       req.Name,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, f)
}

func (h *Handler) listFolder(c *gin.Context) {
	patientID, ok := patientScope(c)
	if !ok {
		return
	}

	claims := callerClaims(c)
	listing, err := h.driveSvc.ListFolder(c.Request.Context(), claims.UserID, patientID, c.Query("path"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, listing)
}

func (h *Handler) uploadFile(c *gin.Context) {
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
	key, svcErr := h.driveSvc.UploadFile(c.Request.Context(), claims.UserID, patientID,
		c.PostForm("path"), fileHeader.Filename, file, fileHeader.Header.Get("Content-Type"), c.ClientIP())
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}
	respondCreated(c, gin.H{"key": key})
}

func (h *Handler) fileDownloadURL(c *gin.Context) {
	patientID, ok := patientScope(c)
	if !ok {
		return
	}
	name := c.Query("name")
	if name == "" {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}

	claims := callerClaims(c)
	url, err := h.driveSvc.DownloadURL(c.Request.Context(), claims.UserID, patientID, c.Query("path"), name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"url": url})
}

func (h *Handler) deleteFile(c *gin.Context) {
	patientID, ok := patientScope(c)
	if !ok {
		return
	}
	name := c.Query("name")
	if name == "" {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}

	claims := callerClaims(c)
	if err := h.driveSvc.DeleteFile(c.Request.Context(), claims.UserID, patientID, c.Query("path"), name, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func (h *Handler) deleteFolder(c *gin.Context) {
	patientID, ok := patientScope(c)
	if !ok {
		return
	}
	path := c.Query("path")
	if path == "" {
		respondError(c, http.StatusBadRequest, "path is required")
		return
	}

	claims := callerClaims(c)
	if err := h.driveSvc.DeleteFolder(c.Request.Context(), claims.UserID, patientID, path, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

type shareFileRequest struct {
	PatientID   *uuid.UUID `json:"patient_id"`
	Path        string     `json:"path"`
	Name        string     `json:"name" binding:"required"`
	TargetEmail string     `json:"target_email" binding:"required"`
}

func (h *Handler) shareFile(c *gin.Context) {
	var req shareFileRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	rec, err := h.driveSvc.ShareFile(c.Request.Context(), claims.UserID, req.PatientID,
		req.Path, req.Name, req.TargetEmail, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, rec)
}

type shareFolderRequest struct {
	PatientID   *uuid.UUID `json:"patient_id"`
	Path        string     `json:"path" binding:"required"`
	TargetEmail string     `json:"target_email" binding:"required"`
}

func (h *Handler) shareFolder(c *gin.Context) {
	var req shareFolderRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	count, err := h.driveSvc.ShareFolder(c.Request.Context(), claims.UserID, req.PatientID,
		req.Path, req.TargetEmail, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, gin.H{"shared": count})
}

func (h *Handler) sharedWithMe(c *gin.Context) {
	claims := callerClaims(c)
	shares, err := h.driveSvc.SharedWithMe(c.Request.Context(), claims.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, shares)
}

type redeemShareRequest struct {
	Path string `json:"path" binding:"required"`
}

func (h *Handler) redeemShare(c *gin.Context) {
	var req redeemShareRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	url, err := h.driveSvc.RedeemShare(c.Request.Context(), claims.UserID, claims.Email, req.Path)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"url": url})
}
