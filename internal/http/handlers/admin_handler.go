// Administrative HTTP handlers.
//
// These endpoints back the moderation console: status transitions, department
// assignment, internal notes, and photo uploads for existing complaints.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civitracker/go-complaints-backend/internal/services"
)

// UpdateStatusRequest moves a complaint to a new lifecycle status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"in_progress"`
}

// AssignDepartmentRequest records the department handling a complaint.
type AssignDepartmentRequest struct {
	Department string `json:"department" binding:"required" example:"Water Board"`
}

// AddAdminNoteRequest appends an internal note to a complaint.
type AddAdminNoteRequest struct {
	Note  string `json:"note" binding:"required"`
	Admin string `json:"admin"`
}

// UpdateStatus handles PUT /complaints/:id/status.
func (h *Handlers) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status is required")
		return
	}

	err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrInvalidStatus.Error())
		case errors.Is(err, services.ErrComplaintNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrComplaintNotFound.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not update status")
		}
		return
	}

	ok(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Status updated successfully",
		"status":  req.Status,
	})
}

// AssignDepartment handles PUT /complaints/:id/department.
func (h *Handlers) AssignDepartment(c *gin.Context) {
	var req AssignDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "department is required")
		return
	}

	err := h.svc.AssignDepartment(c.Request.Context(), c.Param("id"), req.Department)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyDepartment):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrEmptyDepartment.Error())
		case errors.Is(err, services.ErrComplaintNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrComplaintNotFound.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not assign department")
		}
		return
	}

	ok(c, http.StatusOK, gin.H{
		"success":    true,
		"message":    "Department assigned successfully",
		"department": req.Department,
	})
}

// AddAdminNote handles POST /complaints/:id/notes.
func (h *Handlers) AddAdminNote(c *gin.Context) {
	var req AddAdminNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "note text is required")
		return
	}

	note, err := h.svc.AddAdminNote(c.Request.Context(), c.Param("id"), req.Note, req.Admin)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyNote):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrEmptyNote.Error())
		case errors.Is(err, services.ErrComplaintNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrComplaintNotFound.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not add note")
		}
		return
	}

	ok(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Note added successfully",
		"note":    note,
	})
}

// UploadPhoto handles POST /complaints/:id/photo, attaching a photo to an
// existing complaint.
func (h *Handlers) UploadPhoto(c *gin.Context) {
	id := c.Param("id")
	file, err := c.FormFile("photo")
	if err != nil || file == nil || file.Filename == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "photo file is required")
		return
	}

	// Confirm the complaint exists before touching the filesystem so a bad id
	// never leaves an orphan file behind.
	if _, err := h.svc.Get(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrComplaintNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrComplaintNotFound.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "could not attach photo")
		return
	}

	src, err := file.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeUploadFailed, "could not read photo")
		return
	}
	defer src.Close()

	stored, err := h.uploads.Save(id, file.Filename, src)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "could not store photo")
		return
	}

	if err := h.svc.AttachPhoto(c.Request.Context(), id, stored); err != nil {
		if errors.Is(err, services.ErrComplaintNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrComplaintNotFound.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "could not attach photo")
		return
	}

	ok(c, http.StatusOK, gin.H{
		"success":    true,
		"message":    "Photo uploaded successfully",
		"photo_path": stored,
	})
}

// ServePhoto handles GET /photos/:filename, streaming a stored upload.
func (h *Handlers) ServePhoto(c *gin.Context) {
	path, err := h.uploads.Path(c.Param("filename"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid photo name")
		return
	}
	c.File(path)
}
