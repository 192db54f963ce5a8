// Activity feed and analytics HTTP handlers.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civitracker/go-complaints-backend/internal/services"
)

// RecentActivity handles GET /activity, returning the newest feed entries
// with relative-age annotations.
func (h *Handlers) RecentActivity(c *gin.Context) {
	entries, err := h.activity.Recent(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load activity feed")
		return
	}
	ok(c, http.StatusOK, gin.H{"activities": entries})
}

// Analytics handles GET /analytics, returning aggregate complaint counts.
func (h *Handlers) Analytics(c *gin.Context) {
	summary, err := h.svc.Analytics(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not compute analytics")
		return
	}
	ok(c, http.StatusOK, summary)
}

// GetComplaint handles GET /complaints/:id.
func (h *Handlers) GetComplaint(c *gin.Context) {
	out, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrComplaintNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrComplaintNotFound.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load complaint")
		return
	}
	ok(c, http.StatusOK, out)
}
