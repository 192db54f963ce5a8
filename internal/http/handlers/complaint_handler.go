// Complaint HTTP handlers.
//
// This file exposes the citizen-facing REST endpoints:
//   - POST /complaints                (submit, JSON or multipart with photo)
//   - GET  /complaints                (list, filtered + paginated)
//   - POST /complaints/{id}/vote      (upvote/downvote)
//   - POST /complaints/{id}/comments  (append a comment)
//   - GET  /categories                (the fixed taxonomy)
//   - POST /categories/predict        (classify without saving)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate service errors into HTTP results.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/civitracker/go-complaints-backend/internal/domain"
	"github.com/civitracker/go-complaints-backend/internal/http/middleware"
	"github.com/civitracker/go-complaints-backend/internal/repo"
	"github.com/civitracker/go-complaints-backend/internal/services"
	"github.com/civitracker/go-complaints-backend/internal/upload"
	"github.com/civitracker/go-complaints-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ComplaintService defines the complaint operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ComplaintService interface {
	// Create validates, classifies, and persists a new complaint.
	Create(ctx context.Context, in services.CreateInput) (*domain.Complaint, error)
	// Predict classifies text without persisting anything.
	Predict(ctx context.Context, text string) (*services.Prediction, error)
	// UpdateStatus moves a complaint through its lifecycle.
	UpdateStatus(ctx context.Context, id, newStatus string) error
	// AssignDepartment records the handling department.
	AssignDepartment(ctx context.Context, id, department string) error
	// AddAdminNote appends an internal note.
	AddAdminNote(ctx context.Context, id, text, author string) (*domain.AdminNote, error)
	// AddComment appends a citizen comment.
	AddComment(ctx context.Context, id, text, author string) (*domain.Comment, error)
	// Vote records one up/down vote and returns the updated counters.
	Vote(ctx context.Context, id, voteType, voterEmail string) (*services.VoteResult, error)
	// Get returns a single complaint by id.
	Get(ctx context.Context, id string) (*domain.Complaint, error)
	// List returns a filtered, sorted page of complaints.
	List(ctx context.Context, q repo.ComplaintQuery) (*services.ComplaintPage, error)
	// Analytics aggregates complaint counts.
	Analytics(ctx context.Context) (*domain.AnalyticsSummary, error)
	// AttachPhoto links a stored photo file to a complaint.
	AttachPhoto(ctx context.Context, id, photoPath string) error
}

// ActivityService defines the activity-feed operations consumed by handlers.
type ActivityService interface {
	// Recent returns the newest feed entries annotated with relative ages.
	Recent(ctx context.Context) ([]services.Entry, error)
}

// IdempotencyRecorder persists idempotency keys after a successful submission
// so later retries with the same key replay instead of duplicating.
type IdempotencyRecorder interface {
	Create(ctx context.Context, userID, scope, key, complaintID string, status int, ttl time.Duration) (*domain.Idempotency, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for complaints, administration, and the
// activity feed. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	svc      ComplaintService
	activity ActivityService
	uploads  *upload.Store

	idem    IdempotencyRecorder // optional; nil disables replay recording
	idemTTL time.Duration
}

// New constructs a Handlers instance bound to the given services.
func New(svc ComplaintService, activity ActivityService, uploads *upload.Store) *Handlers {
	return &Handlers{svc: svc, activity: activity, uploads: uploads}
}

// WithIdempotency enables idempotency-key recording on submissions.
func (h *Handlers) WithIdempotency(rec IdempotencyRecorder, ttl time.Duration) *Handlers {
	h.idem = rec
	h.idemTTL = ttl
	return h
}

// userID extracts the caller identity from the Gin context (set by upstream
// middleware). If absent it falls back to the "X-User-ID" header, and finally
// to "demo-user". Authentication proper is out of scope; the identity is used
// for rate limiting, idempotency, and the submitted_by field.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// SubmitComplaintRequest is the JSON payload for submitting a complaint.
// Multipart submissions carry the same fields as form values plus an optional
// "photo" file part.
type SubmitComplaintRequest struct {
	Complaint   string   `json:"complaint" example:"There is no water supply in my street for 3 days"`
	Location    string   `json:"location" example:"Elm Street 12"`
	Severity    string   `json:"severity" example:"7"`
	Tags        []string `json:"tags"`
	Anonymous   bool     `json:"anonymous"`
	SubmittedBy string   `json:"submitted_by" example:"resident@example.com"`
	HasPhoto    bool     `json:"hasPhoto"`
}

// SubmitComplaintResponse confirms a stored complaint.
type SubmitComplaintResponse struct {
	Success     bool            `json:"success"`
	ComplaintID string          `json:"complaint_id"`
	Category    domain.Category `json:"category"`
	Message     string          `json:"message"`
}

// PredictCategoryRequest asks for a classification preview.
type PredictCategoryRequest struct {
	Complaint string `json:"complaint" binding:"required"`
}

// PredictCategoryResponse reports the predicted category and its provenance.
type PredictCategoryResponse struct {
	Category      domain.Category `json:"category"`
	AutoCorrected bool            `json:"auto_corrected"`
}

// VoteRequest casts a vote on a complaint. VoteType defaults to upvote.
type VoteRequest struct {
	VoteType  string `json:"voteType" example:"upvote"`
	UserEmail string `json:"userEmail" example:"resident@example.com"`
}

// AddCommentRequest appends a comment to a complaint.
type AddCommentRequest struct {
	Comment string `json:"comment" binding:"required"`
	Author  string `json:"author"`
}

// SubmitComplaint handles POST /complaints.
//
// Accepts application/json or multipart/form-data; the latter may include a
// "photo" file that is stored by the upload collaborator and linked to the
// created record. Replays carrying a known Idempotency-Key short-circuit
// before any side effect.
func (h *Handlers) SubmitComplaint(c *gin.Context) {
	if middleware.IsReplay(c) {
		ok(c, http.StatusOK, gin.H{
			"success": true,
			"message": "Complaint already submitted",
			"replay":  true,
		})
		return
	}

	in, photo, bad := h.parseSubmission(c)
	if bad {
		return
	}

	created, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTextTooShort):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrTextTooShort.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, "could not store complaint")
		}
		return
	}

	// Store the photo after the record exists so the filename carries the id.
	if photo != nil {
		h.storePhoto(c, created, photo)
	}

	// Remember the idempotency key so retries replay instead of duplicating.
	if key, present := middleware.GetIdempotencyKey(c); present && h.idem != nil {
		if _, err := h.idem.Create(c.Request.Context(), userID(c), c.FullPath(), key, created.ID, http.StatusOK, h.idemTTL); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record failed")
		}
	}

	ok(c, http.StatusOK, SubmitComplaintResponse{
		Success:     true,
		ComplaintID: created.ID,
		Category:    created.Category,
		Message:     "Complaint submitted successfully!",
	})
}

// parseSubmission normalizes JSON and multipart submissions into CreateInput.
// On malformed input it writes the error response and reports bad=true.
func (h *Handlers) parseSubmission(c *gin.Context) (in services.CreateInput, photo *multipart.FileHeader, bad bool) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req SubmitComplaintRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
			return in, nil, true
		}
		in = services.CreateInput{
			Text:        req.Complaint,
			Location:    req.Location,
			Severity:    req.Severity,
			Tags:        req.Tags,
			Anonymous:   req.Anonymous,
			SubmittedBy: req.SubmittedBy,
			HasPhoto:    req.HasPhoto,
		}
		return in, nil, false
	}

	in = services.CreateInput{
		Text:        c.PostForm("complaint"),
		Location:    c.PostForm("location"),
		Severity:    c.PostForm("severity"),
		Tags:        parseTags(c.PostForm("tags")),
		Anonymous:   strings.EqualFold(c.PostForm("anonymous"), "true"),
		SubmittedBy: c.PostForm("submitted_by"),
	}
	if file, err := c.FormFile("photo"); err == nil && file != nil && file.Filename != "" {
		in.HasPhoto = true
		photo = file
	}
	return in, photo, false
}

// storePhoto persists an uploaded file and links it to the complaint. Upload
// failures are logged but never fail the submission itself.
func (h *Handlers) storePhoto(c *gin.Context, created *domain.Complaint, photo *multipart.FileHeader) {
	if h.uploads == nil {
		return
	}
	src, err := photo.Open()
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("photo open failed")
		return
	}
	defer src.Close()

	stored, err := h.uploads.Save(created.ID, photo.Filename, src)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("photo save failed")
		return
	}
	if err := h.svc.AttachPhoto(c.Request.Context(), created.ID, stored); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("photo attach failed")
		return
	}
	created.HasPhoto = true
	created.PhotoPath = stored
}

// parseTags decodes the tags form value, which arrives as a JSON array.
// Malformed input degrades to no tags, mirroring the severity fallback.
func parseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return tags
}

// ListComplaints handles GET /complaints with filtering, sorting, and
// 1-indexed pagination.
func (h *Handlers) ListComplaints(c *gin.Context) {
	q := repo.ComplaintQuery{
		Category:    c.Query("category"),
		Status:      c.Query("status"),
		Search:      c.Query("search"),
		SubmittedBy: c.Query("submitted_by"),
		Sort:        c.DefaultQuery("sort", repo.SortNewest),
		Page:        utils.AtoiDefault(c.Query("page"), 1),
		PerPage:     utils.AtoiDefault(c.Query("per_page"), 10),
	}

	page, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list complaints")
		return
	}
	ok(c, http.StatusOK, page)
}

// Vote handles POST /complaints/:id/vote.
func (h *Handlers) Vote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	if req.VoteType == "" {
		req.VoteType = domain.VoteUp
	}

	res, err := h.svc.Vote(c.Request.Context(), c.Param("id"), req.VoteType, req.UserEmail)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrComplaintNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrComplaintNotFound.Error())
		case errors.Is(err, services.ErrInvalidVote):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrInvalidVote.Error())
		case errors.Is(err, services.ErrAlreadyVoted):
			fail(c, http.StatusConflict, ErrCodeConflict, services.ErrAlreadyVoted.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not record vote")
		}
		return
	}

	message := "Vote added"
	if req.VoteType == domain.VoteDown {
		message = "Vote removed"
	}
	ok(c, http.StatusOK, gin.H{
		"success":        true,
		"message":        message,
		"votes":          res.Votes,
		"priority_score": res.PriorityScore,
	})
}

// AddComment handles POST /complaints/:id/comments.
func (h *Handlers) AddComment(c *gin.Context) {
	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "comment text is required")
		return
	}

	author := req.Author
	if author == "" {
		author = userID(c)
	}

	cm, err := h.svc.AddComment(c.Request.Context(), c.Param("id"), req.Comment, author)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrComplaintNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrComplaintNotFound.Error())
		case errors.Is(err, services.ErrEmptyComment):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrEmptyComment.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not add comment")
		}
		return
	}

	ok(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Comment added successfully",
		"comment": cm,
	})
}

// Categories handles GET /categories, returning the fixed taxonomy in
// declaration order.
func (h *Handlers) Categories(c *gin.Context) {
	ok(c, http.StatusOK, domain.Categories)
}

// PredictCategory handles POST /categories/predict: classify text without
// saving a complaint.
func (h *Handlers) PredictCategory(c *gin.Context) {
	var req PredictCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "complaint text is required")
		return
	}

	pred, err := h.svc.Predict(c.Request.Context(), req.Complaint)
	if err != nil {
		if errors.Is(err, services.ErrTextTooShort) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrTextTooShort.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not classify complaint")
		return
	}

	ok(c, http.StatusOK, PredictCategoryResponse{
		Category:      pred.Category,
		AutoCorrected: pred.KeywordMatch,
	})
}
