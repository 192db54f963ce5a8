// Package services – ComplaintService
//
// This file implements the ComplaintService, which owns the complaint record
// model: creation with hybrid classification and priority scoring, the status
// lifecycle, department assignment, notes, comments, atomic voting, and the
// filtered/paginated listing. Activity-feed emission is delegated to the
// ActivityService and deliberately asymmetric: creation and status updates
// log entries, department assignment, notes, and comments do not.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/civitracker/go-complaints-backend/internal/classifier"
	"github.com/civitracker/go-complaints-backend/internal/domain"
	"github.com/civitracker/go-complaints-backend/internal/repo"
	"github.com/civitracker/go-complaints-backend/internal/utils"
)

// ComplaintStore defines the persistence contract required by
// ComplaintService. Implementations must keep every mutation atomic per
// document: ApplyVote in particular performs the voter-membership check and
// the counter increments in one conditional store operation.
type ComplaintStore interface {
	// Insert writes a new complaint document.
	Insert(ctx context.Context, c *domain.Complaint) error
	// Get fetches a complaint by id, or repo.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Complaint, error)
	// SetStatus updates the lifecycle status of a complaint.
	SetStatus(ctx context.Context, id, status string) error
	// SetDepartment records the assigned department.
	SetDepartment(ctx context.Context, id, department string) error
	// SetPhoto marks a complaint as carrying a stored photo.
	SetPhoto(ctx context.Context, id, photoPath string) error
	// PushComment appends a comment to the embedded sequence.
	PushComment(ctx context.Context, id string, cm domain.Comment) error
	// PushAdminNote appends an admin note to the embedded sequence.
	PushAdminNote(ctx context.Context, id string, note domain.AdminNote) error
	// ApplyVote atomically records one vote and returns the updated document.
	ApplyVote(ctx context.Context, id string, delta int, voter string) (*domain.Complaint, error)
	// Page lists complaints matching a query plus the total match count.
	Page(ctx context.Context, q repo.ComplaintQuery) ([]domain.Complaint, int64, error)
	// Analytics aggregates complaint counts for the dashboard.
	Analytics(ctx context.Context) (*domain.AnalyticsSummary, error)
}

// Priority scoring constants. Creation-time boosts cap the score at 10;
// vote adjustments afterwards are deliberately uncapped so heavily backed
// complaints can outrank any freshly filed one.
const (
	minTextChars    = 10
	defaultSeverity = 5
	maxPriority     = 10
)

// ComplaintService provides complaint-level operations. It enforces input
// rules, derives priority scores, and coordinates the store, the category
// resolver, and the activity feed.
type ComplaintService struct {
	Store    ComplaintStore
	Resolver *classifier.Resolver
	Activity *ActivityService

	// DefaultPerPage is the page size applied when a listing request does
	// not specify one.
	DefaultPerPage int
	// MaxPerPage caps the page size a caller may request.
	MaxPerPage int
}

// NewComplaintService constructs a ComplaintService with sane listing defaults.
func NewComplaintService(store ComplaintStore, resolver *classifier.Resolver, activity *ActivityService) *ComplaintService {
	return &ComplaintService{
		Store:          store,
		Resolver:       resolver,
		Activity:       activity,
		DefaultPerPage: 10,
		MaxPerPage:     100,
	}
}

// CreateInput carries the submitter-supplied fields of a new complaint.
// Severity arrives as the raw string from the request; unparseable values
// silently fall back to the default of 5 rather than failing the submission.
type CreateInput struct {
	Text        string
	Location    string
	Severity    string
	Tags        []string
	Anonymous   bool
	SubmittedBy string
	HasPhoto    bool
	PhotoPath   string
}

// Create validates and persists a new complaint.
//
// The body must be at least 10 characters after trimming. The category is
// decided by the hybrid resolver; the initial priority score starts at the
// (clamped) severity and gains an urgency boost from the text: +2 for
// "urgent"/"emergency", else +1 for "soon"/"important", capped at 10. Exactly
// one activity entry of type new_complaint is emitted on success.
func (s *ComplaintService) Create(ctx context.Context, in CreateInput) (*domain.Complaint, error) {
	text := strings.TrimSpace(in.Text)
	if utf8.RuneCountInString(text) < minTextChars {
		return nil, ErrTextTooShort
	}

	category, source := s.Resolver.Resolve(text)

	severity := clampSeverity(utils.AtoiDefault(strings.TrimSpace(in.Severity), defaultSeverity))

	submittedBy := strings.TrimSpace(in.SubmittedBy)
	if submittedBy == "" {
		submittedBy = "Anonymous"
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	c := &domain.Complaint{
		ID:               uuid.NewString(),
		Text:             text,
		Category:         category,
		Location:         in.Location,
		Severity:         severity,
		PriorityScore:    initialPriority(text, severity),
		Status:           domain.StatusNew,
		Votes:            0,
		Comments:         []domain.Comment{},
		HasPhoto:         in.HasPhoto,
		PhotoPath:        in.PhotoPath,
		Tags:             tags,
		Anonymous:        in.Anonymous,
		SubmittedBy:      submittedBy,
		PredictionSource: source,
		ModelVersion:     s.Resolver.ModelVersion(),
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.Store.Insert(ctx, c); err != nil {
		return nil, err
	}

	classifier.RecordClassification(string(category), source)
	s.Activity.Log(ctx, domain.ActivityNewComplaint,
		fmt.Sprintf("New complaint submitted in %s category", category))

	return c, nil
}

// Prediction is the result of a classification preview. KeywordMatch is true
// only for an actual keyword-rule hit, not for the "Other" default that shares
// the rules provenance.
type Prediction struct {
	Category     domain.Category
	Source       classifier.Provenance
	KeywordMatch bool
}

// Predict classifies text without persisting anything. It applies the same
// length rule as Create so the preview endpoint and the real submission agree.
func (s *ComplaintService) Predict(ctx context.Context, text string) (*Prediction, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minTextChars {
		return nil, ErrTextTooShort
	}
	category, source := s.Resolver.Resolve(text)
	return &Prediction{
		Category:     category,
		Source:       source,
		KeywordMatch: s.Resolver.RuleMatch(text),
	}, nil
}

// UpdateStatus moves a complaint to newStatus. Any of the three states may
// transition to any other. A status_update activity entry naming the human
// status label is emitted on success.
func (s *ComplaintService) UpdateStatus(ctx context.Context, id, newStatus string) error {
	if !domain.ValidStatus(newStatus) {
		return ErrInvalidStatus
	}
	if err := s.Store.SetStatus(ctx, id, newStatus); err != nil {
		return mapNotFound(err)
	}
	s.Activity.Log(ctx, domain.ActivityStatusUpdate,
		fmt.Sprintf("Complaint #%s marked as %s", shortID(id), domain.HumanStatus(newStatus)))
	return nil
}

// AssignDepartment records the department handling a complaint. Assignment
// intentionally emits no activity entry, unlike status updates.
func (s *ComplaintService) AssignDepartment(ctx context.Context, id, department string) error {
	department = strings.TrimSpace(department)
	if department == "" {
		return ErrEmptyDepartment
	}
	return mapNotFound(s.Store.SetDepartment(ctx, id, department))
}

// AddAdminNote appends an internal note with a server-assigned timestamp.
func (s *ComplaintService) AddAdminNote(ctx context.Context, id, text, author string) (*domain.AdminNote, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyNote
	}
	if strings.TrimSpace(author) == "" {
		author = "Administrator"
	}
	note := domain.AdminNote{
		Text:      text,
		Author:    author,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.PushAdminNote(ctx, id, note); err != nil {
		return nil, mapNotFound(err)
	}
	return &note, nil
}

// AddComment appends a citizen comment with a generated id and server
// timestamp. Comments emit no activity entry.
func (s *ComplaintService) AddComment(ctx context.Context, id, text, author string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}
	if strings.TrimSpace(author) == "" {
		author = "Anonymous User"
	}
	cm := domain.Comment{
		ID:        uuid.NewString(),
		Text:      text,
		Author:    author,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.PushComment(ctx, id, cm); err != nil {
		return nil, mapNotFound(err)
	}
	return &cm, nil
}

// VoteResult reports the counters after a successful vote.
type VoteResult struct {
	Votes         int     `json:"votes"`
	PriorityScore float64 `json:"priority_score"`
}

// Vote records an upvote or downvote. An identified voter (non-empty
// voterEmail) may vote at most once per complaint; a second attempt returns
// ErrAlreadyVoted with no mutation. Anonymous votes are unbounded. Each vote
// shifts priority_score by +/-0.5 with no cap in either direction.
func (s *ComplaintService) Vote(ctx context.Context, id, voteType, voterEmail string) (*VoteResult, error) {
	var delta int
	switch voteType {
	case domain.VoteUp:
		delta = 1
	case domain.VoteDown:
		delta = -1
	default:
		return nil, ErrInvalidVote
	}

	updated, err := s.Store.ApplyVote(ctx, id, delta, strings.TrimSpace(voterEmail))
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateVote) {
			return nil, ErrAlreadyVoted
		}
		return nil, mapNotFound(err)
	}
	return &VoteResult{Votes: updated.Votes, PriorityScore: updated.PriorityScore}, nil
}

// ComplaintPage is one page of a complaint listing with pagination metadata.
type ComplaintPage struct {
	Complaints []domain.Complaint `json:"complaints"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PerPage    int                `json:"per_page"`
	TotalPages int64              `json:"total_pages"`
}

// List returns a filtered, sorted page of complaints. Pages are 1-indexed;
// invalid page/per_page values fall back to defaults, and per_page is capped.
func (s *ComplaintService) List(ctx context.Context, q repo.ComplaintQuery) (*ComplaintPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = s.DefaultPerPage
	}
	if s.MaxPerPage > 0 && q.PerPage > s.MaxPerPage {
		q.PerPage = s.MaxPerPage
	}

	items, total, err := s.Store.Page(ctx, q)
	if err != nil {
		return nil, err
	}
	return &ComplaintPage{
		Complaints: items,
		Total:      total,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: (total + int64(q.PerPage) - 1) / int64(q.PerPage),
	}, nil
}

// Get fetches a single complaint by id.
func (s *ComplaintService) Get(ctx context.Context, id string) (*domain.Complaint, error) {
	c, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return c, nil
}

// Analytics returns aggregate complaint counts.
func (s *ComplaintService) Analytics(ctx context.Context) (*domain.AnalyticsSummary, error) {
	return s.Store.Analytics(ctx)
}

// AttachPhoto links an already-stored photo file to a complaint.
func (s *ComplaintService) AttachPhoto(ctx context.Context, id, photoPath string) error {
	return mapNotFound(s.Store.SetPhoto(ctx, id, photoPath))
}

// initialPriority derives the creation-time priority score: severity plus a
// mutually exclusive urgency boost, capped at 10.
func initialPriority(text string, severity int) float64 {
	lowered := strings.ToLower(text)
	score := severity
	if strings.Contains(lowered, "urgent") || strings.Contains(lowered, "emergency") {
		score = minInt(maxPriority, score+2)
	} else if strings.Contains(lowered, "soon") || strings.Contains(lowered, "important") {
		score = minInt(maxPriority, score+1)
	}
	return float64(score)
}

// clampSeverity forces severity into [1,10]; recovery over rejection, matching
// the silent default for unparseable input.
func clampSeverity(v int) int {
	if v < 1 {
		return 1
	}
	if v > maxPriority {
		return maxPriority
	}
	return v
}

// shortID renders the first 8 characters of a complaint id for feed messages.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// mapNotFound converts the store's not-found sentinel into the service-level
// error; everything else passes through untouched.
func mapNotFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrComplaintNotFound
	}
	return err
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
