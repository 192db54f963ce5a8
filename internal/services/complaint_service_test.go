package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/civitracker/go-complaints-backend/internal/classifier"
	"github.com/civitracker/go-complaints-backend/internal/domain"
	"github.com/civitracker/go-complaints-backend/internal/repo"
)

// --- fakes ---

type fakeComplaintStore struct {
	inserted []*domain.Complaint
	statuses map[string]string
	depts    map[string]string
	photos   map[string]string
	comments map[string][]domain.Comment
	notes    map[string][]domain.AdminNote

	getResult *domain.Complaint

	applyVoteResult *domain.Complaint
	applyVoteDelta  int
	applyVoteVoter  string

	pageItems []domain.Complaint
	pageTotal int64
	pageQuery repo.ComplaintQuery

	analytics *domain.AnalyticsSummary

	err error // returned by every mutating call when set
}

func newFakeStore() *fakeComplaintStore {
	return &fakeComplaintStore{
		statuses: map[string]string{},
		depts:    map[string]string{},
		photos:   map[string]string{},
		comments: map[string][]domain.Comment{},
		notes:    map[string][]domain.AdminNote{},
	}
}

func (f *fakeComplaintStore) Insert(_ context.Context, c *domain.Complaint) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, c)
	return nil
}

func (f *fakeComplaintStore) Get(_ context.Context, id string) (*domain.Complaint, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.getResult == nil {
		return nil, repo.ErrNotFound
	}
	return f.getResult, nil
}

func (f *fakeComplaintStore) SetStatus(_ context.Context, id, status string) error {
	if f.err != nil {
		return f.err
	}
	f.statuses[id] = status
	return nil
}

func (f *fakeComplaintStore) SetDepartment(_ context.Context, id, department string) error {
	if f.err != nil {
		return f.err
	}
	f.depts[id] = department
	return nil
}

func (f *fakeComplaintStore) SetPhoto(_ context.Context, id, photoPath string) error {
	if f.err != nil {
		return f.err
	}
	f.photos[id] = photoPath
	return nil
}

func (f *fakeComplaintStore) PushComment(_ context.Context, id string, cm domain.Comment) error {
	if f.err != nil {
		return f.err
	}
	f.comments[id] = append(f.comments[id], cm)
	return nil
}

func (f *fakeComplaintStore) PushAdminNote(_ context.Context, id string, note domain.AdminNote) error {
	if f.err != nil {
		return f.err
	}
	f.notes[id] = append(f.notes[id], note)
	return nil
}

func (f *fakeComplaintStore) ApplyVote(_ context.Context, id string, delta int, voter string) (*domain.Complaint, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.applyVoteDelta = delta
	f.applyVoteVoter = voter
	return f.applyVoteResult, nil
}

func (f *fakeComplaintStore) Page(_ context.Context, q repo.ComplaintQuery) ([]domain.Complaint, int64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	f.pageQuery = q
	return f.pageItems, f.pageTotal, nil
}

func (f *fakeComplaintStore) Analytics(_ context.Context) (*domain.AnalyticsSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.analytics, nil
}

type fakeActivityStore struct {
	appended []domain.ActivityEntry
	recent   []domain.ActivityEntry
	err      error
}

func (f *fakeActivityStore) Append(_ context.Context, e domain.ActivityEntry) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeActivityStore) Recent(_ context.Context, n int) ([]domain.ActivityEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.recent) > n {
		return f.recent[:n], nil
	}
	return f.recent, nil
}

func newTestService() (*ComplaintService, *fakeComplaintStore, *fakeActivityStore) {
	store := newFakeStore()
	feed := &fakeActivityStore{}
	svc := NewComplaintService(store, classifier.NewResolver(nil), NewActivityService(feed))
	return svc, store, feed
}

// --- Create ---

func TestCreate_WaterComplaint(t *testing.T) {
	svc, store, feed := newTestService()

	got, err := svc.Create(context.Background(), CreateInput{
		Text:     "No water supply in our area, urgent attention needed",
		Location: "Sector 12",
		Severity: "9",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got.ID == "" {
		t.Fatalf("expected generated id")
	}
	if got.Category != domain.CategoryWater {
		t.Fatalf("category = %v", got.Category)
	}
	if got.PredictionSource != domain.PredictionManual {
		t.Fatalf("prediction source = %q", got.PredictionSource)
	}
	// severity 9 + urgent boost 2, capped at 10
	if got.Severity != 9 || got.PriorityScore != 10 {
		t.Fatalf("severity/priority = %d/%v", got.Severity, got.PriorityScore)
	}
	if got.Status != domain.StatusNew || got.Votes != 0 {
		t.Fatalf("initial state unexpected: %+v", got)
	}
	if got.SubmittedBy != "Anonymous" {
		t.Fatalf("submitted_by default = %q", got.SubmittedBy)
	}
	if got.Tags == nil || got.Comments == nil {
		t.Fatalf("tags and comments must be non-nil")
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("timestamp not set")
	}

	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(store.inserted))
	}
	if len(feed.appended) != 1 {
		t.Fatalf("expected 1 activity entry, got %d", len(feed.appended))
	}
	entry := feed.appended[0]
	if entry.Type != domain.ActivityNewComplaint {
		t.Fatalf("activity type = %q", entry.Type)
	}
	if !strings.Contains(entry.Message, "Water Issues") {
		t.Fatalf("activity message = %q", entry.Message)
	}
}

func TestCreate_TextTooShort(t *testing.T) {
	svc, store, feed := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{Text: "   too short  "})
	if !errors.Is(err, ErrTextTooShort) {
		t.Fatalf("expected ErrTextTooShort, got %v", err)
	}
	if len(store.inserted) != 0 || len(feed.appended) != 0 {
		t.Fatalf("nothing may be written on validation failure")
	}

	// Length counts characters, not bytes: nine runes of accented text must
	// still fail even though the UTF-8 encoding exceeds ten bytes.
	_, err = svc.Create(context.Background(), CreateInput{Text: "água suja"})
	if !errors.Is(err, ErrTextTooShort) {
		t.Fatalf("expected ErrTextTooShort for 9-rune text, got %v", err)
	}
}

func TestCreate_SeverityFallbackAndBoosts(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	// Unparseable severity falls back to 5; no urgency words.
	got, err := svc.Create(ctx, CreateInput{Text: "garbage piling up near the market", Severity: "not-a-number"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Severity != 5 || got.PriorityScore != 5 {
		t.Fatalf("fallback severity/priority = %d/%v", got.Severity, got.PriorityScore)
	}

	// "soon" earns +1, not +2.
	got, err = svc.Create(ctx, CreateInput{Text: "please fix the street light soon", Severity: "4"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.PriorityScore != 5 {
		t.Fatalf("soon boost priority = %v", got.PriorityScore)
	}

	// Out-of-range severity is clamped before boosting.
	got, err = svc.Create(ctx, CreateInput{Text: "overflowing sewer on main road", Severity: "42"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Severity != 10 || got.PriorityScore != 10 {
		t.Fatalf("clamped severity/priority = %d/%v", got.Severity, got.PriorityScore)
	}
}

func TestCreate_UnmatchedTextDefaultsToOther(t *testing.T) {
	svc, _, _ := newTestService()

	got, err := svc.Create(context.Background(), CreateInput{Text: "completely unrelated gibberish xyzzy"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Category != domain.CategoryOther || got.PredictionSource != domain.PredictionManual {
		t.Fatalf("degraded default = %v/%q", got.Category, got.PredictionSource)
	}
}

// --- Predict ---

func TestPredict(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Predict(ctx, "short"); !errors.Is(err, ErrTextTooShort) {
		t.Fatalf("expected ErrTextTooShort, got %v", err)
	}

	pred, err := svc.Predict(ctx, "transformer sparking near the school")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.Category != domain.CategoryElectricity || pred.Source != classifier.ProvenanceRules {
		t.Fatalf("Predict = %v/%q", pred.Category, pred.Source)
	}
	if !pred.KeywordMatch {
		t.Fatalf("keyword hit must set KeywordMatch")
	}

	// The "Other" default carries the rules provenance but is not a keyword hit.
	pred, err = svc.Predict(ctx, "something entirely unclassifiable happened")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.Category != domain.CategoryOther || pred.KeywordMatch {
		t.Fatalf("default fallback = %v keyword=%v", pred.Category, pred.KeywordMatch)
	}
}

func TestPredict_LengthCountsRunes(t *testing.T) {
	svc, _, _ := newTestService()

	// Six runes, twelve bytes: still too short.
	if _, err := svc.Predict(context.Background(), "çççççç"); !errors.Is(err, ErrTextTooShort) {
		t.Fatalf("expected ErrTextTooShort, got %v", err)
	}
}

// --- UpdateStatus ---

func TestUpdateStatus(t *testing.T) {
	svc, store, feed := newTestService()
	ctx := context.Background()

	if err := svc.UpdateStatus(ctx, "abc", "closed"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if len(store.statuses) != 0 {
		t.Fatalf("invalid status must not reach the store")
	}

	id := "0a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9"
	if err := svc.UpdateStatus(ctx, id, domain.StatusInProgress); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if store.statuses[id] != domain.StatusInProgress {
		t.Fatalf("status not persisted: %v", store.statuses)
	}
	if len(feed.appended) != 1 {
		t.Fatalf("expected 1 activity entry, got %d", len(feed.appended))
	}
	entry := feed.appended[0]
	if entry.Type != domain.ActivityStatusUpdate {
		t.Fatalf("activity type = %q", entry.Type)
	}
	if entry.Message != "Complaint #0a1b2c3d marked as In Progress" {
		t.Fatalf("activity message = %q", entry.Message)
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc, store, feed := newTestService()
	store.err = repo.ErrNotFound

	err := svc.UpdateStatus(context.Background(), "missing", domain.StatusResolved)
	if !errors.Is(err, ErrComplaintNotFound) {
		t.Fatalf("expected ErrComplaintNotFound, got %v", err)
	}
	if len(feed.appended) != 0 {
		t.Fatalf("no activity entry on failed update")
	}
}

// --- AssignDepartment / notes / comments ---

func TestAssignDepartment(t *testing.T) {
	svc, store, feed := newTestService()
	ctx := context.Background()

	if err := svc.AssignDepartment(ctx, "abc", "   "); !errors.Is(err, ErrEmptyDepartment) {
		t.Fatalf("expected ErrEmptyDepartment, got %v", err)
	}

	if err := svc.AssignDepartment(ctx, "abc", " Water Board "); err != nil {
		t.Fatalf("AssignDepartment: %v", err)
	}
	if store.depts["abc"] != "Water Board" {
		t.Fatalf("department not trimmed/persisted: %v", store.depts)
	}
	// assignment is silent in the feed
	if len(feed.appended) != 0 {
		t.Fatalf("department assignment must not log activity")
	}
}

func TestAddAdminNote(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.AddAdminNote(ctx, "abc", "  ", "x"); !errors.Is(err, ErrEmptyNote) {
		t.Fatalf("expected ErrEmptyNote, got %v", err)
	}

	note, err := svc.AddAdminNote(ctx, "abc", "crew dispatched", "")
	if err != nil {
		t.Fatalf("AddAdminNote: %v", err)
	}
	if note.Author != "Administrator" {
		t.Fatalf("default author = %q", note.Author)
	}
	if note.CreatedAt.IsZero() {
		t.Fatalf("note timestamp not set")
	}
	if len(store.notes["abc"]) != 1 {
		t.Fatalf("note not persisted")
	}
}

func TestAddComment(t *testing.T) {
	svc, store, feed := newTestService()
	ctx := context.Background()

	if _, err := svc.AddComment(ctx, "abc", "", "x"); !errors.Is(err, ErrEmptyComment) {
		t.Fatalf("expected ErrEmptyComment, got %v", err)
	}

	cm, err := svc.AddComment(ctx, "abc", "same issue on my street", " ")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if cm.ID == "" {
		t.Fatalf("comment id not generated")
	}
	if cm.Author != "Anonymous User" {
		t.Fatalf("default author = %q", cm.Author)
	}
	if len(store.comments["abc"]) != 1 {
		t.Fatalf("comment not persisted")
	}
	if len(feed.appended) != 0 {
		t.Fatalf("comments must not log activity")
	}
}

// --- Vote ---

func TestVote(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Vote(ctx, "abc", "sideways", "a@b.com"); !errors.Is(err, ErrInvalidVote) {
		t.Fatalf("expected ErrInvalidVote, got %v", err)
	}

	store.applyVoteResult = &domain.Complaint{Votes: 3, PriorityScore: 6.5}
	res, err := svc.Vote(ctx, "abc", domain.VoteUp, " a@b.com ")
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if store.applyVoteDelta != 1 || store.applyVoteVoter != "a@b.com" {
		t.Fatalf("store call unexpected: delta=%d voter=%q", store.applyVoteDelta, store.applyVoteVoter)
	}
	if res.Votes != 3 || res.PriorityScore != 6.5 {
		t.Fatalf("result = %+v", res)
	}

	store.applyVoteResult = &domain.Complaint{Votes: 2, PriorityScore: 5.5}
	if _, err := svc.Vote(ctx, "abc", domain.VoteDown, ""); err != nil {
		t.Fatalf("Vote down: %v", err)
	}
	if store.applyVoteDelta != -1 || store.applyVoteVoter != "" {
		t.Fatalf("downvote call unexpected: delta=%d voter=%q", store.applyVoteDelta, store.applyVoteVoter)
	}
}

func TestVote_DuplicateAndMissing(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	store.err = repo.ErrDuplicateVote
	if _, err := svc.Vote(ctx, "abc", domain.VoteUp, "a@b.com"); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}

	store.err = repo.ErrNotFound
	if _, err := svc.Vote(ctx, "abc", domain.VoteUp, "a@b.com"); !errors.Is(err, ErrComplaintNotFound) {
		t.Fatalf("expected ErrComplaintNotFound, got %v", err)
	}
}

// --- List / Get / Analytics / AttachPhoto ---

func TestList_PaginationDefaultsAndCaps(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	store.pageTotal = 25

	page, err := svc.List(ctx, repo.ComplaintQuery{Page: 0, PerPage: 0})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Page != 1 || page.PerPage != 10 {
		t.Fatalf("defaults: page=%d per_page=%d", page.Page, page.PerPage)
	}
	if page.TotalPages != 3 {
		t.Fatalf("25 items / 10 per page = 3 pages, got %d", page.TotalPages)
	}

	page, err = svc.List(ctx, repo.ComplaintQuery{Page: 2, PerPage: 500})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.PerPage != 100 {
		t.Fatalf("per_page cap = %d", page.PerPage)
	}
	if store.pageQuery.PerPage != 100 || store.pageQuery.Page != 2 {
		t.Fatalf("query passed to store: %+v", store.pageQuery)
	}
}

func TestGet(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrComplaintNotFound) {
		t.Fatalf("expected ErrComplaintNotFound, got %v", err)
	}

	store.getResult = &domain.Complaint{ID: "abc"}
	got, err := svc.Get(ctx, "abc")
	if err != nil || got.ID != "abc" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
}

func TestAnalyticsPassthrough(t *testing.T) {
	svc, store, _ := newTestService()
	store.analytics = &domain.AnalyticsSummary{TotalComplaints: 7, ResolvedCount: 2, PendingCount: 5}

	got, err := svc.Analytics(context.Background())
	if err != nil || got.TotalComplaints != 7 || got.PendingCount != 5 {
		t.Fatalf("Analytics = %+v, %v", got, err)
	}
}

func TestAttachPhoto_NotFound(t *testing.T) {
	svc, store, _ := newTestService()
	store.err = repo.ErrNotFound
	if err := svc.AttachPhoto(context.Background(), "missing", "p.jpg"); !errors.Is(err, ErrComplaintNotFound) {
		t.Fatalf("expected ErrComplaintNotFound, got %v", err)
	}
}

// --- helpers ---

func TestInitialPriority(t *testing.T) {
	cases := []struct {
		text     string
		severity int
		want     float64
	}{
		{"water leak", 5, 5},
		{"URGENT water leak", 5, 7},
		{"emergency at the crossing", 9, 10},
		{"fix this soon please", 5, 6},
		{"important road damage", 10, 10},
	}
	for _, tc := range cases {
		if got := initialPriority(tc.text, tc.severity); got != tc.want {
			t.Fatalf("initialPriority(%q,%d) = %v want %v", tc.text, tc.severity, got, tc.want)
		}
	}
}

func TestClampSeverity(t *testing.T) {
	if clampSeverity(0) != 1 || clampSeverity(-3) != 1 {
		t.Fatalf("low clamp failed")
	}
	if clampSeverity(11) != 10 || clampSeverity(100) != 10 {
		t.Fatalf("high clamp failed")
	}
	if clampSeverity(7) != 7 {
		t.Fatalf("in-range value altered")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0a1b2c3d-4e5f"); got != "0a1b2c3d" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("tiny"); got != "tiny" {
		t.Fatalf("shortID short input = %q", got)
	}
}
