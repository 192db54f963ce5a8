// Package domain defines the persistence models for complaints and the
// activity feed. These types carry BSON tags for the MongoDB document store
// and form the core data layer of the complaint-intake application.
package domain

import "time"

// Category is one label from the fixed municipal-issue taxonomy.
type Category string

// The closed category set. CategoryOther is the universal fallback: any
// classification result outside this set is coerced to it.
const (
	CategoryWater       Category = "Water Issues"
	CategoryRoad        Category = "Road Issues"
	CategoryGarbage     Category = "Garbage Issues"
	CategoryElectricity Category = "Electricity"
	CategoryDrainage    Category = "Drainage Issues"
	CategoryOther       Category = "Other"
)

// Categories lists the taxonomy in declaration order. The order is load-bearing:
// the keyword classifier resolves ties by scanning categories in this order.
var Categories = []Category{
	CategoryWater,
	CategoryRoad,
	CategoryGarbage,
	CategoryElectricity,
	CategoryDrainage,
	CategoryOther,
}

// ValidCategory reports whether c is a member of the fixed taxonomy.
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Complaint status lifecycle. Transitions are admin-driven and unconstrained:
// any status may move to any other.
const (
	StatusNew        = "new"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
)

// ValidStatus reports whether s is one of the three lifecycle states.
func ValidStatus(s string) bool {
	return s == StatusNew || s == StatusInProgress || s == StatusResolved
}

// HumanStatus renders a status value as the label shown in activity messages.
func HumanStatus(s string) string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case StatusResolved:
		return "Resolved"
	default:
		return "New"
	}
}

// Prediction sources recorded on a complaint, naming which half of the hybrid
// classifier produced its category.
const (
	// PredictionManual marks a category decided by the deterministic keyword
	// rules (or the default fallback when no statistical model is loaded).
	PredictionManual = "manual"
	// PredictionModel marks a category produced by the statistical classifier.
	PredictionModel = "model"
)

// Vote directions accepted by the vote operation.
const (
	VoteUp   = "upvote"
	VoteDown = "downvote"
)

// Complaint is a citizen-submitted report and its derived state.
//
// Fields:
//   - ID: UUID primary key, generated at creation, immutable.
//   - Text: original complaint body; validated to >= 10 characters.
//   - Category: resolved by the hybrid classifier at creation.
//   - PriorityScore: severity plus urgency-keyword boost at creation,
//     adjusted by +/-0.5 per vote afterwards.
//   - Votes / Voters: crowd signal; Voters enforces one vote per identified
//     voter, anonymous votes are unbounded.
//   - Comments / AdminNotes: embedded append-only sequences owned exclusively
//     by the complaint document.
type Complaint struct {
	ID                 string      `bson:"_id"                json:"id"`
	Text               string      `bson:"complaint"          json:"complaint"`
	Category           Category    `bson:"category"           json:"category"`
	Location           string      `bson:"location"           json:"location"`
	Severity           int         `bson:"severity"           json:"severity"`
	PriorityScore      float64     `bson:"priority_score"     json:"priority_score"`
	Status             string      `bson:"status"             json:"status"`
	Votes              int         `bson:"votes"              json:"votes"`
	Voters             []string    `bson:"voters,omitempty"   json:"-"`
	Comments           []Comment   `bson:"comments"           json:"comments"`
	AdminNotes         []AdminNote `bson:"admin_notes,omitempty" json:"admin_notes,omitempty"`
	AssignedDepartment string      `bson:"assigned_department,omitempty" json:"assigned_department,omitempty"`
	HasPhoto           bool        `bson:"has_photo"          json:"has_photo"`
	PhotoPath          string      `bson:"photo_path,omitempty" json:"photo_path,omitempty"`
	Tags               []string    `bson:"tags"               json:"tags"`
	Anonymous          bool        `bson:"anonymous"          json:"anonymous"`
	SubmittedBy        string      `bson:"submitted_by"       json:"submitted_by"`
	PredictionSource   string      `bson:"prediction_source"  json:"prediction_source"`
	ModelVersion       string      `bson:"model_version,omitempty" json:"model_version,omitempty"`
	CreatedAt          time.Time   `bson:"timestamp"          json:"timestamp"`
}

// Comment is a citizen comment embedded in a complaint. Immutable once appended.
type Comment struct {
	ID        string    `bson:"comment_id" json:"comment_id"`
	Text      string    `bson:"text"       json:"text"`
	Author    string    `bson:"user"       json:"user"`
	CreatedAt time.Time `bson:"timestamp"  json:"timestamp"`
}

// AdminNote is an internal note embedded in a complaint. Immutable once appended.
type AdminNote struct {
	Text      string    `bson:"text"      json:"text"`
	Author    string    `bson:"admin"     json:"admin"`
	CreatedAt time.Time `bson:"timestamp" json:"timestamp"`
}

// Activity entry types emitted by the complaint lifecycle.
const (
	ActivityNewComplaint = "new_complaint"
	ActivityStatusUpdate = "status_update"
)

// ActivityEntry is one row of the append-only activity feed. Entries carry a
// precomposed human-readable message and are never mutated after insertion;
// they reference no complaint by id.
type ActivityEntry struct {
	ID        string    `bson:"_id"       json:"id"`
	Type      string    `bson:"type"      json:"type"`
	Message   string    `bson:"message"   json:"message"`
	CreatedAt time.Time `bson:"timestamp" json:"timestamp"`
}

// AnalyticsSummary aggregates complaint counts for the admin dashboard.
type AnalyticsSummary struct {
	TotalComplaints int64              `json:"total_complaints"`
	CategoryCounts  map[Category]int64 `json:"category_counts"`
	ResolvedCount   int64              `json:"resolved_count"`
	PendingCount    int64              `json:"pending_count"`
}
