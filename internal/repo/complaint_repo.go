// Complaint persistence.
//
// All mutations against a complaint document are expressed as single MongoDB
// update operations ($set, $push, $inc, $addToSet) so derived counters stay
// correct under concurrent requests; there is no read-modify-write in
// application code. Vote deduplication in particular is one conditional
// update, never a membership check followed by a separate increment.
package repo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civitracker/go-complaints-backend/internal/domain"
)

// ComplaintStore persists complaints in the complaints collection.
type ComplaintStore struct {
	col *mongo.Collection
}

// NewComplaintStore binds a store to the complaints collection of db.
func NewComplaintStore(db *mongo.Database) *ComplaintStore {
	return &ComplaintStore{col: db.Collection(ComplaintsCollection)}
}

// Insert writes a fully populated complaint document.
func (s *ComplaintStore) Insert(ctx context.Context, c *domain.Complaint) error {
	_, err := s.col.InsertOne(ctx, c)
	return err
}

// Get fetches a complaint by id, or ErrNotFound.
func (s *ComplaintStore) Get(ctx context.Context, id string) (*domain.Complaint, error) {
	var c domain.Complaint
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SetStatus updates the status field, or returns ErrNotFound for unknown ids.
func (s *ComplaintStore) SetStatus(ctx context.Context, id, status string) error {
	return s.setFields(ctx, id, bson.M{"status": status})
}

// SetDepartment records the assigned department, or returns ErrNotFound.
func (s *ComplaintStore) SetDepartment(ctx context.Context, id, department string) error {
	return s.setFields(ctx, id, bson.M{"assigned_department": department})
}

// SetPhoto marks the complaint as carrying a stored photo.
func (s *ComplaintStore) SetPhoto(ctx context.Context, id, photoPath string) error {
	return s.setFields(ctx, id, bson.M{"has_photo": true, "photo_path": photoPath})
}

func (s *ComplaintStore) setFields(ctx context.Context, id string, fields bson.M) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PushComment appends a comment to the embedded comments array.
func (s *ComplaintStore) PushComment(ctx context.Context, id string, cm domain.Comment) error {
	return s.push(ctx, id, "comments", cm)
}

// PushAdminNote appends an admin note to the embedded admin_notes array.
func (s *ComplaintStore) PushAdminNote(ctx context.Context, id string, note domain.AdminNote) error {
	return s.push(ctx, id, "admin_notes", note)
}

func (s *ComplaintStore) push(ctx context.Context, id, field string, doc any) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{field: doc}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyVote records one vote atomically. delta is +1 or -1; each vote also
// shifts priority_score by delta*0.5. When voter is non-empty, the update only
// matches documents whose voter set does not already contain it, so the
// membership check and the increments land in a single conditional operation.
//
// Returns the updated complaint, ErrDuplicateVote when the identified voter
// already voted, or ErrNotFound for unknown ids.
func (s *ComplaintStore) ApplyVote(ctx context.Context, id string, delta int, voter string) (*domain.Complaint, error) {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$inc": bson.M{
			"votes":          delta,
			"priority_score": float64(delta) * 0.5,
		},
	}
	if voter != "" {
		filter["voters"] = bson.M{"$ne": voter}
		update["$addToSet"] = bson.M{"voters": voter}
	}

	var updated domain.Complaint
	err := s.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// No match: either the id is unknown, or the voter filter excluded it.
	if voter != "" {
		if exists := s.col.FindOne(ctx, bson.M{"_id": id}).Err(); exists == nil {
			return nil, ErrDuplicateVote
		} else if !errors.Is(exists, mongo.ErrNoDocuments) {
			return nil, exists
		}
	}
	return nil, ErrNotFound
}

// Page runs a filtered, sorted, paginated listing and returns the page of
// complaints together with the total match count.
func (s *ComplaintStore) Page(ctx context.Context, q ComplaintQuery) ([]domain.Complaint, int64, error) {
	filter := buildComplaintFilter(q)

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	skip := int64(q.Page-1) * int64(q.PerPage)
	cur, err := s.col.Find(ctx, filter, options.Find().
		SetSort(buildComplaintSort(q.Sort)).
		SetSkip(skip).
		SetLimit(int64(q.PerPage)))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	items := make([]domain.Complaint, 0, q.PerPage)
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Analytics aggregates complaint counts: total, per category, and
// resolved versus pending.
func (s *ComplaintStore) Analytics(ctx context.Context) (*domain.AnalyticsSummary, error) {
	total, err := s.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	cur, err := s.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Category domain.Category `bson:"_id"`
		Count    int64           `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	byCategory := make(map[domain.Category]int64, len(rows))
	for _, row := range rows {
		byCategory[row.Category] = row.Count
	}

	resolved, err := s.col.CountDocuments(ctx, bson.M{"status": domain.StatusResolved})
	if err != nil {
		return nil, err
	}

	return &domain.AnalyticsSummary{
		TotalComplaints: total,
		CategoryCounts:  byCategory,
		ResolvedCount:   resolved,
		PendingCount:    total - resolved,
	}, nil
}
