// Query composition for the complaints collection.
//
// The filter and sort builders are pure so the translation from API query
// parameters to store operators can be tested without a running MongoDB.
package repo

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Sort options accepted by ComplaintQuery. Anything else falls back to newest.
const (
	SortNewest          = "newest"
	SortOldest          = "oldest"
	SortHighestPriority = "highest_priority"
	SortMostVotes       = "most_votes"
)

// ComplaintQuery describes a filtered, sorted, paginated listing. Zero values
// mean "no filter". Status accepts a single value or a comma-separated set.
// The "All" sentinel on Category/Status disables that filter (the admin UI
// sends it for the unfiltered tabs).
type ComplaintQuery struct {
	Category    string
	Status      string
	Search      string
	SubmittedBy string
	Sort        string
	Page        int
	PerPage     int
}

// buildComplaintFilter translates q into a MongoDB filter document.
func buildComplaintFilter(q ComplaintQuery) bson.M {
	filter := bson.M{}
	if q.Category != "" && q.Category != "All" {
		filter["category"] = q.Category
	}
	if q.Status != "" && q.Status != "All" {
		if strings.Contains(q.Status, ",") {
			parts := strings.Split(q.Status, ",")
			statuses := make([]string, 0, len(parts))
			for _, p := range parts {
				if t := strings.TrimSpace(p); t != "" {
					statuses = append(statuses, t)
				}
			}
			filter["status"] = bson.M{"$in": statuses}
		} else {
			filter["status"] = q.Status
		}
	}
	if q.Search != "" {
		filter["$text"] = bson.M{"$search": q.Search}
	}
	if q.SubmittedBy != "" {
		filter["submitted_by"] = q.SubmittedBy
	}
	return filter
}

// buildComplaintSort translates a sort option into a MongoDB sort document
// with deterministic tie-breaks:
//   - highest_priority: priority desc, then votes desc, then newest first
//   - most_votes: votes desc, then newest first
//   - oldest / newest: creation time asc / desc
func buildComplaintSort(sort string) bson.D {
	switch sort {
	case SortOldest:
		return bson.D{{Key: "timestamp", Value: 1}}
	case SortHighestPriority:
		return bson.D{
			{Key: "priority_score", Value: -1},
			{Key: "votes", Value: -1},
			{Key: "timestamp", Value: -1},
		}
	case SortMostVotes:
		return bson.D{
			{Key: "votes", Value: -1},
			{Key: "timestamp", Value: -1},
		}
	default:
		return bson.D{{Key: "timestamp", Value: -1}}
	}
}
