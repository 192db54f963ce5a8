// Package services – ActivityService
//
// The activity feed is a best-effort side channel: logging an entry must never
// fail the primary operation that triggered it, so Log swallows store errors
// after recording them. Reads annotate each entry with a relative-age label
// computed at query time; the label is never stored.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/civitracker/go-complaints-backend/internal/domain"
)

// RecentActivityLimit is the feed depth served to clients.
const RecentActivityLimit = 10

// ActivityStore defines the persistence contract required by ActivityService.
type ActivityStore interface {
	// Append inserts one feed entry.
	Append(ctx context.Context, entry domain.ActivityEntry) error
	// Recent returns the n newest entries in descending time order.
	Recent(ctx context.Context, n int) ([]domain.ActivityEntry, error)
}

// ActivityService owns the append-only activity feed.
type ActivityService struct {
	Store ActivityStore

	// now is a clock seam for tests; defaults to time.Now.
	now func() time.Time
}

// NewActivityService constructs an ActivityService over store.
func NewActivityService(store ActivityStore) *ActivityService {
	return &ActivityService{Store: store, now: time.Now}
}

// Log appends an entry with a server-assigned id and timestamp. Failures are
// logged and swallowed: the feed is advisory and must not break complaints.
func (s *ActivityService) Log(ctx context.Context, entryType, message string) {
	entry := domain.ActivityEntry{
		ID:        uuid.NewString(),
		Type:      entryType,
		Message:   message,
		CreatedAt: s.clock()().UTC(),
	}
	if err := s.Store.Append(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("type", entryType).
			Msg("activity log append failed")
	}
}

// Entry is an activity feed item annotated with its relative age.
type Entry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"timestamp"`
	TimeAgo   string    `json:"time_ago"`
}

// Recent returns the 10 newest feed entries, newest first, each carrying a
// time_ago label bucketed as: just now (<60s), minutes (<1h), hours (<24h),
// otherwise days. Singular and plural wording follow the unit count.
func (s *ActivityService) Recent(ctx context.Context) ([]Entry, error) {
	entries, err := s.Store.Recent(ctx, RecentActivityLimit)
	if err != nil {
		return nil, err
	}
	now := s.clock()().UTC()
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, Entry{
			ID:        e.ID,
			Type:      e.Type,
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
			TimeAgo:   relativeAge(now.Sub(e.CreatedAt)),
		})
	}
	return out, nil
}

// clock returns the service clock, defaulting to time.Now for zero-value use.
func (s *ActivityService) clock() func() time.Time {
	if s.now != nil {
		return s.now
	}
	return time.Now
}

// relativeAge buckets an elapsed duration into the feed's human label.
func relativeAge(d time.Duration) string {
	secs := d.Seconds()
	switch {
	case secs < 60:
		return "just now"
	case secs < 3600:
		return pluralAge(int(secs/60), "minute")
	case secs < 86400:
		return pluralAge(int(secs/3600), "hour")
	default:
		return pluralAge(int(secs/86400), "day")
	}
}

func pluralAge(n int, unit string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss ago", n, unit)
	}
	return fmt.Sprintf("%d %s ago", n, unit)
}
