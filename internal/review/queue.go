// Package review implements the content approval queue: a server-owned
// snapshot of posted videos plus client-side selection and feedback drafts.
package review

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Status is the review state of a posted video.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Bucket groups queue rows by due status.
type Bucket string

const (
	BucketThisWeek Bucket = "THIS_WEEK"
	BucketOverdue  Bucket = "OVERDUE"
	BucketDone     Bucket = "DONE"
	BucketAll      Bucket = "ALL"
)

// Key uniquely identifies a queue row.
type Key struct {
	ClientID   string `json:"client_id"`
	Platform   string `json:"platform"`
	AccountKey string `json:"account_key"`
	VideoID    string `json:"video_id"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.ClientID, k.Platform, k.AccountKey, k.VideoID)
}

// Item is one row of the review queue.
type Item struct {
	Key
	Status   Status `json:"review_status"`
	Bucket   Bucket `json:"bucket"`
	Feedback string `json:"feedback_text"`
	Title    string `json:"title,omitempty"`
	Views    int64  `json:"views,omitempty"`
	PostedAt string `json:"posted_at,omitempty"`
	DueAt    string `json:"due_at,omitempty"`
}

// Counts are the per-bucket row counts reported by the server.
type Counts struct {
	ThisWeek int `json:"this_week"`
	Overdue  int `json:"overdue"`
	Done     int `json:"done"`
	All      int `json:"all"`
}

// Update is one review mutation in a batch submission.
type Update struct {
	Key
	Status     Status `json:"review_status"`
	Feedback   string `json:"feedback_text"`
	ReviewedBy string `json:"reviewed_by"`
}

// API is the remote review surface the queue talks to.
type API interface {
	FetchQueue(ctx context.Context, clientID string) ([]Item, Counts, error)
	SubmitReviews(ctx context.Context, updates []Update) error
}

// Filter narrows the visible rows. It never changes which rows are selected.
type Filter struct {
	Bucket   Bucket // BucketAll or empty shows everything
	Platform string // empty shows all platforms
	Search   string // case-insensitive match on account key, video id, title
}

// MissingFeedbackError reports rows blocking a bulk rejection.
type MissingFeedbackError struct {
	Keys []Key
}

func (e *MissingFeedbackError) Error() string {
	return fmt.Sprintf("rejection requires feedback: %d selected row(s) have none (first: %s)",
		len(e.Keys), e.Keys[0])
}

// Queue holds a read-only snapshot of the server queue alongside the local
// selection set and per-row feedback drafts.
type Queue struct {
	api API
	log *zap.Logger

	mu         sync.Mutex
	clientID   string
	rows       []Item
	counts     Counts
	selected   map[Key]struct{}
	feedback   map[Key]string
	fetchGen   uint64
	submitting bool
}

// NewQueue creates an empty queue bound to the given API.
func NewQueue(api API, log *zap.Logger) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{
		api:      api,
		log:      log,
		selected: make(map[Key]struct{}),
		feedback: make(map[Key]string),
	}
}

// Fetch replaces the snapshot with a fresh server response. The most
// recently initiated fetch wins; a superseded fetch's rows are discarded.
// Selection and feedback drafts are reconciled against the fresh rows:
// entries for keys the server no longer reports are dropped.
func (q *Queue) Fetch(ctx context.Context, clientID string) error {
	q.mu.Lock()
	q.fetchGen++
	gen := q.fetchGen
	q.clientID = clientID
	q.mu.Unlock()

	rows, counts, err := q.api.FetchQueue(ctx, clientID)

	q.mu.Lock()
	defer q.mu.Unlock()
	if gen != q.fetchGen {
		q.log.Debug("discarding stale queue fetch", zap.String("client_id", clientID))
		return nil
	}
	if err != nil {
		return err
	}
	q.rows = rows
	q.counts = counts

	present := make(map[Key]struct{}, len(rows))
	for _, row := range rows {
		present[row.Key] = struct{}{}
	}
	for k := range q.selected {
		if _, ok := present[k]; !ok {
			delete(q.selected, k)
		}
	}
	for k := range q.feedback {
		if _, ok := present[k]; !ok {
			delete(q.feedback, k)
		}
	}
	return nil
}

// Rows returns the current snapshot.
func (q *Queue) Rows() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Item, len(q.rows))
	copy(out, q.rows)
	return out
}

// Counts returns the per-bucket counts from the last fetch.
func (q *Queue) Counts() Counts {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.counts
}

// Visible returns the rows matching the filter. Rows selected under another
// filter stay selected; they are merely not visible here.
func (q *Queue) Visible(f Filter) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []Item
	search := strings.ToLower(strings.TrimSpace(f.Search))
	for _, row := range q.rows {
		if f.Bucket != "" && f.Bucket != BucketAll && row.Bucket != f.Bucket {
			continue
		}
		if f.Platform != "" && !strings.EqualFold(f.Platform, row.Platform) {
			continue
		}
		if search != "" && !matchesSearch(row, search) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func matchesSearch(row Item, search string) bool {
	return strings.Contains(strings.ToLower(row.AccountKey), search) ||
		strings.Contains(strings.ToLower(row.VideoID), search) ||
		strings.Contains(strings.ToLower(row.Title), search)
}

// Select adds a row key to the selection set.
func (q *Queue) Select(k Key) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.selected[k] = struct{}{}
}

// Deselect removes a row key from the selection set.
func (q *Queue) Deselect(k Key) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.selected, k)
}

// ClearSelection empties the selection set.
func (q *Queue) ClearSelection() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.selected = make(map[Key]struct{})
}

// Selected returns the selected keys in snapshot order; selected keys not in
// the snapshot (possible only between fetches) follow in unspecified order.
func (q *Queue) Selected() []Key {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Key, 0, len(q.selected))
	rest := make(map[Key]struct{}, len(q.selected))
	for k := range q.selected {
		rest[k] = struct{}{}
	}
	for _, row := range q.rows {
		if _, ok := rest[row.Key]; ok {
			out = append(out, row.Key)
			delete(rest, row.Key)
		}
	}
	for k := range rest {
		out = append(out, k)
	}
	return out
}

// SetFeedback records a feedback draft for a row.
func (q *Queue) SetFeedback(k Key, text string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.feedback[k] = text
}

// Feedback returns the feedback draft for a row.
func (q *Queue) Feedback(k Key) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.feedback[k]
}
