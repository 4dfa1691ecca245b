package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrNothingSelected is returned when a bulk submission has no rows.
var ErrNothingSelected = errors.New("review: no rows selected")

// ErrSubmitInFlight is returned when a submission is already running.
var ErrSubmitInFlight = errors.New("review: submission already in flight")

// SubmitSelected applies a status to every selected row as one batch.
// Rejections require every selected row to already carry non-empty feedback;
// a single missing entry aborts the batch before any request is sent.
// After a successful submission the queue is re-fetched in full — the server
// is the sole source of truth for bucket and status after a mutation.
func (q *Queue) SubmitSelected(ctx context.Context, status Status, reviewedBy string) error {
	q.mu.Lock()
	if q.submitting {
		q.mu.Unlock()
		return ErrSubmitInFlight
	}
	keys := make([]Key, 0, len(q.selected))
	for _, row := range q.rows {
		if _, ok := q.selected[row.Key]; ok {
			keys = append(keys, row.Key)
		}
	}
	if len(keys) == 0 {
		q.mu.Unlock()
		return ErrNothingSelected
	}

	updates := make([]Update, 0, len(keys))
	var missing []Key
	for _, k := range keys {
		feedback := strings.TrimSpace(q.feedback[k])
		if status == StatusRejected && feedback == "" {
			missing = append(missing, k)
			continue
		}
		updates = append(updates, Update{
			Key:        k,
			Status:     status,
			Feedback:   feedback,
			ReviewedBy: reviewedBy,
		})
	}
	if len(missing) > 0 {
		q.mu.Unlock()
		return &MissingFeedbackError{Keys: missing}
	}
	q.submitting = true
	clientID := q.clientID
	q.mu.Unlock()

	err := q.api.SubmitReviews(ctx, updates)

	q.mu.Lock()
	q.submitting = false
	q.mu.Unlock()
	if err != nil {
		return err
	}

	q.log.Info("submitted review batch",
		zap.String("client_id", clientID),
		zap.String("status", string(status)),
		zap.Int("rows", len(updates)),
	)
	q.ClearSelection()
	return q.Fetch(ctx, clientID)
}

// SubmitOne applies a status to a single row, then re-fetches the queue.
// Rejection without feedback is refused before any request is sent.
func (q *Queue) SubmitOne(ctx context.Context, k Key, status Status, feedback, reviewedBy string) error {
	feedback = strings.TrimSpace(feedback)
	if status == StatusRejected && feedback == "" {
		return fmt.Errorf("review: rejecting %s requires feedback text", k)
	}

	q.mu.Lock()
	if q.submitting {
		q.mu.Unlock()
		return ErrSubmitInFlight
	}
	q.submitting = true
	clientID := q.clientID
	q.mu.Unlock()

	err := q.api.SubmitReviews(ctx, []Update{{
		Key:        k,
		Status:     status,
		Feedback:   feedback,
		ReviewedBy: reviewedBy,
	}})

	q.mu.Lock()
	q.submitting = false
	q.mu.Unlock()
	if err != nil {
		return err
	}
	return q.Fetch(ctx, clientID)
}
