package review

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fakeAPI is a scriptable review backend that counts every request.
type fakeAPI struct {
	mu          sync.Mutex
	rows        []Item
	counts      Counts
	fetchErr    error
	submitErr   error
	fetchCalls  int
	submitCalls int
	submitted   [][]Update
}

func (f *fakeAPI) FetchQueue(ctx context.Context, clientID string) ([]Item, Counts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, Counts{}, f.fetchErr
	}
	rows := make([]Item, len(f.rows))
	copy(rows, f.rows)
	return rows, f.counts, nil
}

func (f *fakeAPI) SubmitReviews(ctx context.Context, updates []Update) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, updates)
	return nil
}

func key(platform, account, video string) Key {
	return Key{ClientID: "bongino", Platform: platform, AccountKey: account, VideoID: video}
}

func pendingItem(k Key, bucket Bucket, title string) Item {
	return Item{Key: k, Status: StatusPending, Bucket: bucket, Title: title}
}

func newTestQueue(t *testing.T, api *fakeAPI) *Queue {
	t.Helper()
	q := NewQueue(api, nil)
	if err := q.Fetch(context.Background(), "bongino"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	return q
}

func TestFetchPopulatesSnapshot(t *testing.T) {
	api := &fakeAPI{
		rows: []Item{
			pendingItem(key("instagram", "acct1", "v1"), BucketThisWeek, "clip one"),
			pendingItem(key("tiktok", "acct2", "v2"), BucketOverdue, "clip two"),
		},
		counts: Counts{ThisWeek: 1, Overdue: 1, All: 2},
	}
	q := newTestQueue(t, api)

	if got := len(q.Rows()); got != 2 {
		t.Errorf("rows = %d, want 2", got)
	}
	if got := q.Counts(); got != api.counts {
		t.Errorf("counts = %+v, want %+v", got, api.counts)
	}
}

func TestVisibleFilters(t *testing.T) {
	api := &fakeAPI{rows: []Item{
		pendingItem(key("instagram", "acct1", "v1"), BucketThisWeek, "summer clip"),
		pendingItem(key("tiktok", "acct2", "v2"), BucketOverdue, "winter clip"),
		pendingItem(key("instagram", "acct3", "v3"), BucketDone, "done clip"),
	}}
	q := newTestQueue(t, api)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{name: "no filter shows all", filter: Filter{}, want: 3},
		{name: "bucket all shows all", filter: Filter{Bucket: BucketAll}, want: 3},
		{name: "bucket this week", filter: Filter{Bucket: BucketThisWeek}, want: 1},
		{name: "platform", filter: Filter{Platform: "Instagram"}, want: 2},
		{name: "search title", filter: Filter{Search: "WINTER"}, want: 1},
		{name: "search account", filter: Filter{Search: "acct3"}, want: 1},
		{name: "combined", filter: Filter{Bucket: BucketOverdue, Platform: "tiktok"}, want: 1},
		{name: "no match", filter: Filter{Search: "nope"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(q.Visible(tt.filter)); got != tt.want {
				t.Errorf("visible = %d, want %d", got, tt.want)
			}
		})
	}
}

// Selection is independent of the active filter: hiding a selected row does
// not deselect it.
func TestSelectionSurvivesFilterChange(t *testing.T) {
	k1 := key("instagram", "acct1", "v1")
	k2 := key("tiktok", "acct2", "v2")
	api := &fakeAPI{rows: []Item{
		pendingItem(k1, BucketThisWeek, ""),
		pendingItem(k2, BucketOverdue, ""),
	}}
	q := newTestQueue(t, api)

	q.Select(k1)
	q.Select(k2)

	// Narrow to a filter that hides k1 entirely.
	visible := q.Visible(Filter{Bucket: BucketOverdue})
	if len(visible) != 1 || visible[0].Key != k2 {
		t.Fatalf("visible = %+v", visible)
	}
	if got := len(q.Selected()); got != 2 {
		t.Errorf("selected = %d, want 2 after filter change", got)
	}
}

func TestFetchReconcilesSelectionAndFeedback(t *testing.T) {
	k1 := key("instagram", "acct1", "v1")
	k2 := key("tiktok", "acct2", "v2")
	api := &fakeAPI{rows: []Item{
		pendingItem(k1, BucketThisWeek, ""),
		pendingItem(k2, BucketOverdue, ""),
	}}
	q := newTestQueue(t, api)

	q.Select(k1)
	q.Select(k2)
	q.SetFeedback(k1, "too long")
	q.SetFeedback(k2, "wrong aspect ratio")

	// The server dropped k1 from the queue.
	api.mu.Lock()
	api.rows = []Item{pendingItem(k2, BucketOverdue, "")}
	api.mu.Unlock()
	if err := q.Fetch(context.Background(), "bongino"); err != nil {
		t.Fatal(err)
	}

	selected := q.Selected()
	if len(selected) != 1 || selected[0] != k2 {
		t.Errorf("selected = %v, want only %v", selected, k2)
	}
	if got := q.Feedback(k1); got != "" {
		t.Errorf("feedback for dropped row kept: %q", got)
	}
	if got := q.Feedback(k2); got != "wrong aspect ratio" {
		t.Errorf("feedback for surviving row = %q", got)
	}
}

func TestFetchErrorKeepsSnapshot(t *testing.T) {
	k1 := key("instagram", "acct1", "v1")
	api := &fakeAPI{rows: []Item{pendingItem(k1, BucketThisWeek, "")}}
	q := newTestQueue(t, api)
	q.Select(k1)

	api.mu.Lock()
	api.fetchErr = errors.New("backend down")
	api.mu.Unlock()

	if err := q.Fetch(context.Background(), "bongino"); err == nil {
		t.Fatal("Fetch succeeded against failing backend")
	}
	if len(q.Rows()) != 1 {
		t.Error("snapshot lost on failed fetch")
	}
	if len(q.Selected()) != 1 {
		t.Error("selection lost on failed fetch")
	}
}

func TestSubmitSelectedApprove(t *testing.T) {
	k1 := key("instagram", "acct1", "v1")
	k2 := key("tiktok", "acct2", "v2")
	api := &fakeAPI{rows: []Item{
		pendingItem(k1, BucketThisWeek, ""),
		pendingItem(k2, BucketOverdue, ""),
	}}
	q := newTestQueue(t, api)
	q.Select(k1)
	q.Select(k2)

	if err := q.SubmitSelected(context.Background(), StatusApproved, "manager@arafta.io"); err != nil {
		t.Fatalf("SubmitSelected: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.submitCalls != 1 {
		t.Fatalf("submit calls = %d, want 1", api.submitCalls)
	}
	batch := api.submitted[0]
	if len(batch) != 2 {
		t.Fatalf("batch size = %d, want 2", len(batch))
	}
	for _, u := range batch {
		if u.Status != StatusApproved || u.ReviewedBy != "manager@arafta.io" {
			t.Errorf("update = %+v", u)
		}
	}
	// One initial fetch plus the post-submit refresh.
	if api.fetchCalls != 2 {
		t.Errorf("fetch calls = %d, want 2 (queue re-fetched after mutation)", api.fetchCalls)
	}
}

// A bulk rejection with any selected row missing feedback sends nothing.
func TestSubmitSelectedRejectAllOrNothing(t *testing.T) {
	k1 := key("instagram", "acct1", "v1")
	k2 := key("tiktok", "acct2", "v2")
	api := &fakeAPI{rows: []Item{
		pendingItem(k1, BucketThisWeek, ""),
		pendingItem(k2, BucketOverdue, ""),
	}}
	q := newTestQueue(t, api)
	q.Select(k1)
	q.Select(k2)
	q.SetFeedback(k1, "watermark missing")
	q.SetFeedback(k2, "   ") // whitespace only counts as missing

	err := q.SubmitSelected(context.Background(), StatusRejected, "manager@arafta.io")
	var missing *MissingFeedbackError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingFeedbackError", err)
	}
	if len(missing.Keys) != 1 || missing.Keys[0] != k2 {
		t.Errorf("missing keys = %v, want [%v]", missing.Keys, k2)
	}
	api.mu.Lock()
	if api.submitCalls != 0 {
		t.Errorf("submit calls = %d, want 0 (batch must abort before any request)", api.submitCalls)
	}
	api.mu.Unlock()
	// Selection is untouched so the operator can fix and retry.
	if len(q.Selected()) != 2 {
		t.Error("selection cleared on aborted batch")
	}

	// With feedback supplied the full batch goes through once.
	q.SetFeedback(k2, "audio out of sync")
	if err := q.SubmitSelected(context.Background(), StatusRejected, "manager@arafta.io"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if api.submitCalls != 1 || len(api.submitted[0]) != 2 {
		t.Errorf("submit calls = %d, batch = %v", api.submitCalls, api.submitted)
	}
}

func TestSubmitSelectedEmpty(t *testing.T) {
	api := &fakeAPI{rows: []Item{pendingItem(key("instagram", "a", "v"), BucketThisWeek, "")}}
	q := newTestQueue(t, api)

	if err := q.SubmitSelected(context.Background(), StatusApproved, "x"); !errors.Is(err, ErrNothingSelected) {
		t.Errorf("err = %v, want ErrNothingSelected", err)
	}
}

func TestSubmitSelectedClearsSelectionOnSuccess(t *testing.T) {
	k1 := key("instagram", "acct1", "v1")
	api := &fakeAPI{rows: []Item{pendingItem(k1, BucketThisWeek, "")}}
	q := newTestQueue(t, api)
	q.Select(k1)

	if err := q.SubmitSelected(context.Background(), StatusApproved, "x"); err != nil {
		t.Fatal(err)
	}
	if len(q.Selected()) != 0 {
		t.Error("selection survived a successful submission")
	}
}

func TestSubmitSelectedErrorKeepsSelection(t *testing.T) {
	k1 := key("instagram", "acct1", "v1")
	api := &fakeAPI{
		rows:      []Item{pendingItem(k1, BucketThisWeek, "")},
		submitErr: errors.New("boom"),
	}
	q := newTestQueue(t, api)
	q.Select(k1)

	if err := q.SubmitSelected(context.Background(), StatusApproved, "x"); err == nil {
		t.Fatal("SubmitSelected succeeded against failing backend")
	}
	if len(q.Selected()) != 1 {
		t.Error("selection lost on failed submission")
	}
}

func TestSubmitOneRejectRequiresFeedback(t *testing.T) {
	k1 := key("instagram", "acct1", "v1")
	api := &fakeAPI{rows: []Item{pendingItem(k1, BucketThisWeek, "")}}
	q := newTestQueue(t, api)

	if err := q.SubmitOne(context.Background(), k1, StatusRejected, "  ", "x"); err == nil {
		t.Fatal("rejection without feedback accepted")
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if api.submitCalls != 0 {
		t.Errorf("submit calls = %d, want 0", api.submitCalls)
	}
}

func TestKeyString(t *testing.T) {
	k := Key{ClientID: "bongino", Platform: "tiktok", AccountKey: "acct", VideoID: "vid"}
	if got, want := k.String(), "bongino/tiktok/acct/vid"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
