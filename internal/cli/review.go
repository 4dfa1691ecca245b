package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arafta/clipdash/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Work the content review queue",
	Long: `Commands for listing and approving/rejecting posted videos.

Rows are addressed as platform:account_key:video_id. Rejections require
feedback; a bulk rejection with any missing feedback sends nothing.`,
}

var (
	reviewTab      string
	reviewPlatform string
	reviewSearch   string
	reviewFeedback string
)

func init() {
	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewApproveCmd)
	reviewCmd.AddCommand(reviewRejectCmd)
}

// parseRowKey parses "platform:account_key:video_id" into a Key scoped to
// the given tenant.
func parseRowKey(clientID, arg string) (review.Key, error) {
	parts := strings.SplitN(arg, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return review.Key{}, fmt.Errorf("invalid row key %q (expected platform:account_key:video_id)", arg)
	}
	return review.Key{
		ClientID:   clientID,
		Platform:   strings.ToLower(parts[0]),
		AccountKey: parts[1],
		VideoID:    parts[2],
	}, nil
}

func fetchQueue(ctx context.Context) (*review.Queue, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		printError(err.Error())
		os.Exit(ExitValidationError)
	}

	provider, err := newAuthProvider(cfg)
	if err != nil {
		return nil, "", err
	}

	env, _, err := resolveEnvironment(ctx, cfg, provider, newLogger(cfg))
	if err != nil {
		return nil, "", err
	}
	tenant := currentTenant(env)

	queue := review.NewQueue(newClient(cfg, provider), newLogger(cfg))
	if err := queue.Fetch(ctx, tenant); err != nil {
		printError("Failed to fetch review queue: %v", err)
		os.Exit(ExitNetworkError)
	}
	return queue, tenant, nil
}

func reviewedBy(ctx context.Context) string {
	cfg, err := loadConfig()
	if err != nil {
		return ""
	}
	provider, err := newAuthProvider(cfg)
	if err != nil {
		return ""
	}
	sess, err := provider.GetSession(ctx)
	if err != nil || sess == nil {
		return ""
	}
	return sess.User.Email
}

// ============================================================================
// review list
// ============================================================================

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the review queue",
	Long: `Lists the effective tenant's review queue, optionally narrowed by bucket,
platform, or a search term. Filters only narrow what is shown.`,
	Example: `  clipdash review list
  clipdash review list --tab overdue
  clipdash review list --platform tiktok --search podcast`,
	RunE: runReviewList,
}

func init() {
	reviewListCmd.Flags().StringVar(&reviewTab, "tab", "all", "Bucket: this_week, overdue, done, all")
	reviewListCmd.Flags().StringVar(&reviewPlatform, "platform", "", "Platform filter")
	reviewListCmd.Flags().StringVar(&reviewSearch, "search", "", "Search account keys, video ids, titles")
}

func parseBucket(tab string) (review.Bucket, error) {
	switch strings.ToLower(strings.TrimSpace(tab)) {
	case "", "all":
		return review.BucketAll, nil
	case "this_week", "this-week":
		return review.BucketThisWeek, nil
	case "overdue":
		return review.BucketOverdue, nil
	case "done":
		return review.BucketDone, nil
	default:
		return "", fmt.Errorf("invalid tab %q (expected this_week, overdue, done, or all)", tab)
	}
}

func runReviewList(cmd *cobra.Command, args []string) error {
	bucket, err := parseBucket(reviewTab)
	if err != nil {
		printError(err.Error())
		os.Exit(ExitValidationError)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	queue, tenant, err := fetchQueue(ctx)
	if err != nil {
		return err
	}

	rows := queue.Visible(review.Filter{
		Bucket:   bucket,
		Platform: reviewPlatform,
		Search:   reviewSearch,
	})
	counts := queue.Counts()

	if cfgJSON {
		jsonOut, _ := json.MarshalIndent(map[string]any{
			"rows":   rows,
			"counts": counts,
		}, "", "  ")
		printJSON(jsonOut)
		return nil
	}

	printSection(fmt.Sprintf("Review queue (%s)", tenant))
	printDim("this_week: %d | overdue: %d | done: %d | all: %d",
		counts.ThisWeek, counts.Overdue, counts.Done, counts.All)
	if len(rows) == 0 {
		printInfo("No rows match.")
		return nil
	}
	for _, row := range rows {
		fmt.Fprintf(os.Stdout, "  %-9s %-10s %-20s %-38s %8d views  %s\n",
			row.Status, row.Bucket, row.AccountKey, row.VideoID, row.Views, row.Title)
	}
	return nil
}

// ============================================================================
// review approve / reject
// ============================================================================

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <row>...",
	Short: "Approve one or more rows",
	Long: `Approves the given rows as one batch, then re-fetches the queue.`,
	Example: `  clipdash review approve tiktok:clips.daily:4f7c...
  clipdash review approve tiktok:clips.daily:4f7c... instagram:arafta.moments:91ab...`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReviewApprove,
}

var reviewRejectCmd = &cobra.Command{
	Use:   "reject <row>...",
	Short: "Reject one or more rows (feedback required)",
	Long: `Rejects the given rows as one batch. The feedback text applies to every
row in the batch and is required: without it, nothing is sent.`,
	Example: `  clipdash review reject tiktok:clips.daily:4f7c... --feedback "Missing watermark"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReviewReject,
}

func init() {
	reviewRejectCmd.Flags().StringVar(&reviewFeedback, "feedback", "", "Feedback text for the rejected rows (required)")
}

func runReviewApprove(cmd *cobra.Command, args []string) error {
	return runReviewSubmit(args, review.StatusApproved, "")
}

func runReviewReject(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(reviewFeedback) == "" {
		printError("Rejection requires --feedback; no request was sent")
		os.Exit(ExitValidationError)
	}
	return runReviewSubmit(args, review.StatusRejected, reviewFeedback)
}

func runReviewSubmit(args []string, status review.Status, feedback string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	queue, tenant, err := fetchQueue(ctx)
	if err != nil {
		return err
	}

	known := make(map[review.Key]bool)
	for _, row := range queue.Rows() {
		known[row.Key] = true
	}
	for _, arg := range args {
		key, err := parseRowKey(tenant, arg)
		if err != nil {
			printError(err.Error())
			os.Exit(ExitValidationError)
		}
		if !known[key] {
			printError("Row %s is not in the current queue; no request was sent", key)
			os.Exit(ExitValidationError)
		}
		queue.Select(key)
		if feedback != "" {
			queue.SetFeedback(key, feedback)
		}
	}

	if err := queue.SubmitSelected(ctx, status, reviewedBy(ctx)); err != nil {
		var missing *review.MissingFeedbackError
		if errors.As(err, &missing) {
			printError("%v; no request was sent", missing)
			os.Exit(ExitValidationError)
		}
		printError("Submission failed: %v", err)
		os.Exit(ExitNetworkError)
	}

	printSuccess("%s %d row(s) for %s", pastTense(status), len(args), tenant)
	return nil
}

func pastTense(status review.Status) string {
	switch status {
	case review.StatusApproved:
		return "Approved"
	case review.StatusRejected:
		return "Rejected"
	default:
		return "Updated"
	}
}
