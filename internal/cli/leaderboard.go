package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Short:   "Show the clipper leaderboard",
	Example: `  clipdash leaderboard --json`,
	RunE:    runLeaderboard,
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		printError(err.Error())
		os.Exit(ExitValidationError)
	}

	provider, err := newAuthProvider(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := newClient(cfg, provider)
	rows, rawJSON, err := c.Dashboard(ctx)
	if err != nil {
		printError("Failed to fetch leaderboard: %v", err)
		os.Exit(ExitNetworkError)
	}

	if cfgJSON {
		printJSON(rawJSON)
		return nil
	}

	printSection("Clipper leaderboard")
	for i, row := range rows {
		fmt.Fprintf(os.Stdout, "  %2d. %-20s %s  %3d videos  %12d views\n",
			i+1, row.ClipperName, row.Month, row.VideosPosted, row.ViewsGenerated)
	}
	return nil
}
