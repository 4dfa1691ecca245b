package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "View audience analytics",
}

var (
	analyticsPlatform string
	analyticsSpan     string
)

var analyticsLocationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "Show audience locations for the effective tenant",
	Example: `  clipdash analytics locations
  clipdash analytics locations --platform tiktok --span 28d`,
	RunE: runAnalyticsLocations,
}

func init() {
	analyticsCmd.AddCommand(analyticsLocationsCmd)
	analyticsLocationsCmd.Flags().StringVar(&analyticsPlatform, "platform", "", "Platform filter")
	analyticsLocationsCmd.Flags().StringVar(&analyticsSpan, "span", "", "Engagement span (e.g. 7d, 28d)")
}

func runAnalyticsLocations(cmd *cobra.Command, args []string) error {
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

	env, _, err := resolveEnvironment(ctx, cfg, provider, newLogger(cfg))
	if err != nil {
		return err
	}
	tenant := currentTenant(env)

	c := newClient(cfg, provider)
	loc, rawJSON, err := c.Locations(ctx, tenant, analyticsPlatform, analyticsSpan)
	if err != nil {
		printError("Failed to fetch locations: %v", err)
		os.Exit(ExitNetworkError)
	}

	if cfgJSON {
		printJSON(rawJSON)
		return nil
	}

	printSection(fmt.Sprintf("Audience locations (%s)", tenant))
	printKeyValue("Total views", fmt.Sprintf("%.0f", loc.TotalViews))
	for _, row := range loc.Rows {
		fmt.Fprintf(os.Stdout, "  %-4s %6.1f%%  %12.0f weighted views\n",
			row.Country, row.OverallPct, row.WeightedViews)
	}
	return nil
}
