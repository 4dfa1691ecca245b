package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check dashboard API health",
	Long: `Sends a health check request to the dashboard API and reports the server
status, its version, and how many tenants it is serving.`,
	RunE: runPing,
}

func runPing(cmd *cobra.Command, args []string) error {
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
	c := newClient(cfg, provider)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	health, err := c.Ping(ctx)
	latency := time.Since(start)
	if err != nil {
		printError("Dashboard API unreachable at %s: %v", cfg.APIBase, err)
		os.Exit(ExitNetworkError)
	}

	if cfgJSON {
		jsonOut, _ := json.MarshalIndent(struct {
			Status    string `json:"status"`
			Version   string `json:"version,omitempty"`
			Tenants   int    `json:"tenants,omitempty"`
			APIBase   string `json:"api_base"`
			LatencyMs int64  `json:"latency_ms"`
		}{
			Status:    health.Status,
			Version:   health.Version,
			Tenants:   health.Tenants,
			APIBase:   cfg.APIBase,
			LatencyMs: latency.Milliseconds(),
		}, "", "  ")
		printJSON(jsonOut)
		return nil
	}

	printSuccess("Dashboard API is healthy")
	printKeyValue("API base", cfg.APIBase)
	printKeyValue("Latency", latency.Round(time.Millisecond).String())
	if health.Status != "" {
		printKeyValue("Status", health.Status)
	}
	if health.Version != "" {
		printKeyValue("Version", health.Version)
	}
	if health.Tenants > 0 {
		printKeyValue("Tenants", fmt.Sprintf("%d", health.Tenants))
	}
	return nil
}
