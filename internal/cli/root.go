// Package cli implements the clipdash CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arafta/clipdash/internal/auth"
	"github.com/arafta/clipdash/internal/client"
	"github.com/arafta/clipdash/internal/config"
	"github.com/arafta/clipdash/internal/identity"
)

var (
	// Global flags
	cfgAPIBase  string
	cfgAuthBase string
	cfgAuthKey  string
	cfgTrace    bool
	cfgJSON     bool
	cfgVerbose  bool

	// Colors for output
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitNetworkError    = 2
)

// RootCmd is the root command for the clipdash CLI.
var RootCmd = &cobra.Command{
	Use:   "clipdash",
	Short: "clipdash - Admin CLI for the clipping payout dashboard",
	Long: `clipdash manages a clipping program from the terminal.

It signs in through the managed auth backend, resolves your role and tenant,
and lets managers switch tenants, edit payout/campaign settings, and work
the content review queue.

Configuration can be provided via:
  - Command-line flags (highest priority)
  - Environment variables (CLIPDASH_API_BASE, CLIPDASH_AUTH_BASE, CLIPDASH_AUTH_KEY)
  - Config file (~/.clipdash/config.yaml)`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgAPIBase, "api-base", "", "Dashboard API base URL (default: http://localhost:8080)")
	RootCmd.PersistentFlags().StringVar(&cfgAuthBase, "auth-base", "", "Auth backend base URL (default: http://localhost:8080)")
	RootCmd.PersistentFlags().StringVar(&cfgAuthKey, "auth-key", "", "Publishable auth API key")
	RootCmd.PersistentFlags().BoolVar(&cfgTrace, "trace", false, "Print HTTP request/response metadata")
	RootCmd.PersistentFlags().BoolVar(&cfgJSON, "json", false, "Output raw JSON response")
	RootCmd.PersistentFlags().BoolVar(&cfgVerbose, "verbose", false, "Enable debug logging")

	RootCmd.AddCommand(loginCmd)
	RootCmd.AddCommand(logoutCmd)
	RootCmd.AddCommand(whoamiCmd)
	RootCmd.AddCommand(envCmd)
	RootCmd.AddCommand(settingsCmd)
	RootCmd.AddCommand(reviewCmd)
	RootCmd.AddCommand(analyticsCmd)
	RootCmd.AddCommand(leaderboardCmd)
	RootCmd.AddCommand(pingCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		printError(err.Error())
		os.Exit(ExitNetworkError)
	}
}

// loadConfig loads configuration with flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if cfgAPIBase != "" {
		cfg.APIBase = cfgAPIBase
	}
	if cfgAuthBase != "" {
		cfg.AuthBase = cfgAuthBase
	}
	if cfgAuthKey != "" {
		cfg.AuthKey = cfgAuthKey
	}
	cfg.Trace = cfgTrace
	cfg.JSON = cfgJSON
	cfg.Verbose = cfgVerbose

	return cfg, nil
}

// newLogger builds the CLI logger: silent unless --verbose.
func newLogger(cfg *config.Config) *zap.Logger {
	if !cfg.Verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// newAuthProvider creates the auth provider with the on-disk session cache.
func newAuthProvider(cfg *config.Config) (*auth.HTTPProvider, error) {
	sessionPath, err := config.SessionPath()
	if err != nil {
		return nil, err
	}
	return auth.NewHTTPProvider(auth.HTTPConfig{
		BaseURL:     cfg.AuthBase,
		APIKey:      cfg.AuthKey,
		SessionFile: sessionPath,
	})
}

// newClient creates a new API client from config, authenticated by the
// provider's current session.
func newClient(cfg *config.Config, provider auth.Provider) *client.Client {
	opts := []client.Option{
		client.WithToken(sessionToken(provider)),
	}
	if cfg.Trace {
		opts = append(opts, client.WithTrace(os.Stderr))
	}
	return client.New(cfg, opts...)
}

func sessionToken(provider auth.Provider) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		sess, err := provider.GetSession(ctx)
		if err != nil || sess == nil {
			return "", err
		}
		return sess.AccessToken, nil
	}
}

// resolveEnvironment wires the role and environment resolvers: profile store
// over the API, identity tracker driven by the provider's session, and the
// durable manager preference file.
func resolveEnvironment(ctx context.Context, cfg *config.Config, provider auth.Provider, log *zap.Logger) (*identity.Environment, identity.Identity, error) {
	profiles, err := auth.NewHTTPProfileStore(cfg.APIBase, sessionToken(provider))
	if err != nil {
		return nil, identity.Identity{}, err
	}

	tracker := identity.NewTracker(profiles, log)
	session, err := provider.GetSession(ctx)
	if err != nil {
		log.Warn("session retrieval failed, using least-privilege defaults", zap.Error(err))
		session = nil
	}
	id := tracker.Apply(ctx, session)

	prefsPath, err := config.PreferencesPath()
	if err != nil {
		return nil, identity.Identity{}, err
	}
	env, err := identity.NewEnvironment(tracker, identity.NewFilePrefStore(prefsPath))
	if err != nil {
		return nil, identity.Identity{}, err
	}
	return env, id, nil
}

// currentTenant resolves the effective tenant id or exits with a clear error.
func currentTenant(env *identity.Environment) string {
	clientID, ok := env.ClientID()
	if !ok {
		printError("Role resolution is still pending; try again")
		os.Exit(ExitNetworkError)
	}
	return clientID
}

// Output helpers

func printSuccess(format string, args ...interface{}) {
	if cfgJSON {
		return
	}
	successColor.Fprintf(os.Stdout, "✓ "+format+"\n", args...)
}

func printError(format string, args ...interface{}) {
	errorColor.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

func printWarn(format string, args ...interface{}) {
	if cfgJSON {
		return
	}
	warnColor.Fprintf(os.Stderr, "⚠ "+format+"\n", args...)
}

func printInfo(format string, args ...interface{}) {
	if cfgJSON {
		return
	}
	infoColor.Fprintf(os.Stdout, format+"\n", args...)
}

func printDim(format string, args ...interface{}) {
	if cfgJSON {
		return
	}
	dimColor.Fprintf(os.Stdout, format+"\n", args...)
}

func printJSON(data []byte) {
	fmt.Fprintln(os.Stdout, string(data))
}

func printKeyValue(key, value string) {
	if cfgJSON {
		return
	}
	fmt.Fprintf(os.Stdout, "  %-22s %s\n", key+":", value)
}

func printSection(title string) {
	if cfgJSON {
		return
	}
	fmt.Fprintf(os.Stdout, "\n%s\n", infoColor.Sprint(title))
}
