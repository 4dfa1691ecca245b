package cli

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arafta/clipdash/internal/identity"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show or switch the effective tenant",
	Long: `Shows the tenant this session reads and writes.

Managers can switch tenants with "env set"; the selection persists in
~/.clipdash/preferences.yaml. Client-role identities are locked to their
profile-assigned tenant and cannot switch.`,
	RunE: runEnvShow,
}

var envSetCmd = &cobra.Command{
	Use:   "set <tenant>",
	Short: "Switch the effective tenant (manager only)",
	Example: `  clipdash env set bongino
  clipdash env set ARAFTA   # stored normalized as "arafta"`,
	Args: cobra.ExactArgs(1),
	RunE: runEnvSet,
}

func init() {
	envCmd.AddCommand(envSetCmd)
}

type envInfo struct {
	ClientID  string `json:"client_id"`
	Role      string `json:"role"`
	IsManager bool   `json:"is_manager"`
}

func envContext() (*identity.Environment, identity.Identity, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, identity.Identity{}, err
	}
	if err := cfg.Validate(); err != nil {
		printError(err.Error())
		os.Exit(ExitValidationError)
	}

	provider, err := newAuthProvider(cfg)
	if err != nil {
		return nil, identity.Identity{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return resolveEnvironment(ctx, cfg, provider, newLogger(cfg))
}

func runEnvShow(cmd *cobra.Command, args []string) error {
	env, id, err := envContext()
	if err != nil {
		return err
	}

	info := envInfo{
		ClientID:  currentTenant(env),
		Role:      string(id.Role),
		IsManager: env.IsManager(),
	}

	if cfgJSON {
		jsonOut, _ := json.MarshalIndent(info, "", "  ")
		printJSON(jsonOut)
		return nil
	}

	printKeyValue("Tenant", info.ClientID)
	printKeyValue("Role", info.Role)
	if !info.IsManager {
		printDim("Tenant is locked to your profile; only managers can switch.")
	}
	return nil
}

func runEnvSet(cmd *cobra.Command, args []string) error {
	env, _, err := envContext()
	if err != nil {
		return err
	}

	if !env.IsManager() {
		printError("Only managers can switch tenants")
		os.Exit(ExitValidationError)
	}

	next := identity.NormalizeTenant(args[0])
	if next == "" {
		printError("Tenant id must not be empty")
		os.Exit(ExitValidationError)
	}

	if err := env.SetClientID(next); err != nil {
		printError("Failed to persist tenant selection: %v", err)
		os.Exit(ExitNetworkError)
	}

	printSuccess("Switched tenant to %s", currentTenant(env))
	return nil
}
