package cli

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
	loginCode     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the dashboard",
	Long: `Signs in through the managed auth backend and caches the session locally.

Either email/password credentials or an OAuth authorization code can be used.`,
	Example: `  clipdash login --email manager@arafta.io --password secret
  clipdash login --code <authorization-code>`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	loginCmd.Flags().StringVar(&loginCode, "code", "", "OAuth authorization code")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForAuth(); err != nil {
		printError(err.Error())
		os.Exit(ExitValidationError)
	}
	if loginCode == "" && (loginEmail == "" || loginPassword == "") {
		printError("Either --code or both --email and --password are required")
		os.Exit(ExitValidationError)
	}

	provider, err := newAuthProvider(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var signInErr error
	if loginCode != "" {
		_, signInErr = provider.ExchangeCodeForSession(ctx, loginCode)
	} else {
		_, signInErr = provider.SignInWithPassword(ctx, loginEmail, loginPassword)
	}
	if signInErr != nil {
		printError("Sign-in failed: %v", signInErr)
		os.Exit(ExitNetworkError)
	}

	log := newLogger(cfg)
	env, id, err := resolveEnvironment(ctx, cfg, provider, log)
	if err != nil {
		return err
	}

	printSuccess("Signed in as %s", id.Email)
	printKeyValue("Role", string(id.Role))
	printKeyValue("Tenant", currentTenant(env))
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the cached session",
	RunE:  runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForAuth(); err != nil {
		printError(err.Error())
		os.Exit(ExitValidationError)
	}

	provider, err := newAuthProvider(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := provider.SignOut(ctx); err != nil {
		// The local session is cleared regardless.
		printWarn("Server-side sign-out failed: %v", err)
	}
	printSuccess("Signed out")
	return nil
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the resolved identity and effective tenant",
	RunE:  runWhoami,
}

type whoamiInfo struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	ClientID  string `json:"client_id"`
	IsManager bool   `json:"is_manager"`
	SignedIn  bool   `json:"signed_in"`
}

func runWhoami(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForAuth(); err != nil {
		printError(err.Error())
		os.Exit(ExitValidationError)
	}

	provider, err := newAuthProvider(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	session, err := provider.GetSession(ctx)
	if err != nil {
		printError("Failed to read session: %v", err)
		os.Exit(ExitNetworkError)
	}

	log := newLogger(cfg)
	env, id, err := resolveEnvironment(ctx, cfg, provider, log)
	if err != nil {
		return err
	}

	info := whoamiInfo{
		Email:     id.Email,
		Role:      string(id.Role),
		ClientID:  currentTenant(env),
		IsManager: env.IsManager(),
		SignedIn:  session != nil,
	}

	if cfgJSON {
		jsonOut, _ := json.MarshalIndent(info, "", "  ")
		printJSON(jsonOut)
		return nil
	}

	if !info.SignedIn {
		printWarn("Not signed in; operating with least-privilege defaults")
	}
	printKeyValue("Email", info.Email)
	printKeyValue("Role", info.Role)
	printKeyValue("Tenant", info.ClientID)
	return nil
}
