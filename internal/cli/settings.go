package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arafta/clipdash/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage tenant settings",
	Long: `Commands for pulling, validating, and pushing a tenant's settings document.

The settings document holds branding, campaign metadata, and the per-platform
payout rules. Saves always transmit the complete normalized document.`,
}

var (
	settingsOut  string
	settingsFile string
)

func init() {
	settingsCmd.AddCommand(settingsPullCmd)
	settingsCmd.AddCommand(settingsPushCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
}

// ============================================================================
// settings pull
// ============================================================================

var settingsPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch the tenant's settings document",
	Long: `Fetches the effective tenant's settings document, mapped onto the full
default-filled shape, and prints it or writes it to a file.`,
	Example: `  clipdash settings pull
  clipdash settings pull -o settings.yaml`,
	RunE: runSettingsPull,
}

func init() {
	settingsPullCmd.Flags().StringVarP(&settingsOut, "out", "o", "", "Write the document to a file (.yaml or .json)")
}

func runSettingsPull(cmd *cobra.Command, args []string) error {
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

	sync := settings.NewSynchronizer(newClient(cfg, provider), newLogger(cfg))
	if err := sync.Load(ctx, tenant); err != nil {
		printError("Failed to load settings: %v", err)
		os.Exit(ExitNetworkError)
	}
	doc := sync.Document()

	if settingsOut != "" {
		if err := writeDocumentFile(settingsOut, doc); err != nil {
			printError("Failed to write %s: %v", settingsOut, err)
			os.Exit(ExitValidationError)
		}
		printSuccess("Wrote settings for %s to %s", tenant, settingsOut)
		return nil
	}

	jsonOut, _ := json.MarshalIndent(doc, "", "  ")
	if cfgJSON {
		printJSON(jsonOut)
		return nil
	}
	printSection(fmt.Sprintf("Settings (%s)", tenant))
	printJSON(jsonOut)
	return nil
}

// ============================================================================
// settings push
// ============================================================================

var settingsPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Validate and save a settings document",
	Long: `Validates a settings document file against the schema, normalizes it, and
saves the complete document to the effective tenant.

Exit Codes:
  0 - Success
  1 - Validation failed (no network calls made)
  2 - Network/server error`,
	Example: `  clipdash settings push -f settings.yaml
  clipdash settings push -f settings.json`,
	RunE: runSettingsPush,
}

func init() {
	settingsPushCmd.Flags().StringVarP(&settingsFile, "file", "f", "", "Path to settings file (required)")
	settingsPushCmd.MarkFlagRequired("file")
}

func runSettingsPush(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		printError(err.Error())
		os.Exit(ExitValidationError)
	}

	// Validate locally before any network call.
	result, err := validateSettingsFile(settingsFile)
	if err != nil {
		printError("Validation error: %v", err)
		os.Exit(ExitValidationError)
	}
	if !result.Valid {
		reportValidationErrors(result)
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

	doc, err := settings.ParseFile(settingsFile, tenant)
	if err != nil {
		printError("Failed to parse %s: %v", settingsFile, err)
		os.Exit(ExitValidationError)
	}
	doc.ClientID = tenant

	sync := settings.NewSynchronizer(newClient(cfg, provider), newLogger(cfg))
	if err := sync.Load(ctx, tenant); err != nil {
		printError("Failed to load current settings: %v", err)
		os.Exit(ExitNetworkError)
	}
	sync.SetDraft(doc)
	if err := sync.Save(ctx); err != nil {
		printError("Save failed (draft preserved): %v", err)
		os.Exit(ExitNetworkError)
	}

	printSuccess("Saved settings for %s", tenant)
	return nil
}

// ============================================================================
// settings validate
// ============================================================================

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a settings document file",
	Long: `Validates a settings document file against the embedded JSON Schema.

No network calls are made.`,
	Example: `  clipdash settings validate -f settings.yaml
  clipdash settings validate -f settings.json --json`,
	RunE: runSettingsValidate,
}

func init() {
	settingsValidateCmd.Flags().StringVarP(&settingsFile, "file", "f", "", "Path to settings file (required)")
	settingsValidateCmd.MarkFlagRequired("file")
}

func runSettingsValidate(cmd *cobra.Command, args []string) error {
	result, err := validateSettingsFile(settingsFile)
	if err != nil {
		printError("Validation error: %v", err)
		os.Exit(ExitValidationError)
	}

	if cfgJSON {
		jsonOut, _ := json.MarshalIndent(result, "", "  ")
		printJSON(jsonOut)
		if !result.Valid {
			os.Exit(ExitValidationError)
		}
		return nil
	}

	if result.Valid {
		printSuccess("Settings document is valid")
		return nil
	}

	reportValidationErrors(result)
	os.Exit(ExitValidationError)
	return nil
}

func validateSettingsFile(path string) (*settings.ValidationResult, error) {
	validator, err := settings.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize validator: %w", err)
	}
	return validator.ValidateFile(path)
}

func reportValidationErrors(result *settings.ValidationResult) {
	printError("Settings document validation failed")
	fmt.Println()
	for _, e := range result.Errors {
		if e.Path != "" {
			fmt.Fprintf(os.Stderr, "  • %s: %s\n", errorColor.Sprint(e.Path), e.Message)
		} else {
			fmt.Fprintf(os.Stderr, "  • %s\n", e.Message)
		}
	}
}

func writeDocumentFile(path string, doc settings.Document) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		// Round-trip through JSON so the YAML keys match the wire names.
		jsonData, jerr := json.Marshal(doc)
		if jerr != nil {
			return jerr
		}
		var obj map[string]any
		if jerr := json.Unmarshal(jsonData, &obj); jerr != nil {
			return jerr
		}
		data, err = yaml.Marshal(obj)
	case ".json":
		data, err = json.MarshalIndent(doc, "", "  ")
	default:
		return fmt.Errorf("unsupported file extension (use .yaml, .yml, or .json)")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
