package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFileYAML(t *testing.T) {
	path := writeTempFile(t, "settings.yaml", `
clientId: bongino
campaignName: Summer Push
platforms:
  - instagram
  - tiktok
budgetUsd: 2500
payoutsInstagram:
  viewsPerDollar: 800
  maxPayEnabled: true
  maxPayUsd: 40
`)

	doc, err := ParseFile(path, "fallback")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if doc.ClientID != "bongino" {
		t.Errorf("clientId = %q", doc.ClientID)
	}
	if doc.BudgetUsd != 2500 {
		t.Errorf("budgetUsd = %v", doc.BudgetUsd)
	}
	if doc.PayoutsInstagram.ViewsPerDollar != 800 || !doc.PayoutsInstagram.MaxPayEnabled {
		t.Errorf("payoutsInstagram = %+v", doc.PayoutsInstagram)
	}
	// Omitted sections keep their defaults.
	if doc.PayoutsYoutube != DefaultPayout() {
		t.Errorf("payoutsYoutube = %+v, want default", doc.PayoutsYoutube)
	}
}

// A viewsPerDollar that is present but not a number coerces to zero, and the
// save-time normalization lifts it to the floor of one, not the default rate.
func TestParseFileMalformedRatePinsToFloor(t *testing.T) {
	path := writeTempFile(t, "settings.yaml", `
clientId: bongino
payoutsInstagram:
  viewsPerDollar: abc
`)

	doc, err := ParseFile(path, "bongino")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if doc.PayoutsInstagram.ViewsPerDollar != 0 {
		t.Fatalf("parsed viewsPerDollar = %d, want 0", doc.PayoutsInstagram.ViewsPerDollar)
	}
	if got := Normalize(doc).PayoutsInstagram.ViewsPerDollar; got != 1 {
		t.Errorf("normalized viewsPerDollar = %d, want 1", got)
	}
}

func TestParseFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "unsupported extension", file: "settings.toml", content: "clientId = 'x'"},
		{name: "invalid yaml", file: "settings.yaml", content: "{::not yaml"},
		{name: "invalid json", file: "settings.json", content: "{oops"},
		{name: "not a mapping", file: "settings.json", content: "[1, 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, tt.file, tt.content)
			if _, err := ParseFile(path, "x"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestValidatorAcceptsNormalizedDocument(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	path := writeTempFile(t, "settings.json", `{
		"clientId": "bongino",
		"campaignName": "Summer",
		"platforms": ["instagram"],
		"budgetUsd": 100,
		"payoutsInstagram": {"viewsPerDollar": 1000}
	}`)

	result, err := v.ValidateFile(path)
	if err != nil {
		t.Fatalf("ValidateFile: %v", err)
	}
	if !result.Valid {
		t.Errorf("document rejected: %+v", result.Errors)
	}
}

func TestValidatorRejectsUnknownKeys(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	path := writeTempFile(t, "settings.yaml", "clientId: bongino\nnotAField: true\n")

	result, err := v.ValidateFile(path)
	if err != nil {
		t.Fatalf("ValidateFile: %v", err)
	}
	if result.Valid {
		t.Error("unknown key accepted")
	}
	if len(result.Errors) == 0 {
		t.Error("no validation errors reported")
	}
}

func TestValidatorUnreadableFile(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	result, err := v.ValidateFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("ValidateFile: %v", err)
	}
	if result.Valid {
		t.Error("missing file reported valid")
	}
}
