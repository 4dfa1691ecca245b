package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilePrefStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.yaml")
	store := NewFilePrefStore(path)

	if _, ok := store.Get(PrefKeyManagerTenant); ok {
		t.Fatal("missing file reported a stored value")
	}

	if err := store.Set(PrefKeyManagerTenant, "bongino"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set("other.key", "value"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Re-open to prove the value survived the process boundary.
	reopened := NewFilePrefStore(path)
	got, ok := reopened.Get(PrefKeyManagerTenant)
	if !ok || got != "bongino" {
		t.Errorf("Get = (%q, %v), want (%q, true)", got, ok, "bongino")
	}
	if got, _ := reopened.Get("other.key"); got != "value" {
		t.Errorf("sibling key clobbered, got %q", got)
	}
}

func TestFilePrefStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.yaml")
	if err := os.WriteFile(path, []byte("{not yaml at all::"), 0600); err != nil {
		t.Fatal(err)
	}
	store := NewFilePrefStore(path)

	if _, ok := store.Get(PrefKeyManagerTenant); ok {
		t.Error("corrupt file reported a stored value")
	}

	// A write over the corrupt file recovers it.
	if err := store.Set(PrefKeyManagerTenant, "arafta"); err != nil {
		t.Fatalf("Set over corrupt file: %v", err)
	}
	if got, ok := store.Get(PrefKeyManagerTenant); !ok || got != "arafta" {
		t.Errorf("Get after recovery = (%q, %v), want (%q, true)", got, ok, "arafta")
	}
}

func TestFilePrefStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "preferences.yaml")
	store := NewFilePrefStore(path)

	if err := store.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("preference file not created: %v", err)
	}
}
