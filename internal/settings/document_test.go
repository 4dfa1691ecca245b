package settings

import (
	"math"
	"reflect"
	"testing"
)

func TestFromWireEmptyBody(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "empty", raw: []byte{}},
		{name: "null", raw: []byte("null")},
		{name: "not json", raw: []byte("<html>oops</html>")},
		{name: "wrong shape", raw: []byte(`[1,2,3]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := FromWire(tt.raw, "bongino")
			want := DefaultDocument("bongino")
			if !reflect.DeepEqual(doc, want) {
				t.Errorf("got %+v, want default document", doc)
			}
		})
	}
}

func TestFromWireDefaultsEachFieldIndependently(t *testing.T) {
	// Every field is malformed in a different way; each one falls back to
	// its own default without poisoning the others.
	raw := []byte(`{
		"clientId": 42,
		"headingText": "Submit your clips",
		"platforms": ["instagram", 7, "tiktok"],
		"budgetUsd": "not-a-number",
		"deadline": false,
		"requirements": "single string",
		"monthlyRetainerEnabled": "yes",
		"monthlyRetainerUsd": 250,
		"payoutsInstagram": null,
		"payoutsYoutube": {"viewsPerDollar": "abc"},
		"payoutsTiktok": {"viewsPerDollar": 500, "maxPayEnabled": true, "maxPayUsd": 25}
	}`)

	doc := FromWire(raw, "bongino")

	if doc.ClientID != "bongino" {
		t.Errorf("clientId = %q, want caller-supplied %q", doc.ClientID, "bongino")
	}
	if doc.HeadingText != "Submit your clips" {
		t.Errorf("headingText = %q", doc.HeadingText)
	}
	if want := []string{"instagram", "tiktok"}; !reflect.DeepEqual(doc.Platforms, want) {
		t.Errorf("platforms = %v, want %v", doc.Platforms, want)
	}
	if doc.BudgetUsd != 0 {
		t.Errorf("budgetUsd = %v, want 0", doc.BudgetUsd)
	}
	if doc.Deadline != nil {
		t.Errorf("deadline = %v, want nil", *doc.Deadline)
	}
	if len(doc.Requirements) != 0 {
		t.Errorf("requirements = %v, want empty", doc.Requirements)
	}
	if doc.MonthlyRetainerEnabled {
		t.Error("monthlyRetainerEnabled coerced from non-bool")
	}
	if doc.MonthlyRetainerUsd != 250 {
		t.Errorf("monthlyRetainerUsd = %v, want 250", doc.MonthlyRetainerUsd)
	}
	if doc.PayoutsInstagram != DefaultPayout() {
		t.Errorf("payoutsInstagram = %+v, want default", doc.PayoutsInstagram)
	}
	if doc.PayoutsYoutube.ViewsPerDollar != DefaultViewsPerDollar {
		t.Errorf("youtube viewsPerDollar = %d, want default %d", doc.PayoutsYoutube.ViewsPerDollar, DefaultViewsPerDollar)
	}
	if doc.PayoutsTiktok.ViewsPerDollar != 500 || !doc.PayoutsTiktok.MaxPayEnabled || doc.PayoutsTiktok.MaxPayUsd != 25 {
		t.Errorf("payoutsTiktok = %+v", doc.PayoutsTiktok)
	}
}

func TestFromWireNumericStrings(t *testing.T) {
	raw := []byte(`{
		"budgetUsd": "1500.5",
		"payoutsInstagram": {"viewsPerDollar": "750", "minViews": " 100 "}
	}`)

	doc := FromWire(raw, "arafta")

	if doc.BudgetUsd != 1500.5 {
		t.Errorf("budgetUsd = %v, want 1500.5", doc.BudgetUsd)
	}
	if doc.PayoutsInstagram.ViewsPerDollar != 750 {
		t.Errorf("viewsPerDollar = %d, want 750", doc.PayoutsInstagram.ViewsPerDollar)
	}
	if doc.PayoutsInstagram.MinViews != 100 {
		t.Errorf("minViews = %d, want 100", doc.PayoutsInstagram.MinViews)
	}
}

func TestFromWireHugeNumbersClamp(t *testing.T) {
	raw := []byte(`{
		"payoutsInstagram": {"viewsPerDollar": 1e30, "minViews": -1e30},
		"payoutsYoutube": {"viewsPerDollar": "9999999999999999999999"}
	}`)

	doc := FromWire(raw, "arafta")

	if got := doc.PayoutsInstagram.ViewsPerDollar; got != math.MaxInt32 {
		t.Errorf("viewsPerDollar = %d, want clamped to %d", got, math.MaxInt32)
	}
	if got := doc.PayoutsInstagram.MinViews; got != math.MinInt32 {
		t.Errorf("minViews = %d, want clamped to %d", got, math.MinInt32)
	}
	if got := doc.PayoutsYoutube.ViewsPerDollar; got != math.MaxInt32 {
		t.Errorf("string viewsPerDollar = %d, want clamped to %d", got, math.MaxInt32)
	}
	// Normalization then applies the documented floors.
	if got := Normalize(doc).PayoutsInstagram.MinViews; got != 0 {
		t.Errorf("normalized minViews = %d, want 0", got)
	}
}

func TestFromWireDeadline(t *testing.T) {
	doc := FromWire([]byte(`{"deadline": "2026-09-30"}`), "arafta")
	if doc.Deadline == nil || *doc.Deadline != "2026-09-30" {
		t.Errorf("deadline = %v, want 2026-09-30", doc.Deadline)
	}
}
