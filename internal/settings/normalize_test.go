package settings

import (
	"reflect"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    Document
		check func(t *testing.T, out Document)
	}{
		{
			name: "strings trimmed",
			in: Document{
				ClientID:      "  Bongino ",
				HeadingText:   "  Submit clips  ",
				WatermarkText: "\t@bongino ",
				CampaignName:  " Summer Push ",
			},
			check: func(t *testing.T, out Document) {
				if out.ClientID != "bongino" {
					t.Errorf("clientId = %q", out.ClientID)
				}
				if out.HeadingText != "Submit clips" || out.WatermarkText != "@bongino" || out.CampaignName != "Summer Push" {
					t.Errorf("trim failed: %+v", out)
				}
			},
		},
		{
			name: "unknown platforms filtered, duplicates dropped",
			in:   Document{Platforms: []string{"Instagram", "twitch", "instagram", " TIKTOK ", "youtube"}},
			check: func(t *testing.T, out Document) {
				want := []string{"instagram", "tiktok", "youtube"}
				if !reflect.DeepEqual(out.Platforms, want) {
					t.Errorf("platforms = %v, want %v", out.Platforms, want)
				}
			},
		},
		{
			name: "empty requirements dropped",
			in:   Document{Requirements: []string{"  include handle ", "", "   ", "keep watermark"}},
			check: func(t *testing.T, out Document) {
				want := []string{"include handle", "keep watermark"}
				if !reflect.DeepEqual(out.Requirements, want) {
					t.Errorf("requirements = %v, want %v", out.Requirements, want)
				}
			},
		},
		{
			name: "blank deadline becomes nil",
			in:   Document{Deadline: strPtr("   ")},
			check: func(t *testing.T, out Document) {
				if out.Deadline != nil {
					t.Errorf("deadline = %q, want nil", *out.Deadline)
				}
			},
		},
		{
			name: "deadline trimmed",
			in:   Document{Deadline: strPtr(" 2026-09-30 ")},
			check: func(t *testing.T, out Document) {
				if out.Deadline == nil || *out.Deadline != "2026-09-30" {
					t.Errorf("deadline = %v", out.Deadline)
				}
			},
		},
		{
			name: "negative dollars clamp to zero",
			in: Document{
				BudgetUsd:          -100,
				MonthlyRetainerUsd: -1,
				PayoutsInstagram:   PayoutConfig{ViewsPerDollar: 500, MaxPayUsd: -5},
			},
			check: func(t *testing.T, out Document) {
				if out.BudgetUsd != 0 || out.MonthlyRetainerUsd != 0 || out.PayoutsInstagram.MaxPayUsd != 0 {
					t.Errorf("clamp failed: %+v", out)
				}
			},
		},
		{
			name: "views per dollar floors at one",
			in: Document{
				PayoutsInstagram: PayoutConfig{ViewsPerDollar: 0},
				PayoutsYoutube:   PayoutConfig{ViewsPerDollar: -50},
				PayoutsTiktok:    PayoutConfig{ViewsPerDollar: 1},
			},
			check: func(t *testing.T, out Document) {
				if out.PayoutsInstagram.ViewsPerDollar != 1 || out.PayoutsYoutube.ViewsPerDollar != 1 {
					t.Errorf("floor failed: instagram=%d youtube=%d", out.PayoutsInstagram.ViewsPerDollar, out.PayoutsYoutube.ViewsPerDollar)
				}
				if out.PayoutsTiktok.ViewsPerDollar != 1 {
					t.Errorf("valid floor value changed: %d", out.PayoutsTiktok.ViewsPerDollar)
				}
			},
		},
		{
			name: "negative min views clamp to zero",
			in:   Document{PayoutsTiktok: PayoutConfig{ViewsPerDollar: 100, MinViews: -10}},
			check: func(t *testing.T, out Document) {
				if out.PayoutsTiktok.MinViews != 0 {
					t.Errorf("minViews = %d, want 0", out.PayoutsTiktok.MinViews)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Normalize(tt.in))
		})
	}
}

// Normalization is a fixed point: a second application changes nothing.
func TestNormalizeIdempotent(t *testing.T) {
	in := Document{
		ClientID:           "  Bongino ",
		HeadingText:        " Heading ",
		Platforms:          []string{"Instagram", "twitch", "instagram"},
		BudgetUsd:          -20,
		Deadline:           strPtr("  "),
		Requirements:       []string{" a ", ""},
		MonthlyRetainerUsd: -3,
		PayoutsInstagram:   PayoutConfig{ViewsPerDollar: 0, MaxPayUsd: -1, MinViews: -5},
	}

	once := Normalize(in)
	twice := Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

// The wire mapping of a normalized document normalizes to itself.
func TestNormalizeFixedPointThroughWire(t *testing.T) {
	doc := Normalize(Document{
		ClientID:         "Bongino",
		HeadingText:      " Post your best clips ",
		Platforms:        []string{"instagram", "youtube"},
		BudgetUsd:        2500,
		Requirements:     []string{"tag us"},
		PayoutsInstagram: PayoutConfig{ViewsPerDollar: 800, MaxPayEnabled: true, MaxPayUsd: 40},
		PayoutsYoutube:   DefaultPayout(),
		PayoutsTiktok:    DefaultPayout(),
	})

	if !reflect.DeepEqual(doc, Normalize(doc)) {
		t.Error("normalized document is not a fixed point")
	}
}
