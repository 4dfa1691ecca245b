// Package settings holds the per-tenant configuration document and the
// logic that keeps a local draft reconciled with the server copy.
package settings

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// KnownPlatforms is the fixed set of platforms a campaign can target.
var KnownPlatforms = []string{"instagram", "youtube", "tiktok"}

// DefaultViewsPerDollar is the payout rate assumed when a tenant has no
// stored rate for a platform.
const DefaultViewsPerDollar = 1000

// PayoutConfig is the payout rule for one platform.
type PayoutConfig struct {
	// ViewsPerDollar is how many views earn one dollar. Always >= 1 in a
	// normalized document.
	ViewsPerDollar int `json:"viewsPerDollar"`
	// MaxPayEnabled caps the payout of a single video at MaxPayUsd.
	MaxPayEnabled bool    `json:"maxPayEnabled"`
	MaxPayUsd     float64 `json:"maxPayUsd"`
	// MinViewsEnabled requires MinViews before a video earns anything.
	MinViewsEnabled bool `json:"minViewsEnabled"`
	MinViews        int  `json:"minViews"`
}

// Document is the full per-tenant configuration record. Saves always
// transmit the whole document; partial updates are not supported.
type Document struct {
	ClientID               string       `json:"clientId"`
	HeadingText            string       `json:"headingText"`
	WatermarkText          string       `json:"watermarkText"`
	CampaignName           string       `json:"campaignName"`
	Platforms              []string     `json:"platforms"`
	BudgetUsd              float64      `json:"budgetUsd"`
	Deadline               *string      `json:"deadline"`
	Requirements           []string     `json:"requirements"`
	MonthlyRetainerEnabled bool         `json:"monthlyRetainerEnabled"`
	MonthlyRetainerUsd     float64      `json:"monthlyRetainerUsd"`
	PayoutsInstagram       PayoutConfig `json:"payoutsInstagram"`
	PayoutsYoutube         PayoutConfig `json:"payoutsYoutube"`
	PayoutsTiktok          PayoutConfig `json:"payoutsTiktok"`
}

// DefaultPayout returns the payout config assumed when none is stored.
func DefaultPayout() PayoutConfig {
	return PayoutConfig{ViewsPerDollar: DefaultViewsPerDollar}
}

// DefaultDocument returns the default-filled document for a tenant.
func DefaultDocument(clientID string) Document {
	return Document{
		ClientID:         clientID,
		Platforms:        []string{},
		Requirements:     []string{},
		PayoutsInstagram: DefaultPayout(),
		PayoutsYoutube:   DefaultPayout(),
		PayoutsTiktok:    DefaultPayout(),
	}
}

// FromWire maps a raw server response onto the full default-filled shape.
// Every field defaults independently when absent or of the wrong type. The
// mapping is total: malformed input can never make it fail.
func FromWire(raw []byte, clientID string) Document {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return DefaultDocument(clientID)
	}
	return fromWireMap(obj, clientID)
}

func fromWireMap(obj map[string]any, clientID string) Document {
	doc := DefaultDocument(clientID)
	if id := asString(obj["clientId"], ""); id != "" {
		doc.ClientID = id
	}
	doc.HeadingText = asString(obj["headingText"], "")
	doc.WatermarkText = asString(obj["watermarkText"], "")
	doc.CampaignName = asString(obj["campaignName"], "")
	doc.Platforms = asStringSlice(obj["platforms"])
	doc.BudgetUsd = asFloat(obj["budgetUsd"], 0)
	if deadline := asString(obj["deadline"], ""); deadline != "" {
		doc.Deadline = &deadline
	}
	doc.Requirements = asStringSlice(obj["requirements"])
	doc.MonthlyRetainerEnabled = asBool(obj["monthlyRetainerEnabled"])
	doc.MonthlyRetainerUsd = asFloat(obj["monthlyRetainerUsd"], 0)
	doc.PayoutsInstagram = payoutFromWire(obj["payoutsInstagram"])
	doc.PayoutsYoutube = payoutFromWire(obj["payoutsYoutube"])
	doc.PayoutsTiktok = payoutFromWire(obj["payoutsTiktok"])
	return doc
}

func payoutFromWire(v any) PayoutConfig {
	m, ok := v.(map[string]any)
	if !ok {
		return DefaultPayout()
	}
	return PayoutConfig{
		ViewsPerDollar:  asInt(m["viewsPerDollar"], DefaultViewsPerDollar),
		MaxPayEnabled:   asBool(m["maxPayEnabled"]),
		MaxPayUsd:       asFloat(m["maxPayUsd"], 0),
		MinViewsEnabled: asBool(m["minViewsEnabled"]),
		MinViews:        asInt(m["minViews"], 0),
	}
}

// Tolerant coercion helpers. JSON numbers arrive as float64; numeric strings
// are accepted; anything else takes the fallback.

func asString(v any, fallback string) string {
	s, ok := v.(string)
	if !ok {
		return fallback
	}
	return s
}

func asFloat(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func asInt(v any, fallback int) int {
	switch n := v.(type) {
	case float64:
		return clampToInt(n)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return clampToInt(parsed)
		}
	}
	return fallback
}

// clampToInt bounds a wire number to int32 range; conversion of an
// out-of-range float64 to int is otherwise platform-defined.
func clampToInt(f float64) int {
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

func asBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func asStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
