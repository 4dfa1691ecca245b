package settings

import "strings"

// Normalize canonicalizes a document before persistence: strings trimmed,
// empty requirements dropped, unknown platforms filtered, numerics clamped
// to their floors. Normalization is a fixed point: applying it to an already
// normalized document changes nothing.
func Normalize(doc Document) Document {
	out := doc
	out.ClientID = strings.ToLower(strings.TrimSpace(doc.ClientID))
	out.HeadingText = strings.TrimSpace(doc.HeadingText)
	out.WatermarkText = strings.TrimSpace(doc.WatermarkText)
	out.CampaignName = strings.TrimSpace(doc.CampaignName)
	out.Platforms = normalizePlatforms(doc.Platforms)
	out.BudgetUsd = clampUsd(doc.BudgetUsd)
	out.Deadline = normalizeDeadline(doc.Deadline)
	out.Requirements = normalizeRequirements(doc.Requirements)
	out.MonthlyRetainerUsd = clampUsd(doc.MonthlyRetainerUsd)
	out.PayoutsInstagram = normalizePayout(doc.PayoutsInstagram)
	out.PayoutsYoutube = normalizePayout(doc.PayoutsYoutube)
	out.PayoutsTiktok = normalizePayout(doc.PayoutsTiktok)
	return out
}

func normalizePayout(p PayoutConfig) PayoutConfig {
	out := p
	if out.ViewsPerDollar < 1 {
		out.ViewsPerDollar = 1
	}
	out.MaxPayUsd = clampUsd(p.MaxPayUsd)
	if out.MinViews < 0 {
		out.MinViews = 0
	}
	return out
}

func normalizePlatforms(platforms []string) []string {
	out := make([]string, 0, len(platforms))
	seen := make(map[string]bool)
	for _, p := range platforms {
		name := strings.ToLower(strings.TrimSpace(p))
		if !isKnownPlatform(name) || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func normalizeRequirements(requirements []string) []string {
	out := make([]string, 0, len(requirements))
	for _, r := range requirements {
		trimmed := strings.TrimSpace(r)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func normalizeDeadline(deadline *string) *string {
	if deadline == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*deadline)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func clampUsd(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func isKnownPlatform(name string) bool {
	for _, p := range KnownPlatforms {
		if p == name {
			return true
		}
	}
	return false
}
