package server

import (
	"testing"

	"github.com/arafta/clipdash/internal/review"
	"github.com/arafta/clipdash/internal/settings"
)

func TestGetSettingsUnknownTenant(t *testing.T) {
	s := NewStore()

	doc := s.GetSettings("ghost")
	if doc.ClientID != "ghost" {
		t.Errorf("clientId = %q, want %q", doc.ClientID, "ghost")
	}
	if doc.PayoutsInstagram.ViewsPerDollar != settings.DefaultViewsPerDollar {
		t.Errorf("unknown tenant not default-filled: %+v", doc.PayoutsInstagram)
	}
}

func TestPutSettingsNormalizes(t *testing.T) {
	s := NewStore()

	s.PutSettings(settings.Document{
		ClientID:  "  Bongino ",
		Platforms: []string{"Instagram", "twitch"},
		BudgetUsd: -50,
	})

	doc := s.GetSettings("bongino")
	if doc.ClientID != "bongino" {
		t.Errorf("clientId = %q", doc.ClientID)
	}
	if len(doc.Platforms) != 1 || doc.Platforms[0] != "instagram" {
		t.Errorf("platforms = %v", doc.Platforms)
	}
	if doc.BudgetUsd != 0 {
		t.Errorf("budgetUsd = %v, want clamped", doc.BudgetUsd)
	}
}

func TestQueueCounts(t *testing.T) {
	s := NewStoreWithDefaults()

	rows, counts := s.Queue("arafta")
	if len(rows) == 0 {
		t.Fatal("seeded tenant has no queue rows")
	}
	if counts.All != len(rows) {
		t.Errorf("counts.All = %d, want %d", counts.All, len(rows))
	}
	if counts.ThisWeek+counts.Overdue+counts.Done != counts.All {
		t.Errorf("bucket counts do not sum: %+v", counts)
	}
}

func TestApplyReviewsAtomic(t *testing.T) {
	s := NewStoreWithDefaults()
	rows, _ := s.Queue("arafta")
	if len(rows) < 2 {
		t.Fatal("need at least two seeded rows")
	}

	// Second item rejects without feedback; nothing may change.
	err := s.ApplyReviews([]review.Update{
		{Key: rows[0].Key, Status: review.StatusApproved, ReviewedBy: "m"},
		{Key: rows[1].Key, Status: review.StatusRejected, ReviewedBy: "m"},
	})
	if err == nil {
		t.Fatal("rejection without feedback accepted")
	}
	after, _ := s.Queue("arafta")
	if after[0].Status != review.StatusPending {
		t.Error("batch partially applied despite validation failure")
	}

	// Unknown key likewise aborts the whole batch.
	badKey := rows[0].Key
	badKey.VideoID = "nope"
	err = s.ApplyReviews([]review.Update{
		{Key: rows[0].Key, Status: review.StatusApproved, ReviewedBy: "m"},
		{Key: badKey, Status: review.StatusApproved, ReviewedBy: "m"},
	})
	if err == nil {
		t.Fatal("unknown row accepted")
	}
	after, _ = s.Queue("arafta")
	if after[0].Status != review.StatusPending {
		t.Error("batch partially applied despite unknown row")
	}

	// A valid batch lands and moves reviewed rows to the done bucket.
	err = s.ApplyReviews([]review.Update{
		{Key: rows[0].Key, Status: review.StatusApproved, ReviewedBy: "m"},
		{Key: rows[1].Key, Status: review.StatusRejected, Feedback: "cut is too long", ReviewedBy: "m"},
	})
	if err != nil {
		t.Fatalf("ApplyReviews: %v", err)
	}
	after, counts := s.Queue("arafta")
	if after[0].Status != review.StatusApproved || after[0].Bucket != review.BucketDone {
		t.Errorf("row 0 = %+v", after[0])
	}
	if after[1].Status != review.StatusRejected || after[1].Feedback != "cut is too long" {
		t.Errorf("row 1 = %+v", after[1])
	}
	if counts.Done < 2 {
		t.Errorf("counts.Done = %d, want >= 2", counts.Done)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := NewStoreWithDefaults()

	if _, _, _, _, err := s.SignIn("manager@arafta.io", "wrong"); err == nil {
		t.Fatal("bad password accepted")
	}
	u, access, refresh, _, err := s.SignIn("Manager@Arafta.io", "manager-dev-password")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if got := s.UserForToken(access); got == nil || got.ID != u.ID {
		t.Fatal("access token does not resolve to the signed-in user")
	}

	// Refresh rotates both tokens.
	u2, access2, _, _, err := s.Refresh(refresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if u2.ID != u.ID {
		t.Error("refresh changed the user")
	}
	if s.UserForToken(access) != nil {
		t.Error("old access token survived refresh")
	}
	if _, _, _, _, err := s.Refresh(refresh); err == nil {
		t.Error("refresh token reusable")
	}

	s.RevokeToken(access2)
	if s.UserForToken(access2) != nil {
		t.Error("revoked token still resolves")
	}
}

func TestExchangeCode(t *testing.T) {
	s := NewStoreWithDefaults()
	u, _, _, _, err := s.SignIn("client@bongino.tv", "client-dev-password")
	if err != nil {
		t.Fatal(err)
	}

	got, access, _, _, err := s.Exchange(u.ID)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if got.ID != u.ID || s.UserForToken(access) == nil {
		t.Error("code exchange did not mint a usable session")
	}
	if _, _, _, _, err := s.Exchange("not-a-user"); err == nil {
		t.Error("bogus code accepted")
	}
}

func TestUpdateUserRekeysEmail(t *testing.T) {
	s := NewStoreWithDefaults()
	u, _, _, _, err := s.SignIn("manager@arafta.io", "manager-dev-password")
	if err != nil {
		t.Fatal(err)
	}

	updated, err := s.UpdateUser(u.ID, "newboss@arafta.io", "")
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Email != "newboss@arafta.io" {
		t.Errorf("email = %q", updated.Email)
	}

	// The new email signs in; the old one no longer exists.
	if _, _, _, _, err := s.SignIn("newboss@arafta.io", "manager-dev-password"); err != nil {
		t.Errorf("sign-in with updated email: %v", err)
	}
	if _, _, _, _, err := s.SignIn("manager@arafta.io", "manager-dev-password"); err == nil {
		t.Error("sign-in with replaced email still succeeds")
	}

	// The profile record follows the email change.
	profile, ok := s.Profile(u.ID)
	if !ok || profile.Email != "newboss@arafta.io" {
		t.Errorf("profile = %+v, %v", profile, ok)
	}
}

func TestUpdateUserValidation(t *testing.T) {
	s := NewStoreWithDefaults()
	u, _, _, _, err := s.SignIn("manager@arafta.io", "manager-dev-password")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.UpdateUser("ghost", "x@y.z", ""); err == nil {
		t.Error("unknown user accepted")
	}
	// Another account's email cannot be taken over.
	if _, err := s.UpdateUser(u.ID, "client@bongino.tv", ""); err == nil {
		t.Error("email collision accepted")
	}
	// A collision attempt leaves the account signed in as before.
	if _, _, _, _, err := s.SignIn("manager@arafta.io", "manager-dev-password"); err != nil {
		t.Errorf("sign-in after failed update: %v", err)
	}

	// Password changes take effect without touching the email index.
	if _, err := s.UpdateUser(u.ID, "", "rotated"); err != nil {
		t.Fatal(err)
	}
	if _, _, _, _, err := s.SignIn("manager@arafta.io", "rotated"); err != nil {
		t.Errorf("sign-in with rotated password: %v", err)
	}
}

func TestProfileLookup(t *testing.T) {
	s := NewStoreWithDefaults()
	u, _, _, _, err := s.SignIn("manager@arafta.io", "manager-dev-password")
	if err != nil {
		t.Fatal(err)
	}

	profile, ok := s.Profile(u.ID)
	if !ok {
		t.Fatal("seeded profile missing")
	}
	if profile.Role != "manager" || profile.ClientID != "arafta" {
		t.Errorf("profile = %+v", profile)
	}
	if _, ok := s.Profile("ghost"); ok {
		t.Error("unknown user id has a profile")
	}
}
