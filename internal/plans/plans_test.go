package plans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"iotguardian/internal/models"
)

func TestParseTier(t *testing.T) {
	tests := map[string]Tier{
		"Premium":    TierPremium,
		"premium":    TierPremium,
		" BASIC ":    TierBasic,
		"Free Trial": TierTrial,
		"enterprise": TierEnterprise,
		"None":       TierNone,
		"":           TierNone,
		"gold":       TierNone,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseTier(in), in)
	}
}

func TestFeaturesAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("active premium", func(t *testing.T) {
		f := FeaturesAt(models.Subscription{PlanName: "Premium", ExpiryDate: now.Add(time.Hour)}, now)
		assert.Equal(t, 3, f.MaxDevices)
		assert.True(t, f.CanControlDevice)
		assert.True(t, f.CanExportCSV)
		assert.True(t, f.HasAutoShutdown)
		assert.Equal(t, Unlimited, f.AIQueriesPerMonth)
	})

	t.Run("expired premium grants nothing", func(t *testing.T) {
		f := FeaturesAt(models.Subscription{PlanName: "Premium", ExpiryDate: now.Add(-time.Hour)}, now)
		assert.Equal(t, Features{}, f)
	})

	t.Run("basic is limited", func(t *testing.T) {
		f := FeaturesAt(models.Subscription{PlanName: "Basic", ExpiryDate: now.Add(time.Hour)}, now)
		assert.Equal(t, 1, f.MaxDevices)
		assert.False(t, f.CanControlDevice)
		assert.Equal(t, 5, f.AIQueriesPerMonth)
	})

	t.Run("enterprise is unlimited", func(t *testing.T) {
		f := FeaturesAt(models.Subscription{PlanName: "Enterprise", ExpiryDate: now.Add(time.Hour)}, now)
		assert.True(t, WithinLimit(1000, f.MaxDevices))
	})
}

func TestWithinLimit(t *testing.T) {
	assert.True(t, WithinLimit(0, 1))
	assert.False(t, WithinLimit(1, 1))
	assert.False(t, WithinLimit(0, 0))
	assert.True(t, WithinLimit(99, Unlimited))
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		sub  models.Subscription
		want string
	}{
		{"no plan", models.Subscription{PlanName: "None"}, "N/A"},
		{"no expiry", models.Subscription{PlanName: "Basic"}, "No expiry date set."},
		{"expired", models.Subscription{PlanName: "Basic", ExpiryDate: now.Add(-time.Minute)}, "Expired"},
		{"expires now", models.Subscription{PlanName: "Basic", ExpiryDate: now}, "Expired"},
		{"days", models.Subscription{PlanName: "Premium", ExpiryDate: now.Add(49*time.Hour + 5*time.Minute)}, "2d 1h 5m remaining"},
		{"days zero hours", models.Subscription{PlanName: "Premium", ExpiryDate: now.Add(48*time.Hour + 5*time.Minute)}, "2d 0h 5m remaining"},
		{"hours", models.Subscription{PlanName: "Premium", ExpiryDate: now.Add(3*time.Hour + 30*time.Minute)}, "3h 30m remaining"},
		{"minutes", models.Subscription{PlanName: "Premium", ExpiryDate: now.Add(42 * time.Minute)}, "42m remaining"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysRemaining(tt.sub, now))
		})
	}
}

func TestUpgradeOptions(t *testing.T) {
	names := func(ps []Plan) []Tier {
		var out []Tier
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}

	assert.Equal(t, []Tier{TierPremium, TierEnterprise}, names(UpgradeOptions(TierBasic)))
	assert.Equal(t, []Tier{TierEnterprise}, names(UpgradeOptions(TierPremium)))
	assert.Empty(t, UpgradeOptions(TierEnterprise))
	assert.Len(t, UpgradeOptions(TierNone), 3)
}

func TestCatalogCarriesLimits(t *testing.T) {
	for _, p := range Catalog() {
		assert.Equal(t, FeaturesFor(p.Name), p.Limits, p.ID)
	}
}

func TestExpiryBoundaryAgrees(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sub := models.Subscription{PlanName: "Premium", ExpiryDate: now}

	assert.False(t, Active(sub, now))
	assert.Equal(t, TierNone, Effective(sub, now))
	assert.Equal(t, "Expired", DaysRemaining(sub, now))
}
