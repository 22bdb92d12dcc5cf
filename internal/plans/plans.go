// Package plans derives feature flags from a subscription tier.
package plans

import (
	"fmt"
	"strings"
	"time"

	"iotguardian/internal/models"
)

// Tier is a subscription level.
type Tier string

const (
	TierNone       Tier = "None"
	TierTrial      Tier = "Free Trial"
	TierBasic      Tier = "Basic"
	TierPremium    Tier = "Premium"
	TierEnterprise Tier = "Enterprise"
)

// Unlimited marks a limit with no ceiling.
const Unlimited = -1

// SubscriptionPeriod is how long one purchased unit of a plan lasts.
const SubscriptionPeriod = 30 * 24 * time.Hour

// Features is the set of capabilities a tier unlocks.
type Features struct {
	MaxDevices        int  `json:"maxDevices"`
	CanControlDevice  bool `json:"canControlDevice"`
	CanExportCSV      bool `json:"canExportCsv"`
	HasAutoShutdown   bool `json:"hasAutoShutdownFeature"`
	HasHistory        bool `json:"hasHistory"`
	AIQueriesPerMonth int  `json:"aiQueriesPerMonth"`
}

var features = map[Tier]Features{
	TierNone:  {},
	TierTrial: {MaxDevices: 1, AIQueriesPerMonth: 5},
	TierBasic: {MaxDevices: 1, AIQueriesPerMonth: 5},
	TierPremium: {
		MaxDevices:        3,
		CanControlDevice:  true,
		CanExportCSV:      true,
		HasAutoShutdown:   true,
		HasHistory:        true,
		AIQueriesPerMonth: Unlimited,
	},
	TierEnterprise: {
		MaxDevices:        Unlimited,
		CanControlDevice:  true,
		CanExportCSV:      true,
		HasAutoShutdown:   true,
		HasHistory:        true,
		AIQueriesPerMonth: Unlimited,
	},
}

var rank = map[Tier]int{
	TierNone:       0,
	TierTrial:      1,
	TierBasic:      2,
	TierPremium:    3,
	TierEnterprise: 4,
}

// ParseTier matches a plan name or id case-insensitively. Unknown names map to TierNone.
func ParseTier(name string) Tier {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "free trial", "trial", "free_trial":
		return TierTrial
	case "basic":
		return TierBasic
	case "premium":
		return TierPremium
	case "enterprise":
		return TierEnterprise
	default:
		return TierNone
	}
}

// Higher reports whether a ranks above b.
func Higher(a, b Tier) bool {
	return rank[a] > rank[b]
}

// FeaturesFor returns the feature set of a tier.
func FeaturesFor(t Tier) Features {
	return features[t]
}

// Active reports whether sub grants a paid tier at now.
func Active(sub models.Subscription, now time.Time) bool {
	return ParseTier(sub.PlanName) != TierNone && sub.ExpiryDate.After(now)
}

// Effective is the tier a subscription currently grants; expired plans grant nothing.
func Effective(sub models.Subscription, now time.Time) Tier {
	if !Active(sub, now) {
		return TierNone
	}
	return ParseTier(sub.PlanName)
}

// FeaturesAt returns the features sub grants at now.
func FeaturesAt(sub models.Subscription, now time.Time) Features {
	return FeaturesFor(Effective(sub, now))
}

// WithinLimit reports whether count is below limit, honouring Unlimited.
func WithinLimit(count, limit int) bool {
	return limit == Unlimited || count < limit
}

// DaysRemaining renders the time left on a subscription.
func DaysRemaining(sub models.Subscription, now time.Time) string {
	if ParseTier(sub.PlanName) == TierNone {
		return "N/A"
	}
	if sub.ExpiryDate.IsZero() {
		return "No expiry date set."
	}
	if !sub.ExpiryDate.After(now) {
		return "Expired"
	}

	diff := sub.ExpiryDate.Sub(now)
	days := int(diff / (24 * time.Hour))
	hours := int(diff%(24*time.Hour)) / int(time.Hour)
	minutes := int(diff%time.Hour) / int(time.Minute)

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if days > 0 || hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	fmt.Fprintf(&b, "%dm remaining", minutes)
	return b.String()
}

// Plan is a purchasable tier as shown on the subscriptions page.
type Plan struct {
	ID             string   `json:"id"`
	Name           Tier     `json:"name"`
	Price          string   `json:"price"`
	PriceValue     float64  `json:"priceValue"`
	PriceFrequency string   `json:"priceFrequency"`
	Description    string   `json:"description"`
	Features       []string `json:"features"`
	IsPopular      bool     `json:"isPopular,omitempty"`
	CTALabel       string   `json:"ctaLabel"`
	Limits         Features `json:"limits"`
}

var catalog = []Plan{
	{
		ID:             "basic",
		Name:           TierBasic,
		Price:          "$9.99",
		PriceValue:     9.99,
		PriceFrequency: "/month",
		Description:    "Essential monitoring for personal use.",
		Features: []string{
			"1 Monitored Device",
			"Real-time Data Updates",
			"Basic Alerts",
			"Email Support",
			"Limited AI Troubleshooting (5 queries/month)",
		},
		CTALabel: "Add to Cart",
	},
	{
		ID:             "premium",
		Name:           TierPremium,
		Price:          "$29.99",
		PriceValue:     29.99,
		PriceFrequency: "/month",
		Description:    "Advanced features for serious users and small businesses.",
		Features: []string{
			"Up to 3 Monitored Devices",
			"Real-time Data Updates & History",
			"Advanced Customizable Alerts (SMS, Email)",
			"Priority Email & Chat Support",
			"Unlimited AI Troubleshooting",
			"Access to Detailed Reports",
		},
		IsPopular: true,
		CTALabel:  "Add to Cart",
	},
	{
		ID:          "enterprise",
		Name:        TierEnterprise,
		Price:       "Custom",
		Description: "Tailored solutions for large-scale deployments.",
		Features: []string{
			"5+ Monitored Devices (Unlimited)",
			"Custom Integrations",
			"Dedicated Account Manager",
			"SLA Guarantees",
			"On-premise Options Available",
			"Advanced Security Features",
		},
		CTALabel: "Contact Sales",
	},
}

// Catalog lists the purchasable plans.
func Catalog() []Plan {
	out := make([]Plan, len(catalog))
	for i, p := range catalog {
		p.Limits = FeaturesFor(p.Name)
		out[i] = p
	}
	return out
}

// UpgradeOptions lists the plans above current. Without an active plan every plan is offered.
func UpgradeOptions(current Tier) []Plan {
	all := Catalog()
	if current == TierNone || current == TierTrial {
		return all
	}
	var out []Plan
	for _, p := range all {
		if Higher(p.Name, current) {
			out = append(out, p)
		}
	}
	return out
}
