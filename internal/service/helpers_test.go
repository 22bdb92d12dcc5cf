package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"iotguardian/internal/models"
	"iotguardian/internal/plans"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type stack struct {
	notifications *NotificationService
	devices       *DeviceService
	users         *UserService
}

func newStack(t *testing.T) stack {
	t.Helper()
	n := NewNotificationService()
	n.now = clock
	d := NewDeviceService(5 * time.Minute)
	d.now = clock
	u := NewUserService(d, n)
	u.hashCost = bcrypt.MinCost
	u.now = clock
	u.OnDelete(d.ReleaseOwner)
	u.OnDelete(n.Clear)
	return stack{notifications: n, devices: d, users: u}
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		WhatsappNumber:  "+15551234567",
		CompanyName:     "Engines",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

// activeUser creates an approved account on tier.
func (s stack) activeUser(t *testing.T, email string, tier plans.Tier) models.User {
	t.Helper()
	sub := models.Subscription{PlanName: string(tier), ExpiryDate: fixedNow.Add(plans.SubscriptionPeriod)}
	view, err := s.users.Create(UserRequest{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		Password:     "secret1",
		Subscription: &sub,
	})
	require.NoError(t, err)
	return view.User
}

func ptr[T any](v T) *T { return &v }
