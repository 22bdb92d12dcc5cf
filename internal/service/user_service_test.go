package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iotguardian/internal/models"
	"iotguardian/internal/plans"
)

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
		field  string
	}{
		{"short first name", func(r *RegisterRequest) { r.FirstName = "A" }, "firstName"},
		{"short last name", func(r *RegisterRequest) { r.LastName = "" }, "lastName"},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }, "email"},
		{"short phone", func(r *RegisterRequest) { r.WhatsappNumber = "+12345" }, "whatsappNumber"},
		{"phone with letters", func(r *RegisterRequest) { r.WhatsappNumber = "+1555abc4567" }, "whatsappNumber"},
		{"phone leading zero", func(r *RegisterRequest) { r.WhatsappNumber = "05551234567" }, "whatsappNumber"},
		{"short company", func(r *RegisterRequest) { r.CompanyName = "X" }, "companyName"},
		{"short password", func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "abc", "abc" }, "password"},
		{"mismatch", func(r *RegisterRequest) { r.ConfirmPassword = "secret2" }, "confirmPassword"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStack(t)
			req := validRegistration()
			tt.mutate(&req)

			_, err := s.users.Register(req)
			require.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			fields := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				fields = append(fields, f.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestRegisterAndLoginFlow(t *testing.T) {
	s := newStack(t)

	u, err := s.users.Register(validRegistration())
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusPending, u.Status)
	assert.Equal(t, string(plans.TierNone), u.Subscription.PlanName)
	assert.NotEmpty(t, u.PasswordHash)

	_, err = s.users.Register(validRegistration())
	assert.ErrorIs(t, err, ErrConflict, "duplicate email")

	_, err = s.users.Authenticate("ADA@example.com", "secret1")
	assert.ErrorIs(t, err, ErrForbidden, "pending accounts cannot log in")

	_, err = s.users.SetStatus(u.ID, models.UserStatusActive)
	require.NoError(t, err)

	got, err := s.users.Authenticate("ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.users.Authenticate("ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = s.users.Authenticate("nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.users.SetStatus(u.ID, models.UserStatusRejected)
	require.NoError(t, err)
	_, err = s.users.Authenticate("ada@example.com", "secret1")
	assert.ErrorIs(t, err, ErrForbidden)

	inbox, unread := s.notifications.List(u.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, 1, unread)
	assert.Contains(t, inbox[0].Message, "Welcome to IoT Guardian!")
}

func TestCreateDefaultsToActiveBasic(t *testing.T) {
	s := newStack(t)

	view, err := s.users.Create(UserRequest{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, view.Status)
	assert.Equal(t, string(plans.TierBasic), view.Subscription.PlanName)
	assert.Equal(t, fixedNow.Add(plans.SubscriptionPeriod), view.Subscription.ExpiryDate)
	assert.Equal(t, "Grace Hopper", view.Name)
}

func TestListFiltersByNameOrEmail(t *testing.T) {
	s := newStack(t)
	s.activeUser(t, "alpha@example.com", plans.TierBasic)
	_, err := s.users.Create(UserRequest{FirstName: "Bob", LastName: "Builder", Email: "bob@corp.io"})
	require.NoError(t, err)

	assert.Len(t, s.users.List(""), 2)
	assert.Len(t, s.users.List("BUILDER"), 1)
	assert.Len(t, s.users.List("corp.io"), 1)
	assert.Empty(t, s.users.List("zzz"))
}

func TestUpdateChangesEmailIndex(t *testing.T) {
	s := newStack(t)
	a := s.activeUser(t, "a@example.com", plans.TierBasic)
	s.activeUser(t, "b@example.com", plans.TierBasic)

	_, err := s.users.Update(a.ID, UserRequest{FirstName: "Test", LastName: "User", Email: "b@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	view, err := s.users.Update(a.ID, UserRequest{
		FirstName:    "Test",
		LastName:     "User",
		Email:        "new@example.com",
		Subscription: &models.Subscription{PlanName: "premium", ExpiryDate: fixedNow.Add(time.Hour)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Premium", view.Subscription.PlanName)

	_, err = s.users.Authenticate("a@example.com", "secret1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.users.Authenticate("new@example.com", "secret1")
	assert.NoError(t, err)
}

func TestDeleteReleasesDevicesAndInbox(t *testing.T) {
	s := newStack(t)
	u := s.activeUser(t, "owner@example.com", plans.TierPremium)
	s.devices.Touch("dev_1", fixedNow, false)
	_, err := s.devices.Claim(u.ID, "dev_1", plans.FeaturesFor(plans.TierPremium))
	require.NoError(t, err)
	s.notifications.Notify(u.ID, "hello there", models.NotificationUser)

	require.NoError(t, s.users.Delete(u.ID))

	d, err := s.devices.Get("dev_1")
	require.NoError(t, err)
	assert.Empty(t, d.OwnerID)
	inbox, _ := s.notifications.List(u.ID)
	assert.Empty(t, inbox)
	assert.ErrorIs(t, s.users.Delete(u.ID), ErrNotFound)

	_, err = s.users.Register(RegisterRequest{
		FirstName: "Re", LastName: "Used", Email: "owner@example.com", WhatsappNumber: "+15551234567",
		CompanyName: "Co", Password: "secret1", ConfirmPassword: "secret1",
	})
	assert.NoError(t, err, "email is free again after delete")
}

func TestActivatePlan(t *testing.T) {
	s := newStack(t)
	u := s.activeUser(t, "p@example.com", plans.TierBasic)

	sub, err := s.users.ActivatePlan(u.ID, plans.TierBasic, 2)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(3*plans.SubscriptionPeriod), sub.ExpiryDate, "renewal extends the active plan")

	sub, err = s.users.ActivatePlan(u.ID, plans.TierPremium, 1)
	require.NoError(t, err)
	assert.Equal(t, "Premium", sub.PlanName)
	assert.Equal(t, fixedNow.Add(plans.SubscriptionPeriod), sub.ExpiryDate, "a new tier starts now")

	_, err = s.users.ActivatePlan("missing", plans.TierPremium, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionInfo(t *testing.T) {
	s := newStack(t)
	u := s.activeUser(t, "s@example.com", plans.TierPremium)

	info, err := s.users.SubscriptionInfo(u.ID)
	require.NoError(t, err)
	assert.True(t, info.Active)
	assert.Equal(t, plans.TierPremium, info.Plan)
	assert.Equal(t, "30d 0h 0m remaining", info.DaysRemaining)
	require.Len(t, info.UpgradeOptions, 1)
	assert.Equal(t, plans.TierEnterprise, info.UpgradeOptions[0].Name)
}

func TestBroadcastToActive(t *testing.T) {
	s := newStack(t)
	a := s.activeUser(t, "a@example.com", plans.TierBasic)
	pending, err := s.users.Register(validRegistration())
	require.NoError(t, err)

	n, err := s.users.BroadcastToActive("Scheduled maintenance tonight.")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	inbox, _ := s.notifications.List(a.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationAdmin, inbox[0].Type)
	inbox, _ = s.notifications.List(pending.ID)
	assert.Empty(t, inbox)

	_, err = s.users.BroadcastToActive("short")
	assert.ErrorIs(t, err, ErrValidation)
}
