package models

import "time"

// UserStatus tracks the admin approval workflow.
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusActive   UserStatus = "active"
	UserStatusRejected UserStatus = "rejected"
)

// Subscription is the plan a user pays for.
type Subscription struct {
	PlanName   string    `json:"planName"`
	ExpiryDate time.Time `json:"expiryDate"`
}

// User is a registered account. PasswordHash never leaves the process.
type User struct {
	ID             string       `json:"id"`
	FirstName      string       `json:"firstName"`
	LastName       string       `json:"lastName"`
	Email          string       `json:"email"`
	WhatsappNumber string       `json:"whatsappNumber"`
	CompanyName    string       `json:"companyName"`
	Status         UserStatus   `json:"status"`
	Subscription   Subscription `json:"subscription"`
	JoinedDate     time.Time    `json:"joinedDate"`
	AvatarURL      string       `json:"avatarUrl,omitempty"`
	PasswordHash   []byte       `json:"-"`
}

// Name is the combined full name.
func (u User) Name() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserView is the serialised form of a user with derived fields.
type UserView struct {
	User
	Name    string `json:"name"`
	Devices int    `json:"devices"`
}
