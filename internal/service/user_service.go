package service

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"iotguardian/internal/logx"
	"iotguardian/internal/models"
	"iotguardian/internal/plans"
	"iotguardian/internal/repository"
)

var whatsappPattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// DeviceCounter reports how many devices a user owns.
type DeviceCounter interface {
	CountOwned(userID string) int
}

// RegisterRequest is the self-service signup form.
type RegisterRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	WhatsappNumber  string `json:"whatsappNumber"`
	CompanyName     string `json:"companyName"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UserRequest is the admin create/update payload.
type UserRequest struct {
	FirstName      string               `json:"firstName"`
	LastName       string               `json:"lastName"`
	Email          string               `json:"email"`
	WhatsappNumber string               `json:"whatsappNumber"`
	CompanyName    string               `json:"companyName"`
	AvatarURL      string               `json:"avatarUrl"`
	Password       string               `json:"password,omitempty"`
	Status         models.UserStatus    `json:"status,omitempty"`
	Subscription   *models.Subscription `json:"subscription,omitempty"`
}

// UserService owns accounts, approval state and subscriptions.
type UserService struct {
	users         *repository.Table[models.User]
	emails        *repository.Table[string]
	devices       DeviceCounter
	notifications *NotificationService
	onDelete      []func(userID string)
	hashCost      int
	now           func() time.Time
}

func NewUserService(devices DeviceCounter, notifications *NotificationService) *UserService {
	return &UserService{
		users:         repository.NewTable[models.User](),
		emails:        repository.NewTable[string](),
		devices:       devices,
		notifications: notifications,
		hashCost:      bcrypt.DefaultCost,
		now:           time.Now,
	}
}

// OnDelete registers cleanup that runs after a user is removed.
func (s *UserService) OnDelete(fn func(userID string)) {
	s.onDelete = append(s.onDelete, fn)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, ".")
}

func validateProfile(v *ValidationError, firstName, lastName, email string) {
	if len(strings.TrimSpace(firstName)) < 2 {
		v.add("firstName", "First name must be at least 2 characters.")
	}
	if len(strings.TrimSpace(lastName)) < 2 {
		v.add("lastName", "Last name must be at least 2 characters.")
	}
	if !validEmail(normalizeEmail(email)) {
		v.add("email", "Invalid email address.")
	}
}

func (req RegisterRequest) validate() error {
	v := &ValidationError{}
	validateProfile(v, req.FirstName, req.LastName, req.Email)
	phone := strings.TrimSpace(req.WhatsappNumber)
	if len(phone) < 10 {
		v.add("whatsappNumber", "WhatsApp number must be at least 10 digits.")
	} else if !whatsappPattern.MatchString(phone) {
		v.add("whatsappNumber", "Invalid WhatsApp number format.")
	}
	if len(strings.TrimSpace(req.CompanyName)) < 2 {
		v.add("companyName", "Company name must be at least 2 characters.")
	}
	if len(req.Password) < 6 {
		v.add("password", "Password must be at least 6 characters.")
	}
	if req.Password != req.ConfirmPassword {
		v.add("confirmPassword", "Passwords don't match.")
	}
	return v.err()
}

func (s *UserService) hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
}

// reserveEmail claims email for userID, failing when another account holds it.
func (s *UserService) reserveEmail(email, userID string) error {
	if !s.emails.Insert(email, userID) {
		return newError(ErrConflict, "An account with email %s already exists.", email)
	}
	return nil
}

// Register creates a pending account with no plan.
func (s *UserService) Register(req RegisterRequest) (models.User, error) {
	if err := req.validate(); err != nil {
		return models.User{}, err
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return models.User{}, err
	}
	u := models.User{
		ID:             uuid.NewString(),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          normalizeEmail(req.Email),
		WhatsappNumber: strings.TrimSpace(req.WhatsappNumber),
		CompanyName:    strings.TrimSpace(req.CompanyName),
		Status:         models.UserStatusPending,
		Subscription:   models.Subscription{PlanName: string(plans.TierNone)},
		JoinedDate:     s.now(),
		PasswordHash:   hash,
	}
	if err := s.reserveEmail(u.Email, u.ID); err != nil {
		return models.User{}, err
	}
	s.users.Put(u.ID, u)
	logx.Info().Str("userId", u.ID).Str("email", u.Email).Msg("User registered, awaiting approval")
	return u, nil
}

// Authenticate checks credentials and the approval state.
func (s *UserService) Authenticate(email, password string) (models.User, error) {
	id, ok := s.emails.Get(normalizeEmail(email))
	if !ok {
		return models.User{}, newError(ErrNotFound, "User not found.")
	}
	u, ok := s.users.Get(id)
	if !ok {
		return models.User{}, newError(ErrNotFound, "User not found.")
	}
	if len(u.PasswordHash) == 0 || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return models.User{}, newError(ErrUnauthorized, "Invalid email or password.")
	}
	switch u.Status {
	case models.UserStatusPending:
		return models.User{}, newError(ErrForbidden, "Your account is awaiting admin approval.")
	case models.UserStatusRejected:
		return models.User{}, newError(ErrForbidden, "Your account registration has been rejected.")
	}
	return u, nil
}

func (s *UserService) Get(userID string) (models.User, error) {
	u, ok := s.users.Get(userID)
	if !ok {
		return models.User{}, newError(ErrNotFound, "User %s not found.", userID)
	}
	return u, nil
}

// Features returns the plan features the user currently holds.
func (s *UserService) Features(userID string) (plans.Features, error) {
	u, err := s.Get(userID)
	if err != nil {
		return plans.Features{}, err
	}
	return plans.FeaturesAt(u.Subscription, s.now()), nil
}

func (s *UserService) View(u models.User) models.UserView {
	view := models.UserView{User: u, Name: u.Name()}
	if s.devices != nil {
		view.Devices = s.devices.CountOwned(u.ID)
	}
	return view
}

// List returns users whose name or email contains q, case-insensitively.
func (s *UserService) List(q string) []models.UserView {
	q = strings.ToLower(strings.TrimSpace(q))
	var out []models.UserView
	for _, u := range s.users.List() {
		if q != "" && !strings.Contains(strings.ToLower(u.Name()), q) && !strings.Contains(u.Email, q) {
			continue
		}
		out = append(out, s.View(u))
	}
	return out
}

func (req UserRequest) validate() error {
	v := &ValidationError{}
	validateProfile(v, req.FirstName, req.LastName, req.Email)
	if phone := strings.TrimSpace(req.WhatsappNumber); phone != "" && !whatsappPattern.MatchString(phone) {
		v.add("whatsappNumber", "Invalid WhatsApp number format.")
	}
	switch req.Status {
	case "", models.UserStatusPending, models.UserStatusActive, models.UserStatusRejected:
	default:
		v.add("status", "Status must be pending, active or rejected.")
	}
	if req.Password != "" && len(req.Password) < 6 {
		v.add("password", "Password must be at least 6 characters.")
	}
	return v.err()
}

// Create adds an active account with a Basic plan unless the request says otherwise.
func (s *UserService) Create(req UserRequest) (models.UserView, error) {
	if err := req.validate(); err != nil {
		return models.UserView{}, err
	}
	now := s.now()
	u := models.User{
		ID:             uuid.NewString(),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          normalizeEmail(req.Email),
		WhatsappNumber: strings.TrimSpace(req.WhatsappNumber),
		CompanyName:    strings.TrimSpace(req.CompanyName),
		AvatarURL:      req.AvatarURL,
		Status:         models.UserStatusActive,
		Subscription:   models.Subscription{PlanName: string(plans.TierBasic), ExpiryDate: now.Add(plans.SubscriptionPeriod)},
		JoinedDate:     now,
	}
	if req.Status != "" {
		u.Status = req.Status
	}
	if req.Subscription != nil {
		u.Subscription = normalizeSubscription(*req.Subscription)
	}
	if req.Password != "" {
		hash, err := s.hash(req.Password)
		if err != nil {
			return models.UserView{}, err
		}
		u.PasswordHash = hash
	}
	if err := s.reserveEmail(u.Email, u.ID); err != nil {
		return models.UserView{}, err
	}
	s.users.Put(u.ID, u)
	return s.View(u), nil
}

func normalizeSubscription(sub models.Subscription) models.Subscription {
	sub.PlanName = string(plans.ParseTier(sub.PlanName))
	return sub
}

// Update replaces the profile, and the status and subscription when given.
func (s *UserService) Update(userID string, req UserRequest) (models.UserView, error) {
	if err := req.validate(); err != nil {
		return models.UserView{}, err
	}
	current, err := s.Get(userID)
	if err != nil {
		return models.UserView{}, err
	}
	email := normalizeEmail(req.Email)
	if email != current.Email {
		if err := s.reserveEmail(email, userID); err != nil {
			return models.UserView{}, err
		}
	}
	var hash []byte
	if req.Password != "" {
		if hash, err = s.hash(req.Password); err != nil {
			return models.UserView{}, err
		}
	}
	u, ok, _ := s.users.Update(userID, func(u *models.User) error {
		u.FirstName = strings.TrimSpace(req.FirstName)
		u.LastName = strings.TrimSpace(req.LastName)
		u.Email = email
		u.WhatsappNumber = strings.TrimSpace(req.WhatsappNumber)
		u.CompanyName = strings.TrimSpace(req.CompanyName)
		u.AvatarURL = req.AvatarURL
		if req.Status != "" {
			u.Status = req.Status
		}
		if req.Subscription != nil {
			u.Subscription = normalizeSubscription(*req.Subscription)
		}
		if hash != nil {
			u.PasswordHash = hash
		}
		return nil
	})
	if !ok {
		s.emails.Delete(email)
		return models.UserView{}, newError(ErrNotFound, "User %s not found.", userID)
	}
	if email != current.Email {
		s.emails.Delete(current.Email)
	}
	return s.View(u), nil
}

// SetStatus moves a user through the approval workflow. Approval sends a welcome notification.
func (s *UserService) SetStatus(userID string, status models.UserStatus) (models.UserView, error) {
	u, ok, _ := s.users.Update(userID, func(u *models.User) error {
		u.Status = status
		return nil
	})
	if !ok {
		return models.UserView{}, newError(ErrNotFound, "User %s not found.", userID)
	}
	if status == models.UserStatusActive && s.notifications != nil {
		s.notifications.Notify(userID, "Welcome to IoT Guardian! Your account has been approved.", models.NotificationSystem)
	}
	logx.Info().Str("userId", userID).Str("status", string(status)).Msg("User status changed")
	return s.View(u), nil
}

func (s *UserService) Delete(userID string) error {
	u, ok := s.users.Get(userID)
	if !ok || !s.users.Delete(userID) {
		return newError(ErrNotFound, "User %s not found.", userID)
	}
	s.emails.Delete(u.Email)
	for _, fn := range s.onDelete {
		fn(userID)
	}
	return nil
}

// ActivatePlan grants tier for units subscription periods. Renewing the active tier extends its expiry.
func (s *UserService) ActivatePlan(userID string, tier plans.Tier, units int) (models.Subscription, error) {
	if units < 1 {
		units = 1
	}
	u, ok, _ := s.users.Update(userID, func(u *models.User) error {
		now := s.now()
		start := now
		if plans.Effective(u.Subscription, now) == tier {
			start = u.Subscription.ExpiryDate
		}
		u.Subscription = models.Subscription{
			PlanName:   string(tier),
			ExpiryDate: start.Add(time.Duration(units) * plans.SubscriptionPeriod),
		}
		return nil
	})
	if !ok {
		return models.Subscription{}, newError(ErrNotFound, "User %s not found.", userID)
	}
	return u.Subscription, nil
}

func (s *UserService) ActiveUserIDs() []string {
	var ids []string
	for _, u := range s.users.List() {
		if u.Status == models.UserStatusActive {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

// BroadcastToActive sends an admin notification to every active user.
func (s *UserService) BroadcastToActive(message string) (int, error) {
	return s.notifications.Broadcast(message, s.ActiveUserIDs())
}

// SubscriptionInfo is the caller's plan summary.
type SubscriptionInfo struct {
	models.Subscription
	Plan           plans.Tier     `json:"plan"`
	Active         bool           `json:"active"`
	DaysRemaining  string         `json:"daysRemaining"`
	Features       plans.Features `json:"features"`
	UpgradeOptions []plans.Plan   `json:"upgradeOptions"`
}

func (s *UserService) SubscriptionInfo(userID string) (SubscriptionInfo, error) {
	u, err := s.Get(userID)
	if err != nil {
		return SubscriptionInfo{}, err
	}
	now := s.now()
	tier := plans.Effective(u.Subscription, now)
	options := plans.UpgradeOptions(tier)
	if options == nil {
		options = []plans.Plan{}
	}
	return SubscriptionInfo{
		Subscription:   u.Subscription,
		Plan:           tier,
		Active:         plans.Active(u.Subscription, now),
		DaysRemaining:  plans.DaysRemaining(u.Subscription, now),
		Features:       plans.FeaturesFor(tier),
		UpgradeOptions: options,
	}, nil
}
