package service

import (
	"math"
	"time"

	"github.com/google/uuid"

	"iotguardian/internal/logx"
	"iotguardian/internal/models"
	"iotguardian/internal/plans"
	"iotguardian/internal/repository"
)

// PlanActivator grants a subscription tier to a user.
type PlanActivator interface {
	ActivatePlan(userID string, tier plans.Tier, units int) (models.Subscription, error)
}

// CartService holds one cart per user and turns it into an order.
type CartService struct {
	carts         *repository.Table[[]models.CartItem]
	catalog       *CatalogService
	plans         PlanActivator
	notifications *NotificationService
	now           func() time.Time
}

func NewCartService(catalog *CatalogService, activator PlanActivator, notifications *NotificationService) *CartService {
	return &CartService{
		carts:         repository.NewTable[[]models.CartItem](),
		catalog:       catalog,
		plans:         activator,
		notifications: notifications,
		now:           time.Now,
	}
}

func summarize(items []models.CartItem) models.Cart {
	cart := models.Cart{Items: []models.CartItem{}}
	var total float64
	for _, it := range items {
		cart.Items = append(cart.Items, it)
		cart.ItemCount += it.Quantity
		total += it.Price * float64(it.Quantity)
	}
	cart.Total = math.Round(total*100) / 100
	return cart
}

func (s *CartService) Get(userID string) models.Cart {
	items, _ := s.carts.Get(userID)
	return summarize(items)
}

// Add puts quantity of a product in the cart, merging with an existing line.
func (s *CartService) Add(userID, productID string, quantity int) (models.Cart, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		v := &ValidationError{}
		v.add("quantity", "Quantity must be positive.")
		return models.Cart{}, v
	}
	p, err := s.catalog.Get(productID)
	if err != nil {
		return models.Cart{}, err
	}
	if err := Purchasable(p); err != nil {
		return models.Cart{}, err
	}
	items, err := s.carts.Upsert(userID, func(items *[]models.CartItem, _ bool) error {
		next := make([]models.CartItem, 0, len(*items)+1)
		merged := false
		for _, it := range *items {
			if it.ID == productID {
				it.Quantity += quantity
				it.Product = p
				merged = true
			}
			next = append(next, it)
		}
		if !merged {
			next = append(next, models.CartItem{Product: p, Quantity: quantity})
		}
		for _, it := range next {
			if it.ID == productID && p.Stock != nil && it.Quantity > *p.Stock {
				return newError(ErrConflict, "Only %d of %s left in stock.", *p.Stock, p.Name)
			}
		}
		*items = next
		return nil
	})
	if err != nil {
		return models.Cart{}, err
	}
	return summarize(items), nil
}

// SetQuantity changes a line's quantity. Zero or less removes it.
func (s *CartService) SetQuantity(userID, productID string, quantity int) (models.Cart, error) {
	if quantity <= 0 {
		return s.Remove(userID, productID)
	}
	found := false
	items, err := s.carts.Upsert(userID, func(items *[]models.CartItem, _ bool) error {
		next := make([]models.CartItem, 0, len(*items))
		for _, it := range *items {
			if it.ID == productID {
				found = true
				if it.Stock != nil && quantity > *it.Stock {
					return newError(ErrConflict, "Only %d of %s left in stock.", *it.Stock, it.Name)
				}
				it.Quantity = quantity
			}
			next = append(next, it)
		}
		*items = next
		return nil
	})
	if err != nil {
		return models.Cart{}, err
	}
	if !found {
		return models.Cart{}, newError(ErrNotFound, "Product %s is not in your cart.", productID)
	}
	return summarize(items), nil
}

func (s *CartService) Remove(userID, productID string) (models.Cart, error) {
	items, _ := s.carts.Upsert(userID, func(items *[]models.CartItem, _ bool) error {
		next := make([]models.CartItem, 0, len(*items))
		for _, it := range *items {
			if it.ID != productID {
				next = append(next, it)
			}
		}
		*items = next
		return nil
	})
	return summarize(items), nil
}

func (s *CartService) Clear(userID string) {
	s.carts.Delete(userID)
}

// planFromCart picks the highest subscription tier in the cart and how many periods were bought.
func planFromCart(items []models.CartItem) (plans.Tier, int) {
	best, units := plans.TierNone, 0
	for _, it := range items {
		if it.Category != models.CategorySubscription {
			continue
		}
		id := it.PlanID
		if id == "" {
			id = it.Name
		}
		tier := plans.ParseTier(id)
		switch {
		case plans.Higher(tier, best):
			best, units = tier, it.Quantity
		case tier == best && tier != plans.TierNone:
			units += it.Quantity
		}
	}
	return best, units
}

// Checkout reserves stock, activates any purchased plan, and empties the cart.
func (s *CartService) Checkout(userID string) (models.Order, error) {
	items, _ := s.carts.Get(userID)
	if len(items) == 0 {
		return models.Order{}, newError(ErrValidation, "Your cart is empty.")
	}
	if err := s.catalog.Reserve(items); err != nil {
		return models.Order{}, err
	}

	cart := summarize(items)
	order := models.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     cart.Items,
		Total:     cart.Total,
		CreatedAt: s.now(),
	}
	if tier, units := planFromCart(items); tier != plans.TierNone {
		sub, err := s.plans.ActivatePlan(userID, tier, units)
		if err != nil {
			s.catalog.release(items)
			return models.Order{}, err
		}
		order.ActivatedPlan = &sub
		s.notifications.Notify(userID, "Your "+string(tier)+" plan is now active. Expires "+sub.ExpiryDate.Format("Jan 2, 2006")+".", models.NotificationSystem)
	}
	s.notifications.Notify(userID, "Thank you for your purchase! Your order has been placed.", models.NotificationSystem)
	s.Clear(userID)

	logx.Info().Str("userId", userID).Str("orderId", order.ID).Float64("total", order.Total).Msg("Checkout completed")
	return order, nil
}
