package models

import "time"

// CartItem is a product with a quantity.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Cart is the summary returned to clients.
type Cart struct {
	Items     []CartItem `json:"items"`
	ItemCount int        `json:"itemCount"`
	Total     float64    `json:"total"`
}

// Order is the result of a checkout.
type Order struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	Items         []CartItem    `json:"items"`
	Total         float64       `json:"total"`
	ActivatedPlan *Subscription `json:"activatedPlan,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}
