package models

// ProductCategory groups the catalog.
type ProductCategory string

const (
	CategorySensor       ProductCategory = "Sensor"
	CategoryEquipment    ProductCategory = "Equipment"
	CategorySubscription ProductCategory = "Subscription"
)

// Product is a catalog entry. Stock is nil for items without inventory tracking.
type Product struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Price       float64         `json:"price" yaml:"price"`
	ImageURL    string          `json:"imageUrl" yaml:"imageUrl"`
	Category    ProductCategory `json:"category" yaml:"category"`
	Stock       *int            `json:"stock,omitempty" yaml:"stock,omitempty"`
	PlanID      string          `json:"planId,omitempty" yaml:"planId,omitempty"`
}
