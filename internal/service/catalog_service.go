package service

import (
	"strings"

	"iotguardian/internal/models"
	"iotguardian/internal/repository"
)

// CatalogService serves the product catalog and tracks stock.
type CatalogService struct {
	products *repository.Table[models.Product]
}

func NewCatalogService(seed []models.Product) *CatalogService {
	s := &CatalogService{products: repository.NewTable[models.Product]()}
	for _, p := range seed {
		s.products.Put(p.ID, cloneProduct(p))
	}
	return s
}

// cloneProduct detaches the stock pointer so callers cannot mutate stored rows.
func cloneProduct(p models.Product) models.Product {
	if p.Stock != nil {
		n := *p.Stock
		p.Stock = &n
	}
	return p
}

// List filters by a name/description substring and an optional category.
func (s *CatalogService) List(q, category string) []models.Product {
	q = strings.ToLower(strings.TrimSpace(q))
	out := []models.Product{}
	for _, p := range s.products.List() {
		if category != "" && !strings.EqualFold(string(p.Category), category) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	return out
}

func (s *CatalogService) Get(id string) (models.Product, error) {
	p, ok := s.products.Get(id)
	if !ok {
		return models.Product{}, newError(ErrNotFound, "Product %s not found.", id)
	}
	return cloneProduct(p), nil
}

// Purchasable reports why a product cannot go in a cart, if it cannot.
func Purchasable(p models.Product) error {
	if p.Category == models.CategorySubscription && p.Price <= 0 {
		return newError(ErrValidation, "%s is available through our sales team. Please contact sales.", p.Name)
	}
	return nil
}

// Reserve takes stock for every item or for none of them.
func (s *CatalogService) Reserve(items []models.CartItem) error {
	var taken []models.CartItem
	for _, item := range items {
		_, ok, err := s.products.Update(item.ID, func(p *models.Product) error {
			if p.Stock == nil {
				return nil
			}
			if *p.Stock < item.Quantity {
				return newError(ErrConflict, "Only %d of %s left in stock.", *p.Stock, p.Name)
			}
			left := *p.Stock - item.Quantity
			p.Stock = &left
			return nil
		})
		if !ok {
			err = newError(ErrNotFound, "Product %s is no longer available.", item.ID)
		}
		if err != nil {
			s.release(taken)
			return err
		}
		taken = append(taken, item)
	}
	return nil
}

func (s *CatalogService) release(items []models.CartItem) {
	for _, item := range items {
		_, _, _ = s.products.Update(item.ID, func(p *models.Product) error {
			if p.Stock != nil {
				n := *p.Stock + item.Quantity
				p.Stock = &n
			}
			return nil
		})
	}
}
