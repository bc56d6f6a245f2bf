// Package shop holds the product catalog and turns cart operations into
// game intents.
package shop

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/atmx/clicker-engine/internal/game"
	"github.com/atmx/clicker-engine/internal/model"
)

var (
	ErrUnknownProduct = errors.New("shop: unknown product")
	ErrEmptyCart      = errors.New("shop: cart is empty")
)

var catalog = []model.Product{
	{ID: "1", Name: "Wireless Headphones", Price: decimal.RequireFromString("199.99"), Category: "Electronics",
		Description: "High-quality wireless headphones with noise cancellation", Rating: 4.5, Reviews: 128},
	{ID: "2", Name: "Smart Watch", Price: decimal.RequireFromString("299.99"), Category: "Electronics",
		Description: "Advanced smartwatch with health monitoring features", Rating: 4.3, Reviews: 89},
	{ID: "3", Name: "Coffee Maker", Price: decimal.RequireFromString("79.99"), Category: "Home",
		Description: "Programmable coffee maker with thermal carafe", Rating: 4.1, Reviews: 156},
	{ID: "4", Name: "Running Shoes", Price: decimal.RequireFromString("129.99"), Category: "Sports",
		Description: "Lightweight running shoes with superior comfort", Rating: 4.7, Reviews: 203},
	{ID: "5", Name: "Laptop Backpack", Price: decimal.RequireFromString("59.99"), Category: "Accessories",
		Description: "Durable laptop backpack with multiple compartments", Rating: 4.2, Reviews: 74},
	{ID: "6", Name: "Desk Lamp", Price: decimal.RequireFromString("45.99"), Category: "Home",
		Description: "LED desk lamp with adjustable brightness", Rating: 4.0, Reviews: 92},
	{ID: "7", Name: "Bluetooth Speaker", Price: decimal.RequireFromString("89.99"), Category: "Electronics",
		Description: "Portable Bluetooth speaker with rich sound", Rating: 4.4, Reviews: 167},
	{ID: "8", Name: "Yoga Mat", Price: decimal.RequireFromString("34.99"), Category: "Sports",
		Description: "Non-slip yoga mat for all types of exercises", Rating: 4.6, Reviews: 145},
}

// Store is the part of game.Store the shop needs.
type Store interface {
	Dispatch(in game.Intent) error
	State() game.Snapshot
}

// Shop resolves product ids against the catalog and dispatches cart intents.
type Shop struct {
	store    Store
	products map[string]model.Product
}

// New creates a shop over the built-in catalog.
func New(store Store) *Shop {
	products := make(map[string]model.Product, len(catalog))
	for _, p := range catalog {
		products[p.ID] = p
	}
	return &Shop{store: store, products: products}
}

// Products returns the catalog in display order, optionally restricted to
// category.
func (s *Shop) Products(category string) []model.Product {
	out := make([]model.Product, 0, len(catalog))
	for _, p := range catalog {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns the distinct categories, sorted.
func (s *Shop) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range catalog {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Product looks up id.
func (s *Shop) Product(id string) (model.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return model.Product{}, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	return p, nil
}

// AddToCart adds quantity units of productID.
func (s *Shop) AddToCart(productID string, quantity int) error {
	p, err := s.Product(productID)
	if err != nil {
		return err
	}
	return s.store.Dispatch(game.AddToCart{Product: p, Quantity: quantity})
}

// UpdateQuantity sets the quantity of productID. Zero removes the line.
func (s *Shop) UpdateQuantity(productID string, quantity int) error {
	return s.store.Dispatch(game.UpdateCartQuantity{ProductID: productID, Quantity: quantity})
}

// Remove drops productID from the cart.
func (s *Shop) Remove(productID string) error {
	return s.store.Dispatch(game.RemoveFromCart{ProductID: productID})
}

// Clear empties the cart.
func (s *Shop) Clear() error {
	return s.store.Dispatch(game.ClearCart{})
}

// Receipt describes a placed order.
type Receipt struct {
	Items    model.Cart      `json:"items"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// Checkout charges the current cart total and empties the cart.
func (s *Shop) Checkout() (Receipt, error) {
	cart := s.store.State().State.Cart
	if len(cart) == 0 {
		return Receipt{}, ErrEmptyCart
	}
	total := cart.Total()
	if err := s.store.Dispatch(game.PlaceShopOrder{Total: total}); err != nil {
		return Receipt{}, err
	}
	return Receipt{Items: cart, Quantity: cart.Quantity(), Total: total}, nil
}
