package product

import (
	"time"

	"gorm.io/gorm"
)

// Status is the catalog status of a product.
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusOutOfStock Status = "out_of_stock"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusOutOfStock:
		return true
	}
	return false
}

// Product represents a product in the catalog.
type Product struct {
	ID          string    `gorm:"primarykey;size:36" json:"id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"size:100;not null;index" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	Price       float64   `gorm:"not null" json:"price"`
	OfferPrice  *float64  `json:"offer_price,omitempty"`
	Quantity    int       `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	Status      Status    `gorm:"size:16;not null;default:active" json:"status"`
	Image       string    `gorm:"size:500" json:"image,omitempty"`
	Version     int       `gorm:"not null;default:1" json:"version"`
}

// TableName returns the table name for Product model.
func (Product) TableName() string {
	return "products"
}

// EffectivePrice is the offer price while a promotion is active, otherwise the base price.
func (p *Product) EffectivePrice() float64 {
	if p.OfferPrice != nil {
		return *p.OfferPrice
	}
	return p.Price
}

// Normalize keeps Status consistent with Quantity.
// An inactive product stays inactive regardless of stock.
func (p *Product) Normalize() {
	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.Status == StatusInactive {
		return
	}
	if p.Quantity == 0 {
		p.Status = StatusOutOfStock
	} else if p.Status == StatusOutOfStock {
		p.Status = StatusActive
	}
}

// BeforeSave runs Normalize on every Create and Save.
func (p *Product) BeforeSave(_ *gorm.DB) error {
	p.Normalize()
	return nil
}
