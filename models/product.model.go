package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Name and Description carry the Mongolian text,
// the En variants the English translation.
type Product struct {
	ID               uint            `gorm:"primaryKey" bson:"_id" json:"id"`
	Name             string          `gorm:"size:255;not null" bson:"name" json:"name"`
	NameEn           string          `gorm:"size:255" bson:"name_en" json:"name_en"`
	Description      string          `gorm:"type:text" bson:"description" json:"description"`
	DescriptionEn    string          `gorm:"type:text" bson:"description_en" json:"description_en"`
	Category         string          `gorm:"size:100;index" bson:"category" json:"category"`
	Price            decimal.Decimal `gorm:"type:decimal(12,2);not null" bson:"price" json:"price"`
	Stock            int             `gorm:"not null;default:0" bson:"stock" json:"stock"`
	MinOrderQuantity int             `gorm:"not null;default:1" bson:"min_order_quantity" json:"min_order_quantity"`
	ImageURL         string          `gorm:"size:512" bson:"image_url" json:"image_url"`
	StoreID          *uint           `gorm:"index" bson:"store_id,omitempty" json:"store_id,omitempty"`
	CreatedAt        time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `bson:"updated_at" json:"updated_at"`
}

// Validate checks the fields an admin must supply.
func (p *Product) Validate() error {
	if p.Name == "" {
		return ValidationError("name is required")
	}
	if p.Price.IsNegative() {
		return ValidationError("price must not be negative")
	}
	if p.Stock < 0 {
		return ValidationError("stock must not be negative")
	}
	if p.MinOrderQuantity < 1 {
		p.MinOrderQuantity = 1
	}
	return nil
}
