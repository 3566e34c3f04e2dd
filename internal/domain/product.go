package domain

import (
	"time"
)

// 철물점 상품 단위
var ValidUnits = []string{
	// Count
	"piece", "pair", "set", "pack", "box", "bundle", "carton",
	// Weight
	"gram", "kg", "ton",
	// Length
	"inch", "feet", "meter", "roll", "coil",
	// Volume
	"ml", "liter", "gallon", "drum",
	// Area
	"sqft", "sqm",
	// Electrical
	"ampere", "watt",
}

var ValidCategories = []string{"hardware", "electrical", "plumbing", "tools", "paint", "other"}

type Product struct {
	ProductID     string    `dynamodbav:"product_id" json:"product_id"`
	ProductName   string    `dynamodbav:"product_name" json:"product_name"`
	SizePackage   string    `dynamodbav:"size_package" json:"size_package"`
	Unit          string    `dynamodbav:"unit" json:"unit"`
	Category      string    `dynamodbav:"category" json:"category"`
	SalePrice     float64   `dynamodbav:"sale_price" json:"sale_price"`
	PurchasePrice float64   `dynamodbav:"purchase_price" json:"purchase_price"`
	Discount      float64   `dynamodbav:"discount" json:"discount"`
	Quantity      int       `dynamodbav:"quantity" json:"quantity"`
	MinStockLevel int       `dynamodbav:"min_stock_level" json:"min_stock_level"`
	Barcode       string    `dynamodbav:"barcode,omitempty" json:"barcode,omitempty"`
	Supplier      string    `dynamodbav:"supplier,omitempty" json:"supplier,omitempty"`
	IsActive      bool      `dynamodbav:"is_active" json:"is_active"`
	CreatedAt     time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt     time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

// LowStock은 재고가 최소 기준 이하인지 여부
func (p *Product) LowStock() bool {
	return p.Quantity <= p.MinStockLevel
}

func ValidUnit(unit string) bool {
	for _, u := range ValidUnits {
		if u == unit {
			return true
		}
	}
	return false
}

func ValidCategory(category string) bool {
	for _, c := range ValidCategories {
		if c == category {
			return true
		}
	}
	return false
}

type CreateProductRequest struct {
	ProductID     string  `json:"product_id"`
	ProductName   string  `json:"product_name" binding:"required"`
	SizePackage   string  `json:"size_package" binding:"required"`
	Unit          string  `json:"unit" binding:"required"`
	Category      string  `json:"category" binding:"required"`
	SalePrice     float64 `json:"sale_price" binding:"required,min=0"`
	PurchasePrice float64 `json:"purchase_price" binding:"min=0"`
	Discount      float64 `json:"discount" binding:"min=0,max=100"`
	Quantity      int     `json:"quantity" binding:"min=0"`
	MinStockLevel int     `json:"min_stock_level"`
	Barcode       string  `json:"barcode"`
	Supplier      string  `json:"supplier"`
}

type AdjustStockRequest struct {
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Reason   string `json:"reason"`
}

type ProductResponse struct {
	ProductID     string  `json:"product_id"`
	ProductName   string  `json:"product_name"`
	SizePackage   string  `json:"size_package"`
	Unit          string  `json:"unit"`
	Category      string  `json:"category"`
	SalePrice     float64 `json:"sale_price"`
	PurchasePrice float64 `json:"purchase_price"`
	Discount      float64 `json:"discount"`
	Quantity      int     `json:"quantity"`
	MinStockLevel int     `json:"min_stock_level"`
	LowStock      bool    `json:"low_stock"`
	IsActive      bool    `json:"is_active"`
}

func NewProductResponse(p *Product) ProductResponse {
	return ProductResponse{
		ProductID:     p.ProductID,
		ProductName:   p.ProductName,
		SizePackage:   p.SizePackage,
		Unit:          p.Unit,
		Category:      p.Category,
		SalePrice:     p.SalePrice,
		PurchasePrice: p.PurchasePrice,
		Discount:      p.Discount,
		Quantity:      p.Quantity,
		MinStockLevel: p.MinStockLevel,
		LowStock:      p.LowStock(),
		IsActive:      p.IsActive,
	}
}

type StockAdjustmentResponse struct {
	ProductID     string `json:"product_id"`
	PreviousStock int    `json:"previous_stock"`
	NewStock      int    `json:"new_stock"`
	Adjusted      int    `json:"adjusted"`
}
