package domain

import (
	"fmt"
	"time"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentCredit PaymentMethod = "credit"
	PaymentMixed  PaymentMethod = "mixed"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentCredit, PaymentMixed:
		return true
	}
	return false
}

// 판매 확정 이후 재고 반영 상태 (2단계 결과 모델)
type StockStatus string

const (
	StockPending StockStatus = "pending"
	StockApplied StockStatus = "applied"
	StockFailed  StockStatus = "failed"
)

type SaleItem struct {
	ProductID      string       `dynamodbav:"product_id" json:"product_id"`
	ProductName    string       `dynamodbav:"product_name" json:"product_name"`
	Quantity       int          `dynamodbav:"quantity" json:"quantity"`
	UnitPrice      float64      `dynamodbav:"unit_price" json:"unit_price"`
	Discount       float64      `dynamodbav:"discount" json:"discount"`
	DiscountType   DiscountType `dynamodbav:"discount_type" json:"discount_type"`
	DiscountAmount float64      `dynamodbav:"discount_amount" json:"discount_amount"`
	ItemTotal      float64      `dynamodbav:"item_total" json:"item_total"`
	Total          float64      `dynamodbav:"total" json:"total"`
}

type Customer struct {
	Name    string `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Phone   string `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
	Address string `dynamodbav:"address,omitempty" json:"address,omitempty"`
}

type Sale struct {
	InvoiceNumber        string        `dynamodbav:"invoice_number" json:"invoice_number"`
	SaleDay              string        `dynamodbav:"sale_day" json:"sale_day"`
	Items                []SaleItem    `dynamodbav:"items" json:"items"`
	Subtotal             float64       `dynamodbav:"subtotal" json:"subtotal"`
	ItemDiscounts        float64       `dynamodbav:"item_discounts" json:"item_discounts"`
	GlobalDiscount       float64       `dynamodbav:"global_discount" json:"global_discount"`
	GlobalDiscountType   DiscountType  `dynamodbav:"global_discount_type" json:"global_discount_type"`
	GlobalDiscountAmount float64       `dynamodbav:"global_discount_amount" json:"global_discount_amount"`
	TotalDiscount        float64       `dynamodbav:"total_discount" json:"total_discount"`
	GrandTotal           float64       `dynamodbav:"grand_total" json:"grand_total"`
	PaymentMethod        PaymentMethod `dynamodbav:"payment_method" json:"payment_method"`
	PaidAmount           float64       `dynamodbav:"paid_amount" json:"paid_amount"`
	Change               float64       `dynamodbav:"change" json:"change"`
	Customer             *Customer     `dynamodbav:"customer,omitempty" json:"customer,omitempty"`
	SoldBy               string        `dynamodbav:"sold_by" json:"sold_by"`
	SaleDate             time.Time     `dynamodbav:"sale_date" json:"sale_date"`
	StockStatus          StockStatus   `dynamodbav:"stock_status" json:"stock_status"`
	StockFailures        []string      `dynamodbav:"stock_failures,omitempty" json:"stock_failures,omitempty"`
	CreatedAt            time.Time     `dynamodbav:"created_at" json:"created_at"`
}

type SaleItemRequest struct {
	ProductID    string       `json:"product_id" binding:"required"`
	Quantity     int          `json:"quantity" binding:"required,min=1"`
	UnitPrice    float64      `json:"unit_price" binding:"min=0"`
	Discount     float64      `json:"discount" binding:"min=0"`
	DiscountType DiscountType `json:"discount_type"`
}

type CreateSaleRequest struct {
	Items              []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	GlobalDiscount     float64           `json:"global_discount" binding:"min=0"`
	GlobalDiscountType DiscountType      `json:"global_discount_type"`
	PaymentMethod      PaymentMethod     `json:"payment_method" binding:"required"`
	PaidAmount         float64           `json:"paid_amount" binding:"min=0"`
	Customer           *Customer         `json:"customer"`
}

// ComputeLineTotal은 한 품목의 총액과 할인액을 계산한다.
// percentage: gross * d/100, fixed: min(d, gross) — 라인 총액은 음수가 되지 않는다.
func ComputeLineTotal(quantity int, unitPrice, discount float64, discountType DiscountType) (gross, discountAmount, total float64) {
	gross = float64(quantity) * unitPrice
	if discountType == DiscountPercentage {
		discountAmount = discount / 100 * gross
	} else {
		discountAmount = discount
		if discountAmount > gross {
			discountAmount = gross
		}
	}
	return gross, discountAmount, gross - discountAmount
}

// ComputeOrderDiscount는 품목 할인 적용 후 금액(base)에 대한 주문 단위 할인액.
// fixed 할인은 base를 넘지 않도록 절사한다.
func ComputeOrderDiscount(base, value float64, discountType DiscountType) float64 {
	if value <= 0 {
		return 0
	}
	if discountType == DiscountPercentage {
		return value / 100 * base
	}
	if value > base {
		return base
	}
	return value
}

type SaleTotals struct {
	Items                []SaleItem
	Subtotal             float64
	ItemDiscounts        float64
	GlobalDiscountAmount float64
	TotalDiscount        float64
	GrandTotal           float64
}

// ComputeSaleTotals는 요청 라인 전체의 합계를 계산한다. 상품 이름 스냅샷은
// names에서 가져와 라인에 비정규화로 박아 둔다 (상품 비활성화 이후에도 판매
// 이력이 유지되어야 하므로).
func ComputeSaleTotals(lines []SaleItemRequest, names map[string]string, globalDiscount float64, globalType DiscountType) SaleTotals {
	t := SaleTotals{Items: make([]SaleItem, 0, len(lines))}

	for _, line := range lines {
		gross, discountAmount, total := ComputeLineTotal(line.Quantity, line.UnitPrice, line.Discount, line.DiscountType)
		t.Subtotal += gross
		t.ItemDiscounts += discountAmount
		t.Items = append(t.Items, SaleItem{
			ProductID:      line.ProductID,
			ProductName:    names[line.ProductID],
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			Discount:       line.Discount,
			DiscountType:   line.DiscountType,
			DiscountAmount: discountAmount,
			ItemTotal:      gross,
			Total:          total,
		})
	}

	base := t.Subtotal - t.ItemDiscounts
	t.GlobalDiscountAmount = ComputeOrderDiscount(base, globalDiscount, globalType)
	t.TotalDiscount = t.ItemDiscounts + t.GlobalDiscountAmount

	t.GrandTotal = t.Subtotal - t.TotalDiscount
	if t.GrandTotal < 0 {
		t.GrandTotal = 0
	}
	return t
}

// InvoiceNumber는 일자별 순번 송장 번호를 만든다: INV-YYYYMMDD-NNNN
func InvoiceNumber(day time.Time, seq int) string {
	return fmt.Sprintf("INV-%s-%04d", day.Format("20060102"), seq)
}

// SaleDay는 송장 번호와 일별 조회에 쓰는 날짜 키 (YYYY-MM-DD, 서버 로컬 기준)
func SaleDay(t time.Time) string {
	return t.Format("2006-01-02")
}
