package events

import (
    "time"
)

type SaleItemEvent struct {
    ProductID   string `json:"product_id"`
    ProductName string `json:"product_name"`
    Quantity    int    `json:"quantity"`
}

// 판매 확정 이벤트
type SalePostedEvent struct {
    EventID       string          `json:"event_id"`
    InvoiceNumber string          `json:"invoice_number"`
    GrandTotal    float64         `json:"grand_total"`
    PaymentMethod string          `json:"payment_method"`
    Items         []SaleItemEvent `json:"items"`
    StockStatus   string          `json:"stock_status"`
    SoldBy        string          `json:"sold_by"`
    Timestamp     time.Time       `json:"timestamp"`
}

// 환불 이벤트
type SaleRefundedEvent struct {
    EventID       string          `json:"event_id"`
    InvoiceNumber string          `json:"invoice_number"`
    Items         []SaleItemEvent `json:"items"`
    Timestamp     time.Time       `json:"timestamp"`
}

// 판매는 커밋됐지만 재고 반영이 끝나지 않은 상태 — 운영자 개입 필요
type ReconciliationRequiredEvent struct {
    EventID       string    `json:"event_id"`
    InvoiceNumber string    `json:"invoice_number"`
    ProductIDs    []string  `json:"product_ids"`
    Timestamp     time.Time `json:"timestamp"`
}

// 구매(입고) 시스템에서 받는 이벤트
type GoodsReceivedEvent struct {
    EventID     string              `json:"event_id"`
    ReferenceNo string              `json:"reference_no"`
    Supplier    string              `json:"supplier"`
    Items       []GoodsReceivedItem `json:"items"`
    Timestamp   time.Time           `json:"timestamp"`
}

type GoodsReceivedItem struct {
    ProductID string `json:"product_id"`
    Quantity  int    `json:"quantity"`
}
