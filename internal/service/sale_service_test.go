package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hwmart-pos/pos-service/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestPostSale_Success(t *testing.T) {
	svc, products, sales, publisher := newTestSaleService(
		testProduct("P1", "PVC Pipe 1/2in", 10),
	)
	svc.now = fixedClock(time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC))

	req := domain.CreateSaleRequest{
		Items: []domain.SaleItemRequest{
			{ProductID: "P1", Quantity: 2, UnitPrice: 100, Discount: 10, DiscountType: domain.DiscountPercentage},
		},
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    200,
	}

	sale, err := svc.PostSale(context.Background(), req, "staff-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sale.InvoiceNumber != "INV-20250307-0001" {
		t.Errorf("expected invoice INV-20250307-0001, got %q", sale.InvoiceNumber)
	}
	if sale.Subtotal != 200 {
		t.Errorf("expected subtotal 200, got %v", sale.Subtotal)
	}
	if sale.ItemDiscounts != 20 {
		t.Errorf("expected item discounts 20, got %v", sale.ItemDiscounts)
	}
	if sale.GrandTotal != 180 {
		t.Errorf("expected grand total 180, got %v", sale.GrandTotal)
	}
	if sale.Change != 20 {
		t.Errorf("expected change 20, got %v", sale.Change)
	}
	if sale.StockStatus != domain.StockApplied {
		t.Errorf("expected stock status applied, got %q", sale.StockStatus)
	}
	if sale.SoldBy != "staff-1" {
		t.Errorf("expected sold_by staff-1, got %q", sale.SoldBy)
	}
	if sale.Items[0].ProductName != "PVC Pipe 1/2in" {
		t.Errorf("expected product name snapshot, got %q", sale.Items[0].ProductName)
	}

	// 재고는 요청 수량만큼만 감소
	if got := products.quantity("P1"); got != 8 {
		t.Errorf("expected stock 8 after sale, got %d", got)
	}
	if sales.count() != 1 {
		t.Errorf("expected exactly one persisted sale, got %d", sales.count())
	}
	if len(publisher.posted) != 1 {
		t.Errorf("expected one sale posted event, got %d", len(publisher.posted))
	}
}

func TestPostSale_OrderFixedDiscountCapped(t *testing.T) {
	svc, _, _, _ := newTestSaleService(testProduct("P1", "Hammer", 10))

	req := domain.CreateSaleRequest{
		Items: []domain.SaleItemRequest{
			{ProductID: "P1", Quantity: 1, UnitPrice: 100, Discount: 50, DiscountType: domain.DiscountFixed},
		},
		GlobalDiscount:     80,
		GlobalDiscountType: domain.DiscountFixed,
		PaymentMethod:      domain.PaymentCard,
		PaidAmount:         0,
	}

	sale, err := svc.PostSale(context.Background(), req, "staff-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sale.GlobalDiscountAmount != 50 {
		t.Errorf("expected order discount capped at 50, got %v", sale.GlobalDiscountAmount)
	}
	if sale.GrandTotal != 0 {
		t.Errorf("expected grand total 0, got %v", sale.GrandTotal)
	}
}

func TestPostSale_InsufficientStock(t *testing.T) {
	svc, products, sales, _ := newTestSaleService(
		testProduct("P1", "Screwdriver", 10),
		testProduct("P2", "Wrench", 3),
	)

	req := domain.CreateSaleRequest{
		Items: []domain.SaleItemRequest{
			{ProductID: "P1", Quantity: 2, UnitPrice: 100},
			{ProductID: "P2", Quantity: 5, UnitPrice: 50},
		},
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    1000,
	}

	_, err := svc.PostSale(context.Background(), req, "staff-1")
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %T", err)
	}
	if stockErr.ProductID != "P2" || stockErr.Available != 3 || stockErr.Requested != 5 {
		t.Errorf("unexpected error details: %+v", stockErr)
	}

	// 부분 차감 없음
	if got := products.quantity("P1"); got != 10 {
		t.Errorf("expected P1 stock unchanged at 10, got %d", got)
	}
	if got := products.quantity("P2"); got != 3 {
		t.Errorf("expected P2 stock unchanged at 3, got %d", got)
	}
	if sales.count() != 0 {
		t.Errorf("expected no persisted sale, got %d", sales.count())
	}
}

func TestPostSale_ProductNotFound(t *testing.T) {
	svc, _, sales, _ := newTestSaleService(testProduct("P1", "Nails", 10))

	req := domain.CreateSaleRequest{
		Items: []domain.SaleItemRequest{
			{ProductID: "P1", Quantity: 1, UnitPrice: 10},
			{ProductID: "GHOST", Quantity: 1, UnitPrice: 10},
		},
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    100,
	}

	_, err := svc.PostSale(context.Background(), req, "staff-1")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected product not found error, got %v", err)
	}

	var notFound *ProductNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ProductNotFoundError, got %T", err)
	}
	if notFound.ProductID != "GHOST" || notFound.Line != 1 {
		t.Errorf("unexpected error details: %+v", notFound)
	}
	if sales.count() != 0 {
		t.Errorf("expected no persisted sale, got %d", sales.count())
	}
}

func TestPostSale_InactiveProductTreatedAsMissing(t *testing.T) {
	inactive := testProduct("P1", "Discontinued Paint", 10)
	inactive.IsActive = false
	svc, _, _, _ := newTestSaleService(inactive)

	req := domain.CreateSaleRequest{
		Items:         []domain.SaleItemRequest{{ProductID: "P1", Quantity: 1, UnitPrice: 10}},
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    100,
	}

	_, err := svc.PostSale(context.Background(), req, "staff-1")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected product not found for inactive product, got %v", err)
	}
}

func TestPostSale_InsufficientPayment(t *testing.T) {
	svc, products, sales, _ := newTestSaleService(testProduct("P1", "Drill", 10))

	req := domain.CreateSaleRequest{
		Items:         []domain.SaleItemRequest{{ProductID: "P1", Quantity: 1, UnitPrice: 500}},
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    300,
	}

	_, err := svc.PostSale(context.Background(), req, "staff-1")
	if !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("expected insufficient payment error, got %v", err)
	}
	if got := products.quantity("P1"); got != 10 {
		t.Errorf("expected stock unchanged, got %d", got)
	}
	if sales.count() != 0 {
		t.Errorf("expected no persisted sale, got %d", sales.count())
	}
}

func TestPostSale_ValidationErrors(t *testing.T) {
	svc, _, _, _ := newTestSaleService(testProduct("P1", "Tape", 10))

	_, err := svc.PostSale(context.Background(), domain.CreateSaleRequest{
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    10,
	}, "staff-1")
	if !errors.Is(err, ErrEmptySale) {
		t.Errorf("expected empty sale error, got %v", err)
	}

	_, err = svc.PostSale(context.Background(), domain.CreateSaleRequest{
		Items:         []domain.SaleItemRequest{{ProductID: "P1", Quantity: 1, UnitPrice: 10}},
		PaymentMethod: "barter",
		PaidAmount:    10,
	}, "staff-1")
	if !errors.Is(err, ErrInvalidPaymentMethod) {
		t.Errorf("expected invalid payment method error, got %v", err)
	}
}

func TestPostSale_PersistenceFailureLeavesStockUntouched(t *testing.T) {
	svc, products, saleStore, _ := newTestSaleService(testProduct("P1", "Rope", 10))
	saleStore.createErr = errors.New("store unavailable")

	req := domain.CreateSaleRequest{
		Items:         []domain.SaleItemRequest{{ProductID: "P1", Quantity: 2, UnitPrice: 10}},
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    100,
	}

	_, err := svc.PostSale(context.Background(), req, "staff-1")
	if err == nil {
		t.Fatal("expected error from failed persistence")
	}
	if got := products.quantity("P1"); got != 10 {
		t.Errorf("expected stock unchanged after persistence failure, got %d", got)
	}
}

func TestPostSale_DuplicateInvoiceRetries(t *testing.T) {
	svc, _, saleStore, _ := newTestSaleService(testProduct("P1", "Bolt", 10))
	svc.now = fixedClock(time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC))
	saleStore.dupRemaining = 1

	req := domain.CreateSaleRequest{
		Items:         []domain.SaleItemRequest{{ProductID: "P1", Quantity: 1, UnitPrice: 10}},
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    100,
	}

	sale, err := svc.PostSale(context.Background(), req, "staff-1")
	if err != nil {
		t.Fatalf("expected retry to recover from duplicate invoice, got %v", err)
	}
	// 첫 발급(0001)이 충돌했으므로 재발급된 번호여야 한다
	if sale.InvoiceNumber != "INV-20250307-0002" {
		t.Errorf("expected reallocated invoice INV-20250307-0002, got %q", sale.InvoiceNumber)
	}
}

func TestPostSale_DuplicateInvoiceExhaustsRetries(t *testing.T) {
	svc, _, saleStore, _ := newTestSaleService(testProduct("P1", "Bolt", 10))
	saleStore.dupRemaining = maxInvoiceAttempts

	req := domain.CreateSaleRequest{
		Items:         []domain.SaleItemRequest{{ProductID: "P1", Quantity: 1, UnitPrice: 10}},
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    100,
	}

	_, err := svc.PostSale(context.Background(), req, "staff-1")
	if !errors.Is(err, ErrInvoiceConflict) {
		t.Fatalf("expected invoice conflict after exhausted retries, got %v", err)
	}
}

func TestPostSale_PartialStockApplyFlagsReconciliation(t *testing.T) {
	svc, products, saleStore, publisher := newTestSaleService(
		testProduct("P1", "Cement", 10),
		testProduct("P2", "Sand", 10),
	)
	// P2 차감만 저장소 단계에서 실패
	products.deductErr["P2"] = errors.New("provisioned throughput exceeded")

	req := domain.CreateSaleRequest{
		Items: []domain.SaleItemRequest{
			{ProductID: "P1", Quantity: 2, UnitPrice: 10},
			{ProductID: "P2", Quantity: 3, UnitPrice: 10},
		},
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    100,
	}

	sale, err := svc.PostSale(context.Background(), req, "staff-1")
	if err != nil {
		t.Fatalf("partial stock failure should not fail the posted sale, got %v", err)
	}

	if sale.StockStatus != domain.StockFailed {
		t.Errorf("expected stock status failed, got %q", sale.StockStatus)
	}
	if len(sale.StockFailures) != 1 || sale.StockFailures[0] != "P2" {
		t.Errorf("expected P2 flagged, got %v", sale.StockFailures)
	}

	// 판매 레코드에도 기록되어야 한다
	stored, err := saleStore.GetSale(context.Background(), sale.InvoiceNumber)
	if err != nil {
		t.Fatalf("expected sale to remain persisted: %v", err)
	}
	if stored.StockStatus != domain.StockFailed {
		t.Errorf("expected persisted stock status failed, got %q", stored.StockStatus)
	}

	if len(publisher.reconciliations) != 1 {
		t.Errorf("expected one reconciliation event, got %d", len(publisher.reconciliations))
	}
	if got := products.quantity("P1"); got != 8 {
		t.Errorf("expected P1 deducted to 8, got %d", got)
	}
	if got := products.quantity("P2"); got != 10 {
		t.Errorf("expected P2 unchanged at 10, got %d", got)
	}
}

func TestPostSale_ConcurrentSalesNeverOversell(t *testing.T) {
	svc, products, sales, _ := newTestSaleService(testProduct("P1", "Ladder", 5))

	req := domain.CreateSaleRequest{
		Items:         []domain.SaleItemRequest{{ProductID: "P1", Quantity: 5, UnitPrice: 10}},
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    100,
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.PostSale(context.Background(), req, "staff-1")
		}(i)
	}
	wg.Wait()

	var successes, stockFailures int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInsufficientStock):
			stockFailures++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if successes != 1 || stockFailures != 1 {
		t.Errorf("expected exactly one success and one stock failure, got %d/%d", successes, stockFailures)
	}
	if got := products.quantity("P1"); got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
	if got := products.quantity("P1"); got < 0 {
		t.Errorf("stock must never go negative, got %d", got)
	}
	if sales.count() != 1 {
		t.Errorf("expected exactly one persisted sale, got %d", sales.count())
	}
}

func TestPostSale_ConcurrentInvoiceNumbersUnique(t *testing.T) {
	svc, _, _, _ := newTestSaleService(testProduct("P1", "Paint Can", 1000))
	svc.now = fixedClock(time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC))

	const n = 20
	var wg sync.WaitGroup
	invoices := make([]string, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sale, err := svc.PostSale(context.Background(), domain.CreateSaleRequest{
				Items:         []domain.SaleItemRequest{{ProductID: "P1", Quantity: 1, UnitPrice: 10}},
				PaymentMethod: domain.PaymentCash,
				PaidAmount:    100,
			}, "staff-1")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			invoices[i] = sale.InvoiceNumber
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, inv := range invoices {
		if inv == "" {
			continue
		}
		if seen[inv] {
			t.Errorf("duplicate invoice number issued: %s", inv)
		}
		seen[inv] = true
	}
}

func TestRefundSale_RestoresStockAndRemovesSale(t *testing.T) {
	svc, products, sales, publisher := newTestSaleService(
		testProduct("P1", "Tile", 10),
		testProduct("P2", "Grout", 10),
	)

	sale, err := svc.PostSale(context.Background(), domain.CreateSaleRequest{
		Items: []domain.SaleItemRequest{
			{ProductID: "P1", Quantity: 4, UnitPrice: 10},
			{ProductID: "P2", Quantity: 2, UnitPrice: 20},
		},
		PaymentMethod: domain.PaymentCash,
		PaidAmount:    100,
	}, "staff-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.RefundSale(context.Background(), sale.InvoiceNumber); err != nil {
		t.Fatalf("unexpected refund error: %v", err)
	}

	if got := products.quantity("P1"); got != 10 {
		t.Errorf("expected P1 restored to 10, got %d", got)
	}
	if got := products.quantity("P2"); got != 10 {
		t.Errorf("expected P2 restored to 10, got %d", got)
	}
	if sales.count() != 0 {
		t.Errorf("expected sale removed after refund, got %d", sales.count())
	}
	if len(publisher.refunded) != 1 {
		t.Errorf("expected one refund event, got %d", len(publisher.refunded))
	}

	// 이미 환불된 판매는 다시 환불할 수 없다
	if err := svc.RefundSale(context.Background(), sale.InvoiceNumber); !errors.Is(err, ErrSaleNotFound) {
		t.Errorf("expected sale not found on double refund, got %v", err)
	}
}

func TestListSalesByDay(t *testing.T) {
	svc, _, _, _ := newTestSaleService(testProduct("P1", "Pipe", 100))
	svc.now = fixedClock(time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		if _, err := svc.PostSale(context.Background(), domain.CreateSaleRequest{
			Items:         []domain.SaleItemRequest{{ProductID: "P1", Quantity: 1, UnitPrice: 10}},
			PaymentMethod: domain.PaymentCash,
			PaidAmount:    10,
		}, "staff-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	sales, err := svc.ListSalesByDay(context.Background(), "2025-03-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sales) != 3 {
		t.Errorf("expected 3 sales, got %d", len(sales))
	}

	sales, err = svc.ListSalesByDay(context.Background(), "2025-03-08")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sales) != 0 {
		t.Errorf("expected no sales on another day, got %d", len(sales))
	}
}
