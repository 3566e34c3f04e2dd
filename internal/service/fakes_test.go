package service

import (
	"context"
	"sync"
	"time"

	"github.com/hwmart-pos/pos-service/internal/domain"
	"github.com/hwmart-pos/pos-service/internal/repository"
	"go.uber.org/zap"
)

// 인메모리 ProductStore. 조건 검사와 변이를 한 잠금 아래서 수행해
// DynamoDB 조건부 갱신의 원자성을 흉내낸다.
type memProductStore struct {
	mu        sync.Mutex
	products  map[string]*domain.Product
	deductErr map[string]error
}

func newMemProductStore(products ...*domain.Product) *memProductStore {
	s := &memProductStore{
		products:  make(map[string]*domain.Product),
		deductErr: make(map[string]error),
	}
	for _, p := range products {
		cp := *p
		s.products[p.ProductID] = &cp
	}
	return s
}

func (s *memProductStore) CreateProduct(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *product
	s.products[product.ProductID] = &cp
	return nil
}

func (s *memProductStore) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memProductStore) ListProducts(_ context.Context, category string) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Product
	for _, p := range s.products {
		if !p.IsActive {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *memProductStore) LowStockProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Product
	for _, p := range s.products {
		if p.IsActive && p.Quantity <= p.MinStockLevel {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *memProductStore) DeactivateProduct(_ context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.IsActive = false
	return nil
}

func (s *memProductStore) DeductStock(_ context.Context, productID string, quantity int) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return 0, 0, repository.ErrProductNotFound
	}
	if err, injected := s.deductErr[productID]; injected {
		return 0, p.Quantity, err
	}
	if !p.IsActive || p.Quantity < quantity {
		return 0, p.Quantity, repository.ErrInsufficientStock
	}
	prev := p.Quantity
	p.Quantity -= quantity
	return p.Quantity, prev, nil
}

func (s *memProductStore) RestoreStock(_ context.Context, productID string, quantity int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return 0, repository.ErrProductNotFound
	}
	p.Quantity += quantity
	return p.Quantity, nil
}

func (s *memProductStore) quantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Quantity
}

// 인메모리 SaleStore. 카운터 발급과 중복 송장 거부를 잠금 아래서 수행한다.
type memSaleStore struct {
	mu           sync.Mutex
	sales        map[string]*domain.Sale
	counters     map[string]int
	createErr    error
	dupRemaining int
}

func newMemSaleStore() *memSaleStore {
	return &memSaleStore{
		sales:    make(map[string]*domain.Sale),
		counters: make(map[string]int),
	}
}

func (s *memSaleStore) NextInvoiceSeq(_ context.Context, day string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[day]++
	return s.counters[day], nil
}

func (s *memSaleStore) CreateSale(_ context.Context, sale *domain.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if s.dupRemaining > 0 {
		s.dupRemaining--
		return repository.ErrDuplicateInvoice
	}
	if _, exists := s.sales[sale.InvoiceNumber]; exists {
		return repository.ErrDuplicateInvoice
	}
	cp := *sale
	s.sales[sale.InvoiceNumber] = &cp
	return nil
}

func (s *memSaleStore) GetSale(_ context.Context, invoiceNumber string) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[invoiceNumber]
	if !ok {
		return nil, repository.ErrSaleNotFound
	}
	cp := *sale
	return &cp, nil
}

func (s *memSaleStore) ListSalesByDay(_ context.Context, day string) ([]domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Sale
	for _, sale := range s.sales {
		if sale.SaleDay == day {
			out = append(out, *sale)
		}
	}
	return out, nil
}

func (s *memSaleStore) UpdateStockStatus(_ context.Context, invoiceNumber string, status domain.StockStatus, failures []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[invoiceNumber]
	if !ok {
		return repository.ErrSaleNotFound
	}
	sale.StockStatus = status
	sale.StockFailures = failures
	return nil
}

func (s *memSaleStore) DeleteSale(_ context.Context, invoiceNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sales, invoiceNumber)
	return nil
}

func (s *memSaleStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

// 발행 이벤트를 기록만 하는 publisher
type recordingPublisher struct {
	mu              sync.Mutex
	posted          []string
	refunded        []string
	reconciliations []string
}

func (p *recordingPublisher) PublishSalePosted(sale *domain.Sale) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posted = append(p.posted, sale.InvoiceNumber)
	return nil
}

func (p *recordingPublisher) PublishSaleRefunded(sale *domain.Sale) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refunded = append(p.refunded, sale.InvoiceNumber)
	return nil
}

func (p *recordingPublisher) PublishReconciliationRequired(invoiceNumber string, _ []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reconciliations = append(p.reconciliations, invoiceNumber)
	return nil
}

func testProduct(id, name string, quantity int) *domain.Product {
	return &domain.Product{
		ProductID:     id,
		ProductName:   name,
		SizePackage:   "1pc",
		Unit:          "piece",
		Category:      "hardware",
		SalePrice:     100,
		PurchasePrice: 70,
		Quantity:      quantity,
		MinStockLevel: 5,
		IsActive:      true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func newTestSaleService(products ...*domain.Product) (*SaleService, *memProductStore, *memSaleStore, *recordingPublisher) {
	productStore := newMemProductStore(products...)
	saleStore := newMemSaleStore()
	publisher := &recordingPublisher{}
	logger := zap.NewNop()

	inventory := NewInventoryService(productStore, logger)
	sales := NewSaleService(inventory, saleStore, publisher, logger)
	return sales, productStore, saleStore, publisher
}
