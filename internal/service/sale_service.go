package service

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/hwmart-pos/pos-service/internal/domain"
    "github.com/hwmart-pos/pos-service/internal/repository"
    "go.uber.org/zap"
)

var (
    ErrInsufficientPayment  = errors.New("insufficient payment")
    ErrSaleNotFound         = errors.New("sale not found")
    ErrInvalidPaymentMethod = errors.New("invalid payment method")
    ErrEmptySale            = errors.New("sale must contain at least one item")
    ErrInvoiceConflict      = errors.New("could not allocate a unique invoice number")
)

// 송장 발급 충돌 시 재시도 횟수. 카운터가 유니크를 보장하므로
// 충돌은 비정상 상황이고, 한두 번의 재발급으로 풀려야 한다.
const maxInvoiceAttempts = 3

// ProductNotFoundError는 어느 라인의 어떤 상품이 없는지 알려준다.
type ProductNotFoundError struct {
    ProductID string
    Line      int
}

func (e *ProductNotFoundError) Error() string {
    return fmt.Sprintf("product %s (line %d) not found", e.ProductID, e.Line+1)
}

func (e *ProductNotFoundError) Is(target error) bool {
    return target == ErrProductNotFound
}

// InsufficientStockError는 상품과 가용 수량을 함께 알려준다.
type InsufficientStockError struct {
    ProductID   string
    ProductName string
    Available   int
    Requested   int
}

func (e *InsufficientStockError) Error() string {
    return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
        e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
    return target == ErrInsufficientStock
}

// SaleStore는 판매 레코드 영속 계층. 구현은 repository.SaleRepository.
type SaleStore interface {
    NextInvoiceSeq(ctx context.Context, day string) (int, error)
    CreateSale(ctx context.Context, sale *domain.Sale) error
    GetSale(ctx context.Context, invoiceNumber string) (*domain.Sale, error)
    ListSalesByDay(ctx context.Context, day string) ([]domain.Sale, error)
    UpdateStockStatus(ctx context.Context, invoiceNumber string, status domain.StockStatus, failures []string) error
    DeleteSale(ctx context.Context, invoiceNumber string) error
}

// EventPublisher는 판매/재고 이벤트 발행용 인터페이스. nil이면 발행 생략.
type EventPublisher interface {
    PublishSalePosted(sale *domain.Sale) error
    PublishSaleRefunded(sale *domain.Sale) error
    PublishReconciliationRequired(invoiceNumber string, failures []string) error
}

// SaleService는 바스켓을 내부적으로 일관된 판매 레코드로 바꾸고
// 재고 효과를 정확히 한 번 적용한다.
type SaleService struct {
    inventory *InventoryService
    saleStore SaleStore
    events    EventPublisher
    logger    *zap.Logger
    now       func() time.Time
}

func NewSaleService(inventory *InventoryService, saleStore SaleStore, events EventPublisher, logger *zap.Logger) *SaleService {
    return &SaleService{
        inventory: inventory,
        saleStore: saleStore,
        events:    events,
        logger:    logger,
        now:       time.Now,
    }
}

// PostSale 처리 순서:
//  1. 전 라인 advisory 가용성 검사 (여기까지는 어떤 변이도 없다)
//  2. 합계/할인 계산
//  3. 결제액 검증
//  4. 일자별 원자 카운터로 송장 번호 발급
//  5. 판매 레코드 커밋 (송장 중복 시 재발급 재시도)
//  6. 라인별 조건부 재고 차감 — 커밋 후 정확히 한 번
//
// 재고 차감은 절대 커밋 전에 일어나지 않는다. 커밋 후 차감이 일부 실패하면
// 판매 레코드에 stock_status=failed로 남기고 reconciliation 이벤트를 발행한다.
func (s *SaleService) PostSale(ctx context.Context, req domain.CreateSaleRequest, staffID string) (*domain.Sale, error) {
    if len(req.Items) == 0 {
        return nil, ErrEmptySale
    }
    if !domain.ValidPaymentMethod(req.PaymentMethod) {
        return nil, ErrInvalidPaymentMethod
    }
    normalizeDiscountTypes(&req)

    // 1. Availability pass — 전 라인 검사가 끝나기 전에는 아무것도 바꾸지 않는다.
    names := make(map[string]string, len(req.Items))
    for i, line := range req.Items {
        product, err := s.inventory.GetProduct(ctx, line.ProductID)
        if err != nil {
            if errors.Is(err, ErrProductNotFound) {
                return nil, &ProductNotFoundError{ProductID: line.ProductID, Line: i}
            }
            return nil, err
        }
        if !product.IsActive {
            return nil, &ProductNotFoundError{ProductID: line.ProductID, Line: i}
        }
        if product.Quantity < line.Quantity {
            return nil, &InsufficientStockError{
                ProductID:   line.ProductID,
                ProductName: product.ProductName,
                Available:   product.Quantity,
                Requested:   line.Quantity,
            }
        }
        names[line.ProductID] = product.ProductName
    }

    // 2, 3. Totals and payment
    totals := domain.ComputeSaleTotals(req.Items, names, req.GlobalDiscount, req.GlobalDiscountType)

    change := req.PaidAmount - totals.GrandTotal
    if change < 0 {
        return nil, ErrInsufficientPayment
    }

    // 4, 5. Invoice allocation + commit, bounded retry on conflict
    sale, err := s.commitSale(ctx, req, totals, change, staffID)
    if err != nil {
        return nil, err
    }

    // 6. Apply stock — 커밋된 판매당 정확히 한 번.
    if err := s.applyStock(ctx, sale); err != nil {
        return nil, err
    }

    if s.events != nil {
        if err := s.events.PublishSalePosted(sale); err != nil {
            s.logger.Error("Failed to publish sale posted event",
                zap.String("invoice_number", sale.InvoiceNumber),
                zap.Error(err))
        }
    }

    s.logger.Info("Sale posted",
        zap.String("invoice_number", sale.InvoiceNumber),
        zap.String("sold_by", staffID),
        zap.Float64("grand_total", sale.GrandTotal),
        zap.String("stock_status", string(sale.StockStatus)))

    return sale, nil
}

func (s *SaleService) commitSale(ctx context.Context, req domain.CreateSaleRequest, totals domain.SaleTotals, change float64, staffID string) (*domain.Sale, error) {
    var lastErr error

    for attempt := 0; attempt < maxInvoiceAttempts; attempt++ {
        now := s.now()
        day := domain.SaleDay(now)

        seq, err := s.saleStore.NextInvoiceSeq(ctx, day)
        if err != nil {
            return nil, fmt.Errorf("invoice allocation failed: %w", err)
        }

        sale := &domain.Sale{
            InvoiceNumber:        domain.InvoiceNumber(now, seq),
            SaleDay:              day,
            Items:                totals.Items,
            Subtotal:             totals.Subtotal,
            ItemDiscounts:        totals.ItemDiscounts,
            GlobalDiscount:       req.GlobalDiscount,
            GlobalDiscountType:   req.GlobalDiscountType,
            GlobalDiscountAmount: totals.GlobalDiscountAmount,
            TotalDiscount:        totals.TotalDiscount,
            GrandTotal:           totals.GrandTotal,
            PaymentMethod:        req.PaymentMethod,
            PaidAmount:           req.PaidAmount,
            Change:               change,
            Customer:             req.Customer,
            SoldBy:               staffID,
            SaleDate:             now,
            StockStatus:          domain.StockPending,
            CreatedAt:            now,
        }

        err = s.saleStore.CreateSale(ctx, sale)
        if err == nil {
            return sale, nil
        }
        if !errors.Is(err, repository.ErrDuplicateInvoice) {
            return nil, fmt.Errorf("sale commit failed: %w", err)
        }

        lastErr = err
        s.logger.Warn("Invoice number conflict, reallocating",
            zap.String("invoice_number", sale.InvoiceNumber),
            zap.Int("attempt", attempt+1))
    }

    return nil, fmt.Errorf("%w: %v", ErrInvoiceConflict, lastErr)
}

// applyStock은 커밋된 판매의 라인별 재고 차감.
//
// 동시 판매가 조건부 차감에서 지면 여기서 실패가 드러난다. 어떤 라인도
// 적용되지 않았으면 재고 효과가 전혀 없으므로 판매 레코드를 무효화하고
// 호출자에게 실패를 그대로 돌려준다. 일부만 적용된 판매는 레코드를 남기되
// stock_status=failed로 기록하고 reconciliation 이벤트로 띄운다 — 어느 쪽도
// 조용히 삼키지 않는다.
func (s *SaleService) applyStock(ctx context.Context, sale *domain.Sale) error {
    var failures []string
    var firstErr error

    for i, item := range sale.Items {
        result, err := s.inventory.Deduct(ctx, item.ProductID, item.Quantity)
        if err == nil {
            continue
        }

        s.logger.Error("Stock deduction failed after sale commit",
            zap.String("invoice_number", sale.InvoiceNumber),
            zap.String("product_id", item.ProductID),
            zap.Int("quantity", item.Quantity),
            zap.Error(err))
        failures = append(failures, item.ProductID)

        if firstErr == nil {
            switch {
            case errors.Is(err, ErrInsufficientStock) && result != nil:
                firstErr = &InsufficientStockError{
                    ProductID:   item.ProductID,
                    ProductName: item.ProductName,
                    Available:   result.PreviousStock,
                    Requested:   item.Quantity,
                }
            case errors.Is(err, ErrProductNotFound):
                firstErr = &ProductNotFoundError{ProductID: item.ProductID, Line: i}
            default:
                firstErr = err
            }
        }
    }

    if len(failures) == 0 {
        sale.StockStatus = domain.StockApplied
        if err := s.saleStore.UpdateStockStatus(ctx, sale.InvoiceNumber, domain.StockApplied, nil); err != nil {
            s.logger.Error("Failed to record stock status",
                zap.String("invoice_number", sale.InvoiceNumber),
                zap.Error(err))
        }
        return nil
    }

    // 전 라인 실패 — 적용된 재고 효과가 없으니 판매를 무효화할 수 있다.
    if len(failures) == len(sale.Items) {
        if delErr := s.saleStore.DeleteSale(ctx, sale.InvoiceNumber); delErr == nil {
            s.logger.Warn("Sale voided, no stock could be applied",
                zap.String("invoice_number", sale.InvoiceNumber),
                zap.Error(firstErr))
            return firstErr
        }
        // 무효화 실패 시에는 아래 reconciliation 경로로 남긴다.
    }

    sale.StockStatus = domain.StockFailed
    sale.StockFailures = failures

    if err := s.saleStore.UpdateStockStatus(ctx, sale.InvoiceNumber, domain.StockFailed, failures); err != nil {
        s.logger.Error("Failed to record stock status",
            zap.String("invoice_number", sale.InvoiceNumber),
            zap.Error(err))
    }

    s.logger.Error("Sale committed with unapplied stock, reconciliation required",
        zap.String("invoice_number", sale.InvoiceNumber),
        zap.Strings("product_ids", failures))
    if s.events != nil {
        if err := s.events.PublishReconciliationRequired(sale.InvoiceNumber, failures); err != nil {
            s.logger.Error("Failed to publish reconciliation event", zap.Error(err))
        }
    }

    return nil
}

// RefundSale은 전 라인 재고 복원 후 판매 레코드를 제거한다. 부분 환불 없음.
func (s *SaleService) RefundSale(ctx context.Context, invoiceNumber string) error {
    sale, err := s.saleStore.GetSale(ctx, invoiceNumber)
    if err != nil {
        if errors.Is(err, repository.ErrSaleNotFound) {
            return ErrSaleNotFound
        }
        return err
    }

    // 복원은 무조건 적용 — 상품 존재 여부 재검사 없음.
    for _, item := range sale.Items {
        if _, err := s.inventory.Restore(ctx, item.ProductID, item.Quantity); err != nil {
            return fmt.Errorf("failed to restore stock for %s: %w", item.ProductID, err)
        }
    }

    if err := s.saleStore.DeleteSale(ctx, invoiceNumber); err != nil {
        return err
    }

    if s.events != nil {
        if err := s.events.PublishSaleRefunded(sale); err != nil {
            s.logger.Error("Failed to publish sale refunded event",
                zap.String("invoice_number", invoiceNumber),
                zap.Error(err))
        }
    }

    s.logger.Info("Sale refunded, stock restored",
        zap.String("invoice_number", invoiceNumber),
        zap.Int("items", len(sale.Items)))

    return nil
}

func (s *SaleService) GetSale(ctx context.Context, invoiceNumber string) (*domain.Sale, error) {
    sale, err := s.saleStore.GetSale(ctx, invoiceNumber)
    if err != nil {
        if errors.Is(err, repository.ErrSaleNotFound) {
            return nil, ErrSaleNotFound
        }
        return nil, err
    }
    return sale, nil
}

// ListSalesByDay는 하루치 판매 목록. day가 비면 오늘.
func (s *SaleService) ListSalesByDay(ctx context.Context, day string) ([]domain.Sale, error) {
    if day == "" {
        day = domain.SaleDay(s.now())
    }
    return s.saleStore.ListSalesByDay(ctx, day)
}

// percentage가 기본 할인 타입 (원본 POS와 동일한 기본값)
func normalizeDiscountTypes(req *domain.CreateSaleRequest) {
    if req.GlobalDiscountType == "" {
        req.GlobalDiscountType = domain.DiscountPercentage
    }
    for i := range req.Items {
        if req.Items[i].DiscountType == "" {
            req.Items[i].DiscountType = domain.DiscountPercentage
        }
    }
}
