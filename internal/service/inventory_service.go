package service

import (
    "context"
    "errors"
    "time"

    "github.com/google/uuid"
    "github.com/hwmart-pos/pos-service/internal/domain"
    "github.com/hwmart-pos/pos-service/internal/repository"
    "go.uber.org/zap"
)

func newProductID() string {
    return "PRD-" + uuid.NewString()
}

var (
    ErrProductNotFound   = errors.New("product not found")
    ErrProductExists     = errors.New("product already exists")
    ErrInsufficientStock = errors.New("insufficient stock")
    ErrInvalidUnit       = errors.New("invalid unit")
    ErrInvalidCategory   = errors.New("invalid category")
)

// ProductStore는 상품/재고 영속 계층. 구현은 repository.ProductRepository.
type ProductStore interface {
    CreateProduct(ctx context.Context, product *domain.Product) error
    GetProduct(ctx context.Context, productID string) (*domain.Product, error)
    ListProducts(ctx context.Context, category string) ([]domain.Product, error)
    LowStockProducts(ctx context.Context) ([]domain.Product, error)
    DeactivateProduct(ctx context.Context, productID string) error
    DeductStock(ctx context.Context, productID string, quantity int) (newStock int, previousStock int, err error)
    RestoreStock(ctx context.Context, productID string, quantity int) (newStock int, err error)
}

// InventoryService는 재고 원장. 수량을 바꾸는 유일한 컴포넌트다.
type InventoryService struct {
    productStore ProductStore
    logger       *zap.Logger
}

func NewInventoryService(productStore ProductStore, logger *zap.Logger) *InventoryService {
    return &InventoryService{
        productStore: productStore,
        logger:       logger,
    }
}

func (s *InventoryService) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
    if !domain.ValidUnit(req.Unit) {
        return nil, ErrInvalidUnit
    }
    if !domain.ValidCategory(req.Category) {
        return nil, ErrInvalidCategory
    }

    productID := req.ProductID
    if productID == "" {
        productID = newProductID()
    }

    // 중복 체크
    existing, _ := s.productStore.GetProduct(ctx, productID)
    if existing != nil {
        return nil, ErrProductExists
    }

    minStock := req.MinStockLevel
    if minStock == 0 {
        minStock = 10
    }

    product := &domain.Product{
        ProductID:     productID,
        ProductName:   req.ProductName,
        SizePackage:   req.SizePackage,
        Unit:          req.Unit,
        Category:      req.Category,
        SalePrice:     req.SalePrice,
        PurchasePrice: req.PurchasePrice,
        Discount:      req.Discount,
        Quantity:      req.Quantity,
        MinStockLevel: minStock,
        Barcode:       req.Barcode,
        Supplier:      req.Supplier,
        IsActive:      true,
        CreatedAt:     time.Now(),
        UpdatedAt:     time.Now(),
    }

    if err := s.productStore.CreateProduct(ctx, product); err != nil {
        s.logger.Error("Failed to save product",
            zap.String("product_id", product.ProductID),
            zap.Error(err))
        return nil, err
    }

    s.logger.Info("Product created successfully",
        zap.String("product_id", product.ProductID),
        zap.Int("initial_stock", product.Quantity))

    return product, nil
}

func (s *InventoryService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
    product, err := s.productStore.GetProduct(ctx, productID)
    if err != nil {
        if errors.Is(err, repository.ErrProductNotFound) {
            return nil, ErrProductNotFound
        }
        return nil, err
    }
    return product, nil
}

func (s *InventoryService) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
    return s.productStore.ListProducts(ctx, category)
}

func (s *InventoryService) LowStockProducts(ctx context.Context) ([]domain.Product, error) {
    return s.productStore.LowStockProducts(ctx)
}

func (s *InventoryService) DeactivateProduct(ctx context.Context, productID string) error {
    err := s.productStore.DeactivateProduct(ctx, productID)
    if err != nil {
        if errors.Is(err, repository.ErrProductNotFound) {
            return ErrProductNotFound
        }
        return err
    }
    s.logger.Info("Product deactivated", zap.String("product_id", productID))
    return nil
}

// CheckAvailability는 advisory 선검사. 실제 보장은 Deduct의 조건부 갱신이 한다.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string, quantity int) (available bool, current int, err error) {
    product, err := s.productStore.GetProduct(ctx, productID)
    if err != nil {
        if errors.Is(err, repository.ErrProductNotFound) {
            return false, 0, ErrProductNotFound
        }
        return false, 0, err
    }
    if !product.IsActive {
        return false, 0, ErrProductNotFound
    }
    return product.Quantity >= quantity, product.Quantity, nil
}

// Deduct는 조건부 원자 감소. 동시 판매가 같은 상품을 두고 경합해도
// 재고가 음수로 내려가지 않는다.
func (s *InventoryService) Deduct(ctx context.Context, productID string, quantity int) (*domain.StockAdjustmentResponse, error) {
    newStock, previousStock, err := s.productStore.DeductStock(ctx, productID, quantity)

    result := &domain.StockAdjustmentResponse{
        ProductID:     productID,
        PreviousStock: previousStock,
        NewStock:      newStock,
        Adjusted:      -quantity,
    }

    if err != nil {
        if errors.Is(err, repository.ErrProductNotFound) {
            return result, ErrProductNotFound
        }
        if errors.Is(err, repository.ErrInsufficientStock) {
            return result, ErrInsufficientStock
        }
        return nil, err
    }

    s.logger.Info("Stock deducted successfully",
        zap.String("product_id", productID),
        zap.Int("previous_stock", previousStock),
        zap.Int("deducted", quantity),
        zap.Int("new_stock", newStock))

    return result, nil
}

// Restore는 차감의 역연산. 상한 검사 없음 — 복원은 항상 안전하다.
func (s *InventoryService) Restore(ctx context.Context, productID string, quantity int) (*domain.StockAdjustmentResponse, error) {
    newStock, err := s.productStore.RestoreStock(ctx, productID, quantity)
    if err != nil {
        return nil, err
    }

    s.logger.Info("Stock restored",
        zap.String("product_id", productID),
        zap.Int("restored", quantity),
        zap.Int("new_stock", newStock))

    return &domain.StockAdjustmentResponse{
        ProductID: productID,
        NewStock:  newStock,
        Adjusted:  quantity,
    }, nil
}
