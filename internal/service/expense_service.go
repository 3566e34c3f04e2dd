package service

import (
    "context"
    "errors"
    "time"

    "github.com/google/uuid"
    "github.com/hwmart-pos/pos-service/internal/domain"
    "go.uber.org/zap"
)

var ErrInvalidExpenseCategory = errors.New("invalid expense category")

type ExpenseStore interface {
    CreateExpense(ctx context.Context, expense *domain.Expense) error
    ListExpenses(ctx context.Context, start, end time.Time, category string) ([]domain.Expense, error)
}

type ExpenseService struct {
    expenseStore ExpenseStore
    logger       *zap.Logger
}

func NewExpenseService(expenseStore ExpenseStore, logger *zap.Logger) *ExpenseService {
    return &ExpenseService{
        expenseStore: expenseStore,
        logger:       logger,
    }
}

func (s *ExpenseService) CreateExpense(ctx context.Context, req domain.CreateExpenseRequest, staffID string) (*domain.Expense, error) {
    if !domain.ValidExpenseCategory(req.Category) {
        return nil, ErrInvalidExpenseCategory
    }

    expenseDate := time.Now()
    if req.ExpenseDate != "" {
        parsed, err := time.Parse("2006-01-02", req.ExpenseDate)
        if err != nil {
            return nil, errors.New("expense_date must be YYYY-MM-DD")
        }
        expenseDate = parsed
    }

    expense := &domain.Expense{
        ExpenseID:     "EXP-" + uuid.NewString(),
        Description:   req.Description,
        Amount:        req.Amount,
        Category:      req.Category,
        ExpenseDate:   expenseDate,
        PaidBy:        req.PaidBy,
        ReceiptNumber: req.ReceiptNumber,
        Notes:         req.Notes,
        AddedBy:       staffID,
        CreatedAt:     time.Now(),
    }

    if err := s.expenseStore.CreateExpense(ctx, expense); err != nil {
        s.logger.Error("Failed to save expense",
            zap.String("expense_id", expense.ExpenseID),
            zap.Error(err))
        return nil, err
    }

    s.logger.Info("Expense recorded",
        zap.String("expense_id", expense.ExpenseID),
        zap.String("category", expense.Category),
        zap.Float64("amount", expense.Amount))

    return expense, nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context, start, end time.Time, category string) ([]domain.Expense, error) {
    if end.IsZero() {
        end = time.Now()
    }
    if start.IsZero() {
        start = end.AddDate(0, -1, 0)
    }
    return s.expenseStore.ListExpenses(ctx, start, end, category)
}
