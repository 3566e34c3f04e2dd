package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hwmart-pos/pos-service/internal/domain"
	"github.com/hwmart-pos/pos-service/internal/service"
	"github.com/hwmart-pos/pos-service/pkg/middleware"
	"go.uber.org/zap"
)

type ExpenseHandler struct {
	expenseService *service.ExpenseService
	logger         *zap.Logger
}

func NewExpenseHandler(expenseService *service.ExpenseService, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		logger:         logger,
	}
}

func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req domain.CreateExpenseRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), req, middleware.StaffID(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidExpenseCategory) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		h.logger.Error("Failed to create expense", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create expense",
		})
		return
	}

	c.JSON(http.StatusCreated, expense)
}

func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	var start, end time.Time
	var err error

	if v := c.Query("start_date"); v != "" {
		start, err = time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
			return
		}
	}
	if v := c.Query("end_date"); v != "" {
		end, err = time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}
		// end_date 당일 포함
		end = end.Add(24*time.Hour - time.Nanosecond)
	}

	expenses, err := h.expenseService.ListExpenses(c.Request.Context(), start, end, c.Query("category"))
	if err != nil {
		h.logger.Error("Failed to list expenses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list expenses",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": expenses, "count": len(expenses)})
}
