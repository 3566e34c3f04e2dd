package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hwmart-pos/pos-service/internal/domain"
	"github.com/hwmart-pos/pos-service/internal/service"
	"github.com/hwmart-pos/pos-service/pkg/middleware"
	"go.uber.org/zap"
)

type SaleHandler struct {
	saleService *service.SaleService
	logger      *zap.Logger
}

func NewSaleHandler(saleService *service.SaleService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
		logger:      logger,
	}
}

func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req domain.CreateSaleRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	staffID := middleware.StaffID(c)

	sale, err := h.saleService.PostSale(c.Request.Context(), req, staffID)
	if err != nil {
		var notFound *service.ProductNotFoundError
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":      "Product not found",
				"product_id": notFound.ProductID,
				"line":       notFound.Line + 1,
			})
			return
		}

		var insufficient *service.InsufficientStockError
		if errors.As(err, &insufficient) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":        "Insufficient stock",
				"product_id":   insufficient.ProductID,
				"product_name": insufficient.ProductName,
				"available":    insufficient.Available,
				"requested":    insufficient.Requested,
			})
			return
		}

		switch {
		case errors.Is(err, service.ErrInsufficientPayment):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Insufficient payment",
			})
		case errors.Is(err, service.ErrInvalidPaymentMethod), errors.Is(err, service.ErrEmptySale):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
		case errors.Is(err, service.ErrInvoiceConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Could not allocate invoice number, please retry",
			})
		default:
			h.logger.Error("Failed to create sale", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create sale",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, sale)
}

func (h *SaleHandler) GetSale(c *gin.Context) {
	invoiceNumber := c.Param("invoice")

	sale, err := h.saleService.GetSale(c.Request.Context(), invoiceNumber)
	if err != nil {
		if errors.Is(err, service.ErrSaleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Sale not found",
			})
			return
		}

		h.logger.Error("Failed to get sale",
			zap.String("invoice_number", invoiceNumber),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get sale",
		})
		return
	}

	c.JSON(http.StatusOK, sale)
}

func (h *SaleHandler) ListDailySales(c *gin.Context) {
	sales, err := h.saleService.ListSalesByDay(c.Request.Context(), c.Query("date"))
	if err != nil {
		h.logger.Error("Failed to list sales", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list sales",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sales, "count": len(sales)})
}

func (h *SaleHandler) RefundSale(c *gin.Context) {
	invoiceNumber := c.Param("invoice")

	if err := h.saleService.RefundSale(c.Request.Context(), invoiceNumber); err != nil {
		if errors.Is(err, service.ErrSaleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Sale not found",
			})
			return
		}

		h.logger.Error("Failed to refund sale",
			zap.String("invoice_number", invoiceNumber),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to refund sale",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sale refunded, stock restored"})
}
