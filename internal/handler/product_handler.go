package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hwmart-pos/pos-service/internal/domain"
	"github.com/hwmart-pos/pos-service/internal/service"
	"go.uber.org/zap"
)

type ProductHandler struct {
	inventory *service.InventoryService
	logger    *zap.Logger
}

func NewProductHandler(inventory *service.InventoryService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		inventory: inventory,
		logger:    logger,
	}
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req domain.CreateProductRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	product, err := h.inventory.CreateProduct(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductExists):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Product already exists",
			})
		case errors.Is(err, service.ErrInvalidUnit), errors.Is(err, service.ErrInvalidCategory):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
		default:
			h.logger.Error("Failed to create product",
				zap.String("product_name", req.ProductName),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create product",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, domain.NewProductResponse(product))
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID := c.Param("id")

	product, err := h.inventory.GetProduct(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}

		h.logger.Error("Failed to get product",
			zap.String("product_id", productID),
			zap.Error(err))

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get product",
		})
		return
	}

	c.JSON(http.StatusOK, domain.NewProductResponse(product))
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.inventory.ListProducts(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list products",
		})
		return
	}

	responses := make([]domain.ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, domain.NewProductResponse(&products[i]))
	}

	c.JSON(http.StatusOK, gin.H{"data": responses, "count": len(responses)})
}

func (h *ProductHandler) LowStockProducts(c *gin.Context) {
	products, err := h.inventory.LowStockProducts(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list low stock products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list low stock products",
		})
		return
	}

	responses := make([]domain.ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, domain.NewProductResponse(&products[i]))
	}

	c.JSON(http.StatusOK, gin.H{"data": responses, "count": len(responses)})
}

func (h *ProductHandler) DeactivateProduct(c *gin.Context) {
	productID := c.Param("id")

	if err := h.inventory.DeactivateProduct(c.Request.Context(), productID); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}

		h.logger.Error("Failed to deactivate product",
			zap.String("product_id", productID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to deactivate product",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deactivated"})
}

// CheckAvailability는 POS 프론트의 advisory 선검사용.
// 실제 차감 시점의 조건부 갱신이 최종 보장이다.
func (h *ProductHandler) CheckAvailability(c *gin.Context) {
	productID := c.Param("id")

	quantity, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil || quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "quantity must be a positive integer",
		})
		return
	}

	available, current, err := h.inventory.CheckAvailability(c.Request.Context(), productID, quantity)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}

		h.logger.Error("Failed to check availability",
			zap.String("product_id", productID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to check availability",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": productID,
		"available":  available,
		"current":    current,
		"requested":  quantity,
	})
}

func (h *ProductHandler) DeductStock(c *gin.Context) {
	productID := c.Param("id")

	var req domain.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.inventory.Deduct(c.Request.Context(), productID, req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}

		if errors.Is(err, service.ErrInsufficientStock) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Insufficient stock",
				"available": result.PreviousStock,
				"requested": req.Quantity,
			})
			return
		}

		h.logger.Error("Failed to deduct stock",
			zap.String("product_id", productID),
			zap.Error(err))

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to deduct stock",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ProductHandler) RestoreStock(c *gin.Context) {
	productID := c.Param("id")

	var req domain.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.inventory.Restore(c.Request.Context(), productID, req.Quantity)
	if err != nil {
		h.logger.Error("Failed to restore stock",
			zap.String("product_id", productID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to restore stock",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
