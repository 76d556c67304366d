package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gana36/Prime-Day-Sim/internal/core/domain"
	"github.com/gana36/Prime-Day-Sim/internal/core/service"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type HTTPHandler struct {
	intake  *service.IntakeService
	catalog *service.CatalogService
	logger  *zap.Logger
}

type PurchaseRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type CreateProductRequest struct {
	ID               string  `json:"id"`
	Name             string  `json:"name" binding:"required"`
	Category         string  `json:"category"`
	Price            float64 `json:"price" binding:"required"`
	Description      string  `json:"description"`
	InitialInventory int     `json:"initial_inventory"`
}

func NewHTTPHandler(intake *service.IntakeService, catalog *service.CatalogService, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{intake: intake, catalog: catalog, logger: logger}
}

func (h *HTTPHandler) Register(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)
	router.GET("/products", h.ListProducts)
	router.POST("/products", h.CreateProduct)
	router.POST("/purchase", h.Purchase)
	router.GET("/orders/:id", h.GetOrder)
}

// Purchase accepts an order intent and acknowledges it as pending. The 202
// is provisional by design: the real outcome lives behind GET /orders/:id
// once the worker has settled it.
func (h *HTTPHandler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.intake.Purchase(c.Request.Context(), req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		h.logger.Error("purchase intake failed",
			zap.String("product_id", req.ProductID),
			zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "order intake unavailable, retry"})
		return
	}

	c.JSON(http.StatusAccepted, order)
}

func (h *HTTPHandler) GetOrder(c *gin.Context) {
	order, err := h.intake.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("order lookup failed", zap.String("order_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *HTTPHandler) ListProducts(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), offset, limit)
	if err != nil {
		h.logger.Error("product listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, products)
}

func (h *HTTPHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), domain.Product{
		ID:          req.ID,
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Description: req.Description,
	}, req.InitialInventory)
	if err != nil {
		if err == service.ErrInvalidProduct {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("product creation failed", zap.String("name", req.Name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
