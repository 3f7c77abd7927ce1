package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go-pos-inventory/internal/barcode"
	"go-pos-inventory/internal/database"
	"go-pos-inventory/internal/middleware"
	"go-pos-inventory/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var allowedImageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

const maxImageBytes = 5 << 20

type ProductRequest struct {
	Name              string          `json:"name" binding:"required"`
	Barcode           string          `json:"barcode"`
	Price             decimal.Decimal `json:"price"`
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
	Stock             int             `json:"stock"`
	Supplier          string          `json:"supplier"`
	Category          string          `json:"category"`
	ImageURL          string          `json:"image_url"`
	LowStockThreshold int             `json:"low_stock_threshold"`
}

// --- GET: /api/products ---
// ?search=&category=&sort=name|price|stock|sold&order=desc&low_stock=true
func (h *Handler) GetProducts(c *gin.Context) {
	lowStock, _ := strconv.ParseBool(c.Query("low_stock"))
	filter := database.ProductFilter{
		Search:       c.Query("search"),
		Category:     c.Query("category"),
		SortBy:       c.Query("sort"),
		Desc:         strings.EqualFold(c.Query("order"), "desc"),
		LowStockOnly: lowStock,
	}

	products, err := h.store.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	product, err := h.store.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- GET: /api/products/scan/:barcode ---
func (h *Handler) ScanProduct(c *gin.Context) {
	product, err := h.store.GetProductByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product":   product,
		"low_stock": product.IsLowStock(h.store.LowStockThreshold()),
	})
}

func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// --- POST: Add a new product ---
func (h *Handler) AddProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	product := &models.Product{
		Name:              req.Name,
		Barcode:           req.Barcode,
		Price:             req.Price,
		PurchasePrice:     req.PurchasePrice,
		Stock:             req.Stock,
		Supplier:          strings.TrimSpace(req.Supplier),
		Category:          strings.TrimSpace(req.Category),
		ImageURL:          req.ImageURL,
		LowStockThreshold: req.LowStockThreshold,
	}
	if err := h.store.CreateProduct(c.Request.Context(), product, middleware.CurrentActor(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// --- PUT: partial update, only what was sent changes ---
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch database.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	product, err := h.store.UpdateProduct(c.Request.Context(), id, patch, middleware.CurrentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteProduct(c.Request.Context(), id, middleware.CurrentActor(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// --- POST: /api/products/:id/stock ---
// {"set": 40} replaces the level, {"delta": -3, "reason": "damaged"} moves it.
func (h *Handler) AdjustStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var change database.StockChange
	if err := c.ShouldBindJSON(&change); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	product, err := h.store.AdjustStock(c.Request.Context(), id, change, middleware.CurrentActor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stock updated", "product": product})
}

type BarcodeRequest struct {
	Kind string `json:"kind"`
}

// --- POST: /api/barcodes ---
func (h *Handler) GenerateBarcode(c *gin.Context) {
	var req BarcodeRequest
	// empty body means the default kind
	_ = c.ShouldBindJSON(&req)

	kind, err := barcode.ParseKind(req.Kind)
	if err != nil {
		h.respondError(c, err)
		return
	}
	code, err := h.store.GenerateUniqueBarcode(c.Request.Context(), kind)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"barcode": code, "kind": kind})
}

// --- UPLOAD: Handle Image Files ---
func (h *Handler) UploadImage(c *gin.Context) {
	// 1. Get the file from the request
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	// 2. Only allow images
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExt[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only jpg, png, webp or gif images are allowed"})
		return
	}
	if file.Size > maxImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image is larger than 5 MB"})
		return
	}

	// 3. Generate a safe unique filename, e.g. "1678901230000000_burger.jpg"
	base := strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, filepath.Base(file.Filename))
	filename := fmt.Sprintf("%d_%s", time.Now().UnixNano(), base)

	// 4. Save the file to the upload folder
	if err := c.SaveUploadedFile(file, filepath.Join(h.opts.UploadDir, filename)); err != nil {
		h.log(c).WithError(err).Error("Failed to save upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"url":     strings.TrimRight(h.opts.BaseURL, "/") + "/uploads/" + filename,
	})
}
