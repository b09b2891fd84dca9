package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcatalog "github.com/shop/backend/internal/application/catalog"
)

// ProductHandler handles catalog HTTP requests. Listing and reading are
// public; mutations require staff access.
type ProductHandler struct {
	BaseHandler
	productService *appcatalog.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *appcatalog.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// List godoc
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        search query string false "Search by name or description"
// @Success      200 {object} dto.Response{data=[]catalog.ProductResponse,meta=dto.Meta}
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var filter appcatalog.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	products, total, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, products, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @Summary      Get a product with its variants
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Create godoc
// @Summary      Create a product (staff only)
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body catalog.CreateProductRequest true "Product details"
// @Success      201 {object} dto.Response{data=catalog.ProductResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req appcatalog.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidationError(c, err)
		return
	}

	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, product)
}

// Update godoc
// @Summary      Update a product (staff only)
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID"
// @Param        request body catalog.UpdateProductRequest true "Product fields"
// @Success      200 {object} dto.Response{data=catalog.ProductResponse}
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req appcatalog.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidationError(c, err)
		return
	}

	product, err := h.productService.Update(c.Request.Context(), productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Delete godoc
// @Summary      Delete a product (staff only)
// @Tags         products
// @Security     BearerAuth
// @Param        id path string true "Product ID"
// @Success      204 "No Content"
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	if err := h.productService.Delete(c.Request.Context(), productID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// AddVariant godoc
// @Summary      Add a variant to a product (staff only)
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID"
// @Param        request body catalog.AddVariantRequest true "Variant details"
// @Success      201 {object} dto.Response{data=catalog.ProductResponse}
// @Router       /products/{id}/variants [post]
func (h *ProductHandler) AddVariant(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req appcatalog.AddVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidationError(c, err)
		return
	}

	product, err := h.productService.AddVariant(c.Request.Context(), productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, product)
}

// RestockVariant godoc
// @Summary      Add stock to a variant (staff only)
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Variant ID"
// @Param        request body catalog.RestockVariantRequest true "Quantity to add"
// @Success      200 {object} dto.Response{data=catalog.VariantResponse}
// @Router       /variants/{id}/restock [post]
func (h *ProductHandler) RestockVariant(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid variant ID")
		return
	}

	var req appcatalog.RestockVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidationError(c, err)
		return
	}

	variant, err := h.productService.RestockVariant(c.Request.Context(), variantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, variant)
}
