package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appordering "github.com/shop/backend/internal/application/ordering"
)

// CartHandler handles shopping cart HTTP requests
type CartHandler struct {
	BaseHandler
	cartService *appordering.CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *appordering.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// View godoc
// @Summary      View the authenticated account's cart
// @Tags         cart
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} dto.Response{data=ordering.CartResponse}
// @Router       /cart [get]
func (h *CartHandler) View(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	cart, err := h.cartService.ViewCart(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// AddItem godoc
// @Summary      Add a product variant to the cart
// @Tags         cart
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body ordering.AddCartItemRequest true "Variant and quantity"
// @Success      200 {object} dto.Response{data=ordering.CartResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appordering.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidationError(c, err)
		return
	}

	cart, err := h.cartService.AddItem(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// RemoveItem godoc
// @Summary      Remove an item from the cart
// @Tags         cart
// @Security     BearerAuth
// @Param        id path string true "Cart item ID"
// @Success      204 "No Content"
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cart item ID")
		return
	}

	if err := h.cartService.RemoveItem(c.Request.Context(), actor, itemID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ResolveSelection godoc
// @Summary      Price a cart selection for checkout preview
// @Tags         cart
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body ordering.ResolveSelectionRequest true "Selected cart item IDs"
// @Success      200 {object} dto.Response{data=ordering.SnapshotResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cart/resolve [post]
func (h *CartHandler) ResolveSelection(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appordering.ResolveSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidationError(c, err)
		return
	}

	snapshot, err := h.cartService.ResolveSelection(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, snapshot)
}
