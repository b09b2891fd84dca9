package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appordering "github.com/shop/backend/internal/application/ordering"
)

// OrderHandler handles order placement and fulfillment HTTP requests
type OrderHandler struct {
	BaseHandler
	orderService *appordering.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *appordering.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Checkout godoc
// @Summary      Place an order from selected cart items
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body ordering.CheckoutRequest true "Selected cart item IDs and optional note"
// @Success      201 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appordering.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidationError(c, err)
		return
	}

	order, err := h.orderService.Checkout(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// ListMine godoc
// @Summary      List the authenticated account's orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        status query string false "Filter by status"
// @Success      200 {object} dto.Response{data=[]ordering.OrderResponse,meta=dto.Meta}
// @Router       /orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter appordering.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	orders, total, err := h.orderService.ListMine(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// ListAll godoc
// @Summary      List all orders (staff only)
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        status query string false "Filter by status"
// @Success      200 {object} dto.Response{data=[]ordering.OrderResponse,meta=dto.Meta}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/all [get]
func (h *OrderHandler) ListAll(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter appordering.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	orders, total, err := h.orderService.ListAll(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @Summary      Get an order. Customers can only read their own orders.
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), actor, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Prepare godoc
// @Summary      Mark a pending order as preparing (staff only)
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/prepare [post]
func (h *OrderHandler) Prepare(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	order, err := h.orderService.Prepare(c.Request.Context(), actor, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Ship godoc
// @Summary      Mark a preparing order as shipped (staff only)
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body ordering.ShipOrderRequest true "Tracking number and carrier"
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/ship [post]
func (h *OrderHandler) Ship(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req appordering.ShipOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidationError(c, err)
		return
	}

	order, err := h.orderService.Ship(c.Request.Context(), actor, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Deliver godoc
// @Summary      Mark a shipped order as delivered (staff only)
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/deliver [post]
func (h *OrderHandler) Deliver(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	order, err := h.orderService.Deliver(c.Request.Context(), actor, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Cancel godoc
// @Summary      Cancel a pending order, keeping it on record with the reason
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body ordering.CancelOrderRequest true "Cancellation reason"
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req appordering.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidationError(c, err)
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), actor, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}
