package router

import (
	"github.com/gin-gonic/gin"
	"github.com/shop/backend/internal/interfaces/http/handler"
	"github.com/shop/backend/internal/interfaces/http/middleware"
)

// Dependencies bundles the handlers and middleware the route table needs
type Dependencies struct {
	Auth     *handler.AuthHandler
	Products *handler.ProductHandler
	Cart     *handler.CartHandler
	Orders   *handler.OrderHandler
	// JWTAuth guards authenticated routes. Public routes (registration,
	// login, catalog reads) are wired without it.
	JWTAuth gin.HandlerFunc
}

// RegisterAll wires the full route table onto the router
func RegisterAll(r *Router, deps Dependencies) {
	auth := NewDomainGroup("auth", "/auth").
		POST("/register", deps.Auth.Register).
		POST("/login", deps.Auth.Login).
		POST("/logout", deps.JWTAuth, deps.Auth.Logout).
		GET("/profile", deps.JWTAuth, deps.Auth.GetProfile).
		PUT("/profile", deps.JWTAuth, deps.Auth.UpdateProfile).
		PUT("/password", deps.JWTAuth, deps.Auth.ChangePassword).
		POST("/employees", deps.JWTAuth, middleware.RequireAdmin(), deps.Auth.CreateEmployee).
		GET("/employees", deps.JWTAuth, middleware.RequireAdmin(), deps.Auth.ListEmployees).
		DELETE("/employees/:id", deps.JWTAuth, middleware.RequireAdmin(), deps.Auth.RemoveEmployee)

	products := NewDomainGroup("products", "/products").
		GET("", deps.Products.List).
		GET("/:id", deps.Products.GetByID).
		POST("", deps.JWTAuth, middleware.RequireStaff(), deps.Products.Create).
		PUT("/:id", deps.JWTAuth, middleware.RequireStaff(), deps.Products.Update).
		DELETE("/:id", deps.JWTAuth, middleware.RequireStaff(), deps.Products.Delete).
		POST("/:id/variants", deps.JWTAuth, middleware.RequireStaff(), deps.Products.AddVariant)

	variants := NewDomainGroup("variants", "/variants").
		POST("/:id/restock", deps.JWTAuth, middleware.RequireStaff(), deps.Products.RestockVariant)

	cart := NewDomainGroup("cart", "/cart").
		Use(deps.JWTAuth).
		GET("", deps.Cart.View).
		POST("/items", deps.Cart.AddItem).
		DELETE("/items/:id", deps.Cart.RemoveItem).
		POST("/resolve", deps.Cart.ResolveSelection)

	orders := NewDomainGroup("orders", "/orders").
		Use(deps.JWTAuth).
		POST("", deps.Orders.Checkout).
		GET("", deps.Orders.ListMine).
		GET("/all", middleware.RequireStaff(), deps.Orders.ListAll).
		GET("/:id", deps.Orders.GetByID).
		POST("/:id/prepare", middleware.RequireStaff(), deps.Orders.Prepare).
		POST("/:id/ship", middleware.RequireStaff(), deps.Orders.Ship).
		POST("/:id/deliver", middleware.RequireStaff(), deps.Orders.Deliver).
		POST("/:id/cancel", deps.Orders.Cancel)

	r.Register(auth).
		Register(products).
		Register(variants).
		Register(cart).
		Register(orders)
	r.Setup()
}
