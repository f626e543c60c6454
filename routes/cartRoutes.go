package routes

import (
	"github.com/Kariqs/eshop-api/controllers"
	"github.com/Kariqs/eshop-api/middlewares"
	"github.com/gin-gonic/gin"
)

func CartRoutes(api *gin.RouterGroup, deps Deps) {
	carts := api.Group("/carts", middlewares.NoStore())
	{
		carts.GET("", controllers.GetCarts(deps.Carts))
		carts.POST("", controllers.CreateCart(deps.Carts))
		carts.GET("/:cart_id", controllers.GetCart(deps.Carts))
		carts.DELETE("/:cart_id", controllers.DeleteCart(deps.Carts))
		carts.POST("/:cart_id/add_item", controllers.AddCartItem(deps.Carts))
		carts.POST("/:cart_id/clear", controllers.ClearCart(deps.Carts))
		carts.GET("/:cart_id/summary", controllers.GetCartSummary(deps.Carts))
	}

	items := api.Group("/cart-items", middlewares.NoStore())
	{
		items.GET("", controllers.GetCartItems(deps.Carts))
		items.GET("/:item_id", controllers.GetCartItem(deps.Carts))
		items.PUT("/:item_id", controllers.UpdateCartItem(deps.Carts))
		items.PATCH("/:item_id", controllers.UpdateCartItem(deps.Carts))
		items.DELETE("/:item_id", controllers.DeleteCartItem(deps.Carts))
		items.POST("/:item_id/increment", controllers.IncrementCartItem(deps.Carts))
		items.POST("/:item_id/decrement", controllers.DecrementCartItem(deps.Carts))
	}
}

// StorefrontRoutes serve the caller's own cart outside the versioned API.
func StorefrontRoutes(server *gin.Engine, deps Deps) {
	cart := server.Group("/cart", middlewares.NoStore())
	{
		cart.GET("", controllers.ShowSessionCart(deps.Carts))
		cart.POST("/add/:product_id", controllers.AddToSessionCart(deps.Carts))
		cart.POST("/update/:item_id", controllers.UpdateSessionCartItem(deps.Carts))
		cart.POST("/remove/:item_id", controllers.RemoveFromSessionCart(deps.Carts))
		cart.POST("/clear", controllers.ClearSessionCart(deps.Carts))
	}
}
