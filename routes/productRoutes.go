package routes

import (
	"github.com/Kariqs/eshop-api/controllers"
	"github.com/Kariqs/eshop-api/middlewares"
	"github.com/gin-gonic/gin"
)

func ProductRoutes(api *gin.RouterGroup, deps Deps) {
	api.GET("/categories", controllers.GetCategories(deps.Catalog))
	api.GET("/categories/:slug", controllers.GetCategory(deps.Catalog))
	api.GET("/categories/:slug/products", controllers.GetCategoryProducts(deps.Catalog))

	api.GET("/products", controllers.GetProducts(deps.Catalog))
	api.GET("/products/:slug", controllers.GetProduct(deps.Catalog))
	api.GET("/products/:slug/related", controllers.GetRelatedProducts(deps.Catalog))

	api.GET("/search", controllers.SearchProducts(deps.Catalog))
	api.GET("/featured", controllers.GetFeaturedProducts(deps.Catalog))
	api.GET("/stats", controllers.GetProductStats(deps.Catalog))
}

func AdminRoutes(api *gin.RouterGroup, deps Deps) {
	admin := api.Group("/admin", middlewares.RequireAdmin(), middlewares.NoStore())
	{
		admin.POST("/categories", controllers.CreateCategory(deps.Catalog))
		admin.POST("/products", controllers.CreateProduct(deps.Catalog))
		admin.PATCH("/products/:product_id", controllers.UpdateProduct(deps.Catalog))
		admin.POST("/products/:product_id/image", controllers.UploadProductImage(deps.Catalog))
	}
}
