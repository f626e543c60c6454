package routes

import (
	"github.com/Kariqs/eshop-api/controllers"
	"github.com/Kariqs/eshop-api/middlewares"
	"github.com/gin-gonic/gin"
)

func ProfileRoutes(api *gin.RouterGroup, deps Deps) {
	profile := api.Group("/profile", middlewares.RequireAuth(), middlewares.NoStore())
	{
		profile.GET("", controllers.GetProfiles(deps.Users, deps.Carts))
		profile.GET("/me", controllers.GetMyProfile(deps.Users, deps.Carts))
		profile.GET("/orders", controllers.GetMyOrders)
	}
}
