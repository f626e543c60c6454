package routes

import (
	"github.com/Kariqs/eshop-api/controllers"
	"github.com/gin-gonic/gin"
)

func DefaultRoutes(server *gin.Engine, deps Deps) {
	server.GET("/", controllers.GetHome(deps.Catalog))
	server.GET("/api/", controllers.GetAPIInfo)
}
