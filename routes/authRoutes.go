package routes

import (
	"github.com/Kariqs/eshop-api/controllers"
	"github.com/gin-gonic/gin"
)

func AuthRoutes(server *gin.Engine, deps Deps) {
	auth := server.Group("/api/auth")
	{
		auth.POST("/signup", controllers.Signup(deps.Users))
		auth.POST("/login", controllers.Login(deps.Users, deps.TokenTTLSeconds))
	}
}
