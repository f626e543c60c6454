package middlewares

import (
	"github.com/Kariqs/eshop-api/models"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
)

func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := CurrentClaims(ctx)
		if !ok {
			WriteError(ctx, utils.Unauthorized("authentication credentials were not provided"))
			return
		}

		if claims.Role != models.RoleAdmin {
			WriteError(ctx, utils.Forbidden("admin access required"))
			return
		}

		ctx.Next()
	}
}
