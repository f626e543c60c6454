package controllers

import (
	"net/http"

	"github.com/Kariqs/eshop-api/services"
	"github.com/gin-gonic/gin"
)

var apiEndpoints = gin.H{
	"auth": []string{
		"POST /api/auth/signup",
		"POST /api/auth/login",
	},
	"catalog": []string{
		"GET /api/{version}/categories",
		"GET /api/{version}/categories/{slug}",
		"GET /api/{version}/categories/{slug}/products",
		"GET /api/{version}/products",
		"GET /api/{version}/products/{slug}",
		"GET /api/{version}/products/{slug}/related",
		"GET /api/{version}/search",
		"GET /api/{version}/featured",
		"GET /api/{version}/stats",
	},
	"cart": []string{
		"GET|POST /api/{version}/carts",
		"GET|DELETE /api/{version}/carts/{cart_id}",
		"POST /api/{version}/carts/{cart_id}/add_item",
		"POST /api/{version}/carts/{cart_id}/clear",
		"GET /api/{version}/carts/{cart_id}/summary",
		"GET /api/{version}/cart-items",
		"GET|PUT|PATCH|DELETE /api/{version}/cart-items/{id}",
		"POST /api/{version}/cart-items/{id}/increment",
		"POST /api/{version}/cart-items/{id}/decrement",
	},
	"profile": []string{
		"GET /api/{version}/profile",
		"GET /api/{version}/profile/me",
		"GET /api/{version}/profile/orders",
	},
}

// GetAPIInfo describes the API and its versions.
func GetAPIInfo(ctx *gin.Context) {
	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message":   msgWelcome,
		"versions":  Versions(),
		"endpoints": apiEndpoints,
	})
}

// GetHome is the storefront landing payload: every category and the featured products.
func GetHome(catalog *services.CatalogService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		categories, err := catalog.AllCategories(ctx.Request.Context())
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		featured, err := catalog.Featured(ctx.Request.Context(), services.FeaturedLimit)
		if err != nil {
			respondWithError(ctx, err)
			return
		}

		categoryViews := make([]categoryView, len(categories))
		for i, c := range categories {
			categoryViews[i] = newCategoryView(c)
		}
		sendJSONResponse(ctx, http.StatusOK, gin.H{
			"message":    msgWelcome,
			"categories": categoryViews,
			"featured":   productViews(V1, featured),
		})
	}
}
