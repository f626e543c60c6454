package controllers

import (
	"net/http"

	"github.com/Kariqs/eshop-api/services"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
)

func GetCategories(catalog *services.CatalogService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		hasProducts, err := queryBool(ctx, "has_products")
		if err != nil {
			respondWithError(ctx, err)
			return
		}

		filter := services.CategoryFilter{Name: ctx.Query("name"), HasProducts: hasProducts}
		page, err := catalog.ListCategories(ctx.Request.Context(), filter, pageRequest(ctx))
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, utils.MapPage(page, newCategoryView))
	}
}

func GetCategory(catalog *services.CatalogService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		category, err := catalog.GetCategory(ctx.Request.Context(), ctx.Param("slug"))
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, newCategoryView(*category))
	}
}

func GetCategoryProducts(catalog *services.CatalogService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		filter, err := productFilter(ctx)
		if err != nil {
			respondWithError(ctx, err)
			return
		}

		page, err := catalog.CategoryProducts(ctx.Request.Context(), ctx.Param("slug"), filter, pageRequest(ctx))
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, utils.MapPage(page, productView(currentVersion(ctx))))
	}
}
