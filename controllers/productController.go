package controllers

import (
	"net/http"

	"github.com/Kariqs/eshop-api/services"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
)

// productFilter reads the product list query parameters.
func productFilter(ctx *gin.Context) (services.ProductFilter, error) {
	filter := services.ProductFilter{
		Search:      ctx.Query("search"),
		Name:        ctx.Query("name"),
		Description: ctx.Query("description"),
		Sort:        ctx.DefaultQuery("sort", services.SortName),
	}

	var err error
	if filter.MinPrice, err = queryDecimal(ctx, "min_price"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = queryDecimal(ctx, "max_price"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = queryUint(ctx, "category"); err != nil {
		return filter, err
	}
	if filter.Available, err = queryBool(ctx, "available"); err != nil {
		return filter, err
	}
	if filter.CreatedAfter, err = queryDate(ctx, "created_after"); err != nil {
		return filter, err
	}
	if filter.CreatedBefore, err = queryDate(ctx, "created_before"); err != nil {
		return filter, err
	}
	return filter, nil
}

func GetProducts(catalog *services.CatalogService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		filter, err := productFilter(ctx)
		if err != nil {
			respondWithError(ctx, err)
			return
		}

		page, err := catalog.ListProducts(ctx.Request.Context(), filter, pageRequest(ctx))
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, utils.MapPage(page, productView(currentVersion(ctx))))
	}
}

func GetProduct(catalog *services.CatalogService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		product, err := catalog.GetProduct(ctx.Request.Context(), ctx.Param("slug"))
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, newProductDetailView(*product))
	}
}

func GetRelatedProducts(catalog *services.CatalogService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		related, err := catalog.RelatedProducts(ctx.Request.Context(), ctx.Param("slug"))
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, productViews(currentVersion(ctx), related))
	}
}

// SearchProducts takes query, category (a slug), min_price and max_price.
func SearchProducts(catalog *services.CatalogService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		filter := services.ProductFilter{
			Search:       ctx.Query("query"),
			CategorySlug: ctx.Query("category"),
			Sort:         ctx.DefaultQuery("sort", services.SortName),
		}

		var err error
		if filter.MinPrice, err = queryDecimal(ctx, "min_price"); err != nil {
			respondWithError(ctx, err)
			return
		}
		if filter.MaxPrice, err = queryDecimal(ctx, "max_price"); err != nil {
			respondWithError(ctx, err)
			return
		}

		page, err := catalog.ListProducts(ctx.Request.Context(), filter, pageRequest(ctx))
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, utils.MapPage(page, productView(currentVersion(ctx))))
	}
}

func GetFeaturedProducts(catalog *services.CatalogService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		featured, err := catalog.Featured(ctx.Request.Context(), services.FeaturedLimit)
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, productViews(currentVersion(ctx), featured))
	}
}

func GetProductStats(catalog *services.CatalogService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		stats, err := catalog.Stats(ctx.Request.Context())
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, statsView{
			TotalProducts:   stats.TotalProducts,
			TotalCategories: stats.TotalCategories,
			AvgPrice:        money(stats.AvgPrice),
		})
	}
}
