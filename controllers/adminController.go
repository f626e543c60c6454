package controllers

import (
	"net/http"

	"github.com/Kariqs/eshop-api/services"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type categoryRequest struct {
	Name string `json:"name" binding:"required,max=120"`
	Slug string `json:"slug" binding:"max=120"`
}

type productRequest struct {
	Name        string          `json:"name" binding:"required,max=120"`
	Slug        string          `json:"slug" binding:"max=120"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Available   *bool           `json:"available"`
	CategoryID  uint            `json:"category_id" binding:"required"`
}

type productPatchRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=120"`
	Slug        *string          `json:"slug" binding:"omitempty,max=120"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Available   *bool            `json:"available"`
	CategoryID  *uint            `json:"category_id"`
}

func CreateCategory(catalog *services.CatalogService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req categoryRequest
		if !bindJSON(ctx, &req) {
			return
		}

		category, err := catalog.CreateCategory(ctx.Request.Context(), req.Name, req.Slug)
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusCreated, newCategoryView(services.CategorySummary{Category: *category}))
	}
}

func CreateProduct(catalog *services.CatalogService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req productRequest
		if !bindJSON(ctx, &req) {
			return
		}

		product, err := catalog.CreateProduct(ctx.Request.Context(), services.ProductInput{
			Name:        req.Name,
			Slug:        req.Slug,
			Description: req.Description,
			Price:       req.Price,
			Available:   req.Available,
			CategoryID:  req.CategoryID,
		})
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusCreated, newProductDetailView(*product))
	}
}

func UpdateProduct(catalog *services.CatalogService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		productID, ok := paramID(ctx, "product_id")
		if !ok {
			return
		}

		var req productPatchRequest
		if !bindJSON(ctx, &req) {
			return
		}

		product, err := catalog.UpdateProduct(ctx.Request.Context(), productID, services.ProductPatch{
			Name:        req.Name,
			Slug:        req.Slug,
			Description: req.Description,
			Price:       req.Price,
			Available:   req.Available,
			CategoryID:  req.CategoryID,
		})
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, newProductDetailView(*product))
	}
}

// UploadProductImage takes a multipart form with the file under "image".
func UploadProductImage(catalog *services.CatalogService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		productID, ok := paramID(ctx, "product_id")
		if !ok {
			return
		}

		header, err := ctx.FormFile("image")
		if err != nil {
			respondWithError(ctx, utils.FieldError("image", "is required"))
			return
		}

		file, err := header.Open()
		if err != nil {
			respondWithError(ctx, utils.Internal("failed to open uploaded file", err))
			return
		}
		defer file.Close()

		product, err := catalog.UploadProductImage(ctx.Request.Context(), productID, header.Filename, header.Header.Get("Content-Type"), file)
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		sendJSONResponse(ctx, http.StatusOK, newProductDetailView(*product))
	}
}
