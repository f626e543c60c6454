package controllers

import (
	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
)

const ctxVersion = "api_version"

// APIVersion holds what differs between API versions. Handlers read it
// instead of comparing version strings.
type APIVersion struct {
	Name            string
	DetailedLists   bool
	CartItemsCount  bool
	DefaultPageSize int
	MaxPageSize     int
}

var (
	V1 = APIVersion{
		Name:            "v1",
		DefaultPageSize: utils.DefaultPageSize,
		MaxPageSize:     utils.MaxPageSize,
	}
	V2 = APIVersion{
		Name:            "v2",
		DetailedLists:   true,
		CartItemsCount:  true,
		DefaultPageSize: utils.DefaultPageSize,
		MaxPageSize:     utils.MaxPageSize,
	}

	apiVersions = map[string]APIVersion{V1.Name: V1, V2.Name: V2}
)

// Versions lists the supported version names, oldest first.
func Versions() []string {
	return []string{V1.Name, V2.Name}
}

// ResolveVersion selects the APIVersion named by the :version path segment
// and answers 404 for unknown ones.
func ResolveVersion() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		v, ok := apiVersions[ctx.Param("version")]
		if !ok {
			respondWithError(ctx, utils.NotFound("unsupported API version"))
			return
		}
		ctx.Set(ctxVersion, v)
		ctx.Next()
	}
}

// currentVersion falls back to v1 outside the versioned API.
func currentVersion(ctx *gin.Context) APIVersion {
	if v, ok := ctx.Get(ctxVersion); ok {
		if version, ok := v.(APIVersion); ok {
			return version
		}
	}
	return V1
}
