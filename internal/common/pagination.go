// File: internal/common/pagination.go
package common

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// GetPaginationParams extracts pagination parameters from Gin context.
func GetPaginationParams(c *gin.Context) (page, pageSize int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	if err != nil || page <= 0 {
		page = DefaultPage
	}

	pageSize, err = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))
	if err != nil || pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// GetLimitParam reads the "limit" query parameter, falling back to def and clamping to max.
func GetLimitParam(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit
}

// GetBoolQuery reads a boolean query parameter. Unparseable values yield def.
func GetBoolQuery(c *gin.Context, key string, def bool) bool {
	raw, ok := c.GetQuery(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// Offset converts a page/pageSize pair into a query offset.
func Offset(page, pageSize int) int {
	if page <= 0 {
		return 0
	}
	return (page - 1) * pageSize
}
