package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"busbooking/internal/domain"
	"busbooking/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// rc returns the caller attached by the auth middleware.
func rc(c *gin.Context) domain.RequestContext {
	return middleware.RequestContext(c)
}

// paramID parses a positive path id, writing a 400 when it is not one.
func paramID(c *gin.Context, name string) (int64, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, domain.CodeValidation, "invalid "+name, nil)
		return 0, false
	}
	return id, true
}

func queryInt64(c *gin.Context, name string) (int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		respondError(c, http.StatusBadRequest, domain.CodeValidation, "invalid "+name, nil)
		return 0, false
	}
	return v, true
}

func pagination(c *gin.Context) domain.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	return domain.Pagination{Page: page, PageSize: size}.Normalize()
}
