package handlers

import (
	"errors"
	"net/http"
	"strings"

	"busbooking/internal/domain"
	"busbooking/internal/http/middleware"
	"busbooking/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
	})
}

var statusByCode = map[string]int{
	domain.CodeValidation:   http.StatusBadRequest,
	domain.CodeUnauthorized: http.StatusUnauthorized,
	domain.CodeForbidden:    http.StatusForbidden,
	domain.CodeNotFound:     http.StatusNotFound,
	domain.CodeConflict:     http.StatusConflict,
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	code := domain.CodeOf(err)
	if status, ok := statusByCode[code]; ok {
		respondError(c, status, code, err.Error(), nil)
		return
	}
	// internal details stay in the log
	utils.LogError(middleware.GetRequestID(c), "HTTP", c.FullPath(), err)
	respondError(c, http.StatusInternalServerError, domain.CodeInternal, "something went wrong", nil)
}

// FieldError is one failed binding rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// BindJSONOrError ensures body is present and passes the binding rules.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, domain.CodeValidation, "request body is empty", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, FieldError{Field: fieldPath(fe.Namespace()), Rule: fe.Tag(), Param: fe.Param()})
			}
			respondError(c, http.StatusBadRequest, domain.CodeValidation, "invalid payload", details)
			return false
		}
		respondError(c, http.StatusBadRequest, domain.CodeValidation, "malformed JSON: "+err.Error(), nil)
		return false
	}
	return true
}

// fieldPath drops the struct name from "CreateScheduleInput.busId".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
