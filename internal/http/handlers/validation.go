package handlers

import (
	"reflect"
	"strings"
	"sync"

	"busbooking/internal/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules used by request payloads.
// Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			zap.L().Warn("gin validator engine is not go-playground/validator; custom rules not registered")
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		if err := v.RegisterValidation("clock", validateClock); err != nil {
			zap.L().Error("register clock validator", zap.Error(err))
		}
	})
}

// validateClock accepts "HH:MM" and "HH:MM:SS".
func validateClock(fl validator.FieldLevel) bool {
	_, err := domain.ParseClock(fl.Field().String())
	return err == nil
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
