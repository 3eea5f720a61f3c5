package handler

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// maxSKULength matches the width of the sku column
const maxSKULength = 64

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("sku", validSKU)
	}
}

// validSKU accepts a non-blank identifier that fits the sku column
func validSKU(fl validator.FieldLevel) bool {
	sku := strings.TrimSpace(fl.Field().String())
	return sku != "" && len(sku) <= maxSKULength
}
