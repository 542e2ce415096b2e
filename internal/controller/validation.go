package controller

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/iShirker/PoD-ShopManager/pkg/supplier"
)

var registerOnce sync.Once

// RegisterValidators 在 gin 绑定引擎上注册自定义校验
//   - supplier_kind: gelato / printify / printful，忽略大小写
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("supplier_kind", func(fl validator.FieldLevel) bool {
			_, err := supplier.ParseKind(fl.Field().String())
			return err == nil
		})
	})
}
