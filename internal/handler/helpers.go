package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/silaschege/salescompass-sub004/internal/apierror"
	"github.com/silaschege/salescompass-sub004/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps the service error taxonomy onto HTTP status codes so
// every handler reports failures the same way.
func respondError(c *gin.Context, err error) {
	var (
		notFound     *service.NotFoundError
		invalidState *service.InvalidStateError
		conflict     *service.ConflictError
		validation   *service.ValidationError
		funds        *service.InsufficientFundsError
		stock        *service.InsufficientStockError
		coupon       *service.CouponError
		loyalty      *service.LoyaltyError
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.As(err, &invalidState), errors.As(err, &conflict), errors.As(err, &stock):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &validation), errors.As(err, &funds):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.As(err, &coupon), errors.As(err, &loyalty):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("internal server error"))
	}
}
