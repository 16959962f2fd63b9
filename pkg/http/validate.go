package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

// newValidator reports fields by their query parameter name, so a bad
// ?limit= comes back as field "limit".
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name, _, _ := strings.Cut(f.Tag.Get("query"), ","); name != "" && name != "-" {
			return name
		}
		return f.Name
	})
	return v
}

// ReadAndValidateRequest binds the query into req, fills `default` tags for
// parameters left out and validates. It returns nil or a []ValidationError.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return bindErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return []ValidationError{{Code: "ERR_DEFAULTS", Message: err.Error()}}
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return fieldErrors(err)
	}
	return nil
}

func bindErrors(err error) []ValidationError {
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprintf("%v", he.Message)
	}
	return []ValidationError{{Code: "ERR_BIND", Message: msg}}
}

func fieldErrors(err error) []ValidationError {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []ValidationError{{Code: "ERR_INVALID", Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(ves))
	for _, fe := range ves {
		ve := ValidationError{
			Code:  "ERR_" + strings.ToUpper(fe.Tag()),
			Field: fe.Field(),
		}
		switch fe.Tag() {
		case "gte":
			ve.Message = fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
			ve.Params = map[string]interface{}{"min": fe.Param()}
		case "lte":
			ve.Message = fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
			ve.Params = map[string]interface{}{"max": fe.Param()}
		default:
			ve.Message = fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
		}
		out = append(out, ve)
	}
	return out
}
