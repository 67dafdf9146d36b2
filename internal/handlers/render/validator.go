package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/agroview/agroview/internal/models"
	"github.com/agroview/agroview/internal/service/analysis"
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("usertype", validateUserType)
	_ = v.RegisterValidation("graintype", validateGrainType)
	v.RegisterTagNameFunc(useJSONTagNames)
	return v
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

func validateUserType(fl validator.FieldLevel) bool {
	return models.UserType(fl.Field().String()).Valid()
}

func validateGrainType(fl validator.FieldLevel) bool {
	return analysis.ValidGrainType(fl.Field().String())
}
