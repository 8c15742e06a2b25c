package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/pkg/security"
)

var mrnPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,32}$`)

// Register installs the custom tags on gin's default validator. It is safe to
// call more than once.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	return RegisterOn(v)
}

// RegisterOn installs the custom tags on v.
func RegisterOn(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonName)

	rules := map[string]validator.Func{
		"isodate":          isoDate,
		"mrn":              mrn,
		"strong_password":  strongPassword,
		"interaction_mode": interactionMode,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s: %w", tag, err)
		}
	}
	return nil
}

func isoDate(fl validator.FieldLevel) bool {
	_, err := model.ParseDate(fl.Field().String())
	return err == nil
}

func mrn(fl validator.FieldLevel) bool {
	return mrnPattern.MatchString(fl.Field().String())
}

func strongPassword(fl validator.FieldLevel) bool {
	return security.CheckPasswordPolicy(fl.Field().String()) == nil
}

func interactionMode(fl validator.FieldLevel) bool {
	return model.InteractionMode(fl.Field().String()).Valid()
}

// Details flattens binding errors into field -> message pairs for error bodies.
func Details(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	case "mrn":
		return "must be alphanumeric"
	case "strong_password":
		return security.ErrWeakPassword.Error()
	case "interaction_mode", "oneof":
		return "has an unsupported value"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}

// jsonName reports fields by their JSON name so error details match the request body.
func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
