package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("koanf"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tag rules and reports failures by setting key.
func validateStruct(cfg *Config, fields []Field) []FieldError {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "config", Reason: err.Error()}}
	}

	secret := make(map[string]bool, len(fields))
	for _, f := range fields {
		secret[f.Key] = f.Secret
	}

	problems := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		key := fe.Namespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		p := FieldError{Field: key, EnvVar: EnvVar(key), Reason: ruleReason(fe)}
		if !secret[key] {
			p.Value = fmt.Sprint(fe.Value())
		}
		problems = append(problems, p)
	}
	return problems
}

func ruleReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "len":
		return "must be " + fe.Param() + " characters long"
	case "startswith":
		return "must start with " + fe.Param()
	case "hostname_port|url":
		return "must be host:port or a URL"
	}
	return "failed " + fe.Tag() + " validation"
}
