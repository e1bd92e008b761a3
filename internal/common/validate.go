package common

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps request bodies read by DecodeJSON.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// DecodeJSON decodes the request body into dest and validates its struct tags.
// Failures are returned as 400 AppErrors with per-field details.
func DecodeJSON(r *http.Request, dest any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return NewAppError(CodeBadRequest, "invalid payload", http.StatusBadRequest, err).
			WithDetails(map[string]any{"error": err.Error()})
	}
	if err := validate.Struct(dest); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) *AppError {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return NewAppError(CodeValidation, "validation failed", http.StatusBadRequest, err)
	}
	details := map[string]string{}
	for _, fe := range errs {
		details[fieldPath(fe)] = validationMessage(fe)
	}
	return NewAppError(CodeValidation, "validation failed", http.StatusBadRequest, err).WithDetails(details)
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must match %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return "is invalid"
}
