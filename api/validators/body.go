package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}()

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// DecodeJSONBody reads exactly one JSON value into dest and runs its
// validate tags. Every failure is a CodeValidation error.
func DecodeJSONBody(r *http.Request, dest any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	defer func() { _, _ = io.Copy(io.Discard, body) }()

	dec := json.NewDecoder(body)
	if err := dec.Decode(dest); err != nil {
		return decodeFailure(err)
	}
	if dec.More() {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body must contain a single JSON value")
	}

	err := validate.Struct(dest)
	var fieldErrs validator.ValidationErrors
	switch {
	case err == nil:
		return nil
	case errors.As(err, &fieldErrs):
		details := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[fieldPath(fe)] = describeRule(fe)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
}

func decodeFailure(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		tooLarge  *http.MaxBytesError
	)
	detail := err.Error()
	switch {
	case errors.Is(err, io.EOF):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body is required")
	case errors.As(err, &tooLarge):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body is too large")
	case errors.As(err, &syntaxErr):
		detail = fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		detail = fmt.Sprintf("%s must be %s", typeErr.Field, typeErr.Type)
	case errors.Is(err, io.ErrUnexpectedEOF):
		detail = "malformed JSON"
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": detail})
}

// fieldPath strips the root type so paths read shipping_address.zip or
// cart_items[0].quantity.
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

func describeRule(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(param), ", ")
	}
	bounds := map[string]string{
		"min": "must be at least ",
		"max": "must be at most ",
		"gt":  "must be greater than ",
		"gte": "must be at least ",
		"lt":  "must be less than ",
		"lte": "must be at most ",
	}
	if prefix, ok := bounds[fe.Tag()]; ok {
		return prefix + param
	}
	return "is invalid"
}
