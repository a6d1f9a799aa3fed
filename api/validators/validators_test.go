package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

type nestedBody struct {
	Address struct {
		Zip string `json:"zip" validate:"required"`
	} `json:"shipping_address"`
	Items []struct {
		Quantity int `json:"quantity" validate:"gt=0"`
	} `json:"cart_items" validate:"required,min=1,dive"`
}

func TestDecodeJSONBodyReportsNestedFieldPaths(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"shipping_address":{},"cart_items":[{"quantity":0}]}`))

	var body nestedBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, "is required", details["shipping_address.zip"])
	require.Equal(t, "must be greater than 0", details["cart_items[0].quantity"])
}

func TestDecodeJSONBodyRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"shipping_address":`))
	var body nestedBody
	require.True(t, pkgerrors.HasCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=20", nil)
	got, err := ParseQueryInt(req, "limit", 50, 1, 200)
	require.NoError(t, err)
	require.Equal(t, 20, got)

	req = httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	_, err = ParseQueryInt(req, "limit", 50, 1, 200)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	got, err = ParseQueryInt(httptest.NewRequest(http.MethodGet, "/", nil), "limit", 50, 1, 200)
	require.NoError(t, err)
	require.Equal(t, 50, got)
}

func TestParseIDParam(t *testing.T) {
	withParam := func(value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rc := chi.NewRouteContext()
		rc.URLParams.Add("orderId", value)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	}

	id, err := ParseIDParam(withParam("42"), "orderId")
	require.NoError(t, err)
	require.EqualValues(t, 42, id)

	_, err = ParseIDParam(withParam("abc"), "orderId")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = ParseIDParam(withParam("0"), "orderId")
	require.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	require.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	require.Equal(t, "abc", SanitizeString(" abc ", 0))
	require.Equal(t, "12 Main St", SanitizeString("12\tMain \n St\x00", 0))
	require.Equal(t, "Zür", SanitizeString("Zürich", 3))
}

func TestDecodeJSONBodyRejectsEmptyAndTrailingBodies(t *testing.T) {
	var body nestedBody

	empty := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	err := DecodeJSONBody(empty, &body)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	require.Contains(t, err.Error(), "request body is required")

	trailing := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"cart_items":[{"quantity":1}]} {}`))
	err = DecodeJSONBody(trailing, &body)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	require.Contains(t, err.Error(), "single JSON value")
}

func TestDecodeJSONBodyDescribesTypeMismatch(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"shipping_address":{"zip":94107}}`))
	var body nestedBody
	typed := pkgerrors.As(DecodeJSONBody(req, &body))
	require.NotNil(t, typed)

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	require.Equal(t, "shipping_address.zip must be string", details["error"])
}
