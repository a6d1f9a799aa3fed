package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	checkoutsvc "github.com/angelmondragon/printshop-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/types"
)

type stubCheckoutService struct {
	result *checkoutsvc.Result
	err    error
	input  checkoutsvc.Input
	calls  int
}

func (s *stubCheckoutService) PlaceOrder(_ context.Context, _ int64, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
	s.calls++
	s.input = input
	return s.result, s.err
}

const checkoutBody = `{
	"shipping_address": {"full_name":"  Ada Lovelace ","address":"1 Main St","city":"Springfield","state":"IL","zip":"62701"},
	"cart_items": [
		{"cart_item_id": 3, "photo": {"photo_id": 10}, "format": {"format_id": 1, "price": "99.99"}, "quantity": 2},
		{"photo": {"photo_id": 11}, "format": {"format_id": 2}, "quantity": 1}
	]
}`

func TestCheckoutSuccess(t *testing.T) {
	svc := &stubCheckoutService{result: &checkoutsvc.Result{OrderID: 42, ClientSecret: "pi_1_secret_x"}}
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", checkoutBody, 7))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var body types.CheckoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success || body.OrderID != 42 || body.ClientSecret != "pi_1_secret_x" {
		t.Fatalf("unexpected response %+v", body)
	}

	if svc.input.Address.FullName != "Ada Lovelace" {
		t.Fatalf("expected trimmed name, got %q", svc.input.Address.FullName)
	}
	if len(svc.input.Lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(svc.input.Lines))
	}
	first := svc.input.Lines[0]
	if first.PhotoID != 10 || first.FormatID != 1 || first.Quantity != 2 || first.CartItemID == nil || *first.CartItemID != 3 {
		t.Fatalf("unexpected first line %+v", first)
	}
	if first.ClientPrice == nil || first.ClientPrice.StringFixed(2) != "99.99" {
		t.Fatalf("expected client price carried through")
	}
	if svc.input.Lines[1].ClientPrice != nil {
		t.Fatalf("expected nil client price on second line")
	}
}

func TestCheckoutValidationFailure(t *testing.T) {
	svc := &stubCheckoutService{}
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", `{"shipping_address":{"full_name":"A"},"cart_items":[]}`, 7))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	payload := decodeError(t, resp)
	if payload["success"] != false || payload["code"] != "VALIDATION_ERROR" {
		t.Fatalf("unexpected error envelope %v", payload)
	}
	if svc.calls != 0 {
		t.Fatalf("service should not be called")
	}
}

func TestCheckoutUnauthenticated(t *testing.T) {
	resp := httptest.NewRecorder()
	Checkout(&stubCheckoutService{}, nil).ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", checkoutBody, 0))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCheckoutProcessingError(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeOrderProcessing, "payment provider failed")}
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/checkout", checkoutBody, 7))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	if code := decodeError(t, resp)["code"]; code != "ORDER_PROCESSING_ERROR" {
		t.Fatalf("unexpected code %v", code)
	}
}
