package ecomplus_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/ecomplus"
)

func newTestService(t *testing.T, handler http.Handler) (*httptest.Server, ecomplus.Service) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	service, err := ecomplus.New(server.URL+"/", "app-1", "secret", nil)
	if err != nil {
		t.Fatalf("failed to create Store API service: %+v", err)
	}

	return server, service
}

func testAuth() *ecomplus.Auth {
	return &ecomplus.Auth{
		StoreID:     "S1",
		MyID:        "my-id",
		AccessToken: "access-token",
	}
}

func TestGetAuth(t *testing.T) {
	ctx := context.Background()

	_, service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_authenticate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-Store-ID") != "S1" {
			t.Errorf("X-Store-ID = %q, wanted S1", r.Header.Get("X-Store-ID"))
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %+v", err)
		}
		if body["_id"] != "app-1" || body["secret"] != "secret" {
			t.Errorf("unexpected credentials: %+v", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"my_id":"my-id","access_token":"access-token","expires":"2030-01-01T00:00:00Z"}`))
	}))

	auth, err := service.GetAuth(ctx, "S1")
	if err != nil {
		t.Fatalf("get auth failed: %+v", err)
	}

	expected := &ecomplus.Auth{
		StoreID:     "S1",
		MyID:        "my-id",
		AccessToken: "access-token",
		Expires:     "2030-01-01T00:00:00Z",
	}
	if diff := cmp.Diff(expected, auth); diff != "" {
		t.Errorf("auth mismatch (-want +got):\n%s", diff)
	}
}

func TestGetAppConfig(t *testing.T) {
	ctx := context.Background()

	_, service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/applications.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("app_id") != "app-1" {
			t.Errorf("app_id = %q, wanted app-1", r.URL.Query().Get("app_id"))
		}
		if r.Header.Get("X-Access-Token") != "access-token" {
			t.Errorf("missing access token header")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":[{
			"data":{"label":"Boleto","discount":{"type":"percentage","value":5}},
			"hidden_data":{"paghiper_api_key":"K1","paghiper_token":"TOK"}
		}]}`))
	}))

	appConfig, err := service.GetAppConfig(ctx, testAuth(), true)
	if err != nil {
		t.Fatalf("get app config failed: %+v", err)
	}

	if appConfig.PagHiperAPIKey != "K1" || appConfig.PagHiperToken != "TOK" {
		t.Errorf("hidden data was not merged: %+v", appConfig)
	}
	if appConfig.Label != "Boleto" {
		t.Errorf("label = %q, wanted Boleto", appConfig.Label)
	}
	if appConfig.Discount == nil || appConfig.Discount.Value != 5 {
		t.Errorf("discount was not decoded: %+v", appConfig.Discount)
	}
}

func TestGetAppConfigWithoutHidden(t *testing.T) {
	ctx := context.Background()

	_, service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":[{
			"data":{"label":"Boleto"},
			"hidden_data":{"paghiper_api_key":"K1"}
		}]}`))
	}))

	appConfig, err := service.GetAppConfig(ctx, testAuth(), false)
	if err != nil {
		t.Fatalf("get app config failed: %+v", err)
	}

	if appConfig.PagHiperAPIKey != "" {
		t.Errorf("hidden data must not be merged when includeHidden is false")
	}
}

func TestGetAppConfigNoApplication(t *testing.T) {
	ctx := context.Background()

	_, service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":[]}`))
	}))

	_, err := service.GetAppConfig(ctx, testAuth(), true)
	if !errors.Is(err, ecomplus.ErrNoApplication) {
		t.Errorf("expected ErrNoApplication, got %v", err)
	}
}

func TestListOrdersByTransaction(t *testing.T) {
	ctx := context.Background()

	_, service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("transactions.intermediator.transaction_code") != "T1" {
			t.Errorf("transaction code filter missing: %s", r.URL.RawQuery)
		}
		if query.Get("transactions.app.intermediator.code") != "paghiper" {
			t.Errorf("intermediator code filter missing: %s", r.URL.RawQuery)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":[{"_id":"O1"},{"_id":"O2"}]}`))
	}))

	orders, err := service.ListOrdersByTransaction(ctx, testAuth(), "T1", "paghiper")
	if err != nil {
		t.Fatalf("list orders failed: %+v", err)
	}

	expected := []ecomplus.Order{{ID: "O1"}, {ID: "O2"}}
	if diff := cmp.Diff(expected, orders); diff != "" {
		t.Errorf("orders mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdatePaymentStatus(t *testing.T) {
	ctx := context.Background()

	_, service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/O1/payments_history.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != "POST" {
			t.Errorf("method = %s, wanted POST", r.Method)
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %+v", err)
		}
		if body["status"] != "authorized" {
			t.Errorf("status = %v, wanted authorized", body["status"])
		}
		if body["notification_code"] != "N1" {
			t.Errorf("notification_code = %v, wanted N1", body["notification_code"])
		}

		w.WriteHeader(http.StatusCreated)
	}))

	err := service.UpdatePaymentStatus(ctx, testAuth(), "O1", "authorized", "N1")
	if err != nil {
		t.Fatalf("update payment status failed: %+v", err)
	}
}

func TestUpdatePaymentStatusRefused(t *testing.T) {
	ctx := context.Background()

	_, service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	err := service.UpdatePaymentStatus(ctx, testAuth(), "O1", "paid", "N1")

	var requestErr *ecomplus.RequestError
	if !errors.As(err, &requestErr) {
		t.Fatalf("expected a RequestError, got %v", err)
	}
	if requestErr.StatusCode != http.StatusForbidden {
		t.Errorf("status code = %d, wanted 403", requestErr.StatusCode)
	}
}

func TestMergeAppData(t *testing.T) {
	appConfig, err := ecomplus.MergeAppData(
		map[string]interface{}{"label": "Boleto", "paghiper_api_key": "public"},
		map[string]interface{}{"paghiper_api_key": "K1", "paghiper_token": "TOK"},
	)
	if err != nil {
		t.Fatalf("merge app data failed: %+v", err)
	}

	if appConfig.PagHiperAPIKey != "K1" {
		t.Errorf("hidden data must win, got %q", appConfig.PagHiperAPIKey)
	}
	if appConfig.Label != "Boleto" || appConfig.PagHiperToken != "TOK" {
		t.Errorf("merged config mismatch: %+v", appConfig)
	}
}
