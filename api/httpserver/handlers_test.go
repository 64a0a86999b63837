package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"ledgerbook/infra/storage"
	"ledgerbook/infra/wal"
	"ledgerbook/service"
)

func testApp(t *testing.T) *fiber.App {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc, err := service.Open(store, wal.Config{Dir: t.TempDir(), SegmentSize: 1 << 20}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	app := fiber.New()
	New(app, NewHandler(svc, log))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, account string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if account != "" {
		req.Header.Set(AccountHeader, account)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestPlaceOrderEndpoint(t *testing.T) {
	app := testApp(t)

	status, body := doJSON(t, app, "POST", "/orders/", "alice", fiber.Map{
		"side": "bid", "price": 10, "amount": 5,
	})
	require.Equal(t, fiber.StatusCreated, status)
	require.Equal(t, float64(0), body["order_id"])

	// Crossing placement returns its fills.
	status, body = doJSON(t, app, "POST", "/orders/", "bob", fiber.Map{
		"side": "ask", "price": 10, "amount": 3,
	})
	require.Equal(t, fiber.StatusCreated, status)
	trades := body["trades"].([]interface{})
	require.Len(t, trades, 1)
	trade := trades[0].(map[string]interface{})
	require.Equal(t, float64(10), trade["price"])
	require.Equal(t, float64(3), trade["quantity"])
}

func TestPlaceOrderRejections(t *testing.T) {
	app := testApp(t)

	status, _ := doJSON(t, app, "POST", "/orders/", "", fiber.Map{
		"side": "bid", "price": 10, "amount": 5,
	})
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = doJSON(t, app, "POST", "/orders/", "alice", fiber.Map{
		"side": "diagonal", "price": 10, "amount": 5,
	})
	require.Equal(t, fiber.StatusBadRequest, status)

	status, _ = doJSON(t, app, "POST", "/orders/", "alice", fiber.Map{
		"side": "bid", "price": 10, "amount": 0,
	})
	require.Equal(t, fiber.StatusBadRequest, status)

	status, _ = doJSON(t, app, "POST", "/orders/", "alice", fiber.Map{
		"side": "bid", "price": 0, "amount": 5,
	})
	require.Equal(t, fiber.StatusBadRequest, status)
}

func TestCancelOrderEndpoint(t *testing.T) {
	app := testApp(t)

	status, _ := doJSON(t, app, "POST", "/orders/", "alice", fiber.Map{
		"side": "bid", "price": 10, "amount": 5,
	})
	require.Equal(t, fiber.StatusCreated, status)

	status, _ = doJSON(t, app, "DELETE", "/orders/0", "mallory", nil)
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = doJSON(t, app, "DELETE", "/orders/0", "alice", nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = doJSON(t, app, "DELETE", "/orders/0", "alice", nil)
	require.Equal(t, fiber.StatusNotFound, status)

	status, _ = doJSON(t, app, "DELETE", "/orders/notanumber", "alice", nil)
	require.Equal(t, fiber.StatusBadRequest, status)
}

func TestModifyOrderEndpoint(t *testing.T) {
	app := testApp(t)

	status, _ := doJSON(t, app, "POST", "/orders/", "alice", fiber.Map{
		"side": "bid", "price": 10, "amount": 5,
	})
	require.Equal(t, fiber.StatusCreated, status)

	// Modify only shrinks an order.
	status, _ = doJSON(t, app, "PATCH", "/orders/0", "alice", fiber.Map{"new_amount": 7})
	require.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = doJSON(t, app, "PATCH", "/orders/0", "alice", fiber.Map{"new_amount": 3})
	require.Equal(t, fiber.StatusOK, status)

	status, body := doJSON(t, app, "GET", "/orders/0", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, float64(3), body["remaining"])
}

func TestAccountOrdersAndBook(t *testing.T) {
	app := testApp(t)

	for _, o := range []fiber.Map{
		{"side": "bid", "price": 10, "amount": 5},
		{"side": "bid", "price": 9, "amount": 2},
	} {
		status, _ := doJSON(t, app, "POST", "/orders/", "alice", o)
		require.Equal(t, fiber.StatusCreated, status)
	}
	status, _ := doJSON(t, app, "POST", "/orders/", "bob", fiber.Map{
		"side": "ask", "price": 12, "amount": 4,
	})
	require.Equal(t, fiber.StatusCreated, status)

	status, body := doJSON(t, app, "GET", "/accounts/alice/orders", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body["orders"].([]interface{}), 2)

	status, body = doJSON(t, app, "GET", "/book?depth=5", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, float64(10), body["best_bid"])
	require.Equal(t, float64(12), body["best_ask"])
	require.Len(t, body["bids"].([]interface{}), 2)
	require.Len(t, body["asks"].([]interface{}), 1)
}

func TestHealthEndpoint(t *testing.T) {
	app := testApp(t)

	status, body := doJSON(t, app, "GET", "/healthz", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "ok", body["status"])
}
