package handlers_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
)

// The cart talks to /api/stock with signed quantities; the ledger must hold
// the stock floor at zero and refuse anonymous callers.
func TestStockEndpoint(t *testing.T) {
	app, db, userRepo := newAPIApp(t)
	pid := seedProduct(t, db, "Ledger Milk", 65, 3)
	cookie := asUser(t, userRepo, "u-hana")

	// Anonymous -> 401
	resp, err := app.Test(jsonReq("POST", "/api/stock", fmt.Sprintf(`{"productId":%d,"quantity":-1}`, pid)))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous expected 401, got %d", resp.StatusCode)
	}

	// Reserve one unit -> 200 with the updated row
	req := jsonReq("POST", "/api/stock", fmt.Sprintf(`{"productId":%d,"quantity":-1}`, pid))
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("reserve expected 200, got %d body=%s", resp.StatusCode, body)
	}
	var out struct {
		Success bool `json:"success"`
		Updated struct {
			Stock int `json:"stock"`
		} `json:"updatedProduct"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.Success || out.Updated.Stock != 2 {
		t.Fatalf("expected stock 2 after reserve, got %+v", out)
	}

	// Over-reserve -> 400, stock untouched
	req = jsonReq("POST", "/api/stock", fmt.Sprintf(`{"productId":%d,"quantity":-5}`, pid))
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("over-reserve expected 400, got %d", resp.StatusCode)
	}
	var stock int
	if err := db.Get(&stock, `SELECT stock FROM products WHERE id = ?`, pid); err != nil {
		t.Fatal(err)
	}
	if stock != 2 {
		t.Fatalf("failed delta must not move stock; got %d", stock)
	}

	// Unknown product -> 404
	req = jsonReq("POST", "/api/stock", `{"productId":99999,"quantity":-1}`)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown product expected 404, got %d", resp.StatusCode)
	}

	// Zero quantity -> 400
	req = jsonReq("POST", "/api/stock", fmt.Sprintf(`{"productId":%d,"quantity":0}`, pid))
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("zero quantity expected 400, got %d", resp.StatusCode)
	}
}
