// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package vendors

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moov-io/base"
	"github.com/vendorpay-io/vendorpay/internal/database"
	"github.com/vendorpay-io/vendorpay/internal/model"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

func TestVendors__CreateAndGet(t *testing.T) {
	db := database.CreateTestSqliteDB(t)
	defer db.Close()
	repo := NewVendorRepo(log.NewNopLogger(), db.DB)

	router := mux.NewRouter()
	AddVendorRoutes(log.NewNopLogger(), router, repo)

	userID := base.ID()

	body := bytes.NewReader([]byte(`{"name": "Jane Supplier LLC", "identification": "84-1234567"}`))
	req := httptest.NewRequest("POST", "/vendors", body)
	req.Header.Set("x-user-id", userID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d: %s", w.Code, w.Body.String())
	}
	var vendor model.Vendor
	if err := json.NewDecoder(w.Body).Decode(&vendor); err != nil {
		t.Fatal(err)
	}
	if vendor.ID == "" || vendor.Name != "Jane Supplier LLC" {
		t.Errorf("vendor=%#v", vendor)
	}

	req = httptest.NewRequest("GET", "/vendors/"+vendor.ID.String(), nil)
	req.Header.Set("x-user-id", userID)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status=%d", w.Code)
	}
}

func TestVendors__MissingName(t *testing.T) {
	db := database.CreateTestSqliteDB(t)
	defer db.Close()
	repo := NewVendorRepo(log.NewNopLogger(), db.DB)

	router := mux.NewRouter()
	AddVendorRoutes(log.NewNopLogger(), router, repo)

	req := httptest.NewRequest("POST", "/vendors", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("x-user-id", base.ID())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status=%d", w.Code)
	}
}

func TestVendors__BankAccountChecksum(t *testing.T) {
	db := database.CreateTestSqliteDB(t)
	defer db.Close()
	repo := NewVendorRepo(log.NewNopLogger(), db.DB)

	router := mux.NewRouter()
	AddVendorRoutes(log.NewNopLogger(), router, repo)

	userID := base.ID()

	// 021000020 fails the ABA checksum
	body := bytes.NewReader([]byte(`{"routingNumber": "021000020", "accountNumber": "1234", "accountType": "checking"}`))
	req := httptest.NewRequest("PUT", "/vendors/foo/account", body)
	req.Header.Set("x-user-id", userID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status=%d: %s", w.Code, w.Body.String())
	}
}
