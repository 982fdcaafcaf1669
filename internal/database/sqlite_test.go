// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package database

import (
	"errors"
	"os"
	"testing"

	"github.com/mattn/go-sqlite3"
)

func TestSQLite__basic(t *testing.T) {
	db := CreateTestSqliteDB(t)
	defer db.Close()

	if err := db.DB.Ping(); err != nil {
		t.Fatal(err)
	}

	// all tables exist after migration
	tables := []string{"vendors", "vendor_bank_accounts", "payment_batches", "payment_items", "ach_files", "events"}
	for i := range tables {
		row := db.DB.QueryRow(`select count(1) from ` + tables[i])
		var n int
		if err := row.Scan(&n); err != nil {
			t.Errorf("table %s: %v", tables[i], err)
		}
	}
}

func TestSQLite__getSqlitePath(t *testing.T) {
	if v := getSqlitePath(""); v != "vendorpay.db" {
		t.Errorf("path=%s", v)
	}

	// the configured path wins over the environment
	os.Setenv("SQLITE_DB_PATH", "from-env.db")
	defer os.Unsetenv("SQLITE_DB_PATH")
	if v := getSqlitePath("from-config.db"); v != "from-config.db" {
		t.Errorf("path=%s", v)
	}
	if v := getSqlitePath(""); v != "from-env.db" {
		t.Errorf("path=%s", v)
	}
	if v := getSqlitePath("../escape.db"); v != "vendorpay.db" {
		t.Errorf("path=%s", v)
	}
}

func TestSQLite__UniqueViolation(t *testing.T) {
	err := errors.New(`problem upserting: UNIQUE constraint failed: vendor_bank_accounts.vendor_id`)
	if !UniqueViolation(err) {
		t.Error("expected unique violation")
	}
	if UniqueViolation(sqlite3.Error{Code: sqlite3.ErrPerm}) {
		t.Error("expected no match")
	}
}
