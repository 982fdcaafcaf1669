// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package vendors

import (
	"testing"

	"github.com/moov-io/base"
	"github.com/vendorpay-io/vendorpay/internal/database"
	"github.com/vendorpay-io/vendorpay/internal/model"
	"github.com/vendorpay-io/vendorpay/pkg/id"

	"github.com/go-kit/kit/log"
)

func TestSQLVendorRepo(t *testing.T) {
	t.Parallel()

	check := func(t *testing.T, repo *SQLVendorRepo) {
		defer repo.Close()

		vendorID, userID := id.Vendor(base.ID()), id.User(base.ID())

		if vendor, err := repo.GetVendor(vendorID, userID); vendor != nil || err != nil {
			t.Fatalf("expected no vendor=%v: %v", vendor, err)
		}

		vendor := &model.Vendor{
			ID:             vendorID,
			Name:           "Jane Supplier LLC",
			Identification: "84-1234567",
			Email:          "billing@janesupplier.example.com",
		}
		if err := repo.CreateVendor(userID, vendor); err != nil {
			t.Fatal(err)
		}

		read, err := repo.GetVendor(vendorID, userID)
		if err != nil || read == nil {
			t.Fatalf("vendor=%v: %v", read, err)
		}
		if read.Name != "Jane Supplier LLC" || read.BankAccount != nil {
			t.Errorf("unexpected vendor: %#v", read)
		}

		// register a bank account, then replace it
		account := &model.BankAccount{
			RoutingNumber: "231380104",
			AccountNumber: "18061234",
			Type:          model.Checking,
		}
		if err := repo.UpsertBankAccount(vendorID, userID, account); err != nil {
			t.Fatal(err)
		}
		account.AccountNumber = "18068888"
		account.Type = model.Savings
		if err := repo.UpsertBankAccount(vendorID, userID, account); err != nil {
			t.Fatal(err)
		}

		read, err = repo.GetVendor(vendorID, userID)
		if err != nil || read == nil || read.BankAccount == nil {
			t.Fatalf("vendor=%v: %v", read, err)
		}
		if read.BankAccount.AccountNumber != "18068888" || read.BankAccount.Type != model.Savings {
			t.Errorf("unexpected account: %#v", read.BankAccount)
		}

		// invalid routing numbers never reach storage
		bad := &model.BankAccount{RoutingNumber: "231380105", AccountNumber: "1", Type: model.Checking}
		if err := repo.UpsertBankAccount(vendorID, userID, bad); err == nil {
			t.Error("expected checksum error")
		}

		if vendors, err := repo.GetUserVendors(userID); len(vendors) != 1 || err != nil {
			t.Fatalf("vendors=%v: %v", vendors, err)
		}

		if err := repo.DeleteVendor(vendorID, userID); err != nil {
			t.Fatal(err)
		}
		if vendor, err := repo.GetVendor(vendorID, userID); vendor != nil || err != nil {
			t.Fatalf("expected deleted vendor=%v: %v", vendor, err)
		}
	}

	// SQLite
	sqliteDB := database.CreateTestSqliteDB(t)
	defer sqliteDB.Close()
	check(t, NewVendorRepo(log.NewNopLogger(), sqliteDB.DB))

	// MySQL
	mysqlDB := database.CreateTestMySQLDB(t)
	defer mysqlDB.Close()
	check(t, NewVendorRepo(log.NewNopLogger(), mysqlDB.DB))
}
