// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package vendors

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/moov-io/base"
	"github.com/vendorpay-io/vendorpay/internal/model"
	"github.com/vendorpay-io/vendorpay/pkg/id"

	"github.com/go-kit/kit/log"
)

type Repository interface {
	GetVendor(vendorID id.Vendor, userID id.User) (*model.Vendor, error)
	GetUserVendors(userID id.User) ([]*model.Vendor, error)

	CreateVendor(userID id.User, vendor *model.Vendor) error
	UpsertBankAccount(vendorID id.Vendor, userID id.User, account *model.BankAccount) error

	DeleteVendor(vendorID id.Vendor, userID id.User) error
}

func NewVendorRepo(logger log.Logger, db *sql.DB) *SQLVendorRepo {
	return &SQLVendorRepo{log: logger, db: db}
}

type SQLVendorRepo struct {
	db  *sql.DB
	log log.Logger
}

func (r *SQLVendorRepo) Close() error {
	return r.db.Close()
}

func (r *SQLVendorRepo) CreateVendor(userID id.User, vendor *model.Vendor) error {
	query := `insert into vendors (vendor_id, user_id, name, identification, email, created_at, last_updated_at) values (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	_, err = stmt.Exec(vendor.ID, userID, vendor.Name, vendor.Identification, vendor.Email, now, now)
	return err
}

func (r *SQLVendorRepo) GetVendor(vendorID id.Vendor, userID id.User) (*model.Vendor, error) {
	query := `select vendor_id, name, identification, email, created_at from vendors
where vendor_id = ? and user_id = ? and deleted_at is null limit 1`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	row := stmt.QueryRow(vendorID, userID)

	var vendor model.Vendor
	var created time.Time
	if err := row.Scan(&vendor.ID, &vendor.Name, &vendor.Identification, &vendor.Email, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	vendor.Created = base.NewTime(created)

	account, err := r.getBankAccount(vendorID)
	if err != nil {
		return nil, fmt.Errorf("get vendor: bank account: %v", err)
	}
	vendor.BankAccount = account
	return &vendor, nil
}

func (r *SQLVendorRepo) getBankAccount(vendorID id.Vendor) (*model.BankAccount, error) {
	query := `select routing_number, account_number, account_type from vendor_bank_accounts
where vendor_id = ? and deleted_at is null limit 1`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var account model.BankAccount
	if err := stmt.QueryRow(vendorID).Scan(&account.RoutingNumber, &account.AccountNumber, &account.Type); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *SQLVendorRepo) GetUserVendors(userID id.User) ([]*model.Vendor, error) {
	query := `select vendor_id from vendors where user_id = ? and deleted_at is null`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.Query(userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vendorIDs []string
	for rows.Next() {
		var row string
		if err := rows.Scan(&row); err != nil {
			return nil, fmt.Errorf("getUserVendors scan: %v", err)
		}
		if row != "" {
			vendorIDs = append(vendorIDs, row)
		}
	}
	var vendors []*model.Vendor
	for i := range vendorIDs {
		vendor, err := r.GetVendor(id.Vendor(vendorIDs[i]), userID)
		if err == nil && vendor != nil {
			vendors = append(vendors, vendor)
		}
	}
	return vendors, rows.Err()
}

// UpsertBankAccount replaces the vendor's registered account. The routing
// number has already passed the ABA checksum by the time we're called, but
// verify again so a future caller can't slip an invalid account into storage.
func (r *SQLVendorRepo) UpsertBankAccount(vendorID id.Vendor, userID id.User, account *model.BankAccount) error {
	if err := account.Validate(); err != nil {
		return err
	}
	vendor, err := r.GetVendor(vendorID, userID)
	if err != nil || vendor == nil {
		return fmt.Errorf("vendor %s not found: %v", vendorID, err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`delete from vendor_bank_accounts where vendor_id = ?`, vendorID); err != nil {
		return fmt.Errorf("upsert bank account: delete: error=%v rollback=%v", err, tx.Rollback())
	}
	query := `insert into vendor_bank_accounts (vendor_id, routing_number, account_number, account_type, created_at) values (?, ?, ?, ?, ?)`
	if _, err := tx.Exec(query, vendorID, account.RoutingNumber, account.AccountNumber, account.Type, time.Now()); err != nil {
		return fmt.Errorf("upsert bank account: insert: error=%v rollback=%v", err, tx.Rollback())
	}
	return tx.Commit()
}

func (r *SQLVendorRepo) DeleteVendor(vendorID id.Vendor, userID id.User) error {
	query := `update vendors set deleted_at = ? where vendor_id = ? and user_id = ? and deleted_at is null`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(time.Now(), vendorID, userID)
	return err
}
