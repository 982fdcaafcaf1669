// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package batches

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/moov-io/base"
	"github.com/vendorpay-io/vendorpay/internal/model"
	"github.com/vendorpay-io/vendorpay/pkg/id"

	"github.com/go-kit/kit/log"
)

var (
	// ErrNotDraft is returned when mutating a batch that has already been
	// approved or processed.
	ErrNotDraft = errors.New("batch is not a draft")

	// ErrNoItems is returned when approving a batch with no payment items.
	ErrNoItems = errors.New("batch has no payment items")
)

// Approval identifies an approved batch waiting for file generation.
type Approval struct {
	BatchID id.Batch
	UserID  id.User
}

type Repository interface {
	GetBatch(batchID id.Batch, userID id.User) (*model.PaymentBatch, error)
	GetUserBatches(userID id.User) ([]*model.PaymentBatch, error)
	GetApprovedBatches() ([]Approval, error)

	CreateBatch(userID id.User, batch *model.PaymentBatch) error
	AddItem(batchID id.Batch, userID id.User, item *model.PaymentItem) error
	GetItems(batchID id.Batch) ([]*model.PaymentItem, error)

	Approve(batchID id.Batch, userID id.User) error
	Cancel(batchID id.Batch, userID id.User) error
}

func NewBatchRepo(logger log.Logger, db *sql.DB) *SQLBatchRepo {
	return &SQLBatchRepo{log: logger, db: db}
}

type SQLBatchRepo struct {
	db  *sql.DB
	log log.Logger
}

func (r *SQLBatchRepo) Close() error {
	return r.db.Close()
}

func (r *SQLBatchRepo) CreateBatch(userID id.User, batch *model.PaymentBatch) error {
	if err := batch.Validate(); err != nil {
		return err
	}
	query := `insert into payment_batches (batch_id, user_id, company_name, company_identification, company_entry_description, company_descriptive_date, effective_entry_date, odfi_routing_number, production, status, created_at, last_updated_at) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	_, err = stmt.Exec(batch.ID, userID, batch.CompanyName, batch.CompanyIdentification, batch.CompanyEntryDescription, batch.CompanyDescriptiveDate, batch.EffectiveEntryDate, batch.ODFIRoutingNumber, batch.Production, model.BatchDraft, now, now)
	return err
}

func (r *SQLBatchRepo) GetBatch(batchID id.Batch, userID id.User) (*model.PaymentBatch, error) {
	query := `select batch_id, company_name, company_identification, company_entry_description, company_descriptive_date, effective_entry_date, odfi_routing_number, production, status, created_at from payment_batches
where batch_id = ? and user_id = ? and deleted_at is null limit 1`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	row := stmt.QueryRow(batchID, userID)

	var batch model.PaymentBatch
	var created time.Time
	err = row.Scan(&batch.ID, &batch.CompanyName, &batch.CompanyIdentification, &batch.CompanyEntryDescription, &batch.CompanyDescriptiveDate, &batch.EffectiveEntryDate, &batch.ODFIRoutingNumber, &batch.Production, &batch.Status, &created)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	batch.Created = base.NewTime(created)
	return &batch, nil
}

func (r *SQLBatchRepo) GetUserBatches(userID id.User) ([]*model.PaymentBatch, error) {
	query := `select batch_id from payment_batches where user_id = ? and deleted_at is null`
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

	var batchIDs []string
	for rows.Next() {
		var row string
		if err := rows.Scan(&row); err != nil {
			return nil, fmt.Errorf("getUserBatches scan: %v", err)
		}
		if row != "" {
			batchIDs = append(batchIDs, row)
		}
	}
	var batches []*model.PaymentBatch
	for i := range batchIDs {
		batch, err := r.GetBatch(id.Batch(batchIDs[i]), userID)
		if err == nil && batch != nil {
			batches = append(batches, batch)
		}
	}
	return batches, rows.Err()
}

func (r *SQLBatchRepo) GetApprovedBatches() ([]Approval, error) {
	query := `select batch_id, user_id from payment_batches where status = ? and deleted_at is null`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.Query(model.BatchApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Approval
	for rows.Next() {
		var approval Approval
		if err := rows.Scan(&approval.BatchID, &approval.UserID); err != nil {
			return nil, err
		}
		out = append(out, approval)
	}
	return out, rows.Err()
}

// AddItem appends a payment item to a draft batch. Items can't be added once
// the batch is approved.
func (r *SQLBatchRepo) AddItem(batchID id.Batch, userID id.User, item *model.PaymentItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	batch, err := r.GetBatch(batchID, userID)
	if err != nil || batch == nil {
		return fmt.Errorf("batch %s not found: %v", batchID, err)
	}
	if batch.Status != model.BatchDraft {
		return ErrNotDraft
	}

	query := `insert into payment_items (item_id, batch_id, vendor_id, amount, memo, created_at) values (?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(item.ID, batchID, item.Vendor, item.Amount.String(), item.Memo, time.Now())
	return err
}

func (r *SQLBatchRepo) GetItems(batchID id.Batch) ([]*model.PaymentItem, error) {
	query := `select item_id, vendor_id, amount, memo, trace_number, created_at from payment_items where batch_id = ? and deleted_at is null order by created_at, item_id`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.Query(batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*model.PaymentItem
	for rows.Next() {
		var item model.PaymentItem
		var amount string
		var trace sql.NullString
		var created time.Time
		if err := rows.Scan(&item.ID, &item.Vendor, &amount, &item.Memo, &trace, &created); err != nil {
			return nil, fmt.Errorf("getItems scan: %v", err)
		}
		if err := item.Amount.FromString(amount); err != nil {
			return nil, fmt.Errorf("getItems amount %q: %v", amount, err)
		}
		item.BatchID = batchID
		item.TraceNumber = trace.String
		item.Created = base.NewTime(created)
		items = append(items, &item)
	}
	return items, rows.Err()
}

// Approve moves a draft batch with at least one item to approved.
func (r *SQLBatchRepo) Approve(batchID id.Batch, userID id.User) error {
	items, err := r.GetItems(batchID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return ErrNoItems
	}
	return r.updateStatus(batchID, userID, model.BatchDraft, model.BatchApproved)
}

// Cancel moves a draft or approved batch to canceled.
func (r *SQLBatchRepo) Cancel(batchID id.Batch, userID id.User) error {
	if err := r.updateStatus(batchID, userID, model.BatchDraft, model.BatchCanceled); err == nil {
		return nil
	}
	return r.updateStatus(batchID, userID, model.BatchApproved, model.BatchCanceled)
}

// updateStatus performs an optimistic check-then-set so concurrent
// transitions of the same batch are rejected rather than applied twice.
func (r *SQLBatchRepo) updateStatus(batchID id.Batch, userID id.User, from, to model.BatchStatus) error {
	query := `update payment_batches set status = ?, last_updated_at = ? where batch_id = ? and user_id = ? and status = ? and deleted_at is null`
	res, err := r.db.Exec(query, to, time.Now(), batchID, userID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("batch %s is not %s", batchID, from)
	}
	return nil
}
