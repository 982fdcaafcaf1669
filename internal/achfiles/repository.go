// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package achfiles

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
	// ErrNotApproved is returned when recording a file against a batch
	// that isn't approved, which includes batches already processed.
	ErrNotApproved = errors.New("batch is not approved")

	// ErrAlreadyGenerated is returned when a batch already has a file.
	ErrAlreadyGenerated = errors.New("batch already has a generated file")
)

type Repository interface {
	GetFile(fileID id.File, userID id.User) (*ACHFile, error)
	GetUserFiles(userID id.User, limit, offset int64) ([]*ACHFile, error)
	GetFileByBatchID(batchID id.Batch) (*ACHFile, error)

	// RecordFile marks the file's batch processed, inserts the file row,
	// and writes each payment item's assigned trace number, all in one
	// transaction. The status flip guards generation: a batch renders at
	// most one file no matter how many generators race.
	RecordFile(userID id.User, file *ACHFile, traceNumbers map[string]string) error

	MarkUploaded(fileID id.File) error
}

func NewFileRepo(logger log.Logger, db *sql.DB) *SQLFileRepo {
	return &SQLFileRepo{log: logger, db: db}
}

type SQLFileRepo struct {
	db  *sql.DB
	log log.Logger
}

func (r *SQLFileRepo) Close() error {
	return r.db.Close()
}

func (r *SQLFileRepo) GetFile(fileID id.File, userID id.User) (*ACHFile, error) {
	query := `select f.file_id, f.batch_id, f.filename, f.item_count, f.total_credits, f.total_debits, f.entry_hash, f.uploaded_at, f.created_at
from ach_files as f
inner join payment_batches as b on f.batch_id = b.batch_id
where f.file_id = ? and b.user_id = ? and f.deleted_at is null
limit 1`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	return scanFile(stmt.QueryRow(fileID, userID))
}

func (r *SQLFileRepo) GetFileByBatchID(batchID id.Batch) (*ACHFile, error) {
	query := `select file_id, batch_id, filename, item_count, total_credits, total_debits, entry_hash, uploaded_at, created_at
from ach_files
where batch_id = ? and deleted_at is null
limit 1`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	return scanFile(stmt.QueryRow(batchID))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFile(row rowScanner) (*ACHFile, error) {
	var file ACHFile
	var uploaded *time.Time
	var created time.Time
	err := row.Scan(&file.ID, &file.BatchID, &file.Filename, &file.ItemCount, &file.TotalCredits, &file.TotalDebits, &file.EntryHash, &uploaded, &created)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if uploaded != nil {
		t := base.NewTime(*uploaded)
		file.Uploaded = &t
	}
	file.Created = base.NewTime(created)
	return &file, nil
}

func (r *SQLFileRepo) GetUserFiles(userID id.User, limit, offset int64) ([]*ACHFile, error) {
	if limit <= 0 {
		limit = 25
	}
	query := `select f.file_id, f.batch_id, f.filename, f.item_count, f.total_credits, f.total_debits, f.entry_hash, f.uploaded_at, f.created_at
from ach_files as f
inner join payment_batches as b on f.batch_id = b.batch_id
where b.user_id = ? and f.deleted_at is null
order by f.created_at desc limit ? offset ?`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.Query(userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ACHFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("getUserFiles scan: %v", err)
		}
		if file != nil {
			out = append(out, file)
		}
	}
	return out, rows.Err()
}

func (r *SQLFileRepo) RecordFile(userID id.User, file *ACHFile, traceNumbers map[string]string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	// Flip the batch out of approved. Zero rows means another generator
	// got here first or the batch was never approved.
	res, err := tx.Exec(`update payment_batches set status = ? where batch_id = ? and user_id = ? and status = ? and deleted_at is null`,
		model.BatchProcessed, file.BatchID, userID, model.BatchApproved)
	if err != nil {
		tx.Rollback()
		return err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		tx.Rollback()
		return ErrNotApproved
	}

	// The unique index on batch_id backstops the status check.
	_, err = tx.Exec(`insert into ach_files (file_id, batch_id, filename, item_count, total_credits, total_debits, entry_hash, created_at) values (?, ?, ?, ?, ?, ?, ?, ?)`,
		file.ID, file.BatchID, file.Filename, file.ItemCount, file.TotalCredits, file.TotalDebits, file.EntryHash, time.Now())
	if err != nil {
		tx.Rollback()
		return err
	}

	for itemID, trace := range traceNumbers {
		if _, err := tx.Exec(`update payment_items set trace_number = ? where item_id = ? and batch_id = ?`, trace, itemID, file.BatchID); err != nil {
			tx.Rollback()
			return fmt.Errorf("recordFile: trace for item %s: %v", itemID, err)
		}
	}

	return tx.Commit()
}

func (r *SQLFileRepo) MarkUploaded(fileID id.File) error {
	stmt, err := r.db.Prepare(`update ach_files set uploaded_at = ? where file_id = ? and uploaded_at is null`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(time.Now(), fileID)
	return err
}
