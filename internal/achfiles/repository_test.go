// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package achfiles

import (
	"testing"
	"time"

	"github.com/moov-io/base"
	"github.com/vendorpay-io/vendorpay/internal/batches"
	"github.com/vendorpay-io/vendorpay/internal/database"
	"github.com/vendorpay-io/vendorpay/internal/model"
	"github.com/vendorpay-io/vendorpay/pkg/id"

	"github.com/go-kit/kit/log"
)

func testFile(batchID id.Batch) *ACHFile {
	return &ACHFile{
		ID:           id.File(base.ID()),
		BatchID:      batchID,
		Filename:     filename(time.Now(), "121042882", batchID),
		ItemCount:    1,
		TotalCredits: 10000,
		EntryHash:    12104288,
		Created:      base.NewTime(time.Now()),
	}
}

func seedApprovedBatch(t *testing.T, batchRepo *batches.SQLBatchRepo, batchID id.Batch, userID id.User) *model.PaymentItem {
	t.Helper()

	batch := &model.PaymentBatch{
		ID:                      batchID,
		CompanyName:             "Acme Corp",
		CompanyIdentification:   "1222333444",
		CompanyEntryDescription: "VENDOR PAY",
		EffectiveEntryDate:      "200113",
		ODFIRoutingNumber:       "121042882",
	}
	if err := batchRepo.CreateBatch(userID, batch); err != nil {
		t.Fatal(err)
	}

	amt, _ := model.NewAmount("USD", "100.00")
	item := &model.PaymentItem{
		ID:      base.ID(),
		BatchID: batchID,
		Vendor:  id.Vendor(base.ID()),
		Amount:  *amt,
		Memo:    "Invoice 1042",
	}
	if err := batchRepo.AddItem(batchID, userID, item); err != nil {
		t.Fatal(err)
	}
	if err := batchRepo.Approve(batchID, userID); err != nil {
		t.Fatal(err)
	}
	return item
}

func TestSQLFileRepo(t *testing.T) {
	t.Parallel()

	check := func(t *testing.T, repo *SQLFileRepo, batchRepo *batches.SQLBatchRepo) {
		batchID, userID := id.Batch(base.ID()), id.User(base.ID())
		item := seedApprovedBatch(t, batchRepo, batchID, userID)

		if file, err := repo.GetFileByBatchID(batchID); file != nil || err != nil {
			t.Fatalf("expected no file=%v: %v", file, err)
		}

		file := testFile(batchID)
		trace := "12104288" + "0000001"
		if err := repo.RecordFile(userID, file, map[string]string{item.ID: trace}); err != nil {
			t.Fatal(err)
		}

		// the batch is processed now
		batch, err := batchRepo.GetBatch(batchID, userID)
		if err != nil || batch == nil {
			t.Fatalf("batch=%v: %v", batch, err)
		}
		if batch.Status != model.BatchProcessed {
			t.Errorf("status=%s", batch.Status)
		}

		// the item carries its trace number
		items, err := batchRepo.GetItems(batchID)
		if err != nil || len(items) != 1 {
			t.Fatalf("items=%v: %v", items, err)
		}
		if items[0].TraceNumber != trace {
			t.Errorf("traceNumber=%q", items[0].TraceNumber)
		}

		// recording again fails: the batch is no longer approved
		if err := repo.RecordFile(userID, testFile(batchID), nil); err != ErrNotApproved {
			t.Fatalf("expected ErrNotApproved, got %v", err)
		}

		found, err := repo.GetFile(file.ID, userID)
		if err != nil || found == nil {
			t.Fatalf("file=%v: %v", found, err)
		}
		if found.TotalCredits != 10000 || found.EntryHash != 12104288 {
			t.Errorf("file=%#v", found)
		}
		if found.Uploaded != nil {
			t.Errorf("uploaded=%v", found.Uploaded)
		}

		// wrong user sees nothing
		if found, err := repo.GetFile(file.ID, id.User(base.ID())); found != nil || err != nil {
			t.Fatalf("expected no file=%v: %v", found, err)
		}

		userFiles, err := repo.GetUserFiles(userID, 0, 0)
		if err != nil || len(userFiles) != 1 {
			t.Fatalf("files=%v: %v", userFiles, err)
		}

		// pagination out of range
		userFiles, err = repo.GetUserFiles(userID, 10, 10)
		if err != nil || len(userFiles) != 0 {
			t.Fatalf("files=%v: %v", userFiles, err)
		}

		if err := repo.MarkUploaded(file.ID); err != nil {
			t.Fatal(err)
		}
		found, err = repo.GetFile(file.ID, userID)
		if err != nil || found == nil || found.Uploaded == nil {
			t.Fatalf("file=%v: %v", found, err)
		}
	}

	// SQLite
	sqliteDB := database.CreateTestSqliteDB(t)
	defer sqliteDB.Close()
	check(t, NewFileRepo(log.NewNopLogger(), sqliteDB.DB), batches.NewBatchRepo(log.NewNopLogger(), sqliteDB.DB))

	// MySQL
	mysqlDB := database.CreateTestMySQLDB(t)
	defer mysqlDB.Close()
	check(t, NewFileRepo(log.NewNopLogger(), mysqlDB.DB), batches.NewBatchRepo(log.NewNopLogger(), mysqlDB.DB))
}

func TestSQLFileRepo__RecordFileDraft(t *testing.T) {
	sqliteDB := database.CreateTestSqliteDB(t)
	defer sqliteDB.Close()

	repo := NewFileRepo(log.NewNopLogger(), sqliteDB.DB)
	batchRepo := batches.NewBatchRepo(log.NewNopLogger(), sqliteDB.DB)

	batchID, userID := id.Batch(base.ID()), id.User(base.ID())
	batch := &model.PaymentBatch{
		ID:                      batchID,
		CompanyName:             "Acme Corp",
		CompanyIdentification:   "1222333444",
		CompanyEntryDescription: "VENDOR PAY",
		ODFIRoutingNumber:       "121042882",
	}
	if err := batchRepo.CreateBatch(userID, batch); err != nil {
		t.Fatal(err)
	}

	// draft batches can't record files
	if err := repo.RecordFile(userID, testFile(batchID), nil); err != ErrNotApproved {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}
}
