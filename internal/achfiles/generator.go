// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package achfiles

import (
	"errors"
	"fmt"
	"time"

	"github.com/moov-io/base"
	"github.com/vendorpay-io/vendorpay/internal/batches"
	"github.com/vendorpay-io/vendorpay/internal/config"
	"github.com/vendorpay-io/vendorpay/internal/events"
	"github.com/vendorpay-io/vendorpay/internal/filestore"
	"github.com/vendorpay-io/vendorpay/internal/model"
	"github.com/vendorpay-io/vendorpay/internal/vendors"
	"github.com/vendorpay-io/vendorpay/pkg/id"
	"github.com/vendorpay-io/vendorpay/pkg/nacha"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

var (
	filesGenerated = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "ach_files_generated",
		Help: "Count of NACHA files rendered and recorded",
	}, []string{"destination"})
)

// Generator turns one approved payment batch into a rendered NACHA file:
// it rebuilds every entry from the current vendor registry, renders through
// pkg/nacha, saves the text to blob storage, and records control totals.
type Generator struct {
	logger log.Logger
	odfi   config.ODFI

	batchRepo  batches.Repository
	vendorRepo vendors.Repository
	fileRepo   Repository
	store      filestore.Storage
	eventRepo  events.Repository

	now func() time.Time
}

func NewGenerator(logger log.Logger, odfi config.ODFI, batchRepo batches.Repository, vendorRepo vendors.Repository, fileRepo Repository, store filestore.Storage, eventRepo events.Repository) *Generator {
	return &Generator{
		logger:     logger,
		odfi:       odfi,
		batchRepo:  batchRepo,
		vendorRepo: vendorRepo,
		fileRepo:   fileRepo,
		store:      store,
		eventRepo:  eventRepo,
		now:        time.Now,
	}
}

func (g *Generator) gateway(production bool) config.Gateway {
	if !production && g.odfi.TestGateway != nil {
		return *g.odfi.TestGateway
	}
	return g.odfi.Gateway
}

// GenerateFile renders the batch's NACHA file. The batch must be approved;
// batches that already rendered a file return ErrAlreadyGenerated.
func (g *Generator) GenerateFile(batchID id.Batch, userID id.User) (*ACHFile, error) {
	batch, err := g.batchRepo.GetBatch(batchID, userID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, fmt.Errorf("batch %s not found", batchID)
	}
	switch batch.Status {
	case model.BatchApproved:
		// render below
	case model.BatchProcessed:
		return nil, ErrAlreadyGenerated
	default:
		return nil, ErrNotApproved
	}

	items, err := g.batchRepo.GetItems(batchID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, batches.ErrNoItems
	}

	when := g.now()
	gw := g.gateway(batch.Production)

	builder := nacha.NewFileBuilder(nacha.FileHeader{
		ImmediateDestination:     gw.Destination,
		ImmediateOrigin:          gw.Origin,
		ImmediateDestinationName: gw.DestinationName,
		ImmediateOriginName:      gw.OriginName,
		FileCreationDate:         when.Format("060102"),
		FileCreationTime:         when.Format("1504"),
	})

	bb, err := builder.CreateBatch(nacha.BatchParams{
		CompanyName:             batch.CompanyName,
		CompanyIdentification:   batch.CompanyIdentification,
		CompanyEntryDescription: batch.CompanyEntryDescription,
		CompanyDescriptiveDate:  batch.CompanyDescriptiveDate,
		EffectiveEntryDate:      batch.EffectiveEntryDate,
		ODFIRoutingNumber:       batch.ODFIRoutingNumber,
	})
	if err != nil {
		return nil, err
	}

	// itemID -> assigned trace number
	traceNumbers := make(map[string]string)

	for i := range items {
		vendor, err := g.vendorRepo.GetVendor(items[i].Vendor, userID)
		if err != nil {
			return nil, fmt.Errorf("vendor %s: %v", items[i].Vendor, err)
		}
		if vendor == nil || vendor.BankAccount == nil {
			return nil, &nacha.InputError{
				Field: "vendor",
				Err:   fmt.Errorf("vendor %s has no bank account on file", items[i].Vendor),
			}
		}

		entry, err := bb.AddEntry(nacha.EntryParams{
			TransactionCode:      vendor.BankAccount.Type.CreditTransactionCode(),
			RoutingNumber:        vendor.BankAccount.RoutingNumber,
			AccountNumber:        vendor.BankAccount.AccountNumber,
			Amount:               items[i].Amount.Int(),
			IdentificationNumber: vendor.Identification,
			IndividualName:       vendor.Name,
			Addenda:              items[i].Memo,
		})
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", items[i].ID, err)
		}
		traceNumbers[items[i].ID] = entry.TraceNumber
	}

	contents, summary, err := builder.Render()
	if err != nil {
		return nil, err
	}

	file := &ACHFile{
		ID:           id.File(base.ID()),
		BatchID:      batchID,
		Filename:     filename(when, batch.ODFIRoutingNumber, batchID),
		ItemCount:    summary.EntryCount,
		TotalCredits: summary.TotalCredits,
		TotalDebits:  summary.TotalDebits,
		EntryHash:    summary.EntryHash,
		Created:      base.NewTime(when),
	}

	if err := g.store.SaveFile(file.Filename, []byte(contents)); err != nil {
		return nil, fmt.Errorf("saving %s: %v", file.Filename, err)
	}

	if err := g.fileRepo.RecordFile(userID, file, traceNumbers); err != nil {
		return nil, err
	}

	if g.eventRepo != nil {
		err := g.eventRepo.WriteEvent(userID, &events.Event{
			ID:      events.EventID(base.ID()),
			Topic:   fmt.Sprintf("File %s generated", file.Filename),
			Message: fmt.Sprintf("Batch %s rendered %d entries totaling %d cents of credits", batchID, file.ItemCount, file.TotalCredits),
			Type:    events.FileEvent,
		})
		if err != nil {
			g.logger.Log("achfiles", fmt.Sprintf("problem writing file event: %v", err), "batchID", batchID)
		}
	}

	filesGenerated.With("destination", gw.Destination).Add(1)
	g.logger.Log("achfiles", fmt.Sprintf("generated %s", file.Filename), "batchID", batchID, "userID", userID)

	return file, nil
}

// responseCode picks the HTTP status for a generation failure. Caller input
// problems render as 400s while accumulator mismatches are our bug, a 500.
func responseCode(err error) int {
	var consistency *nacha.ConsistencyError
	if errors.As(err, &consistency) {
		return 500
	}
	return 400
}
