// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package nacha assembles NACHA formatted ACH files for vendor payments.
//
// A FileBuilder is a one-shot object: open batches with CreateBatch, append
// payments with AddEntry, then call Render exactly once to serialize the
// fixed width records. Control totals are recomputed from the stored entries
// during Render and cross-checked against the running accumulators, so a
// drifting counter surfaces as a ConsistencyError instead of a malformed
// file.
package nacha

import (
	"fmt"
	"strings"
	"time"
)

// entryHashModulus truncates entry hash accumulations to their low ten digits.
const entryHashModulus = 1e10

// BatchParams carries the company level fields of a batch header.
type BatchParams struct {
	CompanyName              string
	CompanyDiscretionaryData string

	// CompanyIdentification is the 10 character originator identifier,
	// typically "1" followed by the company's EIN.
	CompanyIdentification string

	// StandardEntryClassCode defaults to CCD (corporate vendor payments).
	StandardEntryClassCode string

	// CompanyEntryDescription appears on the receiver's statement, 10
	// characters max.
	CompanyEntryDescription string

	CompanyDescriptiveDate string

	// EffectiveEntryDate is the requested settlement date, YYMMDD.
	EffectiveEntryDate string

	// ODFIRoutingNumber is the originating bank's 9 digit routing number. Its
	// first 8 digits prefix every trace number in the batch.
	ODFIRoutingNumber string
}

// EntryParams carries one payment to a vendor's bank account.
type EntryParams struct {
	TransactionCode      int
	RoutingNumber        string
	AccountNumber        string
	Amount               int // cents
	IdentificationNumber string
	IndividualName       string
	DiscretionaryData    string
	Addenda              string
}

// Summary holds the control totals of a rendered file for the caller to
// persist alongside the file text.
type Summary struct {
	TotalCredits int `json:"totalCredits"`
	TotalDebits  int `json:"totalDebits"`
	EntryHash    int `json:"entryHash"`
	EntryCount   int `json:"entryCount"`

	// TraceNumbers lists each entry's assigned trace number in the order
	// entries were added, for reconciling payment items.
	TraceNumbers []string `json:"traceNumbers"`
}

// Batch accumulates entries under a single batch header.
type Batch struct {
	params BatchParams
	number int

	entries []*EntryDetail

	// running accumulators, cross-checked against a recomputation at render
	entryHash    int
	totalDebits  int
	totalCredits int

	file *FileBuilder
}

// FileBuilder accumulates batches and serializes them into NACHA records.
// It is not safe for concurrent use; each file generation owns its builder.
type FileBuilder struct {
	header  FileHeader
	batches []*Batch

	// traceSequence is file scoped so trace numbers stay unique and strictly
	// increasing across batches.
	traceSequence int

	rendered bool

	// now is swapped in tests for deterministic creation timestamps.
	now func() time.Time
}

// NewFileBuilder returns a FileBuilder writing the given file header.
func NewFileBuilder(header FileHeader) *FileBuilder {
	if header.FileIDModifier == "" {
		header.FileIDModifier = "A"
	}
	return &FileBuilder{
		header: header,
		now:    time.Now,
	}
}

// CreateBatch opens a new batch. Entries are appended with AddEntry on the
// returned Batch.
func (f *FileBuilder) CreateBatch(params BatchParams) (*Batch, error) {
	if f.rendered {
		return nil, ErrFileRendered
	}
	if params.StandardEntryClassCode == "" {
		params.StandardEntryClassCode = "CCD"
	}
	if !CheckRoutingNumber(params.ODFIRoutingNumber) {
		return nil, &InputError{Field: "odfiRoutingNumber", Err: ErrInvalidRoutingNumber}
	}
	if err := checkASCII([]field{
		{"companyName", params.CompanyName},
		{"companyDiscretionaryData", params.CompanyDiscretionaryData},
		{"companyIdentification", params.CompanyIdentification},
		{"companyEntryDescription", params.CompanyEntryDescription},
		{"companyDescriptiveDate", params.CompanyDescriptiveDate},
	}); err != nil {
		return nil, err
	}
	batch := &Batch{
		params: params,
		number: len(f.batches) + 1,
		file:   f,
	}
	f.batches = append(f.batches, batch)
	return batch, nil
}

// AddEntry validates params, assigns the next trace number, and appends the
// entry to the batch. The constructed entry is returned so callers can record
// the trace number against their payment item.
func (b *Batch) AddEntry(params EntryParams) (*EntryDetail, error) {
	if b.file.rendered {
		return nil, ErrFileRendered
	}
	if !validTransactionCode(params.TransactionCode) {
		return nil, &InputError{Field: "transactionCode", Err: ErrInvalidTransactionCode}
	}
	if !CheckRoutingNumber(params.RoutingNumber) {
		return nil, &InputError{Field: "routingNumber", Err: ErrInvalidRoutingNumber}
	}
	if strings.TrimSpace(params.AccountNumber) == "" {
		return nil, &InputError{Field: "accountNumber", Err: ErrInvalidAccountNumber}
	}
	if params.Amount <= 0 {
		return nil, &InputError{Field: "amount", Err: ErrInvalidAmount}
	}
	if err := checkASCII([]field{
		{"accountNumber", params.AccountNumber},
		{"identificationNumber", params.IdentificationNumber},
		{"individualName", params.IndividualName},
		{"discretionaryData", params.DiscretionaryData},
		{"addenda", params.Addenda},
	}); err != nil {
		return nil, err
	}

	b.file.traceSequence++
	entry := &EntryDetail{
		TransactionCode:      params.TransactionCode,
		RDFIIdentification:   ABA8(params.RoutingNumber),
		CheckDigit:           ABACheckDigit(params.RoutingNumber),
		DFIAccountNumber:     params.AccountNumber,
		Amount:               params.Amount,
		IdentificationNumber: params.IdentificationNumber,
		IndividualName:       params.IndividualName,
		DiscretionaryData:    params.DiscretionaryData,
		Addenda:              params.Addenda,
		TraceNumber:          TraceNumber(b.params.ODFIRoutingNumber, b.file.traceSequence),
	}
	b.entries = append(b.entries, entry)

	b.entryHash = (b.entryHash + entry.routingDigits()) % entryHashModulus
	if IsDebit(entry.TransactionCode) {
		b.totalDebits += entry.Amount
	} else {
		b.totalCredits += entry.Amount
	}
	return entry, nil
}

type field struct {
	name, value string
}

// checkASCII rejects fields carrying characters outside printable ASCII.
// Rejecting them up front keeps bad caller data from ever reaching the
// serializer, whose field widths are byte counts.
func checkASCII(fields []field) error {
	for i := range fields {
		for _, r := range fields[i].value {
			if r < 0x20 || r > 0x7e {
				return &InputError{Field: fields[i].name, Err: ErrNonASCII}
			}
		}
	}
	return nil
}

// TraceNumber builds a trace number from the ODFI's 8 digit routing prefix
// and a zero padded sequence. Sequences are file scoped starting at 1.
func TraceNumber(odfiRoutingNumber string, sequence int) string {
	c := converters{}
	return c.stringField(ABA8(odfiRoutingNumber), 8) + c.numericField(sequence, 7)
}

// serviceClassCode picks the batch's service class from the polarity of its
// entries.
func (b *Batch) serviceClassCode() int {
	debits, credits := false, false
	for i := range b.entries {
		if IsDebit(b.entries[i].TransactionCode) {
			debits = true
		} else {
			credits = true
		}
	}
	switch {
	case debits && credits:
		return MixedDebitsAndCredits
	case debits:
		return DebitsOnly
	default:
		return CreditsOnly
	}
}

// recompute walks the stored entries and returns fresh control totals,
// independent of the running accumulators.
func (b *Batch) recompute() (entryAddendaCount, entryHash, totalDebits, totalCredits int) {
	for i := range b.entries {
		e := b.entries[i]
		entryAddendaCount += e.recordCount()
		entryHash = (entryHash + e.routingDigits()) % entryHashModulus
		if IsDebit(e.TransactionCode) {
			totalDebits += e.Amount
		} else {
			totalCredits += e.Amount
		}
	}
	return entryAddendaCount, entryHash, totalDebits, totalCredits
}

// Render serializes the file and returns its text plus a Summary of control
// totals. The builder rejects further mutation afterwards.
//
// Input problems (no batches, an empty batch) surface as InputError wrapped
// sentinels. A record of the wrong width or accumulator drift aborts with a
// ConsistencyError since those indicate a bug here, not bad data.
func (f *FileBuilder) Render() (string, *Summary, error) {
	if len(f.batches) == 0 {
		return "", nil, &InputError{Field: "file", Err: ErrEmptyFile}
	}
	for i := range f.batches {
		if len(f.batches[i].entries) == 0 {
			return "", nil, &InputError{Field: fmt.Sprintf("batch %d", f.batches[i].number), Err: ErrEmptyBatch}
		}
	}
	f.rendered = true

	header := f.header
	now := f.now()
	if header.FileCreationDate == "" {
		header.FileCreationDate = now.Format("060102")
	}
	if header.FileCreationTime == "" {
		header.FileCreationTime = now.Format("1504")
	}

	summary := &Summary{}
	var lines []string
	push := func(record, line string) error {
		if len(line) != RecordLength {
			return &ConsistencyError{Record: record, Reason: fmt.Sprintf("rendered %d characters, expected %d", len(line), RecordLength)}
		}
		lines = append(lines, line)
		return nil
	}

	if err := push("file header", header.render()); err != nil {
		return "", nil, err
	}

	var fileEntryAddendaCount, fileEntryHash int
	for i := range f.batches {
		batch := f.batches[i]
		entryAddendaCount, entryHash, totalDebits, totalCredits := batch.recompute()
		if entryHash != batch.entryHash || totalDebits != batch.totalDebits || totalCredits != batch.totalCredits {
			return "", nil, &ConsistencyError{
				Record: "batch control",
				Reason: fmt.Sprintf("batch %d accumulators disagree with recomputed totals", batch.number),
			}
		}

		scc := batch.serviceClassCode()
		bh := &batchHeader{
			serviceClassCode:         scc,
			companyName:              batch.params.CompanyName,
			companyDiscretionaryData: batch.params.CompanyDiscretionaryData,
			companyIdentification:    batch.params.CompanyIdentification,
			standardEntryClassCode:   batch.params.StandardEntryClassCode,
			companyEntryDescription:  batch.params.CompanyEntryDescription,
			companyDescriptiveDate:   batch.params.CompanyDescriptiveDate,
			effectiveEntryDate:       batch.params.EffectiveEntryDate,
			odfiIdentification:       ABA8(batch.params.ODFIRoutingNumber),
			batchNumber:              batch.number,
		}
		if err := push("batch header", bh.render()); err != nil {
			return "", nil, err
		}

		for j := range batch.entries {
			entry := batch.entries[j]
			if err := push("entry detail", entry.render()); err != nil {
				return "", nil, err
			}
			if entry.addendaRecordIndicator() == 1 {
				if err := push("addenda", entry.renderAddenda()); err != nil {
					return "", nil, err
				}
			}
			summary.TraceNumbers = append(summary.TraceNumbers, entry.TraceNumber)
		}

		bc := &batchControl{
			serviceClassCode:      scc,
			entryAddendaCount:     entryAddendaCount,
			entryHash:             entryHash,
			totalDebits:           totalDebits,
			totalCredits:          totalCredits,
			companyIdentification: batch.params.CompanyIdentification,
			odfiIdentification:    ABA8(batch.params.ODFIRoutingNumber),
			batchNumber:           batch.number,
		}
		if err := push("batch control", bc.render()); err != nil {
			return "", nil, err
		}

		fileEntryAddendaCount += entryAddendaCount
		fileEntryHash = (fileEntryHash + entryHash) % entryHashModulus
		summary.TotalDebits += totalDebits
		summary.TotalCredits += totalCredits
		summary.EntryCount += len(batch.entries)
	}
	summary.EntryHash = fileEntryHash

	// +1 for the file control record itself
	blockCount := (len(lines) + 1 + 9) / 10
	fc := &fileControl{
		batchCount:        len(f.batches),
		blockCount:        blockCount,
		entryAddendaCount: fileEntryAddendaCount,
		entryHash:         fileEntryHash,
		totalDebits:       summary.TotalDebits,
		totalCredits:      summary.TotalCredits,
	}
	if err := push("file control", fc.render()); err != nil {
		return "", nil, err
	}

	for len(lines)%10 != 0 {
		lines = append(lines, fillerRecord)
	}

	return strings.Join(lines, "\n") + "\n", summary, nil
}
