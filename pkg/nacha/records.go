// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package nacha

import (
	"fmt"
	"strings"
)

// Service class codes written into batch header and control records.
const (
	MixedDebitsAndCredits = 200
	CreditsOnly           = 220
	DebitsOnly            = 225
)

// Transaction codes supported for vendor payments. Other NACHA codes
// (prenotes, returns, zero-dollar) are rejected.
const (
	CheckingCredit = 22
	CheckingDebit  = 27
	SavingsCredit  = 32
	SavingsDebit   = 37
)

// IsDebit reports whether code moves funds out of the receiving account.
func IsDebit(code int) bool {
	return code == CheckingDebit || code == SavingsDebit
}

// validTransactionCode reports whether code is one of the four codes this
// package originates.
func validTransactionCode(code int) bool {
	switch code {
	case CheckingCredit, CheckingDebit, SavingsCredit, SavingsDebit:
		return true
	}
	return false
}

// FileHeader is the first record of an ACH file.
type FileHeader struct {
	// ImmediateDestination is the routing number of the ACH operator or
	// receiving point the file is sent to.
	ImmediateDestination string

	// ImmediateOrigin is the routing number or assigned company identifier of
	// the sending point.
	ImmediateOrigin string

	ImmediateDestinationName string
	ImmediateOriginName      string

	// FileCreationDate (YYMMDD) and FileCreationTime (HHMM) default to the
	// wall clock at render time when left empty.
	FileCreationDate string
	FileCreationTime string

	// FileIDModifier distinguishes multiple files sent on the same day,
	// defaults to "A".
	FileIDModifier string

	converters
}

func (fh *FileHeader) render() string {
	var buf strings.Builder
	buf.WriteString("101")
	buf.WriteString(" " + fh.stringField(fh.ImmediateDestination, 9))
	buf.WriteString(fh.immediateOriginField())
	buf.WriteString(fh.stringField(fh.FileCreationDate, 6))
	buf.WriteString(fh.stringField(fh.FileCreationTime, 4))
	buf.WriteString(fh.alphaField(fh.FileIDModifier, 1))
	buf.WriteString("094101")
	buf.WriteString(fh.alphaField(fh.ImmediateDestinationName, 23))
	buf.WriteString(fh.alphaField(fh.ImmediateOriginName, 23))
	buf.WriteString(fh.alphaField("", 8)) // reference code
	return buf.String()
}

// immediateOriginField prefixes nine digit routing numbers with a space, the
// same as the destination. Ten character company identifiers are written
// as-is.
func (fh *FileHeader) immediateOriginField() string {
	if len(strings.TrimSpace(fh.ImmediateOrigin)) == 10 {
		return fh.stringField(fh.ImmediateOrigin, 10)
	}
	return " " + fh.stringField(fh.ImmediateOrigin, 9)
}

// batchHeader is rendered from a Batch at serialization time once the service
// class code is known.
type batchHeader struct {
	serviceClassCode         int
	companyName              string
	companyDiscretionaryData string
	companyIdentification    string
	standardEntryClassCode   string
	companyEntryDescription  string
	companyDescriptiveDate   string
	effectiveEntryDate       string
	odfiIdentification       string
	batchNumber              int

	converters
}

func (bh *batchHeader) render() string {
	var buf strings.Builder
	buf.WriteString("5")
	buf.WriteString(bh.numericField(bh.serviceClassCode, 3))
	buf.WriteString(bh.alphaField(bh.companyName, 16))
	buf.WriteString(bh.alphaField(bh.companyDiscretionaryData, 20))
	buf.WriteString(bh.alphaField(bh.companyIdentification, 10))
	buf.WriteString(bh.alphaField(bh.standardEntryClassCode, 3))
	buf.WriteString(bh.alphaField(bh.companyEntryDescription, 10))
	buf.WriteString(bh.alphaField(bh.companyDescriptiveDate, 6))
	buf.WriteString(bh.stringField(bh.effectiveEntryDate, 6))
	buf.WriteString(strings.Repeat(" ", 3)) // settlement date, filled by the ACH operator
	buf.WriteString("1")                    // originator status code
	buf.WriteString(bh.stringField(bh.odfiIdentification, 8))
	buf.WriteString(bh.numericField(bh.batchNumber, 7))
	return buf.String()
}

// EntryDetail is a single payment within a batch. Callers receive the
// constructed entry from AddEntry so the assigned trace number can be written
// back onto their own payment records.
type EntryDetail struct {
	// TransactionCode distinguishes checking from savings and credit from
	// debit; one of CheckingCredit, CheckingDebit, SavingsCredit, SavingsDebit.
	TransactionCode int

	// RDFIIdentification is the first 8 digits of the receiver's routing
	// number, CheckDigit the ninth.
	RDFIIdentification string
	CheckDigit         string

	// DFIAccountNumber is the receiver's account at the RDFI.
	DFIAccountNumber string

	// Amount in cents.
	Amount int

	// IdentificationNumber carries the originator's identifier for the
	// receiver (the vendor id).
	IdentificationNumber string

	IndividualName    string
	DiscretionaryData string

	// TraceNumber is assigned by the file builder: the ODFI's 8 digit prefix
	// plus a zero padded sequence unique within the file.
	TraceNumber string

	// Addenda carries optional remittance text emitted as an Addenda05 record
	// immediately after this entry.
	Addenda string

	converters
}

func (ed *EntryDetail) render() string {
	var buf strings.Builder
	buf.WriteString("6")
	buf.WriteString(ed.numericField(ed.TransactionCode, 2))
	buf.WriteString(ed.stringField(ed.RDFIIdentification, 8))
	buf.WriteString(ed.stringField(ed.CheckDigit, 1))
	buf.WriteString(ed.alphaField(ed.DFIAccountNumber, 17))
	buf.WriteString(ed.numericField(ed.Amount, 10))
	buf.WriteString(ed.alphaField(ed.IdentificationNumber, 15))
	buf.WriteString(ed.alphaField(ed.IndividualName, 22))
	buf.WriteString(ed.alphaField(ed.DiscretionaryData, 2))
	buf.WriteString(ed.numericField(ed.addendaRecordIndicator(), 1))
	buf.WriteString(ed.stringField(ed.TraceNumber, 15))
	return buf.String()
}

func (ed *EntryDetail) addendaRecordIndicator() int {
	if strings.TrimSpace(ed.Addenda) != "" {
		return 1
	}
	return 0
}

// recordCount is 1 for the entry plus its addenda record, if any.
func (ed *EntryDetail) recordCount() int {
	return 1 + ed.addendaRecordIndicator()
}

// renderAddenda returns the Addenda05 record following this entry. The
// sequence number is always 1 since vendor payments carry at most one
// addenda; the entry detail sequence number is the trailing 7 digits of the
// entry's trace number.
func (ed *EntryDetail) renderAddenda() string {
	var buf strings.Builder
	buf.WriteString("705")
	buf.WriteString(ed.alphaField(ed.Addenda, 80))
	buf.WriteString(ed.numericField(1, 4))
	seq := ed.TraceNumber
	if len(seq) > 7 {
		seq = seq[len(seq)-7:]
	}
	buf.WriteString(ed.stringField(seq, 7))
	return buf.String()
}

// routingDigits returns the 8 digit RDFI identification as an int for entry
// hash accumulation.
func (ed *EntryDetail) routingDigits() int {
	var n int
	fmt.Sscanf(ed.RDFIIdentification, "%d", &n)
	return n
}

// batchControl trails each batch with its recomputed totals.
type batchControl struct {
	serviceClassCode      int
	entryAddendaCount     int
	entryHash             int
	totalDebits           int
	totalCredits          int
	companyIdentification string
	odfiIdentification    string
	batchNumber           int

	converters
}

func (bc *batchControl) render() string {
	var buf strings.Builder
	buf.WriteString("8")
	buf.WriteString(bc.numericField(bc.serviceClassCode, 3))
	buf.WriteString(bc.numericField(bc.entryAddendaCount, 6))
	buf.WriteString(bc.numericField(bc.entryHash, 10))
	buf.WriteString(bc.numericField(bc.totalDebits, 12))
	buf.WriteString(bc.numericField(bc.totalCredits, 12))
	buf.WriteString(bc.alphaField(bc.companyIdentification, 10))
	buf.WriteString(strings.Repeat(" ", 19)) // message authentication code
	buf.WriteString(strings.Repeat(" ", 6))  // reserved
	buf.WriteString(bc.stringField(bc.odfiIdentification, 8))
	buf.WriteString(bc.numericField(bc.batchNumber, 7))
	return buf.String()
}

// fileControl is the final record before block padding.
type fileControl struct {
	batchCount        int
	blockCount        int
	entryAddendaCount int
	entryHash         int
	totalDebits       int
	totalCredits      int

	converters
}

func (fc *fileControl) render() string {
	var buf strings.Builder
	buf.WriteString("9")
	buf.WriteString(fc.numericField(fc.batchCount, 6))
	buf.WriteString(fc.numericField(fc.blockCount, 6))
	buf.WriteString(fc.numericField(fc.entryAddendaCount, 8))
	buf.WriteString(fc.numericField(fc.entryHash, 10))
	buf.WriteString(fc.numericField(fc.totalDebits, 12))
	buf.WriteString(fc.numericField(fc.totalCredits, 12))
	buf.WriteString(strings.Repeat(" ", 39)) // reserved
	return buf.String()
}

// fillerRecord pads files out to a multiple of ten records.
var fillerRecord = strings.Repeat("9", RecordLength)
