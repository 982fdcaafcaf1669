// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package nacha

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func testBatchParams() BatchParams {
	return BatchParams{
		CompanyName:             "Acme Corp",
		CompanyIdentification:   "1222333444",
		CompanyEntryDescription: "VENDOR PAY",
		CompanyDescriptiveDate:  "200110",
		EffectiveEntryDate:      "200113",
		ODFIRoutingNumber:       "121042882",
	}
}

func testEntryParams() EntryParams {
	return EntryParams{
		TransactionCode:      CheckingCredit,
		RoutingNumber:        "231380104",
		AccountNumber:        "18061234",
		Amount:               10000, // $100.00
		IdentificationNumber: "vendor-42",
		IndividualName:       "Jane Supplier",
	}
}

func testRender(t *testing.T, entries ...EntryParams) (string, *Summary) {
	t.Helper()

	builder := NewFileBuilder(FileHeader{
		ImmediateDestination:     "231380104",
		ImmediateOrigin:          "121042882",
		ImmediateDestinationName: "Their Bank",
		ImmediateOriginName:      "My Bank",
		FileCreationDate:         "200110",
		FileCreationTime:         "0601",
	})
	batch, err := builder.CreateBatch(testBatchParams())
	if err != nil {
		t.Fatal(err)
	}
	for i := range entries {
		if _, err := batch.AddEntry(entries[i]); err != nil {
			t.Fatal(err)
		}
	}
	out, summary, err := builder.Render()
	if err != nil {
		t.Fatal(err)
	}
	return out, summary
}

func fileLines(t *testing.T, out string) []string {
	t.Helper()
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	for i := range lines {
		if len(lines[i]) != RecordLength {
			t.Fatalf("line %d is %d characters: %q", i, len(lines[i]), lines[i])
		}
	}
	if len(lines)%10 != 0 {
		t.Fatalf("got %d lines, expected a multiple of 10", len(lines))
	}
	return lines
}

func TestBuilder__SingleCredit(t *testing.T) {
	out, summary := testRender(t, testEntryParams())
	lines := fileLines(t, out)

	if lines[0][:1] != "1" || lines[1][:1] != "5" || lines[2][:1] != "6" || lines[3][:1] != "8" {
		t.Fatalf("unexpected record ordering: %v", lines[:4])
	}

	// batch control: one entry, $100.00 credit, no debits
	bc := lines[3]
	if v := bc[4:10]; v != "000001" {
		t.Errorf("entry/addenda count=%s", v)
	}
	if v := bc[20:32]; v != "000000000000" {
		t.Errorf("total debits=%s", v)
	}
	if v := bc[32:44]; v != "000000010000" {
		t.Errorf("total credits=%s", v)
	}
	if v := bc[1:4]; v != "220" {
		t.Errorf("service class=%s, expected credits only", v)
	}

	if summary.TotalCredits != 10000 || summary.TotalDebits != 0 || summary.EntryCount != 1 {
		t.Errorf("summary=%#v", summary)
	}
	if len(summary.TraceNumbers) != 1 || !strings.HasPrefix(summary.TraceNumbers[0], "12104288") {
		t.Errorf("trace numbers=%v", summary.TraceNumbers)
	}
}

func TestBuilder__EntryHashRoundTrip(t *testing.T) {
	first, second, third := testEntryParams(), testEntryParams(), testEntryParams()
	second.RoutingNumber = "273976369"
	second.TransactionCode = SavingsCredit
	third.RoutingNumber = "021000021"
	third.TransactionCode = CheckingDebit
	third.Amount = 250

	out, summary := testRender(t, first, second, third)
	lines := fileLines(t, out)

	// recompute the hash from the rendered entry detail records
	hash := 0
	for i := range lines {
		if lines[i][:1] != "6" {
			continue
		}
		n, err := strconv.Atoi(lines[i][3:11])
		if err != nil {
			t.Fatal(err)
		}
		hash = (hash + n) % entryHashModulus
	}

	var bc string
	for i := range lines {
		if lines[i][:1] == "8" {
			bc = lines[i]
		}
	}
	if v := bc[10:20]; v != (&converters{}).numericField(hash, 10) {
		t.Errorf("batch control hash=%s, recomputed %d", v, hash)
	}
	if summary.EntryHash != hash {
		t.Errorf("summary hash=%d, recomputed %d", summary.EntryHash, hash)
	}

	// mixed credits and debits
	if v := bc[1:4]; v != "200" {
		t.Errorf("service class=%s", v)
	}
	if summary.TotalDebits != 250 || summary.TotalCredits != 20000 {
		t.Errorf("summary=%#v", summary)
	}
}

func TestBuilder__TraceNumbers(t *testing.T) {
	var entries []EntryParams
	for i := 0; i < 25; i++ {
		entries = append(entries, testEntryParams())
	}
	_, summary := testRender(t, entries...)

	seen := make(map[string]bool)
	prev := ""
	for i := range summary.TraceNumbers {
		trace := summary.TraceNumbers[i]
		if len(trace) != 15 {
			t.Fatalf("trace %q is %d characters", trace, len(trace))
		}
		if seen[trace] {
			t.Fatalf("duplicate trace number %s", trace)
		}
		if trace <= prev {
			t.Fatalf("trace %s is not greater than %s", trace, prev)
		}
		seen[trace] = true
		prev = trace
	}
}

func TestBuilder__Addenda(t *testing.T) {
	params := testEntryParams()
	params.Addenda = "Invoice 1042, net 30"

	out, _ := testRender(t, params)
	lines := fileLines(t, out)

	if lines[3][:3] != "705" {
		t.Fatalf("expected addenda after entry: %q", lines[3])
	}
	if !strings.Contains(lines[3], "INVOICE 1042") {
		t.Errorf("addenda text missing: %q", lines[3])
	}
	if v := lines[2][78:79]; v != "1" {
		t.Errorf("addenda record indicator=%s", v)
	}
	// addenda records count towards the batch entry/addenda count
	for i := range lines {
		if lines[i][:1] == "8" {
			if v := lines[i][4:10]; v != "000002" {
				t.Errorf("entry/addenda count=%s", v)
			}
		}
	}
}

func TestBuilder__Idempotent(t *testing.T) {
	first, _ := testRender(t, testEntryParams())
	second, _ := testRender(t, testEntryParams())
	if first != second {
		t.Error("expected byte identical output for identical input")
	}
}

func TestBuilder__EmptyFile(t *testing.T) {
	builder := NewFileBuilder(FileHeader{
		ImmediateDestination: "231380104",
		ImmediateOrigin:      "121042882",
	})
	if _, _, err := builder.Render(); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}

	var inputErr *InputError
	_, _, err := builder.Render()
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError, got %T", err)
	}
}

func TestBuilder__EmptyBatch(t *testing.T) {
	builder := NewFileBuilder(FileHeader{
		ImmediateDestination: "231380104",
		ImmediateOrigin:      "121042882",
	})
	if _, err := builder.CreateBatch(testBatchParams()); err != nil {
		t.Fatal(err)
	}
	if _, _, err := builder.Render(); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestBuilder__InvalidEntries(t *testing.T) {
	builder := NewFileBuilder(FileHeader{
		ImmediateDestination: "231380104",
		ImmediateOrigin:      "121042882",
	})
	batch, err := builder.CreateBatch(testBatchParams())
	if err != nil {
		t.Fatal(err)
	}

	params := testEntryParams()
	params.RoutingNumber = "021000020"
	if _, err := batch.AddEntry(params); !errors.Is(err, ErrInvalidRoutingNumber) {
		t.Errorf("expected ErrInvalidRoutingNumber, got %v", err)
	}

	params = testEntryParams()
	params.Amount = 0
	if _, err := batch.AddEntry(params); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	params.Amount = -5
	if _, err := batch.AddEntry(params); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	params = testEntryParams()
	params.AccountNumber = "  "
	if _, err := batch.AddEntry(params); !errors.Is(err, ErrInvalidAccountNumber) {
		t.Errorf("expected ErrInvalidAccountNumber, got %v", err)
	}

	params = testEntryParams()
	params.TransactionCode = 23 // prenote credit, not originated here
	if _, err := batch.AddEntry(params); !errors.Is(err, ErrInvalidTransactionCode) {
		t.Errorf("expected ErrInvalidTransactionCode, got %v", err)
	}
}

func TestBuilder__NonASCII(t *testing.T) {
	builder := NewFileBuilder(FileHeader{
		ImmediateDestination: "231380104",
		ImmediateOrigin:      "121042882",
	})
	batch, err := builder.CreateBatch(testBatchParams())
	if err != nil {
		t.Fatal(err)
	}

	// Multi-byte names are caller data, so they're rejected up front as an
	// InputError rather than tripping the 94 byte check during Render.
	params := testEntryParams()
	params.IndividualName = "José García"
	_, err = batch.AddEntry(params)
	if !errors.Is(err, ErrNonASCII) {
		t.Fatalf("expected ErrNonASCII, got %v", err)
	}
	var inputErr *InputError
	if !errors.As(err, &inputErr) || inputErr.Field != "individualName" {
		t.Errorf("got %#v", err)
	}

	params = testEntryParams()
	params.Addenda = "Facture n°42"
	if _, err := batch.AddEntry(params); !errors.Is(err, ErrNonASCII) {
		t.Errorf("expected ErrNonASCII, got %v", err)
	}

	batchParams := testBatchParams()
	batchParams.CompanyName = "Café S.A."
	if _, err := builder.CreateBatch(batchParams); !errors.Is(err, ErrNonASCII) {
		t.Errorf("expected ErrNonASCII, got %v", err)
	}

	// the rejected entries left nothing behind
	if _, err := batch.AddEntry(testEntryParams()); err != nil {
		t.Fatal(err)
	}
	out, summary, err := builder.Render()
	if err != nil {
		t.Fatal(err)
	}
	fileLines(t, out)
	if summary.EntryCount != 1 {
		t.Errorf("entry count=%d", summary.EntryCount)
	}
}

func TestBuilder__RejectsMutationAfterRender(t *testing.T) {
	builder := NewFileBuilder(FileHeader{
		ImmediateDestination: "231380104",
		ImmediateOrigin:      "121042882",
	})
	batch, err := builder.CreateBatch(testBatchParams())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := batch.AddEntry(testEntryParams()); err != nil {
		t.Fatal(err)
	}
	if _, _, err := builder.Render(); err != nil {
		t.Fatal(err)
	}

	if _, err := batch.AddEntry(testEntryParams()); !errors.Is(err, ErrFileRendered) {
		t.Errorf("expected ErrFileRendered, got %v", err)
	}
	if _, err := builder.CreateBatch(testBatchParams()); !errors.Is(err, ErrFileRendered) {
		t.Errorf("expected ErrFileRendered, got %v", err)
	}
}

func TestBuilder__ConsistencyCheck(t *testing.T) {
	builder := NewFileBuilder(FileHeader{
		ImmediateDestination: "231380104",
		ImmediateOrigin:      "121042882",
	})
	batch, err := builder.CreateBatch(testBatchParams())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := batch.AddEntry(testEntryParams()); err != nil {
		t.Fatal(err)
	}

	// simulate accumulator drift
	batch.totalCredits += 100

	_, _, err = builder.Render()
	var consistencyErr *ConsistencyError
	if !errors.As(err, &consistencyErr) {
		t.Fatalf("expected ConsistencyError, got %v", err)
	}
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		t.Error("consistency errors must be distinct from input errors")
	}
}

func TestBuilder__MultipleBatches(t *testing.T) {
	builder := NewFileBuilder(FileHeader{
		ImmediateDestination: "231380104",
		ImmediateOrigin:      "121042882",
		FileCreationDate:     "200110",
		FileCreationTime:     "0601",
	})
	for i := 0; i < 2; i++ {
		batch, err := builder.CreateBatch(testBatchParams())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := batch.AddEntry(testEntryParams()); err != nil {
			t.Fatal(err)
		}
	}
	out, summary, err := builder.Render()
	if err != nil {
		t.Fatal(err)
	}
	lines := fileLines(t, out)

	// batch numbers are sequential from 1
	var headers []string
	for i := range lines {
		if lines[i][:1] == "5" {
			headers = append(headers, lines[i][87:94])
		}
	}
	if len(headers) != 2 || headers[0] != "0000001" || headers[1] != "0000002" {
		t.Errorf("batch numbers=%v", headers)
	}

	// trace sequence continues across batches
	if len(summary.TraceNumbers) != 2 || summary.TraceNumbers[0] == summary.TraceNumbers[1] {
		t.Errorf("trace numbers=%v", summary.TraceNumbers)
	}

	// file control aggregates both batches
	for i := range lines {
		if lines[i][:1] == "9" && lines[i] != fillerRecord {
			if v := lines[i][1:7]; v != "000002" {
				t.Errorf("batch count=%s", v)
			}
			if v := lines[i][43:55]; v != "000000020000" {
				t.Errorf("total credits=%s", v)
			}
		}
	}
}
