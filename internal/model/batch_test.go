// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package model

import (
	"testing"

	"github.com/vendorpay-io/vendorpay/pkg/id"
)

func TestPaymentBatch__Validate(t *testing.T) {
	batch := PaymentBatch{
		ID:                      id.Batch("xxx"),
		CompanyName:             "Acme Corp",
		CompanyIdentification:   "1222333444",
		CompanyEntryDescription: "VENDOR PAY",
		EffectiveEntryDate:      "200113",
		ODFIRoutingNumber:       "121042882",
	}
	if err := batch.Validate(); err != nil {
		t.Fatal(err)
	}

	bad := batch
	bad.ODFIRoutingNumber = "121042880"
	if err := bad.Validate(); err == nil {
		t.Error("expected routing number error")
	}

	bad = batch
	bad.CompanyEntryDescription = "MORE THAN TEN CHARS"
	if err := bad.Validate(); err == nil {
		t.Error("expected description error")
	}

	bad = batch
	bad.EffectiveEntryDate = "2020-01-13"
	if err := bad.Validate(); err == nil {
		t.Error("expected effective entry date error")
	}
}

func TestBatchStatus__Validate(t *testing.T) {
	for _, status := range []BatchStatus{BatchDraft, BatchApproved, BatchProcessed, BatchCanceled} {
		if err := status.Validate(); err != nil {
			t.Error(err)
		}
	}
	if err := BatchStatus("other").Validate(); err == nil {
		t.Error("expected error")
	}
}

func TestPaymentItem__Validate(t *testing.T) {
	amt, _ := NewAmount("USD", "100.00")
	item := PaymentItem{
		Vendor: id.Vendor("v"),
		Amount: *amt,
	}
	if err := item.Validate(); err != nil {
		t.Fatal(err)
	}

	item.Vendor = ""
	if err := item.Validate(); err == nil {
		t.Error("expected missing vendor error")
	}
}

func TestAccountType__CreditTransactionCode(t *testing.T) {
	if v := Checking.CreditTransactionCode(); v != 22 {
		t.Errorf("got %d", v)
	}
	if v := Savings.CreditTransactionCode(); v != 32 {
		t.Errorf("got %d", v)
	}
}

func TestBankAccount__Validate(t *testing.T) {
	acct := BankAccount{
		RoutingNumber: "231380104",
		AccountNumber: "18061234",
		Type:          Checking,
	}
	if err := acct.Validate(); err != nil {
		t.Fatal(err)
	}

	acct.RoutingNumber = "231380105"
	if err := acct.Validate(); err == nil {
		t.Error("expected routing number error")
	}
}
