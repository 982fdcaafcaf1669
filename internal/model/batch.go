// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/moov-io/base"
	"github.com/vendorpay-io/vendorpay/internal/util"
	"github.com/vendorpay-io/vendorpay/pkg/id"
	"github.com/vendorpay-io/vendorpay/pkg/nacha"
)

// PaymentBatch is a group of vendor payments approved for a single NACHA
// file. File generation is only allowed once per batch: status moves
// draft -> approved -> processed and the approved -> processed transition is
// checked inside the same transaction that records the file.
type PaymentBatch struct {
	// ID is a unique string representing this PaymentBatch.
	ID id.Batch `json:"id"`

	// CompanyName appears in the batch header, 16 characters max.
	CompanyName string `json:"companyName"`

	// CompanyIdentification is the 10 character originator identifier,
	// typically "1" followed by the company's EIN.
	CompanyIdentification string `json:"companyIdentification"`

	// CompanyEntryDescription appears on vendor statements, 10 characters max.
	CompanyEntryDescription string `json:"companyEntryDescription"`

	CompanyDescriptiveDate string `json:"companyDescriptiveDate"`

	// EffectiveEntryDate is the requested settlement date, YYMMDD.
	EffectiveEntryDate string `json:"effectiveEntryDate"`

	// ODFIRoutingNumber is the originating bank's routing number.
	ODFIRoutingNumber string `json:"odfiRoutingNumber"`

	// Production routes the file at the live gateway instead of the test
	// gateway.
	Production bool `json:"production"`

	// Status defines the current state of the PaymentBatch
	Status BatchStatus `json:"status"`

	// Created a timestamp representing the initial creation date of the object in ISO 8601
	Created base.Time `json:"created"`
}

func (b *PaymentBatch) Validate() error {
	if b == nil {
		return fmt.Errorf("nil PaymentBatch")
	}
	if strings.TrimSpace(b.CompanyName) == "" {
		return fmt.Errorf("missing companyName")
	}
	if n := len(strings.TrimSpace(b.CompanyIdentification)); n == 0 || n > 10 {
		return fmt.Errorf("companyIdentification=%q must be 10 characters or less", b.CompanyIdentification)
	}
	if n := len(strings.TrimSpace(b.CompanyEntryDescription)); n == 0 || n > 10 {
		return fmt.Errorf("companyEntryDescription=%q must be 10 characters or less", b.CompanyEntryDescription)
	}
	if !nacha.CheckRoutingNumber(b.ODFIRoutingNumber) {
		return fmt.Errorf("odfiRoutingNumber=%q failed checksum", b.ODFIRoutingNumber)
	}
	if v := strings.TrimSpace(b.EffectiveEntryDate); v != "" {
		if util.FirstParsedTime(v, util.NachaDateFormat).IsZero() {
			return fmt.Errorf("effectiveEntryDate=%q must be yymmdd", b.EffectiveEntryDate)
		}
	}
	return nil
}

type BatchStatus string

const (
	BatchDraft     BatchStatus = "draft"
	BatchApproved  BatchStatus = "approved"
	BatchProcessed BatchStatus = "processed"
	BatchCanceled  BatchStatus = "canceled"
)

func (bs BatchStatus) Validate() error {
	switch bs {
	case BatchDraft, BatchApproved, BatchProcessed, BatchCanceled:
		return nil
	default:
		return fmt.Errorf("BatchStatus(%s) is invalid", bs)
	}
}

func (bs *BatchStatus) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*bs = BatchStatus(strings.ToLower(s))
	return bs.Validate()
}

// PaymentItem is one payment to a vendor inside a batch.
type PaymentItem struct {
	ID string `json:"id"`

	BatchID id.Batch  `json:"batchID"`
	Vendor  id.Vendor `json:"vendorID"`

	// Amount is the country currency and quantity
	Amount Amount `json:"amount"`

	// Memo is optional remittance text carried in an addenda record.
	Memo string `json:"memo,omitempty"`

	// TraceNumber is assigned during file generation and written back for
	// reconciliation.
	TraceNumber string `json:"traceNumber,omitempty"`

	Created base.Time `json:"created"`
}

func (item *PaymentItem) Validate() error {
	if item == nil {
		return fmt.Errorf("nil PaymentItem")
	}
	if item.Vendor == "" {
		return fmt.Errorf("missing vendorID")
	}
	if item.Amount.Int() <= 0 {
		return fmt.Errorf("amount=%v must be positive", item.Amount.String())
	}
	return nil
}
