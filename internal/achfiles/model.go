// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package achfiles

import (
	"fmt"
	"time"

	"github.com/moov-io/base"
	"github.com/vendorpay-io/vendorpay/pkg/id"
)

// ACHFile is the persisted record of one rendered NACHA file. The rendered
// text itself lives in blob storage under Filename; this row carries the
// control totals for reconciliation against the ODFI's acknowledgement.
type ACHFile struct {
	ID      id.File  `json:"id"`
	BatchID id.Batch `json:"batchID"`

	// Filename is the blob storage key and the name used when uploading
	// to the ODFI's drop directory.
	Filename string `json:"filename"`

	ItemCount    int `json:"itemCount"`
	TotalCredits int `json:"totalCredits"` // cents
	TotalDebits  int `json:"totalDebits"`  // cents
	EntryHash    int `json:"entryHash"`

	Uploaded *base.Time `json:"uploaded,omitempty"`
	Created  base.Time  `json:"created"`
}

// filename returns the blob key for a batch's rendered file. The batch ID
// prefix keeps names unique since a batch renders at most one file.
func filename(when time.Time, routingNumber string, batchID id.Batch) string {
	short := string(batchID)
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-%s-%s.ach", when.Format("20060102"), routingNumber, short)
}
