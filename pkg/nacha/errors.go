// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package nacha

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRoutingNumber is returned when a routing number is not nine digits
	// or fails the ABA check digit calculation.
	ErrInvalidRoutingNumber = errors.New("invalid ABA routing number")

	// ErrInvalidAmount is returned when an entry's amount is zero, negative, or
	// otherwise not a positive quantity of cents.
	ErrInvalidAmount = errors.New("amount must be a positive quantity of cents")

	// ErrInvalidAccountNumber is returned when an entry's account number is empty.
	ErrInvalidAccountNumber = errors.New("missing account number")

	// ErrInvalidTransactionCode is returned for transaction codes other than
	// checking/savings credit/debit.
	ErrInvalidTransactionCode = errors.New("unsupported transaction code")

	// ErrNonASCII is returned when a field contains characters outside the
	// ACH character set, which is printable ASCII.
	ErrNonASCII = errors.New("contains characters outside the ACH character set")

	// ErrEmptyBatch is returned when rendering a file that contains a batch
	// without any entries.
	ErrEmptyBatch = errors.New("batch has no entries")

	// ErrEmptyFile is returned when rendering a file with no batches or no
	// entries. The ACH network rejects empty files so we never emit one.
	ErrEmptyFile = errors.New("file has no batches or entries")

	// ErrFileRendered is returned when entries or batches are added after the
	// file has been rendered.
	ErrFileRendered = errors.New("file already rendered")
)

// InputError describes a problem with caller supplied data. The file was not
// generated and the caller should correct the field and retry.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// ConsistencyError describes a defect inside the serializer itself, such as a
// record rendering at the wrong width or control totals drifting from the
// recomputed values. These are never caused by caller input.
type ConsistencyError struct {
	Record string
	Reason string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("nacha: %s record: %s", e.Record, e.Reason)
}
