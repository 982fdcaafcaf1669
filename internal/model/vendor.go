// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package model

import (
	"fmt"
	"strings"

	"github.com/moov-io/base"
	"github.com/vendorpay-io/vendorpay/pkg/id"
	"github.com/vendorpay-io/vendorpay/pkg/nacha"
)

// Vendor is a payee registered to receive ACH credits.
type Vendor struct {
	ID id.Vendor `json:"id"`

	Name string `json:"name"`

	// Identification is the vendor's tax identifier (EIN or SSN derived).
	Identification string `json:"identification"`

	Email string `json:"email,omitempty"`

	// BankAccount is nil until an account has been registered.
	BankAccount *BankAccount `json:"bankAccount,omitempty"`

	Created base.Time `json:"created"`
}

func (v *Vendor) Validate() error {
	if v == nil {
		return fmt.Errorf("nil Vendor")
	}
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("missing vendor name")
	}
	return nil
}

// BankAccount is where a vendor receives payments. Routing numbers are
// checked at registration time so batches never pick up an account that
// would fail during file generation.
type BankAccount struct {
	RoutingNumber string      `json:"routingNumber"`
	AccountNumber string      `json:"accountNumber"`
	Type          AccountType `json:"accountType"`
}

func (a *BankAccount) Validate() error {
	if a == nil {
		return fmt.Errorf("nil BankAccount")
	}
	if !nacha.CheckRoutingNumber(a.RoutingNumber) {
		return fmt.Errorf("routingNumber=%q failed checksum", a.RoutingNumber)
	}
	if strings.TrimSpace(a.AccountNumber) == "" {
		return fmt.Errorf("missing accountNumber")
	}
	return a.Type.Validate()
}
