// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
)

// Amount represents units of a particular currency.
type Amount struct {
	number int
	symbol string // ISO 4217, i.e. USD, GBP
}

// Int returns the currency amount as an integer.
// Example: "USD 1.11" returns 111
func (a *Amount) Int() int {
	if a == nil {
		return 0
	}
	return a.number
}

func (a *Amount) Validate() error {
	if a == nil {
		return errors.New("nil Amount")
	}
	_, err := currency.ParseISO(a.symbol)
	return err
}

func (a Amount) Equal(other Amount) bool {
	return a.String() == other.String()
}

// NewAmount returns an Amount object after validating the ISO 4217 currency symbol.
func NewAmount(symbol string, number string) (*Amount, error) {
	var amt Amount
	if err := amt.FromString(fmt.Sprintf("%s %s", symbol, number)); err != nil {
		return nil, err
	}
	return &amt, nil
}

// NewAmountFromInt returns an Amount object after converting an integer amount (in cents)
// and validating the ISO 4217 currency symbol.
func NewAmountFromInt(symbol string, number int) (*Amount, error) {
	return NewAmount(symbol, fmt.Sprintf("%.2f", float64(number)/100.0))
}

// String returns an amount formatted with the currency.
// Examples:
//   USD 12.53
//   GBP 4.02
//
// The symbol returned corresponds to the ISO 4217 standard.
// Only one period used to signify decimal value will be included.
func (a *Amount) String() string {
	if a == nil || a.symbol == "" || a.number <= 0 {
		return "USD 0.00"
	}
	return fmt.Sprintf("%s %.2f", a.symbol, float64(a.number)/100.0)
}

// FromString attempts to parse str as a valid currency symbol and
// the quantity.
// Examples:
//   USD 12.53
//   GBP 4.02
func (a *Amount) FromString(str string) error {
	if a == nil {
		a = &Amount{}
	}

	parts := strings.Fields(str)
	if len(parts) != 2 {
		return fmt.Errorf("invalid Amount format: %q", str)
	}

	sym, err := currency.ParseISO(parts[0])
	if err != nil {
		return err
	}

	number, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return err
	}
	if number <= 0.00 {
		return fmt.Errorf("amount is negative or zero: %v", number)
	}

	a.number = int(math.Round(number * 100))
	a.symbol = sym.String()
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", a.String())), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := unquote(b, &s); err != nil {
		return err
	}
	return a.FromString(s)
}

func unquote(b []byte, s *string) error {
	v, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
