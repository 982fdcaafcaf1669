// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package nacha

import (
	"strconv"
	"strings"
)

// RecordLength is the fixed width of every record in an ACH file.
const RecordLength = 94

// converters contains the justification and fill rules shared by every record
// type. Centralizing them keeps the 94 character invariant enforced in one
// place. Widths are byte counts, matching the fixed width records.
type converters struct{}

// alphaField formats s for an alphanumeric field: upper-cased, left justified,
// space filled, and silently truncated when longer than max. Truncation (not
// an error) matches how ACH operators treat overlong descriptive fields.
// Bytes outside the printable ASCII range become spaces since the ACH
// character set is ASCII.
func (c *converters) alphaField(s string, max uint) string {
	s = printableASCII(strings.ToUpper(strings.TrimSpace(s)))
	if ln := uint(len(s)); ln > max {
		return s[:max]
	}
	return s + strings.Repeat(" ", int(max)-len(s))
}

func printableASCII(s string) string {
	out := []byte(s)
	for i := 0; i < len(out); i++ {
		if out[i] < 0x20 || out[i] > 0x7e {
			out[i] = ' '
		}
	}
	return string(out)
}

// numericField formats n right justified and zero filled. Values wider than
// max keep their least significant digits.
func (c *converters) numericField(n int, max uint) string {
	s := strconv.Itoa(n)
	if ln := uint(len(s)); ln > max {
		return s[ln-max:]
	}
	return strings.Repeat("0", int(max)-len(s)) + s
}

// stringField formats a digit string right justified and zero filled, used
// for routing and identification fields which may carry leading zeros.
func (c *converters) stringField(s string, max uint) string {
	s = strings.TrimSpace(s)
	if ln := uint(len(s)); ln > max {
		return s[:max]
	}
	return strings.Repeat("0", int(max)-len(s)) + s
}
