// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package nacha

import "unicode/utf8"

// routingWeights are applied to the nine digits of an ABA routing number
// during the check digit calculation.
var routingWeights = [9]int{3, 7, 1, 3, 7, 1, 3, 7, 1}

// CheckRoutingNumber reports whether rtn is a nine digit ABA routing number
// whose weighted checksum is a multiple of ten. Inputs of the wrong length or
// containing non-digits fail closed.
func CheckRoutingNumber(rtn string) bool {
	if utf8.RuneCountInString(rtn) != 9 {
		return false
	}
	sum := 0
	for i, r := range rtn {
		if r < '0' || r > '9' {
			return false
		}
		sum += int(r-'0') * routingWeights[i]
	}
	return sum%10 == 0
}

// ABA8 returns the first 8 digits of an ABA routing number.
// If the input is invalid then an empty string is returned.
func ABA8(rtn string) string {
	if n := utf8.RuneCountInString(rtn); n != 9 {
		return ""
	}
	return rtn[:8]
}

// ABACheckDigit returns the last digit of an ABA routing number.
// If the input is invalid then an empty string is returned.
func ABACheckDigit(rtn string) string {
	if n := utf8.RuneCountInString(rtn); n != 9 {
		return ""
	}
	return rtn[8:9]
}
