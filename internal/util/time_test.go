// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package util

import (
	"testing"
	"time"
)

func TestFirstParsedTime(t *testing.T) {
	tt := FirstParsedTime("200407")
	if !tt.IsZero() {
		t.Errorf("expected zero, got %v", tt)
	}

	tt = FirstParsedTime("200407", NachaDateFormat)
	if v := tt.Format(NachaDateFormat); v != "200407" {
		t.Errorf("got %v", v)
	}

	tt = FirstParsedTime(time.Now().Format(time.RFC3339), NachaDateFormat)
	if !tt.IsZero() {
		t.Errorf("expected zero, got %v", tt)
	}
}
