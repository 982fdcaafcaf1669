// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package vendorpay

// Version is the semantic version of this application.
var Version = "v0.4.0-dev"
