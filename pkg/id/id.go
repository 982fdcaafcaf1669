// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package id

type User string

func (u User) String() string {
	return string(u)
}

type Vendor string

func (v Vendor) String() string {
	return string(v)
}

type Batch string

func (b Batch) String() string {
	return string(b)
}

type File string

func (f File) String() string {
	return string(f)
}
