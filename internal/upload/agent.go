// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package upload

import (
	"io"

	"github.com/vendorpay-io/vendorpay/internal/config"

	"github.com/go-kit/kit/log"
)

// File is a generated NACHA file headed for the ODFI's drop directory.
type File struct {
	Filename string
	Contents io.ReadCloser
}

func (f File) Close() error {
	if f.Contents != nil {
		return f.Contents.Close()
	}
	return nil
}

// Agent represents an interface for uploading ACH files to a remote service.
type Agent interface {
	UploadFile(f File) error
	Delete(path string) error

	OutboundPath() string

	Ping() error
	Close() error
}

func New(logger log.Logger, cfg config.ODFI) (Agent, error) {
	return newSFTPTransferAgent(logger, cfg)
}
