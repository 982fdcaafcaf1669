// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package filestore

import (
	"context"
	"fmt"
	"io/ioutil"

	"github.com/vendorpay-io/vendorpay/internal/config"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

// Storage persists rendered NACHA files so their contents can be re-read
// byte-for-byte after generation.
type Storage interface {
	SaveFile(path string, contents []byte) error
	GetFile(path string) ([]byte, error)

	Close() error
}

// NewStorage opens the bucket named by cfg.BucketURI with gocloud.dev/blob,
// which allows clients to use local disk, AWS S3, GCP Storage, and Azure Storage.
func NewStorage(cfg config.Storage) (Storage, error) {
	uri := cfg.BucketURI
	if uri == "" {
		uri = "mem://"
	}
	bucket, err := blob.OpenBucket(context.Background(), uri)
	if err != nil {
		return nil, fmt.Errorf("filestore: open %s: %v", uri, err)
	}
	return &blobStorage{bucket: bucket}, nil
}

type blobStorage struct {
	bucket *blob.Bucket
}

func (bs *blobStorage) Close() error {
	if bs == nil {
		return nil
	}
	return bs.bucket.Close()
}

func (bs *blobStorage) SaveFile(path string, contents []byte) error {
	w, err := bs.bucket.NewWriter(context.Background(), path, nil)
	if err != nil {
		return err
	}

	_, copyErr := w.Write(contents)
	closeErr := w.Close()

	if copyErr != nil || closeErr != nil {
		return fmt.Errorf("copyErr=%v closeErr=%v", copyErr, closeErr)
	}

	return nil
}

func (bs *blobStorage) GetFile(path string) ([]byte, error) {
	r, err := bs.bucket.NewReader(context.Background(), path, nil)
	if err != nil {
		return nil, fmt.Errorf("filestore: read %s: %v", path, err)
	}
	defer r.Close()

	return ioutil.ReadAll(r)
}
