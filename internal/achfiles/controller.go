// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package achfiles

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/moov-io/base"
	"github.com/vendorpay-io/vendorpay/internal/batches"
	"github.com/vendorpay-io/vendorpay/internal/events"
	"github.com/vendorpay-io/vendorpay/internal/filestore"
	"github.com/vendorpay-io/vendorpay/internal/schedule"
	"github.com/vendorpay-io/vendorpay/internal/upload"
	"github.com/vendorpay-io/vendorpay/pkg/id"

	"github.com/go-kit/kit/log"
)

// Controller sweeps approved batches into rendered files at each cutoff and
// pushes them to the ODFI over the upload agent.
type Controller struct {
	logger log.Logger

	cutoffs *schedule.CutoffTimes

	batchRepo batches.Repository
	fileRepo  Repository
	store     filestore.Storage
	generator *Generator
	eventRepo events.Repository

	// agent is nil when no upload destination is configured; files are
	// still rendered and stored for manual delivery.
	agent upload.Agent
}

func NewController(logger log.Logger, cutoffs *schedule.CutoffTimes, batchRepo batches.Repository, fileRepo Repository, store filestore.Storage, generator *Generator, eventRepo events.Repository, agent upload.Agent) *Controller {
	return &Controller{
		logger:    logger,
		cutoffs:   cutoffs,
		batchRepo: batchRepo,
		fileRepo:  fileRepo,
		store:     store,
		generator: generator,
		eventRepo: eventRepo,
		agent:     agent,
	}
}

// Start consumes cutoff ticks until the context is canceled. Callers run
// this in its own goroutine.
func (c *Controller) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Log("achfiles", "controller shutting down")
			return

		case tick, ok := <-c.cutoffs.C:
			if !ok {
				return
			}
			c.logger.Log("achfiles", fmt.Sprintf("processing %s cutoff", tick.Format("15:04")))
			c.processCutoff()
		}
	}
}

func (c *Controller) processCutoff() {
	approvals, err := c.batchRepo.GetApprovedBatches()
	if err != nil {
		c.logger.Log("achfiles", fmt.Sprintf("problem reading approved batches: %v", err))
		return
	}

	for i := range approvals {
		file, err := c.generator.GenerateFile(approvals[i].BatchID, approvals[i].UserID)
		if err != nil {
			// another instance may have taken this batch already
			c.logger.Log("achfiles", fmt.Sprintf("batch %s: %v", approvals[i].BatchID, err))
			continue
		}
		if err := c.uploadFile(approvals[i].UserID, file); err != nil {
			c.logger.Log("achfiles", fmt.Sprintf("upload %s: %v", file.Filename, err))
		}
	}
}

func (c *Controller) uploadFile(userID id.User, file *ACHFile) error {
	if c.agent == nil {
		return nil
	}

	bs, err := c.store.GetFile(file.Filename)
	if err != nil {
		return fmt.Errorf("reading %s: %v", file.Filename, err)
	}

	err = c.agent.UploadFile(upload.File{
		Filename: file.Filename,
		Contents: ioutil.NopCloser(bytes.NewReader(bs)),
	})
	if err != nil {
		return err
	}

	if err := c.fileRepo.MarkUploaded(file.ID); err != nil {
		return fmt.Errorf("marking %s uploaded: %v", file.ID, err)
	}

	if c.eventRepo != nil {
		err := c.eventRepo.WriteEvent(userID, &events.Event{
			ID:      events.EventID(base.ID()),
			Topic:   fmt.Sprintf("File %s uploaded", file.Filename),
			Message: fmt.Sprintf("Uploaded to %s%s", c.agent.OutboundPath(), file.Filename),
			Type:    events.FileEvent,
		})
		if err != nil {
			c.logger.Log("achfiles", fmt.Sprintf("problem writing upload event: %v", err))
		}
	}

	c.logger.Log("achfiles", fmt.Sprintf("uploaded %s at %s", file.Filename, time.Now().Format(time.RFC3339)))
	return nil
}
