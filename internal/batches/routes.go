// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package batches

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/moov-io/base"
	"github.com/vendorpay-io/vendorpay/internal/events"
	"github.com/vendorpay-io/vendorpay/internal/model"
	"github.com/vendorpay-io/vendorpay/internal/route"
	"github.com/vendorpay-io/vendorpay/pkg/id"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

func AddBatchRoutes(logger log.Logger, r *mux.Router, repo Repository, eventRepo events.Repository) {
	r.Methods("GET").Path("/batches").HandlerFunc(getUserBatches(logger, repo))
	r.Methods("POST").Path("/batches").HandlerFunc(createBatch(logger, repo))
	r.Methods("GET").Path("/batches/{batchID}").HandlerFunc(getBatch(logger, repo))
	r.Methods("GET").Path("/batches/{batchID}/items").HandlerFunc(getBatchItems(logger, repo))
	r.Methods("POST").Path("/batches/{batchID}/items").HandlerFunc(addBatchItem(logger, repo))
	r.Methods("POST").Path("/batches/{batchID}/approve").HandlerFunc(approveBatch(logger, repo, eventRepo))
	r.Methods("POST").Path("/batches/{batchID}/cancel").HandlerFunc(cancelBatch(logger, repo))
}

type batchRequest struct {
	CompanyName             string `json:"companyName"`
	CompanyIdentification   string `json:"companyIdentification"`
	CompanyEntryDescription string `json:"companyEntryDescription"`
	CompanyDescriptiveDate  string `json:"companyDescriptiveDate"`
	EffectiveEntryDate      string `json:"effectiveEntryDate"`
	ODFIRoutingNumber       string `json:"odfiRoutingNumber"`
	Production              bool   `json:"production"`
}

func createBatch(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		var req batchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responder.Problem(err)
			return
		}

		batch := &model.PaymentBatch{
			ID:                      id.Batch(base.ID()),
			CompanyName:             req.CompanyName,
			CompanyIdentification:   req.CompanyIdentification,
			CompanyEntryDescription: req.CompanyEntryDescription,
			CompanyDescriptiveDate:  req.CompanyDescriptiveDate,
			EffectiveEntryDate:      req.EffectiveEntryDate,
			ODFIRoutingNumber:       req.ODFIRoutingNumber,
			Production:              req.Production,
			Status:                  model.BatchDraft,
			Created:                 base.NewTime(time.Now()),
		}
		if err := batch.Validate(); err != nil {
			responder.Problem(err)
			return
		}
		if err := repo.CreateBatch(responder.XUserID, batch); err != nil {
			responder.Log("batches", fmt.Sprintf("problem creating batch: %v", err))
			responder.Problem(err)
			return
		}

		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(batch)
		})
	}
}

func getUserBatches(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		batches, err := repo.GetUserBatches(responder.XUserID)
		if err != nil {
			responder.Problem(err)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(batches)
		})
	}
}

func getBatch(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		batch, err := repo.GetBatch(GetBatchID(r), responder.XUserID)
		if err != nil {
			responder.Problem(err)
			return
		}
		if batch == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(batch)
		})
	}
}

func getBatchItems(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		batch, err := repo.GetBatch(GetBatchID(r), responder.XUserID)
		if err != nil || batch == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		items, err := repo.GetItems(batch.ID)
		if err != nil {
			responder.Problem(err)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(items)
		})
	}
}

type itemRequest struct {
	VendorID id.Vendor    `json:"vendorID"`
	Amount   model.Amount `json:"amount"`
	Memo     string       `json:"memo"`
}

func addBatchItem(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		var req itemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responder.Problem(err)
			return
		}

		item := &model.PaymentItem{
			ID:      base.ID(),
			BatchID: GetBatchID(r),
			Vendor:  req.VendorID,
			Amount:  req.Amount,
			Memo:    req.Memo,
			Created: base.NewTime(time.Now()),
		}
		if err := item.Validate(); err != nil {
			responder.Problem(err)
			return
		}
		if err := repo.AddItem(item.BatchID, responder.XUserID, item); err != nil {
			responder.Log("batches", fmt.Sprintf("problem adding item: %v", err))
			responder.Problem(err)
			return
		}

		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(item)
		})
	}
}

func approveBatch(logger log.Logger, repo Repository, eventRepo events.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		batchID := GetBatchID(r)
		if err := repo.Approve(batchID, responder.XUserID); err != nil {
			responder.Log("batches", fmt.Sprintf("problem approving batch: %v", err))
			responder.Problem(err)
			return
		}

		err := eventRepo.WriteEvent(responder.XUserID, &events.Event{
			ID:      events.EventID(base.ID()),
			Topic:   fmt.Sprintf("Batch %s approved", batchID),
			Message: "Batch approved for file generation",
			Type:    events.BatchEvent,
		})
		if err != nil {
			responder.Log("batches", fmt.Sprintf("problem writing approval event: %v", err))
		}

		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
		})
	}
}

func cancelBatch(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		if err := repo.Cancel(GetBatchID(r), responder.XUserID); err != nil {
			responder.Problem(err)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
		})
	}
}

// GetBatchID extracts the id.Batch from the incoming request.
func GetBatchID(r *http.Request) id.Batch {
	v := mux.Vars(r)
	out, ok := v["batchID"]
	if !ok {
		return id.Batch("")
	}
	return id.Batch(out)
}
