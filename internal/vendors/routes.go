// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package vendors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/moov-io/base"
	"github.com/vendorpay-io/vendorpay/internal/model"
	"github.com/vendorpay-io/vendorpay/internal/route"
	"github.com/vendorpay-io/vendorpay/pkg/id"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

func AddVendorRoutes(logger log.Logger, r *mux.Router, repo Repository) {
	r.Methods("GET").Path("/vendors").HandlerFunc(getUserVendors(logger, repo))
	r.Methods("POST").Path("/vendors").HandlerFunc(createVendor(logger, repo))
	r.Methods("GET").Path("/vendors/{vendorID}").HandlerFunc(getVendor(logger, repo))
	r.Methods("PUT").Path("/vendors/{vendorID}/account").HandlerFunc(upsertBankAccount(logger, repo))
	r.Methods("DELETE").Path("/vendors/{vendorID}").HandlerFunc(deleteVendor(logger, repo))
}

func getUserVendors(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		vendors, err := repo.GetUserVendors(responder.XUserID)
		if err != nil {
			responder.Problem(err)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(vendors)
		})
	}
}

type vendorRequest struct {
	Name           string `json:"name"`
	Identification string `json:"identification"`
	Email          string `json:"email"`
}

func (req vendorRequest) missingFields() error {
	if req.Name == "" {
		return errors.New("missing vendorRequest.name")
	}
	return nil
}

func createVendor(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		var req vendorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responder.Problem(err)
			return
		}
		if err := req.missingFields(); err != nil {
			responder.Problem(err)
			return
		}

		vendor := &model.Vendor{
			ID:             id.Vendor(base.ID()),
			Name:           req.Name,
			Identification: req.Identification,
			Email:          req.Email,
			Created:        base.NewTime(time.Now()),
		}
		if err := vendor.Validate(); err != nil {
			responder.Problem(err)
			return
		}
		if err := repo.CreateVendor(responder.XUserID, vendor); err != nil {
			responder.Log("vendors", fmt.Sprintf("problem creating vendor: %v", err))
			responder.Problem(err)
			return
		}

		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(vendor)
		})
	}
}

func getVendor(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		vendor, err := repo.GetVendor(getVendorID(r), responder.XUserID)
		if err != nil {
			responder.Problem(err)
			return
		}
		if vendor == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(vendor)
		})
	}
}

// upsertBankAccount registers where the vendor receives payments. The
// routing number is checked here, at registration time, so bad accounts are
// rejected long before file generation.
func upsertBankAccount(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		var account model.BankAccount
		if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
			responder.Problem(err)
			return
		}
		if err := account.Validate(); err != nil {
			responder.Problem(err)
			return
		}

		if err := repo.UpsertBankAccount(getVendorID(r), responder.XUserID, &account); err != nil {
			responder.Log("vendors", fmt.Sprintf("problem registering bank account: %v", err))
			responder.Problem(err)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
		})
	}
}

func deleteVendor(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		if err := repo.DeleteVendor(getVendorID(r), responder.XUserID); err != nil {
			responder.Problem(err)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
		})
	}
}

// getVendorID extracts the id.Vendor from the incoming request.
func getVendorID(r *http.Request) id.Vendor {
	v := mux.Vars(r)
	out, ok := v["vendorID"]
	if !ok {
		return id.Vendor("")
	}
	return id.Vendor(out)
}
