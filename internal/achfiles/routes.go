// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package achfiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vendorpay-io/vendorpay/internal/batches"
	"github.com/vendorpay-io/vendorpay/internal/filestore"
	"github.com/vendorpay-io/vendorpay/internal/route"
	"github.com/vendorpay-io/vendorpay/pkg/id"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

func AddFileRoutes(logger log.Logger, r *mux.Router, repo Repository, store filestore.Storage, generator *Generator) {
	r.Methods("POST").Path("/batches/{batchID}/files").HandlerFunc(generateFile(logger, repo, generator))
	r.Methods("GET").Path("/files").HandlerFunc(getUserFiles(logger, repo))
	r.Methods("GET").Path("/files/{fileID}").HandlerFunc(getFile(logger, repo))
	r.Methods("GET").Path("/files/{fileID}/contents").HandlerFunc(getFileContents(logger, repo, store))
}

func generateFile(logger log.Logger, repo Repository, generator *Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		batchID := batches.GetBatchID(r)

		file, err := generator.GenerateFile(batchID, responder.XUserID)
		if err != nil {
			if errors.Is(err, ErrAlreadyGenerated) {
				// point the caller at the existing file
				if existing, err := repo.GetFileByBatchID(batchID); existing != nil && err == nil {
					responder.Respond(func(w http.ResponseWriter) {
						w.WriteHeader(http.StatusConflict)
						json.NewEncoder(w).Encode(existing)
					})
					return
				}
			}
			if responseCode(err) == http.StatusInternalServerError {
				responder.Log("achfiles", fmt.Sprintf("generation defect: %v", err), "batchID", batchID)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			responder.Problem(err)
			return
		}

		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(file)
		})
	}
}

func getUserFiles(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		files, err := repo.GetUserFiles(responder.XUserID, route.ReadLimit(r), route.ReadOffset(r))
		if err != nil {
			responder.Problem(err)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(files)
		})
	}
}

func getFile(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		file, err := repo.GetFile(getFileID(r), responder.XUserID)
		if err != nil {
			responder.Problem(err)
			return
		}
		if file == nil {
			http.NotFound(w, r)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(file)
		})
	}
}

func getFileContents(logger log.Logger, repo Repository, store filestore.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		file, err := repo.GetFile(getFileID(r), responder.XUserID)
		if err != nil {
			responder.Problem(err)
			return
		}
		if file == nil {
			http.NotFound(w, r)
			return
		}

		bs, err := store.GetFile(file.Filename)
		if err != nil {
			responder.Log("achfiles", fmt.Sprintf("missing blob for %s: %v", file.Filename, err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		responder.Respond(func(w http.ResponseWriter) {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			w.Write(bs)
		})
	}
}

func getFileID(r *http.Request) id.File {
	return id.File(mux.Vars(r)["fileID"])
}
