// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moov-io/base/admin"
	"github.com/moov-io/base/http/bind"
	"github.com/vendorpay-io/vendorpay"
	"github.com/vendorpay-io/vendorpay/internal/achfiles"
	"github.com/vendorpay-io/vendorpay/internal/batches"
	appcfg "github.com/vendorpay-io/vendorpay/internal/config"
	"github.com/vendorpay-io/vendorpay/internal/database"
	"github.com/vendorpay-io/vendorpay/internal/events"
	"github.com/vendorpay-io/vendorpay/internal/filestore"
	"github.com/vendorpay-io/vendorpay/internal/route"
	"github.com/vendorpay-io/vendorpay/internal/schedule"
	"github.com/vendorpay-io/vendorpay/internal/upload"
	"github.com/vendorpay-io/vendorpay/internal/util"
	"github.com/vendorpay-io/vendorpay/internal/vendors"

	"github.com/gorilla/mux"
)

var (
	httpAddr  = flag.String("http.addr", bind.HTTP("ach"), "HTTP listen address")
	adminAddr = flag.String("admin.addr", bind.Admin("ach"), "Admin HTTP listen address")

	flagConfigFile = flag.String("config", "", "Filepath for config file to load")
	flagLogFormat  = flag.String("log.format", "", "Format for log lines (Options: json, plain")
)

func main() {
	flag.Parse()

	configFilepath := util.Or(os.Getenv("CONFIG_FILE"), *flagConfigFile)
	cfg, err := appcfg.LoadConfig(configFilepath, flagLogFormat)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	cfg.Logger.Log("startup", fmt.Sprintf("Starting vendorpay server version %s", vendorpay.Version))

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	// migrate database
	db, err := database.New(cfg.Logger, database.Type(), cfg.Sqlite.Path)
	if err != nil {
		panic(fmt.Sprintf("error creating database: %v", err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			cfg.Logger.Log("exit", err)
		}
	}()

	// Listen for application termination.
	errs := make(chan error)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errs <- fmt.Errorf("%s", <-c)
	}()

	// Spin up admin HTTP server and optionally override -admin.addr
	if v := os.Getenv("HTTP_ADMIN_BIND_ADDRESS"); v != "" {
		*adminAddr = v
	}
	adminServer := admin.NewServer(*adminAddr)
	adminServer.AddVersionHandler(vendorpay.Version) // Setup 'GET /version'
	go func() {
		cfg.Logger.Log("admin", fmt.Sprintf("listening on %s", adminServer.BindAddr()))
		if err := adminServer.Listen(); err != nil {
			err = fmt.Errorf("problem starting admin http: %v", err)
			cfg.Logger.Log("admin", err)
			errs <- err
		}
	}()
	defer adminServer.Shutdown()

	// Setup repositories
	vendorRepo := vendors.NewVendorRepo(cfg.Logger, db)
	batchRepo := batches.NewBatchRepo(cfg.Logger, db)
	fileRepo := achfiles.NewFileRepo(cfg.Logger, db)
	eventRepo := events.NewRepo(cfg.Logger, db)

	// Blob storage for rendered files
	store, err := filestore.NewStorage(cfg.Storage)
	if err != nil {
		panic(fmt.Sprintf("problem opening file storage: %v", err))
	}
	defer store.Close()

	generator := achfiles.NewGenerator(cfg.Logger, cfg.ODFI, batchRepo, vendorRepo, fileRepo, store, eventRepo)

	// Upload agent and cutoff schedule are both optional; without them
	// files are generated on demand and fetched over HTTP.
	agent := setupUploadAgent(cfg)
	if agent != nil {
		defer agent.Close()
		adminServer.AddLivenessCheck("sftp", func() error {
			return util.Timeout(agent.Ping, 10*time.Second)
		})
	}

	cutoffs := setupCutoffs(cfg)
	if cutoffs != nil {
		defer cutoffs.Stop()
		controller := achfiles.NewController(cfg.Logger, cutoffs, batchRepo, fileRepo, store, generator, eventRepo, agent)
		go controller.Start(ctx)
	}

	// Create HTTP handler
	handler := mux.NewRouter()
	vendors.AddVendorRoutes(cfg.Logger, handler, vendorRepo)
	batches.AddBatchRoutes(cfg.Logger, handler, batchRepo, eventRepo)
	achfiles.AddFileRoutes(cfg.Logger, handler, fileRepo, store, generator)
	events.AddRoutes(cfg.Logger, handler, eventRepo)
	route.AddPingRoute(cfg.Logger, handler)

	// Check to see if our -http.addr flag has been overridden
	if v := os.Getenv("HTTP_BIND_ADDRESS"); v != "" {
		*httpAddr = v
	}
	// Create main HTTP server
	serve := &http.Server{
		Addr:    *httpAddr,
		Handler: handler,
		TLSConfig: &tls.Config{
			InsecureSkipVerify:       false,
			PreferServerCipherSuites: true,
			MinVersion:               tls.VersionTLS12,
		},
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	shutdownServer := func() {
		if err := serve.Shutdown(context.TODO()); err != nil {
			cfg.Logger.Log("shutdown", err)
		}
	}
	defer shutdownServer()

	// Start main HTTP server
	go func() {
		if certFile, keyFile := os.Getenv("HTTPS_CERT_FILE"), os.Getenv("HTTPS_KEY_FILE"); certFile != "" && keyFile != "" {
			cfg.Logger.Log("startup", fmt.Sprintf("binding to %s for secure HTTP server", *httpAddr))
			if err := serve.ListenAndServeTLS(certFile, keyFile); err != nil {
				cfg.Logger.Log("exit", err)
			}
		} else {
			cfg.Logger.Log("startup", fmt.Sprintf("binding to %s for HTTP server", *httpAddr))
			if err := serve.ListenAndServe(); err != nil {
				cfg.Logger.Log("exit", err)
			}
		}
	}()

	if err := <-errs; err != nil {
		cfg.Logger.Log("exit", err)
	}
}

func setupUploadAgent(cfg *appcfg.Config) upload.Agent {
	if cfg.ODFI.SFTP == nil {
		return nil
	}
	agent, err := upload.New(cfg.Logger, cfg.ODFI)
	if err != nil {
		panic(fmt.Sprintf("problem connecting to %s: %v", cfg.ODFI.SFTP.Hostname, err))
	}
	cfg.Logger.Log("startup", fmt.Sprintf("uploading to sftp://%s%s", cfg.ODFI.SFTP.Hostname, cfg.ODFI.SFTP.OutboundPath))
	return agent
}

func setupCutoffs(cfg *appcfg.Config) *schedule.CutoffTimes {
	windows := cfg.ODFI.Cutoffs.Windows
	if len(windows) == 0 {
		return nil
	}
	cutoffs, err := schedule.ForCutoffTimes(cfg.ODFI.Cutoffs.Timezone, windows)
	if err != nil {
		panic(fmt.Sprintf("problem scheduling cutoffs: %v", err))
	}
	cfg.Logger.Log("startup", fmt.Sprintf("scheduled %d cutoff windows in %s", len(windows), util.Or(cfg.ODFI.Cutoffs.Timezone, "UTC")))
	return cutoffs
}
