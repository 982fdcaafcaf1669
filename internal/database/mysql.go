// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package database

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/moov-io/base/docker"
	"github.com/vendorpay-io/vendorpay/internal/util"

	"github.com/go-kit/kit/log"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
)

var (
	// mySQLErrDuplicateKey is the error code for duplicate entries
	// https://dev.mysql.com/doc/refman/8.0/en/server-error-reference.html#error_er_dup_entry
	mySQLErrDuplicateKey uint16 = 1062
)

type discardLogger struct{}

func (l discardLogger) Print(v ...interface{}) {}

func init() {
	gomysql.SetLogger(discardLogger{})
}

type mysql struct {
	dsn string

	migrations []string
	logger     log.Logger
}

func (my *mysql) Connect() (*sql.DB, error) {
	db, err := sql.Open("mysql", my.dsn)
	if err != nil {
		return nil, err
	}

	// Run our migrations
	for i := range my.migrations {
		slug := my.migrations[i]
		if len(slug) > 40 {
			slug = slug[:40]
		}
		res, err := db.Exec(my.migrations[i])
		if err != nil {
			return nil, fmt.Errorf("migration #%d [%s...] had problem: %v", i, slug, err)
		}
		n, err := res.RowsAffected()
		if err == nil {
			my.logger.Log("mysql", fmt.Sprintf("migration #%d [%s...] changed %d rows", i, slug, n))
		}
	}

	// Check our DB is up and working
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func mysqlConnection(logger log.Logger, user, pass string, address string, database string) *mysql {
	dsn := fmt.Sprintf("%s:%s@%s/%s?%s", user, pass, address, database, "timeout=30s&tls=false&charset=utf8mb4&parseTime=true&sql_mode=ALLOW_INVALID_DATES")
	return &mysql{
		dsn:    dsn,
		logger: logger,
		migrations: []string{
			// Vendors and their bank accounts
			`create table if not exists vendors(vendor_id varchar(40) primary key, user_id varchar(40), name varchar(100), identification varchar(50), email varchar(100), created_at datetime, last_updated_at datetime, deleted_at datetime);`,
			`create table if not exists vendor_bank_accounts(vendor_id varchar(40) primary key, routing_number varchar(10), account_number varchar(25), account_type varchar(10), created_at datetime, deleted_at datetime);`,

			// Payment batches and their items
			`create table if not exists payment_batches(batch_id varchar(40) primary key, user_id varchar(40), company_name varchar(50), company_identification varchar(10), company_entry_description varchar(10), company_descriptive_date varchar(10), effective_entry_date varchar(10), odfi_routing_number varchar(10), production boolean, status varchar(10), created_at datetime, last_updated_at datetime, deleted_at datetime);`,
			`create table if not exists payment_items(item_id varchar(40) primary key, batch_id varchar(40), vendor_id varchar(40), amount varchar(15), memo varchar(100), trace_number varchar(20), created_at datetime, deleted_at datetime);`,

			// Generated NACHA files
			`create table if not exists ach_files(file_id varchar(40) primary key, batch_id varchar(40) unique, filename varchar(100), item_count integer, total_credits bigint, total_debits bigint, entry_hash bigint, uploaded_at datetime, created_at datetime, deleted_at datetime);`,

			// Events
			`create table if not exists events(event_id varchar(40) primary key, user_id varchar(40), topic varchar(100), message varchar(250), type varchar(20), created_at datetime);`,
		},
	}
}

// TestMySQLDB is a wrapper around sql.DB for MySQL connections designed for tests to provide
// a clean database for each testcase.  Callers should cleanup with Close() when finished.
type TestMySQLDB struct {
	DB *sql.DB

	container *dockertest.Resource
}

func (r *TestMySQLDB) Close() error {
	r.container.Close()
	return r.DB.Close()
}

// CreateTestMySQLDB returns a TestMySQLDB which can be used in tests
// as a clean mysql database. All migrations are ran on the db before.
//
// Callers should call close on the returned *TestMySQLDB.
func CreateTestMySQLDB(t *testing.T) *TestMySQLDB {
	if testing.Short() {
		t.Skip("-short flag enabled")
	}
	if !docker.Enabled() {
		t.Skip("Docker not enabled")
	}
	util.SkipInsideWindowsCI(t)

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatal(err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8",
		Env: []string{
			"MYSQL_USER=vendorpay",
			"MYSQL_PASSWORD=secret",
			"MYSQL_ROOT_PASSWORD=secret",
			"MYSQL_DATABASE=vendorpay",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = pool.Retry(func() error {
		db, err := sql.Open("mysql", fmt.Sprintf("vendorpay:secret@tcp(localhost:%s)/vendorpay", resource.GetPort("3306/tcp")))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Ping()
	})
	if err != nil {
		resource.Close()
		t.Fatal(err)
	}

	logger := log.NewNopLogger()
	address := fmt.Sprintf("tcp(localhost:%s)", resource.GetPort("3306/tcp"))

	db, err := mysqlConnection(logger, "vendorpay", "secret", address, "vendorpay").Connect()
	if err != nil {
		t.Fatal(err)
	}
	return &TestMySQLDB{db, resource}
}

// MySQLUniqueViolation returns true when the provided error matches the MySQL code
// for duplicate entries (violating a unique table constraint).
func MySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	match := strings.Contains(err.Error(), fmt.Sprintf("Error %d: Duplicate entry", mySQLErrDuplicateKey))
	if e, ok := err.(*gomysql.MySQLError); ok {
		return match || e.Number == mySQLErrDuplicateKey
	}
	return match
}
