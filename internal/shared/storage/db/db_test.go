package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// withMockDB makes openDB hand out sqlmock pools that expect one ping each.
func withMockDB(t *testing.T, failFirst bool) *int {
	t.Helper()
	prev := openDB
	calls := 0
	openDB = func(_, _ string) (*sql.DB, error) {
		calls++
		if failFirst && calls == 1 {
			return nil, driver.ErrBadConn
		}
		pool, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			return nil, err
		}
		mock.ExpectPing()
		return pool, nil
	}
	t.Cleanup(func() {
		openDB = prev
		sharedMu.Lock()
		if sharedDB != nil {
			sharedDB.Close()
		}
		sharedDB = nil
		sharedMu.Unlock()
	})
	return &calls
}

func TestConnectRequiresURL(t *testing.T) {
	if _, err := Connect(context.Background(), " ", Defaults(ProfileServer)); !errors.Is(err, ErrNoDatabaseURL) {
		t.Fatalf("expected ErrNoDatabaseURL, got %v", err)
	}
}

func TestSharedReturnsSamePool(t *testing.T) {
	calls := withMockDB(t, false)

	db1, err := Shared(context.Background(), "postgres://ignored", Defaults(ProfileLambda))
	if err != nil {
		t.Fatalf("Shared first: %v", err)
	}
	db2, err := Shared(context.Background(), "postgres://ignored", Defaults(ProfileLambda))
	if err != nil {
		t.Fatalf("Shared second: %v", err)
	}
	if db1 != db2 || *calls != 1 {
		t.Fatalf("expected one shared pool, opened %d", *calls)
	}
}

func TestSharedRetriesAfterFailure(t *testing.T) {
	withMockDB(t, true)

	if _, err := Shared(context.Background(), "postgres://ignored", Defaults(ProfileWorker)); err == nil {
		t.Fatalf("expected first call to fail")
	}
	pool, err := Shared(context.Background(), "postgres://ignored", Defaults(ProfileWorker))
	if err != nil || pool == nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
}

func TestOptionsForAppliesOverrides(t *testing.T) {
	withMockDB(t, false)
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "not-a-duration")

	opts := OptionsFor(ProfileServer)
	if opts.MaxIdleConns != 3 || opts.ConnMaxLifetime != 20*time.Minute || opts.ConnMaxIdleTime != 45*time.Second {
		t.Fatalf("overrides not applied: %+v", opts)
	}
	if opts.PingTimeout != Defaults(ProfileServer).PingTimeout {
		t.Fatalf("invalid duration should keep default, got %s", opts.PingTimeout)
	}

	pool, err := Connect(context.Background(), "postgres://ignored", opts)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer pool.Close()
	if got := pool.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("MaxOpenConnections = %d", got)
	}
}
