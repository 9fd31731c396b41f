package dao

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrStoreConnect = errors.New("store unreachable")
	ErrStoreWrite   = errors.New("store write failed")
	ErrStoreRead    = errors.New("store read failed")
)

// classify tags err with the store error it represents. Connection
// failures win over the operation's own kind so callers can tell an
// unreachable database from a rejected statement.
func classify(err error, kind error) error {
	if err == nil {
		return nil
	}

	if isConnectError(err) {
		return fmt.Errorf("%w: %w", ErrStoreConnect, err)
	}

	return fmt.Errorf("%w: %w", kind, err)
}

func isConnectError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgErr.Code == pgerrcode.CannotConnectNow ||
			pgErr.Code == pgerrcode.AdminShutdown
	}

	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded)
}
