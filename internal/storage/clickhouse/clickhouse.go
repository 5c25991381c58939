// Package clickhouse stores ROI snapshots for offline analytics.
package clickhouse

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const defaultNativePort = "9000"

// Conn wraps the driver connection so stores take a concrete dependency.
type Conn struct {
	driver.Conn
}

// NewConn connects to the database named in the DSN.
func NewConn(ctx context.Context, dsn string) (*Conn, error) {
	return NewConnWithDatabase(ctx, dsn, "")
}

// NewConnWithDatabase connects to ClickHouse, overriding the DSN
// database when db is non-empty. An empty db with a database-less DSN
// yields an admin connection suitable for CREATE DATABASE.
func NewConnWithDatabase(ctx context.Context, dsn, db string) (*Conn, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}

	port := u.Port()
	if port == "" {
		port = defaultNativePort
	}
	opts := &clickhouse.Options{
		Protocol: clickhouse.Native,
		Addr:     []string{u.Hostname() + ":" + port},
	}
	if u.User != nil {
		opts.Auth.Username = u.User.Username()
		opts.Auth.Password, _ = u.User.Password()
	}
	if len(u.Path) > 1 {
		opts.Auth.Database = strings.TrimPrefix(u.Path, "/")
	}
	if db != "" {
		opts.Auth.Database = db
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	return &Conn{Conn: conn}, nil
}
