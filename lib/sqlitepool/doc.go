// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool is the SQLite connection pool behind the contact
// store.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool and applies the same
// pragmas to every connection:
//
//   - journal_mode=WAL: the import handler writes while the template
//     endpoint reads.
//   - synchronous=NORMAL: commits survive a process crash.
//   - busy_timeout=5000: wait up to 5 seconds for the write lock.
//   - foreign_keys=ON: groups and properties cascade with their
//     template; contacts reference their template.
//   - temp_store=MEMORY.
//
// [Config.Schema] is applied once at Open, inside an immediate
// transaction, so callers find their tables in place on the first
// [Pool.Take]. Connections are not safe for concurrent use: each
// goroutine takes its own and puts it back, or uses [Pool.With].
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   "/var/lib/kontakte/kontakte.db",
//	    Logger: logger,
//	    Schema: schema,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	err = pool.With(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, "SELECT ...", &sqlitex.ExecOptions{...})
//	})
package sqlitepool
