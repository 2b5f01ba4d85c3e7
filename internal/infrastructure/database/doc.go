// Package database provides the SQLite connection and schema migration
// layer for the bridge's transition history.
//
// The database is opened with WAL mode and a busy timeout so history
// writes never block record flows for long. Schema migrations are
// embedded into the binary and applied on startup; see the migrations
// package for the SQL files.
package database
