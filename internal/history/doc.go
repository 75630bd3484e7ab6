// Package history persists a record of every castcut run in SQLite.
//
// Each multicam, short or cut run inserts a row when it starts and moves it
// through its status transitions (running, completed, failed). The store
// uses the pure-Go modernc driver in WAL mode so a `castcut runs` listing can
// read while another run is writing.
package history
