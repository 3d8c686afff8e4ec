// Package sqlite persists exploration runs, ranked waypoints and value map
// snapshots in SQLite.
//
// All SQL for the exploration stack belongs here rather than in the
// layer packages (l1grid through l4rank), which stay free of storage
// concerns. The schema is versioned with golang-migrate; migrations are
// embedded in the binary and applied on Open.
package sqlite
