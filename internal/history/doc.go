// Package history persists record transitions to SQLite and serves
// them back for inspection.
//
// Every state change flowing through the bridge can be tapped into a
// transition row: which record changed, the group address or topic it
// belongs to, the full JSON state, and where the change came from.
// Old rows are pruned on a retention schedule.
package history
