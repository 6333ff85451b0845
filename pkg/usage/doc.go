// Package usage persists a per-request usage ledger to SQLite: which model
// was asked for, where it was routed, token counts, and outcome. Writes are
// asynchronous so the request path never blocks on the database, and a
// cron-scheduled pruner enforces the retention window.
package usage
