// Package deletion defines the deletion request store contract.
//
// Implementations live in sub-packages: memory, fs (viant/afs), sql
// (database/sql), pg (pgx) and redis (go-redis). Each implements
// CompareAndSwapStatus as a single atomic conditional update; it is the only
// concurrency control the approval service relies on.
package deletion
