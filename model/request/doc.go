// Package request defines the deletion request entity and its lifecycle.
//
//	pending --(approve, executor success)--> approved
//	pending --(approve, executor failure)--> error
//	pending --(deny)-----------------------> denied
//
// A resolver first claims a pending request by moving it to deciding; only
// the claimant finalizes it.
package request
