// Package executor defines the privileged deletion performed once a
// retraction request is approved, and the failure taxonomy the approval
// state machine records when it does not succeed.
package executor
