// Package approval implements the retraction request state machine:
// submission by the content author, resolution by authorized reviewers
// racing through any number of trigger channels, exactly one privileged
// deletion per approved request and an idempotently persisted outcome.
package approval
