// Package trigger maps inbound events from every channel (buttons,
// reactions, commands, HTTP) onto the approval state machine. Channels are
// independent and may race; they all end up in the same Submit or Resolve
// call.
package trigger
