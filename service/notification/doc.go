// Package notification delivers best-effort notices about retraction
// requests. Events are enqueued without blocking the approval flow and
// rendered into notices by a background worker; delivery failures are
// logged and never reported back to the publisher.
package notification
