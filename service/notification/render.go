package notification

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/viant/retract/model/request"
)

// DefaultPreviewLimit caps the content snippet shown to reviewers.
const DefaultPreviewLimit = 200

// Render turns an event into notices for the requester, the review
// destination and, for approvals, the audit destination.
func Render(event *Event, config *Config) []*Notice {
	if event == nil || event.Request == nil {
		return nil
	}
	r := event.Request
	var ret []*Notice
	add := func(destination, audience, text string) {
		if destination == "" {
			return
		}
		ret = append(ret, &Notice{Destination: destination, Audience: audience, Text: text, Event: event})
	}
	switch event.Topic {
	case TopicRequestCreated:
		add(r.RequesterID, AudienceRequester, fmt.Sprintf(
			"Your retraction request for content in %s was submitted for review (ref %s).%s",
			location(r), r.CorrelationKey, quoted(r.Preview, config.previewLimit())))
		add(config.ReviewDestination, AudienceReviewers, fmt.Sprintf(
			"Retraction request from %s for content in %s (ref %s).%s\nApprove or deny.",
			requester(r), location(r), r.CorrelationKey, quoted(r.Preview, config.previewLimit())))
	case TopicRequestDecided:
		switch event.Status {
		case request.StatusApproved:
			add(r.RequesterID, AudienceRequester, fmt.Sprintf(
				"Your retraction request %s was approved by %s and the content was deleted.", r.CorrelationKey, decider(event)))
			add(config.ReviewDestination, AudienceReviewers, fmt.Sprintf(
				"Approved by %s. Original request from %s in %s (ref %s).", decider(event), requester(r), location(r), r.CorrelationKey))
			add(config.AuditDestination, AudienceAudit, fmt.Sprintf(
				"Content deleted by %s\n- Author: %s\n- Location: %s\n- Version: %s",
				decider(event), author(r), location(r), r.Target.Version))
		case request.StatusDenied:
			add(r.RequesterID, AudienceRequester, fmt.Sprintf(
				"Your retraction request %s was denied by %s.", r.CorrelationKey, decider(event)))
			add(config.ReviewDestination, AudienceReviewers, fmt.Sprintf(
				"Denied by %s. Original request from %s in %s (ref %s).", decider(event), requester(r), location(r), r.CorrelationKey))
		case request.StatusError:
			add(r.RequesterID, AudienceRequester, fmt.Sprintf(
				"Your retraction request %s could not be completed.\n\nReason: %s", r.CorrelationKey, event.NotesForUser))
			add(config.ReviewDestination, AudienceReviewers, fmt.Sprintf(
				"Error after approval by %s: %s\nOriginal request from %s in %s (ref %s).",
				decider(event), event.NotesForUser, requester(r), location(r), r.CorrelationKey))
		}
	}
	return ret
}

// Truncate shortens text to at most limit runes, marking the cut with "...".
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}

func quoted(preview string, limit int) string {
	preview = strings.TrimSpace(preview)
	if preview == "" {
		return ""
	}
	return "\n> " + Truncate(preview, limit)
}

func location(r *request.DeletionRequest) string {
	if r.Target.Name != "" {
		return r.Target.Name
	}
	return r.Target.Location
}

func requester(r *request.DeletionRequest) string {
	if r.RequesterName != "" {
		return r.RequesterName
	}
	return r.RequesterID
}

func author(r *request.DeletionRequest) string {
	if r.AuthorName != "" {
		return r.AuthorName
	}
	return r.AuthorID
}

func decider(event *Event) string {
	if event.Request.DeciderName != "" {
		return event.Request.DeciderName
	}
	return event.Actor
}
