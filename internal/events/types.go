// Package events is the in-process, bounded event queue used for
// fire-and-forget side effects.
//
// Producers hold a Publisher and never block: when the queue is full or
// closed the event is dropped and logged. A single Dispatcher drains the
// Receiver and runs every event's handler in its own goroutine, so handler
// completion order is not tied to receive order.
//
// This is not durable. Events are lost on process exit.
package events

import (
	"github.com/google/uuid"
)

// Event kinds.
const (
	KindNotificationRequested   = "notification_requested"
	KindDocsGenerationRequested = "docs_generation_requested"
)

// Event is implemented by every type that can travel through the queue.
type Event interface {
	Kind() string
	isEvent()
}

// NotificationRequested asks for a templated email to be sent.
type NotificationRequested struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data,omitempty"`
}

func (NotificationRequested) Kind() string { return KindNotificationRequested }
func (NotificationRequested) isEvent()     {}

// DocsGenerationRequested starts documentation generation for a clone that
// has already been materialized and sanitized.
type DocsGenerationRequested struct {
	RepoID     uuid.UUID `json:"repo_id"`
	RepoName   string    `json:"repo_name"`
	RepoPath   string    `json:"repo_path"`
	OwnerEmail string    `json:"owner_email"`
}

func (DocsGenerationRequested) Kind() string { return KindDocsGenerationRequested }
func (DocsGenerationRequested) isEvent()     {}
