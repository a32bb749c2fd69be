// Package domain defines the conversational session model: sessions, their
// messages, and the tool-call logs recorded while an assistant works on a
// session.
package domain

import "time"

// MessageRole identifies who produced a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Valid reports whether the role is one of the known values.
func (r MessageRole) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// SessionContext is the structured trip context a session accumulates.
// Optional fields are pointers; Metadata is a small opaque extension point
// for callers that need to stash values the schema does not model.
type SessionContext struct {
	Destination string            `bson:"destination,omitempty" json:"destination,omitempty"`
	StartDate   *time.Time        `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate     *time.Time        `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Travelers   int               `bson:"travelers,omitempty" json:"travelers,omitempty"`
	Budget      *float64          `bson:"budget,omitempty" json:"budget,omitempty"`
	Preferences []string          `bson:"preferences,omitempty" json:"preferences,omitempty"`
	Metadata    map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// Session is one conversation owned by a single user. The Active flag is
// persisted and filterable but no operation currently transitions it.
type Session struct {
	ID           string         `bson:"session_id" json:"session_id"`
	OwnerID      string         `bson:"user_id" json:"user_id"`
	Title        string         `bson:"title" json:"title"`
	Context      SessionContext `bson:"context" json:"context"`
	MessageCount int64          `bson:"message_count" json:"message_count"`
	CreatedAt    time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `bson:"updated_at" json:"updated_at"`
	Active       bool           `bson:"is_active" json:"is_active"`
}

// Message is a single turn in a session.
type Message struct {
	ID        string            `bson:"message_id" json:"message_id"`
	SessionID string            `bson:"session_id" json:"session_id"`
	Role      MessageRole       `bson:"role" json:"role"`
	Content   string            `bson:"content" json:"content"`
	Metadata  map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at"`
}

// Context is a session header together with its most recent messages in
// chronological order.
type Context struct {
	Session  `bson:",inline"`
	Messages []Message `bson:"messages" json:"messages"`
}

// SessionSummary is the list-view projection of a session.
type SessionSummary struct {
	ID           string    `bson:"session_id" json:"session_id"`
	Title        string    `bson:"title" json:"title"`
	MessageCount int64     `bson:"message_count" json:"message_count"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
	Active       bool      `bson:"is_active" json:"is_active"`
}

// ListFilter narrows and pages a session listing.
type ListFilter struct {
	Active *bool
	Limit  int
	Skip   int
}

// ToolStatus is the outcome of a tool invocation.
type ToolStatus string

const (
	ToolStatusSuccess ToolStatus = "success"
	ToolStatusError   ToolStatus = "error"
)

// ToolCallLog records one tool invocation made while serving a session.
type ToolCallLog struct {
	ID         string         `bson:"log_id" json:"log_id"`
	SessionID  string         `bson:"session_id" json:"session_id"`
	ToolName   string         `bson:"tool_name" json:"tool_name"`
	Input      map[string]any `bson:"input_params,omitempty" json:"input_params,omitempty"`
	Output     any            `bson:"output_result,omitempty" json:"output_result,omitempty"`
	DurationMS float64        `bson:"execution_time_ms" json:"execution_time_ms"`
	Status     ToolStatus     `bson:"status" json:"status"`
	CreatedAt  time.Time      `bson:"created_at" json:"created_at"`
}
