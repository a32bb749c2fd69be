package repository

import (
	"context"

	"github.com/ScholarChen20/travel-agent/internal/dialog/domain"
)

// Repository is the persistent store behind the session service.
type Repository interface {
	// InsertSession persists a new session.
	InsertSession(ctx context.Context, s *domain.Session) error
	// GetSession returns the session for id, or nil if not found.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	// TouchSession increments the session's message count and bumps its
	// updated timestamp.
	TouchSession(ctx context.Context, sessionID string) error
	// UpdateTitle sets the title of a session owned by ownerID. It reports
	// whether a session matched.
	UpdateTitle(ctx context.Context, sessionID, ownerID, title string) (bool, error)
	// DeleteSession removes a session owned by ownerID and reports whether
	// one matched. Messages are removed separately via DeleteMessages.
	DeleteSession(ctx context.Context, sessionID, ownerID string) (bool, error)
	// ListSessions returns summaries for ownerID's sessions, most recently
	// updated first.
	ListSessions(ctx context.Context, ownerID string, f domain.ListFilter) ([]domain.SessionSummary, error)

	// InsertMessage persists a message.
	InsertMessage(ctx context.Context, m *domain.Message) error
	// RecentMessages returns up to limit of the session's newest messages
	// in chronological order.
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)
	// DeleteMessages removes every message of a session.
	DeleteMessages(ctx context.Context, sessionID string) error

	// InsertToolCall persists a tool-call log entry.
	InsertToolCall(ctx context.Context, l *domain.ToolCallLog) error
	// ToolCalls returns up to limit of the session's newest tool-call logs,
	// newest first.
	ToolCalls(ctx context.Context, sessionID string, limit int) ([]domain.ToolCallLog, error)
}
