// Package service implements the session store: conversational sessions
// persisted in the document store with a cache-aside read path for session
// context and per-user session listings.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ScholarChen20/travel-agent/internal/cache"
	"github.com/ScholarChen20/travel-agent/internal/dialog/domain"
	"github.com/ScholarChen20/travel-agent/internal/dialog/repository"
	"github.com/ScholarChen20/travel-agent/internal/errs"
)

const (
	// DefaultContextMessages bounds a context read when the caller does
	// not say how many messages it wants.
	DefaultContextMessages = 20
	// DefaultListLimit bounds a session listing page.
	DefaultListLimit = 20
	// DefaultToolLogLimit bounds a tool-log read.
	DefaultToolLogLimit = 50
)

// Service is the session store over a document repository and a cache.
type Service struct {
	repo       repository.Repository
	cache      *cache.Coordinator
	sessionTTL time.Duration
	listTTL    time.Duration
	log        *zap.Logger
}

// New returns a Service. sessionTTL covers the session header and context
// entries; listTTL covers cached listing pages.
func New(repo repository.Repository, c *cache.Coordinator, sessionTTL, listTTL time.Duration, log *zap.Logger) *Service {
	return &Service{repo: repo, cache: c, sessionTTL: sessionTTL, listTTL: listTTL, log: log}
}

// CreateSession persists a new session for ownerID, primes the session
// cache entry, and invalidates the owner's cached listing pages.
func (s *Service) CreateSession(ctx context.Context, ownerID string, initial domain.SessionContext) (string, error) {
	if ownerID == "" {
		return "", fmt.Errorf("%w: owner id required", errs.ErrValidation)
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		ID:        "session_" + uuid.NewString(),
		OwnerID:   ownerID,
		Context:   initial,
		CreatedAt: now,
		UpdatedAt: now,
		Active:    true,
	}
	if err := s.repo.InsertSession(ctx, sess); err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	s.cache.SetJSON(ctx, cache.SessionKey(sess.ID), sess, s.sessionTTL)
	s.cache.InvalidatePattern(ctx, cache.UserSessionsPattern(ownerID))

	s.log.Info("session created",
		zap.String("session_id", sess.ID), zap.String("user_id", ownerID))
	return sess.ID, nil
}

// AppendMessage persists a message, bumps the session's message count and
// updated timestamp, and invalidates the session's cached context. The
// cached composite is cheaper to rebuild on the next read than to patch.
func (s *Service) AppendMessage(ctx context.Context, sessionID string, role domain.MessageRole, content string, metadata map[string]string) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown message role %q", errs.ErrValidation, role)
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty message content", errs.ErrValidation)
	}
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return "", errs.ErrNotFound
	}

	msg := &domain.Message{
		ID:        "msg_" + uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertMessage(ctx, msg); err != nil {
		return "", fmt.Errorf("insert message: %w", err)
	}
	if err := s.repo.TouchSession(ctx, sessionID); err != nil {
		return "", fmt.Errorf("touch session: %w", err)
	}

	s.cache.Invalidate(ctx, cache.SessionContextKey(sessionID))

	s.log.Debug("message appended",
		zap.String("session_id", sessionID),
		zap.String("message_id", msg.ID),
		zap.String("role", string(role)))
	return msg.ID, nil
}

// GetContext returns the session header plus its most recent maxMessages
// messages in chronological order. Cache-aside: a hit is truncated to
// maxMessages from the tail of the cached copy; a miss is rebuilt from the
// document store and cached.
func (s *Service) GetContext(ctx context.Context, sessionID string, maxMessages int) (*domain.Context, error) {
	if maxMessages <= 0 {
		maxMessages = DefaultContextMessages
	}
	key := cache.SessionContextKey(sessionID)

	var cached domain.Context
	if s.cache.GetJSON(ctx, key, &cached) {
		if len(cached.Messages) > maxMessages {
			cached.Messages = cached.Messages[len(cached.Messages)-maxMessages:]
		}
		return &cached, nil
	}

	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, errs.ErrNotFound
	}
	msgs, err := s.repo.RecentMessages(ctx, sessionID, maxMessages)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	result := &domain.Context{Session: *sess, Messages: msgs}
	s.cache.SetJSON(ctx, key, result, s.sessionTTL)
	return result, nil
}

// ListSessions returns summaries of ownerID's sessions, most recently
// updated first. Pages are cached per (owner, filter, page) and invalidated
// wholesale on any write to the owner's sessions.
func (s *Service) ListSessions(ctx context.Context, ownerID string, f domain.ListFilter) ([]domain.SessionSummary, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	active := ""
	if f.Active != nil {
		active = fmt.Sprintf("%t", *f.Active)
	}
	key := cache.UserSessionsKey(ownerID, active, f.Limit, f.Skip)

	var cached []domain.SessionSummary
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	summaries, err := s.repo.ListSessions(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	s.cache.SetJSON(ctx, key, summaries, s.listTTL)
	return summaries, nil
}

// UpdateTitle renames a session. Only the owner may rename; a missing
// session is not-found, someone else's session is forbidden.
func (s *Service) UpdateTitle(ctx context.Context, sessionID, ownerID, title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: empty title", errs.ErrValidation)
	}
	if err := s.authorize(ctx, sessionID, ownerID); err != nil {
		return err
	}
	matched, err := s.repo.UpdateTitle(ctx, sessionID, ownerID, title)
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	if !matched {
		return errs.ErrNotFound
	}

	s.cache.Invalidate(ctx, cache.SessionContextKey(sessionID))
	s.cache.InvalidatePattern(ctx, cache.UserSessionsPattern(ownerID))

	s.log.Info("session title updated", zap.String("session_id", sessionID))
	return nil
}

// DeleteSession removes a session and its messages. Only the owner may
// delete. All of the session's cache keys and the owner's listing namespace
// are invalidated.
func (s *Service) DeleteSession(ctx context.Context, sessionID, ownerID string) error {
	if err := s.authorize(ctx, sessionID, ownerID); err != nil {
		return err
	}
	deleted, err := s.repo.DeleteSession(ctx, sessionID, ownerID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if !deleted {
		return errs.ErrNotFound
	}
	if err := s.repo.DeleteMessages(ctx, sessionID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}

	s.cache.Invalidate(ctx,
		cache.SessionKey(sessionID),
		cache.SessionContextKey(sessionID))
	s.cache.InvalidatePattern(ctx, cache.UserSessionsPattern(ownerID))

	s.log.Info("session deleted",
		zap.String("session_id", sessionID), zap.String("user_id", ownerID))
	return nil
}

// authorize distinguishes a missing session from someone else's: the
// former is not-found, the latter forbidden.
func (s *Service) authorize(ctx context.Context, sessionID, ownerID string) error {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return errs.ErrNotFound
	}
	if sess.OwnerID != ownerID {
		return errs.ErrForbidden
	}
	return nil
}

// LogToolCall records one tool invocation made while serving a session.
// Logs are diagnostics; they bypass the cache entirely.
func (s *Service) LogToolCall(ctx context.Context, l *domain.ToolCallLog) (string, error) {
	if l.SessionID == "" || l.ToolName == "" {
		return "", fmt.Errorf("%w: session id and tool name required", errs.ErrValidation)
	}
	if l.Status == "" {
		l.Status = domain.ToolStatusSuccess
	}
	entry := *l
	entry.ID = "log_" + uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	if err := s.repo.InsertToolCall(ctx, &entry); err != nil {
		return "", fmt.Errorf("insert tool log: %w", err)
	}

	s.log.Debug("tool call recorded",
		zap.String("session_id", entry.SessionID),
		zap.String("tool", entry.ToolName),
		zap.Float64("duration_ms", entry.DurationMS))
	return entry.ID, nil
}

// SessionToolLogs returns up to limit of a session's newest tool-call
// logs, newest first.
func (s *Service) SessionToolLogs(ctx context.Context, sessionID string, limit int) ([]domain.ToolCallLog, error) {
	if limit <= 0 {
		limit = DefaultToolLogLimit
	}
	logs, err := s.repo.ToolCalls(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("load tool logs: %w", err)
	}
	return logs, nil
}
