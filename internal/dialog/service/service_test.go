package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ScholarChen20/travel-agent/internal/cache"
	"github.com/ScholarChen20/travel-agent/internal/dialog/domain"
	"github.com/ScholarChen20/travel-agent/internal/errs"
)

type memRepo struct {
	mu          sync.Mutex
	sessions    map[string]*domain.Session
	messages    []domain.Message
	toolLogs    []domain.ToolCallLog
	getCalls    int
	listCalls   int
	recentCalls int
}

func newMemRepo() *memRepo {
	return &memRepo{sessions: make(map[string]*domain.Session)}
}

func (r *memRepo) InsertSession(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memRepo) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memRepo) TouchSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.MessageCount++
		s.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *memRepo) UpdateTitle(ctx context.Context, sessionID, ownerID, title string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || s.OwnerID != ownerID {
		return false, nil
	}
	s.Title = title
	s.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *memRepo) DeleteSession(ctx context.Context, sessionID, ownerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || s.OwnerID != ownerID {
		return false, nil
	}
	delete(r.sessions, sessionID)
	return true, nil
}

func (r *memRepo) ListSessions(ctx context.Context, ownerID string, f domain.ListFilter) ([]domain.SessionSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	var out []domain.SessionSummary
	for _, s := range r.sessions {
		if s.OwnerID != ownerID {
			continue
		}
		if f.Active != nil && s.Active != *f.Active {
			continue
		}
		out = append(out, domain.SessionSummary{
			ID: s.ID, Title: s.Title, MessageCount: s.MessageCount,
			CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt, Active: s.Active,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if f.Skip < len(out) {
		out = out[f.Skip:]
	} else {
		out = nil
	}
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *memRepo) InsertMessage(ctx context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, *m)
	return nil
}

func (r *memRepo) RecentMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recentCalls++
	var all []domain.Message
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			all = append(all, m)
		}
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (r *memRepo) DeleteMessages(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.messages[:0]
	for _, m := range r.messages {
		if m.SessionID != sessionID {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	return nil
}

func (r *memRepo) InsertToolCall(ctx context.Context, l *domain.ToolCallLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toolLogs = append(r.toolLogs, *l)
	return nil
}

func (r *memRepo) ToolCalls(ctx context.Context, sessionID string, limit int) ([]domain.ToolCallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ToolCallLog
	for i := len(r.toolLogs) - 1; i >= 0 && len(out) < limit; i-- {
		if r.toolLogs[i].SessionID == sessionID {
			out = append(out, r.toolLogs[i])
		}
	}
	return out, nil
}

func newService(t *testing.T) (*Service, *memRepo, *cache.MemoryStore) {
	t.Helper()
	repo := newMemRepo()
	store := cache.NewMemoryStore()
	coord := cache.NewCoordinator(store, zap.NewNop())
	svc := New(repo, coord, 24*time.Hour, time.Hour, zap.NewNop())
	return svc, repo, store
}

func TestCreateSession_PrimesCache(t *testing.T) {
	svc, _, store := newService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, "u1", domain.SessionContext{Destination: "Kyoto"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if n, _ := store.Exists(ctx, cache.SessionKey(id)); n != 1 {
		t.Error("session cache entry not primed")
	}
}

func TestCreateSession_InvalidatesListNamespace(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.CreateSession(ctx, "u1", domain.SessionContext{}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	first, err := svc.ListSessions(ctx, "u1", domain.ListFilter{})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("want 1 session, got %d", len(first))
	}
	// Second read must come from cache.
	if _, err := svc.ListSessions(ctx, "u1", domain.ListFilter{}); err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("want 1 store list, got %d", repo.listCalls)
	}

	// A new session invalidates every cached page for the owner.
	if _, err := svc.CreateSession(ctx, "u1", domain.SessionContext{}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	after, err := svc.ListSessions(ctx, "u1", domain.ListFilter{})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(after) != 2 {
		t.Errorf("stale listing after create: got %d sessions", len(after))
	}
	if repo.listCalls != 2 {
		t.Errorf("listing not re-read after invalidation: %d calls", repo.listCalls)
	}
}

func TestListSessions_FilteredPagesInvalidatedToo(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.CreateSession(ctx, "u1", domain.SessionContext{}); err != nil {
		t.Fatal(err)
	}
	active := true
	filtered, err := svc.ListSessions(ctx, "u1", domain.ListFilter{Active: &active})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("want 1, got %d", len(filtered))
	}

	if _, err := svc.CreateSession(ctx, "u1", domain.SessionContext{}); err != nil {
		t.Fatal(err)
	}
	filtered, err = svc.ListSessions(ctx, "u1", domain.ListFilter{Active: &active})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("filtered page not invalidated: got %d", len(filtered))
	}
}

func TestGetContext_CacheAside(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, "u1", domain.SessionContext{Destination: "Lisbon"})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.AppendMessage(ctx, id, domain.RoleUser, fmt.Sprintf("msg %d", i), nil); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	got, err := svc.GetContext(ctx, id, 10)
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if got.Session.Context.Destination != "Lisbon" || len(got.Messages) != 3 {
		t.Fatalf("unexpected context: %+v", got)
	}
	recentAfterMiss := repo.recentCalls

	// A hit must not touch the message store.
	again, err := svc.GetContext(ctx, id, 10)
	if err != nil {
		t.Fatalf("GetContext hit: %v", err)
	}
	if repo.recentCalls != recentAfterMiss {
		t.Error("hit went to the message store")
	}
	if len(again.Messages) != 3 {
		t.Errorf("hit lost messages: %d", len(again.Messages))
	}
}

func TestGetContext_HitTruncatesFromTail(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, "u1", domain.SessionContext{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := svc.AppendMessage(ctx, id, domain.RoleUser, fmt.Sprintf("msg %d", i), nil); err != nil {
			t.Fatal(err)
		}
	}
	// Populate the cache with all 5 messages.
	if _, err := svc.GetContext(ctx, id, 10); err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetContext(ctx, id, 2)
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("want 2 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Content != "msg 3" || got.Messages[1].Content != "msg 4" {
		t.Errorf("truncation kept the wrong end: %q, %q",
			got.Messages[0].Content, got.Messages[1].Content)
	}
}

func TestAppendMessage_InvalidatesContext(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, "u1", domain.SessionContext{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AppendMessage(ctx, id, domain.RoleUser, "hello", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetContext(ctx, id, 10); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.AppendMessage(ctx, id, domain.RoleAssistant, "hi there", nil); err != nil {
		t.Fatal(err)
	}
	got, err := svc.GetContext(ctx, id, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Messages) != 2 {
		t.Errorf("stale context after append: %d messages", len(got.Messages))
	}
}

func TestAppendMessage_Validation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, "u1", domain.SessionContext{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AppendMessage(ctx, id, "robot", "hello", nil); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("bad role: want ErrValidation, got %v", err)
	}
	if _, err := svc.AppendMessage(ctx, id, domain.RoleUser, "  ", nil); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("blank content: want ErrValidation, got %v", err)
	}
	if _, err := svc.AppendMessage(ctx, "missing", domain.RoleUser, "hello", nil); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("missing session: want ErrNotFound, got %v", err)
	}
}

func TestGetContext_NotFound(t *testing.T) {
	svc, _, _ := newService(t)
	if _, err := svc.GetContext(context.Background(), "nope", 10); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateTitle_OwnerScoped(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, "u1", domain.SessionContext{})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.UpdateTitle(ctx, id, "intruder", "mine now"); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("foreign owner: want ErrForbidden, got %v", err)
	}
	if err := svc.UpdateTitle(ctx, "missing", "u1", "anything"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("missing session: want ErrNotFound, got %v", err)
	}
	if err := svc.UpdateTitle(ctx, id, "u1", "Kyoto in May"); err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}
	if repo.sessions[id].Title != "Kyoto in May" {
		t.Error("title not persisted")
	}
	if err := svc.UpdateTitle(ctx, id, "u1", "   "); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("blank title: want ErrValidation, got %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	svc, repo, store := newService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, "u1", domain.SessionContext{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AppendMessage(ctx, id, domain.RoleUser, "hello", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetContext(ctx, id, 10); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteSession(ctx, id, "intruder"); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("foreign owner: want ErrForbidden, got %v", err)
	}
	if _, ok := repo.sessions[id]; !ok {
		t.Fatal("foreign-owner delete must not remove the session")
	}

	if err := svc.DeleteSession(ctx, id, "u1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if len(repo.messages) != 0 {
		t.Error("messages survived the delete")
	}
	if n, _ := store.Exists(ctx, cache.SessionKey(id), cache.SessionContextKey(id)); n != 0 {
		t.Error("session cache keys survived the delete")
	}
	if _, err := svc.GetContext(ctx, id, 10); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("deleted session still readable: %v", err)
	}
}

func TestToolCallLogs(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, "u1", domain.SessionContext{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		_, err := svc.LogToolCall(ctx, &domain.ToolCallLog{
			SessionID:  id,
			ToolName:   fmt.Sprintf("tool-%d", i),
			Input:      map[string]any{"q": i},
			DurationMS: float64(10 * i),
		})
		if err != nil {
			t.Fatalf("LogToolCall: %v", err)
		}
	}

	logs, err := svc.SessionToolLogs(ctx, id, 2)
	if err != nil {
		t.Fatalf("SessionToolLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("want 2 logs, got %d", len(logs))
	}
	if logs[0].ToolName != "tool-2" {
		t.Errorf("want newest first, got %q", logs[0].ToolName)
	}
	if logs[0].Status != domain.ToolStatusSuccess {
		t.Errorf("default status not applied: %q", logs[0].Status)
	}

	if _, err := svc.LogToolCall(ctx, &domain.ToolCallLog{ToolName: "x"}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("missing session id: want ErrValidation, got %v", err)
	}
}
