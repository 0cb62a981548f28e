package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/psg-placement/chat-service/internal/events"
	"github.com/psg-placement/chat-service/internal/models"
	"github.com/psg-placement/chat-service/internal/moderation"
	"github.com/psg-placement/chat-service/internal/repositories"
	"github.com/psg-placement/chat-service/internal/validator"
)

// ===== MOCK REPOSITORY =====

type mockRepository struct {
	users  *mockUserRepo
	groups *mockGroupRepo
	msgs   *mockMessageRepo
	notifs *mockNotificationRepo
	audits *mockAuditRepo
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:  &mockUserRepo{users: map[string]*models.User{}},
		groups: &mockGroupRepo{groups: map[string]*models.Group{}, members: map[string]bool{}},
		msgs:   &mockMessageRepo{},
		notifs: &mockNotificationRepo{notifs: map[string]*models.Notification{}},
		audits: &mockAuditRepo{},
	}
}

func (m *mockRepository) Group() repositories.GroupRepository               { return m.groups }
func (m *mockRepository) Message() repositories.MessageRepository           { return m.msgs }
func (m *mockRepository) User() repositories.UserRepository                 { return m.users }
func (m *mockRepository) LeetCode() repositories.LeetCodeRepository         { return nil }
func (m *mockRepository) Notification() repositories.NotificationRepository { return m.notifs }
func (m *mockRepository) Audit() repositories.AuditRepository               { return m.audits }
func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

type mockUserRepo struct {
	users map[string]*models.User
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (m *mockUserRepo) ListWithLeetCodeURL(ctx context.Context, scope *models.CohortScope) ([]models.User, error) {
	return nil, nil
}
func (m *mockUserRepo) UpdateLeetCodeURL(ctx context.Context, userID, url string) error {
	if _, ok := m.users[userID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.users[userID].LeetCodeURL = &url
	return nil
}

type mockGroupRepo struct {
	groups  map[string]*models.Group
	members map[string]bool
}

func memberKey(groupID, userID string) string { return groupID + ":" + userID }

func (m *mockGroupRepo) GetByID(ctx context.Context, id string) (*models.Group, error) {
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockGroupRepo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	return m.members[memberKey(groupID, userID)], nil
}
func (m *mockGroupRepo) ListMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	return nil, nil
}
func (m *mockGroupRepo) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	var out []models.Group
	for key := range m.members {
		for id, g := range m.groups {
			if key == memberKey(id, userID) {
				out = append(out, *g)
			}
		}
	}
	return out, nil
}
func (m *mockGroupRepo) AddMember(ctx context.Context, groupID, userID string) error {
	m.members[memberKey(groupID, userID)] = true
	return nil
}

type mockMessageRepo struct {
	mu       sync.Mutex
	messages []*models.Message
	nextID   uint
}

func (m *mockMessageRepo) Create(ctx context.Context, message *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	message.ID = m.nextID
	m.messages = append(m.messages, message)
	return nil
}
func (m *mockMessageRepo) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockMessageRepo) Page(ctx context.Context, groupID string, filters repositories.MessageFilters) (*models.MessagePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page := &models.MessagePage{}
	for _, msg := range m.messages {
		if msg.GroupID != groupID {
			continue
		}
		if len(page.Messages) >= filters.Limit {
			page.HasMore = true
			break
		}
		page.Messages = append(page.Messages, models.NewChatMessage(msg))
	}
	return page, nil
}
func (m *mockMessageRepo) CountForGroup(ctx context.Context, groupID string) (int64, error) {
	return int64(len(m.messages)), nil
}

type mockNotificationRepo struct {
	notifs map[string]*models.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	m.notifs[n.ID] = n
	return nil
}
func (m *mockNotificationRepo) MarkRead(ctx context.Context, notificationID, userID string) error {
	n, ok := m.notifs[notificationID]
	if !ok || n.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	n.IsRead = true
	return nil
}
func (m *mockNotificationRepo) ListUnread(ctx context.Context, userID string) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range m.notifs {
		if n.UserID == userID && !n.IsRead {
			out = append(out, *n)
		}
	}
	return out, nil
}

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}
func (m *mockAuditRepo) ListByEntity(ctx context.Context, entityType models.AuditEntityType, entityID string, limit int) ([]models.AuditLog, error) {
	return nil, nil
}

// ===== MOCK BROADCASTER =====

type mockBroadcaster struct {
	mu       sync.Mutex
	messages []models.ChatMessage
	typing   []string
}

func (m *mockBroadcaster) BroadcastMessage(ctx context.Context, message models.ChatMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
}
func (m *mockBroadcaster) BroadcastTyping(ctx context.Context, groupID, userID string, isTyping bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typing = append(m.typing, groupID+":"+userID)
}
func (m *mockBroadcaster) NotifyUser(ctx context.Context, notification models.Notification) {}

// ===== FIXTURE =====

type chatFixture struct {
	service     ChatService
	repo        *mockRepository
	broadcaster *mockBroadcaster
	publisher   *events.MockEventPublisher
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newMockRepository()
	broadcaster := &mockBroadcaster{}
	publisher := events.NewMockEventPublisher(logger)

	// Keyword filter only; no external moderator in tests
	engine := moderation.NewEngine(nil, moderation.EngineConfig{Enabled: false, BlockThreshold: 0.7}, logger)

	service := NewChatService(repo, engine, broadcaster, publisher, validator.New(), logger, ChatServiceConfig{
		MaxMessageLength: 5000,
		DefaultPageSize:  50,
		MaxPageSize:      200,
	})

	repo.users.users["student-1"] = &models.User{ID: "student-1", FullName: "Asha Rao", RegisterNumber: "21Z101", Role: models.RoleStudent}
	repo.users.users["student-2"] = &models.User{ID: "student-2", FullName: "Dev Kumar", RegisterNumber: "21Z102", Role: models.RoleStudent}
	repo.users.users["admin-1"] = &models.User{ID: "admin-1", FullName: "Placement Officer", Role: models.RoleSuperAdmin}
	repo.groups.groups["group-1"] = &models.Group{ID: "group-1", Name: "2025 Batch A"}
	repo.groups.members[memberKey("group-1", "student-1")] = true

	return &chatFixture{service: service, repo: repo, broadcaster: broadcaster, publisher: publisher}
}

// ===== TESTS =====

func TestAuthorize(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  string
		groupID string
		action  models.GroupAction
		wantErr error
	}{
		{"member can read", "student-1", "group-1", models.GroupActionRead, nil},
		{"member can write", "student-1", "group-1", models.GroupActionWrite, nil},
		{"non-member cannot read", "student-2", "group-1", models.GroupActionRead, ErrAccessDenied},
		{"non-member cannot write", "student-2", "group-1", models.GroupActionWrite, ErrAccessDenied},
		{"super admin can read any group", "admin-1", "group-1", models.GroupActionRead, nil},
		{"super admin cannot write without membership", "admin-1", "group-1", models.GroupActionWrite, ErrAccessDenied},
		{"unknown group", "student-1", "missing", models.GroupActionRead, ErrGroupNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.service.Authorize(ctx, tt.userID, tt.groupID, tt.action)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSendMessage(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	msg, err := f.service.SendMessage(ctx, "student-1", "group-1", "  When is the Infosys drive?  ")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if msg.Content != "When is the Infosys drive?" {
		t.Errorf("content not trimmed: %q", msg.Content)
	}
	if msg.ID == 0 {
		t.Error("message should get a store-assigned id")
	}
	if msg.FullName != "Asha Rao" {
		t.Errorf("FullName = %q", msg.FullName)
	}
	if msg.IsModerated {
		t.Error("clean message should not be marked moderated")
	}

	if len(f.broadcaster.messages) != 1 {
		t.Fatalf("got %d broadcasts, want 1", len(f.broadcaster.messages))
	}
	if f.broadcaster.messages[0].GroupID != "group-1" {
		t.Errorf("broadcast GroupID = %q", f.broadcaster.messages[0].GroupID)
	}
}

func TestSendMessageBlocked(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.service.SendMessage(ctx, "student-1", "group-1", "i will kill you")
	blocked, ok := IsModerationBlocked(err)
	if !ok {
		t.Fatalf("want ModerationBlockedError, got %v", err)
	}
	if blocked.Verdict.IsSafe {
		t.Error("blocked verdict should be unsafe")
	}

	// Blocked content must never reach the store or the group
	if len(f.repo.msgs.messages) != 0 {
		t.Errorf("blocked message was persisted: %d rows", len(f.repo.msgs.messages))
	}
	if len(f.broadcaster.messages) != 0 {
		t.Error("blocked message was broadcast")
	}

	// But it is audited and published
	if len(f.repo.audits.entries) != 1 {
		t.Fatalf("got %d audit rows, want 1", len(f.repo.audits.entries))
	}
	if f.repo.audits.entries[0].Action != models.AuditActionMessageFlagged {
		t.Errorf("audit action = %q", f.repo.audits.entries[0].Action)
	}
	published := f.publisher.GetPublishedEvents()
	if len(published) != 2 {
		t.Fatalf("published %d events, want flagged + notification", len(published))
	}
	if published[0].Type != events.EventMessageFlagged {
		t.Errorf("first event type = %q", published[0].Type)
	}
	if published[1].Type != events.EventNotification {
		t.Errorf("second event type = %q", published[1].Type)
	}

	// And the sender gets a moderation notice
	notices, _ := f.repo.notifs.ListUnread(ctx, "student-1")
	if len(notices) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notices))
	}
	if notices[0].Type != "moderation" {
		t.Errorf("notification type = %q", notices[0].Type)
	}
}

func TestSendMessageValidation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t  "},
		{"over length limit", string(make([]byte, 5001))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.SendMessage(ctx, "student-1", "group-1", tt.content)
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Errorf("want ValidationErrors, got %v", err)
			}
		})
	}
}

func TestSendMessageDenied(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.service.SendMessage(ctx, "student-2", "group-1", "hello")
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("want ErrAccessDenied, got %v", err)
	}
	if len(f.repo.msgs.messages) != 0 {
		t.Error("denied message was persisted")
	}
}

func TestGetMessagesClampsLimit(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		if _, err := f.service.SendMessage(ctx, "student-1", "group-1", "ping the placement cell"); err != nil {
			t.Fatalf("seed message %d: %v", i, err)
		}
	}

	// Zero limit falls back to the default page size
	page, err := f.service.GetMessages(ctx, "student-1", "group-1", repositories.MessageFilters{})
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(page.Messages) != 50 {
		t.Errorf("got %d messages, want default page of 50", len(page.Messages))
	}
	if !page.HasMore {
		t.Error("HasMore should be set when older messages remain")
	}
}

func TestGetMessagesDenied(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.service.GetMessages(ctx, "student-2", "group-1", repositories.MessageFilters{Limit: 10})
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("want ErrAccessDenied, got %v", err)
	}
}

func TestTyping(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	if err := f.service.Typing(ctx, "student-1", "group-1", true); err != nil {
		t.Fatalf("Typing: %v", err)
	}
	if len(f.broadcaster.typing) != 1 {
		t.Fatalf("got %d typing relays, want 1", len(f.broadcaster.typing))
	}

	if err := f.service.Typing(ctx, "student-2", "group-1", true); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("non-member typing: want ErrAccessDenied, got %v", err)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	f.repo.notifs.notifs["n-1"] = &models.Notification{ID: "n-1", UserID: "student-1", Title: "Drive update"}

	if err := f.service.MarkNotificationRead(ctx, "student-1", "n-1"); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if !f.repo.notifs.notifs["n-1"].IsRead {
		t.Error("notification not marked read")
	}

	// Another user's notification stays untouched
	if err := f.service.MarkNotificationRead(ctx, "student-2", "n-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}
