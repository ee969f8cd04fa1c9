package conversation

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"atendo/internal/events"
	"atendo/internal/repo"
	"atendo/pkg/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The tests below exercise the transaction-bound paths against a real
// database. They skip unless TEST_DATABASE_URL points at a reachable
// Postgres instance.

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	if err := db.AutoMigrate(models.GetAllModels()...); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_conversations_tenant_display
		ON conversations (tenant_id, display_id)`).Error; err != nil {
		t.Fatalf("create display id index: %v", err)
	}
	return db
}

func seedTenant(t *testing.T, db *gorm.DB) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{Name: "Test Tenant"}
	if err := db.Create(tenant).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	return tenant
}

func seedUser(t *testing.T, db *gorm.DB, tenantID uuid.UUID, role string) *models.User {
	t.Helper()
	user := &models.User{
		TenantID: &tenantID,
		Email:    fmt.Sprintf("%s@test.local", uuid.New()),
		Password: "not-a-real-hash",
		Name:     "Test User",
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedInbox(t *testing.T, db *gorm.DB, tenantID uuid.UUID) *models.Inbox {
	t.Helper()
	inbox := &models.Inbox{
		BaseTenantModel: models.BaseTenantModel{TenantID: tenantID},
		Name:            "Test Inbox",
		IsActive:        true,
	}
	if err := db.Create(inbox).Error; err != nil {
		t.Fatalf("seed inbox: %v", err)
	}
	return inbox
}

func seedContact(t *testing.T, db *gorm.DB, tenantID uuid.UUID) *models.Contact {
	t.Helper()
	contact := &models.Contact{
		BaseTenantModel: models.BaseTenantModel{TenantID: tenantID},
		Name:            "Test Contact",
	}
	if err := db.Create(contact).Error; err != nil {
		t.Fatalf("seed contact: %v", err)
	}
	return contact
}

func seedConversation(t *testing.T, db *gorm.DB, inbox *models.Inbox, contact *models.Contact, status models.ConversationStatus, assigneeID *uuid.UUID) *models.Conversation {
	t.Helper()
	conv := &models.Conversation{
		BaseTenantModel: models.BaseTenantModel{TenantID: inbox.TenantID},
		InboxID:         inbox.ID,
		ContactID:       contact.ID,
		AssigneeID:      assigneeID,
		Status:          status,
		LastActivityAt:  time.Now(),
	}
	if err := repo.CreateConversation(db, conv); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	return conv
}

// topicRecorder subscribes to message topics and records what fires.
func topicRecorder(d *events.Dispatcher) *[]events.Topic {
	var seen []events.Topic
	record := func(ctx context.Context, ev events.Event) error {
		seen = append(seen, ev.Topic)
		return nil
	}
	d.Subscribe(events.ConversationReopened, record)
	d.Subscribe(events.MessageCreated, record)
	d.Subscribe(events.FirstReplyCreated, record)
	return &seen
}

func countTopic(seen []events.Topic, topic events.Topic) int {
	n := 0
	for _, t := range seen {
		if t == topic {
			n++
		}
	}
	return n
}

func TestCreateConversationAllocatesDisplayIDsPerTenant(t *testing.T) {
	db := testDB(t)

	tenantA := seedTenant(t, db)
	tenantB := seedTenant(t, db)
	inboxA := seedInbox(t, db, tenantA.ID)
	inboxB := seedInbox(t, db, tenantB.ID)
	contactA := seedContact(t, db, tenantA.ID)
	contactB := seedContact(t, db, tenantB.ID)

	for want := 1; want <= 3; want++ {
		conv := seedConversation(t, db, inboxA, contactA, models.ConversationStatusOpen, nil)
		if conv.DisplayID != want {
			t.Errorf("tenant A conversation %d: display_id = %d", want, conv.DisplayID)
		}
	}

	// A fresh tenant's sequence starts over at 1.
	if conv := seedConversation(t, db, inboxB, contactB, models.ConversationStatusOpen, nil); conv.DisplayID != 1 {
		t.Errorf("tenant B first conversation: display_id = %d, want 1", conv.DisplayID)
	}
}

func TestCreateMessageReopensResolvedConversationOnce(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	tenant := seedTenant(t, db)
	inbox := seedInbox(t, db, tenant.ID)
	contact := seedContact(t, db, tenant.ID)
	conv := seedConversation(t, db, inbox, contact, models.ConversationStatusResolved, nil)

	dispatcher := events.NewDispatcher()
	seen := topicRecorder(dispatcher)
	svc := NewService(db, dispatcher, nil)

	incoming := func() *models.Message {
		return &models.Message{
			BaseTenantModel: models.BaseTenantModel{TenantID: tenant.ID},
			ConversationID:  conv.ID,
			InboxID:         inbox.ID,
			MessageType:     models.MessageTypeIncoming,
			Content:         "hello again",
		}
	}

	if err := svc.CreateMessage(ctx, incoming()); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	var reloaded models.Conversation
	if err := db.First(&reloaded, "id = ?", conv.ID).Error; err != nil {
		t.Fatalf("reload conversation: %v", err)
	}
	if reloaded.Status != models.ConversationStatusOpen {
		t.Errorf("status after incoming message = %v, want open", reloaded.Status)
	}
	if got := countTopic(*seen, events.ConversationReopened); got != 1 {
		t.Errorf("ConversationReopened fired %d times, want 1", got)
	}

	// A second incoming message lands on an open conversation and must
	// not reopen again.
	if err := svc.CreateMessage(ctx, incoming()); err != nil {
		t.Fatalf("second CreateMessage: %v", err)
	}
	if got := countTopic(*seen, events.ConversationReopened); got != 1 {
		t.Errorf("ConversationReopened fired %d times after second message, want still 1", got)
	}
	if got := countTopic(*seen, events.MessageCreated); got != 2 {
		t.Errorf("MessageCreated fired %d times, want 2", got)
	}
}

func TestCreateMessageFirstReplyFiresExactlyOnce(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	tenant := seedTenant(t, db)
	inbox := seedInbox(t, db, tenant.ID)
	contact := seedContact(t, db, tenant.ID)
	conv := seedConversation(t, db, inbox, contact, models.ConversationStatusOpen, nil)

	dispatcher := events.NewDispatcher()
	seen := topicRecorder(dispatcher)
	svc := NewService(db, dispatcher, nil)

	outgoing := func() *models.Message {
		return &models.Message{
			BaseTenantModel: models.BaseTenantModel{TenantID: tenant.ID},
			ConversationID:  conv.ID,
			InboxID:         inbox.ID,
			MessageType:     models.MessageTypeOutgoing,
			Content:         "agent reply",
		}
	}

	if err := svc.CreateMessage(ctx, outgoing()); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if got := countTopic(*seen, events.FirstReplyCreated); got != 1 {
		t.Errorf("FirstReplyCreated fired %d times after first reply, want 1", got)
	}

	if err := svc.CreateMessage(ctx, outgoing()); err != nil {
		t.Fatalf("second CreateMessage: %v", err)
	}
	if got := countTopic(*seen, events.FirstReplyCreated); got != 1 {
		t.Errorf("FirstReplyCreated fired %d times after second reply, want still 1", got)
	}
}

func TestFinderCountsTakenBeforeAssigneeFilter(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	tenant := seedTenant(t, db)
	inbox := seedInbox(t, db, tenant.ID)
	contact := seedContact(t, db, tenant.ID)
	viewer := seedUser(t, db, tenant.ID, models.RoleAdministrator)
	other := seedUser(t, db, tenant.ID, models.RoleAgent)

	seedConversation(t, db, inbox, contact, models.ConversationStatusOpen, &viewer.ID)
	seedConversation(t, db, inbox, contact, models.ConversationStatusOpen, &viewer.ID)
	seedConversation(t, db, inbox, contact, models.ConversationStatusOpen, &other.ID)
	seedConversation(t, db, inbox, contact, models.ConversationStatusOpen, nil)
	// Resolved conversations sit outside the default open scope.
	seedConversation(t, db, inbox, contact, models.ConversationStatusResolved, &viewer.ID)

	finder := NewFinder(db)
	mine, err := finder.Perform(ctx, viewer, FinderParams{AssigneeTypeID: int(AssigneeTypeMe)})
	if err != nil {
		t.Fatalf("Perform(me): %v", err)
	}

	want := ConversationCounts{Mine: 2, Unassigned: 1, All: 4}
	if mine.Counts != want {
		t.Errorf("counts = %+v, want %+v", mine.Counts, want)
	}
	if mine.Counts.All < mine.Counts.Mine || mine.Counts.All < mine.Counts.Unassigned {
		t.Errorf("all count %d dropped below a bucket: %+v", mine.Counts.All, mine.Counts)
	}
	if len(mine.Conversations) != 2 {
		t.Errorf("me listing returned %d conversations, want 2", len(mine.Conversations))
	}

	// The assignee filter narrows only the listing, never the counts.
	all, err := finder.Perform(ctx, viewer, FinderParams{AssigneeTypeID: int(AssigneeTypeAll)})
	if err != nil {
		t.Fatalf("Perform(all): %v", err)
	}
	if all.Counts != mine.Counts {
		t.Errorf("counts vary by assignee type: me=%+v all=%+v", mine.Counts, all.Counts)
	}
	if len(all.Conversations) != 4 {
		t.Errorf("all listing returned %d conversations, want 4", len(all.Conversations))
	}
}
