package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"StudyBot/backend/go/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestStore opens an in-memory SQLite database with the full schema.
// The database is named after the test so tests never share state.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Fact{}); err != nil {
		t.Fatalf("Failed to migrate schema: %v", err)
	}

	return NewStore(db)
}

func newTestUser(t *testing.T, s *Store, senderID string) *models.User {
	t.Helper()
	user := &models.User{SenderID: senderID, FirstName: "Ada", LastName: "Lovelace"}
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func TestCreateFact(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "sender-1")
	ctx := context.Background()

	fact, err := s.CreateFact(ctx, user.ID, "What is the capital of France?", "Paris", nil)
	if err != nil {
		t.Fatalf("CreateFact() error = %v", err)
	}
	if fact.ID == 0 {
		t.Error("Expected a persisted fact with an ID")
	}
	if fact.QuestionKey != "what is the capital of france?" {
		t.Errorf("Expected a lowercased question key, got %q", fact.QuestionKey)
	}
	if fact.LastSeen.IsZero() {
		t.Error("Expected LastSeen to default to now")
	}
}

func TestCreateFact_DuplicateQuestion(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "sender-1")
	ctx := context.Background()

	if _, err := s.CreateFact(ctx, user.ID, "What is 2+2?", "4", nil); err != nil {
		t.Fatalf("CreateFact() error = %v", err)
	}

	// Same question with different casing must conflict.
	_, err := s.CreateFact(ctx, user.ID, "WHAT IS 2+2?", "four", nil)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}

	// The same question for a different user is fine.
	other := newTestUser(t, s, "sender-2")
	if _, err := s.CreateFact(ctx, other.ID, "What is 2+2?", "4", nil); err != nil {
		t.Errorf("Expected no conflict across users, got %v", err)
	}
}

func TestCreateFact_ConfidenceOutOfRange(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "sender-1")

	for _, c := range []int{-1, 6} {
		confidence := c
		_, err := s.CreateFact(context.Background(), user.ID, "q", "a", &confidence)
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("Expected ErrInvalid for confidence %d, got %v", c, err)
		}
	}

	confidence := 5
	if _, err := s.CreateFact(context.Background(), user.ID, "q", "a", &confidence); err != nil {
		t.Errorf("Expected confidence 5 to be accepted, got %v", err)
	}
}

func TestUpdateFact(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "sender-1")
	ctx := context.Background()

	fact, err := s.CreateFact(ctx, user.ID, "Who wrote Hamlet?", "Shakespear", nil)
	if err != nil {
		t.Fatalf("CreateFact() error = %v", err)
	}

	answer := "Shakespeare"
	updated, err := s.UpdateFact(ctx, user.ID, fact.ID, nil, &answer)
	if err != nil {
		t.Fatalf("UpdateFact() error = %v", err)
	}
	if updated.Answer != "Shakespeare" {
		t.Errorf("Expected the answer updated, got %q", updated.Answer)
	}
	if updated.Question != fact.Question {
		t.Errorf("Expected a nil question to keep the old value, got %q", updated.Question)
	}
	if !updated.LastSeen.After(fact.LastSeen) {
		t.Error("Expected LastSeen to be touched on update")
	}
}

func TestUpdateFact_NotFound(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "sender-1")

	q := "q"
	_, err := s.UpdateFact(context.Background(), user.ID, 999, &q, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateFact_OtherUsersFact(t *testing.T) {
	s := newTestStore(t)
	owner := newTestUser(t, s, "sender-1")
	intruder := newTestUser(t, s, "sender-2")
	ctx := context.Background()

	fact, err := s.CreateFact(ctx, owner.ID, "secret question", "secret answer", nil)
	if err != nil {
		t.Fatalf("CreateFact() error = %v", err)
	}

	q := "hijacked"
	if _, err := s.UpdateFact(ctx, intruder.ID, fact.ID, &q, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound when updating another user's fact, got %v", err)
	}
}

func TestUpsertFact(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "sender-1")
	ctx := context.Background()

	// Without an ID the upsert creates.
	created, err := s.UpsertFact(ctx, user.ID, 0, "What is Go?", "A language", nil)
	if err != nil {
		t.Fatalf("UpsertFact() create error = %v", err)
	}

	// With the ID it updates in place.
	updated, err := s.UpsertFact(ctx, user.ID, created.ID, "What is Go?", "A programming language", nil)
	if err != nil {
		t.Fatalf("UpsertFact() update error = %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("Expected the same fact updated, got %d and %d", created.ID, updated.ID)
	}

	facts, err := s.ListFacts(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListFacts() error = %v", err)
	}
	if len(facts) != 1 {
		t.Errorf("Expected exactly one fact after the upsert pair, got %d", len(facts))
	}
	if facts[0].Answer != "A programming language" {
		t.Errorf("Expected the updated answer, got %q", facts[0].Answer)
	}
}

func TestFindFact(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "sender-1")
	ctx := context.Background()

	fact, err := s.CreateFact(ctx, user.ID, "What is the capital of France?", "Paris", nil)
	if err != nil {
		t.Fatalf("CreateFact() error = %v", err)
	}

	// By numeric ID, whitespace tolerated.
	got, err := s.FindFact(ctx, user.ID, fmt.Sprintf("  %d  ", fact.ID))
	if err != nil {
		t.Fatalf("FindFact() by ID error = %v", err)
	}
	if got.ID != fact.ID {
		t.Errorf("Expected fact %d, got %d", fact.ID, got.ID)
	}

	// By question text, case-insensitive.
	got, err = s.FindFact(ctx, user.ID, "WHAT IS THE CAPITAL OF FRANCE?")
	if err != nil {
		t.Fatalf("FindFact() by question error = %v", err)
	}
	if got.ID != fact.ID {
		t.Errorf("Expected fact %d, got %d", fact.ID, got.ID)
	}

	// Unknown reference.
	if _, err := s.FindFact(ctx, user.ID, "no such question"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFindFact_NumericQuestion(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "sender-1")
	ctx := context.Background()

	// The question itself is a number that matches no fact ID.
	fact, err := s.CreateFact(ctx, user.ID, "1234", "a PIN", nil)
	if err != nil {
		t.Fatalf("CreateFact() error = %v", err)
	}

	got, err := s.FindFact(ctx, user.ID, "1234")
	if err != nil {
		t.Fatalf("FindFact() error = %v", err)
	}
	if got.ID != fact.ID {
		t.Errorf("Expected the question-text fallback to find fact %d, got %d", fact.ID, got.ID)
	}
}

func TestFindFact_ScopedToUser(t *testing.T) {
	s := newTestStore(t)
	owner := newTestUser(t, s, "sender-1")
	other := newTestUser(t, s, "sender-2")
	ctx := context.Background()

	fact, err := s.CreateFact(ctx, owner.ID, "private", "data", nil)
	if err != nil {
		t.Fatalf("CreateFact() error = %v", err)
	}

	if _, err := s.FindFact(ctx, other.ID, "private"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound across users, got %v", err)
	}
	if _, err := s.FindFact(ctx, other.ID, fmt.Sprintf("%d", fact.ID)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for another user's fact ID %d, got %v", fact.ID, err)
	}
}

func TestDeleteFact(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "sender-1")
	ctx := context.Background()

	fact, err := s.CreateFact(ctx, user.ID, "q", "a", nil)
	if err != nil {
		t.Fatalf("CreateFact() error = %v", err)
	}

	if err := s.DeleteFact(ctx, user.ID, fact.ID); err != nil {
		t.Fatalf("DeleteFact() error = %v", err)
	}

	// The second delete must report the miss.
	if err := s.DeleteFact(ctx, user.ID, fact.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on repeated delete, got %v", err)
	}

	facts, err := s.ListFacts(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListFacts() error = %v", err)
	}
	if len(facts) != 0 {
		t.Errorf("Expected no facts left, got %d", len(facts))
	}

	// The deletion frees the question for a new fact.
	if _, err := s.CreateFact(ctx, user.ID, "q", "a", nil); err != nil {
		t.Errorf("Expected the question reusable after deletion, got %v", err)
	}
}

func TestListFacts_Ordered(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "sender-1")
	ctx := context.Background()

	for _, q := range []string{"first", "second", "third"} {
		if _, err := s.CreateFact(ctx, user.ID, q, "a", nil); err != nil {
			t.Fatalf("CreateFact(%q) error = %v", q, err)
		}
	}

	facts, err := s.ListFacts(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListFacts() error = %v", err)
	}
	if len(facts) != 3 {
		t.Fatalf("Expected 3 facts, got %d", len(facts))
	}
	for i, want := range []string{"first", "second", "third"} {
		if facts[i].Question != want {
			t.Errorf("Expected facts in creation order, position %d is %q", i, facts[i].Question)
		}
	}
}

func TestGetUserBySenderID(t *testing.T) {
	s := newTestStore(t)
	user := newTestUser(t, s, "sender-1")

	got, err := s.GetUserBySenderID(context.Background(), "sender-1")
	if err != nil {
		t.Fatalf("GetUserBySenderID() error = %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Expected user %d, got %d", user.ID, got.ID)
	}

	if _, err := s.GetUserBySenderID(context.Background(), "unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
