package storage

import (
	"errors"
	"testing"
	"time"

	"form-analyzer/pkg/models"
)

func TestStoreAndGetSession(t *testing.T) {
	store := NewMemoryStore()
	info := models.NewSessionInfo("user-1", "arm-circles")

	if err := store.StoreSession(info); err != nil {
		t.Fatalf("StoreSession failed: %v", err)
	}

	got, err := store.GetSession(info.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.ExerciseID != "arm-circles" || got.Status != models.SessionActive {
		t.Errorf("unexpected session %+v", got)
	}

	got.Status = models.SessionStopped
	again, _ := store.GetSession(info.ID)
	if again.Status != models.SessionActive {
		t.Error("store was mutated through a returned session")
	}
}

func TestUpdateSessionStatus(t *testing.T) {
	store := NewMemoryStore()
	info := models.NewSessionInfo("user-1", "seated-twist")
	store.StoreSession(info)

	if err := store.UpdateSessionStatus(info.ID, models.SessionStopped); err != nil {
		t.Fatalf("UpdateSessionStatus failed: %v", err)
	}
	got, _ := store.GetSession(info.ID)
	if got.Status != models.SessionStopped {
		t.Errorf("expected stopped, got %s", got.Status)
	}
	if got.StoppedAt.IsZero() {
		t.Error("expected StoppedAt to be set")
	}

	if err := store.UpdateSessionStatus("missing", models.SessionStopped); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestGetUserSessionsNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	base := time.Now()
	for i, ex := range []string{"arm-circles", "seated-twist", "chair-yoga-stretch"} {
		info := models.NewSessionInfo("user-1", ex)
		info.StartedAt = base.Add(time.Duration(i) * time.Minute)
		store.StoreSession(info)
	}
	store.StoreSession(models.NewSessionInfo("user-2", "arm-circles"))

	sessions, err := store.GetUserSessions("user-1")
	if err != nil {
		t.Fatalf("GetUserSessions failed: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	if sessions[0].ExerciseID != "chair-yoga-stretch" {
		t.Errorf("expected newest first, got %s", sessions[0].ExerciseID)
	}
}
