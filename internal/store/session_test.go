package store

import (
	"errors"
	"testing"
	"time"
)

func TestSessionRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{Mode: "letters"}
	if err := repo.Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if sess.ID == "" {
		t.Error("ID should be generated")
	}
	if sess.StartedAt.IsZero() {
		t.Error("StartedAt should be set")
	}
	if sess.Source != "camera" {
		t.Errorf("Source = %q, want camera", sess.Source)
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if got.Mode != "letters" || got.Source != "camera" {
		t.Errorf("unexpected session: %+v", got)
	}
	if got.EndedAt != nil {
		t.Error("new session should not be ended")
	}
	if got.Events != 0 {
		t.Errorf("Events = %d, want 0", got.Events)
	}
}

func TestSessionRepository_CreateRejectsBadMode(t *testing.T) {
	s := newTestStore(t)

	if err := s.Sessions().Create(&Session{Mode: "words"}); err == nil {
		t.Error("expected constraint error for unknown mode")
	}
}

func TestSessionRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Sessions().GetByID("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		err := repo.Create(&Session{ID: id, Mode: "both", StartedAt: base.Add(time.Duration(i) * time.Hour)})
		if err != nil {
			t.Fatalf("failed to create session %s: %v", id, err)
		}
	}
	if err := s.Events().Create(&Event{SessionID: "second", Kind: EventLetter, Symbol: "A", Confidence: 0.85}); err != nil {
		t.Fatalf("failed to create event: %v", err)
	}

	sessions, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}

	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "third" || sessions[2].ID != "first" {
		t.Errorf("sessions not ordered most recent first: %s, %s, %s", sessions[0].ID, sessions[1].ID, sessions[2].ID)
	}
	if sessions[1].Events != 1 {
		t.Errorf("second session Events = %d, want 1", sessions[1].Events)
	}
}

func TestSessionRepository_FinishAndText(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{Mode: "both"}
	if err := repo.Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if err := repo.UpdateText(sess.ID, "HI"); err != nil {
		t.Fatalf("failed to update text: %v", err)
	}

	end := sess.StartedAt.Add(time.Minute)
	if err := repo.Finish(sess.ID, end, "HI hello "); err != nil {
		t.Fatalf("failed to finish session: %v", err)
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if got.Text != "HI hello " {
		t.Errorf("Text = %q, want %q", got.Text, "HI hello ")
	}
	if got.EndedAt == nil || !got.EndedAt.Equal(end) {
		t.Errorf("EndedAt = %v, want %v", got.EndedAt, end)
	}

	if err := repo.Finish("missing", end, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound finishing missing session, got %v", err)
	}
	if err := repo.UpdateText("missing", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound updating missing session, got %v", err)
	}
}

func TestSessionRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{Mode: "both"}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if err := s.Events().Create(&Event{SessionID: sess.ID, Kind: EventGesture, Symbol: "hello", Confidence: 0.8}); err != nil {
		t.Fatalf("failed to create event: %v", err)
	}

	if err := s.Sessions().Delete(sess.ID); err != nil {
		t.Fatalf("failed to delete session: %v", err)
	}

	events, err := s.Events().ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected events to be deleted with the session, got %d", len(events))
	}

	if err := s.Sessions().Delete(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
