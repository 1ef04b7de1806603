package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"taskboard/internal/domain"
)

type fakeUpdater struct {
	mu    sync.Mutex
	calls []TaskSnapshot
	err   error
	delay time.Duration
}

func (f *fakeUpdater) UpdateTask(_ context.Context, id string, snap TaskSnapshot) (domain.Task, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, snap)
	if f.err != nil {
		return domain.Task{}, f.err
	}
	return domain.Task{ID: id, Title: snap.Title, Status: snap.Status, Priority: snap.Priority, Position: snap.Position}, nil
}

func (f *fakeUpdater) snapshot() []TaskSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TaskSnapshot(nil), f.calls...)
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestTaskTitleEditor_BurstSendsOneFullSnapshot(t *testing.T) {
	updater := &fakeUpdater{}
	task := &domain.Task{ID: "t1", Title: "Old", Status: domain.TaskStatusInProgress, Position: 2}
	editor := NewTaskTitleEditor(zap.NewNop(), updater, task, TitleEditorOptions{Wait: 30 * time.Millisecond})

	for _, v := range []string{"N", "Ne", "New", "New t", "New title"} {
		editor.SetTitle(v)
		if editor.Title() != v {
			t.Fatalf("local title must update synchronously, got %q", editor.Title())
		}
	}
	if len(updater.snapshot()) != 0 {
		t.Fatalf("no network call expected while typing")
	}

	eventually(t, func() bool { return len(updater.snapshot()) == 1 })
	time.Sleep(60 * time.Millisecond)
	calls := updater.snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one update, got %d", len(calls))
	}
	if calls[0].Title != "New title" || calls[0].Status != domain.TaskStatusInProgress || calls[0].Position != 2 {
		t.Fatalf("expected merged snapshot with last title, got %+v", calls[0])
	}
}

func TestTaskTitleEditor_TwoBurstsTwoCalls(t *testing.T) {
	updater := &fakeUpdater{}
	editor := NewTaskTitleEditor(zap.NewNop(), updater, &domain.Task{ID: "t1"}, TitleEditorOptions{Wait: 20 * time.Millisecond})

	editor.SetTitle("first")
	eventually(t, func() bool { return len(updater.snapshot()) == 1 })
	editor.SetTitle("second")
	eventually(t, func() bool { return len(updater.snapshot()) == 2 })

	calls := updater.snapshot()
	if calls[0].Title != "first" || calls[1].Title != "second" {
		t.Fatalf("unexpected calls %+v", calls)
	}
}

func TestTaskTitleEditor_SavingSignalClearsOnFailure(t *testing.T) {
	updater := &fakeUpdater{err: errors.New("network down")}
	var mu sync.Mutex
	var signals []bool
	var gotErr error
	editor := NewTaskTitleEditor(zap.NewNop(), updater, &domain.Task{ID: "t1", Title: "Old"}, TitleEditorOptions{
		Wait: time.Hour,
		OnSaving: func(saving bool) {
			mu.Lock()
			signals = append(signals, saving)
			mu.Unlock()
		},
		OnError: func(err error) { gotErr = err },
	})

	editor.SetTitle("New")
	editor.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(signals) != 2 || !signals[0] || signals[1] {
		t.Fatalf("expected saving true then false, got %v", signals)
	}
	if editor.Saving() {
		t.Fatalf("saving must not stay set after a failure")
	}
	if gotErr == nil {
		t.Fatalf("expected error callback")
	}
	if editor.Title() != "New" {
		t.Fatalf("local title must survive a failed save, got %q", editor.Title())
	}
}

func TestTaskTitleEditor_NoTaskLoadedSkipsSave(t *testing.T) {
	updater := &fakeUpdater{}
	saving := false
	editor := NewTaskTitleEditor(zap.NewNop(), updater, nil, TitleEditorOptions{
		Wait:     time.Hour,
		OnSaving: func(s bool) { saving = saving || s },
	})

	editor.SetTitle("orphan")
	editor.Close()
	if len(updater.snapshot()) != 0 || saving {
		t.Fatalf("no call expected without a loaded task")
	}

	editor.SetTask(domain.Task{ID: "t9", Title: "Loaded"})
	if editor.Title() != "Loaded" {
		t.Fatalf("expected title synced from loaded task, got %q", editor.Title())
	}
	editor.SetTitle("Renamed")
	editor.Close()
	calls := updater.snapshot()
	if len(calls) != 1 || calls[0].Title != "Renamed" {
		t.Fatalf("expected save after task loaded, got %+v", calls)
	}
	if task, ok := editor.Task(); !ok || task.Title != "Renamed" {
		t.Fatalf("expected last-known record refreshed, got %+v", task)
	}
}
