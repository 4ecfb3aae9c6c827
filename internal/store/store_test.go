package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/cyclopsvision/go-mentor/pkg/procedure"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleProcedure(title string) *procedure.Procedure {
	return procedure.New(title, []procedure.Step{
		{
			ID:              1,
			Title:           "Lay out the parts",
			Description:     "Place all components on the mat",
			ExpectedObjects: []string{"frame", "screws"},
		},
		{
			ID:          2,
			Title:       "Attach the frame",
			Description: "Screw the frame to the base",
			MistakePatterns: []procedure.MistakePattern{
				{Type: "wrong_order", Description: "Frame attached before alignment"},
			},
		},
	})
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)

	p := sampleProcedure("Assemble the stand")
	if err := s.Create(p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Get(p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != p.Title || len(got.Steps) != 2 {
		t.Errorf("got %+v", got)
	}
	if got.Steps[1].MistakePatterns[0].Type != "wrong_order" {
		t.Errorf("step detail lost in round trip: %+v", got.Steps[1])
	}
	if len(got.Steps[0].ExpectedObjects) != 2 {
		t.Errorf("expected objects lost: %+v", got.Steps[0])
	}
}

func TestStoreGetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestStoreList(t *testing.T) {
	s := openTestStore(t)

	if procs, err := s.List(); err != nil || len(procs) != 0 {
		t.Fatalf("List on empty store = %v, %v", procs, err)
	}

	for _, title := range []string{"First", "Second", "Third"} {
		if err := s.Create(sampleProcedure(title)); err != nil {
			t.Fatalf("Create %s: %v", title, err)
		}
	}

	procs, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(procs) != 3 {
		t.Errorf("List returned %d procedures, want 3", len(procs))
	}
}

func TestStoreDelete(t *testing.T) {
	s := openTestStore(t)

	p := sampleProcedure("Disposable")
	if err := s.Create(p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete(p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete missing = %v, want ErrNotFound", err)
	}
}

func TestStoreDuplicateID(t *testing.T) {
	s := openTestStore(t)

	p := sampleProcedure("Original")
	if err := s.Create(p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(p); err == nil {
		t.Error("expected error inserting duplicate ID")
	}
}
