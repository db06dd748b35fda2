package registry

import (
	"errors"
	"slices"
	"testing"
)

func sample() *Registry[int] {
	r := New[int]()
	r.Append("empty", 1)
	r.Append("code", 2)
	r.Append("hashheader", 3)
	r.Append("paragraph", 4)
	return r
}

func TestInsert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		location string
		want     []string
	}{
		{"start", "start", []string{"new", "empty", "code", "hashheader", "paragraph"}},
		{"legacy begin", "_begin", []string{"new", "empty", "code", "hashheader", "paragraph"}},
		{"end", "end", []string{"empty", "code", "hashheader", "paragraph", "new"}},
		{"legacy end", "_end", []string{"empty", "code", "hashheader", "paragraph", "new"}},
		{"before", "before:hashheader", []string{"empty", "code", "new", "hashheader", "paragraph"}},
		{"short before", "<paragraph", []string{"empty", "code", "hashheader", "new", "paragraph"}},
		{"after", "after:empty", []string{"empty", "new", "code", "hashheader", "paragraph"}},
		{"short after", ">code", []string{"empty", "code", "new", "hashheader", "paragraph"}},
		{"after last is end", "after:paragraph", []string{"empty", "code", "hashheader", "paragraph", "new"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := sample()
			if err := r.Insert("new", 9, tt.location); err != nil {
				t.Fatalf("Insert(%q) error = %v", tt.location, err)
			}
			if got := r.Keys(); !slices.Equal(got, tt.want) {
				t.Errorf("Keys() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInsert_BeforeParagraphRegardlessOfOrder(t *testing.T) {
	t.Parallel()

	r := New[string]()
	r.Append("paragraph", "p")
	r.Append("late", "l")
	if err := r.Insert("table", "t", "<paragraph"); err != nil {
		t.Fatal(err)
	}
	i, _ := r.Index("table")
	j, _ := r.Index("paragraph")
	if i != j-1 {
		t.Errorf("table at %d, paragraph at %d; want table immediately before", i, j)
	}
}

func TestInsert_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		location string
		wantErr  error
	}{
		{"bad syntax", "new", "middle", ErrInvalidLocation},
		{"empty reference", "new", "before:", ErrInvalidLocation},
		{"empty short reference", "new", "<", ErrInvalidLocation},
		{"unknown reference", "new", "after:missing", ErrUnknownKey},
		{"duplicate", "code", "end", ErrDuplicateKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := sample()
			before := r.Keys()
			err := r.Insert(tt.key, 0, tt.location)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Insert() error = %v, want %v", err, tt.wantErr)
			}
			if !slices.Equal(r.Keys(), before) {
				t.Errorf("registry changed on failure: %v", r.Keys())
			}
		})
	}
}

func TestRelocate(t *testing.T) {
	t.Parallel()

	r := sample()
	if err := r.Relocate("paragraph", "start"); err != nil {
		t.Fatal(err)
	}
	want := []string{"paragraph", "empty", "code", "hashheader"}
	if got := r.Keys(); !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if v, _ := r.Get("paragraph"); v != 4 {
		t.Errorf("value moved badly: got %d", v)
	}
}

func TestRelocate_RestoresOnFailure(t *testing.T) {
	t.Parallel()

	r := sample()
	before := r.Keys()

	if err := r.Relocate("code", "<nowhere"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Relocate() error = %v, want ErrUnknownKey", err)
	}
	if err := r.Relocate("code", "<code"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Relocate(relative to itself) error = %v, want ErrUnknownKey", err)
	}
	if err := r.Relocate("missing", "end"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Relocate(missing) error = %v, want ErrUnknownKey", err)
	}
	if got := r.Keys(); !slices.Equal(got, before) {
		t.Errorf("Keys() = %v, want %v", got, before)
	}
}

func TestAppend_ReplacesInPlace(t *testing.T) {
	t.Parallel()

	r := sample()
	r.Append("code", 20)
	if i, _ := r.Index("code"); i != 1 {
		t.Errorf("Index(code) = %d, want 1", i)
	}
	if got := r.Snapshot(); !slices.Equal(got, []int{1, 20, 3, 4}) {
		t.Errorf("Snapshot() = %v", got)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	r := sample()
	if !r.Delete("code") {
		t.Fatal("Delete(code) = false")
	}
	if r.Delete("code") {
		t.Error("second Delete(code) = true")
	}
	if _, ok := r.Get("code"); ok {
		t.Error("Get(code) still finds the value")
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
}

func TestSnapshotIsolated(t *testing.T) {
	t.Parallel()

	r := sample()
	snap := r.Snapshot()
	r.Append("extra", 5)
	_ = r.Relocate("empty", "end")
	if !slices.Equal(snap, []int{1, 2, 3, 4}) {
		t.Errorf("snapshot changed: %v", snap)
	}
}
