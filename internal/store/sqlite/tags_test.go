package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/archipelago/notes-api/internal/id"
	"github.com/archipelago/notes-api/internal/store"
)

func TestFindOrCreateTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := id.New()

	tag, created, err := s.FindOrCreateTag(ctx, owner, "work")
	if err != nil {
		t.Fatalf("FindOrCreateTag: %v", err)
	}
	if !created {
		t.Error("expected first call to create the tag")
	}
	if !id.Valid(tag.ID) {
		t.Errorf("tag id %q is not a UUID", tag.ID)
	}

	again, created, err := s.FindOrCreateTag(ctx, owner, "work")
	if err != nil {
		t.Fatalf("FindOrCreateTag again: %v", err)
	}
	if created {
		t.Error("second call should not create")
	}
	if again.ID != tag.ID {
		t.Errorf("ID: got %q, want %q", again.ID, tag.ID)
	}
}

func TestFindOrCreateTag_EmptyName(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.FindOrCreateTag(context.Background(), id.New(), "   ")
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFindOrCreateTag_OwnersAreIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _, err := s.FindOrCreateTag(ctx, id.New(), "work")
	if err != nil {
		t.Fatalf("owner a: %v", err)
	}
	b, _, err := s.FindOrCreateTag(ctx, id.New(), "work")
	if err != nil {
		t.Fatalf("owner b: %v", err)
	}
	if a.ID == b.ID {
		t.Error("different owners must get distinct tags")
	}
}

func TestFindOrCreateTag_ConcurrentConverges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := id.New()

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tag, _, err := s.FindOrCreateTag(ctx, owner, "shared")
			errs[i] = err
			if tag != nil {
				ids[i] = tag.ID
			}
		}()
	}
	wg.Wait()

	for i := range workers {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("worker %d got %q, want %q", i, ids[i], ids[0])
		}
	}

	tags, err := s.ListTagsForOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ListTagsForOwner: %v", err)
	}
	if len(tags) != 1 {
		t.Errorf("expected exactly 1 tag, got %d", len(tags))
	}
}

func TestCreateAndLinkTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := id.New()
	n1 := makeTestNote(t, s, owner)
	n2 := makeTestNote(t, s, owner)

	first, created, err := s.CreateAndLinkTag(ctx, owner, "work", n1.ID)
	if err != nil {
		t.Fatalf("CreateAndLinkTag: %v", err)
	}
	if !created {
		t.Error("expected tag to be created")
	}

	// Same name on another note reuses the tag.
	second, created, err := s.CreateAndLinkTag(ctx, owner, "work", n2.ID)
	if err != nil {
		t.Fatalf("CreateAndLinkTag second note: %v", err)
	}
	if created || second.ID != first.ID {
		t.Errorf("expected reuse of %q, got %q (created=%v)", first.ID, second.ID, created)
	}

	// Same name on the same note conflicts.
	_, _, err = s.CreateAndLinkTag(ctx, owner, "work", n1.ID)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateAndLinkTag_RollsBackOnMissingNote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := id.New()

	_, _, err := s.CreateAndLinkTag(ctx, owner, "ghost", id.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := s.GetTagByName(ctx, owner, "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("tag should not survive a failed link, got %v", err)
	}
}

func TestRenameTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := id.New()

	work, _, _ := s.FindOrCreateTag(ctx, owner, "work")
	if _, _, err := s.FindOrCreateTag(ctx, owner, "home"); err != nil {
		t.Fatalf("FindOrCreateTag: %v", err)
	}

	renamed, err := s.RenameTag(ctx, work.ID, "job")
	if err != nil {
		t.Fatalf("RenameTag: %v", err)
	}
	if renamed.Name != "job" || renamed.ID != work.ID {
		t.Errorf("unexpected rename result: %+v", renamed)
	}

	if _, err := s.RenameTag(ctx, work.ID, "home"); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := s.RenameTag(ctx, work.ID, ""); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.RenameTag(ctx, id.New(), "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTag_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := id.New()
	note := makeTestNote(t, s, owner)

	tag, _, err := s.CreateAndLinkTag(ctx, owner, "work", note.ID)
	if err != nil {
		t.Fatalf("CreateAndLinkTag: %v", err)
	}
	other, _, _ := s.FindOrCreateTag(ctx, owner, "other")
	if err := s.LinkTags(ctx, tag.ID, other.ID); err != nil {
		t.Fatalf("LinkTags: %v", err)
	}

	if err := s.DeleteTag(ctx, tag.ID); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	tags, err := s.ListTagsForNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("ListTagsForNote: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("expected no tags on note, got %d", len(tags))
	}
	linked, err := s.ListLinkedTags(ctx, other.ID)
	if err != nil {
		t.Fatalf("ListLinkedTags: %v", err)
	}
	if len(linked) != 0 {
		t.Errorf("expected no linked tags, got %d", len(linked))
	}

	if err := s.DeleteTag(ctx, tag.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListTagsForOwner_SortedAndScoped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := id.New()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, _, err := s.FindOrCreateTag(ctx, owner, name); err != nil {
			t.Fatalf("FindOrCreateTag %s: %v", name, err)
		}
	}
	if _, _, err := s.FindOrCreateTag(ctx, id.New(), "foreign"); err != nil {
		t.Fatalf("FindOrCreateTag foreign: %v", err)
	}

	tags, err := s.ListTagsForOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ListTagsForOwner: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(tags) != len(want) {
		t.Fatalf("got %d tags, want %d", len(tags), len(want))
	}
	for i, w := range want {
		if tags[i].Name != w {
			t.Errorf("tags[%d]: got %q, want %q", i, tags[i].Name, w)
		}
	}
}

func TestListAllTags_SpansOwners(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, owner := range []string{id.New(), id.New()} {
		for _, name := range []string{"beta", "alpha"} {
			if _, _, err := s.FindOrCreateTag(ctx, owner, name); err != nil {
				t.Fatalf("FindOrCreateTag: %v", err)
			}
		}
	}

	tags, err := s.ListAllTags(ctx)
	if err != nil {
		t.Fatalf("ListAllTags: %v", err)
	}
	if len(tags) != 4 {
		t.Fatalf("expected 4 tags, got %d", len(tags))
	}
	if tags[0].OwnerID != tags[1].OwnerID || tags[0].Name != "alpha" || tags[1].Name != "beta" {
		t.Errorf("tags not grouped by owner and sorted by name: %+v %+v", tags[0], tags[1])
	}
}
