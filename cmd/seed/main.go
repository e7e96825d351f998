// Package main seeds a notes database with demo users, notes and tags.
//
// Tags come from the suggestion engine run over each note's text, so the
// data looks like what real clients produce. Stop the server first: the
// tag index can only be opened by one process.
//
// Usage:
//
//	DATA_PATH=~/Archipelago/data go run ./cmd/seed
//	DATA_PATH=~/Archipelago/data go run ./cmd/seed --users 5 --link-tags
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/archipelago/notes-api/internal/auth"
	"github.com/archipelago/notes-api/internal/cache"
	"github.com/archipelago/notes-api/internal/config"
	domainerrors "github.com/archipelago/notes-api/internal/errors"
	"github.com/archipelago/notes-api/internal/search"
	"github.com/archipelago/notes-api/internal/service"
	"github.com/archipelago/notes-api/internal/store/sqlite"
	"github.com/archipelago/notes-api/internal/suggest"
)

var (
	userCount = flag.Int("users", 2, "Number of demo users to create")
	tagsPer   = flag.Int("tags", 3, "Suggested tags per note")
	linkTags  = flag.Bool("link-tags", false, "Link the first two tags of every note to each other")
)

const demoPassword = "demo-password"

var demoNotes = []struct {
	title string
	text  string
}{
	{"Sourdough starter", "Feed the sourdough starter twice a day with flour and water. A lively starter doubles in four hours and smells sour."},
	{"Trip to Lisbon", "Lisbon itinerary: trams to Alfama, pasteis in Belem, sunset at the miradouro. Book the trams and the museum early."},
	{"Go concurrency notes", "Goroutines are cheap. Channels connect goroutines. Select waits on several channels; context cancels goroutines."},
	{"Garden plan", "Tomatoes and basil along the south fence, beans on the trellis, garlic planted in autumn before the frost."},
	{"Reading list", "Novels for the winter: a long Russian novel, a short Japanese novel and a history of the printing press."},
}

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Printf("Seeding data path: %s\n", cfg.Storage.DataPath)

	quiet := slog.New(slog.DiscardHandler)

	st, err := sqlite.Open(cfg.Storage.DatabasePath(), quiet)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	index, _, err := search.NewTagIndex(search.Options{DataPath: cfg.Storage.IndexPath(), Logger: quiet})
	if err != nil {
		log.Fatalf("Failed to open tag index (is the server running?): %v", err)
	}
	defer index.Close()

	key, err := auth.LoadOrGenerateKey(cfg.Storage.DataPath)
	if err != nil {
		log.Fatalf("Failed to load auth key: %v", err)
	}
	tokens, err := auth.NewTokenService(key, cfg.Auth.AccessTokenDuration)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	engine, err := suggest.NewEngine(suggest.Config{DefaultTags: *tagsPer, MaxTags: cfg.Suggest.MaxTags})
	if err != nil {
		log.Fatalf("Failed to create suggestion engine: %v", err)
	}

	searchSvc := service.NewSearchService(index, st, quiet)
	tags := service.NewTagService(st, searchSvc, cfg.Tags, quiet)
	defer tags.WaitForIndexing()

	s := &seeder{
		auth:    service.NewAuthService(st, tokens, auth.NewPasswordHasher(), quiet),
		notes:   service.NewNoteService(st, quiet),
		tags:    tags,
		suggest: service.NewSuggestService(engine, cache.Noop{}, quiet),
	}

	ctx := context.Background()
	for n := 1; n <= *userCount; n++ {
		if err := s.seedUser(ctx, fmt.Sprintf("demo%d@example.com", n)); err != nil {
			log.Printf("Failed to seed user %d: %v", n, err)
		}
	}

	fmt.Printf("\nDone. Demo users sign in with password %q\n", demoPassword)
}

type seeder struct {
	auth    *service.AuthService
	notes   *service.NoteService
	tags    *service.TagService
	suggest *service.SuggestService
}

func (s *seeder) seedUser(ctx context.Context, email string) error {
	resp, err := s.auth.Register(ctx, service.RegisterRequest{
		Email:    email,
		Password: demoPassword,
		Name:     "Demo User",
	})
	if errors.Is(err, domainerrors.ErrAlreadyExists) {
		fmt.Printf("Skipping %s: already registered\n", email)
		return nil
	}
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	userID := resp.User.ID
	fmt.Printf("\nSeeding %s (%s)\n", email, userID)

	for _, demo := range demoNotes {
		note, err := s.notes.CreateNote(ctx, userID, service.CreateNoteRequest{Title: demo.title})
		if err != nil {
			return fmt.Errorf("create note %q: %w", demo.title, err)
		}

		names, err := s.suggest.Suggest(ctx, service.SuggestRequest{Text: demo.text, TagsNum: tagsPer})
		if err != nil {
			return fmt.Errorf("suggest for %q: %w", demo.title, err)
		}

		var tagIDs []string
		for _, name := range names {
			tag, err := s.tags.CreateTag(ctx, userID, service.CreateTagRequest{Name: name, NoteID: note.ID})
			if err != nil {
				log.Printf("  tag %q on %q: %v", name, demo.title, err)
				continue
			}
			tagIDs = append(tagIDs, tag.ID)
		}
		fmt.Printf("  %-22s %v\n", demo.title, names)

		if *linkTags && len(tagIDs) >= 2 {
			err := s.tags.LinkTags(ctx, userID, service.TagPairRequest{Tag1ID: tagIDs[0], Tag2ID: tagIDs[1]})
			if err != nil && !errors.Is(err, domainerrors.ErrConflict) {
				log.Printf("  link tags on %q: %v", demo.title, err)
			}
		}
	}

	return nil
}
