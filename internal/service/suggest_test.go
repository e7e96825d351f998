package service

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archipelago/notes-api/internal/cache"
	domainerrors "github.com/archipelago/notes-api/internal/errors"
	"github.com/archipelago/notes-api/internal/suggest"
)

type countingCache struct {
	entries map[string][]string
	gets    int
	puts    int
}

func newCountingCache() *countingCache {
	return &countingCache{entries: make(map[string][]string)}
}

func cacheKey(text string, count int) string {
	return strings.Repeat("#", count) + text
}

func (c *countingCache) Get(_ context.Context, text string, count int) ([]string, bool) {
	c.gets++
	tags, ok := c.entries[cacheKey(text, count)]
	return tags, ok
}

func (c *countingCache) Put(_ context.Context, text string, count int, tags []string) error {
	c.puts++
	c.entries[cacheKey(text, count)] = tags
	return nil
}

func (c *countingCache) Close() error { return nil }

func newSuggestService(t *testing.T, c cache.SuggestionCache) *SuggestService {
	t.Helper()
	engine, err := suggest.NewEngine(suggest.Config{DefaultTags: 3, MaxTags: 10})
	require.NoError(t, err)
	return NewSuggestService(engine, c, slog.New(slog.DiscardHandler))
}

func intPtr(n int) *int { return &n }

func TestSuggestService_Suggest(t *testing.T) {
	svc := newSuggestService(t, nil)

	tags, err := svc.Suggest(context.Background(), SuggestRequest{
		Text: "Kubernetes deployment notes: kubernetes pods, kubernetes services and deployment rollbacks",
	})
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "kubernetes", tags[0])
	assert.Equal(t, "deployment", tags[1])
}

func TestSuggestService_ClampsAndDefaults(t *testing.T) {
	svc := newSuggestService(t, nil)
	text := "one two three four five six seven eight nine ten eleven twelve thirteen"

	tags, err := svc.Suggest(context.Background(), SuggestRequest{Text: text, TagsNum: intPtr(50)})
	require.NoError(t, err)
	assert.Len(t, tags, 10)

	tags, err = svc.Suggest(context.Background(), SuggestRequest{Text: text, TagsNum: intPtr(2)})
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestSuggestService_Errors(t *testing.T) {
	svc := newSuggestService(t, nil)

	tests := []struct {
		name string
		req  SuggestRequest
	}{
		{"empty text", SuggestRequest{}},
		{"whitespace text", SuggestRequest{Text: " \n\t "}},
		{"zero count", SuggestRequest{Text: "hello world", TagsNum: intPtr(0)}},
		{"negative count", SuggestRequest{Text: "hello world", TagsNum: intPtr(-3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Suggest(context.Background(), tt.req)
			assertCode(t, err, domainerrors.CodeValidation)
		})
	}
}

func TestSuggestService_AlwaysReturnsATag(t *testing.T) {
	svc := newSuggestService(t, nil)

	tags, err := svc.Suggest(context.Background(), SuggestRequest{Text: "!!! ??? 🎉"})
	require.NoError(t, err)
	assert.Equal(t, []string{suggest.FallbackTag}, tags)
}

func TestSuggestService_UsesCache(t *testing.T) {
	c := newCountingCache()
	svc := newSuggestService(t, c)
	req := SuggestRequest{Text: "cached words cached words", TagsNum: intPtr(2)}

	first, err := svc.Suggest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, c.puts)

	second, err := svc.Suggest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.puts, "a cache hit must not store again")
	assert.Equal(t, 2, c.gets)
}
