// Package suggest derives tag suggestions from free text.
//
// The engine is deterministic and stateless: it tokenizes the text with a
// Bleve analyzer, ranks the surviving words by frequency and position and
// returns the top ones as tags.
package suggest

import (
	"errors"
	"sort"
	"strings"
)

// FallbackTag is returned when the text yields no usable word at all.
const FallbackTag = "note"

// Errors returned by Suggest.
var (
	ErrEmptyText    = errors.New("text is empty")
	ErrInvalidCount = errors.New("tags count must be at least 1")
)

// Config bounds the number of suggestions.
type Config struct {
	DefaultTags int // used when the caller does not ask for a count
	MaxTags     int // larger requests are clamped to this
}

// Engine produces tag suggestions.
type Engine struct {
	cfg       Config
	analyzers *analyzers
}

// NewEngine builds an engine. Zero config values fall back to 5 and 100.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.MaxTags < 1 {
		cfg.MaxTags = 100
	}
	if cfg.DefaultTags < 1 {
		cfg.DefaultTags = 5
	}
	cfg.DefaultTags = min(cfg.DefaultTags, cfg.MaxTags)

	a, err := newAnalyzers()
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, analyzers: a}, nil
}

// DefaultTags returns the count used when none is requested.
func (e *Engine) DefaultTags() int { return e.cfg.DefaultTags }

// ResolveCount applies the default and the upper clamp to a requested count.
// A nil request means the default.
func (e *Engine) ResolveCount(requested *int) (int, error) {
	if requested == nil {
		return e.cfg.DefaultTags, nil
	}
	if *requested < 1 {
		return 0, ErrInvalidCount
	}
	return min(*requested, e.cfg.MaxTags), nil
}

// candidate is a distinct cleaned word with its ranking data.
type candidate struct {
	tag   string
	freq  int
	first int
}

// Suggest returns between 1 and count tags for text.
// count must already be resolved (see ResolveCount).
func (e *Engine) Suggest(text string, count int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if count < 1 {
		return nil, ErrInvalidCount
	}
	count = min(count, e.cfg.MaxTags)

	input := []byte(text)
	tags := rank(e.collect(input, true), count)

	// Pad with stop words and short tokens before giving up.
	if len(tags) < count {
		seen := make(map[string]struct{}, len(tags))
		for _, t := range tags {
			seen[t] = struct{}{}
		}
		for _, t := range rank(e.collect(input, false), count) {
			if len(tags) == count {
				break
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}

	if len(tags) == 0 {
		tags = append(tags, FallbackTag)
	}
	return tags, nil
}

// collect tokenizes input. With keywords set it uses the stop-word analyzer
// and keeps only keyword-quality tokens; otherwise it accepts any non-empty
// cleaned token.
func (e *Engine) collect(input []byte, keywords bool) map[string]*candidate {
	analyzer := e.analyzers.raw
	if keywords {
		analyzer = e.analyzers.keywords
	}

	found := make(map[string]*candidate)
	for i, tok := range analyzer.Analyze(input) {
		tag := cleanToken(string(tok.Term))
		if tag == "" || (keywords && !isKeyword(tag)) {
			continue
		}
		if c, ok := found[tag]; ok {
			c.freq++
			continue
		}
		found[tag] = &candidate{tag: tag, freq: 1, first: i}
	}
	return found
}

// rank orders candidates by frequency, then first occurrence, and returns
// at most n tags.
func rank(found map[string]*candidate, n int) []string {
	list := make([]*candidate, 0, len(found))
	for _, c := range found {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].freq != list[j].freq {
			return list[i].freq > list[j].freq
		}
		return list[i].first < list[j].first
	})

	out := make([]string, 0, min(n, len(list)))
	for _, c := range list[:min(n, len(list))] {
		out = append(out, c.tag)
	}
	return out
}
