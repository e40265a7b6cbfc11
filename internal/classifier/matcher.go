package classifier

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"

	"github.com/amishk599/jobradar/internal/model"
)

// Strategy names accepted by NewMatcher.
const (
	StrategySubstring = "substring"
	StrategyTrie      = "trie"
)

// Matcher maps a job title to a profession name. The first configured
// profession with a matching keyword wins.
type Matcher interface {
	Match(title string) (string, bool)
}

// NewMatcher builds the matcher for strategy over professions in configured order.
func NewMatcher(strategy string, professions []model.Profession) (Matcher, error) {
	switch strategy {
	case "", StrategySubstring:
		return NewKeywordMatcher(professions), nil
	case StrategyTrie:
		return NewTrieMatcher(professions), nil
	default:
		return nil, fmt.Errorf("unknown classifier strategy %q", strategy)
	}
}

type compiledProfession struct {
	name     string
	keywords []string
}

// KeywordMatcher checks each profession's keywords as case-insensitive
// substrings of the title. It is not word-bounded: "go" matches "Good".
type KeywordMatcher struct {
	professions []compiledProfession
}

func NewKeywordMatcher(professions []model.Profession) *KeywordMatcher {
	m := &KeywordMatcher{professions: make([]compiledProfession, 0, len(professions))}
	for _, p := range professions {
		cp := compiledProfession{name: p.Name}
		for _, kw := range p.Keywords {
			if n := normalize(kw); n != "" {
				cp.keywords = append(cp.keywords, n)
			}
		}
		m.professions = append(m.professions, cp)
	}
	return m
}

func (m *KeywordMatcher) Match(title string) (string, bool) {
	t := normalize(title)
	for _, p := range m.professions {
		for _, kw := range p.keywords {
			if strings.Contains(t, kw) {
				return p.name, true
			}
		}
	}
	return "", false
}

// TrieMatcher finds every keyword in one pass over the title with an
// Aho-Corasick automaton, then picks the earliest configured profession among
// the hits. Results equal KeywordMatcher's.
type TrieMatcher struct {
	// ahocorasick.Matcher keeps per-call counters in the automaton.
	mu      sync.Mutex
	matcher *ahocorasick.Matcher
	owner   []int // keyword index -> lowest profession index using it
	names   []string
}

func NewTrieMatcher(professions []model.Profession) *TrieMatcher {
	m := &TrieMatcher{names: make([]string, len(professions))}
	index := make(map[string]int)
	var keywords []string

	for i, p := range professions {
		m.names[i] = p.Name
		for _, kw := range p.Keywords {
			n := normalize(kw)
			if n == "" {
				continue
			}
			if _, ok := index[n]; ok {
				continue
			}
			index[n] = len(keywords)
			keywords = append(keywords, n)
			m.owner = append(m.owner, i)
		}
	}

	if len(keywords) > 0 {
		m.matcher = ahocorasick.NewStringMatcher(keywords)
	}
	return m
}

func (m *TrieMatcher) Match(title string) (string, bool) {
	if m.matcher == nil {
		return "", false
	}

	m.mu.Lock()
	hits := m.matcher.Match([]byte(normalize(title)))
	m.mu.Unlock()

	best := -1
	for _, h := range hits {
		if h < 0 || h >= len(m.owner) {
			continue
		}
		if p := m.owner[h]; best == -1 || p < best {
			best = p
		}
	}
	if best == -1 {
		return "", false
	}
	return m.names[best], true
}
