// Package questions holds the ordered evaluation question sets, one per analysis category.
package questions

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownSet = errors.New("unknown question set")
	ErrInvalidSet = errors.New("invalid question set")
)

// Set is an ordered, immutable list of questions. The position of a question is its key.
type Set struct {
	name      string
	questions []string
}

// New validates and builds a Set. The input slice is copied.
func New(name string, questions []string) (Set, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Set{}, fmt.Errorf("%w: name is required", ErrInvalidSet)
	}
	if len(questions) == 0 {
		return Set{}, fmt.Errorf("%w: %s has no questions", ErrInvalidSet, name)
	}
	out := make([]string, 0, len(questions))
	for i, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			return Set{}, fmt.Errorf("%w: %s question %d is blank", ErrInvalidSet, name, i)
		}
		out = append(out, q)
	}
	return Set{name: name, questions: out}, nil
}

// MustNew is New for package-level literals.
func MustNew(name string, questions []string) Set {
	s, err := New(name, questions)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Set) Name() string { return s.name }

func (s Set) Len() int { return len(s.questions) }

// Question returns the question at index i.
func (s Set) Question(i int) string {
	if i < 0 || i >= len(s.questions) {
		return ""
	}
	return s.questions[i]
}

// Questions returns a copy of the ordered questions.
func (s Set) Questions() []string {
	out := make([]string, len(s.questions))
	copy(out, s.questions)
	return out
}

// Key is the stringified index used as the result key for question i.
func Key(i int) string {
	return strconv.Itoa(i)
}

// Keys returns every key of the set in order.
func (s Set) Keys() []string {
	keys := make([]string, len(s.questions))
	for i := range s.questions {
		keys[i] = Key(i)
	}
	return keys
}

// Registry maps analysis types to question sets. Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	sets map[string]Set
}

// NewRegistry returns a registry seeded with the built-in categories.
func NewRegistry() *Registry {
	r := &Registry{sets: make(map[string]Set)}
	for _, s := range builtin() {
		r.sets[s.Name()] = s
	}
	return r
}

// Get returns the set registered for the analysis type.
func (r *Registry) Get(analysisType string) (Set, error) {
	key := normalizeName(analysisType)
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sets[key]
	if !ok {
		return Set{}, fmt.Errorf("%w: %q", ErrUnknownSet, analysisType)
	}
	return s, nil
}

// Register adds or replaces a set.
func (r *Registry) Register(s Set) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[normalizeName(s.Name())] = s
}

// Names returns the registered analysis types sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type fileSchema struct {
	Sets []struct {
		Name      string   `yaml:"name"`
		Questions []string `yaml:"questions"`
	} `yaml:"sets"`
}

// LoadFile reads question sets from a YAML file and registers them, replacing built-ins
// with the same name. Nothing is registered when any set is invalid.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read question sets %s: %w", path, err)
	}
	return r.Load(data)
}

// Load parses YAML question sets from memory.
func (r *Registry) Load(data []byte) error {
	var doc fileSchema
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse question sets: %w", err)
	}
	parsed := make([]Set, 0, len(doc.Sets))
	for _, raw := range doc.Sets {
		s, err := New(normalizeName(raw.Name), raw.Questions)
		if err != nil {
			return err
		}
		parsed = append(parsed, s)
	}
	for _, s := range parsed {
		r.Register(s)
	}
	return nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
