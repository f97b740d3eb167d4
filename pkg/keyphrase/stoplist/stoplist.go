package stoplist

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed russian.yaml
var russianYAML []byte

// Manager holds the stopword set consulted during normalization.
// It is safe for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	stops map[string]struct{}
}

// NewManager creates a manager seeded with the given stopwords.
// Words are lowercased; an empty list is valid.
func NewManager(initialStops []string) *Manager {
	m := &Manager{stops: make(map[string]struct{}, len(initialStops))}
	for _, s := range initialStops {
		m.addLocked(s)
	}
	return m
}

// Russian returns a manager seeded with the bundled Russian stopword list.
func Russian() *Manager {
	terms, err := parse(russianYAML)
	if err != nil {
		// The bundled list is compiled in; a parse failure is a build defect.
		panic(fmt.Sprintf("stoplist: bundled list: %v", err))
	}
	return NewManager(terms)
}

// Load reads a stopword list from a YAML file of the form
//
//	terms: [и, в, не]
func Load(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	terms, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("stoplist %s: %w", path, err)
	}
	return NewManager(terms), nil
}

func parse(data []byte) ([]string, error) {
	var sl struct {
		Terms []string `yaml:"terms"`
	}
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}
	return sl.Terms, nil
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.stops[token]
	return ok
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addLocked(token)
}

func (m *Manager) addLocked(token string) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token != "" {
		m.stops[token] = struct{}{}
	}
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stops, strings.ToLower(token))
}

// Merge adds every stopword of other to m.
func (m *Manager) Merge(other *Manager) {
	if other == nil {
		return
	}
	for _, s := range other.All() {
		m.Add(s)
	}
}

// All returns all stopwords, sorted.
func (m *Manager) All() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Len returns the number of stopwords.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stops)
}
