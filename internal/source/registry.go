package source

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry = make(map[string]Source)
	mu       sync.RWMutex
)

func Register(s Source) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[s.Name()]; exists {
		panic(fmt.Sprintf("source %s already registered", s.Name()))
	}
	registry[s.Name()] = s
}

func List() []Source {
	mu.RLock()
	defer mu.RUnlock()
	var sources []Source
	for _, s := range registry {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Name() < sources[j].Name()
	})
	return sources
}

// Resolve selects sources by a comma-separated list of dataset names. An
// empty selector returns every registered source.
func Resolve(selector string) ([]Source, error) {
	mu.RLock()
	defer mu.RUnlock()

	if selector == "" {
		return List(), nil
	}

	names := strings.Split(selector, ",")
	var selected []Source
	for _, name := range names {
		name = strings.TrimSpace(name)
		if s, ok := registry[name]; ok {
			selected = append(selected, s)
		} else {
			return nil, fmt.Errorf("source not found: %s", name)
		}
	}
	return selected, nil
}

// resetForTest clears the registry between test cases.
func resetForTest() {
	mu.Lock()
	defer mu.Unlock()
	registry = make(map[string]Source)
}
