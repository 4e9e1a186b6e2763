package filter

import (
	"fmt"
	"regexp"

	"github.com/glefebvre/mediacatalog/internal/config"
)

// Attributes a filter can apply to
const (
	AttributeTitle            = "title"
	AttributeOriginalLanguage = "original_language"
)

// Filter represents a compiled filter
type Filter struct {
	Name            string
	Attribute       string // "title" or "original_language"
	IncludePatterns []*regexp.Regexp
	ExcludePatterns []*regexp.Regexp
}

// Manager decides which trending entries the sync job ingests
type Manager struct {
	filters      []Filter
	excludeAdult bool
}

// NewManager creates a manager that lets everything through
func NewManager() *Manager {
	return &Manager{
		filters: make([]Filter, 0),
	}
}

// LoadFromConfig compiles the ingest filters of the sync configuration
func (m *Manager) LoadFromConfig(cfg config.SyncConfig) error {
	if err := m.AddFilter(AttributeTitle, cfg.Filter.Title.IncludePatterns, cfg.Filter.Title.ExcludePatterns); err != nil {
		return fmt.Errorf("failed to load title filters: %w", err)
	}

	if err := m.AddFilter(AttributeOriginalLanguage, cfg.Filter.OriginalLanguage.IncludePatterns, cfg.Filter.OriginalLanguage.ExcludePatterns); err != nil {
		return fmt.Errorf("failed to load original language filters: %w", err)
	}

	m.excludeAdult = cfg.ExcludeAdult
	return nil
}

// SetExcludeAdult toggles rejection of adult entries
func (m *Manager) SetExcludeAdult(exclude bool) {
	m.excludeAdult = exclude
}

// Matches checks a value against every filter of an attribute
func (m *Manager) Matches(attribute, value string) bool {
	for _, filter := range m.filters {
		if filter.Attribute != attribute {
			continue
		}

		for _, excludePattern := range filter.ExcludePatterns {
			if excludePattern.MatchString(value) {
				return false
			}
		}

		// If there are include patterns, at least one must match
		if len(filter.IncludePatterns) > 0 {
			matched := false
			for _, includePattern := range filter.IncludePatterns {
				if includePattern.MatchString(value) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
	}

	return true
}

// ShouldIngest checks an entry's title, original language and adult flag
func (m *Manager) ShouldIngest(title, originalLanguage string, adult bool) bool {
	if m.excludeAdult && adult {
		return false
	}

	if !m.Matches(AttributeTitle, title) {
		return false
	}

	return m.Matches(AttributeOriginalLanguage, originalLanguage)
}

// AddFilter compiles and registers a set of patterns for an attribute
func (m *Manager) AddFilter(attribute string, includePatterns, excludePatterns []string) error {
	filter := Filter{
		Name:            fmt.Sprintf("%s_filter", attribute),
		Attribute:       attribute,
		IncludePatterns: make([]*regexp.Regexp, 0),
		ExcludePatterns: make([]*regexp.Regexp, 0),
	}

	for _, pattern := range includePatterns {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("failed to compile include pattern '%s': %w", pattern, err)
		}
		filter.IncludePatterns = append(filter.IncludePatterns, compiled)
	}

	for _, pattern := range excludePatterns {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("failed to compile exclude pattern '%s': %w", pattern, err)
		}
		filter.ExcludePatterns = append(filter.ExcludePatterns, compiled)
	}

	// Only add filter if it has patterns
	if len(filter.IncludePatterns) > 0 || len(filter.ExcludePatterns) > 0 {
		m.filters = append(m.filters, filter)
	}

	return nil
}

// ValidatePattern validates a regex pattern
func ValidatePattern(pattern string) error {
	_, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid regex pattern: %w", err)
	}
	return nil
}

// GetFilterCount returns the number of loaded filters
func (m *Manager) GetFilterCount() int {
	return len(m.filters)
}
