// Package security scrubs personally identifying details from user
// questions before they leave the process. A medical chat invites text
// like "my email is ..." or "patient SSN ..."; the model never needs it.
package security

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"medoryx/internal/config"
)

const maxMappings = 1000

// Sanitizer replaces PII in outbound text with placeholders and restores
// them in replies.
type Sanitizer struct {
	mu       sync.RWMutex
	filters  []piiFilter
	mappings map[string]string // placeholder -> original value
	counter  map[string]int
	enabled  bool
}

type piiFilter struct {
	pattern *regexp.Regexp
	prefix  string
}

var knownFilters = []struct {
	name    string
	pattern string
	prefix  string
}{
	{"email", `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, "EMAIL"},
	{"phone", `(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`, "PHONE"},
	{"ssn", `\b\d{3}-\d{2}-\d{4}\b`, "SSN"},
}

// NewSanitizer creates a PII sanitizer from config.
func NewSanitizer(cfg config.PIIFilterConfig) *Sanitizer {
	s := &Sanitizer{
		mappings: make(map[string]string),
		counter:  make(map[string]int),
		enabled:  cfg.Enabled,
	}

	enabled := map[string]bool{
		"email": cfg.FilterEmails,
		"phone": cfg.FilterPhones,
		"ssn":   cfg.FilterSSN,
	}
	for _, f := range knownFilters {
		if enabled[f.name] {
			s.filters = append(s.filters, piiFilter{
				pattern: regexp.MustCompile(f.pattern),
				prefix:  f.prefix,
			})
		}
	}
	return s
}

// Sanitize replaces PII in text with placeholders.
func (s *Sanitizer) Sanitize(text string) string {
	if !s.enabled || len(s.filters) == 0 {
		return text
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Cap mapping growth; stale placeholders just stop restoring.
	if len(s.mappings) >= maxMappings {
		s.mappings = make(map[string]string)
		s.counter = make(map[string]int)
	}

	result := text
	for _, f := range s.filters {
		result = f.pattern.ReplaceAllStringFunc(result, func(match string) string {
			for placeholder, original := range s.mappings {
				if original == match {
					return placeholder
				}
			}
			s.counter[f.prefix]++
			placeholder := fmt.Sprintf("[%s_%d]", f.prefix, s.counter[f.prefix])
			s.mappings[placeholder] = match
			return placeholder
		})
	}
	return result
}

// Restore replaces placeholders back with original values.
func (s *Sanitizer) Restore(text string) string {
	if !s.enabled {
		return text
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := text
	for placeholder, original := range s.mappings {
		result = strings.ReplaceAll(result, placeholder, original)
	}
	return result
}
