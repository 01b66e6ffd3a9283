package models

import (
	"encoding/json"
	"strings"
)

// Section is a keyed fragment of a document body split at a level-3 heading.
// The implicit overview section has an empty Heading.
type Section struct {
	Key     string `json:"key"`
	Heading string `json:"heading,omitempty"`
	Body    string `json:"body"`
}

// Markdown renders the section on its own, heading included.
func (s Section) Markdown() string {
	if s.Heading == "" {
		return s.Body
	}
	var b strings.Builder
	b.WriteString("### ")
	b.WriteString(s.Heading)
	b.WriteString("\n")
	b.WriteString(s.Body)
	return b.String()
}

// SectionSet is an ordered key -> section map. Keys are unique.
type SectionSet struct {
	order []string
	byKey map[string]Section
}

// NewSectionSet returns an empty set.
func NewSectionSet() *SectionSet {
	return &SectionSet{byKey: make(map[string]Section)}
}

// Add appends s. It returns false and leaves the set unchanged when s.Key is already present.
func (ss *SectionSet) Add(s Section) bool {
	if _, ok := ss.byKey[s.Key]; ok {
		return false
	}
	ss.order = append(ss.order, s.Key)
	ss.byKey[s.Key] = s
	return true
}

// Has reports whether key is present.
func (ss *SectionSet) Has(key string) bool {
	if ss == nil {
		return false
	}
	_, ok := ss.byKey[key]
	return ok
}

// Get returns the section stored under key.
func (ss *SectionSet) Get(key string) (Section, bool) {
	if ss == nil {
		return Section{}, false
	}
	s, ok := ss.byKey[key]
	return s, ok
}

// First returns the first section whose key appears in keys, trying keys in order.
func (ss *SectionSet) First(keys ...string) (Section, bool) {
	for _, k := range keys {
		if s, ok := ss.Get(k); ok {
			return s, true
		}
	}
	return Section{}, false
}

// Keys returns keys in first-seen order.
func (ss *SectionSet) Keys() []string {
	if ss == nil {
		return nil
	}
	return append([]string(nil), ss.order...)
}

// All returns sections in stored order.
func (ss *SectionSet) All() []Section {
	if ss == nil {
		return nil
	}
	out := make([]Section, 0, len(ss.order))
	for _, k := range ss.order {
		out = append(out, ss.byKey[k])
	}
	return out
}

// Len returns the number of sections.
func (ss *SectionSet) Len() int {
	if ss == nil {
		return 0
	}
	return len(ss.order)
}

// MarshalJSON encodes the set as an ordered array.
func (ss *SectionSet) MarshalJSON() ([]byte, error) {
	all := ss.All()
	if all == nil {
		all = []Section{}
	}
	return json.Marshal(all)
}

// UnmarshalJSON decodes an ordered array, dropping duplicate keys.
func (ss *SectionSet) UnmarshalJSON(data []byte) error {
	var list []Section
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	ss.order = nil
	ss.byKey = make(map[string]Section, len(list))
	for _, s := range list {
		ss.Add(s)
	}
	return nil
}
