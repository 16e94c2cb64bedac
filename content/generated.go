package content

import (
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Feature is a generated title/description pair.
type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ParseFeature splits generated feature text: the first line is the title and
// the rest is the description.
func ParseFeature(text string) Feature {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return Feature{Title: "Feature", Description: text}
	}
	return Feature{
		Title:       strings.TrimSpace(lines[0]),
		Description: strings.TrimSpace(strings.Join(lines[1:], "\n")),
	}
}

// Slot is one piece of generated content, either plain text or a feature.
type Slot struct {
	Text    string
	Feature *Feature
}

// TextSlot wraps plain text.
func TextSlot(text string) Slot { return Slot{Text: text} }

// FeatureSlot wraps a feature pair.
func FeatureSlot(f Feature) Slot { return Slot{Feature: &f} }

// IsFeature reports whether the slot holds a feature pair.
func (s Slot) IsFeature() bool { return s.Feature != nil }

func (s Slot) MarshalJSON() ([]byte, error) {
	if s.Feature != nil {
		return json.Marshal(s.Feature)
	}
	return json.Marshal(s.Text)
}

func (s *Slot) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = Slot{Text: text}
		return nil
	}
	var f Feature
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("slot must be a string or a title/description object: %w", err)
	}
	*s = Slot{Feature: &f}
	return nil
}

// Generated is the ordered set of generated slots for one page.
type Generated struct {
	slots *orderedmap.OrderedMap[string, Slot]
}

// NewGenerated returns an empty slot set.
func NewGenerated() *Generated {
	return &Generated{slots: orderedmap.New[string, Slot]()}
}

// Set stores a slot, keeping the position of an existing key.
func (g *Generated) Set(key string, s Slot) *Generated {
	g.init()
	g.slots.Set(key, s)
	return g
}

// SetText stores a plain text slot.
func (g *Generated) SetText(key, text string) *Generated {
	return g.Set(key, TextSlot(text))
}

// Get returns the slot stored under key.
func (g *Generated) Get(key string) (Slot, bool) {
	if g == nil || g.slots == nil {
		return Slot{}, false
	}
	return g.slots.Get(key)
}

// Len is the number of slots.
func (g *Generated) Len() int {
	if g == nil || g.slots == nil {
		return 0
	}
	return g.slots.Len()
}

// Keys lists slot names in insertion order.
func (g *Generated) Keys() []string {
	keys := make([]string, 0, g.Len())
	g.Each(func(key string, _ Slot) {
		keys = append(keys, key)
	})
	return keys
}

// Each calls fn for every slot in insertion order.
func (g *Generated) Each(fn func(key string, s Slot)) {
	if g == nil || g.slots == nil {
		return
	}
	for pair := g.slots.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

func (g *Generated) init() {
	if g.slots == nil {
		g.slots = orderedmap.New[string, Slot]()
	}
}

func (g *Generated) MarshalJSON() ([]byte, error) {
	g.init()
	return json.Marshal(g.slots)
}

func (g *Generated) UnmarshalJSON(data []byte) error {
	slots := orderedmap.New[string, Slot]()
	if err := json.Unmarshal(data, slots); err != nil {
		return err
	}
	g.slots = slots
	return nil
}
