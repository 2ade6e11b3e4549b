// Package subject defines the closed set of homework subjects, their static
// prompt table and the model tier each one routes to.
package subject

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Subject identifies one of the fixed homework categories.
type Subject string

// The closed set of subjects.
const (
	General    Subject = "general"
	Maths      Subject = "maths"
	Sciences   Subject = "sciences"
	History    Subject = "history"
	Literature Subject = "literature"
	Code       Subject = "code"
)

// Default is the subject of a freshly created session.
const Default = General

// Tier is the model capability class a subject is routed to.
type Tier int

// Model tiers.
const (
	TierLight Tier = iota
	TierHeavy
)

func (t Tier) String() string {
	if t == TierHeavy {
		return "heavy"
	}
	return "light"
}

// Info is the static configuration of a subject.
type Info struct {
	ID           string `toml:"id"`
	Name         string `toml:"name"`
	Icon         string `toml:"icon"`
	Description  string `toml:"description"`
	SystemPrompt string `toml:"system_prompt"`
}

//go:embed subjects.toml
var tableData string

var (
	order = []Subject{General, Maths, Sciences, History, Literature, Code}
	table map[Subject]Info
)

func init() {
	t, err := parseTable(tableData)
	if err != nil {
		panic(err)
	}
	table = t
}

func parseTable(data string) (map[Subject]Info, error) {
	var doc struct {
		Subject []Info `toml:"subject"`
	}
	if _, err := toml.Decode(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding subject table: %w", err)
	}

	t := make(map[Subject]Info, len(doc.Subject))
	for _, info := range doc.Subject {
		t[Subject(info.ID)] = info
	}
	for _, s := range order {
		info, ok := t[s]
		if !ok {
			return nil, fmt.Errorf("subject table: missing %q", s)
		}
		if info.Name == "" || info.SystemPrompt == "" {
			return nil, fmt.Errorf("subject table: %q needs a name and a system prompt", s)
		}
	}
	if len(t) != len(order) {
		return nil, fmt.Errorf("subject table: %d entries, want %d", len(t), len(order))
	}
	return t, nil
}

// All returns every subject in display order.
func All() []Subject {
	out := make([]Subject, len(order))
	copy(out, order)
	return out
}

// Valid reports whether s belongs to the closed set.
func (s Subject) Valid() bool {
	_, ok := table[s]
	return ok
}

// Info returns the static configuration of s. Unknown subjects get the
// general entry.
func (s Subject) Info() Info {
	if info, ok := table[s]; ok {
		return info
	}
	return table[General]
}

// Name returns the French display name.
func (s Subject) Name() string { return s.Info().Name }

// SystemPrompt returns the instruction sent once per request.
func (s Subject) SystemPrompt() string { return s.Info().SystemPrompt }

// Description returns the one-line description shown in pickers.
func (s Subject) Description() string { return s.Info().Description }

// Tier routes quantitative, scientific and programming subjects to the
// heavier model. It depends on nothing but s.
func (s Subject) Tier() Tier {
	switch s {
	case Maths, Sciences, Code:
		return TierHeavy
	default:
		return TierLight
	}
}

// Next returns the subject after s in display order, wrapping around.
func (s Subject) Next() Subject {
	for i, cur := range order {
		if cur == s {
			return order[(i+1)%len(order)]
		}
	}
	return Default
}

// Parse accepts a subject id or its display name, ignoring case.
func Parse(v string) (Subject, error) {
	v = strings.TrimSpace(v)
	for _, s := range order {
		if strings.EqualFold(v, string(s)) || strings.EqualFold(v, table[s].Name) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown subject %q", v)
}

// MarshalText encodes a subject as its display name, the form used in the
// stored session collection.
func (s Subject) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown subject %q", string(s))
	}
	return []byte(table[s].Name), nil
}

// UnmarshalText accepts either the display name or the id.
func (s *Subject) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
