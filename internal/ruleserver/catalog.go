package ruleserver

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/remindr/internal/reminder"
	"github.com/mark3labs/remindr/internal/rules"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ChannelRules are the constraints of a channel plus its per-message cost.
type ChannelRules struct {
	reminder.Constraints `yaml:",inline"`
	UnitCost             float64 `yaml:"unit_cost"`
}

// CatalogTemplate is a catalog entry as stored on disk.
type CatalogTemplate struct {
	ID       string           `yaml:"id"`
	Name     string           `yaml:"name"`
	Channel  reminder.Channel `yaml:"channel"`
	LevelMin reminder.Level   `yaml:"level_min"`
	LevelMax reminder.Level   `yaml:"level_max"`
	Subject  string           `yaml:"subject"`
	Body     string           `yaml:"body"`
}

// Catalog holds the channel rules and templates served by the rule service.
type Catalog struct {
	Channels  map[reminder.Channel]*ChannelRules `yaml:"channels"`
	Templates []CatalogTemplate                  `yaml:"templates"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	cat, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
	return cat
}

// LoadCatalog reads a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and checks a YAML catalog. Template IDs default to
// the slug of their name.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	for ch, r := range cat.Channels {
		if !ch.Valid() {
			return nil, fmt.Errorf("catalog: %w: %q", reminder.ErrUnknownChannel, ch)
		}
		r.Channel = ch
		if r.Subject == "" {
			r.Subject = reminder.SubjectNotApplicable
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: channel %s: %w", ch, err)
		}
	}

	seen := make(map[string]bool, len(cat.Templates))
	for i := range cat.Templates {
		t := &cat.Templates[i]
		if t.ID == "" {
			t.ID = slug.Make(t.Name)
		}
		if t.ID == "" {
			return nil, fmt.Errorf("catalog: template %d has neither id nor name", i)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("catalog: duplicate template id %q", t.ID)
		}
		seen[t.ID] = true
		if _, ok := cat.Channels[t.Channel]; !ok {
			return nil, fmt.Errorf("catalog: template %s: no rules for channel %q", t.ID, t.Channel)
		}
		if !t.LevelMin.Valid() || !t.LevelMax.Valid() || t.LevelMin > t.LevelMax {
			return nil, fmt.Errorf("catalog: template %s: invalid level range %d-%d", t.ID, t.LevelMin, t.LevelMax)
		}
	}

	return &cat, nil
}

// Rules returns the rules of channel, or nil when the channel is unknown.
func (c *Catalog) Rules(channel reminder.Channel) *ChannelRules {
	return c.Channels[channel]
}

// Lookup filters the catalog for (channel, level). With validate set, every
// template carries its conformance data and the result is ordered by score,
// best first; otherwise catalog order is kept.
func (c *Catalog) Lookup(channel reminder.Channel, level reminder.Level, validate bool) []reminder.Template {
	rulesFor := c.Rules(channel)
	out := []reminder.Template{}
	for _, ct := range c.Templates {
		if ct.Channel != channel || level < ct.LevelMin || level > ct.LevelMax {
			continue
		}
		t := reminder.Template{
			ID:       ct.ID,
			Name:     ct.Name,
			Subject:  ct.Subject,
			Body:     ct.Body,
			LevelMin: ct.LevelMin,
			LevelMax: ct.LevelMax,
		}
		if validate && rulesFor != nil {
			res := rules.Check(&rulesFor.Constraints, ct.Subject, ct.Body)
			score := res.Score
			t.Status = res.Status
			t.Warnings = res.Issues()
			t.Score = &score
		}
		t.Normalize()
		out = append(out, t)
	}

	if validate && rulesFor != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return *out[i].Score > *out[j].Score
		})
	}
	return out
}
