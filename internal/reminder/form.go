package reminder

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Form is the host form the wizard collaborates with. It is read once when
// the wizard starts and written back when the user hands off.
type Form struct {
	Channel     Channel `yaml:"channel,omitempty"`
	Level       Level   `yaml:"level,omitempty"`
	TemplateID  string  `yaml:"template_id,omitempty"`
	Subject     string  `yaml:"subject,omitempty"`
	Content     string  `yaml:"content,omitempty"`
	SubjectID   string  `yaml:"subject_id,omitempty"`
	DaysOverdue int     `yaml:"days_overdue,omitempty"`
	Recipients  int     `yaml:"recipients,omitempty"`
}

// Validate normalizes the seeded values and rejects ones the wizard cannot
// represent.
func (f *Form) Validate() error {
	if f.Channel != ChannelNone {
		c, err := ParseChannel(string(f.Channel))
		if err != nil {
			return err
		}
		f.Channel = c
	}
	if f.Level != 0 && !f.Level.Valid() {
		return fmt.Errorf("level %d out of range %d-%d", f.Level, MinLevel, MaxLevel)
	}
	if f.DaysOverdue < 0 {
		return fmt.Errorf("days_overdue must be >= 0")
	}
	if f.Recipients < 0 {
		return fmt.Errorf("recipients must be >= 0")
	}
	return nil
}

// LoadForm reads a host form from path. A missing file yields an empty form.
func LoadForm(path string) (*Form, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Form{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading form: %w", err)
	}

	var f Form
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing form: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid form %s: %w", path, err)
	}
	return &f, nil
}

// Save writes the form to path.
func (f *Form) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling form: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing form: %w", err)
	}
	return nil
}
