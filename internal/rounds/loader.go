package rounds

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/interview-coach/internal/models"
)

// roundsFile is the YAML layout of a rounds override file
type roundsFile struct {
	Rounds map[string]roundOverride `yaml:"rounds"`
}

type roundOverride struct {
	Title     string   `yaml:"title"`
	Welcome   string   `yaml:"welcome"`
	Minutes   int      `yaml:"minutes"`
	Actions   []string `yaml:"actions"`
	ShowCode  *bool    `yaml:"show_code"`
	Languages []string `yaml:"languages"`
}

// LoadFile returns the default table with the overrides from a YAML file
// applied. An empty path yields the default table.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rounds file: %w", err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("round configuration loaded", "file", path)
	return t, nil
}

// Parse applies YAML overrides to the default table
func Parse(data []byte) (*Table, error) {
	var f roundsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	t := Default()
	for name, o := range f.Rounds {
		r, err := models.ParseRoundType(name)
		if err != nil {
			return nil, fmt.Errorf("round %q: %w", name, err)
		}
		if err := o.apply(t.rounds[r]); err != nil {
			return nil, fmt.Errorf("round %q: %w", name, err)
		}
	}
	return t, nil
}

func (o roundOverride) apply(c *Config) error {
	if o.Title != "" {
		c.Title = o.Title
	}
	if o.Welcome != "" {
		c.Welcome = o.Welcome
	}
	if o.Minutes < 0 {
		return fmt.Errorf("minutes must be positive, got %d", o.Minutes)
	}
	if o.Minutes > 0 {
		c.Duration = time.Duration(o.Minutes) * time.Minute
	}
	if o.ShowCode != nil {
		c.ShowCode = *o.ShowCode
	}
	if len(o.Languages) > 0 {
		c.Languages = o.Languages
	}

	if len(o.Actions) > 0 {
		actions := make([]models.Action, 0, len(o.Actions))
		for _, label := range o.Actions {
			a := models.ParseAction(label)
			if a == models.ActionUnknown {
				return fmt.Errorf("unknown action %q", label)
			}
			actions = append(actions, a)
		}
		c.Actions = actions
	}
	return nil
}
