package hcl

import (
	"fmt"
	"time"

	"github.com/specialistvlad/branchtalk/internal/config"
)

// apply overlays the attributes present in root onto m.
func apply(m *config.Model, root *fileRoot) error {
	if g := root.Generation; g != nil {
		set(&m.Generation.MaxTurns, g.MaxTurns)
		set(&m.Generation.Branches, g.Branches)
		set(&m.Generation.Goals, g.Goals)
	}
	if c := root.Canvas; c != nil {
		set(&m.Canvas.Width, c.Width)
		set(&m.Canvas.Height, c.Height)
	}
	if c := root.Collaborator; c != nil {
		set(&m.Collaborator.Model, c.Model)
		set(&m.Collaborator.APIKey, c.APIKey)
		set(&m.Collaborator.BaseURL, c.BaseURL)
		set(&m.Collaborator.Temperature, c.Temperature)
		set(&m.Collaborator.FailureThreshold, c.FailureThreshold)
		if err := setDuration(&m.Collaborator.Timeout, c.Timeout, "collaborator.timeout"); err != nil {
			return err
		}
		if err := setDuration(&m.Collaborator.CoolDown, c.CoolDown, "collaborator.cool_down"); err != nil {
			return err
		}
	}
	if p := root.Publisher; p != nil {
		if m.Publisher == nil {
			def := config.DefaultPublisher()
			m.Publisher = &def
		}
		set(&m.Publisher.URL, p.URL)
		set(&m.Publisher.Namespace, p.Namespace)
		set(&m.Publisher.Event, p.Event)
	}
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string, name string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
