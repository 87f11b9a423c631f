package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Model is the unified, format-agnostic representation of the application
// configuration.
type Model struct {
	Generation   Generation
	Canvas       Canvas
	Collaborator Collaborator
	// Publisher is nil when no renderer should be pushed to.
	Publisher *Publisher
}

// Generation shapes the trees requested on full regeneration.
type Generation struct {
	MaxTurns int `validate:"min=3,max=8"`
	Branches int `validate:"min=2,max=5"`
	Goals    int `validate:"min=1,max=4"`
}

// Canvas is the drawing area the layout spreads nodes over.
type Canvas struct {
	Width  float64 `validate:"gt=0"`
	Height float64 `validate:"gt=0"`
}

// Collaborator configures the chat completions client.
type Collaborator struct {
	Model            string        `validate:"required"`
	APIKey           string        `validate:"-"`
	BaseURL          string        `validate:"omitempty,url"`
	Timeout          time.Duration `validate:"gt=0"`
	Temperature      float64       `validate:"gte=0,lte=2"`
	FailureThreshold int           `validate:"gte=0"`
	CoolDown         time.Duration `validate:"gte=0"`
}

// Publisher configures the socket.io renderer connection.
type Publisher struct {
	URL       string `validate:"required,url"`
	Namespace string `validate:"required,startswith=/"`
	Event     string `validate:"required"`
}

// Default returns the configuration used when nothing is specified.
func Default() *Model {
	return &Model{
		Generation: Generation{MaxTurns: 5, Branches: 3, Goals: 2},
		Canvas:     Canvas{Width: 1200, Height: 800},
		Collaborator: Collaborator{
			Model:            "gpt-4o-mini",
			Timeout:          60 * time.Second,
			Temperature:      0.7,
			FailureThreshold: 3,
			CoolDown:         30 * time.Second,
		},
	}
}

// DefaultPublisher returns publisher settings for fields left unset.
func DefaultPublisher() Publisher {
	return Publisher{URL: "http://localhost:3000", Namespace: "/", Event: "graph"}
}

var validate = validator.New()

// Validate checks m against its field constraints.
func Validate(m *Model) error {
	if m == nil {
		return errors.New("config: nil model")
	}
	if err := validate.Struct(m); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Model.")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", field, e.Param(), e.Value())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s, got %v", field, e.Param(), e.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", field, e.Param(), e.Value())
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", field, e.Value())
	case "startswith":
		return fmt.Sprintf("%s must start with %q", field, e.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}
