// Package config assembles the pipeline configuration from the embedded
// source registry and the environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"suomi-feed/internal/domain/entity"
)

//go:embed registry.yaml
var registryYAML []byte

// Registry is the embedded list of feed sources and relevance keywords.
type Registry struct {
	Sources  []SourceEntry `yaml:"sources" validate:"required,min=1,unique=URL,dive"`
	Keywords KeywordTiers  `yaml:"keywords"`
}

// SourceEntry is one feed descriptor as written in registry.yaml.
type SourceEntry struct {
	Name string `yaml:"name" validate:"required"`
	Lang string `yaml:"lang" validate:"required,len=2,lowercase,alpha"`
	URL  string `yaml:"url" validate:"required,http_url"`
}

// KeywordTiers holds the primary and secondary relevance keywords.
type KeywordTiers struct {
	Primary   []string `yaml:"primary" validate:"required,min=1,dive,required"`
	Secondary []string `yaml:"secondary" validate:"dive,required"`
}

// LoadRegistry parses and validates the embedded registry.
func LoadRegistry() (*Registry, error) {
	return ParseRegistry(registryYAML)
}

// ParseRegistry parses a registry document and validates it.
// Validation failures are reported as *entity.ValidationError naming the
// offending field, e.g. "Sources[3].URL".
func ParseRegistry(data []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("ParseRegistry: decode: %w", err)
	}

	if err := validator.New().Struct(&reg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, fmt.Errorf("ParseRegistry: %w", &entity.ValidationError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed on '%s'", fe.Tag()),
			})
		}
		return nil, fmt.Errorf("ParseRegistry: validate: %w", err)
	}

	return &reg, nil
}

// EntitySources converts the registry entries into domain sources, in
// registry order.
func (r *Registry) EntitySources() ([]entity.Source, error) {
	sources := make([]entity.Source, 0, len(r.Sources))
	for _, e := range r.Sources {
		src := entity.Source{Name: e.Name, Language: e.Lang, URL: e.URL}
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("EntitySources: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}
