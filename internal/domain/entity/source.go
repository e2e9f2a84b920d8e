package entity

import "fmt"

// Source is a feed descriptor from the source registry.
// Sources are read-only at run time; the pipeline never mutates them.
type Source struct {
	Name     string
	Language string
	URL      string
}

// Validate checks the source descriptor fields.
func (s *Source) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if err := ValidateLanguage(s.Language); err != nil {
		return err
	}
	if err := ValidateURL(s.URL); err != nil {
		return fmt.Errorf("source %q: %w", s.Name, err)
	}
	return nil
}
