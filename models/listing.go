package models

import (
	"strings"
)

// ImageSource is a picked image staged on local disk, ready for upload.
type ImageSource struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ListingDraft is the raw form a user submits to create a listing. Numeric
// fields stay as entered until validation.
type ListingDraft struct {
	BuildingName string
	Address      string
	Country      string
	Latitude     string
	Longitude    string
	Price        string
	Description  string

	Type       string
	Area       string
	Bedrooms   string
	Bathrooms  string
	YearBuilt  string
	Facilities []string

	Exterior []ImageSource
	Interior []ImageSource
}

// ValidatedListing is a draft whose fields have all been parsed.
type ValidatedListing struct {
	BuildingName string
	Address      string
	Country      string
	Latitude     float64
	Longitude    float64
	Price        float64
	Description  string

	Type       PropertyType
	Area       float64
	Bedrooms   int
	Bathrooms  int
	YearBuilt  int
	Facilities []string

	Exterior []ImageSource
	Interior []ImageSource
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every invalid field of a request.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a field failure.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns the error if any field failed, nil otherwise.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
