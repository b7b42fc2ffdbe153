package model

import (
	"fmt"
	"regexp"
	"strings"
)

type StepType string

const (
	StepForm     StepType = "form"
	StepFile     StepType = "file"
	StepFormFile StepType = "form+file"
)

func (t StepType) Valid() bool {
	switch t {
	case StepForm, StepFile, StepFormFile:
		return true
	}
	return false
}

type FieldType string

const (
	FieldText   FieldType = "text"
	FieldEmail  FieldType = "email"
	FieldPhone  FieldType = "phone"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldEmail, FieldPhone, FieldNumber, FieldDate:
		return true
	}
	return false
}

// Field is one input of a form step.
type Field struct {
	Key       string    `yaml:"key" json:"key"`
	Label     string    `yaml:"label" json:"label"`
	Type      FieldType `yaml:"type" json:"type"`
	Required  bool      `yaml:"required" json:"required"`
	Pattern   string    `yaml:"pattern" json:"pattern,omitempty"`
	MinLength int       `yaml:"minLength" json:"minLength,omitempty"`
	MaxLength int       `yaml:"maxLength" json:"maxLength,omitempty"`

	re *regexp.Regexp
}

// Compile prepares the field's pattern. Fields without a pattern compile to nothing.
func (f *Field) Compile() error {
	if f.Pattern == "" {
		f.re = nil
		return nil
	}
	re, err := regexp.Compile(f.Pattern)
	if err != nil {
		return fmt.Errorf("field %s: bad pattern: %w", f.Key, err)
	}
	f.re = re
	return nil
}

// Matches reports whether value satisfies the pattern; always true without one.
func (f Field) Matches(value string) bool {
	if f.re == nil {
		if f.Pattern == "" {
			return true
		}
		// not compiled through a catalog
		re, err := regexp.Compile(f.Pattern)
		return err == nil && re.MatchString(value)
	}
	return f.re.MatchString(value)
}

// FileConstraints limit what may be uploaded for a step.
type FileConstraints struct {
	AcceptedTypes []string `yaml:"acceptedTypes" json:"acceptedTypes"`
	MaxSizeBytes  int64    `yaml:"maxSizeBytes" json:"maxSizeBytes"`
	// Required makes the document gate Advance and submission for this step.
	Required bool `yaml:"required" json:"required"`
}

// Accepts reports whether contentType is allowed. Entries like "image/*"
// match a whole top-level type; an empty list accepts everything.
func (fc FileConstraints) Accepts(contentType string) bool {
	if len(fc.AcceptedTypes) == 0 {
		return true
	}
	contentType = strings.ToLower(contentType)
	for _, accepted := range fc.AcceptedTypes {
		accepted = strings.ToLower(accepted)
		if accepted == contentType {
			return true
		}
		if prefix, ok := strings.CutSuffix(accepted, "/*"); ok && strings.HasPrefix(contentType, prefix+"/") {
			return true
		}
	}
	return false
}

// Step is a statically configured verification step.
type Step struct {
	Key    string           `yaml:"-" json:"key"`
	Title  string           `yaml:"title" json:"title"`
	Type   StepType         `yaml:"type" json:"type"`
	Fields []Field          `yaml:"fields" json:"fields"`
	File   *FileConstraints `yaml:"file" json:"file,omitempty"`
}

func (s Step) AcceptsFile() bool {
	return s.Type == StepFile || s.Type == StepFormFile
}

func (s Step) FileRequired() bool {
	return s.AcceptsFile() && s.File != nil && s.File.Required
}

func (s Step) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}
