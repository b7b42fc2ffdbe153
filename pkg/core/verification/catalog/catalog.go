// Package catalog holds the read-only table of verification steps per role.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"sanchari/pkg/core/verification/model"
)

//go:embed default_steps.yaml
var defaultSteps []byte

type Catalog struct {
	roles map[string][]string
	steps map[string]model.Step
}

type document struct {
	Roles map[string][]string   `yaml:"roles"`
	Steps map[string]model.Step `yaml:"steps"`
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultSteps)
}

// Load reads a catalog from path, or the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read step catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and checks a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode step catalog: %w", err)
	}

	c := &Catalog{
		roles: make(map[string][]string, len(doc.Roles)),
		steps: make(map[string]model.Step, len(doc.Steps)),
	}

	for key, step := range doc.Steps {
		step.Key = key
		if !step.Type.Valid() {
			return nil, fmt.Errorf("step %s: unknown type %q", key, step.Type)
		}
		if step.Type == model.StepFile && len(step.Fields) > 0 {
			return nil, fmt.Errorf("step %s: file steps cannot declare fields", key)
		}
		if step.AcceptsFile() && step.File == nil {
			step.File = &model.FileConstraints{}
		}
		seen := make(map[string]bool, len(step.Fields))
		for i := range step.Fields {
			f := &step.Fields[i]
			if f.Key == "" {
				return nil, fmt.Errorf("step %s: field %d has no key", key, i)
			}
			if seen[f.Key] {
				return nil, fmt.Errorf("step %s: duplicate field %s", key, f.Key)
			}
			seen[f.Key] = true
			if !f.Type.Valid() {
				return nil, fmt.Errorf("step %s: field %s: unknown type %q", key, f.Key, f.Type)
			}
			if f.MaxLength > 0 && f.MinLength > f.MaxLength {
				return nil, fmt.Errorf("step %s: field %s: minLength exceeds maxLength", key, f.Key)
			}
			if err := f.Compile(); err != nil {
				return nil, fmt.Errorf("step %s: %w", key, err)
			}
		}
		c.steps[key] = step
	}

	for role, keys := range doc.Roles {
		for _, key := range keys {
			if _, ok := c.steps[key]; !ok {
				return nil, fmt.Errorf("role %s: unknown step %s", role, key)
			}
		}
		c.roles[role] = append([]string{}, keys...)
	}

	return c, nil
}

// StepsForRole returns the ordered steps for role. The slice is empty when the
// role needs no verification; ok is false for roles the catalog does not know.
func (c *Catalog) StepsForRole(role string) (steps []model.Step, ok bool) {
	keys, ok := c.roles[role]
	if !ok {
		return nil, false
	}
	steps = make([]model.Step, 0, len(keys))
	for _, key := range keys {
		steps = append(steps, c.steps[key])
	}
	return steps, true
}

func (c *Catalog) Step(key string) (model.Step, bool) {
	s, ok := c.steps[key]
	return s, ok
}

// Roles lists the known roles in lexical order.
func (c *Catalog) Roles() []string {
	roles := make([]string, 0, len(c.roles))
	for r := range c.roles {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}
