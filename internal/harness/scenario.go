package harness

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dtable/internal/ir"
)

// Scenario defines a conformance test scenario: seeded state, a sequence
// of session operations with expected outcomes, and assertions over the
// resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs is the specs directory, relative to the scenario file.
	Specs string `yaml:"specs"`

	// EpisodePrefix prefixes the deterministic episode IDs.
	// Defaults to the scenario name.
	EpisodePrefix string `yaml:"episode_prefix,omitempty"`

	// Locators seeds state locators before the first step.
	Locators map[string]map[string]string `yaml:"locators,omitempty"`

	// Steps run in order against one session.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`

	// Path is the file the scenario was loaded from, if any.
	Path string `yaml:"-"`
}

// Step is one session operation. Exactly one of Decide, Perform, Set and
// Reset is set.
type Step struct {
	// Decide names a table whose outcome is computed.
	Decide string `yaml:"decide,omitempty"`

	// Perform names a table or command to perform.
	Perform string `yaml:"perform,omitempty"`

	// Set is a "locator::field" coordinate written with Value.
	Set   string `yaml:"set,omitempty"`
	Value string `yaml:"value,omitempty"`

	// Reset names a state locator to clear after re-parsing the specs.
	Reset string `yaml:"reset,omitempty"`

	// Request carries read-only request locators for this step.
	Request map[string]map[string]string `yaml:"request,omitempty"`

	// Expect is matched as a subset against the episode outcome.
	Expect map[string]string `yaml:"expect,omitempty"`

	// ExpectError must appear in the step's error text, usually an
	// error code like MULTIPLE_RULES.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Operation returns the episode operation and target of the step.
func (s Step) Operation() (ir.Operation, string) {
	switch {
	case s.Decide != "":
		return ir.OpDecide, s.Decide
	case s.Perform != "":
		return ir.OpPerform, s.Perform
	case s.Set != "":
		return ir.OpSet, s.Set
	case s.Reset != "":
		return ir.OpReset, s.Reset
	}
	return "", ""
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count and
	// final_state.
	Type string `yaml:"type"`

	// Kind restricts trace assertions to one trace kind.
	Kind string `yaml:"kind,omitempty"`

	// Message is the trace message (trace_contains, trace_count).
	Message string `yaml:"message,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Messages is the expected message order (trace_order).
	Messages []string `yaml:"messages,omitempty"`

	// Locator is the state locator (final_state).
	Locator string `yaml:"locator,omitempty"`

	// Expect contains expected field values (final_state).
	// Subset match: only the listed fields are validated.
	Expect map[string]string `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. The specs directory
// is resolved relative to the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	scenario, err := ParseScenario(bytes.NewReader(data), filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	scenario.Path = path
	return scenario, nil
}

// ParseScenario parses a scenario, resolving a relative specs directory
// against baseDir. Unknown fields are rejected.
func ParseScenario(r io.Reader, baseDir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true) // catches typos like "assertion:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Specs != "" && !filepath.IsAbs(scenario.Specs) && baseDir != "" {
		scenario.Specs = filepath.Join(baseDir, scenario.Specs)
	}
	if scenario.EpisodePrefix == "" {
		scenario.EpisodePrefix = scenario.Name
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Specs == "" {
		return fmt.Errorf("specs directory is required")
	}
	if info, err := os.Stat(s.Specs); err != nil || !info.IsDir() {
		return fmt.Errorf("specs directory not found: %s", s.Specs)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	set := 0
	for _, v := range []string{s.Decide, s.Perform, s.Set, s.Reset} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of decide, perform, set, reset is required", index)
	}
	if s.Set != "" && !strings.Contains(s.Set, ir.Separator) {
		return fmt.Errorf("steps[%d]: set target %q must be locator%sfield", index, s.Set, ir.Separator)
	}
	if s.Set == "" && s.Value != "" {
		return fmt.Errorf("steps[%d]: value is only valid with set", index)
	}
	if s.Expect != nil && s.ExpectError != "" {
		return fmt.Errorf("steps[%d]: expect and expect_error are exclusive", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Messages) == 0 {
			return fmt.Errorf("assertions[%d]: messages list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Message == "" && a.Kind == "" {
			return fmt.Errorf("assertions[%d]: message or kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Locator == "" {
			return fmt.Errorf("assertions[%d]: locator is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
