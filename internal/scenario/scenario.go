// Package scenario runs scripted navigation runs described in YAML files
// against private engines and checks their outcome.
package scenario

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/robonav/internal/core/physics"
	"github.com/zeusync/robonav/pkg/concurrent"
)

// Scenario is one scripted run.
type Scenario struct {
	Name      string           `yaml:"name"`
	Dt        int              `yaml:"dt"`
	MaxTicks  int              `yaml:"max_ticks"`
	Obstacles bool             `yaml:"obstacles"`
	Seed      int64            `yaml:"seed"`
	Movement  string           `yaml:"movement,omitempty"`
	Start     *physics.Vector2 `yaml:"start,omitempty"`
	Target    physics.Vector2  `yaml:"target"`
	Expect    Expect           `yaml:"expect"`
}

// Expect holds the checks applied after a run. Unset fields are not checked.
type Expect struct {
	Arrive      *bool  `yaml:"arrive,omitempty"`
	Fingerprint string `yaml:"fingerprint,omitempty"`
}

// Validate reports the first structural problem with s.
func (s Scenario) Validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidScenario)
	case s.Dt <= 0:
		return fmt.Errorf("%w: %s: dt must be positive", ErrInvalidScenario, s.Name)
	case s.MaxTicks <= 0:
		return fmt.Errorf("%w: %s: max_ticks must be positive", ErrInvalidScenario, s.Name)
	case s.Expect.Fingerprint != "" && !s.Obstacles:
		return fmt.Errorf("%w: %s: fingerprint expectation without obstacles", ErrInvalidScenario, s.Name)
	case s.Movement != "" && s.Obstacles:
		// Obstacle mode always runs obstacle avoidance.
		return fmt.Errorf("%w: %s: movement cannot be combined with obstacles", ErrInvalidScenario, s.Name)
	}
	return nil
}

// Load decodes every YAML document in r as a scenario and validates it.
func Load(r io.Reader) ([]Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var out []Scenario
	for {
		var s Scenario
		err := dec.Decode(&s)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: decode document %d: %w", ErrInvalidScenario, len(out)+1, err)
		}
		if err = s.Validate(); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no scenarios", ErrInvalidScenario)
	}
	return out, nil
}

// LoadFile loads the scenarios in the file at path.
func LoadFile(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	scenarios, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenarios, nil
}

// LoadFiles reads the files concurrently and returns their scenarios in
// argument order. The first failing file aborts the load.
func LoadFiles(ctx context.Context, paths []string) ([]Scenario, error) {
	perFile, err := concurrent.Map(ctx, paths, 0, func(_ context.Context, path string) ([]Scenario, error) {
		return LoadFile(path)
	})
	if err != nil {
		return nil, err
	}
	var out []Scenario
	for _, scenarios := range perFile {
		out = append(out, scenarios...)
	}
	return out, nil
}
