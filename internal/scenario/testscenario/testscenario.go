// Package testscenario is a stub scenario loader: XML/JPGIS parsing is
// an external collaborator out of this module's scope, so this package
// reads the same Scenario struct straight out of JSON instead, enough
// to drive golden-file tests and the cmd/ binaries without a real XML
// front end.
package testscenario

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/qomet-project/qomet/internal/scenario"
)

// Load decodes a JSON-encoded scenario.Scenario from path, resolves its
// name references, and validates it -- the three steps a real XML
// loader would also have to perform before handing the scenario to the
// engine.
func Load(path string) (*scenario.Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("testscenario: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a JSON-encoded scenario.Scenario from r.
func Decode(r io.Reader) (*scenario.Scenario, error) {
	var sc scenario.Scenario
	if err := json.NewDecoder(r).Decode(&sc); err != nil {
		return nil, fmt.Errorf("testscenario: decode: %w", err)
	}
	if err := sc.Resolve(); err != nil {
		return nil, fmt.Errorf("testscenario: resolve: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("testscenario: validate: %w", err)
	}
	return &sc, nil
}
