// Package workflow builds the YAML documents the remote engine accepts
// and computes the content-addressed fingerprints that key the result
// cache.
package workflow

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/qweave/qweave/backend"
)

const (
	// APIVersion is the workflow dialect the engine speaks.
	APIVersion = "io.orquestra.workflow/1.0.0"

	// WorkflowName names every generated workflow; submissions are told
	// apart by their engine-assigned ids, not by name.
	WorkflowName = "circuit-run"

	// StepPrefix prefixes step names; the numeric suffix is the circuit's
	// index within the workflow.
	StepPrefix = "run-circuit-"

	adapterImport     = "qweave"
	adapterRepository = "git@github.com:qweave/qweave.git"
	adapterBranch     = "main"

	coreImport     = "z-quantum-core"
	coreRepository = "git@github.com:zapatacomputing/z-quantum-core.git"
	coreBranch     = "dev"

	stepLanguage = "python3"
	stepFile     = "qweave/steps/run_circuit.py"
	stepFunction = "run_circuit"

	outputName  = "results"
	resultsType = "circuit-run-results"
)

// Workflow is the engine-facing document. Field order is load-bearing:
// both encoders emit keys in struct order.
type Workflow struct {
	APIVersion string   `yaml:"apiVersion" json:"apiVersion"`
	Name       string   `yaml:"name" json:"name"`
	Imports    []Import `yaml:"imports" json:"imports"`
	Steps      []Step   `yaml:"steps" json:"steps"`
	Types      []string `yaml:"types" json:"types"`
}

type Import struct {
	Name       string           `yaml:"name" json:"name"`
	Type       string           `yaml:"type" json:"type"`
	Parameters ImportParameters `yaml:"parameters" json:"parameters"`
}

type ImportParameters struct {
	Repository string `yaml:"repository" json:"repository"`
	Branch     string `yaml:"branch" json:"branch"`
}

type Step struct {
	Name    string     `yaml:"name" json:"name"`
	Config  StepConfig `yaml:"config" json:"config"`
	Inputs  []any      `yaml:"inputs" json:"inputs"`
	Outputs []Output   `yaml:"outputs" json:"outputs"`
}

type StepConfig struct {
	Runtime   Runtime    `yaml:"runtime" json:"runtime"`
	Resources *Resources `yaml:"resources,omitempty" json:"resources,omitempty"`
}

type Runtime struct {
	Language   string            `yaml:"language" json:"language"`
	Imports    []string          `yaml:"imports" json:"imports"`
	Parameters RuntimeParameters `yaml:"parameters" json:"parameters"`
}

type RuntimeParameters struct {
	File     string `yaml:"file" json:"file"`
	Function string `yaml:"function" json:"function"`
}

// Resources sets the optional per-step compute ask.
type Resources struct {
	CPU    string `yaml:"cpu,omitempty" json:"cpu,omitempty"`
	Memory string `yaml:"memory,omitempty" json:"memory,omitempty"`
	Disk   string `yaml:"disk,omitempty" json:"disk,omitempty"`
}

type Output struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// Step inputs are single-entry maps plus a type tag in the engine's
// dialect, one struct per input kind.
type backendSpecsInput struct {
	BackendSpecs string `yaml:"backend_specs" json:"backend_specs"`
	Type         string `yaml:"type" json:"type"`
}

type operatorsInput struct {
	Operators string `yaml:"operators" json:"operators"`
	Type      string `yaml:"type" json:"type"`
}

type circuitInput struct {
	Circuit string `yaml:"circuit" json:"circuit"`
	Type    string `yaml:"type" json:"type"`
}

// Generate builds the workflow document for one batch of circuits.
// operators[i] is circuit i's serialized operator list; it is embedded
// in the step input as a JSON array string, exactly as the remote steps
// expect it. Steps are numbered from zero within the workflow; callers
// that split a submission into batches add their own offset when
// matching results back.
func Generate(family *backend.Family, backendSpecs string, circuits []string, operators [][]string, resources *Resources) (*Workflow, error) {
	if family == nil {
		return nil, fmt.Errorf("workflow needs a backend family")
	}
	if len(circuits) == 0 {
		return nil, fmt.Errorf("workflow needs at least one circuit")
	}
	if len(operators) != len(circuits) {
		return nil, fmt.Errorf("got %d operator lists for %d circuits", len(operators), len(circuits))
	}

	wf := &Workflow{
		APIVersion: APIVersion,
		Name:       WorkflowName,
		Imports: []Import{
			{
				Name: adapterImport,
				Type: "git",
				Parameters: ImportParameters{
					Repository: adapterRepository,
					Branch:     adapterBranch,
				},
			},
			{
				Name: coreImport,
				Type: "git",
				Parameters: ImportParameters{
					Repository: coreRepository,
					Branch:     coreBranch,
				},
			},
			{
				Name: family.Component,
				Type: "git",
				Parameters: ImportParameters{
					Repository: family.Repository,
					Branch:     family.Branch,
				},
			},
		},
		Types: []string{resultsType},
	}

	runtimeImports := []string{adapterImport, coreImport, family.Component}

	for i, qasm := range circuits {
		// A nil operator list must still render as [] on the wire.
		ops := operators[i]
		if ops == nil {
			ops = []string{}
		}
		opList, err := json.Marshal(ops)
		if err != nil {
			return nil, fmt.Errorf("marshal operators for step %d: %w", i, err)
		}

		wf.Steps = append(wf.Steps, Step{
			Name: fmt.Sprintf("%s%d", StepPrefix, i),
			Config: StepConfig{
				Runtime: Runtime{
					Language: stepLanguage,
					Imports:  runtimeImports,
					Parameters: RuntimeParameters{
						File:     stepFile,
						Function: stepFunction,
					},
				},
				Resources: resources,
			},
			Inputs: []any{
				backendSpecsInput{BackendSpecs: backendSpecs, Type: "string"},
				operatorsInput{Operators: string(opList), Type: "string"},
				circuitInput{Circuit: qasm, Type: "string"},
			},
			Outputs: []Output{{Name: outputName, Type: resultsType}},
		})
	}

	return wf, nil
}

// StepIndex extracts the numeric suffix of a step name. Steps complete
// out of order on the engine, so results are matched by index, never by
// response order.
func StepIndex(stepName string) (int, error) {
	if !strings.HasPrefix(stepName, StepPrefix) {
		return 0, fmt.Errorf("unexpected step name %q", stepName)
	}
	idx, err := strconv.Atoi(stepName[len(StepPrefix):])
	if err != nil {
		return 0, fmt.Errorf("unexpected step name %q: %w", stepName, err)
	}
	if idx < 0 {
		return 0, fmt.Errorf("unexpected step name %q", stepName)
	}
	return idx, nil
}
