// Package classifier loads a frozen multinomial linear model and scores
// feature rows against it.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

var ErrInvalidModel = errors.New("invalid model")

// Model is a multinomial linear model. Every coefficient vector is indexed
// the same way as Classes.
type Model struct {
	Version     string                          `yaml:"version"`
	Classes     []string                        `yaml:"classes"`
	Intercepts  []float64                       `yaml:"intercepts"`
	Numeric     map[string][]float64            `yaml:"numeric"`
	Categorical map[string]map[string][]float64 `yaml:"categorical"`
}

// Input is one feature row. Numeric holds every feature named in the
// model's numeric section; Categorical values the model does not know
// contribute nothing.
type Input struct {
	Numeric     map[string]float64
	Categorical map[string]string
}

// Result is the winning class and its softmax probability.
type Result struct {
	Label      string
	Confidence float64
}

// Load reads a model artifact from path. JSON artifacts parse too.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) validate() error {
	n := len(m.Classes)
	if n == 0 {
		return fmt.Errorf("%w: no classes", ErrInvalidModel)
	}
	seen := make(map[string]bool, n)
	for _, c := range m.Classes {
		if c == "" {
			return fmt.Errorf("%w: empty class name", ErrInvalidModel)
		}
		if seen[c] {
			return fmt.Errorf("%w: duplicate class %q", ErrInvalidModel, c)
		}
		seen[c] = true
	}
	if len(m.Intercepts) != n {
		return fmt.Errorf("%w: %d intercepts for %d classes", ErrInvalidModel, len(m.Intercepts), n)
	}
	for name, coef := range m.Numeric {
		if len(coef) != n {
			return fmt.Errorf("%w: numeric feature %q has %d coefficients, want %d", ErrInvalidModel, name, len(coef), n)
		}
	}
	for name, values := range m.Categorical {
		for value, coef := range values {
			if len(coef) != n {
				return fmt.Errorf("%w: %s=%s has %d coefficients, want %d", ErrInvalidModel, name, value, len(coef), n)
			}
		}
	}
	return nil
}

// Features lists the feature names the model reads, sorted.
func (m *Model) Features() []string {
	names := append(lo.Keys(m.Numeric), lo.Keys(m.Categorical)...)
	sort.Strings(names)
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}

// Scores returns the linear score of every class.
func (m *Model) Scores(in Input) ([]float64, error) {
	scores := make([]float64, len(m.Classes))
	copy(scores, m.Intercepts)

	// Fixed key order keeps the float sums identical across calls.
	for _, name := range sortedKeys(m.Numeric) {
		coef := m.Numeric[name]
		v, ok := in.Numeric[name]
		if !ok {
			return nil, fmt.Errorf("missing numeric feature %q", name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("numeric feature %q is not finite", name)
		}
		for i, c := range coef {
			scores[i] += c * v
		}
	}
	for _, name := range sortedKeys(m.Categorical) {
		coef, ok := m.Categorical[name][in.Categorical[name]]
		if !ok {
			continue
		}
		for i, c := range coef {
			scores[i] += c
		}
	}
	return scores, nil
}

// Predict picks the highest scoring class. Ties go to the class listed
// first.
func (m *Model) Predict(in Input) (Result, error) {
	scores, err := m.Scores(in)
	if err != nil {
		return Result{}, err
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}

	var sum float64
	for _, s := range scores {
		sum += math.Exp(s - scores[best])
	}
	return Result{Label: m.Classes[best], Confidence: 1 / sum}, nil
}
