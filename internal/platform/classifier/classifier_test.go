package classifier

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testModel = `
version: test-1
classes: [Low, Medium, High]
intercepts: [1.0, 0.0, -1.0]
numeric:
  bmi: [-0.1, 0.0, 0.1]
categorical:
  smoker:
    "yes": [-2.0, 0.0, 3.0]
`

func mustParse(t *testing.T, src string) *Model {
	t.Helper()
	m, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return m
}

func TestParse(t *testing.T) {
	m := mustParse(t, testModel)
	if m.Version != "test-1" {
		t.Errorf("expected version test-1, got %q", m.Version)
	}
	if len(m.Classes) != 3 {
		t.Errorf("expected 3 classes, got %d", len(m.Classes))
	}
	got := strings.Join(m.Features(), ",")
	if got != "bmi,smoker" {
		t.Errorf("expected features bmi,smoker, got %s", got)
	}
}

func TestParse_JSON(t *testing.T) {
	src := `{"version":"j","classes":["A","B"],"intercepts":[0,1]}`
	m := mustParse(t, src)
	res, err := m.Predict(Input{})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if res.Label != "B" {
		t.Errorf("expected B, got %s", res.Label)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"no classes":        `intercepts: []`,
		"intercept count":   "classes: [A, B]\nintercepts: [1]",
		"duplicate class":   "classes: [A, A]\nintercepts: [1, 2]",
		"numeric length":    "classes: [A, B]\nintercepts: [1, 2]\nnumeric:\n  bmi: [1]",
		"categorical width": "classes: [A, B]\nintercepts: [1, 2]\ncategorical:\n  g:\n    x: [1, 2, 3]",
		"not yaml":          "classes: [A",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(src)); !errors.Is(err, ErrInvalidModel) {
				t.Errorf("expected ErrInvalidModel, got %v", err)
			}
		})
	}
}

func TestPredict(t *testing.T) {
	m := mustParse(t, testModel)

	res, err := m.Predict(Input{Numeric: map[string]float64{"bmi": 20}})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	// scores: Low -1, Medium 0, High 1
	if res.Label != "High" {
		t.Errorf("expected High, got %s", res.Label)
	}
	want := 1 / (1 + math.Exp(-1) + math.Exp(-2))
	if math.Abs(res.Confidence-want) > 1e-9 {
		t.Errorf("expected confidence %v, got %v", want, res.Confidence)
	}

	res, err = m.Predict(Input{Numeric: map[string]float64{"bmi": 0}})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if res.Label != "Low" {
		t.Errorf("expected Low, got %s", res.Label)
	}
}

func TestPredict_Categorical(t *testing.T) {
	m := mustParse(t, testModel)
	in := Input{Numeric: map[string]float64{"bmi": 0}, Categorical: map[string]string{"smoker": "yes"}}
	res, err := m.Predict(in)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	// scores: Low -1, Medium 0, High 2
	if res.Label != "High" {
		t.Errorf("expected High, got %s", res.Label)
	}

	in.Categorical["smoker"] = "sometimes"
	res, _ = m.Predict(in)
	if res.Label != "Low" {
		t.Errorf("expected unknown category to be ignored, got %s", res.Label)
	}
}

func TestPredict_TieGoesToFirstClass(t *testing.T) {
	m := mustParse(t, "classes: [A, B, C]\nintercepts: [0, 2, 2]")
	res, err := m.Predict(Input{})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if res.Label != "B" {
		t.Errorf("expected B, got %s", res.Label)
	}
}

func TestPredict_MissingNumeric(t *testing.T) {
	m := mustParse(t, testModel)
	if _, err := m.Predict(Input{}); err == nil {
		t.Error("expected error for missing bmi")
	}
	if _, err := m.Predict(Input{Numeric: map[string]float64{"bmi": math.Inf(1)}}); err == nil {
		t.Error("expected error for infinite bmi")
	}
}

func TestScores_StableSumOrder(t *testing.T) {
	m := mustParse(t, `
version: t
classes: [A]
intercepts: [0]
numeric:
  a: [1]
  b: [1]
  c: [1]
`)
	in := Input{Numeric: map[string]float64{"a": 1e16, "b": 1, "c": -1e16}}
	for i := 0; i < 50; i++ {
		scores, err := m.Scores(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// (1e16 + 1) rounds back to 1e16, so summing a, b, c in that order gives 0.
		if scores[0] != 0 {
			t.Fatalf("run %d: expected 0, got %v", i, scores[0])
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := os.WriteFile(path, []byte(testModel), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("load: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBundledModel(t *testing.T) {
	m, err := Load(filepath.Join("..", "..", "..", "models", "premium_model.yaml"))
	if err != nil {
		t.Fatalf("load bundled model: %v", err)
	}
	want := []string{"age_group", "bmi", "city_tier", "income_lpa", "lifestyle_risk", "occupation"}
	if strings.Join(m.Features(), ",") != strings.Join(want, ",") {
		t.Errorf("expected features %v, got %v", want, m.Features())
	}
}
