package scoring

import (
	"context"

	"github.com/pdms/pdms/internal/platform/classifier"
)

// Classifier maps a feature row to a category label.
type Classifier interface {
	Predict(ctx context.Context, f Features) (Prediction, error)
	Version() string
}

// ModelClassifier serves predictions from a loaded linear model.
type ModelClassifier struct {
	model *classifier.Model
}

func NewModelClassifier(m *classifier.Model) *ModelClassifier {
	return &ModelClassifier{model: m}
}

func (c *ModelClassifier) Version() string { return c.model.Version }

func (c *ModelClassifier) Predict(_ context.Context, f Features) (Prediction, error) {
	res, err := c.model.Predict(classifier.Input{
		Numeric: map[string]float64{
			"bmi":        f.BMI,
			"income_lpa": f.IncomeLPA,
			"city_tier":  float64(f.CityTier),
		},
		Categorical: map[string]string{
			"age_group":      f.AgeGroup,
			"lifestyle_risk": f.LifestyleRisk,
			"occupation":     f.Occupation,
		},
	})
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Label: res.Label, Confidence: res.Confidence}, nil
}
