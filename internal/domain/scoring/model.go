package scoring

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

const (
	AgeYoung      = "young"
	AgeAdult      = "adult"
	AgeMiddleAged = "middle_aged"
	AgeSenior     = "senior"
)

// Occupations accepted in UserInput.Occupation.
var Occupations = []string{
	"retired",
	"freelancer",
	"student",
	"government_job",
	"business_owner",
	"unemployed",
	"private_job",
}

// UserInput is the body of a scoring request. Fields are pointers so a
// missing field can be told apart from a zero value.
type UserInput struct {
	Age        *int     `json:"age"`
	Weight     *float64 `json:"weight"`
	Height     *float64 `json:"height"`
	IncomeLPA  *float64 `json:"income_lpa"`
	Smoker     *bool    `json:"smoker"`
	City       *string  `json:"city"`
	Occupation *string  `json:"occupation"`
}

// Customer is a validated UserInput.
type Customer struct {
	Age        int
	Weight     float64
	Height     float64
	IncomeLPA  float64
	Smoker     bool
	City       string
	Occupation string
}

// Features is the fixed-shape row handed to the classifier.
type Features struct {
	BMI           float64 `json:"bmi"`
	AgeGroup      string  `json:"age_group"`
	LifestyleRisk string  `json:"lifestyle_risk"`
	CityTier      int     `json:"city_tier"`
	IncomeLPA     float64 `json:"income_lpa"`
	Occupation    string  `json:"occupation"`
}

type Prediction struct {
	Label      string
	Confidence float64
}

// Result is what a scoring request returns.
type Result struct {
	Message           string   `json:"message"`
	PredictedCategory string   `json:"predicted_category"`
	Confidence        float64  `json:"confidence"`
	ModelVersion      string   `json:"model_version"`
	Features          Features `json:"-"`
}
