package scoring

import (
	"github.com/samber/lo"

	"github.com/pdms/pdms/internal/domain/patient"
)

var tier1Cities = []string{"Mumbai", "Delhi", "Bangalore", "Chennai", "Kolkata", "Hyderabad", "Pune"}

var tier2Cities = []string{
	"Jaipur", "Chandigarh", "Indore", "Lucknow", "Patna", "Ranchi", "Visakhapatnam", "Coimbatore",
	"Bhopal", "Nagpur", "Vadodara", "Surat", "Rajkot", "Jodhpur", "Raipur", "Amritsar", "Varanasi",
	"Agra", "Dehradun", "Mysore", "Jabalpur", "Guwahati", "Thiruvananthapuram", "Ludhiana", "Nashik",
	"Allahabad", "Udaipur", "Aurangabad", "Hubli", "Belgaum", "Salem", "Vijayawada", "Tiruchirappalli",
	"Bhavnagar", "Gwalior", "Dhanbad", "Bareilly", "Aligarh", "Gaya", "Kozhikode", "Warangal",
	"Kolhapur", "Bilaspur", "Jalandhar", "Noida", "Guntur", "Asansol", "Siliguri",
}

// cityTiers maps a city name, spelled exactly as listed, to its tier.
var cityTiers = lo.Assign(
	lo.SliceToMap(tier2Cities, func(c string) (string, int) { return c, 2 }),
	lo.SliceToMap(tier1Cities, func(c string) (string, int) { return c, 1 }),
)

func LifestyleRisk(smoker bool, bmi float64) string {
	switch {
	case smoker && bmi > 30:
		return RiskHigh
	case smoker || bmi > 27:
		return RiskMedium
	default:
		return RiskLow
	}
}

func AgeGroup(age int) string {
	switch {
	case age < 25:
		return AgeYoung
	case age < 45:
		return AgeAdult
	case age < 60:
		return AgeMiddleAged
	default:
		return AgeSenior
	}
}

// CityTier returns 1 or 2 for listed cities and 3 for everything else. The
// match is case-sensitive and does not trim.
func CityTier(city string) int {
	if tier, ok := cityTiers[city]; ok {
		return tier
	}
	return 3
}

// Derive builds the classifier row for a customer.
func Derive(c Customer) Features {
	bmi := patient.BMI(c.Height, c.Weight)
	return Features{
		BMI:           bmi,
		AgeGroup:      AgeGroup(c.Age),
		LifestyleRisk: LifestyleRisk(c.Smoker, bmi),
		CityTier:      CityTier(c.City),
		IncomeLPA:     c.IncomeLPA,
		Occupation:    c.Occupation,
	}
}
