package scoring

import (
	"github.com/pdms/pdms/internal/platform/validate"
)

// Customer validates the input and returns its concrete form. age and city
// are only required; any integer age and any city string are scored.
func (in UserInput) Customer() (Customer, error) {
	var errs validate.Errors
	errs.Required("age", in.Age != nil)
	if errs.Required("weight", in.Weight != nil) {
		errs.Positive("weight", *in.Weight)
	}
	if errs.Required("height", in.Height != nil) {
		errs.Positive("height", *in.Height)
	}
	if errs.Required("income_lpa", in.IncomeLPA != nil) {
		errs.Positive("income_lpa", *in.IncomeLPA)
	}
	errs.Required("smoker", in.Smoker != nil)
	errs.Required("city", in.City != nil)
	if errs.Required("occupation", in.Occupation != nil) {
		errs.OneOf("occupation", *in.Occupation, Occupations...)
	}
	if err := errs.Err(); err != nil {
		return Customer{}, err
	}

	return Customer{
		Age:        *in.Age,
		Weight:     *in.Weight,
		Height:     *in.Height,
		IncomeLPA:  *in.IncomeLPA,
		Smoker:     *in.Smoker,
		City:       *in.City,
		Occupation: *in.Occupation,
	}, nil
}
