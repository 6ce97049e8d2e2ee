package patient

import (
	"github.com/pdms/pdms/internal/platform/validate"
)

const (
	minAgeExclusive = 0
	maxAgeExclusive = 120
)

var genders = []string{GenderMale, GenderFemale}

// Validate checks every field constraint of a full patient record. name and
// city only need to be present, so an empty string is accepted.
func Validate(p Patient) error {
	var errs validate.Errors
	errs.NonEmpty("id", p.ID)
	errs.IntBetween("age", p.Age, minAgeExclusive, maxAgeExclusive)
	errs.OneOf("gender", p.Gender, genders...)
	errs.Positive("height", p.Height)
	errs.Positive("weight", p.Weight)
	return errs.Err()
}

// Patient converts a create payload into a validated Patient. Missing fields
// are reported as required.
func (r CreateRequest) Patient() (Patient, error) {
	var errs validate.Errors
	errs.Required("id", r.ID != nil)
	errs.Required("name", r.Name != nil)
	errs.Required("city", r.City != nil)
	errs.Required("age", r.Age != nil)
	errs.Required("gender", r.Gender != nil)
	errs.Required("height", r.Height != nil)
	errs.Required("weight", r.Weight != nil)
	if err := errs.Err(); err != nil {
		return Patient{}, err
	}

	p := Patient{
		ID:     *r.ID,
		Name:   *r.Name,
		City:   *r.City,
		Age:    *r.Age,
		Gender: *r.Gender,
		Height: *r.Height,
		Weight: *r.Weight,
	}
	if err := Validate(p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

// Validate checks the fields that are set on the update.
func (u PatientUpdate) Validate() error {
	var errs validate.Errors
	if u.Age != nil {
		errs.IntBetween("age", *u.Age, minAgeExclusive, maxAgeExclusive)
	}
	if u.Gender != nil {
		errs.OneOf("gender", *u.Gender, genders...)
	}
	if u.Height != nil {
		errs.Positive("height", *u.Height)
	}
	if u.Weight != nil {
		errs.Positive("weight", *u.Weight)
	}
	return errs.Err()
}
