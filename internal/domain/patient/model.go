package patient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Weight verdicts derived from BMI.
const (
	VerdictUnderweight = "underweight"
	VerdictNormal      = "normal"
	VerdictObese       = "obese"
)

// Patient is a full patient record including its id.
type Patient struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	City   string  `json:"city"`
	Age    int     `json:"age"`
	Gender string  `json:"gender"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// StoredPatient is the persisted value of a patient; the id is the key it
// is stored under.
type StoredPatient struct {
	Name   string  `json:"name"`
	City   string  `json:"city"`
	Age    int     `json:"age"`
	Gender string  `json:"gender"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// Stored drops the id.
func (p Patient) Stored() StoredPatient {
	return StoredPatient{
		Name:   p.Name,
		City:   p.City,
		Age:    p.Age,
		Gender: p.Gender,
		Height: p.Height,
		Weight: p.Weight,
	}
}

// WithID re-attaches id to a stored value.
func (s StoredPatient) WithID(id string) Patient {
	return Patient{
		ID:     id,
		Name:   s.Name,
		City:   s.City,
		Age:    s.Age,
		Gender: s.Gender,
		Height: s.Height,
		Weight: s.Weight,
	}
}

// BMI returns weight / height². A non-positive height yields 0.
func BMI(height, weight float64) float64 {
	if height <= 0 {
		return 0
	}
	bmi := weight / (height * height)
	if math.IsNaN(bmi) || math.IsInf(bmi, 0) {
		return 0
	}
	return bmi
}

// Verdict classifies a BMI value.
func Verdict(bmi float64) string {
	switch {
	case bmi < 18.5:
		return VerdictUnderweight
	case bmi < 25:
		return VerdictNormal
	default:
		return VerdictObese
	}
}

func (p Patient) BMI() float64 { return BMI(p.Height, p.Weight) }

func (p Patient) Verdict() string { return Verdict(p.BMI()) }

// PatientUpdate carries the fields of a partial edit. A nil field is left
// untouched when the update is applied; JSON null is treated as unset.
type PatientUpdate struct {
	Name   *string  `json:"name,omitempty"`
	City   *string  `json:"city,omitempty"`
	Age    *int     `json:"age,omitempty"`
	Gender *string  `json:"gender,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
}

// Apply merges the set fields of u onto p and returns the result.
func (u PatientUpdate) Apply(p Patient) Patient {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.City != nil {
		p.City = *u.City
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.Height != nil {
		p.Height = *u.Height
	}
	if u.Weight != nil {
		p.Weight = *u.Weight
	}
	return p
}

// Empty reports whether no field is set.
func (u PatientUpdate) Empty() bool {
	return u.Name == nil && u.City == nil && u.Age == nil &&
		u.Gender == nil && u.Height == nil && u.Weight == nil
}

// CreateRequest is the create payload. Pointer fields let validation tell a
// missing field from a zero value.
type CreateRequest struct {
	ID     *string  `json:"id"`
	Name   *string  `json:"name"`
	City   *string  `json:"city"`
	Age    *int     `json:"age"`
	Gender *string  `json:"gender"`
	Height *float64 `json:"height"`
	Weight *float64 `json:"weight"`
}

// UpdateResult is returned from a successful edit.
type UpdateResult struct {
	Patient Patient
	BMI     float64
	Verdict string
}

// Store is the whole patient collection keyed by id. Key order follows the
// persisted document: new ids are appended, edits keep their position.
type Store struct {
	ids     []string
	records map[string]StoredPatient
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]StoredPatient)}
}

func (s *Store) Len() int { return len(s.ids) }

// IDs returns the ids in store order.
func (s *Store) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Get returns the patient stored under id.
func (s *Store) Get(id string) (Patient, bool) {
	v, ok := s.records[id]
	if !ok {
		return Patient{}, false
	}
	return v.WithID(id), true
}

func (s *Store) Has(id string) bool {
	_, ok := s.records[id]
	return ok
}

// Put inserts or replaces p. New ids go to the end.
func (s *Store) Put(p Patient) {
	if s.records == nil {
		s.records = make(map[string]StoredPatient)
	}
	if _, ok := s.records[p.ID]; !ok {
		s.ids = append(s.ids, p.ID)
	}
	s.records[p.ID] = p.Stored()
}

// Remove deletes id and reports whether it was present.
func (s *Store) Remove(id string) bool {
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return true
}

// Patients returns every record, id attached, in store order.
func (s *Store) Patients() []Patient {
	out := make([]Patient, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.records[id].WithID(id))
	}
	return out
}

// MarshalJSON writes the store as a JSON object in store order.
func (s *Store) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range s.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.records[id])
		if err != nil {
			return nil, fmt.Errorf("marshal patient %s: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the document's key order. A
// repeated key keeps its first position and its last value.
func (s *Store) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("patient store must be a JSON object")
	}

	s.ids = nil
	s.records = make(map[string]StoredPatient)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var v StoredPatient
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode patient %s: %w", id, err)
		}
		if _, seen := s.records[id]; !seen {
			s.ids = append(s.ids, id)
		}
		s.records[id] = v
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
