package patient

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/pdms/pdms/internal/platform/validate"
)

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func samplePatient(id string) Patient {
	return Patient{ID: id, Name: "Ananya Verma", City: "Guwahati", Age: 28, Gender: GenderFemale, Height: 1.65, Weight: 90}
}

func TestBMI(t *testing.T) {
	if got := BMI(1.6, 64); math.Abs(got-25.0) > 1e-9 {
		t.Errorf("BMI(1.6, 64) = %v, want 25.0", got)
	}
	if got := BMI(1.7, 51); math.Abs(got-17.647) > 1e-3 {
		t.Errorf("BMI(1.7, 51) = %v, want ~17.65", got)
	}
	if got := BMI(0, 70); got != 0 {
		t.Errorf("BMI with zero height = %v, want 0", got)
	}
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		bmi  float64
		want string
	}{
		{17.0, VerdictUnderweight},
		{18.49, VerdictUnderweight},
		{18.5, VerdictNormal},
		{24.99, VerdictNormal},
		{25.0, VerdictObese},
		{33.0, VerdictObese},
	}
	for _, tt := range tests {
		if got := Verdict(tt.bmi); got != tt.want {
			t.Errorf("Verdict(%v) = %s, want %s", tt.bmi, got, tt.want)
		}
	}
}

func TestPatientUpdate_ApplyOnlySetFields(t *testing.T) {
	p := samplePatient("P001")
	u := PatientUpdate{City: strPtr("Pune"), Weight: floatPtr(72)}

	got := u.Apply(p)
	if got.City != "Pune" || got.Weight != 72 {
		t.Errorf("expected city and weight updated, got %+v", got)
	}
	if got.Name != p.Name || got.Age != p.Age || got.Gender != p.Gender || got.Height != p.Height || got.ID != p.ID {
		t.Errorf("expected untouched fields to keep prior values, got %+v", got)
	}
}

func TestPatientUpdate_NullIsUnset(t *testing.T) {
	var u PatientUpdate
	if err := json.Unmarshal([]byte(`{"name":null,"age":40}`), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.Name != nil {
		t.Error("expected null name to be unset")
	}
	got := u.Apply(samplePatient("P001"))
	if got.Name != "Ananya Verma" || got.Age != 40 {
		t.Errorf("unexpected merge result %+v", got)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Patient)
		field string
	}{
		{"age zero", func(p *Patient) { p.Age = 0 }, "age"},
		{"age 120", func(p *Patient) { p.Age = 120 }, "age"},
		{"height zero", func(p *Patient) { p.Height = 0 }, "height"},
		{"negative weight", func(p *Patient) { p.Weight = -1 }, "weight"},
		{"gender other", func(p *Patient) { p.Gender = "other" }, "gender"},
		{"empty id", func(p *Patient) { p.ID = "" }, "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := samplePatient("P001")
			tt.edit(&p)
			ve, ok := validate.As(Validate(p))
			if !ok {
				t.Fatal("expected validation error")
			}
			if !ve.Has(tt.field) {
				t.Errorf("expected failure on %s, got %v", tt.field, ve.Fields)
			}
		})
	}
}

func TestValidate_AcceptsBounds(t *testing.T) {
	for _, age := range []int{1, 119} {
		p := samplePatient("P001")
		p.Age = age
		if err := Validate(p); err != nil {
			t.Errorf("age %d: unexpected error %v", age, err)
		}
	}
}

func TestValidate_AllowsEmptyNameAndCity(t *testing.T) {
	p := samplePatient("P001")
	p.Name, p.City = "", ""
	if err := Validate(p); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	if err := (PatientUpdate{Name: strPtr(""), City: strPtr("")}).Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestCreateRequest_MissingFields(t *testing.T) {
	req := CreateRequest{ID: strPtr("P001"), Name: strPtr("Ravi")}
	_, err := req.Patient()
	ve, ok := validate.As(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, f := range []string{"city", "age", "gender", "height", "weight"} {
		if !ve.Has(f) {
			t.Errorf("expected %s to be reported missing", f)
		}
	}
}

func TestCreateRequest_Valid(t *testing.T) {
	req := CreateRequest{
		ID: strPtr("P010"), Name: strPtr("Ravi"), City: strPtr("Delhi"),
		Age: intPtr(45), Gender: strPtr(GenderMale), Height: floatPtr(1.75), Weight: floatPtr(70),
	}
	p, err := req.Patient()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "P010" || p.Age != 45 {
		t.Errorf("unexpected patient %+v", p)
	}
}

func TestPatientUpdate_Validate(t *testing.T) {
	if err := (PatientUpdate{Age: intPtr(130)}).Validate(); err == nil {
		t.Error("expected error for age 130")
	}
	if err := (PatientUpdate{Gender: strPtr("unknown")}).Validate(); err == nil {
		t.Error("expected error for unknown gender")
	}
	if err := (PatientUpdate{}).Validate(); err != nil {
		t.Errorf("empty update should validate, got %v", err)
	}
}

func TestStore_PreservesOrder(t *testing.T) {
	doc := `{"P003":{"name":"C","city":"Pune","age":30,"gender":"male","height":1.7,"weight":70},` +
		`"P001":{"name":"A","city":"Delhi","age":40,"gender":"female","height":1.6,"weight":60}}`

	s := NewStore()
	if err := json.Unmarshal([]byte(doc), s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ids := s.IDs()
	if len(ids) != 2 || ids[0] != "P003" || ids[1] != "P001" {
		t.Fatalf("expected document order [P003 P001], got %v", ids)
	}

	s.Put(samplePatient("P002"))
	s.Put(Patient{ID: "P003", Name: "C2", City: "Pune", Age: 31, Gender: GenderMale, Height: 1.7, Weight: 71})
	ids = s.IDs()
	if ids[0] != "P003" || ids[2] != "P002" {
		t.Errorf("expected update in place and append, got %v", ids)
	}

	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again := NewStore()
	if err := json.Unmarshal(out, again); err != nil {
		t.Fatalf("unmarshal round trip: %v", err)
	}
	got := again.IDs()
	for i := range ids {
		if got[i] != ids[i] {
			t.Fatalf("order changed across round trip: %v vs %v", ids, got)
		}
	}
	p, _ := again.Get("P003")
	if p.Name != "C2" {
		t.Errorf("expected updated value, got %+v", p)
	}
}

func TestStore_StoredValueHasNoID(t *testing.T) {
	s := NewStore()
	s.Put(samplePatient("P001"))
	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(out, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["P001"]["id"]; ok {
		t.Error("stored value must not carry the id")
	}
}

func TestStore_Remove(t *testing.T) {
	s := NewStore()
	s.Put(samplePatient("P001"))
	s.Put(samplePatient("P002"))
	if !s.Remove("P001") {
		t.Fatal("expected remove to succeed")
	}
	if s.Remove("P001") {
		t.Error("expected second remove to fail")
	}
	if s.Len() != 1 || s.IDs()[0] != "P002" {
		t.Errorf("unexpected store state %v", s.IDs())
	}
}

func TestStore_RejectsNonObject(t *testing.T) {
	s := NewStore()
	if err := json.Unmarshal([]byte(`[1,2]`), s); err == nil {
		t.Error("expected error for array document")
	}
}
