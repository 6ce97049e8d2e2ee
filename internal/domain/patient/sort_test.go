package patient

import (
	"errors"
	"testing"
)

func ids(ps []Patient) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSort_BMI(t *testing.T) {
	ps := []Patient{
		{ID: "A", Height: 1.6, Weight: 64},
		{ID: "B", Height: 1.7, Weight: 51},
	}
	got, err := Sort(ps, "bmi", OrderAsc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"B", "A"}; !equalIDs(ids(got), want) {
		t.Errorf("expected %v, got %v", want, ids(got))
	}
}

func TestSort_StableBothDirections(t *testing.T) {
	ps := []Patient{
		{ID: "P1", Height: 1.7, Weight: 60},
		{ID: "P2", Height: 1.8, Weight: 70},
		{ID: "P3", Height: 1.7, Weight: 80},
		{ID: "P4", Height: 1.6, Weight: 90},
		{ID: "P5", Height: 1.7, Weight: 50},
	}

	asc, err := Sort(ps, "height", OrderAsc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"P4", "P1", "P3", "P5", "P2"}; !equalIDs(ids(asc), want) {
		t.Errorf("asc: expected %v, got %v", want, ids(asc))
	}

	desc, err := Sort(ps, "height", OrderDesc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"P2", "P1", "P3", "P5", "P4"}; !equalIDs(ids(desc), want) {
		t.Errorf("desc: expected %v, got %v", want, ids(desc))
	}
}

func TestSort_DefaultOrderAsc(t *testing.T) {
	ps := []Patient{{ID: "H", Weight: 90}, {ID: "L", Weight: 40}}
	got, err := Sort(ps, "weight", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids(got)[0] != "L" {
		t.Errorf("expected ascending default, got %v", ids(got))
	}
}

func TestSort_MissingKeyDefaultsToZero(t *testing.T) {
	ps := []Patient{
		{ID: "full", Height: 1.7, Weight: 70},
		{ID: "no-height", Weight: 70},
	}
	got, err := Sort(ps, "bmi", OrderAsc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids(got)[0] != "no-height" {
		t.Errorf("expected missing height to sort as 0, got %v", ids(got))
	}
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	ps := []Patient{{ID: "B", Weight: 2}, {ID: "A", Weight: 1}}
	if _, err := Sort(ps, "weight", OrderAsc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ps[0].ID != "B" {
		t.Error("input slice was reordered")
	}
}

func TestSort_InvalidArguments(t *testing.T) {
	if _, err := Sort(nil, "age", OrderAsc); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for sort_by=age, got %v", err)
	}
	if _, err := Sort(nil, "bmi", "sideways"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for order=sideways, got %v", err)
	}
}
