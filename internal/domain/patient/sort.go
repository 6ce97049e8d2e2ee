package patient

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// SortFields lists the keys accepted by Sort. bmi is computed per record.
var SortFields = []string{"height", "weight", "bmi"}

var sortOrders = []string{OrderAsc, OrderDesc}

var sortKeys = map[string]func(Patient) float64{
	"height": func(p Patient) float64 { return p.Height },
	"weight": func(p Patient) float64 { return p.Weight },
	"bmi":    func(p Patient) float64 { return p.BMI() },
}

// Sort returns a copy of patients ordered by sortBy. The sort is stable in
// both directions, so equal keys keep their input order.
func Sort(patients []Patient, sortBy, order string) ([]Patient, error) {
	order, err := checkSortArgs(sortBy, order)
	if err != nil {
		return nil, err
	}

	key := sortKeys[sortBy]
	keyed := lo.Map(patients, func(p Patient, _ int) lo.Tuple2[Patient, float64] {
		return lo.T2(p, key(p))
	})

	desc := order == OrderDesc
	sort.SliceStable(keyed, func(i, j int) bool {
		if desc {
			return keyed[i].B > keyed[j].B
		}
		return keyed[i].B < keyed[j].B
	})

	return lo.Map(keyed, func(t lo.Tuple2[Patient, float64], _ int) Patient {
		return t.A
	}), nil
}

// checkSortArgs validates sortBy and order, defaulting an empty order to asc.
func checkSortArgs(sortBy, order string) (string, error) {
	if !lo.Contains(SortFields, sortBy) {
		return "", fmt.Errorf("%w: sort_by must be one of [%s]", ErrInvalidArgument, strings.Join(SortFields, ", "))
	}
	if order == "" {
		order = OrderAsc
	}
	if !lo.Contains(sortOrders, order) {
		return "", fmt.Errorf("%w: order must be asc or desc", ErrInvalidArgument)
	}
	return order, nil
}
