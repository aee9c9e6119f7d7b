// Package staticdata implements the Static-Data Query API of spec §6: a
// read-only set of selectors the core consults at startup, backed by
// MongoDB in the style of the teacher's internal/persist package.
package staticdata

import "go.mongodb.org/mongo-driver/v2/bson"

// Predicate is a composable equality filter over model attributes (spec
// §6: "composable AND/OR equality filters"). The zero value (a nil
// Predicate) matches everything.
type Predicate interface {
	filter() bson.M
}

type eqPredicate struct {
	field string
	value any
}

// Eq matches documents whose field equals value.
func Eq(field string, value any) Predicate {
	return eqPredicate{field: field, value: value}
}

func (p eqPredicate) filter() bson.M {
	return bson.M{p.field: p.value}
}

type andPredicate struct{ preds []Predicate }

// And matches documents satisfying every one of preds.
func And(preds ...Predicate) Predicate {
	return andPredicate{preds: preds}
}

func (p andPredicate) filter() bson.M {
	clauses := make(bson.A, 0, len(p.preds))
	for _, sub := range p.preds {
		clauses = append(clauses, sub.filter())
	}
	return bson.M{"$and": clauses}
}

type orPredicate struct{ preds []Predicate }

// Or matches documents satisfying at least one of preds.
func Or(preds ...Predicate) Predicate {
	return orPredicate{preds: preds}
}

func (p orPredicate) filter() bson.M {
	clauses := make(bson.A, 0, len(p.preds))
	for _, sub := range p.preds {
		clauses = append(clauses, sub.filter())
	}
	return bson.M{"$or": clauses}
}

// toFilter converts a (possibly nil) Predicate to a mongo filter document.
func toFilter(p Predicate) bson.M {
	if p == nil {
		return bson.M{}
	}
	return p.filter()
}
