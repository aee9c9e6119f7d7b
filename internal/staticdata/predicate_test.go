package staticdata

import (
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestEqFilter(t *testing.T) {
	f := toFilter(Eq("symbol", "AAPL"))
	want := bson.M{"symbol": "AAPL"}
	if f["symbol"] != want["symbol"] {
		t.Fatalf("filter = %+v, want %+v", f, want)
	}
}

func TestNilPredicateMatchesEverything(t *testing.T) {
	f := toFilter(nil)
	if len(f) != 0 {
		t.Fatalf("filter = %+v, want empty", f)
	}
}

func TestAndOrComposition(t *testing.T) {
	f := toFilter(And(Eq("enabled", true), Or(Eq("symbol", "AAPL"), Eq("symbol", "MSFT"))))
	clauses, ok := f["$and"].(bson.A)
	if !ok || len(clauses) != 2 {
		t.Fatalf("filter = %+v, want a two-clause $and", f)
	}
	second, ok := clauses[1].(bson.M)
	if !ok {
		t.Fatalf("second $and clause = %+v, want bson.M", clauses[1])
	}
	orClauses, ok := second["$or"].(bson.A)
	if !ok || len(orClauses) != 2 {
		t.Fatalf("nested $or = %+v, want two clauses", second)
	}
}
