package registry

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
)

func order(id, owner string) domain.OrderData {
	return domain.OrderData{
		OrderID: id,
		OwnerID: owner,
		Price:   decimal.NewFromInt(100),
		Qty:     decimal.NewFromInt(10),
		Side:    domain.Buy,
	}
}

// TestAddCollisionTruthTable is spec §8 scenario 3: add({A,X}) succeeds,
// add({A,Y}) fails (OrderID A already used), add({B,X}) fails (OwnerID X
// already used), add({B,Y}) succeeds (both keys fresh).
func TestAddCollisionTruthTable(t *testing.T) {
	r := New()

	if ok := r.Add(order("A", "X")); !ok {
		t.Fatalf("add({A,X}) = false, want true")
	}
	if ok := r.Add(order("A", "Y")); ok {
		t.Fatalf("add({A,Y}) = true, want false (OrderID collision)")
	}
	if ok := r.Add(order("B", "X")); ok {
		t.Fatalf("add({B,X}) = true, want false (OwnerID collision)")
	}
	if ok := r.Add(order("B", "Y")); !ok {
		t.Fatalf("add({B,Y}) = false, want true")
	}
	if n := r.Len(); n != 2 {
		t.Fatalf("Len() = %d, want 2", n)
	}
}

func TestFindByIDAndOwner(t *testing.T) {
	r := New()
	r.Add(order("A", "X"))

	if _, ok := r.FindByID("A"); !ok {
		t.Fatal("FindByID(A) not found")
	}
	if _, ok := r.FindByOwner("X"); !ok {
		t.Fatal("FindByOwner(X) not found")
	}
	if _, ok := r.FindByID("missing"); ok {
		t.Fatal("FindByID(missing) unexpectedly found")
	}
}

// TestUpdateStampsOrigOrderIDOnce is spec §8 property 2: OrigOrderID is set
// on first modification and never overwritten on later ones.
func TestUpdateStampsOrigOrderIDOnce(t *testing.T) {
	r := New()
	r.Add(order("A", "X"))

	newID1 := "A2"
	if ok := r.UpdateByID("A", domain.OrderPatch{NewOrderID: &newID1}); !ok {
		t.Fatal("first UpdateByID failed")
	}
	o, ok := r.FindByID("A2")
	if !ok {
		t.Fatal("order not found at A2 after reindex")
	}
	if o.OrigOrderID != "A" {
		t.Fatalf("OrigOrderID = %q, want %q", o.OrigOrderID, "A")
	}
	if _, stillThere := r.FindByID("A"); stillThere {
		t.Fatal("old key A still present after reindex")
	}

	newID2 := "A3"
	if ok := r.UpdateByID("A2", domain.OrderPatch{NewOrderID: &newID2}); !ok {
		t.Fatal("second UpdateByID failed")
	}
	o, ok = r.FindByID("A3")
	if !ok {
		t.Fatal("order not found at A3 after second reindex")
	}
	if o.OrigOrderID != "A" {
		t.Fatalf("OrigOrderID changed on second update: got %q, want %q", o.OrigOrderID, "A")
	}
}

func TestUpdateByOwnerAndReindexCollision(t *testing.T) {
	r := New()
	r.Add(order("A", "X"))
	r.Add(order("B", "Y"))

	// Reindexing A onto the existing ID B must fail without mutating A.
	collideID := "B"
	if ok := r.UpdateByID("A", domain.OrderPatch{NewOrderID: &collideID}); ok {
		t.Fatal("UpdateByID with colliding NewOrderID unexpectedly succeeded")
	}
	o, _ := r.FindByID("A")
	if o.OrderID != "A" {
		t.Fatalf("order A mutated despite failed update: %+v", o)
	}

	newPrice := decimal.NewFromInt(42)
	if ok := r.UpdateByOwner("X", domain.OrderPatch{NewPrice: &newPrice}); !ok {
		t.Fatal("UpdateByOwner(X) failed")
	}
	o, _ = r.FindByOwner("X")
	if !o.Price.Equal(newPrice) {
		t.Fatalf("Price = %s, want %s", o.Price, newPrice)
	}
}

func TestRemoveByIDAndOwner(t *testing.T) {
	r := New()
	r.Add(order("A", "X"))
	r.Add(order("B", "Y"))

	removed, ok := r.RemoveByID("A")
	if !ok || removed.OrderID != "A" {
		t.Fatalf("RemoveByID(A) = %+v, %v", removed, ok)
	}
	if _, ok := r.FindByOwner("X"); ok {
		t.Fatal("owner index not cleared by RemoveByID")
	}

	removed, ok = r.RemoveByOwner("Y")
	if !ok || removed.OwnerID != "Y" {
		t.Fatalf("RemoveByOwner(Y) = %+v, %v", removed, ok)
	}
	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", r.Len())
	}
}

func TestForEachAndSelectBy(t *testing.T) {
	r := New()
	r.Add(order("A", "X"))
	r.Add(order("B", "Y"))

	count := 0
	r.ForEach(func(domain.OrderData) { count++ })
	if count != 2 {
		t.Fatalf("ForEach visited %d orders, want 2", count)
	}

	sel := r.SelectBy(func(o domain.OrderData) bool { return o.OwnerID == "Y" })
	if len(sel) != 1 || sel[0].OrderID != "B" {
		t.Fatalf("SelectBy(owner=Y) = %+v", sel)
	}
}
