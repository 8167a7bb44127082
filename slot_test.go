package mediapreview

import (
	"errors"
	"testing"
)

type fakeOccupant struct {
	name  string
	torn  int
	order *[]string
}

func (f *fakeOccupant) Teardown() error {
	f.torn++
	if f.order != nil {
		*f.order = append(*f.order, "teardown "+f.name)
	}
	return nil
}

func TestGraphSlot_TeardownBeforeBuild(t *testing.T) {
	var slot GraphSlot
	var order []string

	first := &fakeOccupant{name: "first", order: &order}
	if _, err := slot.Replace(func() (Occupant, error) { return first, nil }); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	second := &fakeOccupant{name: "second", order: &order}
	_, err := slot.Replace(func() (Occupant, error) {
		order = append(order, "build second")
		return second, nil
	})
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	want := []string{"teardown first", "build second"}
	if len(order) != len(want) || order[0] != want[0] || order[1] != want[1] {
		t.Errorf("order = %v, want %v", order, want)
	}
	if slot.Current() != Occupant(second) {
		t.Error("slot does not hold the new occupant")
	}
}

func TestGraphSlot_BuildFailureLeavesSlotEmpty(t *testing.T) {
	var slot GraphSlot
	old := &fakeOccupant{name: "old"}
	slot.Replace(func() (Occupant, error) { return old, nil })

	_, err := slot.Replace(func() (Occupant, error) { return nil, errors.New("boom") })
	if err == nil {
		t.Fatal("expected build error")
	}
	if slot.Occupied() {
		t.Error("slot occupied after failed build")
	}
	if old.torn != 1 {
		t.Errorf("old occupant torn down %d times, want 1", old.torn)
	}

	if _, err := slot.Replace(func() (Occupant, error) { return nil, nil }); err == nil {
		t.Error("a nil occupant should be rejected")
	}
}

func TestGraphSlot_ReleaseOnlyCurrent(t *testing.T) {
	var slot GraphSlot
	a := &fakeOccupant{name: "a"}
	b := &fakeOccupant{name: "b"}

	slot.Replace(func() (Occupant, error) { return a, nil })
	slot.Replace(func() (Occupant, error) { return b, nil })

	if slot.Release(a) {
		t.Error("Release of a replaced occupant should report false")
	}
	if a.torn != 1 {
		t.Errorf("a torn down %d times, want 1", a.torn)
	}

	if !slot.Release(b) {
		t.Error("Release of current occupant should report true")
	}
	if b.torn != 1 || slot.Occupied() {
		t.Errorf("b torn=%d occupied=%v", b.torn, slot.Occupied())
	}

	slot.Clear()
	if b.torn != 1 {
		t.Error("Clear on empty slot tore down again")
	}
}
