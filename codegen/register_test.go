package codegen

import "testing"

func TestAllocateLowestFree(t *testing.T) {
	a := NewRegisterAllocator()
	r1, err := a.Allocate("", "")
	if err != nil {
		t.Fatal(err)
	}
	r2, err := a.Allocate("", "")
	if err != nil {
		t.Fatal(err)
	}
	if r1.ID != 1 || r2.ID != 2 {
		t.Fatalf("got ids %d, %d", r1.ID, r2.ID)
	}

	// Freeing the lower slot makes it the next handed out
	a.Free(r1)
	r3, err := a.Allocate("", "")
	if err != nil {
		t.Fatal(err)
	}
	if r3.ID != 1 {
		t.Errorf("got id %d, want 1 after free", r3.ID)
	}
}

func TestAllocateExhaustion(t *testing.T) {
	a := NewRegisterAllocator()
	for i := minRegister; i <= maxRegister; i++ {
		r, err := a.Allocate("", "")
		if err != nil {
			t.Fatalf("allocation %d failed: %v", i, err)
		}
		if r.ID < minRegister || r.ID > maxRegister {
			t.Fatalf("id %d out of bounds", r.ID)
		}
	}
	if _, err := a.Allocate("", ""); err == nil {
		t.Fatal("expected OutOfRegisters")
	} else if cerr, ok := err.(*Error); !ok || cerr.Kind != OutOfRegisters {
		t.Fatalf("got %v", err)
	}
}

func TestAssignConflict(t *testing.T) {
	a := NewRegisterAllocator()
	if _, err := a.Assign(10, "x", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Assign(10, "y", ""); err == nil {
		t.Fatal("expected RegisterConflict")
	} else if cerr, ok := err.(*Error); !ok || cerr.Kind != RegisterConflict {
		t.Fatalf("got %v", err)
	}

	// The next sequential allocation skips the assigned slot's id only
	// when it is in the way
	r, err := a.Allocate("", "")
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != 1 {
		t.Errorf("got id %d, want 1", r.ID)
	}
}

func TestAssignOutOfRange(t *testing.T) {
	a := NewRegisterAllocator()
	for _, id := range []int{0, 255, -1} {
		if _, err := a.Assign(id, "", ""); err == nil {
			t.Errorf("Assign(%d) should fail", id)
		}
	}
}

func TestFreeIdempotent(t *testing.T) {
	a := NewRegisterAllocator()
	r, err := a.Allocate("", "")
	if err != nil {
		t.Fatal(err)
	}
	a.Free(r)
	a.Free(r) // no-op
	if a.Held(r.ID) {
		t.Error("slot still held after free")
	}
}

func TestRegisterRendering(t *testing.T) {
	tests := []struct {
		reg  Register
		want string
	}{
		{Register{ID: 7}, "r:7"},
		{Register{ID: 2, Name: "velocity"}, "r:velocity"},
		{Register{ID: 3, Name: "new"}, "r:'new'"},
		{Register{ID: 3, Name: "end"}, "r:'end'"},
		{Register{ID: 4, DebugTag: "local:x"}, "r:4 /*local:x*/"},
		{Register{ID: 5, Name: "v", DebugTag: "temp"}, "r:v /*temp*/"},
	}
	for _, tt := range tests {
		if got := tt.reg.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
