package fiber_test

import (
	"testing"

	"github.com/kubev2v/corofiber/pkg/fiber"
)

// TestHandshake realizes scenario S1: create a fiber whose body sets a
// shared step counter to 1, yields to hold, then sets it to 2 and returns.
// Expected trace: main, F(1), main, F(2), main.
func TestHandshake(t *testing.T) {
	var trace []string
	step := 0

	f := fiber.Create(func(self *fiber.Fiber) {
		step = 1
		trace = append(trace, "F(1)")
		fiber.Yield2Hold(self)
		step = 2
		trace = append(trace, "F(2)")
	}, 0, false)

	trace = append(trace, "main")
	f.SwapIn()
	if step != 1 {
		t.Fatalf("after first SwapIn: step = %d, want 1", step)
	}
	if f.State() != fiber.StateHold {
		t.Fatalf("after first SwapIn: state = %s, want HOLD", f.State())
	}
	trace = append(trace, "main")

	f.SwapIn()
	if step != 2 {
		t.Fatalf("after second SwapIn: step = %d, want 2", step)
	}
	if f.State() != fiber.StateTerm {
		t.Fatalf("after second SwapIn: state = %s, want TERM", f.State())
	}
	trace = append(trace, "main")

	want := []string{"main", "F(1)", "main", "F(2)", "main"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
}

func TestMonotoneFiberIDs(t *testing.T) {
	var ids []uint64
	for i := 0; i < 8; i++ {
		f := fiber.Create(func(self *fiber.Fiber) {}, 0, false)
		ids = append(ids, f.ID())
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("ids not strictly increasing: %v", ids)
		}
	}
}

func TestTerminalAbsorption(t *testing.T) {
	f := fiber.Create(func(self *fiber.Fiber) {}, 0, false)
	f.SwapIn()
	if f.State() != fiber.StateTerm {
		t.Fatalf("state = %s, want TERM", f.State())
	}
	if func() (panicked bool) {
		defer func() {
			if recover() != nil {
				panicked = true
			}
		}()
		f.SwapIn()
		return false
	}() != true {
		t.Fatalf("re-entering a TERM fiber must panic")
	}
}

func TestExceptionContainment(t *testing.T) {
	f := fiber.Create(func(self *fiber.Fiber) {
		panic("boom")
	}, 0, false)

	var caught any
	f.SetExceptionHandler(func(_ *fiber.Fiber, recovered any, _ []byte) {
		caught = recovered
	})

	f.SwapIn()

	if f.State() != fiber.StateExcept {
		t.Fatalf("state = %s, want EXCEPT", f.State())
	}
	if caught != "boom" {
		t.Fatalf("exception handler received %v, want %q", caught, "boom")
	}
}

func TestResetReusesFiber(t *testing.T) {
	f := fiber.Create(func(self *fiber.Fiber) {}, 0, false)
	f.SwapIn()
	if f.State() != fiber.StateTerm {
		t.Fatalf("state = %s, want TERM", f.State())
	}

	ran := false
	f.Reset(func(self *fiber.Fiber) { ran = true })
	if f.State() != fiber.StateInit {
		t.Fatalf("state after Reset = %s, want INIT", f.State())
	}
	f.SwapIn()
	if !ran {
		t.Fatalf("reset body did not run")
	}
}

func TestTotalFibersTracksRelease(t *testing.T) {
	baseline := fiber.TotalFibers()

	f := fiber.Create(func(self *fiber.Fiber) {}, 0, false)
	if fiber.TotalFibers() != baseline+1 {
		t.Fatalf("TotalFibers = %d, want %d", fiber.TotalFibers(), baseline+1)
	}

	f.SwapIn()
	f.Release()
	if fiber.TotalFibers() != baseline {
		t.Fatalf("TotalFibers after release = %d, want %d", fiber.TotalFibers(), baseline)
	}
}
