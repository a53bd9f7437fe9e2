package wizard

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Iron-Ham/wizard/internal/event"
	"github.com/Iron-Ham/wizard/internal/logging"
)

func newTestWizard(t *testing.T, defs []StepDefinition, opts ...Option) *Wizard {
	t.Helper()
	w, err := New(defs, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return w
}

func threeSteps() []StepDefinition {
	return []StepDefinition{{ID: "account"}, {ID: "profile"}, {ID: "confirm"}}
}

// requireName fails unless the step data has a non-empty "name".
func requireName(_ context.Context, data any, _ map[string]any) (string, error) {
	m, _ := data.(map[string]any)
	if name, _ := m["name"].(string); name == "" {
		return "name is required", nil
	}
	return "", nil
}

func countActive(states []StepState) int {
	n := 0
	for _, st := range states {
		if st.Status == StatusActive {
			n++
		}
	}
	return n
}

func assertIndex(t *testing.T, w *Wizard, want int) {
	t.Helper()
	if got := w.CurrentIndex(); got != want {
		t.Fatalf("CurrentIndex() = %d, want %d", got, want)
	}
}

func assertStatus(t *testing.T, w *Wizard, i int, want Status) {
	t.Helper()
	if got := w.Steps()[i].Status; got != want {
		t.Errorf("steps[%d].Status = %v, want %v", i, got, want)
	}
}

func TestNew_InitialState(t *testing.T) {
	w := newTestWizard(t, threeSteps())

	assertIndex(t, w, 0)
	for i, st := range w.Steps() {
		want := StatusPending
		if i == 0 {
			want = StatusActive
		}
		if st.Status != want {
			t.Errorf("steps[%d].Status = %v, want %v", i, st.Status, want)
		}
		if st.Visited != (i == 0) {
			t.Errorf("steps[%d].Visited = %v, want %v", i, st.Visited, i == 0)
		}
	}
	if !w.IsFirst() || w.IsLast() {
		t.Errorf("IsFirst() = %v, IsLast() = %v", w.IsFirst(), w.IsLast())
	}
	if w.Options() != DefaultOptions() {
		t.Errorf("Options() = %+v, want defaults", w.Options())
	}
}

func TestNew_RejectsInvalidDefinitions(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoSteps) {
		t.Errorf("New(nil) error = %v, want %v", err, ErrNoSteps)
	}
	if _, err := New([]StepDefinition{{ID: "a"}, {ID: "a"}}); !errors.Is(err, ErrDuplicateStep) {
		t.Errorf("New(duplicate) error = %v, want %v", err, ErrDuplicateStep)
	}
}

func TestNext_CompletesDepartingStep(t *testing.T) {
	w := newTestWizard(t, threeSteps())

	ok, err := w.Next(context.Background())
	if err != nil || !ok {
		t.Fatalf("Next() = %v, %v, want true, nil", ok, err)
	}

	assertIndex(t, w, 1)
	assertStatus(t, w, 0, StatusCompleted)
	assertStatus(t, w, 1, StatusActive)
	if !w.Steps()[1].Visited {
		t.Error("steps[1].Visited = false after entering it")
	}
}

func TestNext_OnLastStep(t *testing.T) {
	w := newTestWizard(t, threeSteps())
	ctx := context.Background()
	w.Next(ctx)
	w.Next(ctx)
	before := w.Steps()

	ok, err := w.Next(ctx)
	if err != nil || ok {
		t.Fatalf("Next() on last step = %v, %v, want false, nil", ok, err)
	}
	assertIndex(t, w, 2)
	if !reflect.DeepEqual(before, w.Steps()) {
		t.Error("Next() on last step mutated state")
	}
}

func TestNext_LeaveGuardBlocks(t *testing.T) {
	calls := 0
	defs := threeSteps()
	defs[0].BeforeLeave = func(context.Context, any) (bool, error) {
		calls++
		return false, nil
	}
	w := newTestWizard(t, defs)

	ok, err := w.Next(context.Background())
	if err != nil || ok {
		t.Fatalf("Next() = %v, %v, want false, nil", ok, err)
	}
	assertIndex(t, w, 0)
	if calls != 1 {
		t.Errorf("BeforeLeave called %d times, want 1", calls)
	}
}

func TestNext_EnterGuardSeesAggregatedData(t *testing.T) {
	var seen map[string]any
	defs := threeSteps()
	defs[1].BeforeEnter = func(_ context.Context, all map[string]any) (bool, error) {
		seen = all
		return true, nil
	}
	w := newTestWizard(t, defs)
	w.SetStepData("account", "alice")

	if ok, _ := w.Next(context.Background()); !ok {
		t.Fatal("Next() = false")
	}
	if seen["account"] != "alice" {
		t.Errorf("BeforeEnter saw %v, want account=alice", seen)
	}
}

func TestNext_EnterGuardBlocks(t *testing.T) {
	defs := threeSteps()
	defs[1].BeforeEnter = func(context.Context, map[string]any) (bool, error) { return false, nil }
	w := newTestWizard(t, defs)

	ok, _ := w.Next(context.Background())
	if ok {
		t.Fatal("Next() = true, want false")
	}
	assertIndex(t, w, 0)
	assertStatus(t, w, 1, StatusPending)
	if w.Steps()[1].Visited {
		t.Error("blocked target was marked visited")
	}
}

func TestNext_ValidationFailure(t *testing.T) {
	defs := threeSteps()
	defs[0].Validator = requireName
	w := newTestWizard(t, defs)

	ok, err := w.Next(context.Background())
	if err != nil || ok {
		t.Fatalf("Next() = %v, %v, want false, nil", ok, err)
	}
	assertIndex(t, w, 0)
	assertStatus(t, w, 0, StatusError)
	if w.Steps()[0].Error == "" {
		t.Error("steps[0].Error is empty after failed validation")
	}
	if w.CanNext() {
		t.Error("CanNext() = true while current step is in error")
	}
}

func TestNext_ValidationRecovers(t *testing.T) {
	defs := threeSteps()
	defs[0].Validator = requireName
	w := newTestWizard(t, defs)
	ctx := context.Background()

	w.Next(ctx)
	w.SetStepData("account", map[string]any{"name": "alice"})

	ok, err := w.ValidateCurrent(ctx)
	if err != nil || !ok {
		t.Fatalf("ValidateCurrent() = %v, %v, want true, nil", ok, err)
	}
	assertStatus(t, w, 0, StatusActive)
	if w.Steps()[0].Error != "" {
		t.Errorf("Error = %q after passing validation, want empty", w.Steps()[0].Error)
	}
	if n := countActive(w.Steps()); n != 1 {
		t.Errorf("%d active steps, want 1", n)
	}

	if ok, _ := w.Next(ctx); !ok {
		t.Fatal("Next() = false after fixing data")
	}
	assertStatus(t, w, 0, StatusCompleted)
}

func TestValidateStep_SchemaRunsBeforeValidator(t *testing.T) {
	validatorCalled := false
	defs := threeSteps()
	defs[0].Schema = SchemaFunc(func(any) SchemaResult {
		return SchemaResult{Success: false, FirstErrorMessage: "schema says no"}
	})
	defs[0].Validator = func(context.Context, any, map[string]any) (string, error) {
		validatorCalled = true
		return "", nil
	}
	w := newTestWizard(t, defs)

	ok, _ := w.ValidateStep(context.Background(), 0)
	if ok {
		t.Fatal("ValidateStep() = true, want false")
	}
	if validatorCalled {
		t.Error("custom validator ran after schema failure")
	}
	if got := w.Steps()[0].Error; got != "schema says no" {
		t.Errorf("Error = %q, want %q", got, "schema says no")
	}
}

func TestValidateStep_SchemaWithoutMessage(t *testing.T) {
	defs := threeSteps()
	defs[0].Schema = SchemaFunc(func(any) SchemaResult { return SchemaResult{} })
	w := newTestWizard(t, defs)

	w.ValidateStep(context.Background(), 0)
	if got := w.Steps()[0].Error; got != defaultSchemaMessage {
		t.Errorf("Error = %q, want %q", got, defaultSchemaMessage)
	}
}

func TestValidateStep_NonCurrentErrorRestoresPending(t *testing.T) {
	defs := threeSteps()
	defs[2].Validator = requireName
	w := newTestWizard(t, defs)
	ctx := context.Background()

	w.ValidateStep(ctx, 2)
	assertStatus(t, w, 2, StatusError)

	w.SetStepData("confirm", map[string]any{"name": "ok"})
	if ok, _ := w.ValidateStep(ctx, 2); !ok {
		t.Fatal("ValidateStep() = false after fixing data")
	}
	assertStatus(t, w, 2, StatusPending)
}

func TestValidateStep_OutOfRange(t *testing.T) {
	w := newTestWizard(t, threeSteps())
	if ok, err := w.ValidateStep(context.Background(), 5); ok || err != nil {
		t.Errorf("ValidateStep(5) = %v, %v, want false, nil", ok, err)
	}
}

func TestValidateStep_IsValidating(t *testing.T) {
	var during bool
	var w *Wizard
	defs := threeSteps()
	defs[0].Validator = func(context.Context, any, map[string]any) (string, error) {
		during = w.IsValidating()
		return "", nil
	}
	w = newTestWizard(t, defs)

	w.ValidateCurrent(context.Background())
	if !during {
		t.Error("IsValidating() = false inside validator")
	}
	if w.IsValidating() {
		t.Error("IsValidating() = true after validation returned")
	}
}

func TestCollaboratorErrorsPassThrough(t *testing.T) {
	boom := errors.New("remote check failed")

	tests := []struct {
		name   string
		modify func(defs []StepDefinition)
	}{
		{
			name: "validator",
			modify: func(defs []StepDefinition) {
				defs[0].Validator = func(context.Context, any, map[string]any) (string, error) { return "", boom }
			},
		},
		{
			name: "before leave",
			modify: func(defs []StepDefinition) {
				defs[0].BeforeLeave = func(context.Context, any) (bool, error) { return false, boom }
			},
		},
		{
			name: "before enter",
			modify: func(defs []StepDefinition) {
				defs[1].BeforeEnter = func(context.Context, map[string]any) (bool, error) { return false, boom }
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := threeSteps()
			tt.modify(defs)
			w := newTestWizard(t, defs)

			ok, err := w.Next(context.Background())
			if ok {
				t.Error("Next() = true, want false")
			}
			if err != boom {
				t.Errorf("Next() error = %v, want %v unchanged", err, boom)
			}
			assertIndex(t, w, 0)
		})
	}
}

func TestContextReachesCollaborators(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "marker")

	var got []any
	defs := threeSteps()
	defs[0].Validator = func(ctx context.Context, _ any, _ map[string]any) (string, error) {
		got = append(got, ctx.Value(key{}))
		return "", nil
	}
	defs[0].BeforeLeave = func(ctx context.Context, _ any) (bool, error) {
		got = append(got, ctx.Value(key{}))
		return true, nil
	}
	defs[1].BeforeEnter = func(ctx context.Context, _ map[string]any) (bool, error) {
		got = append(got, ctx.Value(key{}))
		return true, nil
	}
	w := newTestWizard(t, defs)

	w.Next(ctx)
	if len(got) != 3 {
		t.Fatalf("collaborators called %d times, want 3", len(got))
	}
	for i, v := range got {
		if v != "marker" {
			t.Errorf("call %d saw context value %v", i, v)
		}
	}
}

func TestPrev(t *testing.T) {
	t.Run("first step", func(t *testing.T) {
		w := newTestWizard(t, threeSteps())
		before := w.Steps()
		if ok, _ := w.Prev(context.Background()); ok {
			t.Error("Prev() on first step = true")
		}
		if !reflect.DeepEqual(before, w.Steps()) {
			t.Error("Prev() on first step mutated state")
		}
	})

	t.Run("back disabled", func(t *testing.T) {
		opts := DefaultOptions()
		opts.AllowBack = false
		w := newTestWizard(t, threeSteps(), WithOptions(opts))
		ctx := context.Background()
		w.Next(ctx)
		before := w.Steps()

		if ok, _ := w.Prev(ctx); ok {
			t.Error("Prev() with AllowBack=false = true")
		}
		assertIndex(t, w, 1)
		if !reflect.DeepEqual(before, w.Steps()) {
			t.Error("Prev() with AllowBack=false mutated state")
		}
		if w.CanPrev() {
			t.Error("CanPrev() = true with AllowBack=false")
		}
	})

	t.Run("moves back without validation", func(t *testing.T) {
		defs := threeSteps()
		validated := 0
		defs[1].Validator = func(context.Context, any, map[string]any) (string, error) {
			validated++
			return "always wrong", nil
		}
		w := newTestWizard(t, defs)
		ctx := context.Background()
		w.Next(ctx)

		if ok, _ := w.Prev(ctx); !ok {
			t.Fatal("Prev() = false")
		}
		assertIndex(t, w, 0)
		assertStatus(t, w, 1, StatusPending)
		assertStatus(t, w, 0, StatusActive)
		if validated != 0 {
			t.Errorf("validator ran %d times on backward move", validated)
		}
	})
}

func TestGoTo(t *testing.T) {
	t.Run("out of range", func(t *testing.T) {
		w := newTestWizard(t, threeSteps())
		before := w.Steps()
		for _, target := range []Target{Index(-1), Index(3), Step("nope")} {
			if ok, err := w.GoTo(context.Background(), target); ok || err != nil {
				t.Errorf("GoTo(%v) = %v, %v, want false, nil", target, ok, err)
			}
		}
		assertIndex(t, w, 0)
		if !reflect.DeepEqual(before, w.Steps()) {
			t.Error("out-of-range GoTo mutated state")
		}
	})

	t.Run("linear blocks unvisited jump", func(t *testing.T) {
		w := newTestWizard(t, threeSteps())
		if ok, _ := w.GoTo(context.Background(), Step("confirm")); ok {
			t.Error("GoTo(confirm) = true under linear policy")
		}
		assertIndex(t, w, 0)
	})

	t.Run("linear allows visited jump", func(t *testing.T) {
		w := newTestWizard(t, threeSteps())
		ctx := context.Background()
		w.Next(ctx)
		w.Next(ctx)
		w.GoTo(ctx, Index(0))

		if ok, _ := w.GoTo(ctx, Index(2)); !ok {
			t.Fatal("GoTo(2) = false for visited step")
		}
		assertIndex(t, w, 2)
	})

	t.Run("allow jump", func(t *testing.T) {
		opts := DefaultOptions()
		opts.AllowJump = true
		w := newTestWizard(t, threeSteps(), WithOptions(opts))
		if ok, _ := w.GoTo(context.Background(), Step("confirm")); !ok {
			t.Fatal("GoTo(confirm) = false with AllowJump")
		}
		assertIndex(t, w, 2)
		assertStatus(t, w, 0, StatusCompleted)
	})

	t.Run("non linear", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Linear = false
		w := newTestWizard(t, threeSteps(), WithOptions(opts))
		if ok, _ := w.GoTo(context.Background(), Index(2)); !ok {
			t.Fatal("GoTo(2) = false with Linear=false")
		}
	})

	t.Run("without validate on leave", func(t *testing.T) {
		opts := DefaultOptions()
		opts.ValidateOnLeave = false
		defs := threeSteps()
		defs[0].Validator = requireName
		w := newTestWizard(t, defs, WithOptions(opts))

		if ok, _ := w.Next(context.Background()); !ok {
			t.Fatal("Next() = false with ValidateOnLeave=false")
		}
		assertStatus(t, w, 0, StatusPending)
	})

	t.Run("backward jump", func(t *testing.T) {
		w := newTestWizard(t, threeSteps())
		ctx := context.Background()
		w.Next(ctx)
		w.Next(ctx)

		if ok, _ := w.GoTo(ctx, Step("account")); !ok {
			t.Fatal("GoTo(account) = false")
		}
		assertIndex(t, w, 0)
		assertStatus(t, w, 2, StatusPending)
		assertStatus(t, w, 1, StatusCompleted)
	})
}

func TestSkip(t *testing.T) {
	t.Run("optional step", func(t *testing.T) {
		defs := threeSteps()
		defs[1].Optional = true
		w := newTestWizard(t, defs)
		ctx := context.Background()
		w.Next(ctx)

		ok, err := w.Skip(ctx)
		if err != nil || !ok {
			t.Fatalf("Skip() = %v, %v, want true, nil", ok, err)
		}
		assertIndex(t, w, 2)
		assertStatus(t, w, 1, StatusSkipped)
	})

	t.Run("required step", func(t *testing.T) {
		w := newTestWizard(t, threeSteps())
		before := w.Steps()
		if ok, _ := w.Skip(context.Background()); ok {
			t.Error("Skip() on required step = true")
		}
		if !reflect.DeepEqual(before, w.Steps()) {
			t.Error("Skip() on required step mutated state")
		}
	})

	t.Run("bypasses validation", func(t *testing.T) {
		defs := threeSteps()
		defs[0].Optional = true
		defs[0].Validator = requireName
		w := newTestWizard(t, defs)

		if ok, _ := w.Skip(context.Background()); !ok {
			t.Fatal("Skip() = false for optional step with invalid data")
		}
		assertStatus(t, w, 0, StatusSkipped)
		if w.Steps()[0].Error != "" {
			t.Errorf("skipped step Error = %q, want empty", w.Steps()[0].Error)
		}
	})

	t.Run("guard blocks but step stays skipped", func(t *testing.T) {
		defs := threeSteps()
		defs[0].Optional = true
		defs[1].BeforeEnter = func(context.Context, map[string]any) (bool, error) { return false, nil }
		w := newTestWizard(t, defs)

		if ok, _ := w.Skip(context.Background()); ok {
			t.Fatal("Skip() = true despite blocking guard")
		}
		assertIndex(t, w, 0)
		assertStatus(t, w, 0, StatusSkipped)
	})

	t.Run("last step", func(t *testing.T) {
		defs := threeSteps()
		defs[2].Optional = true
		opts := DefaultOptions()
		opts.AllowJump = true
		w := newTestWizard(t, defs, WithOptions(opts))
		ctx := context.Background()
		w.GoTo(ctx, Index(2))

		if ok, _ := w.Skip(ctx); ok {
			t.Error("Skip() on last step = true")
		}
		assertStatus(t, w, 2, StatusSkipped)
	})

	t.Run("revisited step can be skipped again", func(t *testing.T) {
		defs := threeSteps()
		defs[1].Optional = true
		w := newTestWizard(t, defs)
		ctx := context.Background()
		w.Next(ctx)
		w.Skip(ctx)
		w.Prev(ctx)

		assertStatus(t, w, 1, StatusActive)
		w.Skip(ctx)
		assertStatus(t, w, 1, StatusSkipped)
		assertIndex(t, w, 2)
	})
}

func TestValidateAll_SkipsOptionalSteps(t *testing.T) {
	defs := threeSteps()
	defs[1].Optional = true
	defs[1].Validator = func(context.Context, any, map[string]any) (string, error) {
		t.Error("optional step was validated")
		return "", nil
	}
	w := newTestWizard(t, defs)

	if ok, err := w.ValidateAll(context.Background()); !ok || err != nil {
		t.Errorf("ValidateAll() = %v, %v, want true, nil", ok, err)
	}
}

func TestValidateAll_RunsInOrderAndStopsAtFirstFailure(t *testing.T) {
	var order []string
	record := func(id, msg string) ValidatorFunc {
		return func(context.Context, any, map[string]any) (string, error) {
			order = append(order, id)
			return msg, nil
		}
	}
	defs := threeSteps()
	defs[0].Validator = record("account", "")
	defs[1].Validator = record("profile", "bad")
	defs[2].Validator = record("confirm", "bad")
	w := newTestWizard(t, defs)

	if ok, _ := w.ValidateAll(context.Background()); ok {
		t.Fatal("ValidateAll() = true")
	}
	// account, profile, then account again as GoTo validates the departing step.
	want := []string{"account", "profile", "account"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("validation order = %v, want %v", order, want)
	}
	assertIndex(t, w, 1)
}

func TestComplete(t *testing.T) {
	t.Run("failure navigates to failing step", func(t *testing.T) {
		completed := false
		defs := threeSteps()
		defs[1].Validator = requireName
		w := newTestWizard(t, defs, WithCompleteHandler(func(map[string]any) { completed = true }))

		data, err := w.Complete(context.Background())
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if data != nil {
			t.Errorf("Complete() = %v, want nil", data)
		}
		assertIndex(t, w, 1)
		if completed {
			t.Error("OnComplete invoked on failure")
		}
		if w.Steps()[1].Error == "" {
			t.Error("failing step has no error message")
		}
	})

	t.Run("failure on current step keeps error", func(t *testing.T) {
		defs := threeSteps()
		defs[0].Validator = requireName
		w := newTestWizard(t, defs)

		if data, _ := w.Complete(context.Background()); data != nil {
			t.Fatalf("Complete() = %v, want nil", data)
		}
		assertIndex(t, w, 0)
		assertStatus(t, w, 0, StatusError)
	})

	t.Run("success", func(t *testing.T) {
		var got map[string]any
		calls := 0
		w := newTestWizard(t, threeSteps(), WithCompleteHandler(func(data map[string]any) {
			calls++
			got = data
		}))
		w.SetStepData("account", map[string]any{"name": "alice"})

		data, err := w.Complete(context.Background())
		if err != nil || data == nil {
			t.Fatalf("Complete() = %v, %v", data, err)
		}
		if calls != 1 {
			t.Errorf("OnComplete called %d times, want 1", calls)
		}
		if !reflect.DeepEqual(got, data) {
			t.Errorf("OnComplete data = %v, want %v", got, data)
		}
		if _, ok := data["confirm"]; !ok {
			t.Error("aggregated data is missing a step key")
		}
	})

	t.Run("leaves step statuses unchanged", func(t *testing.T) {
		tests := []struct {
			name  string
			moves int
		}{
			{name: "from first step", moves: 0},
			{name: "from last step", moves: 2},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := newTestWizard(t, threeSteps())
				ctx := context.Background()
				for range tt.moves {
					w.Next(ctx)
				}
				before := w.Progress()

				if data, err := w.Complete(ctx); data == nil || err != nil {
					t.Fatalf("Complete() = %v, %v", data, err)
				}

				active := 0
				for _, st := range w.Steps() {
					if st.Status == StatusActive {
						active++
					}
				}
				if active != 1 {
					t.Errorf("active steps after Complete = %d, want 1 (steps %+v)", active, w.Steps())
				}
				assertStatus(t, w, tt.moves, StatusActive)
				if got := w.Progress(); got != before {
					t.Errorf("Progress() = %d after Complete, want %d", got, before)
				}
				if w.IsComplete() {
					t.Error("IsComplete() = true with the current step still active")
				}
			})
		}
	})
}

func TestProgress(t *testing.T) {
	defs := []StepDefinition{{ID: "a"}, {ID: "b", Optional: true}, {ID: "c"}, {ID: "d"}}
	w := newTestWizard(t, defs)
	ctx := context.Background()

	if got := w.Progress(); got != 0 {
		t.Errorf("Progress() = %d, want 0", got)
	}
	w.Next(ctx)
	if got := w.Progress(); got != 25 {
		t.Errorf("Progress() = %d, want 25", got)
	}
	w.Skip(ctx)
	if got := w.Progress(); got != 25 {
		t.Errorf("Progress() after skip = %d, want 25", got)
	}
	w.Next(ctx)
	if got := w.Progress(); got != 50 {
		t.Errorf("Progress() = %d, want 50", got)
	}
}

func TestProgress_Rounding(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{3, 3, 100},
	}
	for _, tt := range tests {
		states := make([]StepState, tt.total)
		for i := range tt.completed {
			states[i].Status = StatusCompleted
		}
		if got := progress(states); got != tt.want {
			t.Errorf("progress(%d/%d) = %d, want %d", tt.completed, tt.total, got, tt.want)
		}
	}
}

func TestIsComplete(t *testing.T) {
	defs := threeSteps()
	defs[2].Optional = true
	w := newTestWizard(t, defs)
	ctx := context.Background()

	w.Next(ctx)
	w.Next(ctx)
	if w.IsComplete() {
		t.Error("IsComplete() = true with active step")
	}
	w.Skip(ctx)
	if !w.IsComplete() {
		t.Errorf("IsComplete() = false, steps = %+v", w.Steps())
	}
}

func TestStepData(t *testing.T) {
	w := newTestWizard(t, threeSteps())
	payload := map[string]any{"name": "alice", "age": 30}

	if !w.SetStepData("profile", payload) {
		t.Fatal("SetStepData() = false")
	}
	got, ok := w.GetStepData("profile")
	if !ok || !reflect.DeepEqual(got, payload) {
		t.Errorf("GetStepData() = %v, %v, want %v", got, ok, payload)
	}

	if w.SetStepData("missing", 1) {
		t.Error("SetStepData(missing) = true")
	}
	if _, ok := w.GetStepData("missing"); ok {
		t.Error("GetStepData(missing) ok = true")
	}
	assertIndex(t, w, 0)
}

func TestAggregatedData_FreshMap(t *testing.T) {
	w := newTestWizard(t, threeSteps())
	w.SetStepData("account", "a")

	first := w.AggregatedData()
	first["account"] = "mutated"

	if got := w.AggregatedData()["account"]; got != "a" {
		t.Errorf("AggregatedData()[account] = %v, want a", got)
	}
	if len(first) != 3 {
		t.Errorf("len(AggregatedData()) = %d, want 3", len(first))
	}
}

func TestReset(t *testing.T) {
	w := newTestWizard(t, threeSteps())
	ctx := context.Background()
	w.SetStepData("account", "x")
	w.Next(ctx)
	w.Next(ctx)

	w.Reset()
	once := w.Steps()
	w.Reset()

	if !reflect.DeepEqual(once, w.Steps()) {
		t.Error("second Reset() changed state")
	}
	assertIndex(t, w, 0)
	if d, _ := w.GetStepData("account"); d != nil {
		t.Errorf("data after Reset() = %v, want nil", d)
	}
}

func TestExactlyOneActive(t *testing.T) {
	defs := []StepDefinition{{ID: "a"}, {ID: "b", Optional: true}, {ID: "c", Validator: requireName}, {ID: "d"}}
	w := newTestWizard(t, defs)
	ctx := context.Background()

	steps := []func(){
		func() { w.Next(ctx) },
		func() { w.Skip(ctx) },
		func() { w.Prev(ctx) },
		func() { w.Next(ctx) },
		func() { w.GoTo(ctx, Index(0)) },
		func() { w.GoTo(ctx, Index(1)) },
		func() { w.Complete(ctx) },
		func() { w.Reset() },
	}
	for i, step := range steps {
		step()
		if n := countActive(w.Steps()); n != 1 {
			t.Fatalf("after op %d: %d active steps, want 1: %+v", i, n, w.Steps())
		}
	}
}

func TestStepChangeHandlerAndEvents(t *testing.T) {
	bus := event.NewBus()
	var changes [][2]int
	var blocked []string
	var published []event.StepChangedEvent

	bus.Subscribe(event.TypeStepChanged, func(e event.Event) {
		published = append(published, e.(event.StepChangedEvent))
	})
	bus.Subscribe(event.TypeNavigationBlocked, func(e event.Event) {
		blocked = append(blocked, e.(event.NavigationBlockedEvent).Reason)
	})

	w := newTestWizard(t, threeSteps(),
		WithBus(bus),
		WithStepChangeHandler(func(from, to int) { changes = append(changes, [2]int{from, to}) }),
	)
	if w.Bus() != bus {
		t.Fatal("Bus() did not return the configured bus")
	}
	ctx := context.Background()

	w.Next(ctx)
	w.Skip(ctx)
	w.GoTo(ctx, Index(9))

	if want := [][2]int{{0, 1}}; !reflect.DeepEqual(changes, want) {
		t.Errorf("step changes = %v, want %v", changes, want)
	}
	if len(published) != 1 || published[0].FromID != "account" || published[0].ToID != "profile" {
		t.Errorf("published = %+v", published)
	}
	want := []string{event.BlockedByInvalidSkip, event.BlockedByOutOfRange}
	if !reflect.DeepEqual(blocked, want) {
		t.Errorf("blocked reasons = %v, want %v", blocked, want)
	}
}

func TestCompletePublishesEvent(t *testing.T) {
	w := newTestWizard(t, threeSteps())
	var got map[string]any
	w.Bus().Subscribe(event.TypeWizardCompleted, func(e event.Event) {
		got = e.(event.WizardCompletedEvent).Data
	})

	if _, err := w.Complete(context.Background()); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("completed event data = %v", got)
	}
}

func TestHandlerPanicGoesToRunLogger(t *testing.T) {
	tests := []struct {
		name      string
		ownBus    bool
		wantInRun bool
	}{
		{name: "private bus", ownBus: false, wantInRun: true},
		{name: "caller bus keeps its logger", ownBus: true, wantInRun: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var runLog bytes.Buffer
			opts := []Option{WithLogger(logging.NewConsoleLogger(&runLog, logging.LevelDebug, true).WithRun("run-1"))}

			var busLog bytes.Buffer
			if tt.ownBus {
				bus := event.NewBus()
				bus.SetLogger(logging.NewConsoleLogger(&busLog, logging.LevelDebug, true).Slog())
				opts = append(opts, WithBus(bus))
			}

			w := newTestWizard(t, threeSteps(), opts...)
			w.Bus().Subscribe(event.TypeStepChanged, func(event.Event) {
				panic("handler failed")
			})

			if ok, err := w.Next(context.Background()); !ok || err != nil {
				t.Fatalf("Next() = %v, %v; a panicking handler must not block navigation", ok, err)
			}

			inRun := strings.Contains(runLog.String(), "event handler panicked")
			if inRun != tt.wantInRun {
				t.Errorf("panic in run log = %v, want %v (run log %q)", inRun, tt.wantInRun, runLog.String())
			}
			if tt.wantInRun && !strings.Contains(runLog.String(), "run-1") {
				t.Errorf("panic record lacks the run attributes: %q", runLog.String())
			}
			if tt.ownBus && !strings.Contains(busLog.String(), "event handler panicked") {
				t.Errorf("caller bus logger did not get the panic: %q", busLog.String())
			}
		})
	}
}
