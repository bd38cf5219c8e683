package workflow

import (
	"errors"
	"testing"
)

func TestStage_IsTerminal(t *testing.T) {
	tests := []struct {
		stage    Stage
		expected bool
	}{
		{StageApplied, false},
		{StageScreening, false},
		{StageInterview, false},
		{StageOffer, false},
		{StageHired, true},
		{StageRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			if got := tt.stage.IsTerminal(); got != tt.expected {
				t.Errorf("Stage.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Stage
		wantErr bool
	}{
		{"applied", "Applied", StageApplied, false},
		{"hired", "Hired", StageHired, false},
		{"lowercase", "screening", "", true},
		{"uppercase", "OFFER", "", true},
		{"padded", " Interview", "", true},
		{"empty", "", "", true},
		{"unknown", "Onboarding", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStage(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStage(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidStage) {
				t.Errorf("ParseStage(%q) error = %v, want ErrInvalidStage", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseStage(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStages_PipelineOrder(t *testing.T) {
	stages := Stages()
	if len(stages) != 6 {
		t.Fatalf("Stages() returned %d stages, want 6", len(stages))
	}
	if stages[0] != StageApplied || stages[4] != StageHired {
		t.Errorf("Stages() = %v, want pipeline order", stages)
	}

	// callers must not be able to mutate the package order
	stages[0] = StageRejected
	if Stages()[0] != StageApplied {
		t.Error("Stages() returned a shared slice")
	}
}

func TestIsLegal_ExhaustiveMatrix(t *testing.T) {
	legal := map[Transition]bool{
		{StageApplied, StageScreening}:   true,
		{StageScreening, StageInterview}: true,
		{StageInterview, StageOffer}:     true,
		{StageOffer, StageHired}:         true,
		{StageApplied, StageRejected}:    true,
		{StageScreening, StageRejected}:  true,
		{StageInterview, StageRejected}:  true,
		{StageOffer, StageRejected}:      true,
	}

	for _, from := range Stages() {
		for _, to := range Stages() {
			want := legal[Transition{from, to}]
			if got := IsLegal(from, to); got != want {
				t.Errorf("IsLegal(%s → %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestIsLegal_TerminalStagesHaveNoOutgoing(t *testing.T) {
	for _, from := range []Stage{StageHired, StageRejected} {
		for _, to := range Stages() {
			if IsLegal(from, to) {
				t.Errorf("IsLegal(%s → %s) must be false: %s is terminal", from, to, from)
			}
		}
		if targets := DefaultTable().Targets(from); len(targets) != 0 {
			t.Errorf("Targets(%s) = %v, want none", from, targets)
		}
	}
}

func TestIsLegal_SelfTransition(t *testing.T) {
	for _, s := range Stages() {
		if IsLegal(s, s) {
			t.Errorf("IsLegal(%s → %s) should be false (self)", s, s)
		}
	}
}

func TestIsLegal_UnknownStages(t *testing.T) {
	if IsLegal(Stage("Onboarding"), StageRejected) {
		t.Error("unknown source stage must not be legal")
	}
	if IsLegal(StageApplied, Stage("")) {
		t.Error("empty target stage must not be legal")
	}
}

func TestTable_Pairs(t *testing.T) {
	pairs := DefaultTable().Pairs()
	if len(pairs) != 8 {
		t.Fatalf("Pairs() returned %d transitions, want 8", len(pairs))
	}
	if pairs[0] != (Transition{StageApplied, StageScreening}) {
		t.Errorf("Pairs()[0] = %v, want Applied → Screening", pairs[0])
	}
	for _, p := range pairs {
		if !IsLegal(p.From, p.To) {
			t.Errorf("Pairs() listed illegal transition %s → %s", p.From, p.To)
		}
	}
}

func TestBuilder_ConfigureReturnsSameConfig(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StageApplied)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}
	if config2 := builder.Configure(StageApplied); config != config2 {
		t.Error("Configure() should return same config for same stage")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidStage(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid stage")
		}
	}()

	builder.Configure(Stage("INVALID"))
}

func TestBuilder_PermitPanicsOnSelfTransition(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on self-transition")
		}
	}()

	builder.Configure(StageOffer).Permit(StageOffer)
}

func TestBuilder_PermitPanicsOnInvalidTarget(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid target stage")
		}
	}()

	builder.Configure(StageApplied).Permit(Stage("INVALID"))
}

func TestBuilder_BuiltTableIsImmutable(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StageApplied).Permit(StageScreening)

	table := builder.Build()

	builder.Configure(StageApplied).Permit(StageRejected)

	if table.IsLegal(StageApplied, StageRejected) {
		t.Error("table built earlier must not see later Permit calls")
	}
	if !builder.Build().IsLegal(StageApplied, StageRejected) {
		t.Error("a fresh Build() should include the new transition")
	}
}

func TestBuilder_DuplicatePermitIsIgnored(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StageApplied).
		Permit(StageScreening).
		Permit(StageScreening)

	if got := builder.Build().Targets(StageApplied); len(got) != 1 {
		t.Errorf("Targets() = %v, want a single entry", got)
	}
}
