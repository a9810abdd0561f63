package strategy

import (
	"errors"
	"testing"
)

func TestParams_Validate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"level gap", func(p *Params) { p.Ladder[1].Level = 3 }},
		{"factor above one", func(p *Params) { p.Ladder[0].Factor = 1.01 }},
		{"zero factor", func(p *Params) { p.Ladder[1].Factor = 0 }},
		{"zero quantity", func(p *Params) { p.Ladder[0].Quantity = 0 }},
		{"take profit at par", func(p *Params) { p.TakeProfit = 1 }},
		{"zero initial quantity", func(p *Params) { p.InitialQuantity = 0 }},
	}
	for _, tt := range tests {
		p := DefaultParams()
		tt.mutate(&p)
		if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("%s: expected ErrInvalidParams, got %v", tt.name, err)
		}
	}
}

func TestDefaultParams_Independent(t *testing.T) {
	p := DefaultParams()
	p.Ladder[0].Factor = 0.5
	if DefaultLadder[0].Factor != 0.97 {
		t.Error("DefaultParams must copy the default ladder")
	}
	if DefaultParams().TerminalLevel() != 3 {
		t.Errorf("expected terminal level 3, got %d", DefaultParams().TerminalLevel())
	}
}

func TestEmptyLadder_NeverStages(t *testing.T) {
	p := DefaultParams()
	p.Ladder = nil
	pos, err := NewPosition("X", 100, p)
	if err != nil {
		t.Fatal(err)
	}
	if staged, _ := pos.EvaluateEntry(1); staged || pos.Level() != 1 {
		t.Error("empty ladder must not stage")
	}
}
