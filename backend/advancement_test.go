// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"reflect"
	"testing"
)

func findOutcome(outcomes []AdvancementOutcome, after BaserunnerState) *AdvancementOutcome {
	for i := range outcomes {
		if outcomes[i].After.Equal(after) {
			return &outcomes[i]
		}
	}
	return nil
}

func TestComputeAdvancement(t *testing.T) {
	cfg := DefaultRuleConfiguration()

	tests := []struct {
		name       string
		before     BaserunnerState
		result     BattingResult
		params     AdvancementParams
		wantAfter  BaserunnerState
		wantScored []string
		wantRBIs   int
		wantOuts   int
	}{
		{
			name:       "walk with bases loaded forces in a run",
			before:     NewBaserunnerState("p2", "p3", "p4"),
			result:     ResultWalk,
			wantAfter:  NewBaserunnerState("batter", "p2", "p3"),
			wantScored: []string{"p4"},
			wantRBIs:   1,
		},
		{
			name:      "walk with runner on second only does not move the runner",
			before:    NewBaserunnerState("", "p3", ""),
			result:    ResultWalk,
			wantAfter: NewBaserunnerState("batter", "p3", ""),
		},
		{
			name:       "home run clears the bases",
			before:     NewBaserunnerState("p2", "p3", "p4"),
			result:     ResultHomeRun,
			wantAfter:  EmptyBases(),
			wantScored: []string{"p2", "p3", "p4", "batter"},
			wantRBIs:   4,
		},
		{
			name:      "strikeout holds all runners",
			before:    NewBaserunnerState("p2", "", "p4"),
			result:    ResultStrikeout,
			wantAfter: NewBaserunnerState("p2", "", "p4"),
			wantOuts:  1,
		},
		{
			name:      "single advances runners one base",
			before:    NewBaserunnerState("", "p3", ""),
			result:    ResultSingle,
			wantAfter: NewBaserunnerState("batter", "", "p3"),
		},
		{
			name:      "double play takes the trailing runner",
			before:    NewBaserunnerState("p2", "p3", ""),
			result:    ResultDoublePlay,
			wantAfter: NewBaserunnerState("", "p3", ""),
			wantOuts:  2,
		},
		{
			name:      "fielder's choice erases the lead runner",
			before:    NewBaserunnerState("p2", "", ""),
			result:    ResultFieldersChoice,
			wantAfter: NewBaserunnerState("batter", "", ""),
			wantOuts:  1,
		},
		{
			name:       "sacrifice moves every runner up",
			before:     NewBaserunnerState("", "p3", "p4"),
			result:     ResultSacrifice,
			wantAfter:  NewBaserunnerState("", "", "p3"),
			wantScored: []string{"p4"},
			wantRBIs:   1,
			wantOuts:   1,
		},
		{
			name:       "error strips RBI credit",
			before:     NewBaserunnerState("p2", "", ""),
			result:     ResultDouble,
			params:     AdvancementParams{ErrorOccurred: true},
			wantAfter:  NewBaserunnerState("", "", "batter"),
			wantScored: []string{"p2"},
			wantRBIs:   0,
		},
		{
			name:      "running error removes the lead runner",
			before:    NewBaserunnerState("p2", "", ""),
			result:    ResultSingle,
			params:    AdvancementParams{RunningErrorOccurred: true},
			wantAfter: NewBaserunnerState("batter", "", ""),
			wantOuts:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeAdvancement(cfg, tt.before, "batter", tt.result, tt.params)
			if err != nil {
				t.Fatalf("ComputeAdvancement() error = %v", err)
			}
			if !got.After.Equal(tt.wantAfter) {
				t.Errorf("After = %+v, want %+v", got.After, tt.wantAfter)
			}
			if !reflect.DeepEqual(got.Scored, tt.wantScored) && !(len(got.Scored) == 0 && len(tt.wantScored) == 0) {
				t.Errorf("Scored = %v, want %v", got.Scored, tt.wantScored)
			}
			if got.RBIs != tt.wantRBIs {
				t.Errorf("RBIs = %d, want %d", got.RBIs, tt.wantRBIs)
			}
			if got.Outs != tt.wantOuts {
				t.Errorf("Outs = %d, want %d", got.Outs, tt.wantOuts)
			}
		})
	}
}

func TestComputeAdvancement_Invalid(t *testing.T) {
	cfg := DefaultRuleConfiguration()

	tests := []struct {
		name     string
		before   BaserunnerState
		batterID string
		result   BattingResult
	}{
		{"empty batter id", EmptyBases(), "", ResultSingle},
		{"unknown result", EmptyBases(), "batter", BattingResult("E")},
		{"duplicate runner", NewBaserunnerState("a", "a", ""), "batter", ResultSingle},
		{"batter already on base", NewBaserunnerState("batter", "", ""), "batter", ResultSingle},
		{"double play with empty bases", EmptyBases(), "batter", ResultDoublePlay},
		{"fielder's choice with empty bases", EmptyBases(), "batter", ResultFieldersChoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeAdvancement(cfg, tt.before, tt.batterID, tt.result, AdvancementParams{})
			if err == nil {
				t.Fatalf("ComputeAdvancement() expected an error")
			}
			if err.Code != CodeValidation {
				t.Errorf("Code = %s, want %s", err.Code, CodeValidation)
			}
		})
	}
}

func TestEnumerateOutcomes_DoubleWithRunnerOnFirst(t *testing.T) {
	cfg := DefaultRuleConfiguration()
	before := NewBaserunnerState("p2", "", "")

	outcomes := EnumerateOutcomes(cfg, before, "batter", ResultDouble, AdvancementParams{})
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes at standard aggressiveness, got %d: %+v", len(outcomes), outcomes)
	}

	// Runner stops at third.
	held := findOutcome(outcomes, NewBaserunnerState("", "batter", "p2"))
	if held == nil {
		t.Fatalf("missing outcome with runner held at third")
	}
	if len(held.Scored) != 0 || held.RBIs != 0 || held.Outs != 0 {
		t.Errorf("held outcome = %+v, want no runs, no outs", held)
	}

	// Runner stretches home.
	scored := findOutcome(outcomes, NewBaserunnerState("", "batter", ""))
	if scored == nil {
		t.Fatalf("missing outcome with runner scoring from first")
	}
	if !reflect.DeepEqual(scored.Scored, []string{"p2"}) || scored.RBIs != 1 {
		t.Errorf("scoring outcome = %+v, want p2 scoring with 1 RBI", scored)
	}
}

func TestEnumerateOutcomes_HomeRunBasesLoaded(t *testing.T) {
	cfg := DefaultRuleConfiguration()
	before := NewBaserunnerState("p2", "p3", "p4")

	outcomes := EnumerateOutcomes(cfg, before, "batter", ResultHomeRun, AdvancementParams{})
	if len(outcomes) != 1 {
		t.Fatalf("expected exactly 1 home-run outcome, got %d", len(outcomes))
	}
	out := outcomes[0]
	if !out.After.Equal(EmptyBases()) {
		t.Errorf("home run must clear the bases, got %+v", out.After)
	}
	if !reflect.DeepEqual(out.Scored, []string{"p2", "p3", "p4", "batter"}) {
		t.Errorf("Scored = %v", out.Scored)
	}
	if out.RBIs != 4 {
		t.Errorf("RBIs = %d, want 4", out.RBIs)
	}
}

func TestEnumerateOutcomes_WalkForceChainOnly(t *testing.T) {
	cfg := DefaultRuleConfiguration()

	outcomes := EnumerateOutcomes(cfg, NewBaserunnerState("p2", "p3", "p4"), "batter", ResultWalk, AdvancementParams{})
	if len(outcomes) != 1 {
		t.Fatalf("walk must have exactly 1 outcome, got %d", len(outcomes))
	}
	if !outcomes[0].After.Equal(NewBaserunnerState("batter", "p2", "p3")) {
		t.Errorf("After = %+v", outcomes[0].After)
	}
	if !reflect.DeepEqual(outcomes[0].Scored, []string{"p4"}) || outcomes[0].RBIs != 1 {
		t.Errorf("forced run not credited: %+v", outcomes[0])
	}

	// Unforced runner holds.
	outcomes = EnumerateOutcomes(cfg, NewBaserunnerState("", "p3", ""), "batter", ResultWalk, AdvancementParams{})
	if len(outcomes) != 1 || !outcomes[0].After.Equal(NewBaserunnerState("batter", "p3", "")) {
		t.Errorf("unforced runner must hold on a walk: %+v", outcomes)
	}
}

func TestEnumerateOutcomes_OutsFloor(t *testing.T) {
	cfg := DefaultRuleConfiguration()

	// A fielder's choice must record its out: candidates where every
	// runner survives are discarded.
	outcomes := EnumerateOutcomes(cfg, NewBaserunnerState("p2", "", ""), "batter", ResultFieldersChoice, AdvancementParams{})
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 FC outcome, got %d: %+v", len(outcomes), outcomes)
	}
	if outcomes[0].Outs != 1 || !outcomes[0].After.Equal(NewBaserunnerState("batter", "", "")) {
		t.Errorf("FC outcome = %+v", outcomes[0])
	}

	// A double play needs two outs.
	outcomes = EnumerateOutcomes(cfg, NewBaserunnerState("p2", "", ""), "batter", ResultDoublePlay, AdvancementParams{})
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 DP outcome, got %d: %+v", len(outcomes), outcomes)
	}
	if outcomes[0].Outs != 2 || !outcomes[0].After.Equal(EmptyBases()) {
		t.Errorf("DP outcome = %+v", outcomes[0])
	}
}

func TestEnumerateOutcomes_Aggressiveness(t *testing.T) {
	cfg := DefaultRuleConfiguration()
	before := NewBaserunnerState("p2", "", "")

	conservative := EnumerateOutcomes(cfg, before, "batter", ResultSingle,
		AdvancementParams{Aggressiveness: AggressivenessConservative})
	if len(conservative) != 1 {
		t.Errorf("conservative single: want 1 outcome, got %d", len(conservative))
	}

	standard := EnumerateOutcomes(cfg, before, "batter", ResultSingle, AdvancementParams{})
	if len(standard) != 2 {
		t.Errorf("standard single: want 2 outcomes, got %d", len(standard))
	}

	aggressive := EnumerateOutcomes(cfg, before, "batter", ResultSingle,
		AdvancementParams{Aggressiveness: AggressivenessAggressive})
	if len(aggressive) != 3 {
		t.Errorf("aggressive single: want 3 outcomes, got %d", len(aggressive))
	}
	if out := findOutcome(aggressive, NewBaserunnerState("batter", "", "")); out == nil {
		t.Errorf("aggressive single missing runner-scores outcome")
	}
}

func TestEnumerateOutcomes_RunningError(t *testing.T) {
	cfg := DefaultRuleConfiguration()
	before := NewBaserunnerState("p2", "", "")

	// Without a running error a strikeout has one outcome.
	plain := EnumerateOutcomes(cfg, before, "batter", ResultStrikeout, AdvancementParams{})
	if len(plain) != 1 || plain[0].Outs != 1 {
		t.Fatalf("plain strikeout enumeration wrong: %+v", plain)
	}

	// A declared running error permits the runner to be doubled off.
	withErr := EnumerateOutcomes(cfg, before, "batter", ResultStrikeout,
		AdvancementParams{RunningErrorOccurred: true})
	if len(withErr) != 2 {
		t.Fatalf("expected 2 outcomes with running error, got %d", len(withErr))
	}
	doubled := findOutcome(withErr, EmptyBases())
	if doubled == nil || doubled.Outs != 2 {
		t.Errorf("missing doubled-off outcome: %+v", withErr)
	}
}

func TestEnumerateOutcomes_Invalid(t *testing.T) {
	cfg := DefaultRuleConfiguration()

	if out := EnumerateOutcomes(cfg, EmptyBases(), "", ResultSingle, AdvancementParams{}); out != nil {
		t.Errorf("empty batter id must yield nil")
	}
	if out := EnumerateOutcomes(cfg, EmptyBases(), "batter", ResultSacrifice, AdvancementParams{}); out != nil {
		t.Errorf("sacrifice with empty bases must yield nil")
	}
	if out := EnumerateOutcomes(cfg, NewBaserunnerState("batter", "", ""), "batter", ResultSingle, AdvancementParams{}); out != nil {
		t.Errorf("batter already on base must yield nil")
	}
}

func TestValidateTransition_Structural(t *testing.T) {
	cfg := DefaultRuleConfiguration()

	tests := []struct {
		name     string
		before   BaserunnerState
		after    BaserunnerState
		batterID string
		result   BattingResult
		scored   []string
		outsIn   int
	}{
		{"empty batter", EmptyBases(), EmptyBases(), "", ResultStrikeout, nil, 0},
		{"unknown result", EmptyBases(), EmptyBases(), "b", BattingResult("E"), nil, 0},
		{"batter on base before", NewBaserunnerState("b", "", ""), EmptyBases(), "b", ResultStrikeout, nil, 0},
		{"outs already out of range", EmptyBases(), EmptyBases(), "b", ResultStrikeout, nil, 3},
		{"scorer not a participant", NewBaserunnerState("p2", "", ""), NewBaserunnerState("b", "", ""), "b", ResultSingle, []string{"ghost"}, 0},
		{"duplicate scorer", NewBaserunnerState("", "", "p4"), NewBaserunnerState("b", "", ""), "b", ResultSingle, []string{"p4", "p4"}, 0},
		{"runner from nowhere", EmptyBases(), NewBaserunnerState("b", "ghost", ""), "b", ResultSingle, nil, 0},
		{"score and stay", NewBaserunnerState("", "", "p4"), NewBaserunnerState("b", "", "p4"), "b", ResultSingle, []string{"p4"}, 0},
		{"runner retreats", NewBaserunnerState("", "p3", ""), NewBaserunnerState("p3", "b", ""), "b", ResultSingle, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(cfg, tt.before, tt.after, tt.batterID, tt.result,
				tt.scored, 0, tt.outsIn, AdvancementParams{})
			if err == nil {
				t.Fatalf("expected a validation error")
			}
			if err.Code != CodeValidation {
				t.Errorf("Code = %s, want %s", err.Code, CodeValidation)
			}
		})
	}
}

func TestValidateTransition_BatterFate(t *testing.T) {
	cfg := DefaultRuleConfiguration()

	tests := []struct {
		name   string
		after  BaserunnerState
		result BattingResult
		scored []string
		rbis   int
		params AdvancementParams
		ok     bool
	}{
		{
			name:   "home run with the batter unaccounted for",
			after:  EmptyBases(),
			result: ResultHomeRun,
		},
		{
			name:   "home run scoring the batter",
			after:  EmptyBases(),
			result: ResultHomeRun,
			scored: []string{"batter"},
			rbis:   1,
			ok:     true,
		},
		{
			name:   "strikeout with the batter on base",
			after:  NewBaserunnerState("batter", "", ""),
			result: ResultStrikeout,
		},
		{
			name:   "dropped third strike reaches on the error",
			after:  NewBaserunnerState("batter", "", ""),
			result: ResultStrikeout,
			params: AdvancementParams{ErrorOccurred: true},
			ok:     true,
		},
		{
			name:   "single with the batter vanishing",
			after:  EmptyBases(),
			result: ResultSingle,
		},
		{
			name:   "single with the batter thrown out stretching",
			after:  EmptyBases(),
			result: ResultSingle,
			params: AdvancementParams{RunningErrorOccurred: true},
			ok:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(cfg, EmptyBases(), tt.after, "batter", tt.result,
				tt.scored, tt.rbis, 0, tt.params)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected a batter-fate validation error")
			}
			if err.Code != CodeValidation {
				t.Errorf("Code = %s, want %s", err.Code, CodeValidation)
			}
		})
	}
}

func TestValidateTransition_RunnerlessForceResults(t *testing.T) {
	cfg := DefaultRuleConfiguration()

	for _, result := range []BattingResult{ResultDoublePlay, ResultFieldersChoice} {
		t.Run(string(result), func(t *testing.T) {
			err := ValidateTransition(cfg, EmptyBases(), EmptyBases(), "batter", result,
				nil, 0, 0, AdvancementParams{})
			if err == nil {
				t.Fatalf("%s with empty bases must be rejected", result)
			}
			if err.Code != CodeValidation {
				t.Errorf("Code = %s, want %s", err.Code, CodeValidation)
			}
		})
	}
}

func TestValidateTransition_NoPassing(t *testing.T) {
	cfg := DefaultRuleConfiguration()

	// Batter finishes at second while the runner from first holds.
	err := ValidateTransition(cfg,
		NewBaserunnerState("p2", "", ""),
		NewBaserunnerState("p2", "batter", ""),
		"batter", ResultDouble, nil, 0, 0, AdvancementParams{})
	if err == nil {
		t.Fatalf("expected a no-passing violation")
	}
	if err.Code != CodeRuleViolation || err.Rule != RuleNoPassing {
		t.Errorf("got %s/%s, want %s/%s", err.Code, err.Rule, CodeRuleViolation, RuleNoPassing)
	}

	// Passing is fine when the lead runner scored.
	err = ValidateTransition(cfg,
		NewBaserunnerState("", "", "p4"),
		NewBaserunnerState("", "batter", ""),
		"batter", ResultDouble, []string{"p4"}, 1, 0, AdvancementParams{})
	if err != nil {
		t.Errorf("lead runner scoring frees the base: %v", err)
	}
}

func TestValidateTransition_RBIBound(t *testing.T) {
	cfg := DefaultRuleConfiguration()
	before := NewBaserunnerState("", "", "p4")
	after := NewBaserunnerState("batter", "", "")

	tests := []struct {
		name   string
		scored []string
		rbis   int
		result BattingResult
		ok     bool
	}{
		{"match", []string{"p4"}, 1, ResultSingle, true},
		{"out of range", []string{"p4"}, 5, ResultSingle, false},
		{"exceeds runs", []string{"p4"}, 2, ResultSingle, false},
		{"undercounts without exemption", []string{"p4"}, 0, ResultSingle, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(cfg, before, after, "batter", tt.result,
				tt.scored, tt.rbis, 0, AdvancementParams{})
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected an RBI bound violation")
			}
			if err.Rule != RuleRBIBound {
				t.Errorf("Rule = %s, want %s", err.Rule, RuleRBIBound)
			}
		})
	}

	// Groundouts are in the no-RBI set: a run may score without credit.
	err := ValidateTransition(cfg, before, EmptyBases(), "batter", ResultGroundout,
		[]string{"p4"}, 0, 0, AdvancementParams{})
	if err != nil {
		t.Errorf("groundout run without RBI must pass: %v", err)
	}
}

func TestValidateTransition_MaxOuts(t *testing.T) {
	cfg := DefaultRuleConfiguration()

	// Two outs recorded with two already in the inning.
	err := ValidateTransition(cfg,
		NewBaserunnerState("p2", "", ""),
		EmptyBases(),
		"batter", ResultDoublePlay, nil, 0, 2, AdvancementParams{})
	if err == nil {
		t.Fatalf("expected a max-outs violation")
	}
	if err.Rule != RuleMaxOuts {
		t.Errorf("Rule = %s, want %s", err.Rule, RuleMaxOuts)
	}

	// The same play with no outs yet is the inning-ending boundary case.
	err = ValidateTransition(cfg,
		NewBaserunnerState("p2", "", ""),
		EmptyBases(),
		"batter", ResultDoublePlay, nil, 0, 1, AdvancementParams{})
	if err != nil {
		t.Errorf("double play with one out must pass: %v", err)
	}
}

func TestValidateTransition_ErrorAttribution(t *testing.T) {
	cfg := DefaultRuleConfiguration()
	before := NewBaserunnerState("", "", "p4")

	err := ValidateTransition(cfg, before, NewBaserunnerState("batter", "", ""),
		"batter", ResultSingle, []string{"p4"}, 1, 0, AdvancementParams{ErrorOccurred: true})
	if err == nil {
		t.Fatalf("expected an error-attribution violation")
	}
	if err.Code != CodeConfigurableRule || err.Rule != RuleErrorAttribution {
		t.Errorf("got %s/%s", err.Code, err.Rule)
	}

	// Disabled, the rule is simply not evaluated.
	off := cfg
	off.ErrorAttribution = false
	err = ValidateTransition(off, before, NewBaserunnerState("batter", "", ""),
		"batter", ResultSingle, []string{"p4"}, 1, 0, AdvancementParams{ErrorOccurred: true})
	if err != nil {
		t.Errorf("disabled rule must not fire: %v", err)
	}
}

func TestValidateTransition_RunningError(t *testing.T) {
	cfg := DefaultRuleConfiguration()
	cfg.RunningErrorVariations = true

	// A strikeout that also erases the runner needs a declared running error.
	err := ValidateTransition(cfg,
		NewBaserunnerState("p2", "", ""),
		EmptyBases(),
		"batter", ResultStrikeout, nil, 0, 0, AdvancementParams{})
	if err == nil {
		t.Fatalf("expected a running-error violation")
	}
	if err.Code != CodeConfigurableRule || err.Rule != RuleRunningError {
		t.Errorf("got %s/%s", err.Code, err.Rule)
	}

	err = ValidateTransition(cfg,
		NewBaserunnerState("p2", "", ""),
		EmptyBases(),
		"batter", ResultStrikeout, nil, 0, 0, AdvancementParams{RunningErrorOccurred: true})
	if err != nil {
		t.Errorf("declared running error must pass: %v", err)
	}
}
