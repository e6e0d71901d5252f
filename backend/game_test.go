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

import "testing"

func play(batterID string, before, after BaserunnerState, scored ...string) AtBat {
	return AtBat{
		BatterID: batterID,
		Before:   before,
		After:    after,
		Scored:   scored,
	}
}

func TestGameLifecycle(t *testing.T) {
	g := NewGame("owner@example.com")
	if g.Status != StatusSetup {
		t.Fatalf("new game status = %q", g.Status)
	}

	// Cannot start without both lineups.
	if err := g.Start(); err == nil || err.Code != CodeStateMachine {
		t.Errorf("start without lineups: got %v", err)
	}
	g.Lineups[SideAway] = &Lineup{}
	if err := g.Start(); err == nil {
		t.Errorf("start with one lineup must fail")
	}
	g.Lineups[SideHome] = &Lineup{}
	if err := g.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if g.Status != StatusInProgress || g.CurrentInning != 1 || g.CurrentHalf != HalfTop {
		t.Errorf("started game = %q inning %d %s", g.Status, g.CurrentInning, g.CurrentHalf)
	}

	// Double start is illegal.
	if err := g.Start(); err == nil || err.Code != CodeStateMachine {
		t.Errorf("double start: got %v", err)
	}

	if err := g.Suspend(); err != nil {
		t.Fatalf("Suspend() error = %v", err)
	}
	// Only suspended games resume.
	if err := g.Complete(); err == nil {
		t.Errorf("completing a suspended game must fail")
	}
	if err := g.Resume(); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if err := g.Complete(); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if err := g.Resume(); err == nil || err.Code != CodeStateMachine {
		t.Errorf("resuming a completed game: got %v", err)
	}
}

func TestAdvanceHalf(t *testing.T) {
	g := inProgressGame()

	// Three outs in the top of the first.
	in := g.CurrentInningState()
	in.Outs = 2
	g.applyPlay(play("p1", EmptyBases(), EmptyBases()), 1)
	if g.CurrentInning != 1 || g.CurrentHalf != HalfBottom {
		t.Fatalf("after 3 outs: inning %d %s", g.CurrentInning, g.CurrentHalf)
	}
	if !in.Complete {
		t.Errorf("half-inning not marked complete")
	}

	// Three outs in the bottom advance to the next inning.
	g.CurrentInningState().Outs = 2
	g.applyPlay(play("p9", EmptyBases(), EmptyBases()), 1)
	if g.CurrentInning != 2 || g.CurrentHalf != HalfTop {
		t.Errorf("after bottom half: inning %d %s", g.CurrentInning, g.CurrentHalf)
	}
}

func TestGameEnd_HomeAheadSkipsBottom(t *testing.T) {
	g := inProgressGame()
	g.CurrentInning = g.ScheduledInnings
	g.CurrentHalf = HalfTop
	g.Score = Score{Away: 2, Home: 5}

	g.CurrentInningState().Outs = 2
	g.applyPlay(play("p1", EmptyBases(), EmptyBases()), 1)
	if g.Status != StatusCompleted {
		t.Errorf("home team ahead after the top of the final inning must end the game, status %q", g.Status)
	}
}

func TestGameEnd_FinalInningDecision(t *testing.T) {
	g := inProgressGame()
	g.CurrentInning = g.ScheduledInnings
	g.CurrentHalf = HalfBottom
	g.Score = Score{Away: 4, Home: 2}

	g.CurrentInningState().Outs = 2
	g.applyPlay(play("p5", EmptyBases(), EmptyBases()), 1)
	if g.Status != StatusCompleted {
		t.Errorf("decided final inning must end the game, status %q", g.Status)
	}
}

func TestGameEnd_TieGoesToExtras(t *testing.T) {
	g := inProgressGame()
	g.CurrentInning = g.ScheduledInnings
	g.CurrentHalf = HalfBottom
	g.Score = Score{Away: 3, Home: 3}

	g.CurrentInningState().Outs = 2
	g.applyPlay(play("p5", EmptyBases(), EmptyBases()), 1)
	if g.Status != StatusInProgress {
		t.Fatalf("tie game must continue, status %q", g.Status)
	}
	if g.CurrentInning != g.ScheduledInnings+1 || g.CurrentHalf != HalfTop {
		t.Errorf("extras at inning %d %s", g.CurrentInning, g.CurrentHalf)
	}
}

func TestWalkOff(t *testing.T) {
	g := inProgressGame()
	g.CurrentInning = g.ScheduledInnings
	g.CurrentHalf = HalfBottom
	g.Score = Score{Away: 3, Home: 3}
	g.Bases = NewBaserunnerState("", "", "p4")

	g.applyPlay(play("p5", g.Bases, NewBaserunnerState("p5", "", ""), "p4"), 0)
	if g.Status != StatusCompleted {
		t.Errorf("walk-off must end the game immediately, status %q", g.Status)
	}
	if g.Score.Home != 4 {
		t.Errorf("home score = %d, want 4", g.Score.Home)
	}
	if !g.CurrentInningState().Complete {
		t.Errorf("walk-off half-inning not marked complete")
	}
}

func TestBattingSideAndScoring(t *testing.T) {
	g := inProgressGame()
	if g.BattingSide() != SideAway {
		t.Errorf("top of the inning must be the away side")
	}

	g.applyPlay(play("p1", EmptyBases(), EmptyBases(), "p1"), 0)
	if g.Score.Away != 1 || g.Score.Home != 0 {
		t.Errorf("score = %+v, want away 1", g.Score)
	}

	g.CurrentHalf = HalfBottom
	if g.BattingSide() != SideHome {
		t.Errorf("bottom of the inning must be the home side")
	}
	g.applyPlay(play("p9", EmptyBases(), EmptyBases(), "p9"), 0)
	if g.Score.Home != 1 {
		t.Errorf("score = %+v, want home 1", g.Score)
	}
}
