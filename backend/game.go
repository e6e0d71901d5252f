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
	"time"

	"github.com/google/uuid"
)

// Game lifecycle states.
const (
	StatusSetup      = "setup"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusSuspended  = "suspended"
	StatusDeleted    = "deleted"
)

// Half-inning markers.
const (
	HalfTop    = "top"
	HalfBottom = "bottom"
)

// Team sides.
const (
	SideAway = "away"
	SideHome = "home"
)

// DefaultScheduledInnings is the regulation game length (softball).
const DefaultScheduledInnings = 7

// Score is the running score by side.
type Score struct {
	Away int `json:"away"`
	Home int `json:"home"`
}

// Inning is one half-inning of play. Created when the half begins,
// mutated as at-bats are recorded, marked complete at 3 outs.
type Inning struct {
	Number   int      `json:"number"`
	Half     string   `json:"half"`
	AtBatIDs []string `json:"atBatIds,omitempty"`
	Outs     int      `json:"outs"`
	Runs     int      `json:"runs"`
	Complete bool     `json:"complete"`
}

// Game is the full game state as stored on disk. The at-bat recorder and
// the progression methods below are the only writers of the score, out
// and inning fields.
type Game struct {
	ID            string      `json:"id"`
	SchemaVersion int         `json:"schemaVersion"`
	Date          string      `json:"date,omitempty"`
	Location      string      `json:"location,omitempty"`
	Event         string      `json:"event,omitempty"`
	Away          string      `json:"away,omitempty"`
	Home          string      `json:"home,omitempty"`
	Status        string      `json:"status"`
	OwnerID       string      `json:"ownerId"`
	Permissions   Permissions `json:"permissions,omitempty"`
	AwayTeamID    string      `json:"awayTeamId,omitempty"`
	HomeTeamID    string      `json:"homeTeamId,omitempty"`

	ScheduledInnings int                `json:"scheduledInnings"`
	Lineups          map[string]*Lineup `json:"lineups,omitempty"`
	Innings          []*Inning          `json:"innings,omitempty"`
	AtBats           []AtBat            `json:"atBats,omitempty"`

	// Live state of the current half-inning.
	Bases         BaserunnerState `json:"bases"`
	Score         Score           `json:"score"`
	CurrentInning int             `json:"currentInning"`
	CurrentHalf   string          `json:"currentHalf,omitempty"`

	UpdatedAt int64 `json:"updatedAt,omitempty"`
	// DeletedAt is the timestamp (Unix Nano) when the game was deleted.
	DeletedAt int64 `json:"deletedAt,omitempty"`
}

// NewGame creates a game in setup state owned by the given user.
func NewGame(ownerID string) *Game {
	g := &Game{
		ID:               uuid.NewString(),
		SchemaVersion:    CurrentSchemaVersion,
		Status:           StatusSetup,
		OwnerID:          ownerID,
		ScheduledInnings: DefaultScheduledInnings,
		UpdatedAt:        time.Now().UnixNano(),
	}
	g.normalize()
	return g
}

func (g *Game) normalize() {
	if g.SchemaVersion == 0 {
		g.SchemaVersion = CurrentSchemaVersion
	}
	if g.Status == "" {
		g.Status = StatusSetup
	}
	if g.ScheduledInnings == 0 {
		g.ScheduledInnings = DefaultScheduledInnings
	}
	if g.Permissions.Users == nil {
		g.Permissions.Users = make(map[string]string)
	}
	if g.Lineups == nil {
		g.Lineups = make(map[string]*Lineup)
	}
}

// BattingSide returns which side bats in the current half.
func (g *Game) BattingSide() string {
	if g.CurrentHalf == HalfBottom {
		return SideHome
	}
	return SideAway
}

// CurrentInningState returns the inning record for the current half,
// creating it if the half just began.
func (g *Game) CurrentInningState() *Inning {
	for i := len(g.Innings) - 1; i >= 0; i-- {
		in := g.Innings[i]
		if in.Number == g.CurrentInning && in.Half == g.CurrentHalf {
			return in
		}
	}
	in := &Inning{Number: g.CurrentInning, Half: g.CurrentHalf}
	g.Innings = append(g.Innings, in)
	return in
}

// Start transitions the game from setup to in progress. Both lineups
// must have been validated and attached first.
func (g *Game) Start() *EngineError {
	if g.Status != StatusSetup {
		return stateErr("cannot start a game in status %q", g.Status)
	}
	for _, side := range []string{SideAway, SideHome} {
		if g.Lineups[side] == nil {
			return stateErr("cannot start: no lineup set for the %s team", side)
		}
	}
	g.Status = StatusInProgress
	g.CurrentInning = 1
	g.CurrentHalf = HalfTop
	g.Bases = EmptyBases()
	g.CurrentInningState()
	return nil
}

// Complete transitions the game from in progress to completed.
func (g *Game) Complete() *EngineError {
	if g.Status != StatusInProgress {
		return stateErr("cannot complete a game in status %q", g.Status)
	}
	g.Status = StatusCompleted
	return nil
}

// Suspend transitions the game from in progress to suspended.
func (g *Game) Suspend() *EngineError {
	if g.Status != StatusInProgress {
		return stateErr("cannot suspend a game in status %q", g.Status)
	}
	g.Status = StatusSuspended
	return nil
}

// Resume transitions the game from suspended back to in progress.
func (g *Game) Resume() *EngineError {
	if g.Status != StatusSuspended {
		return stateErr("cannot resume a game in status %q", g.Status)
	}
	g.Status = StatusInProgress
	return nil
}

// applyPlay folds a fully validated at-bat into the live game state:
// score, inning runs and outs, half-inning progression and game end.
func (g *Game) applyPlay(ab AtBat, outs int) {
	in := g.CurrentInningState()
	in.AtBatIDs = append(in.AtBatIDs, ab.ID)
	in.Runs += len(ab.Scored)
	in.Outs += outs

	g.AtBats = append(g.AtBats, ab)
	g.Bases = ab.After
	if g.BattingSide() == SideHome {
		g.Score.Home += len(ab.Scored)
	} else {
		g.Score.Away += len(ab.Scored)
	}
	g.UpdatedAt = time.Now().UnixNano()

	// Walk-off: the home team taking the lead in the bottom of the final
	// (or an extra) inning ends the game immediately.
	if g.CurrentHalf == HalfBottom && g.CurrentInning >= g.ScheduledInnings && g.Score.Home > g.Score.Away {
		in.Complete = true
		g.Status = StatusCompleted
		return
	}

	if in.Outs >= 3 {
		in.Complete = true
		g.advanceHalf()
	}
}

// advanceHalf flips the batting side after a completed half-inning and
// decides whether the game is over.
func (g *Game) advanceHalf() {
	if g.CurrentHalf == HalfTop {
		// Home team does not bat if already ahead after the top of the
		// final (or an extra) inning.
		if g.CurrentInning >= g.ScheduledInnings && g.Score.Home > g.Score.Away {
			g.Status = StatusCompleted
			return
		}
		g.CurrentHalf = HalfBottom
	} else {
		if g.CurrentInning >= g.ScheduledInnings && g.Score.Home != g.Score.Away {
			g.Status = StatusCompleted
			return
		}
		g.CurrentInning++
		g.CurrentHalf = HalfTop
	}
	g.Bases = EmptyBases()
	g.CurrentInningState()
}
