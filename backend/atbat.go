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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// MaxDescriptionLen bounds the free-text description of an at-bat.
const MaxDescriptionLen = 500

// AtBat is the immutable record of one plate appearance. Once created it
// is never mutated in place; a correction is a new record.
type AtBat struct {
	ID          string          `json:"id"`
	GameID      string          `json:"gameId"`
	Inning      int             `json:"inning"`
	Half        string          `json:"half"`
	BatterID    string          `json:"batterId"`
	Order       int             `json:"order"`
	Result      BattingResult   `json:"result"`
	Description string          `json:"description,omitempty"`
	RBIs        int             `json:"rbis"`
	Scored      []string        `json:"scored,omitempty"`
	Before      BaserunnerState `json:"baserunnersBefore"`
	After       BaserunnerState `json:"baserunnersAfter"`
	Timestamp   int64           `json:"timestamp"`
}

// RecordAtBatCommand carries everything needed to record one plate
// appearance against a game.
type RecordAtBatCommand struct {
	GameID      string            `json:"gameId"`
	BatterID    string            `json:"batterId"`
	Inning      int               `json:"inning"`
	Half        string            `json:"half"`
	Order       int               `json:"order"`
	Result      BattingResult     `json:"result"`
	Description string            `json:"description,omitempty"`
	RBIs        int               `json:"rbis"`
	Before      BaserunnerState   `json:"baserunnersBefore"`
	After       BaserunnerState   `json:"baserunnersAfter"`
	Scored      []string          `json:"scored,omitempty"`
	Params      AdvancementParams `json:"params"`
}

// GameSource is the persistence collaborator the engine needs: fetch and
// persist games by id. The engine itself performs no I/O.
type GameSource interface {
	LoadGame(gameId string) (*Game, error)
	SaveGame(game *Game) error
}

// Recorder orchestrates one plate appearance: validates the command,
// verifies the base-state transition against the rules, produces the
// immutable AtBat and updates the game. Callers must not invoke
// RecordAtBat concurrently for the same game id.
type Recorder struct {
	Games  GameSource
	Config RuleConfiguration

	now func() time.Time
}

// NewRecorder creates a Recorder bound to a game source and rule
// configuration.
func NewRecorder(games GameSource, cfg RuleConfiguration) *Recorder {
	return &Recorder{Games: games, Config: cfg, now: time.Now}
}

// RecordAtBat validates and records a plate appearance. On any failure
// it returns a typed error and the game state is untouched.
func (rec *Recorder) RecordAtBat(cmd RecordAtBatCommand) (*AtBat, error) {
	// 1. Game must exist and be in progress.
	g, err := rec.Games.LoadGame(cmd.GameID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFoundErr("game %s not found", cmd.GameID)
		}
		return nil, fmt.Errorf("load game: %w", err)
	}
	if g.Status != StatusInProgress {
		return nil, stateErr("cannot record an at-bat against a game in status %q", g.Status)
	}

	// 2. Structural command fields.
	if cmd.BatterID == "" {
		return nil, validationErr("batter id is required")
	}
	if cmd.Inning < 1 {
		return nil, validationErr("inning must be a positive integer, got %d", cmd.Inning)
	}

	// 3. Bounds.
	if cmd.RBIs < 0 {
		return nil, validationErr("rbis cannot be negative")
	}
	if len(cmd.Description) > MaxDescriptionLen {
		return nil, validationErr("description too long (max %d chars)", MaxDescriptionLen)
	}

	// 4. Strikeouts and unaided groundouts never drive in a run.
	if (cmd.Result == ResultStrikeout || cmd.Result == ResultGroundout) && cmd.RBIs != 0 {
		return nil, validationErr("strikeouts and groundouts cannot have RBIs")
	}

	// 5-7. RBI accounting against the scoring list: the count must match
	// the distinct scorers, stay within 0-4, and no scorer may repeat.
	distinct := make(map[string]bool, len(cmd.Scored))
	dup := ""
	for _, id := range cmd.Scored {
		if distinct[id] && dup == "" {
			dup = id
		}
		distinct[id] = true
	}
	if cmd.RBIs != len(distinct) && !rec.Config.rbiExempt(cmd.Result, cmd.Params) {
		return nil, ruleErr(RuleRBIBound, "RBI count must match runs scored")
	}
	if cmd.RBIs > 4 {
		return nil, ruleErr(RuleRBIBound, "rbis must be between 0 and 4, got %d", cmd.RBIs)
	}
	if dup != "" {
		return nil, validationErr("player %s cannot score twice in one at-bat", dup)
	}

	// The command must describe the half-inning actually in progress.
	if cmd.Inning != g.CurrentInning || (cmd.Half != "" && cmd.Half != g.CurrentHalf) {
		return nil, stateErr("at-bat targets inning %d (%s) but the game is in inning %d (%s)",
			cmd.Inning, cmd.Half, g.CurrentInning, g.CurrentHalf)
	}
	if !cmd.Before.Equal(g.Bases) {
		return nil, validationErr("baserunners before the play do not match the game state")
	}

	// 8. Rule engine: no-passing, RBI bound, max-outs, configured rules.
	inning := g.CurrentInningState()
	if vErr := ValidateTransition(rec.Config, cmd.Before, cmd.After, cmd.BatterID,
		cmd.Result, cmd.Scored, cmd.RBIs, inning.Outs, cmd.Params); vErr != nil {
		return nil, vErr
	}

	// 9. A home run clears the bases by definition.
	if cmd.Result == ResultHomeRun && cmd.After.Shape() != ShapeEmpty {
		return nil, validationErr("home run must leave all bases empty")
	}

	ab := AtBat{
		ID:          uuid.NewString(),
		GameID:      g.ID,
		Inning:      cmd.Inning,
		Half:        g.CurrentHalf,
		BatterID:    cmd.BatterID,
		Order:       cmd.Order,
		Result:      cmd.Result,
		Description: cmd.Description,
		RBIs:        cmd.RBIs,
		Scored:      append([]string(nil), cmd.Scored...),
		Before:      cmd.Before,
		After:       cmd.After,
		Timestamp:   rec.now().UnixNano(),
	}

	outs := transitionOuts(cmd.Before, cmd.After, cmd.BatterID, cmd.Scored)
	g.applyPlay(ab, outs)

	if err := rec.Games.SaveGame(g); err != nil {
		return nil, err
	}
	return &ab, nil
}

// transitionOuts counts the outs a transition records: every participant
// who neither scored nor ended the play on base.
func transitionOuts(before, after BaserunnerState, batterID string, scored []string) int {
	scoredSet := make(map[string]bool, len(scored))
	for _, id := range scored {
		scoredSet[id] = true
	}
	outs := 0
	ids := append(before.Runners(), batterID)
	for _, id := range ids {
		if id == "" {
			continue
		}
		if !scoredSet[id] && after.Position(id) == BaseNone {
			outs++
		}
	}
	return outs
}
