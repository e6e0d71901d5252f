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
)

// LineupSize is the number of batting-order slots in a legal lineup.
const LineupSize = 9

// RequiredPositions are the nine defensive positions a lineup must fill,
// one player each.
var RequiredPositions = []string{"P", "C", "1B", "2B", "3B", "SS", "LF", "CF", "RF"}

// LineupSlot maps one batting-order position to a player and their
// defensive position.
type LineupSlot struct {
	Order    int    `json:"order"`
	PlayerID string `json:"playerId"`
	Position string `json:"position"`
}

// Lineup is a validated starting lineup plus the substitute pool.
type Lineup struct {
	Slots []LineupSlot `json:"slots"`
	Subs  []string     `json:"subs,omitempty"`
}

// SetupLineupCommand proposes a starting lineup for one side of a game.
type SetupLineupCommand struct {
	GameID string       `json:"gameId"`
	Side   string       `json:"side"`
	Slots  []LineupSlot `json:"slots"`
	Subs   []string     `json:"subs,omitempty"`
}

// PlayerSource is the roster collaborator: an existence check for player
// ids on a team. Supplied by the surrounding system.
type PlayerSource interface {
	HasPlayer(teamId, playerId string) (bool, error)
}

// LineupManager validates proposed lineups and attaches them to games.
type LineupManager struct {
	Games   GameSource
	Players PlayerSource
}

// NewLineupManager creates a LineupManager.
func NewLineupManager(games GameSource, players PlayerSource) *LineupManager {
	return &LineupManager{Games: games, Players: players}
}

// ValidateLineup runs the pure structural checks on a proposed lineup:
// slot count, batting orders, player and position uniqueness, substitute
// uniqueness. It does not consult the roster.
func ValidateLineup(slots []LineupSlot, subs []string) *EngineError {
	if len(slots) != LineupSize {
		return validationErr("lineup must have exactly %d entries, got %d", LineupSize, len(slots))
	}

	orders := make(map[int]bool, LineupSize)
	for _, s := range slots {
		if s.Order < 1 || s.Order > LineupSize || orders[s.Order] {
			return validationErr("batting orders must be exactly 1 through %d", LineupSize)
		}
		orders[s.Order] = true
	}

	players := make(map[string]bool, LineupSize)
	for _, s := range slots {
		if s.PlayerID == "" {
			return validationErr("lineup slot %d has no player", s.Order)
		}
		if players[s.PlayerID] {
			return validationErr("player %s appears more than once in the lineup", s.PlayerID)
		}
		players[s.PlayerID] = true
	}

	required := make(map[string]bool, LineupSize)
	for _, p := range RequiredPositions {
		required[p] = true
	}
	positions := make(map[string]bool, LineupSize)
	for _, s := range slots {
		if !required[s.Position] {
			return validationErr("unknown defensive position %q", s.Position)
		}
		if positions[s.Position] {
			return validationErr("defensive position %s assigned to more than one player", s.Position)
		}
		positions[s.Position] = true
	}
	// 9 distinct valid positions out of 9 required means all are filled.

	subSeen := make(map[string]bool, len(subs))
	for _, id := range subs {
		if players[id] {
			return validationErr("substitute %s is already in the starting lineup", id)
		}
		if subSeen[id] {
			return validationErr("substitute %s listed more than once", id)
		}
		subSeen[id] = true
	}

	return nil
}

// SetupLineup validates a proposed starting lineup and substitute pool
// and attaches it to the game. On any failure nothing is attached.
func (lm *LineupManager) SetupLineup(cmd SetupLineupCommand) error {
	// 1. Game must exist.
	g, err := lm.Games.LoadGame(cmd.GameID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return notFoundErr("game %s not found", cmd.GameID)
		}
		return fmt.Errorf("load game: %w", err)
	}
	if g.Status != StatusSetup {
		return stateErr("lineups can only be set while the game is in setup, current status %q", g.Status)
	}

	side := cmd.Side
	if side == "" {
		side = SideAway
	}
	if side != SideAway && side != SideHome {
		return validationErr("invalid side %q", cmd.Side)
	}

	// 2-5, 7, 8. Structural lineup checks.
	if vErr := ValidateLineup(cmd.Slots, cmd.Subs); vErr != nil {
		return vErr
	}

	// 6. Every referenced player must exist on the side's roster, when
	// the game is linked to a team.
	teamId := g.AwayTeamID
	if side == SideHome {
		teamId = g.HomeTeamID
	}
	if lm.Players != nil && teamId != "" {
		check := func(playerId string) error {
			ok, err := lm.Players.HasPlayer(teamId, playerId)
			if err != nil {
				return fmt.Errorf("roster lookup: %w", err)
			}
			if !ok {
				return notFoundErr("player %s not found on team %s", playerId, teamId)
			}
			return nil
		}
		for _, s := range cmd.Slots {
			if err := check(s.PlayerID); err != nil {
				return err
			}
		}
		for _, id := range cmd.Subs {
			if err := check(id); err != nil {
				return err
			}
		}
	}

	lineup := &Lineup{
		Slots: append([]LineupSlot(nil), cmd.Slots...),
		Subs:  append([]string(nil), cmd.Subs...),
	}
	g.normalize()
	g.Lineups[side] = lineup

	return lm.Games.SaveGame(g)
}
