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

// BattingResult is the closed set of plate-appearance outcomes.
type BattingResult string

const (
	ResultSingle         BattingResult = "1B"
	ResultDouble         BattingResult = "2B"
	ResultTriple         BattingResult = "3B"
	ResultHomeRun        BattingResult = "HR"
	ResultWalk           BattingResult = "BB"
	ResultStrikeout      BattingResult = "K"
	ResultGroundout      BattingResult = "GO"
	ResultFlyout         BattingResult = "FO"
	ResultFieldersChoice BattingResult = "FC"
	ResultSacrifice      BattingResult = "SAC"
	ResultDoublePlay     BattingResult = "DP"
)

// resultInfo carries the fixed rule metadata for one result kind.
type resultInfo struct {
	hit         bool
	batterOut   bool
	outs        int // outs inherently recorded by the play (0-2)
	batterBases int // bases the batter inherently earns (0-4)
}

var resultCatalog = map[BattingResult]resultInfo{
	ResultSingle:         {hit: true, batterBases: 1},
	ResultDouble:         {hit: true, batterBases: 2},
	ResultTriple:         {hit: true, batterBases: 3},
	ResultHomeRun:        {hit: true, batterBases: 4},
	ResultWalk:           {batterBases: 1},
	ResultStrikeout:      {batterOut: true, outs: 1},
	ResultGroundout:      {batterOut: true, outs: 1},
	ResultFlyout:         {batterOut: true, outs: 1},
	ResultFieldersChoice: {outs: 1, batterBases: 1},
	ResultSacrifice:      {batterOut: true, outs: 1},
	ResultDoublePlay:     {batterOut: true, outs: 2},
}

// AllResults returns every known result kind in a stable order.
func AllResults() []BattingResult {
	return []BattingResult{
		ResultSingle, ResultDouble, ResultTriple, ResultHomeRun,
		ResultWalk, ResultStrikeout, ResultGroundout, ResultFlyout,
		ResultFieldersChoice, ResultSacrifice, ResultDoublePlay,
	}
}

// Known reports whether r is a member of the catalogue.
func (r BattingResult) Known() bool {
	_, ok := resultCatalog[r]
	return ok
}

// IsHit reports whether the result is a base hit.
func (r BattingResult) IsHit() bool {
	return resultCatalog[r].hit
}

// IsOut reports whether the batter is out on the play.
func (r BattingResult) IsOut() bool {
	return resultCatalog[r].batterOut
}

// OutsRecorded returns the outs inherently recorded by the play (0-2).
// Running errors can add outs beyond this baseline.
func (r BattingResult) OutsRecorded() int {
	return resultCatalog[r].outs
}

// BatterBases returns the bases the batter inherently earns, with
// 4 meaning the batter scores.
func (r BattingResult) BatterBases() int {
	return resultCatalog[r].batterBases
}

// ReachesBase reports whether the batter ends the play on base or scores.
func (r BattingResult) ReachesBase() bool {
	return resultCatalog[r].batterBases > 0
}
