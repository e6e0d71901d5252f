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
	"fmt"
	"strings"
)

// AdvancementOutcome is one base-state transition the rules permit for a
// given play: the resulting occupancy, who scored (trailing runner
// first, the batter last), the RBI credit and the outs recorded.
type AdvancementOutcome struct {
	After  BaserunnerState `json:"after"`
	Scored []string        `json:"scored,omitempty"`
	RBIs   int             `json:"rbis"`
	Outs   int             `json:"outs"`
}

// runnerMove is the fate of one runner within a candidate play.
type runnerMove struct {
	adv int // bases advanced; ignored when out
	out bool
}

// playAssignment is a full candidate resolution of a play: one move per
// occupied base plus the batter's fate.
type playAssignment struct {
	moves     map[Base]runnerMove
	batterAdv int // 0-4; 4 means the batter scores
	batterOut bool
}

// occupiedBases returns the occupied bases for the state's shape, lead
// runner first. The switch is exhaustive over all 8 shapes so that a new
// shape cannot be added without the compiler-visible mapping here.
func occupiedBases(s BaserunnerState) []Base {
	switch s.Shape() {
	case ShapeEmpty:
		return nil
	case ShapeFirst:
		return []Base{BaseFirst}
	case ShapeSecond:
		return []Base{BaseSecond}
	case ShapeThird:
		return []Base{BaseThird}
	case ShapeFirstSecond:
		return []Base{BaseSecond, BaseFirst}
	case ShapeFirstThird:
		return []Base{BaseThird, BaseFirst}
	case ShapeSecondThird:
		return []Base{BaseThird, BaseSecond}
	case ShapeLoaded:
		return []Base{BaseThird, BaseSecond, BaseFirst}
	}
	return nil
}

// forcedBases returns the bases whose runners are forced to advance when
// the batter takes first: the chain of consecutive occupied bases
// starting at first.
func forcedBases(s BaserunnerState) map[Base]bool {
	forced := make(map[Base]bool, 3)
	if !s.IsOccupied(BaseFirst) {
		return forced
	}
	forced[BaseFirst] = true
	if s.IsOccupied(BaseSecond) {
		forced[BaseSecond] = true
		if s.IsOccupied(BaseThird) {
			forced[BaseThird] = true
		}
	}
	return forced
}

// buildOutcome materializes a candidate assignment into an outcome.
// It returns ok=false when the assignment is internally impossible
// (two runners on one base, or a trailing runner passing a leader).
func buildOutcome(cfg RuleConfiguration, before BaserunnerState, batterID string, result BattingResult, params AdvancementParams, asg playAssignment) (AdvancementOutcome, bool) {
	var out AdvancementOutcome
	after := EmptyBases()

	// Trailing runners resolve first so the scoring list reads first,
	// second, third, then the batter.
	bases := occupiedBases(before)
	for i := len(bases) - 1; i >= 0; i-- {
		b := bases[i]
		id := before.Occupant(b)
		mv := asg.moves[b]
		if mv.out {
			out.Outs++
			continue
		}
		dest := Base(int(b) + mv.adv)
		if dest >= BaseHome {
			out.Scored = append(out.Scored, id)
			continue
		}
		if after.IsOccupied(dest) {
			return out, false
		}
		after = after.WithRunner(dest, id)
	}

	if asg.batterOut {
		out.Outs++
	} else if asg.batterAdv >= int(BaseHome) {
		out.Scored = append(out.Scored, batterID)
	} else if asg.batterAdv > 0 {
		dest := Base(asg.batterAdv)
		if after.IsOccupied(dest) {
			return out, false
		}
		after = after.WithRunner(dest, batterID)
	}

	out.After = after
	if err := checkNoPassing(before, after, batterID, out.Scored); err != nil {
		return out, false
	}

	out.RBIs = rbiCredit(cfg, result, params, len(out.Scored))
	return out, true
}

// rbiCredit computes the batter's RBI credit for a play that scored
// n runs, under the given configuration.
func rbiCredit(cfg RuleConfiguration, result BattingResult, params AdvancementParams, n int) int {
	if cfg.NoRBIResults[result] {
		return 0
	}
	if params.ErrorOccurred && cfg.ErrorAttribution {
		return 0
	}
	return n
}

// ComputeAdvancement returns the canonical outcome for the standard
// resolution of the play. Ambiguous situations (how far trailing runners
// stretch) resolve to the baseline advance; EnumerateOutcomes lists the
// alternatives.
func ComputeAdvancement(cfg RuleConfiguration, before BaserunnerState, batterID string, result BattingResult, params AdvancementParams) (AdvancementOutcome, *EngineError) {
	params = params.normalize()
	if batterID == "" {
		return AdvancementOutcome{}, validationErr("batter id is required")
	}
	if !result.Known() {
		return AdvancementOutcome{}, validationErr("unknown batting result: %s", result)
	}
	if !before.Valid() {
		return AdvancementOutcome{}, validationErr("base state holds a duplicate runner")
	}
	if before.Position(batterID) != BaseNone {
		return AdvancementOutcome{}, validationErr("batter %s is already on base", batterID)
	}

	bases := occupiedBases(before)
	asg := playAssignment{moves: make(map[Base]runnerMove, len(bases))}

	switch result {
	case ResultWalk:
		forced := forcedBases(before)
		for _, b := range bases {
			if forced[b] {
				asg.moves[b] = runnerMove{adv: 1}
			} else {
				asg.moves[b] = runnerMove{adv: 0}
			}
		}
		asg.batterAdv = 1

	case ResultStrikeout:
		for _, b := range bases {
			asg.moves[b] = runnerMove{adv: 0}
		}
		asg.batterOut = true

	case ResultGroundout, ResultFlyout:
		for _, b := range bases {
			asg.moves[b] = runnerMove{adv: 0}
		}
		asg.batterOut = true

	case ResultSacrifice:
		for _, b := range bases {
			asg.moves[b] = runnerMove{adv: 1}
		}
		asg.batterOut = true

	case ResultDoublePlay:
		if len(bases) == 0 {
			return AdvancementOutcome{}, validationErr("double play requires at least one runner on base")
		}
		// Classic twin killing: the forced runner nearest first goes down
		// with the batter; everyone else holds.
		outBase := bases[len(bases)-1]
		for _, b := range bases {
			if b == outBase {
				asg.moves[b] = runnerMove{out: true}
			} else {
				asg.moves[b] = runnerMove{adv: 0}
			}
		}
		asg.batterOut = true

	case ResultFieldersChoice:
		if len(bases) == 0 {
			return AdvancementOutcome{}, validationErr("fielder's choice requires at least one runner on base")
		}
		forced := forcedBases(before)
		leadBase := bases[0]
		for _, b := range bases {
			switch {
			case b == leadBase:
				asg.moves[b] = runnerMove{out: true}
			case forced[b]:
				asg.moves[b] = runnerMove{adv: 1}
			default:
				asg.moves[b] = runnerMove{adv: 0}
			}
		}
		asg.batterAdv = 1

	default: // hits
		n := result.BatterBases()
		extra := 0
		if params.Aggressiveness == AggressivenessAggressive {
			extra = 1
		}
		if params.ErrorOccurred {
			extra++
		}
		for _, b := range bases {
			asg.moves[b] = runnerMove{adv: n + extra}
		}
		asg.batterAdv = n
		if params.ErrorOccurred && n < 4 {
			asg.batterAdv = n + 1
		}
	}

	// A declared running error takes the lead runner off the bases.
	if params.RunningErrorOccurred && len(bases) > 0 {
		asg.moves[bases[0]] = runnerMove{out: true}
	}

	out, ok := buildOutcome(cfg, before, batterID, result, params, asg)
	if !ok {
		return AdvancementOutcome{}, validationErr("no legal resolution for %s with %s", result, before.Shape())
	}
	return out, nil
}

// EnumerateOutcomes returns every outcome the rules permit for the given
// base state, result and situational parameters. The enumeration is
// explicit per occupancy shape; callers select among the members when
// the situation is ambiguous.
func EnumerateOutcomes(cfg RuleConfiguration, before BaserunnerState, batterID string, result BattingResult, params AdvancementParams) []AdvancementOutcome {
	params = params.normalize()
	if batterID == "" || !result.Known() || !before.Valid() || before.Position(batterID) != BaseNone {
		return nil
	}

	bases := occupiedBases(before)
	forced := forcedBases(before)

	// Option sets per runner, indexed parallel to bases. A move with
	// out=true consumes one running-error allowance.
	options := make([][]runnerMove, len(bases))
	var batterOptions []runnerMove

	addOuts := func(opts []runnerMove) []runnerMove {
		if params.RunningErrorOccurred {
			return append(opts, runnerMove{out: true})
		}
		return opts
	}

	switch result {
	case ResultWalk:
		for i, b := range bases {
			if forced[b] {
				options[i] = []runnerMove{{adv: 1}}
			} else {
				options[i] = []runnerMove{{adv: 0}}
			}
		}
		batterOptions = []runnerMove{{adv: 1}}

	case ResultStrikeout:
		for i := range bases {
			options[i] = addOuts([]runnerMove{{adv: 0}})
		}
		batterOptions = []runnerMove{{out: true}}

	case ResultGroundout, ResultFlyout:
		for i := range bases {
			options[i] = addOuts([]runnerMove{{adv: 0}, {adv: 1}})
		}
		batterOptions = []runnerMove{{out: true}}

	case ResultSacrifice:
		if len(bases) == 0 {
			return nil
		}
		for i := range bases {
			options[i] = addOuts([]runnerMove{{adv: 1}})
		}
		batterOptions = []runnerMove{{out: true}}

	case ResultDoublePlay:
		if len(bases) == 0 {
			return nil
		}
		// One runner goes down with the batter; survivors may take a base.
		for i := range bases {
			options[i] = []runnerMove{{adv: 0}, {adv: 1}, {out: true}}
		}
		batterOptions = []runnerMove{{out: true}}

	case ResultFieldersChoice:
		if len(bases) == 0 {
			return nil
		}
		for i, b := range bases {
			if forced[b] {
				options[i] = []runnerMove{{adv: 1}, {out: true}}
			} else {
				options[i] = []runnerMove{{adv: 0}, {adv: 1}, {out: true}}
			}
		}
		batterOptions = []runnerMove{{adv: 1}}

	default: // hits
		n := result.BatterBases()
		var advs []int
		switch params.Aggressiveness {
		case AggressivenessConservative:
			advs = []int{n}
		case AggressivenessAggressive:
			advs = []int{n, n + 1, n + 2}
		default:
			advs = []int{n, n + 1}
		}
		if params.ErrorOccurred {
			advs = append(advs, advs[len(advs)-1]+1)
		}
		for i := range bases {
			opts := make([]runnerMove, 0, len(advs)+1)
			for _, a := range advs {
				opts = append(opts, runnerMove{adv: a})
			}
			options[i] = addOuts(opts)
		}
		batterOptions = []runnerMove{{adv: n}}
		if params.ErrorOccurred && n < 4 {
			batterOptions = append(batterOptions, runnerMove{adv: n + 1})
		}
		if cfg.RunningErrorVariations && params.RunningErrorOccurred {
			batterOptions = append(batterOptions, runnerMove{out: true})
		}
	}

	baseOuts := expectedOuts(result)
	maxRunningOuts := 0
	if params.RunningErrorOccurred {
		maxRunningOuts = 1
		if cfg.RunningErrorVariations {
			maxRunningOuts = 2
		}
	}

	var results []AdvancementOutcome
	seen := make(map[string]bool)

	var walk func(i int, asg playAssignment)
	walk = func(i int, asg playAssignment) {
		if i == len(bases) {
			for _, bm := range batterOptions {
				cand := asg
				cand.batterAdv = bm.adv
				cand.batterOut = bm.out
				out, ok := buildOutcome(cfg, before, batterID, result, params, cand)
				if !ok {
					continue
				}
				if out.Outs < baseOuts || out.Outs > baseOuts+maxRunningOuts || out.Outs > 3 {
					continue
				}
				key := outcomeKey(out)
				if seen[key] {
					continue
				}
				seen[key] = true
				results = append(results, out)
			}
			return
		}
		for _, mv := range options[i] {
			next := playAssignment{moves: make(map[Base]runnerMove, len(bases))}
			for k, v := range asg.moves {
				next.moves[k] = v
			}
			next.moves[bases[i]] = mv
			walk(i+1, next)
		}
	}
	walk(0, playAssignment{moves: make(map[Base]runnerMove)})

	return results
}

// expectedOuts is the baseline number of outs for the result kind before
// running errors are considered.
func expectedOuts(result BattingResult) int {
	return result.OutsRecorded()
}

func outcomeKey(o AdvancementOutcome) string {
	return fmt.Sprintf("%s,%s,%s|%s|%d", o.After.First, o.After.Second, o.After.Third,
		strings.Join(o.Scored, ","), o.Outs)
}

// checkNoPassing enforces the non-negotiable ordering rule: a runner who
// started behind another may not finish ahead of them unless the leading
// runner scored or was put out on the same play.
func checkNoPassing(before, after BaserunnerState, batterID string, scored []string) *EngineError {
	scoredSet := make(map[string]bool, len(scored))
	for _, id := range scored {
		scoredSet[id] = true
	}

	// final returns the finishing position: 4 scored, 1-3 on base,
	// -1 out/removed.
	final := func(id string) int {
		if scoredSet[id] {
			return int(BaseHome)
		}
		if p := after.Position(id); p != BaseNone {
			return int(p)
		}
		return -1
	}

	type placed struct {
		id    string
		start int
	}
	runners := make([]placed, 0, 4)
	for _, b := range []Base{BaseThird, BaseSecond, BaseFirst} {
		if id := before.Occupant(b); id != "" {
			runners = append(runners, placed{id: id, start: int(b)})
		}
	}
	if batterID != "" {
		runners = append(runners, placed{id: batterID, start: 0})
	}

	// runners is ordered lead first; every later entry trails every
	// earlier one.
	for li := 0; li < len(runners); li++ {
		lead := runners[li]
		lf := final(lead.id)
		if lf < 1 || lf > 3 {
			// Scored or out: the base ahead is vacated.
			continue
		}
		for ti := li + 1; ti < len(runners); ti++ {
			trail := runners[ti]
			tf := final(trail.id)
			if tf >= lf {
				return ruleErr(RuleNoPassing,
					"runner %s (from base %d) cannot finish at or beyond runner %s (from base %d)",
					trail.id, trail.start, lead.id, lead.start)
			}
		}
	}
	return nil
}

// ValidateTransition verifies a caller-proposed resolution of a play
// against the rules. The non-negotiable rules run first and cannot be
// disabled; configurable rules run only when enabled in cfg. The engine
// never repairs an invalid submission, it only reports the breach.
func ValidateTransition(cfg RuleConfiguration, before, after BaserunnerState, batterID string, result BattingResult, scored []string, rbis int, outsAlready int, params AdvancementParams) *EngineError {
	params = params.normalize()

	// Structural consistency before any rule runs.
	if batterID == "" {
		return validationErr("batter id is required")
	}
	if !result.Known() {
		return validationErr("unknown batting result: %s", result)
	}
	if !before.Valid() || !after.Valid() {
		return validationErr("base state holds a duplicate runner")
	}
	if before.Position(batterID) != BaseNone {
		return validationErr("batter %s is already on base", batterID)
	}
	if result == ResultDoublePlay && before.Shape() == ShapeEmpty {
		return validationErr("double play requires at least one runner on base")
	}
	if result == ResultFieldersChoice && before.Shape() == ShapeEmpty {
		return validationErr("fielder's choice requires at least one runner on base")
	}
	if outsAlready < 0 || outsAlready > 2 {
		return validationErr("outs already in inning must be 0-2, got %d", outsAlready)
	}

	participants := make(map[string]bool, 4)
	for _, id := range before.Runners() {
		participants[id] = true
	}
	participants[batterID] = true

	scoredSet := make(map[string]bool, len(scored))
	for _, id := range scored {
		if !participants[id] {
			return validationErr("scoring player %s was not part of the play", id)
		}
		if scoredSet[id] {
			return validationErr("player %s cannot score twice in one at-bat", id)
		}
		scoredSet[id] = true
	}

	for _, b := range []Base{BaseFirst, BaseSecond, BaseThird} {
		id := after.Occupant(b)
		if id == "" {
			continue
		}
		if !participants[id] {
			return validationErr("runner %s appeared on base without batting or running", id)
		}
		if scoredSet[id] {
			return validationErr("player %s cannot both score and remain on base", id)
		}
		if start := before.Position(id); start != BaseNone && b < start {
			return validationErr("runner %s cannot retreat from base %d to base %d", id, start, b)
		}
	}

	// The batter's fate must be consistent with the result kind.
	batterScored := scoredSet[batterID]
	batterOnBase := after.Position(batterID) != BaseNone
	switch {
	case result.BatterBases() == 4 && !batterScored:
		return validationErr("a home run must score the batter")
	case result.IsOut() && (batterScored || batterOnBase) && !params.ErrorOccurred:
		return validationErr("batter %s cannot reach base on a %s without an error", batterID, result)
	case !result.IsOut() && !batterScored && !batterOnBase && !params.RunningErrorOccurred:
		return validationErr("batter %s cannot be out on a %s without a running error", batterID, result)
	}

	// Non-negotiable: no runner passing.
	if err := checkNoPassing(before, after, batterID, scored); err != nil {
		return err
	}

	// Non-negotiable: RBI bound.
	if rbis < 0 || rbis > 4 {
		return ruleErr(RuleRBIBound, "rbis must be between 0 and 4, got %d", rbis)
	}
	if rbis > len(scored) {
		return ruleErr(RuleRBIBound, "rbis (%d) cannot exceed runs scored (%d)", rbis, len(scored))
	}
	if rbis != len(scored) && !cfg.rbiExempt(result, params) {
		return ruleErr(RuleRBIBound, "rbis (%d) must match runs scored (%d)", rbis, len(scored))
	}

	// Non-negotiable: max outs per play.
	outs := 0
	for id := range participants {
		if !scoredSet[id] && after.Position(id) == BaseNone {
			outs++
		}
	}
	if outs > 3 {
		return ruleErr(RuleMaxOuts, "a single play cannot record %d outs", outs)
	}
	if outs > 3-outsAlready {
		return ruleErr(RuleMaxOuts, "play records %d outs but only %d remain in the inning", outs, 3-outsAlready)
	}

	// Configurable: error attribution.
	if cfg.ErrorAttribution && params.ErrorOccurred && rbis > 0 {
		return configRuleErr(RuleErrorAttribution, "runs scoring on an error carry no RBI")
	}

	// Configurable: running-error accounting.
	if cfg.RunningErrorVariations {
		if extra := outs - expectedOuts(result); extra > 0 && !params.RunningErrorOccurred {
			return configRuleErr(RuleRunningError,
				"%d out(s) beyond the %s baseline require a declared running error", extra, result)
		}
	}

	return nil
}
