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

// Aggressiveness models how far runners try to stretch on a ball in play.
type Aggressiveness string

const (
	AggressivenessConservative Aggressiveness = "conservative"
	AggressivenessStandard     Aggressiveness = "standard"
	AggressivenessAggressive   Aggressiveness = "aggressive"
)

// Known reports whether a is a recognized aggressiveness level.
func (a Aggressiveness) Known() bool {
	switch a {
	case AggressivenessConservative, AggressivenessStandard, AggressivenessAggressive:
		return true
	}
	return false
}

// AdvancementParams are the situational inputs that, together with the
// base state and the result kind, determine the set of legal outcomes.
// They are external facts (arm strength, fielding misplays), not
// computed ones.
type AdvancementParams struct {
	Aggressiveness       Aggressiveness `json:"aggressiveness"`
	ErrorOccurred        bool           `json:"errorOccurred"`
	RunningErrorOccurred bool           `json:"runningErrorOccurred"`
}

func (p AdvancementParams) normalize() AdvancementParams {
	if p.Aggressiveness == "" {
		p.Aggressiveness = AggressivenessStandard
	}
	return p
}

// RuleConfiguration selects which optional rules the engine evaluates.
// It is an explicit value threaded into every engine call; there is no
// ambient global. The non-negotiable rules (no-passing, RBI bound,
// max-outs) always run and are not represented here.
type RuleConfiguration struct {
	// ErrorAttribution, when enabled, strips RBI credit from plays on
	// which a fielding error occurred: the batter gets no RBI for runs
	// that scored because of the error.
	ErrorAttribution bool `json:"errorAttribution"`

	// RunningErrorVariations, when enabled, checks that any out recorded
	// beyond the result's baseline is explained by a declared running
	// error, and unlocks the extra batter-out scenarios on hits.
	RunningErrorVariations bool `json:"runningErrorVariations"`

	// NoRBIResults lists result kinds whose runs score without RBI
	// credit. Runs on these plays are exempt from the
	// rbis == len(scored) equality.
	NoRBIResults map[BattingResult]bool `json:"noRbiResults,omitempty"`
}

// DefaultRuleConfiguration mirrors the standard scorebook conventions:
// strikeouts, unaided groundouts and double plays never credit an RBI,
// and error-driven runs are unearned.
func DefaultRuleConfiguration() RuleConfiguration {
	return RuleConfiguration{
		ErrorAttribution:       true,
		RunningErrorVariations: false,
		NoRBIResults: map[BattingResult]bool{
			ResultStrikeout:  true,
			ResultGroundout:  true,
			ResultDoublePlay: true,
		},
	}
}

// rbiExempt reports whether the equality between RBI count and scoring
// players is waived for this play.
func (c RuleConfiguration) rbiExempt(result BattingResult, params AdvancementParams) bool {
	if c.NoRBIResults[result] {
		return true
	}
	// Error-driven runs may score without RBI regardless of attribution.
	return params.ErrorOccurred
}
