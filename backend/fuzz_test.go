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
	"encoding/json"
	"testing"
)

// FuzzValidateRecordAtBatCommand decodes arbitrary bytes into an at-bat
// command and validates it, to ensure no panics on hostile input.
func FuzzValidateRecordAtBatCommand(f *testing.F) {
	f.Add([]byte(`{"gameId": "aaaaaaaa-aaaa-4aaa-aaaa-aaaaaaaaaaaa", "batterId": "p1", "inning": 1, "result": "1B"}`))
	f.Add([]byte(`invalid json`))
	f.Add([]byte(`{}`))
	f.Fuzz(func(t *testing.T, data []byte) {
		var cmd RecordAtBatCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return
		}
		_ = ValidateRecordAtBatCommand(cmd)
	})
}

// FuzzEnumerateOutcomes drives the outcome enumeration with arbitrary
// occupants and result strings. Every outcome returned must itself pass
// validation.
func FuzzEnumerateOutcomes(f *testing.F) {
	f.Add("p1", "", "", "batter", "1B", false, false)
	f.Add("p1", "p2", "p3", "batter", "HR", false, false)
	f.Add("", "", "p3", "b", "FC", true, true)
	f.Fuzz(func(t *testing.T, first, second, third, batter, result string, errOccurred, runErr bool) {
		cfg := DefaultRuleConfiguration()
		before := NewBaserunnerState(first, second, third)
		params := AdvancementParams{ErrorOccurred: errOccurred, RunningErrorOccurred: runErr}
		for _, out := range EnumerateOutcomes(cfg, before, batter, BattingResult(result), params) {
			if vErr := ValidateTransition(cfg, before, out.After, batter, BattingResult(result),
				out.Scored, out.RBIs, 0, params); vErr != nil {
				t.Errorf("enumerated outcome fails validation: %+v: %v", out, vErr)
			}
		}
	})
}
