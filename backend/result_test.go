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

func TestResultCatalogTotality(t *testing.T) {
	all := AllResults()
	if len(all) != len(resultCatalog) {
		t.Fatalf("AllResults lists %d kinds, catalogue has %d", len(all), len(resultCatalog))
	}
	for _, r := range all {
		if !r.Known() {
			t.Errorf("%s listed but not in catalogue", r)
		}
	}
	if BattingResult("E").Known() {
		t.Errorf("unknown result must not be in the catalogue")
	}
}

func TestResultMetadata(t *testing.T) {
	tests := []struct {
		result      BattingResult
		hit         bool
		batterOut   bool
		outs        int
		batterBases int
	}{
		{ResultSingle, true, false, 0, 1},
		{ResultDouble, true, false, 0, 2},
		{ResultTriple, true, false, 0, 3},
		{ResultHomeRun, true, false, 0, 4},
		{ResultWalk, false, false, 0, 1},
		{ResultStrikeout, false, true, 1, 0},
		{ResultGroundout, false, true, 1, 0},
		{ResultFlyout, false, true, 1, 0},
		{ResultFieldersChoice, false, false, 1, 1},
		{ResultSacrifice, false, true, 1, 0},
		{ResultDoublePlay, false, true, 2, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.result), func(t *testing.T) {
			if got := tt.result.IsHit(); got != tt.hit {
				t.Errorf("IsHit() = %v, want %v", got, tt.hit)
			}
			if got := tt.result.IsOut(); got != tt.batterOut {
				t.Errorf("IsOut() = %v, want %v", got, tt.batterOut)
			}
			if got := tt.result.OutsRecorded(); got != tt.outs {
				t.Errorf("OutsRecorded() = %d, want %d", got, tt.outs)
			}
			if got := tt.result.BatterBases(); got != tt.batterBases {
				t.Errorf("BatterBases() = %d, want %d", got, tt.batterBases)
			}
			if got := tt.result.ReachesBase(); got != (tt.batterBases > 0) {
				t.Errorf("ReachesBase() = %v", got)
			}
		})
	}
}
