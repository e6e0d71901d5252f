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

// Base identifies a position on the basepaths. BaseNone is the batter's
// box and BaseHome means the runner scored.
type Base int

const (
	BaseNone   Base = 0
	BaseFirst  Base = 1
	BaseSecond Base = 2
	BaseThird  Base = 3
	BaseHome   Base = 4
)

// BaseShape is the occupancy pattern of the bases, independent of which
// players occupy them. There are exactly 8 shapes.
type BaseShape int

const (
	ShapeEmpty BaseShape = iota
	ShapeFirst
	ShapeSecond
	ShapeThird
	ShapeFirstSecond
	ShapeFirstThird
	ShapeSecondThird
	ShapeLoaded
)

func (s BaseShape) String() string {
	switch s {
	case ShapeEmpty:
		return "empty"
	case ShapeFirst:
		return "runner on first"
	case ShapeSecond:
		return "runner on second"
	case ShapeThird:
		return "runner on third"
	case ShapeFirstSecond:
		return "runners on first and second"
	case ShapeFirstThird:
		return "runners on first and third"
	case ShapeSecondThird:
		return "runners on second and third"
	case ShapeLoaded:
		return "bases loaded"
	}
	return "unknown"
}

// BaserunnerState records which player occupies each base. An empty
// string means the base is open. The value is immutable: every
// transition produces a new value.
type BaserunnerState struct {
	First  string `json:"first,omitempty"`
	Second string `json:"second,omitempty"`
	Third  string `json:"third,omitempty"`
}

// EmptyBases is the canonical empty state.
func EmptyBases() BaserunnerState {
	return BaserunnerState{}
}

// NewBaserunnerState builds a state from up to three occupant ids.
func NewBaserunnerState(first, second, third string) BaserunnerState {
	return BaserunnerState{First: first, Second: second, Third: third}
}

// Occupant returns the player id on the given base, or "" if open.
func (s BaserunnerState) Occupant(b Base) string {
	switch b {
	case BaseFirst:
		return s.First
	case BaseSecond:
		return s.Second
	case BaseThird:
		return s.Third
	}
	return ""
}

// IsOccupied reports whether the given base holds a runner.
func (s BaserunnerState) IsOccupied(b Base) bool {
	return s.Occupant(b) != ""
}

// WithRunner returns a copy of the state with the given base set to id.
// An empty id clears the base.
func (s BaserunnerState) WithRunner(b Base, id string) BaserunnerState {
	switch b {
	case BaseFirst:
		s.First = id
	case BaseSecond:
		s.Second = id
	case BaseThird:
		s.Third = id
	}
	return s
}

// Position returns the base the given player occupies, or BaseNone.
func (s BaserunnerState) Position(id string) Base {
	if id == "" {
		return BaseNone
	}
	switch id {
	case s.First:
		return BaseFirst
	case s.Second:
		return BaseSecond
	case s.Third:
		return BaseThird
	}
	return BaseNone
}

// Count returns the number of occupied bases.
func (s BaserunnerState) Count() int {
	n := 0
	for _, b := range []Base{BaseFirst, BaseSecond, BaseThird} {
		if s.IsOccupied(b) {
			n++
		}
	}
	return n
}

// Runners returns the occupant ids ordered lead runner first
// (third, second, first).
func (s BaserunnerState) Runners() []string {
	ids := make([]string, 0, 3)
	for _, b := range []Base{BaseThird, BaseSecond, BaseFirst} {
		if id := s.Occupant(b); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Shape returns the occupancy pattern of the state.
func (s BaserunnerState) Shape() BaseShape {
	switch {
	case s.First == "" && s.Second == "" && s.Third == "":
		return ShapeEmpty
	case s.First != "" && s.Second == "" && s.Third == "":
		return ShapeFirst
	case s.First == "" && s.Second != "" && s.Third == "":
		return ShapeSecond
	case s.First == "" && s.Second == "" && s.Third != "":
		return ShapeThird
	case s.First != "" && s.Second != "" && s.Third == "":
		return ShapeFirstSecond
	case s.First != "" && s.Second == "" && s.Third != "":
		return ShapeFirstThird
	case s.First == "" && s.Second != "" && s.Third != "":
		return ShapeSecondThird
	}
	return ShapeLoaded
}

// Valid reports whether no player id occupies more than one base.
func (s BaserunnerState) Valid() bool {
	seen := make(map[string]bool, 3)
	for _, b := range []Base{BaseFirst, BaseSecond, BaseThird} {
		id := s.Occupant(b)
		if id == "" {
			continue
		}
		if seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

// Equal reports whether two states have identical occupants.
func (s BaserunnerState) Equal(o BaserunnerState) bool {
	return s.First == o.First && s.Second == o.Second && s.Third == o.Third
}
