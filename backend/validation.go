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
	"net/mail"
	"regexp"
	"time"
)

// uuidRegex is a regex for standard UUIDs (8-4-4-4-12 hex digits)
var uuidRegex = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

// isValidUUID checks if the string is a valid UUID.
func isValidUUID(id string) bool {
	return uuidRegex.MatchString(id)
}

// isValidEmail checks if the string is a valid email address.
func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// validateStringLen checks if the string length is within the limit.
func validateStringLen(s string, max int, name string) error {
	if len(s) > max {
		return fmt.Errorf("%s too long (max %d chars)", name, max)
	}
	return nil
}

// GameMetadataPayload is the caller-supplied descriptive portion of a
// game: names, event, scheduling. Engine state never passes through it.
type GameMetadataPayload struct {
	Date             string `json:"date,omitempty"`
	Location         string `json:"location,omitempty"`
	Event            string `json:"event,omitempty"`
	Away             string `json:"away,omitempty"`
	Home             string `json:"home,omitempty"`
	AwayTeamID       string `json:"awayTeamId,omitempty"`
	HomeTeamID       string `json:"homeTeamId,omitempty"`
	ScheduledInnings int    `json:"scheduledInnings,omitempty"`
}

// ValidateGameMetadata field-checks a create/update payload.
func ValidateGameMetadata(p GameMetadataPayload) error {
	if err := validateStringLen(p.Away, 50, "away team"); err != nil {
		return err
	}
	if err := validateStringLen(p.Home, 50, "home team"); err != nil {
		return err
	}
	if err := validateStringLen(p.Event, 100, "event"); err != nil {
		return err
	}
	if err := validateStringLen(p.Location, 100, "location"); err != nil {
		return err
	}
	if p.Date != "" {
		if _, err := time.Parse(time.RFC3339, p.Date); err != nil {
			return fmt.Errorf("invalid date format: %v", err)
		}
	}
	if p.ScheduledInnings < 0 || p.ScheduledInnings > 25 {
		return fmt.Errorf("invalid scheduled innings: %d", p.ScheduledInnings)
	}
	if p.AwayTeamID != "" && !isValidUUID(p.AwayTeamID) {
		return fmt.Errorf("invalid away team ID")
	}
	if p.HomeTeamID != "" && !isValidUUID(p.HomeTeamID) {
		return fmt.Errorf("invalid home team ID")
	}
	return nil
}

// ValidateRecordAtBatCommand runs the transport-level field checks on an
// inbound at-bat command before it reaches the engine: id formats and
// string bounds. The engine performs the semantic validation sequence.
func ValidateRecordAtBatCommand(cmd RecordAtBatCommand) error {
	if cmd.GameID == "" {
		return fmt.Errorf("missing game id")
	}
	if cmd.BatterID == "" {
		return fmt.Errorf("missing batter id")
	}
	if err := validateStringLen(cmd.BatterID, 50, "batter id"); err != nil {
		return err
	}
	if err := validateStringLen(cmd.Description, MaxDescriptionLen, "description"); err != nil {
		return err
	}
	if cmd.Half != "" && cmd.Half != HalfTop && cmd.Half != HalfBottom {
		return fmt.Errorf("invalid half: %s", cmd.Half)
	}
	if cmd.Params.Aggressiveness != "" && !cmd.Params.Aggressiveness.Known() {
		return fmt.Errorf("invalid aggressiveness: %s", cmd.Params.Aggressiveness)
	}
	return nil
}

// ValidateSetupLineupCommand runs the transport-level field checks on an
// inbound lineup command.
func ValidateSetupLineupCommand(cmd SetupLineupCommand) error {
	if cmd.GameID == "" {
		return fmt.Errorf("missing game id")
	}
	if cmd.Side != "" && cmd.Side != SideAway && cmd.Side != SideHome {
		return fmt.Errorf("invalid side: %s", cmd.Side)
	}
	for _, s := range cmd.Slots {
		if err := validateStringLen(s.PlayerID, 50, "player id"); err != nil {
			return err
		}
		if err := validateStringLen(s.Position, 10, "position"); err != nil {
			return err
		}
	}
	for _, id := range cmd.Subs {
		if err := validateStringLen(id, 50, "substitute id"); err != nil {
			return err
		}
	}
	return nil
}
