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
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ttbt-io/inningkeeper/backend/search"
)

// Registry is the queryable index of games. The encrypted game files
// are the source of truth; the registry is a disposable SQLite index
// over their metadata that can be rebuilt from the store at any time.
type Registry struct {
	db *sql.DB
}

const registrySchema = `
CREATE TABLE IF NOT EXISTS games (
	id           TEXT PRIMARY KEY,
	owner_id     TEXT NOT NULL,
	public       TEXT NOT NULL DEFAULT '',
	users        TEXT NOT NULL DEFAULT '{}',
	date         TEXT NOT NULL DEFAULT '',
	event        TEXT NOT NULL DEFAULT '',
	away         TEXT NOT NULL DEFAULT '',
	home         TEXT NOT NULL DEFAULT '',
	away_team_id TEXT NOT NULL DEFAULT '',
	home_team_id TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT '',
	score_away   INTEGER NOT NULL DEFAULT 0,
	score_home   INTEGER NOT NULL DEFAULT 0,
	updated_at   INTEGER NOT NULL DEFAULT 0,
	deleted_at   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_games_owner ON games(owner_id);
CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
`

// OpenRegistry opens (or creates) the SQLite index at path.
func OpenRegistry(path string) (*Registry, error) {
	dsn := path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(registrySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create registry schema: %w", err)
	}
	return &Registry{db: db}, nil
}

// Close closes the SQLite handle.
func (r *Registry) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// IndexGame inserts or refreshes one game's index row.
func (r *Registry) IndexGame(meta GameMetadata) error {
	users := "{}"
	if meta.Permissions.Users != nil {
		if b, err := json.Marshal(meta.Permissions.Users); err == nil {
			users = string(b)
		}
	}
	_, err := r.db.Exec(`
		INSERT INTO games (id, owner_id, public, users, date, event, away, home,
			away_team_id, home_team_id, status, score_away, score_home, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			public = excluded.public,
			users = excluded.users,
			date = excluded.date,
			event = excluded.event,
			away = excluded.away,
			home = excluded.home,
			away_team_id = excluded.away_team_id,
			home_team_id = excluded.home_team_id,
			status = excluded.status,
			score_away = excluded.score_away,
			score_home = excluded.score_home,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at`,
		meta.ID, normalizeEmail(meta.OwnerID), meta.Permissions.Public, users,
		meta.Date, meta.Event, meta.Away, meta.Home,
		meta.AwayTeamID, meta.HomeTeamID, meta.Status,
		meta.Score.Away, meta.Score.Home, meta.UpdatedAt, meta.DeletedAt)
	if err != nil {
		return fmt.Errorf("index game %s: %w", meta.ID, err)
	}
	return nil
}

// RemoveGame drops a game from the index entirely (purge, not tombstone).
func (r *Registry) RemoveGame(gameId string) error {
	if _, err := r.db.Exec(`DELETE FROM games WHERE id = ?`, gameId); err != nil {
		return fmt.Errorf("remove game %s: %w", gameId, err)
	}
	return nil
}

// Rebuild repopulates the index from the game store. Existing rows are
// dropped first.
func (r *Registry) Rebuild(gs *GameStore) error {
	if _, err := r.db.Exec(`DELETE FROM games`); err != nil {
		return fmt.Errorf("truncate index: %w", err)
	}
	count := 0
	for meta, err := range gs.ListAllGameMetadata() {
		if err != nil {
			return err
		}
		if err := r.IndexGame(meta); err != nil {
			log.Printf("Warning: rebuild could not index game %s: %v", meta.ID, err)
			continue
		}
		count++
	}
	log.Printf("Registry: rebuilt index with %d games", count)
	return nil
}

// CountGames returns the number of live (non-deleted) games in the index.
func (r *Registry) CountGames() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM games WHERE status != ?`, StatusDeleted).Scan(&n)
	return n, err
}

func (r *Registry) rowToMetadata(rows *sql.Rows) (GameMetadata, error) {
	var m GameMetadata
	var users string
	err := rows.Scan(&m.ID, &m.OwnerID, &m.Permissions.Public, &users,
		&m.Date, &m.Event, &m.Away, &m.Home,
		&m.AwayTeamID, &m.HomeTeamID, &m.Status,
		&m.Score.Away, &m.Score.Home, &m.UpdatedAt, &m.DeletedAt)
	if err != nil {
		return m, err
	}
	if users != "" && users != "{}" {
		if err := json.Unmarshal([]byte(users), &m.Permissions.Users); err != nil {
			m.Permissions.Users = nil
		}
	}
	return m, nil
}

// ListGames returns metadata for all games the user can see, newest
// first, filtered by the search query. Visibility means owner, named in
// the permission map, or public read. Tombstones are never listed.
func (r *Registry) ListGames(userId, query string) ([]GameMetadata, error) {
	userId = normalizeEmail(userId)

	rows, err := r.db.Query(`
		SELECT id, owner_id, public, users, date, event, away, home,
			away_team_id, home_team_id, status, score_away, score_home, updated_at, deleted_at
		FROM games
		WHERE status != ?
		  AND (owner_id = ? OR public = 'read' OR instr(users, ?) > 0)
		ORDER BY updated_at DESC`,
		StatusDeleted, userId, fmt.Sprintf("%q", userId))
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var q search.Query
	if query != "" {
		q = search.Parse(query)
	}

	var out []GameMetadata
	for rows.Next() {
		m, err := r.rowToMetadata(rows)
		if err != nil {
			return nil, err
		}
		// instr is a substring match; confirm against the decoded map.
		if normalizeEmail(m.OwnerID) != userId && m.Permissions.Public != "read" {
			granted := false
			for u := range m.Permissions.Users {
				if normalizeEmail(u) == userId {
					granted = true
					break
				}
			}
			if !granted {
				continue
			}
		}
		if query != "" && !matchesGame(m, q) {
			continue
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListGamesByTeam returns metadata for live games linked to a team.
func (r *Registry) ListGamesByTeam(teamId string) ([]GameMetadata, error) {
	rows, err := r.db.Query(`
		SELECT id, owner_id, public, users, date, event, away, home,
			away_team_id, home_team_id, status, score_away, score_home, updated_at, deleted_at
		FROM games
		WHERE status != ? AND (away_team_id = ? OR home_team_id = ?)
		ORDER BY updated_at DESC`,
		StatusDeleted, teamId, teamId)
	if err != nil {
		return nil, fmt.Errorf("list games by team: %w", err)
	}
	defer rows.Close()

	var out []GameMetadata
	for rows.Next() {
		m, err := r.rowToMetadata(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func containsLower(s, substrLower string) bool {
	return strings.Contains(strings.ToLower(s), substrLower)
}

// matchesGame applies a parsed search query to game metadata. Supported
// filter keys: status, event, date (with ranges and comparisons), team.
// Free text matches team names and the event.
func matchesGame(m GameMetadata, q search.Query) bool {
	for _, f := range q.Filters {
		switch f.Key {
		case "status":
			if !strings.EqualFold(m.Status, f.Value) {
				return false
			}
		case "event":
			if !containsLower(m.Event, strings.ToLower(f.Value)) {
				return false
			}
		case "team":
			v := strings.ToLower(f.Value)
			if !containsLower(m.Away, v) && !containsLower(m.Home, v) {
				return false
			}
		case "date":
			if !checkDateFilter(m.Date, f) {
				return false
			}
		default:
			return false
		}
	}
	for _, t := range q.FreeText {
		v := strings.ToLower(t)
		if !containsLower(m.Away, v) && !containsLower(m.Home, v) &&
			!containsLower(m.Event, v) {
			return false
		}
	}
	return true
}

// checkDateFilter compares ISO dates lexicographically, which works for
// both full dates and year or month prefixes.
func checkDateFilter(dateVal string, f search.Filter) bool {
	if dateVal == "" {
		return false
	}
	switch f.Operator {
	case search.OpRange:
		return dateVal >= f.Value && dateVal <= f.MaxValue+"\xff"
	case search.OpGreater:
		return dateVal > f.Value
	case search.OpGreaterOrEqual:
		return dateVal >= f.Value
	case search.OpLess:
		return dateVal < f.Value
	case search.OpLessOrEqual:
		return dateVal <= f.Value+"\xff"
	default:
		return strings.HasPrefix(dateVal, f.Value)
	}
}
