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
	"fmt"
	"iter"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/c2FmZQ/storage"
)

// GameMetadata contains only the fields needed for indexing and listing,
// without the action-heavy innings and at-bat history.
type GameMetadata struct {
	ID          string      `json:"id"`
	OwnerID     string      `json:"ownerId"`
	Permissions Permissions `json:"permissions"`
	Date        string      `json:"date,omitempty"`
	Event       string      `json:"event,omitempty"`
	Away        string      `json:"away,omitempty"`
	Home        string      `json:"home,omitempty"`
	AwayTeamID  string      `json:"awayTeamId,omitempty"`
	HomeTeamID  string      `json:"homeTeamId,omitempty"`
	Status      string      `json:"status"`
	Score       Score       `json:"score"`
	UpdatedAt   int64       `json:"updatedAt,omitempty"`
	DeletedAt   int64       `json:"deletedAt,omitempty"`
}

func (g *Game) metadata() GameMetadata {
	return GameMetadata{
		ID:          g.ID,
		OwnerID:     g.OwnerID,
		Permissions: g.Permissions,
		Date:        g.Date,
		Event:       g.Event,
		Away:        g.Away,
		Home:        g.Home,
		AwayTeamID:  g.AwayTeamID,
		HomeTeamID:  g.HomeTeamID,
		Status:      g.Status,
		Score:       g.Score,
		UpdatedAt:   g.UpdatedAt,
		DeletedAt:   g.DeletedAt,
	}
}

// GameStore manages game persistence to disk. It implements the
// engine's GameSource collaborator: the engine never touches storage
// directly.
type GameStore struct {
	DataDir string
	Debug   bool
	storage *storage.Storage
	mu      sync.Map // *sync.RWMutex per gameId to protect writes and reads
	cache   sync.Map // latest []byte (JSON) per gameId

	dirtyMu sync.Mutex
	dirty   map[string]bool

	indexMu sync.Mutex
	index   *Registry // optional SQLite index, updated on save/delete
}

// NewGameStore creates a new GameStore.
func NewGameStore(dataDir string, s *storage.Storage) *GameStore {
	return &GameStore{
		DataDir: dataDir,
		storage: s,
		dirty:   make(map[string]bool),
	}
}

// SetIndex attaches a Registry that is kept up to date on every save
// and delete.
func (gs *GameStore) SetIndex(r *Registry) {
	gs.indexMu.Lock()
	gs.index = r
	gs.indexMu.Unlock()
}

func (gs *GameStore) indexGame(meta GameMetadata) {
	gs.indexMu.Lock()
	idx := gs.index
	gs.indexMu.Unlock()
	if idx == nil {
		return
	}
	if err := idx.IndexGame(meta); err != nil {
		log.Printf("Warning: failed to index game %s: %v", meta.ID, err)
	}
}

func gameFilenames(gameId string) (string, string) {
	encoded := url.PathEscape(gameId)
	return filepath.Join("games", fmt.Sprintf("%s.json", encoded)),
		filepath.Join("games", fmt.Sprintf("%s.meta.json", encoded))
}

// SaveGame saves the game data atomically and refreshes the metadata
// sidecar and index.
func (gs *GameStore) SaveGame(game *Game) error {
	gameId := game.ID
	m, _ := gs.mu.LoadOrStore(gameId, &sync.RWMutex{})
	mutex := m.(*sync.RWMutex)

	mutex.Lock()
	defer mutex.Unlock()

	filename, metaFilename := gameFilenames(gameId)

	if err := gs.storage.SaveDataFile(filename, game); err != nil {
		return fmt.Errorf("storage.SaveDataFile: %w", err)
	}

	meta := game.metadata()
	if err := gs.storage.SaveDataFile(metaFilename, &meta); err != nil {
		// Non-fatal, listing falls back to the main file.
		log.Printf("Warning: Failed to save metadata sidecar for game %s: %v", gameId, err)
	}

	if jsonBytes, err := json.Marshal(game); err == nil {
		gs.cache.Store(gameId, jsonBytes)
	}

	gs.dirtyMu.Lock()
	delete(gs.dirty, gameId)
	gs.dirtyMu.Unlock()

	gs.indexGame(meta)
	return nil
}

// SaveGameInMemory updates the in-memory cache and marks the game as
// dirty for a later Flush. If forceSync is true it writes through to
// disk immediately.
func (gs *GameStore) SaveGameInMemory(game *Game, forceSync bool) error {
	jsonBytes, err := json.Marshal(game)
	if err != nil {
		return err
	}
	gs.cache.Store(game.ID, jsonBytes)

	if forceSync {
		return gs.SaveGame(game)
	}

	gs.dirtyMu.Lock()
	gs.dirty[game.ID] = true
	gs.dirtyMu.Unlock()

	gs.indexGame(game.metadata())
	return nil
}

// Flush persists a specific game to disk if it is dirty.
func (gs *GameStore) Flush(gameId string) error {
	gs.dirtyMu.Lock()
	if !gs.dirty[gameId] {
		gs.dirtyMu.Unlock()
		return nil
	}
	gs.dirtyMu.Unlock()

	val, ok := gs.cache.Load(gameId)
	if !ok {
		gs.dirtyMu.Lock()
		delete(gs.dirty, gameId)
		gs.dirtyMu.Unlock()
		return fmt.Errorf("game %s marked dirty but not found in cache", gameId)
	}

	var g Game
	if err := json.Unmarshal(val.([]byte), &g); err != nil {
		return fmt.Errorf("failed to unmarshal game from cache for flush: %w", err)
	}

	// SaveGame clears the dirty flag.
	return gs.SaveGame(&g)
}

// FlushAll persists all dirty games to disk.
func (gs *GameStore) FlushAll() error {
	gs.dirtyMu.Lock()
	dirtyIds := make([]string, 0, len(gs.dirty))
	for id := range gs.dirty {
		dirtyIds = append(dirtyIds, id)
	}
	gs.dirtyMu.Unlock()

	for _, id := range dirtyIds {
		if err := gs.Flush(id); err != nil {
			return fmt.Errorf("failed to flush game %s: %w", id, err)
		}
	}
	return nil
}

// LoadGame loads the game data by game ID.
func (gs *GameStore) LoadGame(gameId string) (*Game, error) {
	if val, ok := gs.cache.Load(gameId); ok {
		var g Game
		if err := json.Unmarshal(val.([]byte), &g); err == nil {
			if gs.Debug {
				log.Printf("[CACHE] Hit for game %s", gameId)
			}
			g.normalize()
			return &g, nil
		}
		gs.cache.Delete(gameId)
	}
	if gs.Debug {
		log.Printf("[CACHE] Miss for game %s", gameId)
	}

	m, _ := gs.mu.LoadOrStore(gameId, &sync.RWMutex{})
	mutex := m.(*sync.RWMutex)

	mutex.RLock()
	defer mutex.RUnlock()

	filename, _ := gameFilenames(gameId)

	var g Game
	if err := gs.storage.ReadDataFile(filename, &g); err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("ReadDataFile: %w", err)
	}
	if g.SchemaVersion > CurrentSchemaVersion {
		return nil, fmt.Errorf("game %s has schema version %d, newer than supported %d", gameId, g.SchemaVersion, CurrentSchemaVersion)
	}
	g.normalize()

	if jsonBytes, err := json.Marshal(&g); err == nil {
		gs.cache.Store(gameId, jsonBytes)
	}

	return &g, nil
}

// LoadGameAsJSON is a helper for API handlers that just want bytes.
func (gs *GameStore) LoadGameAsJSON(gameId string) ([]byte, error) {
	g, err := gs.LoadGame(gameId)
	if err != nil {
		return nil, err
	}
	return json.Marshal(g)
}

// DeleteGame deletes a specific game by overwriting it with a tombstone.
func (gs *GameStore) DeleteGame(gameId string) error {
	g, err := gs.LoadGame(gameId)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	m, _ := gs.mu.LoadOrStore(gameId, &sync.RWMutex{})
	mutex := m.(*sync.RWMutex)

	mutex.Lock()
	defer mutex.Unlock()

	tombstone := &Game{
		ID:            gameId,
		SchemaVersion: CurrentSchemaVersion,
		Status:        StatusDeleted,
		OwnerID:       g.OwnerID,
		DeletedAt:     time.Now().UnixNano(),
	}

	filename, metaFilename := gameFilenames(gameId)

	if err := gs.storage.SaveDataFile(filename, tombstone); err != nil {
		return fmt.Errorf("storage.SaveDataFile (tombstone): %w", err)
	}
	meta := tombstone.metadata()
	if err := gs.storage.SaveDataFile(metaFilename, &meta); err != nil {
		log.Printf("Warning: Failed to save metadata tombstone for game %s: %v", gameId, err)
	}

	if jsonBytes, err := json.Marshal(tombstone); err == nil {
		gs.cache.Store(gameId, jsonBytes)
	}

	gs.indexGame(meta)
	return nil
}

// PurgeGame permanently deletes the game file.
func (gs *GameStore) PurgeGame(gameId string) error {
	m, _ := gs.mu.LoadOrStore(gameId, &sync.RWMutex{})
	mutex := m.(*sync.RWMutex)

	mutex.Lock()
	defer mutex.Unlock()

	gs.cache.Delete(gameId)

	filename, metaFilename := gameFilenames(gameId)
	fullPath := filepath.Join(gs.DataDir, filename)
	fullMetaPath := filepath.Join(gs.DataDir, metaFilename)

	if err := os.Remove(fullPath); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("could not purge game file: %w", err)
		}
	}
	if err := os.Remove(fullMetaPath); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: could not purge meta file for game %s: %v", gameId, err)
		}
	}

	gs.indexMu.Lock()
	idx := gs.index
	gs.indexMu.Unlock()
	if idx != nil {
		if err := idx.RemoveGame(gameId); err != nil {
			log.Printf("Warning: could not remove game %s from index: %v", gameId, err)
		}
	}
	return nil
}

// ListAllGameMetadata returns metadata for all games without loading
// full game histories. The .meta.json sidecar is the fast path; games
// without one fall back to the main file.
func (gs *GameStore) ListAllGameMetadata() iter.Seq2[GameMetadata, error] {
	return func(yield func(GameMetadata, error) bool) {
		gamesDir := filepath.Join(gs.DataDir, "games")
		files, err := os.ReadDir(gamesDir)
		if err != nil && !os.IsNotExist(err) {
			yield(GameMetadata{}, fmt.Errorf("could not read games directory: %w", err))
			return
		}

		hasMeta := make(map[string]bool)
		hasGame := make(map[string]bool)

		for _, file := range files {
			if file.IsDir() {
				continue
			}
			name := file.Name()
			if strings.HasSuffix(name, ".meta.json") {
				if id, err := url.PathUnescape(strings.TrimSuffix(name, ".meta.json")); err == nil {
					hasMeta[id] = true
				}
			} else if strings.HasSuffix(name, ".json") {
				if id, err := url.PathUnescape(strings.TrimSuffix(name, ".json")); err == nil {
					hasGame[id] = true
				}
			}
		}

		processed := make(map[string]bool)

		for id := range hasMeta {
			processed[id] = true

			_, metaFilename := gameFilenames(id)
			var meta GameMetadata
			if err := gs.storage.ReadDataFile(metaFilename, &meta); err != nil {
				log.Printf("Warning: failed to load metadata for %s: %v. Falling back to main file.", id, err)
				hasGame[id] = true
				processed[id] = false
				continue
			}
			if !yield(meta, nil) {
				return
			}
		}

		for id := range hasGame {
			if processed[id] {
				continue
			}
			processed[id] = true

			g, err := gs.LoadGame(id)
			if err != nil {
				log.Printf("Warning: failed to load game %s from disk: %v", id, err)
				continue
			}
			if !yield(g.metadata(), nil) {
				return
			}
		}

		// Games created in memory but not yet flushed.
		gs.dirtyMu.Lock()
		dirtyIds := make([]string, 0, len(gs.dirty))
		for id := range gs.dirty {
			dirtyIds = append(dirtyIds, id)
		}
		gs.dirtyMu.Unlock()

		for _, id := range dirtyIds {
			if processed[id] {
				continue
			}
			g, err := gs.LoadGame(id)
			if err != nil {
				log.Printf("Error: Failed to load dirty game %s: %v", id, err)
				continue
			}
			if !yield(g.metadata(), nil) {
				return
			}
		}
	}
}
