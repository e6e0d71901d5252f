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
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Scoreboard clients only
	// ever send pings, so this is deliberately tight.
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// ScoreUpdate is the payload pushed to scoreboard watchers after every
// recorded play and lifecycle change. It is a snapshot, not a delta:
// late joiners get the full picture from the first message.
type ScoreUpdate struct {
	GameID   string          `json:"gameId"`
	Status   string          `json:"status"`
	Inning   int             `json:"inning"`
	Half     string          `json:"half"`
	Outs     int             `json:"outs"`
	Bases    BaserunnerState `json:"bases"`
	Score    Score           `json:"score"`
	Away     string          `json:"away,omitempty"`
	Home     string          `json:"home,omitempty"`
	LastPlay *AtBat          `json:"lastPlay,omitempty"`
}

func scoreUpdate(g *Game) ScoreUpdate {
	u := ScoreUpdate{
		GameID: g.ID,
		Status: g.Status,
		Inning: g.CurrentInning,
		Half:   g.CurrentHalf,
		Bases:  g.Bases,
		Score:  g.Score,
		Away:   g.Away,
		Home:   g.Home,
	}
	if g.Status == StatusInProgress {
		for i := len(g.Innings) - 1; i >= 0; i-- {
			in := g.Innings[i]
			if in.Number == g.CurrentInning && in.Half == g.CurrentHalf {
				u.Outs = in.Outs
				break
			}
		}
	}
	if n := len(g.AtBats); n > 0 {
		last := g.AtBats[n-1]
		u.LastPlay = &last
	}
	return u
}

// scoreboardHub fans a game's score updates out to its watchers.
// Watchers are read-only; the hub never accepts state from them.
type scoreboardHub struct {
	gameId string

	// Registered watchers.
	watchers map[*scoreboardWatcher]bool

	broadcast  chan ScoreUpdate
	register   chan *scoreboardWatcher
	unregister chan *scoreboardWatcher
	stop       chan struct{}

	// Last update sent, replayed to late joiners.
	last   *ScoreUpdate
	lastMu sync.Mutex
}

func newScoreboardHub(gameId string) *scoreboardHub {
	return &scoreboardHub{
		gameId:     gameId,
		watchers:   make(map[*scoreboardWatcher]bool),
		broadcast:  make(chan ScoreUpdate, 16),
		register:   make(chan *scoreboardWatcher),
		unregister: make(chan *scoreboardWatcher),
		stop:       make(chan struct{}),
	}
}

func (h *scoreboardHub) run() {
	for {
		select {
		case w := <-h.register:
			h.watchers[w] = true
			h.lastMu.Lock()
			last := h.last
			h.lastMu.Unlock()
			if last != nil {
				select {
				case w.send <- *last:
				default:
				}
			}
		case w := <-h.unregister:
			if h.watchers[w] {
				delete(h.watchers, w)
				close(w.send)
			}
		case u := <-h.broadcast:
			h.lastMu.Lock()
			h.last = &u
			h.lastMu.Unlock()
			for w := range h.watchers {
				select {
				case w.send <- u:
				default:
					// Slow consumer, drop it.
					delete(h.watchers, w)
					close(w.send)
				}
			}
		case <-h.stop:
			for w := range h.watchers {
				delete(h.watchers, w)
				close(w.send)
			}
			return
		}
	}
}

// scoreboardWatcher is a middleman between one websocket connection and
// the game's hub.
type scoreboardWatcher struct {
	hub  *scoreboardHub
	conn *websocket.Conn
	send chan ScoreUpdate
}

// readPump discards everything the peer sends but keeps the read side
// alive for pong handling and close detection.
func (w *scoreboardWatcher) readPump() {
	defer func() {
		w.hub.unregister <- w
		w.conn.Close()
	}()
	w.conn.SetReadLimit(maxMessageSize)
	w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error { w.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("scoreboard read error: %v", err)
			}
			break
		}
	}
}

// writePump pumps score updates from the hub to the websocket connection.
func (w *scoreboardWatcher) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		w.conn.Close()
	}()
	for {
		select {
		case update, ok := <-w.send:
			w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				w.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := w.conn.WriteJSON(update); err != nil {
				return
			}
		case <-ticker.C:
			w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ScoreboardManager owns one hub per game with active watchers.
type ScoreboardManager struct {
	mu   sync.Mutex
	hubs map[string]*scoreboardHub
}

// NewScoreboardManager creates a ScoreboardManager.
func NewScoreboardManager() *ScoreboardManager {
	return &ScoreboardManager{hubs: make(map[string]*scoreboardHub)}
}

func (sm *ScoreboardManager) getHub(gameId string) *scoreboardHub {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	h, ok := sm.hubs[gameId]
	if !ok {
		h = newScoreboardHub(gameId)
		sm.hubs[gameId] = h
		go h.run()
	}
	return h
}

// Publish pushes the game's current state to all of its watchers. A
// game nobody is watching costs one mutex hit and nothing else.
func (sm *ScoreboardManager) Publish(g *Game) {
	sm.mu.Lock()
	h, ok := sm.hubs[g.ID]
	sm.mu.Unlock()
	if !ok {
		return
	}
	select {
	case h.broadcast <- scoreUpdate(g):
	default:
		log.Printf("Warning: scoreboard broadcast buffer full for game %s", g.ID)
	}
}

// ServeWS upgrades the connection and attaches it to the game's hub.
func (sm *ScoreboardManager) ServeWS(w http.ResponseWriter, r *http.Request, gameId string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("scoreboard upgrade failed: %v", err)
		return
	}
	watcher := &scoreboardWatcher{
		hub:  sm.getHub(gameId),
		conn: conn,
		send: make(chan ScoreUpdate, 16),
	}
	watcher.hub.register <- watcher

	go watcher.writePump()
	go watcher.readPump()
}

// Shutdown stops all hubs and disconnects their watchers.
func (sm *ScoreboardManager) Shutdown() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, h := range sm.hubs {
		close(h.stop)
		delete(sm.hubs, id)
	}
}
