/*
Copyright (C) 2023-2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package cube

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hackiado/eikyu/internal/event"
)

// WatchServer is an optional, off-by-default broadcaster that pushes every
// finalised commit event to connected websocket subscribers (spec §4.8).
// It never touches the cube file and has no effect on Append's durability
// or ordering guarantees.
type WatchServer struct {
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[*websocket.Conn]chan []byte
}

// NewWatchServer builds a WatchServer ready to be Attach-ed to a Writer and
// mounted as an http.Handler.
func NewWatchServer() *WatchServer {
	ws := &WatchServer{
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		subs:     make(map[*websocket.Conn]chan []byte),
	}
	ws.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	return ws
}

// ServeHTTP upgrades the connection and keeps it registered until a write to
// it fails or publish drops it as too slow. It never reads from the peer, so
// a disconnect is noticed only at the next failed write.
func (ws *WatchServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	out := make(chan []byte, 16)
	ws.mu.Lock()
	ws.subs[conn] = out
	ws.mu.Unlock()

	defer func() {
		ws.mu.Lock()
		delete(ws.subs, conn)
		ws.mu.Unlock()
		conn.Close()
	}()

	for msg := range out {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// publish best-effort broadcasts ev to every connected subscriber. A slow or
// stuck subscriber is dropped rather than allowed to block Append.
func (ws *WatchServer) publish(ev event.Event) {
	payload, err := json.Marshal(struct {
		ID         uint64 `json:"id"`
		Phenomenon string `json:"phenomenon"`
		Noumenon   string `json:"noumenon"`
	}{ev.ID, ev.Phenomenon, ev.Noumenon})
	if err != nil {
		return
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	for conn, out := range ws.subs {
		select {
		case out <- payload:
		default:
			delete(ws.subs, conn)
			close(out)
		}
	}
}
