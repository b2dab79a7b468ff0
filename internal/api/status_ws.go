package api

import (
	"log"
	"net/http"
	"time"

	"clipseek/internal/services"
	"clipseek/internal/youtube"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the frontend domain is fixed
		return true
	},
}

const statusWriteTimeout = 10 * time.Second

// HandleStatusWebSocket streams build state events for one video over a
// websocket, so a client waiting on a slow index build doesn't have to
// poll. The stream sends the current state immediately, then every
// transition, and closes after ready or failed.
func (h *Handler) HandleStatusWebSocket(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]
	if !youtube.ValidVideoID(videoID) {
		http.Error(w, "invalid video id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	// Subscribe before reading the snapshot so a transition in between is
	// never missed.
	events, cancel := h.indexAdmin.Subscribe(videoID)
	defer cancel()

	state := h.indexAdmin.State(videoID)
	snapshot := services.BuildEvent{VideoID: videoID, State: state, At: time.Now()}
	if idx, ok := h.indexAdmin.Cached(videoID); ok {
		snapshot.ChunkCount = len(idx.Chunks)
	}
	if err := writeStatusEvent(conn, snapshot); err != nil {
		return
	}
	if stateIsTerminal(state) {
		return
	}

	// Read pump: discard client frames, unblock on disconnect.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-events:
			if err := writeStatusEvent(conn, ev); err != nil {
				return
			}
			if stateIsTerminal(ev.State) {
				return
			}
		case <-closed:
			return
		}
	}
}

func writeStatusEvent(conn *websocket.Conn, ev services.BuildEvent) error {
	conn.SetWriteDeadline(time.Now().Add(statusWriteTimeout))
	return conn.WriteJSON(ev)
}
