package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/revenuepulse/pulse-mcp/pkg/protocol"
)

const keepAliveInterval = 30 * time.Second

// sseSession is one live streaming connection. Responses are queued on
// messages and written by the goroutine that owns the stream.
type sseSession struct {
	id       string
	messages chan *protocol.Response
	done     chan struct{}
}

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sseSession
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*sseSession)}
}

func (st *sessionStore) add(s *sseSession) {
	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
}

func (st *sessionStore) remove(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

func (st *sessionStore) get(id string) (*sseSession, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	return s, ok
}

// handleSSE is the streaming adapter's subscribe end: it opens a
// long-lived event stream, announces the message endpoint for this
// session, and pushes every dispatched response as a discrete event
// until the peer disconnects.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	session := &sseSession{
		id:       uuid.NewString(),
		messages: make(chan *protocol.Response, 16),
		done:     make(chan struct{}),
	}
	s.sessions.add(session)
	defer func() {
		s.sessions.remove(session.id)
		close(session.done)
	}()

	fmt.Fprintf(w, "event: endpoint\ndata: /message?session_id=%s\n\n", session.id)
	flusher.Flush()

	log.Info("sse session opened", "session", session.id)

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Info("sse session closed", "session", session.id)
			return
		case resp := <-session.messages:
			data, err := json.Marshal(resp)
			if err != nil {
				log.Error("failed to marshal response", "session", session.id, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

// handleMessage receives one JSON-RPC message for an open streaming
// session, dispatches it, and pushes the response on that session's
// stream. The POST itself only acknowledges receipt.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "missing session_id parameter", http.StatusBadRequest)
		return
	}
	session, ok := s.sessions.get(sessionID)
	if !ok {
		http.Error(w, "unknown session", http.StatusBadRequest)
		return
	}

	var req protocol.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		session.push(&protocol.Response{
			JSONRPC: protocol.Version,
			Error: &protocol.Error{
				Code:    protocol.ParseError,
				Message: "Parse error",
				Data:    err.Error(),
			},
		})
		w.WriteHeader(http.StatusAccepted)
		return
	}

	resp := s.handler.Handle(r.Context(), &req)
	// Notifications carry no id and must not be answered.
	if req.ID != nil && resp != nil {
		session.push(resp)
	}
	w.WriteHeader(http.StatusAccepted)
}

func (sess *sseSession) push(resp *protocol.Response) {
	select {
	case sess.messages <- resp:
	case <-sess.done:
	}
}
