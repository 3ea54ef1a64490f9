package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/alan-christopher/qkdsim/bb84/batch"
	"github.com/gorilla/websocket"
)

// StreamFrame is one websocket message of a streamed batch. Type is "run" or
// "failure" per finished run, then one "summary" or "error".
type StreamFrame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

const streamWriteWait = 10 * time.Second

// handleStream runs one batch per connection. The client sends a single
// BatchRequest and receives a frame per run as runs complete, in completion
// order, then the full BatchResponse.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBodyBytes)

	var mu sync.Mutex
	send := func(f StreamFrame) error {
		mu.Lock()
		defer mu.Unlock()
		if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
			return err
		}
		return conn.WriteJSON(f)
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		s.log.Warn("websocket read failed", "err", err)
		return
	}
	var req BatchRequest
	if err := s.decodeBytes(raw, schemaBatch, &req); err != nil {
		s.streamError(send, err)
		s.close(conn, &mu)
		return
	}

	onRun := func(eff effectiveConfig, run batch.RunResult) {
		var f StreamFrame
		if run.Err != nil {
			code, _ := classify(run.Err)
			f = StreamFrame{Type: "failure", Data: RunFailure{
				Index: run.Index, Seed: run.Seed, Error: code, Message: run.Err.Error(),
			}}
		} else {
			one, err := s.runResponse(eff, run)
			if err != nil {
				s.log.Error("stream run", "index", run.Index, "err", err)
				return
			}
			one.Timestamp = s.now().UTC()
			f = StreamFrame{Type: "run", Data: struct {
				Index int `json:"index"`
				ExecuteResponse
			}{run.Index, one}}
		}
		if err := send(f); err != nil {
			s.log.Debug("stream write failed", "index", run.Index, "err", err)
		}
	}
	resp, err := s.runBatch(r.Context(), req, onRun)
	if err != nil {
		s.streamError(send, err)
	} else if err := send(StreamFrame{Type: "summary", Data: resp}); err != nil {
		s.log.Debug("stream write failed", "err", err)
	}
	s.close(conn, &mu)
}

func (s *Server) streamError(send func(StreamFrame) error, err error) {
	code, status := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("stream failed", "err", err)
	}
	if werr := send(StreamFrame{Type: "error", Data: ErrorResponse{Error: code, Message: err.Error()}}); werr != nil {
		s.log.Debug("stream write failed", "err", werr)
	}
}

func (s *Server) close(conn *websocket.Conn, mu *sync.Mutex) {
	mu.Lock()
	defer mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteWait)); err != nil {
		s.log.Debug("websocket close failed", "err", err)
	}
}
