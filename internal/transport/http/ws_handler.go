package http

import (
	"encoding/json"
	"net/http"

	"quiz-arcade/internal/app"
	"quiz-arcade/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WSHandler runs one quiz session per WebSocket connection. The server
// pushes a state snapshot on every transition and countdown tick; the
// client drives the session with small typed messages.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.QuizService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

type selectPayload struct {
	Option string `json:"option"`
}

type scoresPayload struct {
	View       string `json:"view"` // "high" (default) or "recent"
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

type scoresResult struct {
	View    string               `json:"view"`
	Records []domain.ScoreRecord `json:"records"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the per-connection message loop.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 32)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	var (
		session   *app.Session
		cancelSub func()
		pumpStop  chan struct{}
		pumpDone  chan struct{}
	)

	stopPump := func() {
		if cancelSub == nil {
			return
		}
		close(pumpStop)
		cancelSub()
		<-pumpDone
		cancelSub = nil
	}

	defer func() {
		stopPump()
		if session != nil {
			session.Stop()
		}
		close(send)
		<-writerDone
	}()

	sendErr := func(msg string) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				sendErr("invalid start payload")
				continue
			}
			// Changing category or difficulty always abandons the previous
			// run; no record is emitted for it.
			stopPump()
			if session != nil {
				session.Stop()
				session = nil
			}
			started, err := h.service.StartSession(r.Context(), payload.Category, payload.Difficulty, nil)
			if err != nil {
				sendErr(err.Error())
				continue
			}
			session = started

			updates, cancel := session.Subscribe()
			cancelSub = cancel
			pumpStop = make(chan struct{})
			pumpDone = make(chan struct{})
			go pumpSnapshots(updates, send, pumpStop, pumpDone)

		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				sendErr("invalid select payload")
				continue
			}
			if session == nil {
				sendErr(domain.ErrNoSession.Error())
				continue
			}
			session.SelectAnswer(payload.Option)

		case "submit":
			if session == nil {
				sendErr(domain.ErrNoSession.Error())
				continue
			}
			session.Submit()

		case "reset":
			if session == nil {
				sendErr(domain.ErrNoSession.Error())
				continue
			}
			session.Reset()

		case "state":
			if session == nil {
				sendErr(domain.ErrNoSession.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "state", Payload: session.Snapshot()}

		case "scores":
			var payload scoresPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					sendErr("invalid scores payload")
					continue
				}
			}
			filter := domain.ScoreFilter{Category: payload.Category, Difficulty: payload.Difficulty}
			var records []domain.ScoreRecord
			if payload.View == "recent" {
				records = h.service.RecentScores(r.Context(), filter)
			} else {
				payload.View = "high"
				records = h.service.HighScores(r.Context(), filter)
			}
			send <- outboundMessage[any]{Type: "scores", Payload: scoresResult{View: payload.View, Records: records}}

		case "clearScores":
			if err := h.service.ClearScores(r.Context()); err != nil {
				sendErr(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "scores", Payload: scoresResult{View: "high", Records: []domain.ScoreRecord{}}}

		default:
			sendErr("unsupported message type")
		}
	}
}

func pumpSnapshots(updates <-chan domain.SessionSnapshot, send chan<- outboundMessage[any], stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			select {
			case send <- outboundMessage[any]{Type: "state", Payload: snap}:
			case <-stop:
				return
			}
		case <-stop:
			return
		}
	}
}
