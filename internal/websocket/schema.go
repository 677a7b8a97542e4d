package websocket

import "github.com/eduplatforme/exam-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is the only client message shape; the stream is server-driven.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventReady  Event = "ready"
	EventResult Event = "result"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// ReadyResponse confirms the subscription is live.
type ReadyResponse struct {
	Event  Event  `json:"event"`
	ExamID string `json:"examId"`
}

// ResultResponse carries one graded submission.
type ResultResponse struct {
	Event  Event             `json:"event"`
	Result model.ResultEvent `json:"result"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
