package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/eduplatforme/exam-backend/internal/middleware"
	"github.com/eduplatforme/exam-backend/internal/model"
	"github.com/eduplatforme/exam-backend/internal/response"
	"github.com/eduplatforme/exam-backend/internal/service"
	ws "github.com/eduplatforme/exam-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// ResultSubscriber opens a live feed of graded submissions for one exam. The feed
// ends when ctx is cancelled.
type ResultSubscriber interface {
	Subscribe(ctx context.Context, examID uuid.UUID) (<-chan model.ResultEvent, error)
}

// ResultsWSHandler streams graded submissions to the owning teacher.
type ResultsWSHandler struct {
	examService *service.ExamService
	results     ResultSubscriber
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewResultsWSHandler creates a new ResultsWSHandler.
func NewResultsWSHandler(examService *service.ExamService, results ResultSubscriber, log zerolog.Logger, allowedOrigins []string) *ResultsWSHandler {
	return &ResultsWSHandler{
		examService: examService,
		results:     results,
		log:         log.With().Str("component", "results_ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// StreamResults godoc
// WS /ws/v1/exams/:id/results?token=...
// Pushes a "result" event for every graded submission of the exam. Owner only.
func (h *ResultsWSHandler) StreamResults(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	// Ownership is checked before the upgrade so the client gets a normal HTTP error.
	if _, err := h.examService.GetOwned(c.Request.Context(), actor, examID); err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("teacher_id", actor.ID.String()).
		Str("exam_id", examID.String()).
		Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := h.results.Subscribe(ctx, examID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Result channel subscription failed")
		_ = ws.WriteError(conn, "subscription failed")
		return
	}

	if err := ws.WriteTyped(conn, ws.ReadyResponse{Event: ws.EventReady, ExamID: examID.String()}); err != nil {
		return
	}
	wsLog.Info().Msg("Teacher connected to results stream")

	pings := make(chan struct{}, 1)
	go h.readLoop(conn, wsLog, pings, cancel)

	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("Connection closed")
			return
		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		case <-ticker.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := ws.WriteTyped(conn, ws.ResultResponse{Event: ws.EventResult, Result: ev}); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
		}
	}
}

// readLoop owns the read side. It relays pings and cancels the stream once the client goes away.
func (h *ResultsWSHandler) readLoop(conn *websocket.Conn, log zerolog.Logger, pings chan<- struct{}, cancel context.CancelFunc) {
	defer cancel()
	ws.KeepAlive(conn)

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		if msg.Action == ws.ActionPing {
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	}
}
