package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prepstack/mockexam-backend/internal/middleware"
	"github.com/prepstack/mockexam-backend/internal/service"
	ws "github.com/prepstack/mockexam-backend/internal/websocket"
	"github.com/rs/zerolog"
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

// WSHandler streams attempt events to candidates: section expiry and
// completion pushes from the engine, plus server-authoritative time sync on
// request.
type WSHandler struct {
	attemptService *service.AttemptService
	hub            *ws.Hub
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, hub *ws.Hub, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		hub:            hub,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/candidate/assessments/:assessment_id/stream
// Upgrades to WebSocket for real-time attempt events.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	assessmentID, err := uuid.Parse(c.Param("assessment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assessment ID"})
		return
	}

	attempt, err := h.attemptService.AttemptFor(c.Request.Context(), assessmentID, claims.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no attempt for this assessment"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(conn)
	defer client.Close()

	attemptID := attempt.ID
	h.hub.Register(attemptID.String(), client)
	defer h.hub.Unregister(attemptID.String(), client)

	wsLog := h.log.With().
		Int("candidate_id", claims.UserID).
		Str("attempt_id", attemptID.String()).
		Logger()

	wsLog.Info().Msg("Candidate connected")

	for {
		var msg ws.RequestEnvelope
		err := client.Read(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionPing:
			client.Send(ws.PongResponse{Event: ws.EventPong})
		case ws.ActionTimeSync:
			h.handleTimeSync(client, attemptID)
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			client.SendError("unknown action: " + string(msg.Action))
		}
	}
}

// handleTimeSync replies with the engine's authoritative remaining time.
func (h *WSHandler) handleTimeSync(client *ws.Client, attemptID uuid.UUID) {
	snap, err := h.attemptService.SnapshotByAttempt(attemptID)
	if err != nil {
		client.SendError("attempt is not live")
		return
	}

	client.Send(ws.TimeSyncResponse{
		Event:            ws.EventTimeSync,
		SectionIndex:     snap.CurrentSectionIndex,
		RemainingSeconds: snap.RemainingSeconds,
		Phase:            string(snap.Phase),
	})
}
