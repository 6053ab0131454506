package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ent0n29/mnemosyne/internal/chat"
	"github.com/ent0n29/mnemosyne/internal/config"
	"github.com/ent0n29/mnemosyne/internal/observability"
	"github.com/ent0n29/mnemosyne/internal/protocol"
)

type Server struct {
	cfg      config.Config
	service  *chat.Service
	upgrader websocket.Upgrader
}

func New(cfg config.Config, service *chat.Service) *Server {
	return &Server{
		cfg:     cfg,
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from
				// the same origin, so other sites cannot drive a user's
				// conversation if the service is exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat/message", s.handleChatMessage)
	r.Get("/v1/chat/context", s.handleChatContext)
	r.Get("/v1/chat/ws", s.handleChatWS)
	r.Post("/v1/memories/longterm", s.handleStoreFact)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type chatMessageRequest struct {
	ChannelID int64  `json:"channel_id"`
	UserID    int64  `json:"user_id"`
	Content   string `json:"content"`
}

type chatMessageResponse struct {
	ChannelID int64  `json:"channel_id"`
	Reply     string `json:"reply"`
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.ChannelID == 0 || req.UserID == 0 || strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "channel_id, user_id and content are required")
		return
	}

	reply, err := s.service.ProcessMessage(r.Context(), req.ChannelID, req.UserID, req.Content)
	if err != nil {
		respondTurnError(w, req.ChannelID, err)
		return
	}

	respondJSON(w, http.StatusOK, chatMessageResponse{ChannelID: req.ChannelID, Reply: reply})
}

func (s *Server) handleChatContext(w http.ResponseWriter, r *http.Request) {
	channelID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("channel_id")), 10, 64)
	if err != nil || channelID == 0 {
		respondError(w, http.StatusBadRequest, "invalid_channel_id", "query parameter channel_id is required")
		return
	}

	turns := s.service.ShortTermContext(channelID)
	respondJSON(w, http.StatusOK, map[string]any{
		"channel_id": channelID,
		"turns":      turns,
	})
}

type storeFactRequest struct {
	UserID   int64  `json:"user_id"`
	Fact     string `json:"fact"`
	Category string `json:"category"`
}

func (s *Server) handleStoreFact(w http.ResponseWriter, r *http.Request) {
	var req storeFactRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.UserID == 0 || strings.TrimSpace(req.Fact) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_id and fact are required")
		return
	}

	mem, err := s.service.StoreLongTermFact(r.Context(), req.UserID, req.Fact, req.Category)
	if err != nil {
		respondError(w, statusForTurnError(err), errorCode(err), chat.UserFacingMessage(err))
		return
	}

	respondJSON(w, http.StatusCreated, mem)
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = conn.WriteJSON(protocol.ErrorEvent{
				Type:    protocol.TypeErrorEvent,
				Code:    "invalid_message",
				Message: err.Error(),
			})
			continue
		}

		msg := parsed.(protocol.ChatMessage)
		reply, err := s.service.ProcessMessage(r.Context(), msg.ChannelID, msg.UserID, msg.Content)

		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err != nil {
			_ = conn.WriteJSON(protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				ChannelID: msg.ChannelID,
				Code:      errorCode(err),
				Message:   chat.UserFacingMessage(err),
			})
			continue
		}
		if err := conn.WriteJSON(protocol.ChatReply{
			Type:      protocol.TypeChatReply,
			ChannelID: msg.ChannelID,
			Content:   reply,
		}); err != nil {
			return
		}
	}
}

func respondTurnError(w http.ResponseWriter, channelID int64, err error) {
	respondJSON(w, statusForTurnError(err), map[string]any{
		"channel_id": channelID,
		"code":       errorCode(err),
		"error":      chat.UserFacingMessage(err),
	})
}

func statusForTurnError(err error) int {
	switch {
	case errors.Is(err, chat.ErrEmbedding), errors.Is(err, chat.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, chat.ErrEmbedding):
		return "embedding_error"
	case errors.Is(err, chat.ErrGeneration):
		return "generation_error"
	case errors.Is(err, chat.ErrStore):
		return "store_error"
	default:
		return "internal_error"
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
