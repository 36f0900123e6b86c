package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const adminQueryTimeout = time.Second

// RoomSummary 房间的只读视图
type RoomSummary struct {
	Code        string     `json:"code"`
	PlayerCount int        `json:"playerCount"`
	MaxPlayers  int        `json:"maxPlayers"`
	Running     bool       `json:"running"`
	Players     []PlayerID `json:"players"`
	Winner      PlayerID   `json:"winner,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func summarize(r *Room) RoomSummary {
	ids := make([]PlayerID, 0, r.PlayerCount())
	for _, p := range r.orderedPlayers() {
		ids = append(ids, p.ID)
	}
	winner, _ := r.Over()
	return RoomSummary{
		Code:        r.Code,
		PlayerCount: r.PlayerCount(),
		MaxPlayers:  MaxPlayers,
		Running:     r.Running(),
		Players:     ids,
		Winner:      winner,
		CreatedAt:   r.CreatedAt,
	}
}

// NewRouter 组装 HTTP 路由：WebSocket 接入、健康检查、监控与房间查询
func NewRouter(hub *Hub, cfg Config) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", ServeWS(hub, cfg.SendBuffer)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/metrics", handleMetrics(hub)).Methods(http.MethodGet)
	r.HandleFunc("/rooms", handleListRooms(hub)).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{code:[0-9]{4}}", handleGetRoom(hub)).Methods(http.MethodGet)
	if cfg.WebDir != "" {
		// 前后端分离：将 / 映射到客户端静态资源
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.WebDir)))
	}
	return r
}

// handleMetrics 输出运行指标
// GET /metrics
func handleMetrics(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := hub.metrics.Snapshot()
		var rooms, sessions int
		ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
		defer cancel()
		if err := hub.Do(ctx, func() {
			rooms = hub.rooms.Len()
			sessions = len(hub.sessions)
		}); err != nil {
			queryFailed(w, err)
			return
		}
		payload["active_rooms"] = rooms
		payload["active_sessions"] = sessions
		writeJSON(w, http.StatusOK, payload)
	}
}

// handleListRooms 列出所有房间
// GET /rooms
func handleListRooms(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var out []RoomSummary
		ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
		defer cancel()
		if err := hub.Do(ctx, func() {
			out = make([]RoomSummary, 0, hub.rooms.Len())
			for _, room := range hub.rooms.Rooms() {
				out = append(out, summarize(room))
			}
		}); err != nil {
			queryFailed(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rooms": out})
	}
}

// handleGetRoom 查询单个房间
// GET /rooms/{code}
func handleGetRoom(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]
		var (
			summary RoomSummary
			found   bool
		)
		ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
		defer cancel()
		if err := hub.Do(ctx, func() {
			if room, ok := hub.rooms.GetRoom(code); ok {
				summary, found = summarize(room), true
			}
		}); err != nil {
			queryFailed(w, err)
			return
		}
		if !found {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": ErrRoomNotFound.Error()})
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

// queryFailed Hub 已停止返回 503，查询超时返回 504
func queryFailed(w http.ResponseWriter, err error) {
	status := http.StatusGatewayTimeout
	if errors.Is(err, ErrHubStopped) {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
