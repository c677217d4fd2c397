package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yanqian/aqi-advisor/internal/domain/livetrack"
	"github.com/yanqian/aqi-advisor/internal/infra/config"
)

const (
	feedMaxConnsPerUser = 10
	feedSendBuffer      = 16
	feedWriteWait       = 10 * time.Second
	feedPongWait        = 60 * time.Second
	feedPingPeriod      = feedPongWait * 9 / 10
)

// AlertFeed fans recorded alerts out to the websocket connections of their
// owner. It implements livetrack.Publisher.
type AlertFeed struct {
	mu       sync.Mutex
	conns    map[string]map[*feedConn]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
	done     chan struct{}
	once     sync.Once
}

type feedConn struct {
	send chan livetrack.Alert
}

// NewAlertFeed builds an empty feed. Upgrades are accepted from the configured
// CORS origins, or from anywhere when none are configured.
func NewAlertFeed(cfg *config.Config, logger *slog.Logger) *AlertFeed {
	allowed := cfg.HTTP.AllowedOrigins
	return &AlertFeed{
		conns: make(map[string]map[*feedConn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowed) == 0 {
					return true
				}
				for _, candidate := range allowed {
					if candidate == "*" || strings.EqualFold(candidate, origin) {
						return true
					}
				}
				return false
			},
		},
		logger: logger.With("component", "http.alert_feed"),
		done:   make(chan struct{}),
	}
}

// Close disconnects every subscriber with a going-away frame. It is safe to
// call more than once.
func (f *AlertFeed) Close() {
	f.once.Do(func() { close(f.done) })
}

// Publish queues alert for every connection of userID. Slow connections drop
// the alert rather than block the caller.
func (f *AlertFeed) Publish(userID string, alert livetrack.Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.conns[userID] {
		select {
		case conn.send <- alert:
		default:
			f.logger.Warn("alert feed connection is slow, dropping alert", "user_id", userID, "alert_id", alert.ID)
		}
	}
}

func (f *AlertFeed) subscribe(userID string) (*feedConn, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.conns[userID]; !ok {
		f.conns[userID] = make(map[*feedConn]struct{})
	}
	if len(f.conns[userID]) >= feedMaxConnsPerUser {
		return nil, false
	}
	conn := &feedConn{send: make(chan livetrack.Alert, feedSendBuffer)}
	f.conns[userID][conn] = struct{}{}
	return conn, true
}

func (f *AlertFeed) unsubscribe(userID string, conn *feedConn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conns, ok := f.conns[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(f.conns, userID)
		}
	}
}

// serve upgrades the request and streams alerts until the client goes away.
func (f *AlertFeed) serve(w http.ResponseWriter, r *http.Request, userID string) {
	sub, ok := f.subscribe(userID)
	if !ok {
		http.Error(w, "too many live feed connections", http.StatusTooManyRequests)
		return
	}
	defer f.unsubscribe(userID, sub)

	ws, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}
	defer ws.Close()
	f.logger.Info("alert feed connected", "user_id", userID)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		ws.SetReadLimit(512)
		_ = ws.SetReadDeadline(time.Now().Add(feedPongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(feedPongWait))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(feedPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			f.logger.Info("alert feed disconnected", "user_id", userID)
			return
		case <-f.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(feedWriteWait))
			return
		case alert := <-sub.send:
			_ = ws.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := ws.WriteJSON(alert); err != nil {
				f.logger.Warn("alert feed write failed", "user_id", userID, "error", err)
				return
			}
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteWait)); err != nil {
				return
			}
		}
	}
}
