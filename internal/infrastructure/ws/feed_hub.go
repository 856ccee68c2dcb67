package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/application/notification"
)

const (
	writeTimeout = 5 * time.Second

	// readLimit caps inbound frames. The feed is push-only; clients have
	// nothing to say beyond pings.
	readLimit = 512
)

// FeedHub tracks the open feed connections and fans frames out to them.
// Connections are keyed by user, with admins also joined to a shared
// room. Frames are fire-and-forget: a connection that cannot keep up is
// closed and dropped.
type FeedHub struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]map[*websocket.Conn]struct{}
	admins map[*websocket.Conn]struct{}

	upgrader websocket.Upgrader
	logger   *zap.Logger
}

var _ notification.FeedPusher = (*FeedHub)(nil)

// NewFeedHub creates an empty hub
func NewFeedHub(logger *zap.Logger) *FeedHub {
	return &FeedHub{
		users:  make(map[uuid.UUID]map[*websocket.Conn]struct{}),
		admins: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			// Auth happens before the upgrade via the JWT middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Serve upgrades the request to a websocket connection, registers it for
// the user, and blocks until the client disconnects. The caller has
// already authenticated the user.
func (h *FeedHub) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID, isAdmin bool) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.register(userID, isAdmin, conn)
	defer h.unregister(userID, conn)

	conn.SetReadLimit(readLimit)

	// Drain inbound messages so pings are answered and we notice the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

// PushToUser delivers a frame to every connection the user has open
func (h *FeedHub) PushToUser(userID uuid.UUID, frame notification.FeedFrame) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.users[userID]))
	for conn := range h.users[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.write(userID, conn, frame)
	}
}

// PushToAdmins delivers a frame to the admin room
func (h *FeedHub) PushToAdmins(frame notification.FeedFrame) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.admins))
	for conn := range h.admins {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := h.writeFrame(conn, frame); err != nil {
			h.logger.Debug("dropping broken admin feed connection", zap.Error(err))
			h.drop(conn)
		}
	}
}

// ConnectionCount returns the number of open connections
func (h *FeedHub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, conns := range h.users {
		count += len(conns)
	}
	return count
}

// Close terminates every open connection
func (h *FeedHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conns := range h.users {
		for conn := range conns {
			conn.Close()
		}
	}
	h.users = make(map[uuid.UUID]map[*websocket.Conn]struct{})
	h.admins = make(map[*websocket.Conn]struct{})
	return nil
}

func (h *FeedHub) register(userID uuid.UUID, isAdmin bool, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.users[userID] == nil {
		h.users[userID] = make(map[*websocket.Conn]struct{})
	}
	h.users[userID][conn] = struct{}{}
	if isAdmin {
		h.admins[conn] = struct{}{}
	}

	h.logger.Debug("feed connection opened",
		zap.String("user_id", userID.String()),
		zap.Bool("admin", isAdmin))
}

func (h *FeedHub) unregister(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.users[userID], conn)
	if len(h.users[userID]) == 0 {
		delete(h.users, userID)
	}
	delete(h.admins, conn)
	conn.Close()
}

func (h *FeedHub) write(userID uuid.UUID, conn *websocket.Conn, frame notification.FeedFrame) {
	if err := h.writeFrame(conn, frame); err != nil {
		h.logger.Debug("dropping broken feed connection",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		h.drop(conn)
	}
}

func (h *FeedHub) writeFrame(conn *websocket.Conn, frame notification.FeedFrame) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(frame)
}

// drop closes a broken connection and removes it from every room
func (h *FeedHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, conns := range h.users {
		if _, ok := conns[conn]; ok {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.users, userID)
			}
		}
	}
	delete(h.admins, conn)
	conn.Close()
}
