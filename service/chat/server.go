package chat

import (
	"context"
	"net/http"
	"strconv"
	"time"

	appconfig "HelloChat/global/config"
	"HelloChat/logger"
	mid "HelloChat/middleware/security"
	chatmodel "HelloChat/module/chat/model"
	usermodel "HelloChat/module/user/model"
	errs "HelloChat/tools/errs"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// RoomGateway is the room persistence contract the socket layer depends
// on; it never assumes a particular storage engine.
type RoomGateway interface {
	ByID(ctx context.Context, roomID string) (*chatmodel.Room, error)
	ByMemberPair(ctx context.Context, a, b int64) (*chatmodel.Room, error)
	CreateOrReactivate(ctx context.Context, a, b int64, roomType string) (*chatmodel.Room, error)
	SetActiveByPair(ctx context.Context, a, b int64, active bool) (*chatmodel.Room, error)
}

// UserGateway exposes the read-only user and friend-graph queries the core
// needs for presence lookups, notifications and room lifecycle checks.
type UserGateway interface {
	ByID(ctx context.Context, userID int64) (*usermodel.UserSummary, error)
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
	IsBlocked(ctx context.Context, a, b int64) (bool, error)
}

// Presence mirrors main-socket online state to out-of-process readers.
// Best-effort: the in-memory registry stays authoritative.
type Presence interface {
	Online(userID int64) error
	Offline(userID int64) error
	Lookup(userID int64) (bool, error)
}

// Server wires the connection registry, the event router and the stores
// behind the websocket and history endpoints.
type Server struct {
	cfg      *appconfig.AppConfig
	reg      *Registry
	router   *Router
	rooms    RoomGateway
	messages MessageGateway
	users    UserGateway
	presence Presence // may be nil
}

func NewServer(cfg *appconfig.AppConfig, reg *Registry, rooms RoomGateway, messages MessageGateway, users UserGateway, relay EventRelay, presence Presence) *Server {
	return &Server{
		cfg:      cfg,
		reg:      reg,
		router:   NewRouter(reg, messages, relay),
		rooms:    rooms,
		messages: messages,
		users:    users,
		presence: presence,
	}
}

func (s *Server) Registry() *Registry { return s.reg }

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws/", s.HandleMainWS)
	r.GET("/ws/:roomID", s.HandleRoomWS)

	msg := r.Group("/message", mid.Middleware(s.cfg))
	msg.GET("/msg/:roomID/", s.HandleRoomMessages)

	user := r.Group("/user", mid.Middleware(s.cfg))
	user.GET("/friends/online/", s.HandleOnlineFriends)
	user.GET("/online/:userID/", s.HandleUserOnline)
}

// HandleUserOnline answers whether a user currently holds a main socket.
// Users not hosted by this process are resolved through the redis mirror,
// which other nodes keep renewed for their own sockets.
func (s *Server) HandleUserOnline(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid user id"})
		return
	}
	if _, ok := s.reg.LookupMain(userID); ok {
		c.JSON(http.StatusOK, gin.H{"online": true})
		return
	}
	online := false
	if s.presence != nil {
		v, lerr := s.presence.Lookup(userID)
		if lerr != nil {
			logger.Infof("[presence] lookup user=%d: %v", userID, lerr)
		} else {
			online = v
		}
	}
	c.JSON(http.StatusOK, gin.H{"online": online})
}

// HandleOnlineFriends reports which of the caller's friends currently hold
// an open main socket. Presence is transient: the answer comes from the
// in-memory registry, not storage.
func (s *Server) HandleOnlineFriends(c *gin.Context) {
	userID := mid.UserID(c)
	friends, err := s.users.FriendIDs(c.Request.Context(), userID)
	if err != nil {
		logger.Errorf("[http] friend graph user=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "friend lookup failed"})
		return
	}
	online := make([]int64, 0, len(friends))
	for _, id := range friends {
		if _, ok := s.reg.LookupMain(id); ok {
			online = append(online, id)
		}
	}
	c.JSON(http.StatusOK, gin.H{"online": online})
}

// HandleRoomMessages serves the chat history of a room: newest `limit`
// messages after skipping `offset`, returned in chronological order.
func (s *Server) HandleRoomMessages(c *gin.Context) {
	userID := mid.UserID(c)
	roomID := c.Param("roomID")

	room, err := s.rooms.ByID(c.Request.Context(), roomID)
	if err != nil {
		if errs.ErrRoomNotFound.Is(err) || errs.ErrInvalidID.Is(err) {
			c.JSON(http.StatusForbidden, gin.H{"detail": "invalid room id"})
			return
		}
		logger.Errorf("[http] load room=%s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "room lookup failed"})
		return
	}
	if !room.HasMember(userID) {
		c.JSON(http.StatusForbidden, gin.H{"detail": "user not in room"})
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	msgs, err := s.messages.Recent(c.Request.Context(), roomID, limit, offset)
	if err != nil {
		logger.Errorf("[http] recent messages room=%s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "message query failed"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// DeactivateFriendRoom flips the pair's room inactive and force-closes its
// live session, if any. Called on unfriend/block; history stays queryable.
func (s *Server) DeactivateFriendRoom(ctx context.Context, a, b int64) (*chatmodel.Room, error) {
	room, err := s.rooms.SetActiveByPair(ctx, a, b, false)
	if err != nil || room == nil {
		return room, err
	}
	s.reg.ForceCloseRoom(room.ID.Hex(), websocket.ClosePolicyViolation, "room deactivated")
	return room, nil
}

// ReactivateFriendRoom recreates or reactivates the pair's friend room on
// re-friend/unblock. A pair where either side still blocks the other keeps
// its room closed.
func (s *Server) ReactivateFriendRoom(ctx context.Context, a, b int64) (*chatmodel.Room, error) {
	blocked, err := s.users.IsBlocked(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, errs.ErrBlocked
	}
	return s.rooms.CreateOrReactivate(ctx, a, b, chatmodel.RoomTypeFriend)
}

// NotifyUser delivers a notification over the receiver's main socket,
// loading the sender's summary for the envelope. Returns false when the
// receiver is offline.
func (s *Server) NotifyUser(ctx context.Context, n usermodel.Notification) bool {
	main, ok := s.reg.LookupMain(n.ReceiverID)
	if !ok {
		return false
	}
	sender, err := s.users.ByID(ctx, n.SenderID)
	if err != nil {
		logger.Infof("[notify] load sender=%d: %v", n.SenderID, err)
		return false
	}
	if err := main.SendNotification(n, *sender); err != nil {
		logger.Infof("[notify] drop notification for user=%d: %v", n.ReceiverID, err)
		return false
	}
	return true
}

func (s *Server) presenceOnline(userID int64) {
	if s.presence == nil {
		return
	}
	if err := s.presence.Online(userID); err != nil {
		logger.Infof("[presence] online user=%d: %v", userID, err)
	}
}

func (s *Server) presenceOffline(userID int64) {
	if s.presence == nil {
		return
	}
	if err := s.presence.Offline(userID); err != nil {
		logger.Infof("[presence] offline user=%d: %v", userID, err)
	}
}

// presenceKeepalive renews the mirror key while the main socket lives. The
// key carries a TTL shorter than most connections, so without renewal every
// long-lived socket would read as offline to out-of-process consumers.
func (s *Server) presenceKeepalive(userID int64, interval time.Duration, done <-chan struct{}) {
	if s.presence == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.presenceOnline(userID)
		case <-done:
			return
		}
	}
}
