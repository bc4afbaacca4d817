package chat

import (
	"context"
	"net/http"
	"time"

	"HelloChat/logger"
	errs "HelloChat/tools/errs"
	"HelloChat/tools/ids"
	"HelloChat/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const handshakeWait = 10 * time.Second

// HandleMainWS serves GET /ws: the per-user global socket. The first text
// frame after accept must be a bearer token; then the connection is
// registered as the user's main session and the read loop only accepts
// change_message_status events.
func (s *Server) HandleMainWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed: %v", err)
		return
	}

	claims, ok := s.handshake(ws)
	if !ok {
		return
	}

	client := NewClient(ids.GenerateString(), claims.UserID, ws, s.cfg.SendQueueSize)
	main := NewMainSession(claims.UserID, client)

	// Last connect wins: kick the previous socket before serving this one.
	if prev := s.reg.RegisterMain(main); prev != nil {
		prev.Client().CloseWith(websocket.ClosePolicyViolation, "signed in from another connection")
	}
	go client.WritePump()
	s.presenceOnline(claims.UserID)
	go s.presenceKeepalive(claims.UserID, pingInterval, client.Done())

	defer func() {
		s.reg.UnregisterMain(claims.UserID, main)
		s.presenceOffline(claims.UserID)
		client.CloseWith(websocket.CloseNormalClosure, "")
		logger.Infof("[ws] main socket closed user=%d", claims.UserID)
	}()

	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			logReadErr("main", claims.UserID, rerr)
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		s.router.HandleMainFrame(c.Request.Context(), main, data)
	}
}

// HandleRoomWS serves GET /ws/:roomID. Attach preconditions: valid token,
// the persisted room exists and is active, and the user is a member. Every
// exit path detaches the socket; the registry releases the session when the
// last one leaves.
func (s *Server) HandleRoomWS(c *gin.Context) {
	roomID := c.Param("roomID")
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed: %v", err)
		return
	}

	claims, ok := s.handshake(ws)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	room, err := s.rooms.ByID(ctx, roomID)
	cancel()
	if err != nil {
		if errs.ErrRoomNotFound.Is(err) || errs.ErrInvalidID.Is(err) {
			rejectWS(ws, websocket.CloseUnsupportedData, "invalid room id")
		} else {
			logger.Errorf("[ws] load room=%s: %v", roomID, err)
			rejectWS(ws, websocket.CloseInternalServerErr, "room lookup failed")
		}
		return
	}
	if !room.IsActive {
		rejectWS(ws, websocket.ClosePolicyViolation, "room is not active")
		return
	}
	if !room.HasMember(claims.UserID) {
		rejectWS(ws, websocket.ClosePolicyViolation, "user not in room")
		return
	}

	client := NewClient(ids.GenerateString(), claims.UserID, ws, s.cfg.SendQueueSize)
	sess, replaced, err := s.reg.AttachRoom(roomID, room.MemberIDs(), client)
	if err != nil {
		// Session snapshot predates this user's membership.
		rejectWS(ws, websocket.ClosePolicyViolation, "user not in room")
		return
	}
	if replaced != nil {
		replaced.CloseWith(websocket.ClosePolicyViolation, "replaced by a newer connection")
	}
	go client.WritePump()

	defer func() {
		s.reg.DetachRoom(roomID, client)
		client.CloseWith(websocket.CloseNormalClosure, "")
		logger.Infof("[ws] room socket closed room=%s user=%d", roomID, claims.UserID)
	}()

	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			logReadErr("room "+roomID, claims.UserID, rerr)
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		s.router.HandleRoomFrame(c.Request.Context(), sess, client, data)
	}
}

// handshake reads the bearer token frame and verifies it. On failure the
// socket is closed with a protocol-error code whose reason distinguishes
// expired from invalid, and false is returned.
func (s *Server) handshake(ws *websocket.Conn) (*security.ConnClaims, bool) {
	_ = ws.SetReadDeadline(time.Now().Add(handshakeWait))
	_, token, err := ws.ReadMessage()
	if err != nil {
		rejectWS(ws, websocket.CloseProtocolError, "token required")
		return nil, false
	}
	_ = ws.SetReadDeadline(time.Time{})

	claims, err := security.VerifyConnToken(security.Options{Secret: s.cfg.JWTSecret, Alg: s.cfg.JWTAlg}, string(token))
	if err != nil {
		reason := "invalid token"
		if errs.ErrTokenExpired.Is(err) {
			reason = "token expired"
		}
		rejectWS(ws, websocket.CloseProtocolError, reason)
		return nil, false
	}
	if !claims.IsActive {
		rejectWS(ws, websocket.ClosePolicyViolation, "account blocked")
		return nil, false
	}
	return claims, true
}

// rejectWS closes a socket that never made it into the registry.
func rejectWS(ws *websocket.Conn, code int, reason string) {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	_ = ws.Close()
}

func logReadErr(where string, userID int64, err error) {
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		logger.Infof("[ws] peer closed %s user=%d", where, userID)
		return
	}
	logger.Infof("[ws] read err %s user=%d err=%v", where, userID, err)
}
