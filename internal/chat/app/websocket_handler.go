package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/pkg/logger"
	"studio_marketplace/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const defaultWriteTimeout = 10 * time.Second

// ChatWebsocketHandler 可包含所有需要的 UseCase
type ChatWebsocketHandler struct {
	conversationUC *ConversationUseCase
	messageUC      *MessageUseCase
	negotiationUC  *NegotiationUseCase
	dispatchUC     *DispatchUseCase
	syncUC         *SyncUseCase
	pingInterval   time.Duration
	writeTimeout   time.Duration
	loc            *time.Location
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(
	conversationUC *ConversationUseCase,
	messageUC *MessageUseCase,
	negotiationUC *NegotiationUseCase,
	dispatchUC *DispatchUseCase,
	syncUC *SyncUseCase,
	pingInterval time.Duration,
	loc *time.Location,
) *ChatWebsocketHandler {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ChatWebsocketHandler{
		conversationUC: conversationUC,
		messageUC:      messageUC,
		negotiationUC:  negotiationUC,
		dispatchUC:     dispatchUC,
		syncUC:         syncUC,
		pingInterval:   pingInterval,
		writeTimeout:   defaultWriteTimeout,
		loc:            loc,
	}
}

// wsWriter write side of *websocket.Conn
type wsWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
}

// wsClient state of one connection
type wsClient struct {
	conn    wsWriter
	session domain.Session
	log     *logger.LogInfo

	// every write gives up after writeTimeout
	writeMu      sync.Mutex
	writeTimeout time.Duration

	// only touched by the read loop
	convUnsub      Unsubscribe
	msgUnsub       Unsubscribe
	conversationID string
}

func (c *wsClient) send(resp domain.WSResponse) {
	b, err := json.Marshal(resp)
	if err != nil {
		c.log.Error("websocket marshal err", zap.String("action", resp.Action), zap.Error(err))
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		c.log.Warn("set write deadline error", zap.Error(err))
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		c.log.Warn("write message error", zap.Error(err))
	}
}

func (c *wsClient) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(c.writeTimeout))
}

func (c *wsClient) leaveConversation() {
	if c.msgUnsub != nil {
		c.msgUnsub()
		c.msgUnsub = nil
	}
	c.conversationID = ""
}

func (c *wsClient) unsubscribeConversations() {
	if c.convUnsub != nil {
		c.convUnsub()
		c.convUnsub = nil
	}
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	identity, ok := middlewares.IdentityFrom(func(key string) interface{} { return conn.Locals(key) })
	if !ok {
		closeWebSocketConnection(conn, websocket.ClosePolicyViolation, "unauthorized")
		return
	}

	client := &wsClient{
		conn: conn,
		session: domain.Session{
			UserID:      identity.MemberID,
			DisplayName: identity.Name,
			AvatarURL:   identity.Avatar,
		},
		log:          logger.Log.With(zap.String("userID", identity.MemberID)),
		writeTimeout: h.writeTimeout,
	}
	client.log.Info("websocket open")

	ctx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		cancel()
		client.leaveConversation()
		client.unsubscribeConversations()
		conn.Close()
		client.log.Info("websocket close")
	}()

	conn.SetCloseHandler(func(code int, text string) error {
		client.log.Debug("websocket closed by client", zap.Int("code", code), zap.String("text", text))
		return nil
	})

	// 定期發送 Ping
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := client.ping(); err != nil {
					client.log.Warn("ping error", zap.Error(err))
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				client.log.Debug("connection closed", zap.Error(err))
			} else {
				client.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage {
			client.send(domain.WSResponse{Action: "error", Error: "unsupported message type", ErrorCode: "INVALID_ARGUMENT"})
			continue
		}
		h.textMessageAction(ctx, client, message)
	}
}

func (h *ChatWebsocketHandler) textMessageAction(ctx context.Context, client *wsClient, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		client.send(domain.WSResponse{Action: "error", Error: "invalid json", ErrorCode: "INVALID_ARGUMENT"})
		return
	}

	resp := domain.WSResponse{Action: req.Action, Payload: map[string]interface{}{}}
	err := h.exec(ctx, client, req, resp.Payload)
	if err != nil {
		appErr := toAppError(err)
		resp.Error = appErr.Message
		resp.ErrorCode = string(appErr.Code)
		client.log.Warn("websocket err",
			zap.String("Action", req.Action),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
	} else {
		resp.Success = true
	}
	client.send(resp)
}

func (h *ChatWebsocketHandler) exec(ctx context.Context, client *wsClient, req domain.WSRequest, payload map[string]interface{}) error {
	session := client.session

	switch domain.Action(req.Action) {
	// 訂閱自己的聊天室列表
	case domain.SubscribeConversations:
		client.unsubscribeConversations()
		unsub, err := h.syncUC.SubscribeConversations(ctx, session.UserID, func(convs []domain.Conversation) {
			client.send(domain.WSResponse{
				Action:  string(domain.ConversationsChanged),
				Success: true,
				Payload: map[string]interface{}{"conversations": convs},
			})
		})
		if err != nil {
			return err
		}
		client.convUnsub = unsub

	case domain.UnsubscribeConversations:
		client.unsubscribeConversations()

	// 進入聊天室, 一次只訂閱一個
	case domain.EnterConversation:
		client.leaveConversation()
		convID := req.ConversationID
		unsub, err := h.syncUC.SubscribeMessages(ctx, session, convID, func(msgs []domain.Message) {
			client.send(domain.WSResponse{
				Action:  string(domain.MessagesChanged),
				Success: true,
				Payload: map[string]interface{}{"conversation_id": convID, "messages": msgs},
			})
		})
		if err != nil {
			return err
		}
		client.msgUnsub = unsub
		client.conversationID = convID
		payload["conversation_id"] = convID

	case domain.LeaveConversation:
		payload["conversation_id"] = client.conversationID
		client.leaveConversation()

	case domain.ListMessages:
		if req.Grouped {
			days, err := h.messageUC.ListMessagesByDay(ctx, session, req.ConversationID, h.loc)
			if err != nil {
				return err
			}
			payload["days"] = days
			return nil
		}
		msgs, err := h.messageUC.ListMessages(ctx, session, req.ConversationID)
		if err != nil {
			return err
		}
		payload["messages"] = msgs

	case domain.SendMessage:
		m, err := h.messageUC.SendText(ctx, session, req.ConversationID, req.Content)
		if err != nil {
			return err
		}
		payload["message_id"] = m.ID
		payload["timestamp"] = m.Timestamp

	case domain.SendOffer:
		var (
			conv *domain.Conversation
			m    *domain.Message
			err  error
		)
		if req.Offer != nil {
			conv, m, err = h.dispatchUC.DispatchOffer(ctx, session, req.Recipient, *req.Offer, req.Note)
		} else {
			conv, m, err = h.dispatchUC.DispatchCatalogOffer(ctx, session, req.Recipient, req.Kind, req.ReferenceID, req.Note)
		}
		if err != nil {
			return err
		}
		payload["conversation_id"] = conv.ID
		payload["message_id"] = m.ID

	case domain.RespondOffer:
		m, err := h.negotiationUC.Respond(ctx, session, req.ConversationID, req.MessageID, req.Decision)
		if err != nil {
			return err
		}
		payload["message_id"] = m.ID
		payload["status"] = m.Payload.Status

	case domain.MarkRead:
		if err := h.conversationUC.MarkRead(ctx, session, req.ConversationID); err != nil {
			return err
		}
		payload["conversation_id"] = req.ConversationID

	// 搜尋所有未讀訊息
	case domain.GetUnread:
		summary, err := h.conversationUC.UnreadSummary(ctx, session.UserID)
		if err != nil {
			return err
		}
		payload["total"] = summary.Total
		payload["conversations"] = summary.Conversations

	default:
		return errUnknownAction(req.Action)
	}
	return nil
}

func closeWebSocketConnection(conn *websocket.Conn, code int, reason string) {
	_ = conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	if err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason)); err != nil {
		logger.Log.Warn("Failed to send CloseMessage", zap.Error(err))
	}
	conn.Close()
}
