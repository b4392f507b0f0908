package app

import (
	"fmt"
	"strconv"
	"time"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/pkg/logger"
	"studio_marketplace/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ChatHTTPHandler 处理聊天相关的 HTTP 请求
type ChatHTTPHandler struct {
	conversationUC *ConversationUseCase
	messageUC      *MessageUseCase
	negotiationUC  *NegotiationUseCase
	dispatchUC     *DispatchUseCase
	loc            *time.Location
}

// NewChatHTTPHandler create ChatHTTPHandler
func NewChatHTTPHandler(
	conversationUC *ConversationUseCase,
	messageUC *MessageUseCase,
	negotiationUC *NegotiationUseCase,
	dispatchUC *DispatchUseCase,
	loc *time.Location,
) *ChatHTTPHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ChatHTTPHandler{
		conversationUC: conversationUC,
		messageUC:      messageUC,
		negotiationUC:  negotiationUC,
		dispatchUC:     dispatchUC,
		loc:            loc,
	}
}

// ErrorResponse error body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

// SendTextRequest body of POST /conversations/{id}/messages
type SendTextRequest struct {
	Content string `json:"content"`
}

// RespondRequest body of POST /conversations/{id}/messages/{messageId}/respond
type RespondRequest struct {
	Decision domain.OfferStatus `json:"decision"`
}

// SendOfferRequest body of POST /offers
type SendOfferRequest struct {
	Recipient domain.Participant  `json:"recipient"`
	Offer     domain.OfferDetails `json:"offer"`
	Note      string              `json:"note"`
}

// SendCatalogOfferRequest body of POST /offers/catalog
type SendCatalogOfferRequest struct {
	Recipient   domain.Participant `json:"recipient"`
	Kind        domain.MessageType `json:"kind"`
	ReferenceID string             `json:"reference_id"`
	Note        string             `json:"note"`
}

// DispatchResponse conversation and the message that was sent
type DispatchResponse struct {
	Conversation *domain.Conversation `json:"conversation"`
	Message      *domain.Message      `json:"message"`
}

func sessionOf(c *fiber.Ctx) (domain.Session, bool) {
	identity, ok := middlewares.IdentityFrom(middlewares.FiberLocals(c))
	if !ok {
		return domain.Session{}, false
	}
	return domain.Session{
		UserID:      identity.MemberID,
		DisplayName: identity.Name,
		AvatarURL:   identity.Avatar,
	}, true
}

func writeError(c *fiber.Ctx, err error) error {
	appErr := toAppError(err)
	if appErr.HTTPCode >= fiber.StatusInternalServerError {
		logger.Log.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
	} else {
		logger.Log.Debug("request rejected",
			zap.String("path", c.Path()),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
	}
	return c.Status(appErr.HTTPCode).JSON(ErrorResponse{
		Error:     appErr.Message,
		ErrorCode: string(appErr.Code),
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:     "missing session",
		ErrorCode: "UNAUTHORIZED",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:     msg,
		ErrorCode: "INVALID_ARGUMENT",
	})
}

// ListConversations conversations of the caller
// @Summary List conversations
// @Description Conversations of the caller, most recent activity first
// @Tags Conversations
// @Produce json
// @Success 200 {array} domain.Conversation
// @Failure 401 {object} ErrorResponse
// @Router /conversations [get]
func (h *ChatHTTPHandler) ListConversations(c *fiber.Ctx) error {
	session, ok := sessionOf(c)
	if !ok {
		return unauthorized(c)
	}
	convs, err := h.conversationUC.ListForUser(c.UserContext(), session.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(convs)
}

// UnreadSummary unread badge of the caller
// @Summary Unread summary
// @Tags Conversations
// @Produce json
// @Success 200 {object} domain.UnreadSummary
// @Failure 401 {object} ErrorResponse
// @Router /conversations/unread [get]
func (h *ChatHTTPHandler) UnreadSummary(c *fiber.Ctx) error {
	session, ok := sessionOf(c)
	if !ok {
		return unauthorized(c)
	}
	summary, err := h.conversationUC.UnreadSummary(c.UserContext(), session.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}

// GetConversation one conversation
// @Summary Get conversation
// @Tags Conversations
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} domain.Conversation
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id} [get]
func (h *ChatHTTPHandler) GetConversation(c *fiber.Ctx) error {
	session, ok := sessionOf(c)
	if !ok {
		return unauthorized(c)
	}
	conv, err := h.conversationUC.Get(c.UserContext(), session, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(conv)
}

// MarkRead reset the caller's unread counter
// @Summary Mark conversation read
// @Tags Conversations
// @Param id path string true "Conversation ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id}/read [post]
func (h *ChatHTTPHandler) MarkRead(c *fiber.Ctx) error {
	session, ok := sessionOf(c)
	if !ok {
		return unauthorized(c)
	}
	if err := h.conversationUC.MarkRead(c.UserContext(), session, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListMessages message log of a conversation
// @Summary List messages
// @Description Ordered by timestamp; grouped=true buckets them by calendar day
// @Tags Messages
// @Produce json
// @Param id path string true "Conversation ID"
// @Param grouped query bool false "Group by day"
// @Success 200 {array} domain.Message
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id}/messages [get]
func (h *ChatHTTPHandler) ListMessages(c *fiber.Ctx) error {
	session, ok := sessionOf(c)
	if !ok {
		return unauthorized(c)
	}
	grouped := false
	if v := c.Query("grouped"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "grouped must be a bool")
		}
		grouped = b
	}

	if grouped {
		days, err := h.messageUC.ListMessagesByDay(c.UserContext(), session, c.Params("id"), h.loc)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(days)
	}
	msgs, err := h.messageUC.ListMessages(c.UserContext(), session, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(msgs)
}

// SendText post a text message
// @Summary Send text message
// @Tags Messages
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param request body SendTextRequest true "Message"
// @Success 201 {object} domain.Message
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id}/messages [post]
func (h *ChatHTTPHandler) SendText(c *fiber.Ctx) error {
	session, ok := sessionOf(c)
	if !ok {
		return unauthorized(c)
	}
	var req SendTextRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	msg, err := h.messageUC.SendText(c.UserContext(), session, c.Params("id"), req.Content)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// Respond accept or decline an offer
// @Summary Respond to offer
// @Tags Offers
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param messageId path string true "Offer message ID"
// @Param request body RespondRequest true "accepted | declined"
// @Success 200 {object} domain.Message
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "offer already answered"
// @Failure 422 {object} ErrorResponse "message is not an offer"
// @Router /conversations/{id}/messages/{messageId}/respond [post]
func (h *ChatHTTPHandler) Respond(c *fiber.Ctx) error {
	session, ok := sessionOf(c)
	if !ok {
		return unauthorized(c)
	}
	var req RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	msg, err := h.negotiationUC.Respond(c.UserContext(), session, c.Params("id"), c.Params("messageId"), req.Decision)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(msg)
}

// SendOffer dispatch an offer with explicit details
// @Summary Send job offer / gig invite
// @Tags Offers
// @Accept json
// @Produce json
// @Param request body SendOfferRequest true "Offer"
// @Success 201 {object} DispatchResponse
// @Failure 400 {object} ErrorResponse
// @Router /offers [post]
func (h *ChatHTTPHandler) SendOffer(c *fiber.Ctx) error {
	session, ok := sessionOf(c)
	if !ok {
		return unauthorized(c)
	}
	var req SendOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	conv, msg, err := h.dispatchUC.DispatchOffer(c.UserContext(), session, req.Recipient, req.Offer, req.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(DispatchResponse{Conversation: conv, Message: msg})
}

// SendCatalogOffer dispatch an offer built from a catalog job / gig
// @Summary Send offer from catalog
// @Tags Offers
// @Accept json
// @Produce json
// @Param request body SendCatalogOfferRequest true "Catalog reference"
// @Success 201 {object} DispatchResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /offers/catalog [post]
func (h *ChatHTTPHandler) SendCatalogOffer(c *fiber.Ctx) error {
	session, ok := sessionOf(c)
	if !ok {
		return unauthorized(c)
	}
	var req SendCatalogOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	conv, msg, err := h.dispatchUC.DispatchCatalogOffer(c.UserContext(), session, req.Recipient, req.Kind, req.ReferenceID, req.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(DispatchResponse{Conversation: conv, Message: msg})
}

// ConnectCheck check chat service start
// @Summary Check chat service status
// @Tags Shared
// @Success 200 {string} string "chat service start!"
// @Router / [get]
func ConnectCheck(c *fiber.Ctx) error {
	return c.SendString("chat service start!")
}

// DebugLogFlag toggle debug log flag
// @Summary Toggle Debug Log Flag
// @Tags Shared
// @Param status query bool true "Debug status"
// @Success 200 {string} string "debug mode updated"
// @Failure 400 {string} string "Invalid status value"
// @Failure 401 {object} ErrorResponse
// @Router /debug [post]
func DebugLogFlag(c *fiber.Ctx) error {
	statusStr := c.Query("status")
	status, err := strconv.ParseBool(statusStr)
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	logger.Log.SetDebugMode(status)
	logger.Log.Info("debug", zap.Bool("status", status))
	return c.SendString(fmt.Sprintf("debug mode is : %t", status))
}
