package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/restock"
)

// ReplyController ingests inbound WhatsApp messages. Processing is best
// effort and the provider always gets a 200; a shopper's stray text must
// never trigger provider-side retries.
type ReplyController struct {
	flow *restock.ConfirmFlow
}

// NewReplyController creates a new reply controller instance
func NewReplyController(flow *restock.ConfirmFlow) *ReplyController {
	return &ReplyController{flow: flow}
}

type inboundReplyRequest struct {
	From string `json:"from"`
	Body string `json:"body"`
}

// HandleInboundReply serves POST /webhooks/whatsapp.
func (ctl *ReplyController) HandleInboundReply(c *fiber.Ctx) error {
	var req inboundReplyRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("reply: unparseable inbound payload: %v", err)
		return c.SendStatus(fiber.StatusOK)
	}

	if err := ctl.flow.HandleInboundReply(c.UserContext(), req.From, req.Body); err != nil {
		log.Printf("reply: processing failed for %s: %v", req.From, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
