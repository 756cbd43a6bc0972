package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/db"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/gateway"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/logging"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

// Store is the persistence surface the HTTP layer needs.
type Store interface {
	CreatePatient(ctx context.Context, p *models.Patient) error
	GetPatientByID(ctx context.Context, id int64) (models.Patient, error)
	GetPatientByPhone(ctx context.Context, phone string) (models.Patient, error)
	GetPatientByTelegramChatID(ctx context.Context, chatID string) (models.Patient, error)
	ListMessagesByPatient(ctx context.Context, patientID int64, limit int) ([]models.Message, error)
	ListReadingsByPatient(ctx context.Context, patientID int64, limit int) ([]models.Reading, error)
}

// Processor runs the inbound message state machine.
type Processor interface {
	Process(ctx context.Context, patient models.Patient, text string, channel models.ChannelKind) (string, error)
}

// Outbound dispatches a text to an endpoint, used for adapter-level sends
// that bypass the orchestrator (the /start welcome).
type Outbound interface {
	Send(ctx context.Context, ep models.Endpoint, text string) error
}

type Handler struct {
	store     Store
	processor Processor
	gateway   Outbound
	mobile    *gateway.Mobile
	logger    *logging.Logger
}

// inboundMessage is the channel-agnostic shape the orchestrator consumes.
type inboundMessage struct {
	SenderAddress     string
	Text              string
	SenderDisplayName string
}

// zapiPayload mirrors the provider webhook body. The text may arrive as a
// plain string, nested under text.message, or under message.text.
type zapiPayload struct {
	Phone      string          `json:"phone"`
	SenderName string          `json:"senderName"`
	PushName   string          `json:"pushName"`
	Text       json.RawMessage `json:"text"`
	Message    json.RawMessage `json:"message"`
}

// NormalizeZAPIPayload flattens the provider-specific shapes into the
// channel-agnostic inbound form.
func NormalizeZAPIPayload(raw []byte) (inboundMessage, error) {
	var payload zapiPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return inboundMessage{}, fmt.Errorf("invalid webhook payload: %w", err)
	}

	msg := inboundMessage{SenderAddress: payload.Phone, SenderDisplayName: payload.SenderName}
	if msg.SenderDisplayName == "" {
		msg.SenderDisplayName = payload.PushName
	}

	if len(payload.Text) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		var plain string
		if err := json.Unmarshal(payload.Text, &nested); err == nil && nested.Message != "" {
			msg.Text = nested.Message
		} else if err := json.Unmarshal(payload.Text, &plain); err == nil {
			msg.Text = plain
		}
	}
	if msg.Text == "" && len(payload.Message) > 0 {
		var nested struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(payload.Message, &nested); err == nil {
			msg.Text = nested.Text
		}
	}
	return msg, nil
}

// WhatsAppWebhook receives Z-API style webhooks. A payload missing either
// the address or the text is ignored with a success response.
func (h *Handler) WhatsAppWebhook(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	msg, err := NormalizeZAPIPayload(raw)
	if err != nil {
		h.logger.Errorf("Invalid WhatsApp webhook: %v", err)
		c.Status(http.StatusBadRequest)
		return
	}
	if msg.SenderAddress == "" || msg.Text == "" {
		h.logger.Debugf("Ignored WhatsApp webhook: no phone or text")
		c.Status(http.StatusOK)
		return
	}

	patient, err := h.store.GetPatientByPhone(c.Request.Context(), msg.SenderAddress)
	if errors.Is(err, db.ErrNotFound) {
		patient, err = h.createStub(c.Request.Context(), msg.SenderDisplayName, "Novo Usuário", func(p *models.Patient) {
			p.Phone = msg.SenderAddress
		})
	}
	if err != nil {
		h.logger.Errorf("Failed to resolve WhatsApp patient: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if _, err := h.processor.Process(c.Request.Context(), patient, msg.Text, models.ChannelWhatsApp); err != nil {
		h.logger.Errorf("Failed to process WhatsApp message: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}

type telegramUpdate struct {
	Message *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			FirstName string `json:"first_name"`
		} `json:"from"`
	} `json:"message"`
	CallbackQuery *struct {
		ID string `json:"id"`
	} `json:"callback_query"`
}

// TelegramWebhook receives Bot API updates. "/start" answers with a welcome
// and never reaches the orchestrator; an unknown chat id auto-creates a
// patient stub so the consent gate runs on the next message.
func (h *Handler) TelegramWebhook(c *gin.Context) {
	var update telegramUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.Errorf("Invalid Telegram update: %v", err)
		c.Status(http.StatusBadRequest)
		return
	}
	if update.Message == nil || update.Message.Text == "" {
		// Callback queries and non-text updates are acknowledged only.
		c.Status(http.StatusOK)
		return
	}

	chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
	text := update.Message.Text

	if text == "/start" {
		name := update.Message.From.FirstName
		if name == "" {
			name = "Usuário"
		}
		welcome := fmt.Sprintf(
			"Olá, <b>%s</b>! 👋\n\nBem-vindo ao Sistema de Telemonitoramento de Saúde. Este canal será usado para acompanharmos sua pressão arterial e temperatura.\n\nSe você já é um paciente cadastrado, em breve receberá nossas mensagens de acompanhamento.",
			name,
		)
		ep := models.Endpoint{Kind: models.ChannelTelegram, Address: chatID}
		if err := h.gateway.Send(c.Request.Context(), ep, welcome); err != nil {
			h.logger.Errorf("Failed to send Telegram welcome to %s: %v", chatID, err)
		}
		c.Status(http.StatusOK)
		return
	}

	patient, err := h.store.GetPatientByTelegramChatID(c.Request.Context(), chatID)
	if errors.Is(err, db.ErrNotFound) {
		patient, err = h.createStub(c.Request.Context(), update.Message.From.FirstName, "Usuário Telegram", func(p *models.Patient) {
			p.TelegramChatID = chatID
		})
	}
	if err != nil {
		h.logger.Errorf("Failed to resolve Telegram patient: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if _, err := h.processor.Process(c.Request.Context(), patient, text, models.ChannelTelegram); err != nil {
		h.logger.Errorf("Failed to process Telegram message: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) createStub(ctx context.Context, name, fallbackName string, fill func(*models.Patient)) (models.Patient, error) {
	if name == "" {
		name = fallbackName
	}
	patient := models.Patient{Name: name, Consent: models.ConsentPending}
	fill(&patient)
	if err := h.store.CreatePatient(ctx, &patient); err != nil {
		return models.Patient{}, err
	}
	h.logger.Infof("Auto-created patient stub %d (%s)", patient.ID, patient.Name)
	return patient, nil
}

// MobileLogin resolves a patient by phone, tolerating the 55 country-code
// prefix being present or absent.
func (h *Handler) MobileLogin(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	clean := gateway.NormalizePhone(req.Phone)
	variants := []string{req.Phone, clean}
	if len(clean) > 2 {
		variants = append(variants, clean[2:]) // without the 55 prefix
	}

	for _, phone := range variants {
		patient, err := h.store.GetPatientByPhone(c.Request.Context(), phone)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"user": patient})
			return
		}
		if !errors.Is(err, db.ErrNotFound) {
			h.logger.Errorf("Mobile login lookup failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Paciente não encontrado com este telefone."})
}

// MobileSendMessage runs the orchestrator synchronously and returns the
// reply, the in-app chat contract.
func (h *Handler) MobileSendMessage(c *gin.Context) {
	var req struct {
		PatientID int64  `json:"patient_id" binding:"required"`
		Content   string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patient, err := h.store.GetPatientByID(c.Request.Context(), req.PatientID)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
		return
	}
	if err != nil {
		h.logger.Errorf("Mobile patient lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	reply, err := h.processor.Process(c.Request.Context(), patient, req.Content, models.ChannelMobile)
	if err != nil {
		h.logger.Errorf("Failed to process mobile message: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "response": reply})
}

// MobileMessages returns the chat history in chronological order.
func (h *Handler) MobileMessages(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return
	}
	messages, err := h.store.ListMessagesByPatient(c.Request.Context(), id, 50)
	if err != nil {
		h.logger.Errorf("Failed to list messages for patient %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// PatientReadings returns readings newest-first for trend display.
func (h *Handler) PatientReadings(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return
	}
	limit := 50
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}
	readings, err := h.store.ListReadingsByPatient(c.Request.Context(), id, limit)
	if err != nil {
		h.logger.Errorf("Failed to list readings for patient %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, readings)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// MobileWebSocket upgrades the in-app chat connection and keeps it attached
// until the client disconnects.
func (h *Handler) MobileWebSocket(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return
	}
	if _, err := h.store.GetPatientByID(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed for patient %d: %v", id, err)
		return
	}

	h.mobile.Attach(id, conn)
	defer func() {
		h.mobile.Detach(id, conn)
		conn.Close()
	}()

	// Inbound app messages go through the HTTP endpoint; the socket only
	// pushes replies, so reads are drained to detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
