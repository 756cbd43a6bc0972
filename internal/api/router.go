package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/gateway"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/logging"
)

// NewRouter wires the webhook and mobile endpoints.
func NewRouter(store Store, proc Processor, out Outbound, mobile *gateway.Mobile, logger *logging.Logger) *gin.Engine {
	r := gin.Default()
	h := &Handler{store: store, processor: proc, gateway: out, mobile: mobile, logger: logger}

	r.POST("/webhook/whatsapp", h.WhatsAppWebhook)
	r.POST("/webhook/telegram", h.TelegramWebhook)

	r.POST("/api/mobile/login", h.MobileLogin)
	r.POST("/api/mobile/messages", h.MobileSendMessage)
	r.GET("/api/mobile/messages/:id", h.MobileMessages)
	r.GET("/api/mobile/ws/:id", h.MobileWebSocket)

	r.GET("/api/patients/:id/readings", h.PatientReadings)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
