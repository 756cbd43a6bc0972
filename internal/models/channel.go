package models

// ChannelKind identifies which messaging channel an endpoint belongs to.
type ChannelKind string

const (
	ChannelWhatsApp ChannelKind = "whatsapp"
	ChannelTelegram ChannelKind = "telegram"
	ChannelMobile   ChannelKind = "mobile"
)

// Endpoint is a deliverable address on a specific channel. It is carried
// alongside a message from ingestion through to dispatch so downstream code
// never has to re-infer the channel from the address shape.
type Endpoint struct {
	Kind    ChannelKind `json:"kind"`
	Address string      `json:"address"` // phone number, chat id or app user id, depending on Kind
}
