package models

import (
	"strconv"
	"time"
)

// ConsentState tracks whether the patient agreed to data processing (LGPD).
type ConsentState string

const (
	ConsentPending ConsentState = "pending"
	ConsentGranted ConsentState = "granted"
)

// Granted reports whether the patient may have vitals processed.
func (c ConsentState) Granted() bool {
	return c == ConsentGranted
}

// RiskTier is the patient-level monitoring tier. It drives the check-in
// cadence of the scheduler and is recomputed on every accepted reading.
type RiskTier string

const (
	TierLow    RiskTier = "BAIXO"
	TierMedium RiskTier = "MEDIO"
	TierHigh   RiskTier = "ALTO"
)

// Patient is a monitored person. Contact addresses are per channel; any of
// them may be empty. RiskTier is empty until the first classification runs.
type Patient struct {
	ID                     int64        `json:"id"`
	Name                   string       `json:"name"`
	Phone                  string       `json:"phone"`
	FamiliarPhone          string       `json:"familiar_phone"`
	TelegramChatID         string       `json:"telegram_chat_id"`
	FamiliarTelegramChatID string       `json:"familiar_telegram_chat_id"`
	Consent                ConsentState `json:"consent"`
	RiskTier               RiskTier     `json:"risk_tier,omitempty"`
	PlanTier               string       `json:"plan_tier,omitempty"`

	// Clinical attributes used by the risk classifier.
	Age           int     `json:"age"`
	BMI           float64 `json:"bmi"`
	Diabetes      bool    `json:"diabetes"`
	HeartDisease  bool    `json:"heart_disease"`
	KidneyDisease bool    `json:"kidney_disease"`
	Stroke        bool    `json:"stroke"`
	NonAdherent   bool    `json:"non_adherent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReplyEndpoint returns the endpoint used to answer the patient on the
// channel the inbound message arrived on.
func (p Patient) ReplyEndpoint(kind ChannelKind) (Endpoint, bool) {
	switch kind {
	case ChannelWhatsApp:
		if p.Phone != "" {
			return Endpoint{Kind: ChannelWhatsApp, Address: p.Phone}, true
		}
	case ChannelTelegram:
		if p.TelegramChatID != "" {
			return Endpoint{Kind: ChannelTelegram, Address: p.TelegramChatID}, true
		}
	case ChannelMobile:
		return Endpoint{Kind: ChannelMobile, Address: strconv.FormatInt(p.ID, 10)}, true
	}
	return Endpoint{}, false
}

// PreferredEndpoint picks the channel for proactive check-ins: the chat-based
// channel wins over plain messaging when both are configured.
func (p Patient) PreferredEndpoint() (Endpoint, bool) {
	if p.TelegramChatID != "" {
		return Endpoint{Kind: ChannelTelegram, Address: p.TelegramChatID}, true
	}
	if p.Phone != "" {
		return Endpoint{Kind: ChannelWhatsApp, Address: p.Phone}, true
	}
	return Endpoint{}, false
}

// FamiliarEndpoint returns the emergency contact address, if any.
func (p Patient) FamiliarEndpoint() (Endpoint, bool) {
	if p.FamiliarTelegramChatID != "" {
		return Endpoint{Kind: ChannelTelegram, Address: p.FamiliarTelegramChatID}, true
	}
	if p.FamiliarPhone != "" {
		return Endpoint{Kind: ChannelWhatsApp, Address: p.FamiliarPhone}, true
	}
	return Endpoint{}, false
}
