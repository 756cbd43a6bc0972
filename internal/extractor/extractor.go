package extractor

import (
	"context"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/logging"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

// Vitals is the structured output of extraction. All measurement fields are
// nil when the text carried no usable value; RiskColor always holds a valid
// color (green when nothing was extracted).
type Vitals struct {
	Systolic    *int             `json:"systolic"`
	Diastolic   *int             `json:"diastolic"`
	Temperature *float64         `json:"temperature"`
	RiskColor   models.RiskColor `json:"risk_color"`
	Symptoms    *string          `json:"symptoms"`
}

// Empty reports whether no actionable measurement was extracted.
func (v Vitals) Empty() bool {
	return v.Systolic == nil && v.Diastolic == nil && v.Temperature == nil
}

// Primary is the remote extraction path. Any error (timeout, quota,
// malformed reply) makes the extractor fall through to the regex fallback.
type Primary interface {
	Extract(ctx context.Context, text string) (Vitals, error)
}

// Extractor turns free text into structured vitals. Two-tier: the primary
// remote path first, the total regex fallback whenever that fails, so
// Extract itself can never fail and never blocks a patient reply on a
// third-party outage.
type Extractor struct {
	primary Primary
	logger  *logging.Logger
}

// New builds an Extractor. A nil primary means the fallback parser is used
// for every message (e.g. no API key configured).
func New(primary Primary, logger *logging.Logger) *Extractor {
	return &Extractor{primary: primary, logger: logger}
}

// Extract parses a free-text vital report. Total: failures on the primary
// path are recovered locally and never surface to the caller.
func (e *Extractor) Extract(ctx context.Context, text string) Vitals {
	if e.primary != nil {
		vitals, err := e.primary.Extract(ctx, text)
		if err == nil {
			return vitals
		}
		e.logger.Warnf("Primary extraction failed, falling back to regex: %v", err)
	}
	return Fallback(text)
}
