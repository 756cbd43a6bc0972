package extractor

import (
	"regexp"
	"strconv"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/risk"
)

var (
	// Matches 12/8, 120/80, 12x8, "120 80".
	bpPattern = regexp.MustCompile(`(\d{1,3})[\s/xX]+(\d{1,3})`)
	// Decimal temperature: 36.5 or 37,2.
	tempDecimalPattern = regexp.MustCompile(`(\d{2})[.,](\d)`)
	// Bare integer temperature in the clinically plausible range 34-42,
	// bounded so BP numbers like 120 are not picked up.
	tempWholePattern = regexp.MustCompile(`\b(3[4-9]|4[0-2])\b`)
)

// Fallback is the deterministic regex extraction path. Total: it cannot
// fail, returning all-nil fields when nothing matches. Symptoms are never
// inferred here.
func Fallback(text string) Vitals {
	vitals := Vitals{RiskColor: models.ColorGreen}

	if m := bpPattern.FindStringSubmatch(text); m != nil {
		sys, _ := strconv.Atoi(m[1])
		dia, _ := strconv.Atoi(m[2])

		// Shorthand normalization: "12/8" means 120/80.
		if sys < 30 {
			sys *= 10
		}
		if dia < 30 {
			dia *= 10
		}

		vitals.Systolic = &sys
		vitals.Diastolic = &dia
		vitals.RiskColor = risk.ColorForBP(sys, dia)
	}

	if m := tempDecimalPattern.FindStringSubmatch(text); m != nil {
		temp, _ := strconv.ParseFloat(m[1]+"."+m[2], 64)
		vitals.Temperature = &temp
	} else if m := tempWholePattern.FindStringSubmatch(text); m != nil {
		temp, _ := strconv.ParseFloat(m[1], 64)
		vitals.Temperature = &temp
	}

	return vitals
}
