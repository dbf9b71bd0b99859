// Package risk turns representative weather values into a health-risk
// assessment. Everything here is pure and deterministic.
package risk

import (
	"github.com/i474232898/weather-health-notifier/internal/common"
)

// Tier is the coarse severity bucket derived from a score.
type Tier int

const (
	Low Tier = iota
	Moderate
	Critical
)

func (t Tier) String() string {
	switch t {
	case Critical:
		return "CRITICAL"
	case Moderate:
		return "MODERATE"
	default:
		return "LOW"
	}
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Badge is the tier label with a colour marker, used in email subjects.
func (t Tier) Badge() string {
	switch t {
	case Critical:
		return "🔴 CRITICAL"
	case Moderate:
		return "🟡 MODERATE"
	default:
		return "🟢 LOW"
	}
}

const (
	baseScore = 10

	extremeHeatC   = 38.0
	extremeHeatPts = 60
	highHeatC      = 32.0
	highHeatPts    = 30
	coldC          = 15.0
	coldPts        = 25

	humidPct = 75.0
	humidPts = 15

	dampPts  = 10
	stormPts = 20

	maxScore    = 100
	criticalCut = 70
	moderateCut = 40

	maxAdvice = 2
)

// Advice texts, in rule order.
const (
	AdviceExtremeHeat = "Extreme heat: high risk of heatstroke. Stay in cooled environments."
	AdviceHighHeat    = "High temperature: increased dehydration risk. Drink an extra litre of water today."
	AdviceCold        = "Cold alert: wear thermal layers to protect cardiovascular health."
	AdviceHumid       = "High humidity: may trigger respiratory discomfort or asthma."
	AdviceDamp        = "Damp conditions: higher risk of joint pain and seasonal allergies."
	AdviceStorm       = "Severe weather: stay indoors to avoid environmental stress."
	AdviceOptimal     = "Conditions are optimal. Maintain standard physical activity."
)

// Assessment is the engine output for one sample.
type Assessment struct {
	Score  int      `json:"score"`
	Tier   Tier     `json:"tier"`
	Advice []string `json:"advice"`
}

// Assess scores temperature (°C), relative humidity (%) and a free-text
// condition. Each rule contributes at most once; temperature bands are
// exclusive and checked hottest first.
func Assess(temperature, humidity float64, condition string) Assessment {
	score := baseScore
	var advice []string

	switch {
	case temperature > extremeHeatC:
		score += extremeHeatPts
		advice = append(advice, AdviceExtremeHeat)
	case temperature > highHeatC:
		score += highHeatPts
		advice = append(advice, AdviceHighHeat)
	case temperature < coldC:
		score += coldPts
		advice = append(advice, AdviceCold)
	}

	if humidity > humidPct {
		score += humidPts
		advice = append(advice, AdviceHumid)
	}

	if common.HasAnyFold(condition, "rain", "drizzle") {
		score += dampPts
		advice = append(advice, AdviceDamp)
	}
	if common.HasAnyFold(condition, "storm") {
		score += stormPts
		advice = append(advice, AdviceStorm)
	}

	score = clamp(score, 0, maxScore)
	tier := TierForScore(score)

	if tier == Low && len(advice) == 0 {
		advice = append(advice, AdviceOptimal)
	}
	if len(advice) > maxAdvice {
		advice = advice[:maxAdvice]
	}

	return Assessment{Score: score, Tier: tier, Advice: advice}
}

// TierForScore maps a clamped score to its tier. Cut points are strict.
func TierForScore(score int) Tier {
	switch {
	case score > criticalCut:
		return Critical
	case score > moderateCut:
		return Moderate
	default:
		return Low
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
