package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssess(t *testing.T) {
	tests := []struct {
		name      string
		temp      float64
		humidity  float64
		condition string
		score     int
		tier      Tier
		advice    []string
	}{
		{
			name: "heat humidity storm clamps to 100", temp: 40, humidity: 80, condition: "heavy storm",
			score: 100, tier: Critical, advice: []string{AdviceExtremeHeat, AdviceHumid},
		},
		{
			name: "clear mild day", temp: 22, humidity: 50, condition: "clear sky",
			score: 10, tier: Low, advice: []string{AdviceOptimal},
		},
		{
			name: "39 hits only extreme band", temp: 39, humidity: 50, condition: "clear sky",
			score: 70, tier: Moderate, advice: []string{AdviceExtremeHeat},
		},
		{
			name: "38 is not extreme", temp: 38, humidity: 50, condition: "few clouds",
			score: 40, tier: Low, advice: []string{AdviceHighHeat},
		},
		{
			name: "32 is not hot", temp: 32, humidity: 50, condition: "few clouds",
			score: 10, tier: Low, advice: []string{AdviceOptimal},
		},
		{
			name: "15 is not cold", temp: 15, humidity: 50, condition: "few clouds",
			score: 10, tier: Low, advice: []string{AdviceOptimal},
		},
		{
			name: "just below 15 is cold", temp: 14.9, humidity: 50, condition: "few clouds",
			score: 35, tier: Low, advice: []string{AdviceCold},
		},
		{
			name: "humidity 75 does not count", temp: 22, humidity: 75, condition: "haze",
			score: 10, tier: Low, advice: []string{AdviceOptimal},
		},
		{
			name: "hot and humid", temp: 33, humidity: 75.5, condition: "haze",
			score: 55, tier: Moderate, advice: []string{AdviceHighHeat, AdviceHumid},
		},
		{
			name: "cold wet humid truncates advice", temp: 10, humidity: 80, condition: "light rain",
			score: 60, tier: Moderate, advice: []string{AdviceCold, AdviceHumid},
		},
		{
			name: "drizzle is case insensitive", temp: 22, humidity: 50, condition: "Light DRIZZLE",
			score: 20, tier: Low, advice: []string{AdviceDamp},
		},
		{
			name: "thunderstorm with rain", temp: 22, humidity: 50, condition: "thunderstorm with light rain",
			score: 40, tier: Low, advice: []string{AdviceDamp, AdviceStorm},
		},
		{
			name: "every rule fires", temp: 45, humidity: 95, condition: "rain and storm",
			score: 100, tier: Critical, advice: []string{AdviceExtremeHeat, AdviceHumid},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assess(tt.temp, tt.humidity, tt.condition)
			assert.Equal(t, tt.score, got.Score)
			assert.Equal(t, tt.tier, got.Tier)
			assert.Equal(t, tt.advice, got.Advice)
		})
	}
}

func TestTierForScore_StrictBoundaries(t *testing.T) {
	assert.Equal(t, Low, TierForScore(0))
	assert.Equal(t, Low, TierForScore(40))
	assert.Equal(t, Moderate, TierForScore(41))
	assert.Equal(t, Moderate, TierForScore(70))
	assert.Equal(t, Critical, TierForScore(71))
	assert.Equal(t, Critical, TierForScore(100))
}

func TestAssess_ScoreBoundedAndMonotonic(t *testing.T) {
	temps := []float64{-10, 14, 15, 20, 32, 33, 38, 39, 50}
	conditions := []string{"clear", "drizzle", "storm", "rain storm"}

	for _, temp := range temps {
		for _, cond := range conditions {
			dry := Assess(temp, 40, cond)
			humid := Assess(temp, 90, cond)

			assert.GreaterOrEqual(t, humid.Score, dry.Score, "temp=%v cond=%q", temp, cond)
			for _, a := range []Assessment{dry, humid} {
				assert.GreaterOrEqual(t, a.Score, 0)
				assert.LessOrEqual(t, a.Score, 100)
				assert.LessOrEqual(t, len(a.Advice), 2)
				assert.NotEmpty(t, a.Advice)
				assert.Equal(t, TierForScore(a.Score), a.Tier)
			}
		}
	}
}

func TestTierLabels(t *testing.T) {
	assert.Equal(t, "LOW", Low.String())
	assert.Equal(t, "MODERATE", Moderate.String())
	assert.Equal(t, "CRITICAL", Critical.String())
	assert.Contains(t, Critical.Badge(), "CRITICAL")
}
