package mailer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/i474232898/weather-health-notifier/internal/alerts"
	"github.com/i474232898/weather-health-notifier/internal/risk"
	"github.com/i474232898/weather-health-notifier/internal/weather"
)

// Message is a fully formed plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Report is everything a notification email says about one user's day.
type Report struct {
	Profile    alerts.Profile
	Date       alerts.Date
	Mode       weather.Mode
	Sample     weather.Sample
	Assessment risk.Assessment
}

const rule = "---------------------------------------------"

// Compose renders the report email.
func Compose(r Report) Message {
	subject := fmt.Sprintf("Health & Weather Report: %s | %s", r.Assessment.Tier.Badge(), r.Profile.Location)

	tempLabel, humLabel := "TEMPERATURE", "HUMIDITY"
	if r.Mode == weather.ModeForecast {
		tempLabel, humLabel = "24H AVG TEMP", "AVG HUMIDITY"
	}

	var b strings.Builder
	if name := strings.TrimSpace(r.Profile.Name); name != "" {
		fmt.Fprintf(&b, "Hello %s,\n\n", name)
	}
	b.WriteString("Weather-Health Intelligence Report\n\n")
	fmt.Fprintf(&b, "LOCATION: %s\n", r.Profile.Location)
	fmt.Fprintf(&b, "DATE: %s\n", r.Date)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%s: %.1f°C\n", tempLabel, r.Sample.Temperature)
	fmt.Fprintf(&b, "%s: %d%%\n", humLabel, int(r.Sample.Humidity))
	fmt.Fprintf(&b, "EXPECTED CONDITION: %s\n", capitalize(r.Sample.Condition))
	b.WriteString("\n" + rule + "\n")
	fmt.Fprintf(&b, "HEALTH RISK SCORE: %d/100\n", r.Assessment.Score)
	fmt.Fprintf(&b, "RISK LEVEL: %s\n", r.Assessment.Tier)
	b.WriteString(rule + "\n\n")
	b.WriteString("HEALTH SUGGESTIONS:\n")
	for _, a := range r.Assessment.Advice {
		fmt.Fprintf(&b, "- %s\n", a)
	}
	b.WriteString("\nStay safe and healthy!\n")

	return Message{
		To:      r.Profile.Email,
		Subject: subject,
		Body:    b.String(),
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
