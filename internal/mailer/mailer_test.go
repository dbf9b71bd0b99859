package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/i474232898/weather-health-notifier/internal/alerts"
	"github.com/i474232898/weather-health-notifier/internal/risk"
	"github.com/i474232898/weather-health-notifier/internal/weather"
)

func testReport() Report {
	sample := weather.Sample{Temperature: 33.456, Humidity: 78.9, Condition: "light rain"}
	return Report{
		Profile:    alerts.Profile{ID: "7", Email: "asha@example.com", Name: "Asha", Location: "Mumbai,IN"},
		Date:       alerts.Date{Year: 2026, Month: 10, Day: 16},
		Mode:       weather.ModeForecast,
		Sample:     sample,
		Assessment: risk.Assess(sample.Temperature, sample.Humidity, sample.Condition),
	}
}

func TestCompose(t *testing.T) {
	msg := Compose(testReport())

	assert.Equal(t, "asha@example.com", msg.To)
	assert.Contains(t, msg.Subject, "MODERATE")
	assert.Contains(t, msg.Subject, "Mumbai,IN")

	for _, want := range []string{
		"Hello Asha,",
		"LOCATION: Mumbai,IN",
		"DATE: 2026-10-16",
		"24H AVG TEMP: 33.5°C",
		"AVG HUMIDITY: 78%",
		"EXPECTED CONDITION: Light rain",
		"HEALTH RISK SCORE: 65/100",
		"RISK LEVEL: MODERATE",
		"- " + risk.AdviceHighHeat,
		"- " + risk.AdviceHumid,
	} {
		assert.Contains(t, msg.Body, want)
	}
	assert.NotContains(t, msg.Body, risk.AdviceDamp, "advice is capped at two entries")
}

func TestCompose_InstantModeWithoutName(t *testing.T) {
	r := testReport()
	r.Profile.Name = ""
	r.Mode = weather.ModeInstant

	msg := Compose(r)
	assert.NotContains(t, msg.Body, "Hello")
	assert.Contains(t, msg.Body, "TEMPERATURE: 33.5°C")
	assert.Contains(t, msg.Body, "HUMIDITY: 78%")
}

type fakeDeliverer struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeDeliverer) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msgs...)
	return nil
}

func TestSMTPSender_Send(t *testing.T) {
	d := &fakeDeliverer{}
	s := &SMTPSender{from: "alerts@example.com", client: d, log: zap.NewNop()}

	err := s.Send(context.Background(), Message{To: "asha@example.com", Subject: "hi", Body: "body"})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	rcpts, err := d.sent[0].GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"asha@example.com"}, rcpts)
	assert.Equal(t, []string{"hi"}, d.sent[0].GetGenHeader(mail.HeaderSubject))
}

func TestSMTPSender_Failure(t *testing.T) {
	s := &SMTPSender{from: "alerts@example.com", client: &fakeDeliverer{err: errors.New("535 auth failed")}, log: zap.NewNop()}

	err := s.Send(context.Background(), Message{To: "asha@example.com", Subject: "hi", Body: "body"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535")
}

func TestSMTPSender_InvalidRecipient(t *testing.T) {
	d := &fakeDeliverer{}
	s := &SMTPSender{from: "alerts@example.com", client: d, log: zap.NewNop()}

	err := s.Send(context.Background(), Message{To: "not an address", Subject: "hi", Body: "body"})
	require.Error(t, err)
	assert.Empty(t, d.sent)
}

func TestNewSMTPSender_RequiresCredentials(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587}, zap.NewNop())
	require.Error(t, err)

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "alerts@example.com", Password: "x"}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestNewSMTPSender_NilLogger(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "alerts@example.com", Password: "x"}, nil)
	require.NoError(t, err)
	s.client = &fakeDeliverer{}

	require.NotPanics(t, func() {
		err = s.Send(context.Background(), Message{To: "asha@example.com", Subject: "hi", Body: "body"})
	})
	require.NoError(t, err)
}
