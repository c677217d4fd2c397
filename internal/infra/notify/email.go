package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/yanqian/aqi-advisor/internal/domain/aqi"
	"github.com/yanqian/aqi-advisor/internal/domain/livetrack"
)

// ErrNoAddress means the recipient has no address for this channel.
var ErrNoAddress = errors.New("notify: recipient has no address for channel")

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether enough settings are present to send mail.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Port > 0 && c.Username != "" && c.Password != ""
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier sends HTML alert emails over SMTP.
type EmailNotifier struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
	logger   *slog.Logger
}

// NewEmailNotifier creates a new email notifier.
func NewEmailNotifier(cfg SMTPConfig, logger *slog.Logger) *EmailNotifier {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &EmailNotifier{
		cfg:      cfg,
		sendMail: smtp.SendMail,
		logger:   logger.With("component", "notify.email"),
	}
}

// NotifyAlert implements livetrack.Notifier.
func (e *EmailNotifier) NotifyAlert(_ context.Context, to livetrack.Recipient, alert livetrack.Alert) error {
	if !strings.Contains(to.Email, "@") {
		return ErrNoAddress
	}
	if !e.cfg.Configured() {
		e.logger.Warn("smtp not configured, skipping email", "location", alert.Location, "aqi", alert.AQI)
		return errors.New("smtp not configured")
	}
	subject := Subject(alert)
	body, err := renderAlertEmail(alert)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.BEncoding.Encode("UTF-8", subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	if err := e.sendMail(addr, auth, e.cfg.From, []string{to.Email}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to.Email, err)
	}
	e.logger.Info("alert email sent", "user_id", to.UserID, "aqi", alert.AQI)
	return nil
}

// Subject is the headline used for alert emails.
func Subject(alert livetrack.Alert) string {
	return fmt.Sprintf("🚨 Air Quality Alert - AQI %d in %s", alert.AQI, alert.Location)
}

type pollutantRow struct {
	Name  string
	Value string
}

type emailView struct {
	Location        string
	Type            string
	Time            string
	AQI             int
	Category        string
	Color           string
	Message         string
	Pollutants      []pollutantRow
	Recommendations []string
}

var emailPollutants = []struct {
	code, name, unit string
}{
	{"pm25", "PM2.5", "µg/m³"},
	{"pm10", "PM10", "µg/m³"},
	{"o3", "Ozone (O₃)", "ppb"},
	{"no2", "NO₂", "ppb"},
}

func renderAlertEmail(alert livetrack.Alert) (string, error) {
	view := emailView{
		Location:        alert.Location,
		Type:            alertTypeTitle(alert.Type),
		Time:            alert.Timestamp.Format("January 02, 2006 at 03:04 PM"),
		AQI:             alert.AQI,
		Category:        alert.AQICategory,
		Color:           aqiColor(alert.AQI),
		Message:         alert.Message,
		Recommendations: alert.Recommendations,
	}
	for _, p := range emailPollutants {
		if v, ok := alert.Pollutants[p.code]; ok {
			view.Pollutants = append(view.Pollutants, pollutantRow{Name: p.name, Value: fmt.Sprintf("%.1f %s", v, p.unit)})
		}
	}
	var buf bytes.Buffer
	if err := alertEmailTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func alertTypeTitle(kind string) string {
	words := strings.Fields(strings.ReplaceAll(kind, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func aqiColor(value int) string {
	switch aqi.Classify(value).Severity {
	case aqi.SeveritySuccess:
		return "#10b981"
	case aqi.SeverityWarning:
		return "#f59e0b"
	default:
		return "#ef4444"
	}
}

var alertEmailTemplate = template.Must(template.New("alert").Parse(`<html>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; color: #1f2937; background-color: #f3f4f6; margin: 0;">
  <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff;">
    <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 40px 30px; text-align: center;">
      <h1 style="margin: 0 0 10px 0;">🚨 Air Quality Alert</h1>
      <p style="margin: 0;">{{.Location}}</p>
    </div>
    <div style="padding: 40px 30px;">
      <p><strong>Alert Type:</strong> {{.Type}}</p>
      <p><strong>Time:</strong> {{.Time}}</p>
      <div style="text-align: center; padding: 30px; border-radius: 12px; background: #f0fdf4;">
        <div style="font-size: 48px; font-weight: 900; color: {{.Color}};">{{.AQI}}</div>
        <div style="font-size: 20px; font-weight: 700;">{{.Category}}</div>
      </div>
      <div style="background-color: #f9fafb; border-left: 4px solid #667eea; padding: 20px; margin: 25px 0;">{{.Message}}</div>
      {{- if .Pollutants}}
      <h3>Pollutant Levels</h3>
      <ul>
        {{- range .Pollutants}}
        <li><strong>{{.Name}}</strong>: {{.Value}}</li>
        {{- end}}
      </ul>
      {{- end}}
      {{- if .Recommendations}}
      <div style="background: #fef3c7; border-left: 4px solid #f59e0b; padding: 25px; margin: 25px 0;">
        <h3>🛡️ Important Health Recommendations</h3>
        <ul>
          {{- range .Recommendations}}
          <li>{{.}}</li>
          {{- end}}
        </ul>
      </div>
      {{- end}}
    </div>
    <div style="text-align: center; padding: 30px; background-color: #f9fafb; color: #6b7280; font-size: 14px;">
      <p><strong>AQI Live Tracker</strong></p>
      <p>Automated air quality monitoring and health advisory system</p>
    </div>
  </div>
</body>
</html>
`))

var _ livetrack.Notifier = (*EmailNotifier)(nil)
