package notification

import (
	"errors"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Mailer struct {
	cfg SMTPConfig
}

func NewMailer(cfg SMTPConfig) (*Mailer, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, errors.New("smtp host/port required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address required")
	}
	return &Mailer{cfg: cfg}, nil
}

// Notify renders and sends the overpass alert for a location. Delivery
// failures are returned to the caller; no retry happens here — the next
// scheduled cycle is the retry.
func (m *Mailer) Notify(to, locationName string, passTime time.Time) error {
	if to == "" {
		return errors.New("recipient email is empty")
	}
	return m.sendMail(to, overpassSubject, renderOverpassBody(locationName, passTime))
}

const overpassSubject = "Upcoming Landsat Pass"

func renderOverpassBody(locationName string, passTime time.Time) string {
	return fmt.Sprintf(
		"Hello,\n\nThere is an upcoming Landsat pass for your location '%s' at %s.\n\nBest regards,\nLandsat Notification System",
		locationName,
		passTime.Format("2006-01-02 15:04:05"),
	)
}

func (m *Mailer) sendMail(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	headers := []string{
		fmt.Sprintf("From: %s", m.cfg.From),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
	}
	msg := strings.Join(headers, "\r\n") + body

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg))
}

func ConfigFromEnv(host, port, username, password, from string) (SMTPConfig, error) {
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return SMTPConfig{}, fmt.Errorf("invalid smtp port: %w", err)
	}
	return SMTPConfig{
		Host:     host,
		Port:     portNum,
		Username: username,
		Password: password,
		From:     from,
	}, nil
}
