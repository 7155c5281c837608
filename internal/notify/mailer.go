package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"swcheck/internal/types"
)

// DefaultMailTimeout bounds a whole delivery attempt. The audit row is
// written before delivery is attempted, so a slow mail server can only delay
// the alert, never the record.
const DefaultMailTimeout = 15 * time.Second

// Mailer sends NOK alerts over SMTP.
type Mailer struct {
	Host    string
	Port    int
	From    string
	Timeout time.Duration
	Log     *zap.Logger
}

// Notify composes and sends one alert mail. The earlier of the context
// deadline and the mailer timeout bounds dialing, the SMTP dialogue, and the
// body transfer together.
func (m *Mailer) Notify(ctx context.Context, v types.CheckVerdict, recipients []string) error {
	if len(recipients) == 0 {
		return nil
	}

	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultMailTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	body, err := renderBody(v)
	if err != nil {
		return fmt.Errorf("rendering alert mail: %w", err)
	}

	addr := net.JoinHostPort(m.Host, fmt.Sprintf("%d", m.Port))
	conn, err := net.DialTimeout("tcp", addr, time.Until(deadline))
	if err != nil {
		return fmt.Errorf("dialing mail server: %w", err)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return err
	}

	client, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.Mail(m.From); err != nil {
		return err
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	msg := message(m.From, recipients, subject(v), body)
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	if m.Log != nil {
		m.Log.Info("alert mail sent",
			zap.String("check_id", v.ID),
			zap.String("snr", v.SNR),
			zap.Int("recipients", len(recipients)))
	}
	return client.Quit()
}

func subject(v types.CheckVerdict) string {
	return fmt.Sprintf("[swcheck] NOK - SNR %s", v.SNR)
}

func message(from string, to []string, subject, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, "; "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.Bytes()
}

var bodyTemplate = template.Must(template.New("alert").Parse(`<html><body>
<p>A <strong>NOK</strong> result was detected.</p>
<p><strong>SNR:</strong> {{.SNR}}{{if .Identifier}}<br><strong>DMC:</strong> {{.Identifier}}{{end}}</p>
<table border="1" cellpadding="5" cellspacing="0" style="border-collapse: collapse;">
<tr style="background-color: #f2f2f2;"><th>Field</th><th>Observed</th><th>Expected</th><th>Result</th></tr>
{{range .Fields}}<tr><td>{{.Field}}</td><td>{{.Observed}}</td><td>{{.Expected}}</td><td style="{{if .Match}}color: green;{{else}}color: red; font-weight: bold;{{end}}">{{.Reason}}</td></tr>
{{end}}</table>
<p><strong>Report:</strong> {{.ReportFile}}<br><strong>Settings:</strong> {{.ReferenceFile}}</p>
</body></html>`))

func renderBody(v types.CheckVerdict) (string, error) {
	var b bytes.Buffer
	if err := bodyTemplate.Execute(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}
