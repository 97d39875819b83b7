package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sgHost     = "https://api.sendgrid.com"
	sgEndpoint = "/v3/mail/send"
)

type sendgridService struct {
	key    string
	from   *sgmail.Email
	logger *slog.Logger
}

var _ Service = (*sendgridService)(nil)

// NewSendgrid creates a Service backed by the SendGrid v3 mail API.
func NewSendgrid(key, fromName, fromEmail string, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &sendgridService{
		key:    key,
		from:   sgmail.NewEmail(fromName, fromEmail),
		logger: logger,
	}
}

func (svc *sendgridService) Send(ctx context.Context, messages []Message) SendReport {
	var report SendReport
	for _, msg := range messages {
		if msg.To.Email == "" {
			report.Failed++
			continue
		}
		if err := svc.send(ctx, msg); err != nil {
			svc.logger.Warn("sending email failed",
				slog.String("to", msg.To.Email), slog.String("error", err.Error()))
			report.Failed++
			continue
		}
		report.Sent++
	}
	return report
}

func (svc *sendgridService) send(ctx context.Context, msg Message) error {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Email))

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.TextBody),
		sgmail.NewContent("text/html", msg.HTMLBody),
	)

	req := sendgrid.GetRequest(svc.key, sgEndpoint, sgHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return &statusError{code: res.StatusCode, body: res.Body}
	}
	return nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("sendgrid status %d: %s", e.code, e.body)
}
