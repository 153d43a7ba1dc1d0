package notify

import (
	"bytes"
	"context"
	"cpuvalue/internal/components/assert"
	"cpuvalue/internal/components/telemetry"
	"cpuvalue/internal/ranking"
	"cpuvalue/internal/report"
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cpuvalue/internal/notify")

const report_notifier_send = "notifier.send"

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Options struct {
	Smtp SmtpConfig `json:"smtp"`
	To   []string   `json:"to"`
	// number of entries included in the mail, defaults to 10
	Limit int `json:"limit"`
}

// Enabled reports whether enough is configured to send mail.
func (o Options) Enabled() bool {
	return o.Smtp.Server != "" && o.Smtp.EmailAddress != "" && len(o.To) > 0
}

type Notifier struct {
	opts Options
	tel  telemetry.API
}

func NewNotifier(opts Options, tel telemetry.API) Notifier {
	assert.NotNil(tel)
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	return Notifier{
		opts: opts,
		tel:  telemetry.NewScopedAPI("notify", tel),
	}
}

// Message builds the mail carrying the top of `entries`.
func (n Notifier) Message(entries []ranking.Entry) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("cpuvalue <%s>", n.opts.Smtp.EmailAddress)
	mail.To = n.opts.To

	if len(entries) == 0 {
		mail.Subject = "CPU value ranking: no processors could be ranked"
		mail.Text = []byte("No processor had a listing from an exclusive vendor in this run.\n")
		return mail
	}

	mail.Subject = fmt.Sprintf("CPU value ranking: %s leads with %.3f", entries[0].Name, entries[0].Score)

	t := report.RankingTable(nil, entries, n.opts.Limit)
	t.SetStyle(table.StyleDefault)

	summary := fmt.Sprintf("Top %d of %d ranked processors.", min(n.opts.Limit, len(entries)), len(entries))

	var body bytes.Buffer
	body.WriteString(summary)
	body.WriteString("\n\n")
	body.WriteString(t.Render())
	body.WriteString("\n")
	mail.Text = body.Bytes()

	var page bytes.Buffer
	fmt.Fprintf(&page, "<p>%s</p>\n", html.EscapeString(summary))
	page.WriteString(t.RenderHTML())
	page.WriteString("\n")
	mail.HTML = page.Bytes()
	return mail
}

// SendRanking mails the ranking, servers that do not support AUTH are
// retried without it.
func (n Notifier) SendRanking(ctx context.Context, entries []ranking.Entry) error {
	_, span := tracer.Start(ctx, "Notifier.SendRanking")
	defer span.End()
	span.SetAttributes(attribute.Int("notify.recipients", len(n.opts.To)))

	mail := n.Message(entries)
	addr := fmt.Sprintf("%s:%d", n.opts.Smtp.Server, n.opts.Smtp.Port)

	err := mail.Send(
		addr,
		smtp.PlainAuth("", n.opts.Smtp.EmailAddress, n.opts.Smtp.Password, n.opts.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		n.tel.ReportBroken(report_notifier_send, err, addr)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}

	n.tel.ReportDebug("sent ranking", n.opts.To, len(entries))
	return nil
}
