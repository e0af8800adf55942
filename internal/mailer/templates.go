package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode"

	"github.com/sitecraft/backend/internal/model"
)

var notificationHTML = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
<h2 style="margin-bottom: 4px;">New website inquiry</h2>
<p style="color: #666; margin-top: 0;">Received {{.Received}}</p>
<table cellpadding="6" style="border-collapse: collapse;">
<tr><td><strong>Name</strong></td><td>{{.Name}}</td></tr>
<tr><td><strong>Email</strong></td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
{{- if .Phone}}
<tr><td><strong>Phone</strong></td><td>{{.Phone}}</td></tr>
{{- end}}
<tr><td><strong>Subject</strong></td><td>{{.Subject}}</td></tr>
</table>
<div style="margin-top: 16px; padding: 12px; background: #f5f5f5; border-left: 4px solid #0b5cad;">
{{- range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end -}}
</div>
{{- if .AdminLink}}
<p style="margin-top: 16px;"><a href="{{.AdminLink}}">Open inquiry #{{.ID}} in the admin panel</a></p>
{{- end}}
</body>
</html>
`))

var replyHTML = template.Must(template.New("reply").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
<div>{{.Body}}</div>
{{- if .Original}}
<hr style="border: none; border-top: 1px solid #ddd; margin: 24px 0 12px;">
<p style="color: #666; font-size: 13px;">On {{.Original.Received}}, {{.Original.Name}} wrote:</p>
<blockquote style="margin: 0; padding-left: 12px; border-left: 3px solid #ccc; color: #555;">
{{- range $i, $line := .Original.Lines}}{{if $i}}<br>{{end}}{{$line}}{{end -}}
</blockquote>
{{- end}}
</body>
</html>
`))

type notificationView struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Subject   string
	Lines     []string
	Received  string
	AdminLink string
}

type quotedView struct {
	Name     string
	Received string
	Lines    []string
}

type replyView struct {
	Body     template.HTML
	Original *quotedView
}

const timeLayout = "Jan 2, 2006 15:04 MST"

func formatReceived(t time.Time) string {
	if t.IsZero() {
		return "just now"
	}
	return t.Format(timeLayout)
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}

// renderNotification builds the admin notification for a new inquiry.
func renderNotification(inq *model.Inquiry, publicURL string) (htmlBody, textBody string, err error) {
	view := notificationView{
		ID:       inq.ID,
		Name:     inq.Name,
		Email:    inq.Email,
		Phone:    inq.Phone,
		Subject:  inq.Subject,
		Lines:    splitLines(inq.Message),
		Received: formatReceived(inq.CreatedAt),
	}
	if base := strings.TrimRight(publicURL, "/"); base != "" && inq.ID != "" {
		view.AdminLink = base + "/admin/inquiries/" + inq.ID
	}

	var buf bytes.Buffer
	if err := notificationHTML.Execute(&buf, view); err != nil {
		return "", "", fmt.Errorf("render notification: %w", err)
	}

	var t strings.Builder
	t.WriteString("New website inquiry\n\n")
	fmt.Fprintf(&t, "Name:    %s\n", inq.Name)
	fmt.Fprintf(&t, "Email:   %s\n", inq.Email)
	if inq.Phone != "" {
		fmt.Fprintf(&t, "Phone:   %s\n", inq.Phone)
	}
	fmt.Fprintf(&t, "Subject: %s\n", inq.Subject)
	fmt.Fprintf(&t, "Received: %s\n\n", view.Received)
	t.WriteString(inq.Message)
	t.WriteString("\n")
	if view.AdminLink != "" {
		fmt.Fprintf(&t, "\nOpen in admin panel: %s\n", view.AdminLink)
	}
	return buf.String(), t.String(), nil
}

// renderReply builds a reply body. replyBody may be an HTML fragment written
// in the admin editor; plain text is escaped and keeps its line breaks.
func renderReply(replyBody string, original *model.Inquiry) (htmlBody, textBody string, err error) {
	view := replyView{Body: replyFragment(replyBody)}
	if original != nil {
		view.Original = &quotedView{
			Name:     original.Name,
			Received: formatReceived(original.CreatedAt),
			Lines:    splitLines(original.Message),
		}
		if view.Original.Name == "" {
			view.Original.Name = "you"
		}
	}

	var buf bytes.Buffer
	if err := replyHTML.Execute(&buf, view); err != nil {
		return "", "", fmt.Errorf("render reply: %w", err)
	}
	return buf.String(), StripTags(replyBody), nil
}

// replyFragment keeps bodies containing real tags as HTML.
func replyFragment(body string) template.HTML {
	if StripTags(body) != body {
		return template.HTML(body)
	}
	lines := splitLines(body)
	for i, l := range lines {
		lines[i] = template.HTMLEscapeString(l)
	}
	return template.HTML(strings.Join(lines, "<br>\n"))
}

// StripTags removes markup and leaves the rest of the text untouched. A '<'
// opens a tag only when followed by a letter, '/', '!' or '?'; otherwise it
// is literal text, as in "takes < 3 days".
func StripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	rs := []rune(s)
	inTag := false
	var quote rune
	for i, r := range rs {
		switch {
		case inTag && quote != 0:
			if r == quote {
				quote = 0
			}
		case inTag:
			switch r {
			case '"', '\'':
				quote = r
			case '>':
				inTag = false
			}
		case r == '<' && i+1 < len(rs) && opensTag(rs[i+1]):
			inTag = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func opensTag(r rune) bool {
	return unicode.IsLetter(r) || r == '/' || r == '!' || r == '?'
}
