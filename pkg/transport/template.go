package transport

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Render renders a templ component into a string.
func Render(ctx context.Context, tpl templ.Component) (string, error) {
	var sb strings.Builder
	if err := tpl.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// ReminderEmail is the HTML layout used for reminder emails.
// Subject and body are escaped; newlines in the body become line breaks.
func ReminderEmail(subject, body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>`)
		sb.WriteString(templ.EscapeString(subject))
		sb.WriteString(`</title></head><body style="font-family:sans-serif;line-height:1.5">`)
		sb.WriteString(`<h2>`)
		sb.WriteString(templ.EscapeString(subject))
		sb.WriteString(`</h2>`)
		for line := range strings.SplitSeq(body, "\n") {
			sb.WriteString(`<p>`)
			sb.WriteString(templ.EscapeString(line))
			sb.WriteString(`</p>`)
		}
		sb.WriteString(`</body></html>`)
		_, err := io.WriteString(w, sb.String())
		return err
	})
}

func renderHTML(ctx context.Context, msg Message) (string, error) {
	return Render(ctx, ReminderEmail(msg.Subject, msg.Body))
}
