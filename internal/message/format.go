// Package message renders notifications as Telegram Markdown text.
package message

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the layout of the trailing "Vreme" line.
const TimestampLayout = "2006-01-02 15:04:05"

// Field is a single extra attached to a notification.
type Field struct {
	Key   string
	Value string
}

// Extras is an ordered list of fields. Output order follows insertion order.
type Extras []Field

// Set stores value under key. An existing key keeps its position and takes
// the new value.
func (e *Extras) Set(key, value string) {
	for i := range *e {
		if (*e)[i].Key == key {
			(*e)[i].Value = value
			return
		}
	}
	*e = append(*e, Field{Key: key, Value: value})
}

// Add is Set for arbitrary values, which are stringified with fmt.Sprint.
func (e *Extras) Add(key string, value any) {
	if s, ok := value.(string); ok {
		e.Set(key, s)
		return
	}
	e.Set(key, fmt.Sprint(value))
}

// Get returns the value stored under key.
func (e Extras) Get(key string) (string, bool) {
	for _, f := range e {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Escape backslash-escapes the characters Telegram Markdown treats as markup.
// Each character of s is examined once, so inserted backslashes are never
// escaped again.
func Escape(s string) string {
	if !strings.ContainsAny(s, "*_`[") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '*', '_', '`', '[':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Format builds the message text. Only body and extra values are escaped;
// labels and the timestamp are emitted as is.
func Format(typ, body string, extras Extras, now time.Time) string {
	head := LookupType(typ)

	lines := make([]string, 0, len(extras)+6)
	lines = append(lines, fmt.Sprintf("%s *%s*", head.Emoji, head.Label), "")
	lines = append(lines, Escape(body))

	if len(extras) > 0 {
		lines = append(lines, "")
		for _, f := range extras {
			d := LookupExtra(f.Key)
			lines = append(lines, fmt.Sprintf("%s %s: %s", d.Emoji, d.Label, Escape(f.Value)))
		}
	}

	lines = append(lines, "", "🕐 Vreme: "+now.Local().Format(TimestampLayout))
	return strings.Join(lines, "\n")
}

// Formatter formats with a configurable clock.
type Formatter struct {
	Now func() time.Time
}

func NewFormatter() *Formatter {
	return &Formatter{Now: time.Now}
}

func (f *Formatter) Format(typ, body string, extras Extras) string {
	now := time.Now
	if f != nil && f.Now != nil {
		now = f.Now
	}
	return Format(typ, body, extras, now())
}
