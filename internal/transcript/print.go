package transcript

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/livecap/internal/model"
)

const timeLayout = "15:04:05"

var stampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

// WriteTranscript prints a stored session's captions wrapped to width.
func WriteTranscript(w io.Writer, session model.SessionRecord, captions []model.CaptionRecord, width int, color bool) error {
	header := fmt.Sprintf("Session %s  %s  %s  %d captions",
		session.ID, session.StartedAt.Local().Format("2006-01-02 15:04"), session.Language, len(captions))
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	for _, c := range captions {
		if _, err := fmt.Fprintln(w, FormatCaption(c.Time.Local().Format(timeLayout), c.Text, width, color)); err != nil {
			return err
		}
	}
	return nil
}

// FormatCaption renders "[hh:mm:ss] text" with continuation lines indented
// under the text column.
func FormatCaption(stamp, text string, width int, color bool) string {
	prefix := "[" + stamp + "] "
	indent := runewidth.StringWidth(prefix)
	lines := Wrap(text, width-indent)
	if color {
		prefix = stampStyle.Render(prefix)
	}
	var b strings.Builder
	b.WriteString(prefix)
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat(" ", indent))
		}
		b.WriteString(line)
	}
	return b.String()
}

// Wrap breaks text at spaces so no line exceeds width display cells. Words
// wider than width are split.
func Wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var cur strings.Builder
		curWidth := 0
		for _, word := range words {
			for runewidth.StringWidth(word) > width {
				if curWidth > 0 {
					lines = append(lines, cur.String())
					cur.Reset()
					curWidth = 0
				}
				head := runewidth.Truncate(word, width, "")
				if head == "" {
					head = string([]rune(word)[:1])
				}
				lines = append(lines, head)
				word = word[len(head):]
			}
			ww := runewidth.StringWidth(word)
			if ww == 0 {
				continue
			}
			if curWidth > 0 && curWidth+1+ww > width {
				lines = append(lines, cur.String())
				cur.Reset()
				curWidth = 0
			}
			if curWidth > 0 {
				cur.WriteByte(' ')
				curWidth++
			}
			cur.WriteString(word)
			curWidth += ww
		}
		if curWidth > 0 {
			lines = append(lines, cur.String())
		}
	}
	return lines
}

// Printer writes live captions and status changes as lines. It is safe for
// concurrent use.
type Printer struct {
	mu    sync.Mutex
	out   io.Writer
	errw  io.Writer
	width int
	color bool
}

// NewPrinter writes captions to out and status lines to errw.
func NewPrinter(out, errw io.Writer, width int, color bool) *Printer {
	return &Printer{out: out, errw: errw, width: width, color: color}
}

// Caption prints one caption line.
func (p *Printer) Caption(ev model.CaptionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := FormatCaption(ev.Time.Local().Format(timeLayout), ev.Text, p.width, p.color)
	if _, err := fmt.Fprintln(p.out, line); err != nil {
		// Best-effort output.
		_ = err
	}
}

// Status prints the status label and any error.
func (p *Printer) Status(st model.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	msg := st.Label()
	if st.Err != nil {
		msg += ": " + st.Err.Error()
	}
	if _, err := fmt.Fprintln(p.errw, msg); err != nil {
		// Best-effort output.
		_ = err
	}
}
