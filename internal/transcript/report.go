package transcript

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/livecap/internal/model"
)

// SessionLister loads stored sessions.
type SessionLister interface {
	ListSessions(ctx context.Context, last int) ([]model.SessionRecord, error)
}

// Report summarizes recorded sessions.
type Report struct {
	Sessions      []model.SessionRecord
	TotalCaptions int
	TotalDuration time.Duration
}

// BuildReport loads up to last sessions (all when last <= 0), newest first.
func BuildReport(ctx context.Context, st SessionLister, last int) (Report, error) {
	sessions, err := st.ListSessions(ctx, last)
	if err != nil {
		return Report{}, err
	}
	report := Report{Sessions: sessions}
	for _, s := range sessions {
		report.TotalCaptions += s.Captions
		if s.EndedAt != nil {
			report.TotalDuration += s.EndedAt.Sub(s.StartedAt)
		}
	}
	return report, nil
}

// WriteHistory prints the report as a table; boxed when pretty is set.
func WriteHistory(w io.Writer, report Report, pretty bool) error {
	if len(report.Sessions) == 0 {
		_, err := fmt.Fprintln(w, "No recorded sessions.")
		return err
	}
	headers := []string{"Session", "Started", "Duration", "Lang", "Captions"}
	rows := make([][]string, 0, len(report.Sessions))
	for _, s := range report.Sessions {
		rows = append(rows, []string{
			shortID(s.ID),
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			sessionDuration(s),
			s.Language,
			strconv.Itoa(s.Captions),
		})
	}
	rightAlign := map[int]bool{2: true, 4: true}

	var out string
	if pretty {
		out = renderTable(headers, rows, rightAlign)
	} else {
		out = strings.Join(formatTable(headers, rows, rightAlign), "\n")
	}
	if _, err := fmt.Fprintln(w, out); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d sessions, %d captions, %s recorded\n",
		len(report.Sessions), report.TotalCaptions, formatDuration(report.TotalDuration))
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func sessionDuration(s model.SessionRecord) string {
	if s.EndedAt == nil {
		return "open"
	}
	return formatDuration(s.EndedAt.Sub(s.StartedAt))
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
