package seeder

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
)

// Render writes a human-readable run summary. Colors degrade to plain
// text automatically when the writer is not a terminal.
func (s *Summary) Render(w io.Writer) {
	header := []string{"SCHEMA", "TABLE", "EXISTING", "INSERTED", "TARGET", "STATUS"}
	rows := make([][]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		status := "seeded"
		if t.Skipped {
			status = "skipped"
		}
		rows = append(rows, []string{
			t.Schema,
			t.Table,
			strconv.Itoa(t.Existing),
			strconv.Itoa(t.Inserted),
			strconv.Itoa(t.Target),
			status,
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	var b strings.Builder
	for i, h := range header {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(runewidth.FillRight(h, widths[i]))
	}
	fmt.Fprintln(w, color.Bold.Sprint(b.String()))

	totalInserted := 0
	for ri, row := range rows {
		b.Reset()
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		line := b.String()
		if s.Tables[ri].Skipped {
			line = color.Gray.Sprint(line)
		}
		fmt.Fprintln(w, line)
		totalInserted += s.Tables[ri].Inserted
	}

	fmt.Fprintln(w)
	mode := "committed"
	if s.DryRun {
		mode = color.Yellow.Sprint("dry run, rolled back")
	}
	fmt.Fprintf(w, "%d rows across %d tables in %s (%s), seed %d\n",
		totalInserted, len(s.Tables), s.Elapsed.Round(time.Millisecond), mode, s.Seed)
}
