package upstream

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Apocalypse96/FeedbackPro/internal/domain"
	"github.com/Apocalypse96/FeedbackPro/internal/markup"
)

// renderPDF produces a single-page PDF report of one feedback record and
// its discussion. The writer emits a minimal but valid PDF 1.4 document
// with one Helvetica text stream; content beyond the page is truncated.
func renderPDF(rec domain.FeedbackRecord, comments []domain.Comment) ([]byte, error) {
	lines := reportLines(rec, comments)
	stream := contentStream(lines)

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes(), nil
}

// reportLines lays the report out as (text, fontSize) pairs. Body text
// is reduced to plain text first; the single-font stream cannot render
// inline formatting.
type pdfLine struct {
	text string
	size int
}

func reportLines(rec domain.FeedbackRecord, comments []domain.Comment) []pdfLine {
	status := "Pending"
	if rec.Acknowledged {
		status = "Acknowledged"
	}
	lines := []pdfLine{
		{"Feedback Report", 16},
		{"", 11},
		{"Manager: " + rec.ManagerName, 11},
		{"Employee: " + rec.EmployeeName, 11},
		{"Date Created: " + rec.CreatedAt.Format("January 2, 2006 at 3:04 PM"), 11},
		{"Sentiment: " + titleCase(string(rec.Sentiment)), 11},
		{"Status: " + status, 11},
	}
	if len(rec.Tags) > 0 {
		lines = append(lines, pdfLine{"Tags: " + strings.Join(rec.Tags, ", "), 11})
	}
	lines = append(lines,
		pdfLine{"", 11},
		pdfLine{"Strengths", 13},
	)
	lines = append(lines, wrapText(markup.Strip(rec.Strengths), 90)...)
	lines = append(lines,
		pdfLine{"", 11},
		pdfLine{"Areas to Improve", 13},
	)
	lines = append(lines, wrapText(markup.Strip(rec.AreasToImprove), 90)...)

	if len(comments) > 0 {
		lines = append(lines,
			pdfLine{"", 11},
			pdfLine{"Comments & Discussion", 13},
		)
		for _, cm := range comments {
			header := fmt.Sprintf("%s (%s) - %s", cm.UserName, cm.UserRole, cm.CreatedAt.Format("January 2, 2006 at 3:04 PM"))
			lines = append(lines, pdfLine{header, 10})
			lines = append(lines, wrapText(markup.Strip(cm.Text), 90)...)
			lines = append(lines, pdfLine{"", 11})
		}
	}
	return lines
}

func wrapText(text string, width int) []pdfLine {
	var out []pdfLine
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		line := ""
		for _, w := range words {
			if line != "" && len(line)+1+len(w) > width {
				out = append(out, pdfLine{line, 11})
				line = w
				continue
			}
			if line == "" {
				line = w
			} else {
				line += " " + w
			}
		}
		if line != "" {
			out = append(out, pdfLine{line, 11})
		}
	}
	return out
}

// contentStream positions each line from the top of an A4 page, 16pt
// apart, stopping at the bottom margin.
func contentStream(lines []pdfLine) string {
	var sb strings.Builder
	y := 780
	for _, ln := range lines {
		if y < 40 {
			break
		}
		if ln.text != "" {
			fmt.Fprintf(&sb, "BT /F1 %d Tf 72 %d Td (%s) Tj ET\n", ln.size, y, escapePDF(ln.text))
		}
		y -= 16
	}
	return strings.TrimRight(sb.String(), "\n")
}

// escapePDF escapes the characters with meaning inside a PDF string and
// replaces runes the built-in Helvetica encoding cannot represent.
func escapePDF(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '(', ')', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			if r < 32 || r > 126 {
				sb.WriteByte('?')
			} else {
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
