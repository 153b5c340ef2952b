// Package answertable renders a response's full answer table into the
// string substituted for {ANSWERTABLE} in email bodies.
package answertable

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/lemeur/confirm-by-email/model"
)

var reTags = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return reTags.ReplaceAllString(s, "")
}

// Table holds the two parallel renderings of one response.
type Table struct {
	HTML string
	Text string
}

// Pick returns the rendering matching the survey's HTML-email flag.
func (t Table) Pick(isHTML bool) string {
	if isHTML {
		return t.HTML
	}
	return t.Text
}

// Render walks rows in the given order. Rows whose field is prefixed
// "gid_" or "qid_" become group and question headers; any other row is a
// data row, emitted unless its field is in filtered. Headers are never
// filtered. The HTML rendering strips markup from header and question
// text and escapes answer text; the text rendering carries text raw.
func Render(rows []model.ResponseTableRow, filtered []string) Table {
	skip := make(map[string]bool, len(filtered))
	for _, f := range filtered {
		skip[f] = true
	}

	htmlOut := &strings.Builder{}
	textOut := &strings.Builder{}
	htmlOut.WriteString("<table class='printouttable' >\n")
	textOut.WriteString("\n\n")

	for _, row := range rows {
		switch {
		case strings.HasPrefix(row.Field, "gid_"):
			fmt.Fprintf(htmlOut, "\t<tr class='printanswersgroup'><td colspan='2'>%s</td></tr>\n", stripTags(row.Question))
			fmt.Fprintf(textOut, "\n%s\n\n", row.Question)

		case strings.HasPrefix(row.Field, "qid_"):
			fmt.Fprintf(htmlOut, "\t<tr class='printanswersquestionhead'><td  colspan='2'>%s</td></tr>\n", stripTags(row.Question))
			fmt.Fprintf(textOut, "\n%s\n", row.Question)

		case !skip[row.Field]:
			fmt.Fprintf(htmlOut, "\t<tr class='printanswersquestion'><td>%s</td><td class='printanswersanswertext'>%s</td></tr>\n",
				stripTags(row.Question+" "+row.SubQuestion), html.EscapeString(row.Answer))
			fmt.Fprintf(textOut, "     %s %s: %s\n", row.Question, row.SubQuestion, row.Answer)
		}
	}

	htmlOut.WriteString("</table>\n")
	textOut.WriteString("\n\n")
	return Table{HTML: htmlOut.String(), Text: textOut.String()}
}
