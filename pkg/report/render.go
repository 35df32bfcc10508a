package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"

	"github.com/fundscope/fundscope/pkg/domain"
)

// digestTmpl renders the email body: a capped table with the most recent rows,
// the full set travels as the CSV attachment.
var digestTmpl = template.Must(template.New("digest").Parse(`<p>以下为最近{{.Days}}天（按发布日期倒序）餐饮自动化/食物机器人方向的融资动态：</p>
<table border="1" cellpadding="6" cellspacing="0" style="border-collapse:collapse;font-family:Arial,Helvetica,sans-serif;font-size:13px;">
  <tr>
    <th>日期</th><th>标题</th><th>金额</th><th>标签/轮次</th><th>投资方（节选）</th><th>来源</th>
  </tr>
{{- range .Rows}}
  <tr>
    <td>{{.Date}}</td>
    <td><a href="{{.URL}}">{{.Title}}</a></td>
    <td title="{{.AmountFull}}">{{.Amount}}</td>
    <td>{{.Tags}}</td>
    <td>{{.Investors}}</td>
    <td>{{.Domain}}</td>
  </tr>
{{- end}}
</table>
<p>完整清单请见附件 CSV（含金额排序与全文链接）。</p>
`))

type tmplRow struct {
	Date       string
	URL        string
	Title      string
	Amount     string
	AmountFull string
	Tags       string
	Investors  string
	Domain     string
}

// Renderer builds the HTML digest body from tagged rows.
type Renderer struct {
	maxRows   int
	sanitizer *bluemonday.Policy
}

// NewRenderer creates a digest renderer capping the visible table at maxRows.
func NewRenderer(maxRows int) *Renderer {
	return &Renderer{maxRows: maxRows, sanitizer: bluemonday.StrictPolicy()}
}

// Render produces the HTML body for the digest email.
func (r *Renderer) Render(rows []domain.DigestRow, days int) (string, error) {
	visible := rows
	if len(visible) > r.maxRows {
		visible = visible[:r.maxRows]
	}

	data := struct {
		Days int
		Rows []tmplRow
	}{Days: days}

	for i := range visible {
		row := &visible[i]
		data.Rows = append(data.Rows, tmplRow{
			Date:       row.Date.Format("2006-01-02"),
			URL:        row.SourceURL,
			Title:      truncate(r.clean(row.Title), 120),
			Amount:     FormatMoney(row.AmountUSD),
			AmountFull: "$" + humanize.Comma(row.AmountUSD),
			Tags:       r.clean(row.TagString()),
			Investors:  truncate(r.clean(row.Investors), 120),
			Domain:     row.SourceDomain,
		})
	}

	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

// clean strips any markup that survived extraction, extracted clauses come from
// arbitrary pages.
func (r *Renderer) clean(s string) string {
	return strings.TrimSpace(r.sanitizer.Sanitize(s))
}

// FormatMoney renders a USD amount in compact form: $1.50B, $12.00M, $50.0K.
func FormatMoney(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("$%.2fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("$%.2fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("$%.1fK", float64(n)/1_000)
	}
	return "$" + strconv.FormatInt(n, 10)
}

// AttachmentCSV serializes the full filtered row set for the email attachment.
func AttachmentCSV(rows []domain.DigestRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "title", "amount_usd", "round", "investors",
		"source_domain", "source_url", "tags", "query", "snippet"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write attachment header: %w", err)
	}

	for i := range rows {
		row := &rows[i]
		rec := []string{
			row.Date.Format("2006-01-02"),
			row.Title,
			strconv.FormatInt(row.AmountUSD, 10),
			row.Round,
			row.Investors,
			row.SourceDomain,
			row.SourceURL,
			row.TagString(),
			row.Query,
			row.Snippet,
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write attachment row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// AttachmentName returns the dated attachment file name.
func AttachmentName(today time.Time) string {
	return "funding_week_" + today.Format("2006-01-02") + ".csv"
}

// truncate cuts a string to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
