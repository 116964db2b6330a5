package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/Alias1177/DCAMailer/internal/analyze"
	"github.com/Alias1177/DCAMailer/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const DefaultSubject = "BTC DCA TIME"

var printer = message.NewPrinter(language.English)

// thresholdOrder is the order thresholds are listed in the footer
var thresholdOrder = []struct {
	Name  string
	Value float64
}{
	{models.IndicatorMVRVZ, analyze.MVRVZThreshold},
	{models.IndicatorPuell, analyze.PuellThreshold},
	{models.IndicatorAHR, analyze.AHR999Threshold},
}

type view struct {
	Amount      int
	Price       string
	WindowLabel string
	Readings    []readingView
	FlashCount  int
	Flashed     string
	Thresholds  []thresholdView
	GeneratedAt string
}

type readingView struct {
	Name     string
	Value    string
	Current  string
	LastDate string
	Flashed  bool
}

type thresholdView struct {
	Name  string
	Value string
}

var htmlTemplate = template.Must(template.New("report").Parse(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6;">
{{if gt .Amount 0}}<h2 style="color: #28a745;">INVESTMENT RECOMMENDATION: Invest <strong>{{.Amount}} EUR</strong></h2>
{{else}}<h2 style="color: #6c757d;">INVESTMENT RECOMMENDATION: No investment (0 EUR)</h2>
{{end}}<hr>
<p><strong>Current BTC Price:</strong> <strong>{{.Price}}</strong></p>
<h3>{{.WindowLabel}}:</h3>
<ul>
{{range .Readings}}<li><strong>{{.Name}}:</strong> {{.Value}}{{if .LastDate}} (Current: <strong>{{.Current}}</strong> from {{.LastDate}}){{end}}{{if .Flashed}} &#9889;{{end}}</li>
{{end}}</ul>
<hr>
<p><strong>Indicators Flashed:</strong> <strong>{{.FlashCount}}/3</strong></p>
{{if .Flashed}}<p><strong>Flashed Indicators:</strong> {{.Flashed}}</p>
{{end}}<p><strong>Flash Thresholds:</strong></p>
<ul>
{{range .Thresholds}}<li>{{.Name}}: &lt; {{.Value}}</li>
{{end}}</ul>
<hr>
<p style="color: #6c757d; font-size: 0.9em;">Generated: {{.GeneratedAt}}<br>BTC Indicator Emailer</p>
</body>
</html>
`))

// FormatUSD renders a price as $1,234.56
func FormatUSD(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

func newView(r models.Report) view {
	v := view{
		Amount:      r.Recommendation,
		Price:       FormatUSD(r.BTCPrice),
		WindowLabel: windowLabel(r.LookbackDays),
		FlashCount:  r.FlashCount,
		Flashed:     strings.Join(r.Flashed, ", "),
		GeneratedAt: r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
	}
	for _, reading := range r.Readings {
		v.Readings = append(v.Readings, readingView{
			Name:     reading.Name,
			Value:    fmt.Sprintf("%.4f", reading.Value),
			Current:  fmt.Sprintf("%.4f", reading.Current),
			LastDate: reading.LastDate,
			Flashed:  reading.Flashed,
		})
	}
	for _, t := range thresholdOrder {
		v.Thresholds = append(v.Thresholds, thresholdView{Name: t.Name, Value: fmt.Sprintf("%g", t.Value)})
	}
	return v
}

func windowLabel(days int) string {
	if days <= 1 {
		return "Latest Values"
	}
	return fmt.Sprintf("Minimum Values (Last %d Days)", days)
}

// HTML renders the report as an HTML document
func HTML(r models.Report) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, newView(r)); err != nil {
		return "", fmt.Errorf("rendering html report: %w", err)
	}
	return buf.String(), nil
}

// Text renders the report as plain text
func Text(r models.Report) string {
	v := newView(r)
	var sb strings.Builder

	if v.Amount > 0 {
		sb.WriteString(fmt.Sprintf("INVESTMENT RECOMMENDATION: Invest %d EUR\n", v.Amount))
	} else {
		sb.WriteString("INVESTMENT RECOMMENDATION: No investment (0 EUR)\n")
	}
	sb.WriteString(fmt.Sprintf("\nCurrent BTC Price: %s\n\n", v.Price))

	sb.WriteString(v.WindowLabel + ":\n")
	for _, rv := range v.Readings {
		mark := ""
		if rv.Flashed {
			mark = " [FLASH]"
		}
		if rv.LastDate != "" {
			sb.WriteString(fmt.Sprintf("- %s: %s (Current: %s from %s)%s\n", rv.Name, rv.Value, rv.Current, rv.LastDate, mark))
		} else {
			sb.WriteString(fmt.Sprintf("- %s: %s%s\n", rv.Name, rv.Value, mark))
		}
	}

	sb.WriteString(fmt.Sprintf("\nIndicators Flashed: %d/3\n", v.FlashCount))
	if v.Flashed != "" {
		sb.WriteString("Flashed Indicators: " + v.Flashed + "\n")
	}
	sb.WriteString("Flash Thresholds:\n")
	for _, t := range v.Thresholds {
		sb.WriteString(fmt.Sprintf("- %s: < %s\n", t.Name, t.Value))
	}
	sb.WriteString("\nGenerated: " + v.GeneratedAt + "\n")

	return sb.String()
}

// Build renders both bodies into an email message
func Build(r models.Report, from, to, subject string) (models.EmailMessage, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	html, err := HTML(r)
	if err != nil {
		return models.EmailMessage{}, err
	}
	return models.EmailMessage{
		Subject:  subject,
		HTMLBody: html,
		TextBody: Text(r),
		From:     from,
		To:       to,
	}, nil
}
