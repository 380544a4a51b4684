// Package export renders screening results as CSV or JSON documents.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"HalalScreener/internal/model"
)

// Format is an export document format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" or "json"; empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType is the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// Filename names an export taken at t, e.g. halal_screening_20250301_1430.csv.
func (f Format) Filename(t time.Time) string {
	return fmt.Sprintf("halal_screening_%s.%s", t.Format("20060102_1504"), f)
}

// Header lists the CSV columns. The three ratio columns follow battery order.
var Header = []string{
	"Ticker", "Company", "Sector", "Country", "Price", "Market Cap", "P/E Ratio",
	"Div Yield (%)", "Debt/MktCap (%)", "Secondary (%)", "Revenue (%)", "Purification (%)",
	"Biz Screen", "Biz Reason", "Fin Screen", "Fin Reason", "Overall Verdict", "Screened At",
}

// Write renders results in format f.
func Write(w io.Writer, f Format, results []model.ScreeningResult) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, results)
	case FormatCSV, "":
		return WriteCSV(w, results)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// WriteCSV writes a header row followed by one row per result.
func WriteCSV(w io.Writer, results []model.ScreeningResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range results {
		if err := cw.Write(Row(&results[i])); err != nil {
			return fmt.Errorf("write csv row %s: %w", results[i].Ticker, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row renders one result as CSV cells. Missing numbers are empty cells.
func Row(r *model.ScreeningResult) []string {
	bizScreen, finScreen := "", ""
	if r.Overall != model.OverallError {
		bizScreen = r.Business.Verdict.Label()
		finScreen = r.Financial.Verdict.Label()
	}
	return []string{
		r.Ticker,
		r.Name,
		r.Sector,
		r.Country,
		num(r.Price, 2),
		r.MarketCap,
		num(r.PERatio, 2),
		strconv.FormatFloat(r.DividendYield, 'f', 2, 64),
		num(r.Financial.RatioAt(0), -1),
		num(r.Financial.RatioAt(1), -1),
		num(r.Financial.RatioAt(2), -1),
		strconv.FormatFloat(r.Purification.Pct, 'f', 3, 64),
		bizScreen,
		orError(r.Business.Reason, r),
		finScreen,
		orError(r.Financial.Reason, r),
		r.Overall.Label(),
		r.ScreenedAt.Format("2006-01-02 15:04"),
	}
}

// WriteJSON writes the results as an indented JSON array.
func WriteJSON(w io.Writer, results []model.ScreeningResult) error {
	if results == nil {
		results = []model.ScreeningResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	return nil
}

func num(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func orError(reason string, r *model.ScreeningResult) string {
	if r.Overall == model.OverallError {
		return r.Error
	}
	return reason
}
