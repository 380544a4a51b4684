package screening

import (
	"fmt"
	"strings"

	"HalalScreener/internal/model"
)

const (
	detailPrimary = "Core business involves a prohibited activity under AAOIFI standards. This activity is impermissible."
	detailSector  = "Company operates in a sector classified as non-permissible by AAOIFI standards."
	detailPass    = "Core business activity appears permissible under AAOIFI Shariah standards."
	reasonPass    = "No haram or gray-area business activity detected"
)

// Classify screens p against DefaultRules.
func Classify(p *model.CompanyProfile) model.BusinessResult {
	return DefaultRules.Classify(p)
}

// Classify runs the business-activity screen. Tiers are checked in order and
// the first match wins: primary haram keywords, haram sectors, gray-area
// keywords, questionable sectors.
func (rs *RuleSet) Classify(p *model.CompanyProfile) model.BusinessResult {
	sector := field(p.Sector)
	industry := field(p.Industry)
	text := strings.ToLower(sector + " " + industry + " " + field(p.Description))

	if c, ok := matchCategory(rs.PrimaryHaram, text); ok {
		return model.BusinessResult{
			Verdict: model.VerdictFail,
			Reason:  "Primary haram activity: " + c,
			Detail:  detailPrimary,
			Match:   c,
		}
	}

	if s, ok := matchSector(rs.HaramSectors, sector, industry, text); ok {
		return model.BusinessResult{
			Verdict: model.VerdictFail,
			Reason:  "Haram sector: " + s,
			Detail:  detailSector,
			Match:   s,
		}
	}

	gray, ok := matchCategory(rs.GrayArea, text)
	if !ok {
		gray, ok = matchSector(rs.QuestionableSectors, sector, industry, text)
	}
	if ok {
		return model.BusinessResult{
			Verdict: model.VerdictQuestionable,
			Reason:  "Gray-area industry: " + gray,
			Detail: fmt.Sprintf("Scholars differ on permissibility for '%s'. "+
				"Review the business model carefully before investing.", gray),
			Match: gray,
		}
	}

	return model.BusinessResult{
		Verdict: model.VerdictPass,
		Reason:  reasonPass,
		Detail:  detailPass,
	}
}

func matchCategory(categories []Category, text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, c := range categories {
		for _, kw := range c.Keywords {
			if strings.Contains(text, kw) {
				return c.Name, true
			}
		}
	}
	return "", false
}

func matchSector(sectors []string, sector, industry, text string) (string, bool) {
	for _, s := range sectors {
		if strings.EqualFold(sector, s) || strings.EqualFold(industry, s) ||
			strings.Contains(text, strings.ToLower(s)) {
			return s, true
		}
	}
	return "", false
}

// field normalises a free-text attribute; "N/A" contributes nothing.
func field(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "n/a") {
		return ""
	}
	return s
}
