package screening

import (
	"testing"

	"HalalScreener/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Tiers(t *testing.T) {
	tests := []struct {
		name    string
		profile model.CompanyProfile
		verdict model.Verdict
		reason  string
	}{
		{
			name:    "primary haram keyword",
			profile: model.CompanyProfile{Sector: "Consumer Defensive", Industry: "Tobacco"},
			verdict: model.VerdictFail,
			reason:  "Primary haram activity: Tobacco",
		},
		{
			name:    "primary dominates gray area",
			profile: model.CompanyProfile{Sector: "Consumer Cyclical", Description: "operates casino resorts and hotels"},
			verdict: model.VerdictFail,
			reason:  "Primary haram activity: Gambling",
		},
		{
			name:    "haram sector exact match",
			profile: model.CompanyProfile{Sector: "Financial Services", Industry: "Banks—Regional"},
			verdict: model.VerdictFail,
			reason:  "Haram sector: Banks—Regional",
		},
		{
			name:    "gray area keyword",
			profile: model.CompanyProfile{Sector: "Communication Services", Description: "operates a social media network"},
			verdict: model.VerdictQuestionable,
			reason:  "Gray-area industry: Media & Entertainment",
		},
		{
			name:    "questionable sector",
			profile: model.CompanyProfile{Sector: "Financial Services", Industry: "Capital Markets", Description: "provides brokerage"},
			verdict: model.VerdictQuestionable,
			reason:  "Gray-area industry: Financial Services",
		},
		{
			name:    "clean technology company",
			profile: model.CompanyProfile{Sector: "Technology", Description: "designs smartphones"},
			verdict: model.VerdictPass,
			reason:  "No haram or gray-area business activity detected",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(&tt.profile)
			assert.Equal(t, tt.verdict, got.Verdict)
			assert.Equal(t, tt.reason, got.Reason)
			assert.NotEmpty(t, got.Detail)
		})
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	got := Classify(&model.CompanyProfile{Description: "Operates a CASINO floor"})
	assert.Equal(t, model.VerdictFail, got.Verdict)
	assert.Equal(t, "Gambling", got.Match)

	got = Classify(&model.CompanyProfile{Industry: "grocery stores"})
	assert.Equal(t, model.VerdictQuestionable, got.Verdict)
	assert.Equal(t, "Diversified Retail", got.Match)
}

func TestClassify_MissingText(t *testing.T) {
	tests := []model.CompanyProfile{
		{},
		{Sector: "N/A", Industry: "N/A"},
		{Sector: "n/a", Industry: " ", Description: ""},
	}
	for _, p := range tests {
		got := Classify(&p)
		assert.Equal(t, model.VerdictPass, got.Verdict)
		assert.Empty(t, got.Match)
	}
}

func TestClassify_CategoryOrderBreaksTies(t *testing.T) {
	// "wine" is a substring of "swine"; Alcohol is scanned before Pork Products.
	got := Classify(&model.CompanyProfile{Description: "swine production"})
	assert.Equal(t, model.VerdictFail, got.Verdict)
	assert.Equal(t, "Alcohol", got.Match)
}

func TestClassify_HaramSectorBeforeGray(t *testing.T) {
	got := Classify(&model.CompanyProfile{Sector: "Financial Services", Industry: "Insurance—Life"})
	// "life insurance" is not literally present, so the sector tier decides.
	assert.Equal(t, model.VerdictFail, got.Verdict)
	assert.Equal(t, "Haram sector: Insurance—Life", got.Reason)
}

func TestRuleSet_Custom(t *testing.T) {
	rs := &RuleSet{
		PrimaryHaram: []Category{{Name: "Crypto Lending", Keywords: []string{"crypto lending"}}},
		GrayArea:     []Category{{Name: "Crypto", Keywords: []string{"crypto"}}},
	}
	assert.Equal(t, model.VerdictFail, rs.Classify(&model.CompanyProfile{Description: "crypto lending desk"}).Verdict)
	assert.Equal(t, model.VerdictQuestionable, rs.Classify(&model.CompanyProfile{Description: "crypto custody"}).Verdict)
	assert.Equal(t, model.VerdictPass, rs.Classify(&model.CompanyProfile{Description: "operates a casino"}).Verdict)
}
