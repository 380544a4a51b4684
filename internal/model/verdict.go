package model

// Verdict is the outcome of a single screen.
// The financial screen only ever yields VerdictPass or VerdictFail.
type Verdict string

const (
	VerdictPass         Verdict = "pass"
	VerdictQuestionable Verdict = "questionable"
	VerdictFail         Verdict = "fail"
)

// Overall is the combined verdict of a screening call.
type Overall string

const (
	OverallCompliant    Overall = "COMPLIANT"
	OverallQuestionable Overall = "QUESTIONABLE"
	OverallNonCompliant Overall = "NON_COMPLIANT"
	OverallError        Overall = "ERROR"
)

// Rank orders overall verdicts for display: compliant first, errors last.
func (o Overall) Rank() int {
	switch o {
	case OverallCompliant:
		return 0
	case OverallQuestionable:
		return 1
	case OverallNonCompliant:
		return 2
	case OverallError:
		return 3
	default:
		return 99
	}
}

// Label is the short human label used in reports and exports.
func (o Overall) Label() string {
	switch o {
	case OverallCompliant:
		return "✅ COMPLIANT"
	case OverallQuestionable:
		return "🟡 QUESTIONABLE"
	case OverallNonCompliant:
		return "❌ NON-COMPLIANT"
	case OverallError:
		return "⚠️ ERROR"
	default:
		return string(o)
	}
}

// Label is the short human label for a sub-screen verdict.
func (v Verdict) Label() string {
	switch v {
	case VerdictPass:
		return "✅ PASS"
	case VerdictQuestionable:
		return "🟡 QUESTIONABLE"
	case VerdictFail:
		return "❌ FAIL"
	default:
		return string(v)
	}
}
