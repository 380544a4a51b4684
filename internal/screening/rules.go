package screening

// Category is a named group of lower-case keywords matched as substrings.
type Category struct {
	Name     string
	Keywords []string
}

// RuleSet is the static reference data of the business-activity screen.
// Slices, not maps, keep iteration order fixed: the first category that
// matches supplies the user-facing reason.
type RuleSet struct {
	PrimaryHaram        []Category
	HaramSectors        []string
	GrayArea            []Category
	QuestionableSectors []string
}

// DefaultRules is the AAOIFI business-activity rule set.
//
// Category order (first match wins within a tier). Keywords may overlap
// across categories: "swine production" (Pork Products) contains "wine", so
// Alcohol, scanned first, is reported for it.
//
//	primary:  Alcohol, Tobacco, Gambling, Adult Entertainment, Pork Products,
//	          Weapons of Mass Destruction, Conventional Banking,
//	          Interest-Based Lending, Conventional Insurance
//	gray:     Advertising Platforms, Media & Entertainment, Diversified Retail,
//	          Conventional Fintech, Defense & Aerospace, Hotels & Hospitality,
//	          Diversified Conglomerates
var DefaultRules = &RuleSet{
	PrimaryHaram: []Category{
		{"Alcohol", []string{
			"alcohol", "beer", "wine", "spirits", "brewery", "distillery",
			"brewers", "winery", "malt beverage", "alcoholic drink",
		}},
		{"Tobacco", []string{"tobacco", "cigarette", "cigars", "nicotine products"}},
		{"Gambling", []string{
			"casino", "gambling", "lottery", "betting", "wagering",
			"sports betting", "horse racing", "gaming machines",
		}},
		{"Adult Entertainment", []string{"adult entertainment", "pornography", "adult content", "erotic"}},
		{"Pork Products", []string{"pork processing", "pig farming", "swine production", "ham producer"}},
		{"Weapons of Mass Destruction", []string{
			"nuclear weapons", "biological weapons", "chemical weapons",
			"landmines", "cluster munitions", "cluster bombs",
		}},
		// Full-service conventional banks are interest based.
		{"Conventional Banking", []string{
			"commercial banking", "retail banking", "savings bank",
			"investment banking", "mortgage banking",
		}},
		{"Interest-Based Lending", []string{
			"consumer finance", "payday loans", "pawnshops", "subprime lending", "loan shark",
		}},
		// Conventional insurance involves gharar.
		{"Conventional Insurance", []string{
			"life insurance", "property insurance", "casualty insurance", "conventional insurance",
		}},
	},
	HaramSectors: []string{
		"Banks—Regional", "Banks—Diversified", "Banks—Global",
		"Insurance—Life", "Insurance—Diversified", "Insurance—Property & Casualty",
		"Gambling", "Beverages—Brewers", "Beverages—Wineries & Distilleries",
		"Tobacco",
	},
	GrayArea: []Category{
		{"Advertising Platforms", []string{
			"digital advertising", "online advertising", "ad-supported", "advertising platform",
		}},
		{"Media & Entertainment", []string{
			"music streaming", "video streaming", "entertainment content", "social media",
		}},
		// Supermarkets selling alcohol or pork are questionable, not auto-fail.
		{"Diversified Retail", []string{"supermarket", "hypermarket", "grocery store", "wholesale club"}},
		{"Conventional Fintech", []string{
			"digital payments", "credit card network", "buy now pay later", "payment processing",
		}},
		{"Defense & Aerospace", []string{
			"defense", "aerospace", "military", "arms", "weapons", "ammunition", "firearms", "ordnance",
		}},
		{"Hotels & Hospitality", []string{"hotel", "resort", "hospitality", "lodging", "accommodation"}},
		{"Diversified Conglomerates", []string{"conglomerate", "diversified holdings"}},
	},
	QuestionableSectors: []string{
		"Financial Services",
		"Capital Markets",
		"Asset Management",
		"Credit Services",
		"Entertainment",
		"Advertising Agencies",
		"Specialty Retail",
		"Grocery Stores",
		"Department Stores",
		"Aerospace & Defense",
		"Hotels & Motels",
		"Resorts & Casinos",
		"Broadcasting",
	},
}
