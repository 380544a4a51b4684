// Package standard holds the Shariah screening standards: named threshold
// presets, the two ratio-battery shapes, and the process-wide active selection.
package standard

import (
	"fmt"
	"strings"

	"HalalScreener/internal/model"

	"github.com/go-playground/validator/v10"
)

// Name identifies a screening standard.
type Name string

const (
	AAOIFI    Name = "aaoifi"
	DowJones  Name = "dow_jones"
	SPShariah Name = "sp_shariah"
	Custom    Name = "custom"
)

// Names lists the recognised standards in display order.
var Names = []Name{AAOIFI, DowJones, SPShariah, Custom}

// DisplayName is the human name of the standard.
func (n Name) DisplayName() string {
	switch n {
	case AAOIFI:
		return "AAOIFI"
	case DowJones:
		return "Dow Jones Islamic"
	case SPShariah:
		return "S&P Shariah"
	case Custom:
		return "Custom"
	default:
		return string(n)
	}
}

// ParseName accepts the canonical names plus the dashboard labels
// ("AAOIFI (Default)", "Dow Jones Islamic", "S&P Shariah").
func ParseName(s string) (Name, error) {
	key := normalize(s)
	switch key {
	case "", "aaoifi", "aaoifidefault", "default":
		return AAOIFI, nil
	case "dowjones", "dowjonesislamic", "djim", "dj":
		return DowJones, nil
	case "spshariah", "sandpshariah", "sp", "sandp":
		return SPShariah, nil
	case "custom":
		return Custom, nil
	}
	return "", &model.ConfigError{Field: "standard", Value: s, Reason: "unknown standard"}
}

// Battery selects which ratios the financial screen computes.
type Battery string

const (
	// BatteryAAOIFI computes debt, interest-bearing securities and impermissible revenue.
	BatteryAAOIFI Battery = "aaoifi"
	// BatteryLegacy computes debt, receivables and interest income.
	BatteryLegacy Battery = "legacy"
)

// ParseBattery maps a battery name onto a Battery; empty means BatteryAAOIFI.
func ParseBattery(s string) (Battery, error) {
	switch normalize(s) {
	case "", "aaoifi", "standard", "securities":
		return BatteryAAOIFI, nil
	case "legacy", "receivables", "threeratio":
		return BatteryLegacy, nil
	}
	return "", &model.ConfigError{Field: "battery", Value: s, Reason: "unknown ratio battery"}
}

// Threshold keys, as accepted in override maps.
const (
	KeyDebt           = "max_debt_to_market_cap"
	KeySecurities     = "max_interest_bearing_securities"
	KeyHaramRevenue   = "max_haram_revenue_ratio"
	KeyInterestIncome = "max_interest_income_ratio"
	KeyReceivables    = "max_receivables_ratio"
)

// Keys returns the threshold keys of the battery in evaluation order:
// debt first, then interest income and receivables for the legacy battery,
// or interest-bearing securities and impermissible revenue otherwise.
func (b Battery) Keys() []string {
	if b == BatteryLegacy {
		return []string{KeyDebt, KeyInterestIncome, KeyReceivables}
	}
	return []string{KeyDebt, KeySecurities, KeyHaramRevenue}
}

// Thresholds are fractions in (0,1]. Only the fields of the active battery are set.
type Thresholds struct {
	MaxDebtToMarketCap           float64 `json:"max_debt_to_market_cap" yaml:"max_debt_to_market_cap"`
	MaxInterestBearingSecurities float64 `json:"max_interest_bearing_securities,omitempty" yaml:"max_interest_bearing_securities,omitempty"`
	MaxHaramRevenueRatio         float64 `json:"max_haram_revenue_ratio,omitempty" yaml:"max_haram_revenue_ratio,omitempty"`
	MaxInterestIncomeRatio       float64 `json:"max_interest_income_ratio,omitempty" yaml:"max_interest_income_ratio,omitempty"`
	MaxReceivablesRatio          float64 `json:"max_receivables_ratio,omitempty" yaml:"max_receivables_ratio,omitempty"`
}

// Get returns the threshold stored under key.
func (t Thresholds) Get(key string) (float64, bool) {
	switch key {
	case KeyDebt:
		return t.MaxDebtToMarketCap, true
	case KeySecurities:
		return t.MaxInterestBearingSecurities, true
	case KeyHaramRevenue:
		return t.MaxHaramRevenueRatio, true
	case KeyInterestIncome:
		return t.MaxInterestIncomeRatio, true
	case KeyReceivables:
		return t.MaxReceivablesRatio, true
	}
	return 0, false
}

func (t *Thresholds) set(key string, v float64) {
	switch key {
	case KeyDebt:
		t.MaxDebtToMarketCap = v
	case KeySecurities:
		t.MaxInterestBearingSecurities = v
	case KeyHaramRevenue:
		t.MaxHaramRevenueRatio = v
	case KeyInterestIncome:
		t.MaxInterestIncomeRatio = v
	case KeyReceivables:
		t.MaxReceivablesRatio = v
	}
}

// presets maps each battery shape to its per-standard limits.
// Custom starts from the AAOIFI row of its battery.
var presets = map[Battery]map[Name]Thresholds{
	BatteryAAOIFI: {
		AAOIFI:    {MaxDebtToMarketCap: 0.30, MaxInterestBearingSecurities: 0.30, MaxHaramRevenueRatio: 0.05},
		DowJones:  {MaxDebtToMarketCap: 0.33, MaxInterestBearingSecurities: 0.33, MaxHaramRevenueRatio: 0.05},
		SPShariah: {MaxDebtToMarketCap: 0.33, MaxInterestBearingSecurities: 0.33, MaxHaramRevenueRatio: 0.05},
	},
	BatteryLegacy: {
		AAOIFI:    {MaxDebtToMarketCap: 0.33, MaxInterestIncomeRatio: 0.05, MaxReceivablesRatio: 0.49},
		DowJones:  {MaxDebtToMarketCap: 0.33, MaxInterestIncomeRatio: 0.05, MaxReceivablesRatio: 0.33},
		SPShariah: {MaxDebtToMarketCap: 0.33, MaxInterestIncomeRatio: 0.05, MaxReceivablesRatio: 0.49},
	},
}

// Config is an immutable, fully resolved standard selection.
type Config struct {
	Standard   Name       `json:"standard"`
	Battery    Battery    `json:"battery"`
	Thresholds Thresholds `json:"thresholds"`
}

// DisplayName is the standard's human name.
func (c Config) DisplayName() string { return c.Standard.DisplayName() }

// Methodology is the label stamped on every screening result.
func (c Config) Methodology() string {
	label := c.DisplayName()
	if !strings.Contains(label, "Shariah") {
		label += " Shariah"
	}
	label += " Standard"
	if c.Battery == BatteryLegacy {
		label += " (legacy ratios)"
	}
	return label
}

// Limit returns the threshold for key, failing for keys outside the battery.
func (c Config) Limit(key string) (float64, bool) {
	for _, k := range c.Battery.Keys() {
		if k == key {
			return c.Thresholds.Get(key)
		}
	}
	return 0, false
}

// Request is a standard-selection request as received from configuration,
// the HTTP API or a chat command.
type Request struct {
	Standard  Name               `json:"standard" yaml:"standard"`
	Battery   Battery            `json:"battery,omitempty" yaml:"battery,omitempty"`
	Overrides map[string]float64 `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// Config resolves the request via Select.
func (r Request) Config() (Config, error) {
	return Select(r.Standard, r.Battery, r.Overrides)
}

// Default returns the AAOIFI preset with the AAOIFI ratio battery.
func Default() Config {
	c, _ := Select(AAOIFI, BatteryAAOIFI, nil)
	return c
}

var validate = validator.New()

// Select resolves a standard, battery and optional threshold overrides into a
// Config. Every threshold of the resulting battery must lie in (0,1]; values
// outside that range are rejected, never clamped.
//
// Custom starts from the AAOIFI row of the chosen battery, so Custom without
// overrides resolves to the AAOIFI limits.
func Select(name Name, battery Battery, overrides map[string]float64) (Config, error) {
	if name == "" {
		name = AAOIFI
	}
	if battery == "" {
		battery = BatteryAAOIFI
	}
	rows, ok := presets[battery]
	if !ok {
		return Config{}, &model.ConfigError{Field: "battery", Value: string(battery), Reason: "unknown ratio battery"}
	}
	base := name
	if name == Custom {
		base = AAOIFI
	}
	thresholds, ok := rows[base]
	if !ok {
		return Config{}, &model.ConfigError{Field: "standard", Value: string(name), Reason: "unknown standard"}
	}

	allowed := make(map[string]bool, 3)
	for _, k := range battery.Keys() {
		allowed[k] = true
	}
	for key, v := range overrides {
		if !allowed[key] {
			if _, known := thresholds.Get(key); known {
				return Config{}, &model.ConfigError{Field: key, Value: v,
					Reason: fmt.Sprintf("not part of the %s ratio battery", battery)}
			}
			return Config{}, &model.ConfigError{Field: key, Value: v, Reason: "unknown threshold"}
		}
		thresholds.set(key, v)
	}

	for _, key := range battery.Keys() {
		v, _ := thresholds.Get(key)
		if err := validate.Var(v, "gt=0,lte=1"); err != nil {
			return Config{}, &model.ConfigError{Field: key, Value: v, Reason: "must be a fraction within (0,1]"}
		}
	}

	return Config{Standard: name, Battery: battery, Thresholds: thresholds}, nil
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "&", "and")
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
