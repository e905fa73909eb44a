package tariff

import (
	"errors"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Tier prices consumption up to an upper bound in cubic meters. A zero
// UpTo marks the open-ended top tier.
type Tier struct {
	UpTo float64 `yaml:"up_to"`
	Rate float64 `yaml:"rate"`
}

// Tariff is the water pricing schedule applied during a billing run.
type Tariff struct {
	Currency       string  `yaml:"currency"`
	StandingCharge float64 `yaml:"standing_charge"`
	Tiers          []Tier  `yaml:"tiers"`
}

// Load reads a tariff from yaml. With an empty path it falls back to
// the WATER_TARIFF_CONFIG env var, then to the default flat tariff.
func Load(path string) (Tariff, error) {
	t := Default()
	if path == "" {
		path = os.Getenv("WATER_TARIFF_CONFIG")
	}
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, err
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// Default is a single flat tier at 150 per cubic meter.
func Default() Tariff {
	return Tariff{
		Currency: "KES",
		Tiers:    []Tier{{UpTo: 0, Rate: 150}},
	}
}

func (t Tariff) Validate() error {
	if len(t.Tiers) == 0 {
		return errors.New("tariff: at least one tier required")
	}
	for _, tier := range t.Tiers {
		if tier.Rate < 0 || tier.UpTo < 0 {
			return errors.New("tariff: negative tier values")
		}
	}
	return nil
}

// Price computes the charge for the consumed volume across tiers plus
// the standing charge. Volumes at or below zero pay the standing
// charge only.
func (t Tariff) Price(volume decimal.Decimal) decimal.Decimal {
	total := decimal.NewFromFloat(t.StandingCharge)
	if !volume.IsPositive() {
		return total
	}

	tiers := make([]Tier, len(t.Tiers))
	copy(tiers, t.Tiers)
	sort.SliceStable(tiers, func(i, j int) bool {
		if tiers[i].UpTo == 0 {
			return false
		}
		if tiers[j].UpTo == 0 {
			return true
		}
		return tiers[i].UpTo < tiers[j].UpTo
	})

	remaining := volume
	prevBound := decimal.Zero
	for _, tier := range tiers {
		if !remaining.IsPositive() {
			break
		}
		rate := decimal.NewFromFloat(tier.Rate)
		if tier.UpTo == 0 {
			total = total.Add(remaining.Mul(rate))
			remaining = decimal.Zero
			break
		}
		bound := decimal.NewFromFloat(tier.UpTo)
		width := bound.Sub(prevBound)
		if width.IsNegative() {
			continue
		}
		slice := remaining
		if slice.GreaterThan(width) {
			slice = width
		}
		total = total.Add(slice.Mul(rate))
		remaining = remaining.Sub(slice)
		prevBound = bound
	}
	return total
}
