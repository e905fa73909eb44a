package tariff

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceFlatTariff(t *testing.T) {
	tr := Default()

	got := tr.Price(decimal.NewFromInt(10))
	if !got.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("price = %s, want 1500", got)
	}
}

func TestPriceTieredTariff(t *testing.T) {
	tr := Tariff{
		Currency:       "KES",
		StandingCharge: 200,
		Tiers: []Tier{
			{UpTo: 6, Rate: 50},
			{UpTo: 20, Rate: 100},
			{UpTo: 0, Rate: 150},
		},
	}

	// 25 m3: 6*50 + 14*100 + 5*150 + 200 standing = 2650
	got := tr.Price(decimal.NewFromInt(25))
	if !got.Equal(decimal.NewFromInt(2650)) {
		t.Fatalf("price = %s, want 2650", got)
	}
}

func TestPriceZeroVolumePaysStandingChargeOnly(t *testing.T) {
	tr := Tariff{StandingCharge: 100, Tiers: []Tier{{UpTo: 0, Rate: 150}}}

	got := tr.Price(decimal.Zero)
	if !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("price = %s, want 100", got)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tariff.yaml")
	content := []byte("currency: KES\nstanding_charge: 50\ntiers:\n  - up_to: 10\n    rate: 80\n  - up_to: 0\n    rate: 120\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write tariff: %v", err)
	}

	tr, err := Load(path)
	if err != nil {
		t.Fatalf("load tariff: %v", err)
	}
	if tr.StandingCharge != 50 || len(tr.Tiers) != 2 {
		t.Fatalf("unexpected tariff: %+v", tr)
	}

	// 15 m3: 10*80 + 5*120 + 50 standing = 1450
	got := tr.Price(decimal.NewFromInt(15))
	if !got.Equal(decimal.NewFromInt(1450)) {
		t.Fatalf("price = %s, want 1450", got)
	}
}

func TestLoadMissingPathFallsBackToDefault(t *testing.T) {
	t.Setenv("WATER_TARIFF_CONFIG", "")

	tr, err := Load("")
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if len(tr.Tiers) != 1 || tr.Tiers[0].Rate != 150 {
		t.Fatalf("unexpected default tariff: %+v", tr)
	}
}
