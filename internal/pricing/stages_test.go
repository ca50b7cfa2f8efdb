package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCrew(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name      string
		input     JobInput
		mutate    func(*Config)
		wantCrew  int
		wantFloor bool
		wantHeavy bool
	}{
		{name: "minimum crew", input: JobInput{VolumeM3: 3}, wantCrew: 2},
		{name: "volume driven", input: JobInput{VolumeM3: 37}, wantCrew: 4},
		{name: "floors add a mover", input: JobInput{VolumeM3: 10, FromFloor: 3, ToFloor: 3}, wantCrew: 3, wantFloor: true},
		{name: "elevator halves floors", input: JobInput{VolumeM3: 10, FromFloor: 3, ToFloor: 3, ToElevator: true}, wantCrew: 2},
		{name: "heavy items raise minimum", input: JobInput{VolumeM3: 5, Heavy150Count: 1}, wantCrew: 3, wantHeavy: true},
		{
			name:     "heavy minimum disabled",
			input:    JobInput{VolumeM3: 5, Heavy150Count: 1},
			mutate:   func(c *Config) { c.Heavy150EnforceMinEmployees = false },
			wantCrew: 2,
		},
		{
			name:     "override above cap",
			input:    JobInput{VolumeM3: 5, Heavy150Count: 1},
			mutate:   func(c *Config) { c.Heavy150MinEmployeesOverride = 12 },
			wantCrew: 8, wantHeavy: true,
		},
		{
			name:     "zero capacity per mover",
			input:    JobInput{VolumeM3: 50},
			mutate:   func(c *Config) { c.MaxM3PerEmployee = 0; c.BaseMinEmployees = 0 },
			wantCrew: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg.clone()
			if tt.mutate != nil {
				tt.mutate(&c)
			}
			got := EstimateCrew(tt.input, &c)
			assert.Equal(t, tt.wantCrew, got.Crew)
			assert.Equal(t, tt.wantFloor, got.ExtraForFloors)
			assert.Equal(t, tt.wantHeavy, got.HeavyMinimum)
		})
	}
}

func TestFactorTable_Lookup(t *testing.T) {
	table := FactorTable{2: 1.0, 3: 1.25, 5: 1.7}
	assert.Equal(t, 1.25, table.Lookup(3))
	assert.Equal(t, 1.7, table.Lookup(4))
	assert.Equal(t, 1.7, table.Lookup(8))
	assert.Equal(t, 1.7, table.Lookup(1))
	assert.Equal(t, 1.0, FactorTable{}.Lookup(3))
}

func TestEstimateTime_CrewFactorFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CrewFactors = FactorTable{2: 0.1}

	got := EstimateTime(JobInput{VolumeM3: 25}, &cfg, 2)
	assert.Equal(t, 0.5, got.CrewFactor)
	assert.InDelta(t, 540, got.EffectiveMinutes, 1e-9)
}

func TestEstimateTime_FloorsAndHeavyItems(t *testing.T) {
	cfg := DefaultConfig()

	got := EstimateTime(JobInput{VolumeM3: 10, FromFloor: 2, ToFloor: 1, FromElevator: true, Heavy80Count: 2, Heavy150Count: 1}, &cfg, 2)
	assert.InDelta(t, 10*1*3*0.5, got.FloorMinutes, 1e-9)
	assert.InDelta(t, 2*15+30, got.HeavyMinutes, 1e-9)

	cfg.Heavy80Enabled = false
	got = EstimateTime(JobInput{VolumeM3: 10, Heavy80Count: 2, Heavy150Count: 1}, &cfg, 2)
	assert.InDelta(t, 30, got.HeavyMinutes, 1e-9)
}

func TestCalculatePrices_RatePolicies(t *testing.T) {
	cfg := DefaultConfig()
	tb := TimeBreakdown{LaborHours: 4}

	got := CalculatePrices(JobInput{}, &cfg, 3, tb)
	assert.Equal(t, 2600.0, got.Labor)

	cfg.HourlyRatePerEmployee = Some(300)
	got = CalculatePrices(JobInput{}, &cfg, 3, tb)
	assert.Equal(t, 3600.0, got.Labor)
}

func TestCalculatePrices_HeavyFeesAreGated(t *testing.T) {
	cfg := DefaultConfig()
	in := JobInput{Heavy80Count: 2, Heavy150Count: 1}

	got := CalculatePrices(in, &cfg, 2, TimeBreakdown{})
	assert.Equal(t, 2*300.0+700, got.Heavy)

	cfg.Heavy150Enabled = false
	got = CalculatePrices(in, &cfg, 2, TimeBreakdown{})
	assert.Equal(t, 600.0, got.Heavy)
}

func TestApplyFees(t *testing.T) {
	fees := []Fee{
		{Name: "auto", Enabled: true, Type: FeeTypeFixed, Value: 100, AutoApply: true},
		{Name: "default", Enabled: true, Type: FeeTypePercent, Value: 10, DefaultSelected: true},
		{Name: "required", Enabled: true, Type: FeeTypePercent, Value: 2.5, Required: true},
		{Name: "optional", Enabled: true, Type: FeeTypeFixed, Value: 999},
		{Name: "disabled", Enabled: false, Type: FeeTypeFixed, Value: 50, AutoApply: true},
	}

	lines, total := ApplyFees(fees, nil, 1005)
	assert.Len(t, lines, 3)
	// 10% of 1005 = 100.5 -> 101; 2.5% of 1005 = 25.125 -> 25
	assert.Equal(t, 101.0, lines[1].Amount)
	assert.Equal(t, 25.0, lines[2].Amount)
	assert.Equal(t, 226.0, total)

	lines, total = ApplyFees(fees, Selection{"optional": true, "disabled": true, "auto": false}, 1005)
	assert.Len(t, lines, 1)
	assert.Equal(t, "optional", lines[0].Name)
	assert.Equal(t, 999.0, total)

	lines, total = ApplyFees(fees, Selection{"auto": false}, 1005)
	assert.Empty(t, lines)
	assert.Equal(t, 0.0, total)
}

func TestFinalize_PerLineRoundingDrift(t *testing.T) {
	fees := []Fee{
		{Name: "a", Enabled: true, Type: FeeTypePercent, Value: 0.5, AutoApply: true},
		{Name: "b", Enabled: true, Type: FeeTypePercent, Value: 0.5, AutoApply: true},
	}
	base := 100.0 // each line is 0.5 -> rounds to 1

	_, total := ApplyFees(fees, nil, base)
	got := Finalize(PriceParts{Labor: base}, total, 0.25)
	assert.Equal(t, 102.0, got.Subtotal)
	assert.Equal(t, 26.0, got.VAT)
	assert.Equal(t, 128.0, got.Total)
}
