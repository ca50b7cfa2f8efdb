package pricing

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeQuote_ScenarioDefaults(t *testing.T) {
	q := ComputeQuote(JobInput{VolumeM3: 25, TransportMinutes: 60}, nil)

	assert.Equal(t, 3, q.Staffing.ByVolume)
	assert.Equal(t, 3, q.Crew)
	assert.InDelta(t, 150, q.Time.LoadMinutes, 1e-9)
	assert.InDelta(t, 120, q.Time.UnloadMinutes, 1e-9)
	assert.InDelta(t, 270, q.Time.BaseMinutesTotal, 1e-9)
	assert.Equal(t, 1.25, q.Time.CrewFactor)
	assert.InDelta(t, 216, q.Time.EffectiveMinutes, 1e-9)
	assert.InDelta(t, 306, q.Time.FinalMinutes, 1e-9)
	assert.InDelta(t, 5.1, q.Time.LaborHours, 1e-9)
	assert.InDelta(t, 3315, q.Price.Labor, 1e-6)
	assert.Equal(t, 0.0, q.Price.Transport)
	assert.Equal(t, 0.0, q.Price.Heavy)
	assert.Equal(t, 3315.0, q.Price.Subtotal)
	assert.Equal(t, 829.0, q.Price.VAT)
	assert.Equal(t, 4144.0, q.Price.Total)
	assert.Empty(t, q.Fees)
	assert.Equal(t, "minutes", q.Mode.BufferPolicy)
	assert.Equal(t, "total", q.Mode.RatePolicy)
}

func TestComputeQuote_LargeVolumeClampsCrew(t *testing.T) {
	q := ComputeQuote(JobInput{VolumeM3: 200}, nil)
	assert.Equal(t, 17, q.Staffing.ByVolume)
	assert.Equal(t, 8, q.Crew)
}

func TestComputeQuote_SelectionSuppressesAutoApply(t *testing.T) {
	partial := &PartialConfig{Fees: FeeList{
		{Name: "X", Enabled: true, Type: FeeTypeFixed, Value: 500, AutoApply: true},
		{Name: "Y", Enabled: true, Type: FeeTypeFixed, Value: 200},
	}}

	q := ComputeQuote(JobInput{VolumeM3: 10, FeeSelection: Selection{"Y": true}}, partial)
	require.Len(t, q.Fees, 1)
	assert.Equal(t, "Y", q.Fees[0].Name)
	assert.Equal(t, 200.0, q.Price.Fees)
	assert.Equal(t, "selection", q.Mode.FeePolicy)

	auto := ComputeQuote(JobInput{VolumeM3: 10}, partial)
	require.Len(t, auto.Fees, 1)
	assert.Equal(t, "X", auto.Fees[0].Name)
}

func TestComputeQuote_Reconciles(t *testing.T) {
	jobs := []JobInput{
		{VolumeM3: 0},
		{VolumeM3: 7.3, FromFloor: 3, ToFloor: 4, Heavy80Count: 2, TransportMinutes: 47},
		{VolumeM3: 41, FromFloor: 9, FromElevator: true, Heavy150Count: 1, KmRoundtrip: 88.4},
		{VolumeM3: 63.7, ToFloor: 2, Heavy80Count: 1, Heavy150Count: 2, TransportMinutes: 125,
			FeeSelection: Selection{"packing_service": true, "weekend_surcharge": true, "insurance": true}},
	}
	percent := Some(12.5)
	km := TransportPricePerKm
	partials := []*PartialConfig{
		nil,
		{BufferPercent: &percent},
		{TransportMode: &km, HourlyRatePerEmployee: &OptionalNumber{Value: 310, Valid: true}},
	}

	for _, in := range jobs {
		for _, partial := range partials {
			q := ComputeQuote(in, partial)

			assert.Equal(t, q.Price.Subtotal+q.Price.VAT, q.Price.Total)

			lineSum := 0.0
			for _, line := range q.Fees {
				lineSum += line.Amount
			}
			assert.Equal(t, lineSum, q.Price.Fees)
			assert.Equal(t, math.Floor(q.Price.Labor+q.Price.Transport+q.Price.Heavy+lineSum+0.5), q.Price.Subtotal)

			assert.GreaterOrEqual(t, q.Crew, 1)
			assert.LessOrEqual(t, q.Crew, 8)
		}
	}
}

func TestComputeQuote_CrewAlwaysInRange(t *testing.T) {
	for _, v := range []float64{0, 0.1, 1, 12, 13, 95, 96, 97, 1e6, 1e300} {
		for _, floors := range []float64{0, 3, 20} {
			q := ComputeQuote(JobInput{VolumeM3: Number(v), FromFloor: Number(floors), Heavy150Count: 1}, nil)
			assert.GreaterOrEqual(t, q.Crew, 1, "volume %v", v)
			assert.LessOrEqual(t, q.Crew, 8, "volume %v", v)
		}
	}
}

func TestComputeQuote_BufferPercentOverridesMinutes(t *testing.T) {
	docs := []string{
		`{"buffer_minutes": 45, "buffer_percent": 10}`,
		`{"buffer_percent": 10, "buffer_minutes": 45}`,
	}
	for _, doc := range docs {
		var partial PartialConfig
		require.NoError(t, json.Unmarshal([]byte(doc), &partial))

		q := ComputeQuote(JobInput{VolumeM3: 25, TransportMinutes: 60}, &partial)
		assert.InDelta(t, 276*1.1, q.Time.FinalMinutes, 1e-9)
		assert.Equal(t, "percent", q.Mode.BufferPolicy)
	}

	zero := Some(0)
	q := ComputeQuote(JobInput{VolumeM3: 25, TransportMinutes: 60}, &PartialConfig{BufferPercent: &zero})
	assert.InDelta(t, 276, q.Time.FinalMinutes, 1e-9)
}

func TestComputeQuote_PerKmModeIgnoresTransportMinutes(t *testing.T) {
	km := TransportPricePerKm
	partial := &PartialConfig{TransportMode: &km}

	short := ComputeQuote(JobInput{VolumeM3: 18, TransportMinutes: 5, KmRoundtrip: 63.3}, partial)
	long := ComputeQuote(JobInput{VolumeM3: 18, TransportMinutes: 500, KmRoundtrip: 63.3}, partial)

	assert.Equal(t, short.Time.FinalMinutes, long.Time.FinalMinutes)
	assert.Equal(t, 0.0, short.Time.TransportMinutes)
	assert.Equal(t, 63.3*15, short.Price.Transport)
}

func TestComputeQuote_TimeModesExcludeKmPrice(t *testing.T) {
	for _, mode := range []TransportMode{TransportTimeFromDeparture, TransportTimeFromArrival} {
		m := mode
		q := ComputeQuote(JobInput{VolumeM3: 10, TransportMinutes: 30, KmRoundtrip: 120}, &PartialConfig{TransportMode: &m})
		assert.Equal(t, 0.0, q.Price.Transport)
		assert.Equal(t, 30.0, q.Time.TransportMinutes)
	}
}

func TestComputeQuote_Idempotent(t *testing.T) {
	var partial PartialConfig
	require.NoError(t, json.Unmarshal([]byte(`{
		"crew_factor_table": {"6": 1.9},
		"buffer_percent": 7.5,
		"fees": [{"name": "a", "type": "percent", "value": 3.3, "auto_apply": true}]
	}`), &partial))
	in := JobInput{VolumeM3: 77.7, FromFloor: 2, ToFloor: 5, ToElevator: true, Heavy80Count: 3, TransportMinutes: 42}

	first := ComputeQuote(in, &partial)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeQuote(in, &partial))
	}
}

func TestComputeQuote_MalformedInputNeverFails(t *testing.T) {
	var in JobInput
	require.NoError(t, json.Unmarshal([]byte(`{
		"volume_m3": "abc",
		"from_floor": "3",
		"to_floor": -4,
		"from_elevator": "yes",
		"heavy_80_count": null,
		"heavy_150_count": {"x": 1},
		"transport_minutes": [1, 2],
		"fee_selection": "everything"
	}`), &in))

	var partial PartialConfig
	require.NoError(t, json.Unmarshal([]byte(`{
		"hourly_rate_total": "lots",
		"max_m3_per_employee": "12",
		"fees": "none",
		"crew_factor_table": [1, 2]
	}`), &partial))

	q := ComputeQuote(in, &partial)
	assert.Equal(t, 0.0, q.VolumeM3)
	assert.Equal(t, 0.0, q.Price.Labor)
	assert.Equal(t, 0.0, q.Price.Total)
	assert.Equal(t, 3.0, q.Staffing.FloorSum)
	assert.Equal(t, 2, q.Crew)
}

func TestEngine_UsesInjectedDefaults(t *testing.T) {
	base := DefaultConfig()
	base.HourlyRateTotal = 1000
	base.VATRate = 0

	q := NewEngine(&base).Compute(JobInput{VolumeM3: 25, TransportMinutes: 60}, nil)
	assert.Equal(t, 5100.0, q.Price.Subtotal)
	assert.Equal(t, 5100.0, q.Price.Total)
	assert.Equal(t, 650.0, Defaults().HourlyRateTotal)
}

func TestComputeQuote_HugeInputsStayFinite(t *testing.T) {
	percent := Some(10)
	hugeRate := Number(1e308)
	cases := []struct {
		name    string
		in      JobInput
		partial *PartialConfig
	}{
		{"volume and floors", JobInput{VolumeM3: 1e200, FromFloor: 1e200}, nil},
		{"max float volume with percent buffer", JobInput{VolumeM3: 1e308}, &PartialConfig{BufferPercent: &percent}},
		{"huge rate and transport", JobInput{VolumeM3: 30, TransportMinutes: 1e300, KmRoundtrip: 1e300}, &PartialConfig{HourlyRateTotal: &hugeRate}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := ComputeQuote(tc.in, tc.partial)

			for name, v := range map[string]float64{
				"volume":         q.VolumeM3,
				"base_minutes":   q.Time.BaseMinutesTotal,
				"with_transport": q.Time.WithTransport,
				"buffer_minutes": q.Time.BufferMinutes,
				"final_minutes":  q.Time.FinalMinutes,
				"labor_hours":    q.Time.LaborHours,
				"labor":          q.Price.Labor,
				"transport":      q.Price.Transport,
				"heavy":          q.Price.Heavy,
				"subtotal":       q.Price.Subtotal,
				"vat":            q.Price.VAT,
				"total":          q.Price.Total,
			} {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s = %v", name, v)
			}
			assert.Greater(t, q.Price.Subtotal, 0.0)

			lineSum := 0.0
			for _, line := range q.Fees {
				lineSum += line.Amount
			}
			assert.Equal(t, math.Floor(q.Price.Labor+q.Price.Transport+q.Price.Heavy+lineSum+0.5), q.Price.Subtotal)
			assert.Equal(t, q.Price.Subtotal+q.Price.VAT, q.Price.Total)

			_, err := json.Marshal(q)
			require.NoError(t, err)
		})
	}
}

func TestComputeQuote_TransportModeIsCaseInsensitive(t *testing.T) {
	var partial PartialConfig
	require.NoError(t, json.Unmarshal([]byte(`{"transport_mode": "PRICE_PER_KM_ROUNDTRIP"}`), &partial))

	q := ComputeQuote(JobInput{VolumeM3: 10, TransportMinutes: 90, KmRoundtrip: 40}, &partial)
	assert.Equal(t, TransportPricePerKm, q.Mode.TransportMode)
	assert.Zero(t, q.Time.TransportMinutes)
	assert.Greater(t, q.Price.Transport, 0.0)
}

func TestComputeQuote_UnknownTransportModeReportsEffectiveMode(t *testing.T) {
	for _, raw := range []string{`{"transport_mode": "teleport"}`, `{"transport_mode": 5}`, `{"transport_mode": ""}`} {
		var partial PartialConfig
		require.NoError(t, json.Unmarshal([]byte(raw), &partial))

		q := ComputeQuote(JobInput{VolumeM3: 10, TransportMinutes: 90}, &partial)
		assert.Equal(t, TransportTimeFromDeparture, q.Mode.TransportMode, raw)
		assert.Equal(t, 90.0, q.Time.TransportMinutes, raw)
	}

	km := TransportPricePerKm
	base := NormalizeWith(Defaults(), &PartialConfig{TransportMode: &km})
	unknown := TransportMode("teleport")
	cfg := NormalizeWith(&base, &PartialConfig{TransportMode: &unknown})
	assert.Equal(t, TransportPricePerKm, cfg.TransportMode)

	broken := Config{TransportMode: "teleport"}
	assert.Equal(t, TransportTimeFromDeparture, NormalizeWith(&broken, nil).TransportMode)
}
