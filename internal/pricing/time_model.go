package pricing

import "math"

const minCrewFactor = 0.5

// EstimateTime считает оплачиваемое время работы бригады размером crew.
func EstimateTime(in JobInput, cfg *Config, crew int) TimeBreakdown {
	return estimateTime(in.sanitize(), cfg, crew)
}

func estimateTime(j job, cfg *Config, crew int) TimeBreakdown {
	var t TimeBreakdown

	if standard := finite(cfg.StandardVolumeM3); standard > 0 {
		t.MinutesPerM3Load = finite(cfg.BaseLoadMinutes) / standard
		t.MinutesPerM3Unload = finite(cfg.BaseUnloadMinutes) / standard
	}
	t.MinutesPerM3Load = saturate(t.MinutesPerM3Load)
	t.MinutesPerM3Unload = saturate(t.MinutesPerM3Unload)
	t.LoadMinutes = saturate(j.volume * t.MinutesPerM3Load)
	t.UnloadMinutes = saturate(j.volume * t.MinutesPerM3Unload)
	t.FloorMinutes = saturate(j.volume * finite(cfg.MinutesPerFloorPerM3) * j.floorSum() * elevatorEffect(j, cfg))

	if cfg.Heavy80Enabled {
		t.HeavyMinutes += saturate(j.heavy80 * finite(cfg.Heavy80ExtraMinutes))
	}
	if cfg.Heavy150Enabled {
		t.HeavyMinutes += saturate(j.heavy150 * finite(cfg.Heavy150ExtraMinutes))
	}
	t.HeavyMinutes = saturate(t.HeavyMinutes)

	t.BaseMinutesTotal = saturate(t.LoadMinutes + t.UnloadMinutes + t.FloorMinutes + t.HeavyMinutes)
	t.CrewFactor = math.Max(finite(cfg.CrewFactors.Lookup(crew)), minCrewFactor)
	t.EffectiveMinutes = saturate(t.BaseMinutesTotal / t.CrewFactor)

	// В режиме оплаты за километры дорога тарифицируется отдельно.
	if cfg.TransportMode.TimeBased() {
		t.TransportMinutes = j.transportMinutes
	}
	t.WithTransport = saturate(t.EffectiveMinutes + t.TransportMinutes)

	// Буфер считается от уже ограниченных минут, поэтому разность всегда конечна.
	if cfg.BufferPercent.Valid {
		t.BufferPercent = cfg.BufferPercent
		t.FinalMinutes = saturate(t.WithTransport * (1 + cfg.BufferPercent.Value/100))
		t.BufferMinutes = t.FinalMinutes - t.WithTransport
	} else {
		t.BufferMinutes = saturate(finite(cfg.BufferMinutes))
		t.FinalMinutes = saturate(t.WithTransport + t.BufferMinutes)
	}

	t.LaborHours = t.FinalMinutes / 60
	return t
}
