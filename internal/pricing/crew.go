package pricing

import "math"

const (
	minCrew = 1
	maxCrew = 8
)

// EstimateCrew считает размер бригады по объёму, этажам и тяжёлым предметам.
// Результат всегда в диапазоне [1, 8].
func EstimateCrew(in JobInput, cfg *Config) CrewEstimate {
	return estimateCrew(in.sanitize(), cfg)
}

func estimateCrew(j job, cfg *Config) CrewEstimate {
	var est CrewEstimate

	byVolume := 0.0
	if perEmployee := finite(cfg.MaxM3PerEmployee); perEmployee > 0 {
		byVolume = math.Ceil(j.volume / perEmployee)
	}
	est.ByVolume = int(clamp(byVolume, 0, math.MaxInt32))

	crew := math.Max(finite(cfg.BaseMinEmployees), byVolume)

	est.FloorSum = j.floorSum()
	est.ElevatorEffect = elevatorEffect(j, cfg)
	if est.FloorSum*est.ElevatorEffect >= finite(cfg.FloorThresholdForExtraEmployee) {
		crew++
		est.ExtraForFloors = true
	}

	if j.heavy150 > 0 && cfg.Heavy150EnforceMinEmployees {
		if override := finite(cfg.Heavy150MinEmployeesOverride); override > crew {
			crew = override
			est.HeavyMinimum = true
		}
	}

	est.Crew = int(clamp(math.Floor(crew), minCrew, maxCrew))
	return est
}

// elevatorEffect — множитель этажей: elevator_multiplier при лифте хотя бы на одном адресе.
func elevatorEffect(j job, cfg *Config) float64 {
	if j.elevator {
		return finite(cfg.ElevatorMultiplier)
	}
	return 1.0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
