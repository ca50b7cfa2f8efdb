package pricing

// Engine считает расчёты поверх базовой конфигурации. Безопасен для конкурентного использования.
type Engine struct {
	defaults *Config
}

// NewEngine создаёт движок. defaults используется только для чтения; nil означает встроенные значения.
func NewEngine(defaults *Config) *Engine {
	if defaults == nil {
		defaults = &defaultConfig
	}
	return &Engine{defaults: defaults}
}

// Defaults возвращает копию базовой конфигурации движка.
func (e *Engine) Defaults() Config {
	return e.defaults.clone()
}

// Compute нормализует конфигурацию и выполняет все этапы расчёта.
// Не возвращает ошибок: некорректные числа приводятся к нулю или значениям по умолчанию.
func (e *Engine) Compute(in JobInput, partial *PartialConfig) PriceBreakdown {
	cfg := NormalizeWith(e.defaults, partial)
	return compute(in.sanitize(), &cfg)
}

// ComputeQuote считает расчёт поверх встроенной конфигурации по умолчанию.
func ComputeQuote(in JobInput, partial *PartialConfig) PriceBreakdown {
	cfg := Normalize(partial)
	return compute(in.sanitize(), &cfg)
}

func compute(j job, cfg *Config) PriceBreakdown {
	staffing := estimateCrew(j, cfg)
	t := estimateTime(j, cfg, staffing.Crew)
	prices := calculatePrices(j, cfg, staffing.Crew, t)

	lines, feesTotal := ApplyFees(cfg.Fees, j.selection, prices.Labor+prices.Transport+prices.Heavy)
	prices = Finalize(prices, feesTotal, cfg.VATRate)

	return PriceBreakdown{
		VolumeM3: j.volume,
		Crew:     staffing.Crew,
		Staffing: staffing,
		Time:     t,
		Price:    prices,
		Fees:     lines,
		Mode:     modeInfo(cfg, j.selection),
	}
}

func modeInfo(cfg *Config, selection Selection) ModeInfo {
	info := ModeInfo{
		TransportMode: cfg.TransportMode,
		BufferPolicy:  "minutes",
		RatePolicy:    "total",
		FeePolicy:     "auto",
		VATRate:       finite(cfg.VATRate),
	}
	if cfg.BufferPercent.Valid {
		info.BufferPolicy = "percent"
	}
	if cfg.HourlyRatePerEmployee.Valid {
		info.RatePolicy = "per_employee"
	}
	if len(selection) > 0 {
		info.FeePolicy = "selection"
	}
	return info
}
