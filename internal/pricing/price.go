package pricing

// CalculatePrices считает стоимость работы, дороги и тяжёлых предметов (без сборов и НДС).
func CalculatePrices(in JobInput, cfg *Config, crew int, t TimeBreakdown) PriceParts {
	return calculatePrices(in.sanitize(), cfg, crew, t)
}

func calculatePrices(j job, cfg *Config, crew int, t TimeBreakdown) PriceParts {
	var p PriceParts

	if cfg.HourlyRatePerEmployee.Valid {
		p.Labor = t.LaborHours * cfg.HourlyRatePerEmployee.Value * float64(crew)
	} else {
		p.Labor = t.LaborHours * finite(cfg.HourlyRateTotal)
	}

	if !cfg.TransportMode.TimeBased() {
		p.Transport = j.kmRoundtrip * finite(cfg.PricePerKm)
	}

	if cfg.Heavy80Enabled {
		p.Heavy += saturate(j.heavy80 * finite(cfg.Heavy80FeePerItem))
	}
	if cfg.Heavy150Enabled {
		p.Heavy += saturate(j.heavy150 * finite(cfg.Heavy150FeePerItem))
	}

	p.Labor = saturate(p.Labor)
	p.Transport = saturate(p.Transport)
	p.Heavy = saturate(p.Heavy)
	return p
}
