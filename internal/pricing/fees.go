package pricing

// ApplyFees выбирает и считает сборы.
//
// Если selection непустой, применяются только включённые сборы, отмеченные в нём true,
// флаги auto_apply/default_selected/required игнорируются. Без выбора сбор применяется,
// когда он включён и помечен auto_apply, default_selected или required.
// Процентные сборы считаются от base и друг на друга не начисляются.
// Каждая строка округляется отдельно.
func ApplyFees(fees []Fee, selection Selection, base float64) ([]FeeLine, float64) {
	lines := make([]FeeLine, 0, len(fees))
	total := 0.0
	for _, fee := range fees {
		if !feeApplies(fee, selection) {
			continue
		}
		amount := roundCurrency(feeAmount(fee, base))
		lines = append(lines, FeeLine{
			Name:   fee.Name,
			Type:   fee.Type,
			Value:  finite(fee.Value),
			Amount: amount,
		})
		total += amount
	}
	return lines, total
}

func feeApplies(fee Fee, selection Selection) bool {
	if !fee.Enabled {
		return false
	}
	if len(selection) > 0 {
		return selection[fee.Name]
	}
	return fee.AutoApply || fee.DefaultSelected || fee.Required
}

func feeAmount(fee Fee, base float64) float64 {
	if fee.Type == FeeTypePercent {
		return saturate(base * finite(fee.Value) / 100)
	}
	return saturate(finite(fee.Value))
}

// Finalize добавляет сборы, промежуточный итог, НДС и итог.
func Finalize(p PriceParts, feesTotal, vatRate float64) PriceParts {
	p.Fees = feesTotal
	p.Subtotal = roundCurrency(p.Labor + p.Transport + p.Heavy + feesTotal)
	p.VAT = roundCurrency(saturate(p.Subtotal * finite(vatRate)))
	p.Total = p.Subtotal + p.VAT
	return p
}
