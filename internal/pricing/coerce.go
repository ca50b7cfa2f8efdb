package pricing

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Все входные значения движка проходят через функции этого файла.
// Декодирование никогда не возвращает ошибку: некорректное значение становится нулём
// (или "не задано" для OptionalNumber), чтобы расчёт не прерывался на середине.

// finite заменяет NaN и ±Inf нулём.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// nonNegative приводит значение к конечному неотрицательному числу.
func nonNegative(v float64) float64 {
	v = finite(v)
	if v < 0 {
		return 0
	}
	return v
}

// maxMagnitude — предел для входных величин и промежуточных сумм.
// Суммы нескольких таких значений остаются точными целыми в float64.
const maxMagnitude = 1e12

// saturate делает результат этапа конечным: NaN -> 0, переполнение -> ±maxMagnitude.
func saturate(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > maxMagnitude:
		return maxMagnitude
	case v < -maxMagnitude:
		return -maxMagnitude
	}
	return v
}

// bounded приводит входное значение к диапазону [0, maxMagnitude].
func bounded(v float64) float64 {
	return math.Min(nonNegative(v), maxMagnitude)
}

// looseFloat разбирает JSON-значение: число или числовую строку. ok=false для всего остального.
func looseFloat(data []byte) (float64, bool) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Number — число с разрешающим JSON-декодированием: всё нечисловое превращается в 0.
type Number float64

// UnmarshalJSON реализует json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	v, _ := looseFloat(data)
	*n = Number(v)
	return nil
}

// Float возвращает конечное значение.
func (n Number) Float() float64 {
	return finite(float64(n))
}

// OptionalNumber — число, которое может быть не задано.
// Задано только конечное число или непустая числовая строка.
type OptionalNumber struct {
	Value float64
	Valid bool
}

// Some создаёт заданное значение. NaN и ±Inf считаются незаданными.
func Some(v float64) OptionalNumber {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return OptionalNumber{}
	}
	return OptionalNumber{Value: v, Valid: true}
}

// UnmarshalJSON реализует json.Unmarshaler.
func (o *OptionalNumber) UnmarshalJSON(data []byte) error {
	v, ok := looseFloat(data)
	*o = OptionalNumber{Value: v, Valid: ok}
	return nil
}

// MarshalJSON реализует json.Marshaler.
func (o OptionalNumber) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Flag — bool с разрешающим декодированием: true, ненулевое число, "true"/"1"/"yes"/"on".
type Flag bool

// UnmarshalJSON реализует json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		*f = false
		return nil
	}
	switch v := raw.(type) {
	case bool:
		*f = Flag(v)
	case float64:
		*f = v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			*f = true
		default:
			*f = false
		}
	default:
		*f = false
	}
	return nil
}

// Selection — явный выбор сборов клиентом: имя сбора -> выбран.
// Не-объект в JSON даёт пустой выбор.
type Selection map[string]bool

// UnmarshalJSON реализует json.Unmarshaler.
func (s *Selection) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*s = nil
		return nil
	}
	out := make(Selection, len(raw))
	for name, value := range raw {
		var f Flag
		_ = f.UnmarshalJSON(value)
		out[name] = bool(f)
	}
	*s = out
	return nil
}

func isJSONArray(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// roundCurrency округляет до целой денежной единицы, половины — вверх.
func roundCurrency(v float64) float64 {
	return math.Floor(finite(v) + 0.5)
}
