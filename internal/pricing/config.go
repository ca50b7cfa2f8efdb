package pricing

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// TransportMode определяет, как тарифицируется дорога.
type TransportMode string

const (
	TransportTimeFromDeparture TransportMode = "time_from_departure"
	TransportTimeFromArrival   TransportMode = "time_from_arrival"
	TransportPricePerKm        TransportMode = "price_per_km_roundtrip"
)

// Known сообщает, что режим — один из поддерживаемых.
func (m TransportMode) Known() bool {
	switch m {
	case TransportTimeFromDeparture, TransportTimeFromArrival, TransportPricePerKm:
		return true
	}
	return false
}

// Effective возвращает режим, по которому реально идёт расчёт.
// Неизвестное значение считается повременным от выезда.
func (m TransportMode) Effective() TransportMode {
	if m.Known() {
		return m
	}
	return TransportTimeFromDeparture
}

// TimeBased сообщает, входит ли время в пути в оплачиваемые минуты.
func (m TransportMode) TimeBased() bool {
	return m.Effective() != TransportPricePerKm
}

// UnmarshalJSON принимает строку без учёта регистра; остальное даёт пустой режим.
func (m *TransportMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*m = ""
		return nil
	}
	*m = TransportMode(strings.ToLower(strings.TrimSpace(s)))
	return nil
}

// FeeType — способ расчёта сбора.
type FeeType string

const (
	FeeTypeFixed   FeeType = "fixed"
	FeeTypePercent FeeType = "percent"
)

// Fee описывает именованный сбор из конфигурации.
type Fee struct {
	Name            string  `json:"name"`
	Enabled         bool    `json:"enabled"`
	Type            FeeType `json:"type"`
	Value           float64 `json:"value"`
	AutoApply       bool    `json:"auto_apply"`
	DefaultSelected bool    `json:"default_selected"`
	Required        bool    `json:"required"`
}

// UnmarshalJSON декодирует сбор без ошибок. Отсутствующий enabled означает включённый сбор.
func (f *Fee) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name            json.RawMessage `json:"name"`
		Enabled         *Flag           `json:"enabled"`
		Type            json.RawMessage `json:"type"`
		Value           Number          `json:"value"`
		AutoApply       Flag            `json:"auto_apply"`
		DefaultSelected Flag            `json:"default_selected"`
		Required        Flag            `json:"required"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		*f = Fee{}
		return nil
	}

	var name, feeType string
	_ = json.Unmarshal(raw.Name, &name)
	_ = json.Unmarshal(raw.Type, &feeType)

	*f = Fee{
		Name:            name,
		Enabled:         raw.Enabled == nil || bool(*raw.Enabled),
		Type:            FeeType(strings.ToLower(strings.TrimSpace(feeType))),
		Value:           raw.Value.Float(),
		AutoApply:       bool(raw.AutoApply),
		DefaultSelected: bool(raw.DefaultSelected),
		Required:        bool(raw.Required),
	}
	return nil
}

// FeeList — список сборов в частичной конфигурации.
// nil означает "не передан"; пустой непустой-nil список явно отключает все сборы.
type FeeList []Fee

// UnmarshalJSON принимает только массив, иначе список считается непереданным.
func (l *FeeList) UnmarshalJSON(data []byte) error {
	if !isJSONArray(data) {
		*l = nil
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		*l = nil
		return nil
	}
	out := make(FeeList, 0, len(items))
	for _, item := range items {
		var fee Fee
		_ = fee.UnmarshalJSON(item)
		out = append(out, fee)
	}
	*l = out
	return nil
}

// FactorTable — коэффициент производительности по размеру бригады.
type FactorTable map[int]float64

// UnmarshalJSON принимает объект с целочисленными ключами; прочие ключи пропускаются.
func (t *FactorTable) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*t = nil
		return nil
	}
	out := make(FactorTable, len(raw))
	for key, value := range raw {
		size, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		factor, _ := looseFloat(value)
		out[size] = factor
	}
	*t = out
	return nil
}

// Lookup возвращает коэффициент: точный ключ, затем наибольший ключ таблицы, затем 1.0.
func (t FactorTable) Lookup(crew int) float64 {
	if factor, ok := t[crew]; ok {
		return factor
	}
	if len(t) == 0 {
		return 1.0
	}
	keys := make([]int, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return t[keys[len(keys)-1]]
}

func (t FactorTable) clone() FactorTable {
	out := make(FactorTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Config — полная конфигурация ценообразования.
type Config struct {
	MaxM3PerEmployee               float64 `json:"max_m3_per_employee"`
	BaseMinEmployees               float64 `json:"base_min_employees"`
	FloorThresholdForExtraEmployee float64 `json:"floor_threshold_for_extra_employee"`
	ElevatorMultiplier             float64 `json:"elevator_multiplier"`

	StandardVolumeM3     float64     `json:"standard_volume_m3"`
	BaseLoadMinutes      float64     `json:"base_load_time_minutes_for_standard_volume"`
	BaseUnloadMinutes    float64     `json:"base_unload_time_minutes_for_standard_volume"`
	MinutesPerFloorPerM3 float64     `json:"minutes_per_floor_per_m3"`
	CrewFactors          FactorTable `json:"crew_factor_table"`

	TransportMode TransportMode  `json:"transport_mode"`
	PricePerKm    float64        `json:"price_per_km"`
	BufferMinutes float64        `json:"buffer_minutes"`
	BufferPercent OptionalNumber `json:"buffer_percent"`

	HourlyRateTotal       float64        `json:"hourly_rate_total"`
	HourlyRatePerEmployee OptionalNumber `json:"hourly_rate_per_employee"`

	Heavy80Enabled      bool    `json:"heavy_80_enabled"`
	Heavy80ExtraMinutes float64 `json:"heavy_80_extra_minutes_per_item"`
	Heavy80FeePerItem   float64 `json:"heavy_80_fee_per_item"`

	Heavy150Enabled              bool    `json:"heavy_150_enabled"`
	Heavy150ExtraMinutes         float64 `json:"heavy_150_extra_minutes_per_item"`
	Heavy150FeePerItem           float64 `json:"heavy_150_fee_per_item"`
	Heavy150EnforceMinEmployees  bool    `json:"heavy_150_enforce_min_employees"`
	Heavy150MinEmployeesOverride float64 `json:"heavy_150_min_employees_override"`

	Fees    []Fee   `json:"fees"`
	VATRate float64 `json:"vat_rate"`
}

// clone возвращает копию без общих map/slice.
func (c Config) clone() Config {
	out := c
	out.CrewFactors = c.CrewFactors.clone()
	out.Fees = append([]Fee(nil), c.Fees...)
	return out
}

// PartialConfig — частичная конфигурация от вызывающей стороны. nil-поля берутся из базы.
type PartialConfig struct {
	MaxM3PerEmployee               *Number `json:"max_m3_per_employee,omitempty"`
	BaseMinEmployees               *Number `json:"base_min_employees,omitempty"`
	FloorThresholdForExtraEmployee *Number `json:"floor_threshold_for_extra_employee,omitempty"`
	ElevatorMultiplier             *Number `json:"elevator_multiplier,omitempty"`

	StandardVolumeM3     *Number     `json:"standard_volume_m3,omitempty"`
	BaseLoadMinutes      *Number     `json:"base_load_time_minutes_for_standard_volume,omitempty"`
	BaseUnloadMinutes    *Number     `json:"base_unload_time_minutes_for_standard_volume,omitempty"`
	MinutesPerFloorPerM3 *Number     `json:"minutes_per_floor_per_m3,omitempty"`
	CrewFactors          FactorTable `json:"crew_factor_table,omitempty"`

	TransportMode *TransportMode  `json:"transport_mode,omitempty"`
	PricePerKm    *Number         `json:"price_per_km,omitempty"`
	BufferMinutes *Number         `json:"buffer_minutes,omitempty"`
	BufferPercent *OptionalNumber `json:"buffer_percent,omitempty"`

	HourlyRateTotal       *Number         `json:"hourly_rate_total,omitempty"`
	HourlyRatePerEmployee *OptionalNumber `json:"hourly_rate_per_employee,omitempty"`

	Heavy80Enabled      *Flag   `json:"heavy_80_enabled,omitempty"`
	Heavy80ExtraMinutes *Number `json:"heavy_80_extra_minutes_per_item,omitempty"`
	Heavy80FeePerItem   *Number `json:"heavy_80_fee_per_item,omitempty"`

	Heavy150Enabled              *Flag   `json:"heavy_150_enabled,omitempty"`
	Heavy150ExtraMinutes         *Number `json:"heavy_150_extra_minutes_per_item,omitempty"`
	Heavy150FeePerItem           *Number `json:"heavy_150_fee_per_item,omitempty"`
	Heavy150EnforceMinEmployees  *Flag   `json:"heavy_150_enforce_min_employees,omitempty"`
	Heavy150MinEmployeesOverride *Number `json:"heavy_150_min_employees_override,omitempty"`

	Fees    FeeList `json:"fees,omitempty"`
	VATRate *Number `json:"vat_rate,omitempty"`
}

// defaultConfig — общая для процесса конфигурация по умолчанию. Никогда не изменяется.
var defaultConfig = Config{
	MaxM3PerEmployee:               12,
	BaseMinEmployees:               2,
	FloorThresholdForExtraEmployee: 6,
	ElevatorMultiplier:             0.5,

	StandardVolumeM3:     25,
	BaseLoadMinutes:      150,
	BaseUnloadMinutes:    120,
	MinutesPerFloorPerM3: 1,
	CrewFactors:          FactorTable{2: 1.0, 3: 1.25, 4: 1.5, 5: 1.7},

	TransportMode: TransportTimeFromDeparture,
	PricePerKm:    15,
	BufferMinutes: 30,

	HourlyRateTotal: 650,

	Heavy80Enabled:      true,
	Heavy80ExtraMinutes: 15,
	Heavy80FeePerItem:   300,

	Heavy150Enabled:              true,
	Heavy150ExtraMinutes:         30,
	Heavy150FeePerItem:           700,
	Heavy150EnforceMinEmployees:  true,
	Heavy150MinEmployeesOverride: 3,

	Fees: []Fee{
		{Name: "packing_service", Enabled: true, Type: FeeTypeFixed, Value: 1500},
		{Name: "weekend_surcharge", Enabled: true, Type: FeeTypePercent, Value: 15},
		{Name: "insurance", Enabled: true, Type: FeeTypePercent, Value: 2},
	},
	VATRate: 0.25,
}

// Defaults возвращает указатель на новую копию конфигурации по умолчанию.
// Изменения копии не затрагивают общую конфигурацию процесса.
func Defaults() *Config {
	cfg := defaultConfig.clone()
	return &cfg
}

// DefaultConfig возвращает независимую копию конфигурации по умолчанию.
func DefaultConfig() Config {
	return defaultConfig.clone()
}

// Normalize дополняет частичную конфигурацию значениями по умолчанию.
func Normalize(partial *PartialConfig) Config {
	return NormalizeWith(&defaultConfig, partial)
}

// NormalizeWith дополняет частичную конфигурацию значениями base. base не изменяется.
//
// Скаляры берутся у вызывающего, если заданы. Таблица коэффициентов сливается по ключам
// поверх base. Список сборов заменяется целиком, если передан массив.
func NormalizeWith(base *Config, partial *PartialConfig) Config {
	cfg := base.clone()
	cfg.TransportMode = cfg.TransportMode.Effective()
	if partial == nil {
		return cfg
	}
	p := partial

	setNumber(&cfg.MaxM3PerEmployee, p.MaxM3PerEmployee)
	setNumber(&cfg.BaseMinEmployees, p.BaseMinEmployees)
	setNumber(&cfg.FloorThresholdForExtraEmployee, p.FloorThresholdForExtraEmployee)
	setNumber(&cfg.ElevatorMultiplier, p.ElevatorMultiplier)

	setNumber(&cfg.StandardVolumeM3, p.StandardVolumeM3)
	setNumber(&cfg.BaseLoadMinutes, p.BaseLoadMinutes)
	setNumber(&cfg.BaseUnloadMinutes, p.BaseUnloadMinutes)
	setNumber(&cfg.MinutesPerFloorPerM3, p.MinutesPerFloorPerM3)
	for size, factor := range p.CrewFactors {
		cfg.CrewFactors[size] = factor
	}

	// Нераспознанный режим из запроса не перекрывает базовый.
	if p.TransportMode != nil && p.TransportMode.Known() {
		cfg.TransportMode = *p.TransportMode
	}
	setNumber(&cfg.PricePerKm, p.PricePerKm)
	setNumber(&cfg.BufferMinutes, p.BufferMinutes)
	if p.BufferPercent != nil {
		cfg.BufferPercent = *p.BufferPercent
	}

	setNumber(&cfg.HourlyRateTotal, p.HourlyRateTotal)
	if p.HourlyRatePerEmployee != nil {
		cfg.HourlyRatePerEmployee = *p.HourlyRatePerEmployee
	}

	setFlag(&cfg.Heavy80Enabled, p.Heavy80Enabled)
	setNumber(&cfg.Heavy80ExtraMinutes, p.Heavy80ExtraMinutes)
	setNumber(&cfg.Heavy80FeePerItem, p.Heavy80FeePerItem)

	setFlag(&cfg.Heavy150Enabled, p.Heavy150Enabled)
	setNumber(&cfg.Heavy150ExtraMinutes, p.Heavy150ExtraMinutes)
	setNumber(&cfg.Heavy150FeePerItem, p.Heavy150FeePerItem)
	setFlag(&cfg.Heavy150EnforceMinEmployees, p.Heavy150EnforceMinEmployees)
	setNumber(&cfg.Heavy150MinEmployeesOverride, p.Heavy150MinEmployeesOverride)

	if p.Fees != nil {
		cfg.Fees = append([]Fee(nil), p.Fees...)
	}
	setNumber(&cfg.VATRate, p.VATRate)

	return cfg
}

func setNumber(dst *float64, v *Number) {
	if v != nil {
		*dst = v.Float()
	}
}

func setFlag(dst *bool, v *Flag) {
	if v != nil {
		*dst = bool(*v)
	}
}
