package pricing

// JobInput — физические параметры переезда.
type JobInput struct {
	VolumeM3         Number    `json:"volume_m3"`
	FromFloor        Number    `json:"from_floor"`
	ToFloor          Number    `json:"to_floor"`
	FromElevator     Flag      `json:"from_elevator"`
	ToElevator       Flag      `json:"to_elevator"`
	Heavy80Count     Number    `json:"heavy_80_count"`
	Heavy150Count    Number    `json:"heavy_150_count"`
	TransportMinutes Number    `json:"transport_minutes"`
	KmRoundtrip      Number    `json:"km_roundtrip"`
	FeeSelection     Selection `json:"fee_selection,omitempty"`
}

// job — JobInput после приведения: все числа конечные, неотрицательные и не больше maxMagnitude.
type job struct {
	volume           float64
	fromFloor        float64
	toFloor          float64
	elevator         bool
	heavy80          float64
	heavy150         float64
	transportMinutes float64
	kmRoundtrip      float64
	selection        Selection
}

func (in JobInput) sanitize() job {
	return job{
		volume:           bounded(float64(in.VolumeM3)),
		fromFloor:        bounded(float64(in.FromFloor)),
		toFloor:          bounded(float64(in.ToFloor)),
		elevator:         bool(in.FromElevator) || bool(in.ToElevator),
		heavy80:          bounded(float64(in.Heavy80Count)),
		heavy150:         bounded(float64(in.Heavy150Count)),
		transportMinutes: bounded(float64(in.TransportMinutes)),
		kmRoundtrip:      bounded(float64(in.KmRoundtrip)),
		selection:        in.FeeSelection,
	}
}

func (j job) floorSum() float64 {
	return j.fromFloor + j.toFloor
}

// CrewEstimate — результат оценки бригады.
type CrewEstimate struct {
	ByVolume       int     `json:"crew_by_volume"`
	FloorSum       float64 `json:"floor_sum"`
	ElevatorEffect float64 `json:"elevator_effect"`
	ExtraForFloors bool    `json:"extra_for_floors"`
	HeavyMinimum   bool    `json:"heavy_minimum_applied"`
	Crew           int     `json:"crew"`
}

// TimeBreakdown — дерево временных компонентов, все значения в минутах, кроме LaborHours.
type TimeBreakdown struct {
	MinutesPerM3Load   float64        `json:"minutes_per_m3_load"`
	MinutesPerM3Unload float64        `json:"minutes_per_m3_unload"`
	LoadMinutes        float64        `json:"load_minutes"`
	UnloadMinutes      float64        `json:"unload_minutes"`
	FloorMinutes       float64        `json:"floor_minutes"`
	HeavyMinutes       float64        `json:"heavy_minutes"`
	BaseMinutesTotal   float64        `json:"base_minutes_total"`
	CrewFactor         float64        `json:"crew_factor"`
	EffectiveMinutes   float64        `json:"effective_minutes"`
	TransportMinutes   float64        `json:"transport_minutes"`
	WithTransport      float64        `json:"minutes_with_transport"`
	BufferMinutes      float64        `json:"buffer_minutes"`
	BufferPercent      OptionalNumber `json:"buffer_percent"`
	FinalMinutes       float64        `json:"final_minutes"`
	LaborHours         float64        `json:"labor_hours"`
}

// PriceParts — дерево ценовых компонентов.
type PriceParts struct {
	Labor     float64 `json:"labor_price"`
	Transport float64 `json:"transport_price"`
	Heavy     float64 `json:"heavy_fee"`
	Fees      float64 `json:"fees_total"`
	Subtotal  float64 `json:"subtotal"`
	VAT       float64 `json:"vat_amount"`
	Total     float64 `json:"total_price"`
}

// FeeLine — применённый сбор.
type FeeLine struct {
	Name   string  `json:"name"`
	Type   FeeType `json:"type"`
	Value  float64 `json:"value"`
	Amount float64 `json:"amount"`
}

// ModeInfo описывает, какие политики сработали при расчёте.
type ModeInfo struct {
	TransportMode TransportMode `json:"transport_mode"`
	BufferPolicy  string        `json:"buffer_policy"` // percent | minutes
	RatePolicy    string        `json:"rate_policy"`   // per_employee | total
	FeePolicy     string        `json:"fee_policy"`    // selection | auto
	VATRate       float64       `json:"vat_rate"`
}

// PriceBreakdown — итоговый детализированный расчёт.
type PriceBreakdown struct {
	VolumeM3 float64       `json:"volume_m3"`
	Crew     int           `json:"crew"`
	Staffing CrewEstimate  `json:"staffing"`
	Time     TimeBreakdown `json:"time"`
	Price    PriceParts    `json:"price"`
	Fees     []FeeLine     `json:"fees"`
	Mode     ModeInfo      `json:"mode"`
}
