package model

// CongestionLevel is a coarse traffic-density classification per grid cell.
type CongestionLevel int

const (
	CongestionLow CongestionLevel = iota
	CongestionMedium
	CongestionHigh
)

func (c CongestionLevel) String() string {
	switch c {
	case CongestionLow:
		return "low"
	case CongestionMedium:
		return "medium"
	case CongestionHigh:
		return "high"
	default:
		return "unknown"
	}
}

// TrafficCell holds the observed traffic state for one ~111 m grid cell.
// The cell key is the coordinate rounded to three decimal places.
type TrafficCell struct {
	Congestion   CongestionLevel `json:"congestion_level"`
	AverageSpeed float64         `json:"average_speed_kmh"`
	DelayFactor  float64         `json:"delay_factor"` // multiplier >= 1
}

// WeatherCondition classifies the single global weather state.
type WeatherCondition int

const (
	WeatherClear WeatherCondition = iota
	WeatherRain
	WeatherHeavyRain
	WeatherFog
)

func (w WeatherCondition) String() string {
	switch w {
	case WeatherClear:
		return "clear"
	case WeatherRain:
		return "rain"
	case WeatherHeavyRain:
		return "heavy_rain"
	case WeatherFog:
		return "fog"
	default:
		return "unknown"
	}
}

// SafetyRisk grades driving risk under the current weather.
type SafetyRisk int

const (
	RiskLow SafetyRisk = iota
	RiskMedium
	RiskHigh
)

func (r SafetyRisk) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// WeatherState is the process-wide weather snapshot consulted by
// condition-aware travel estimates.
type WeatherState struct {
	Condition        WeatherCondition `json:"condition"`
	SpeedReduction   float64          `json:"speed_reduction_pct"`
	VisibilityImpact float64          `json:"visibility_impact_pct"`
	SafetyRisk       SafetyRisk       `json:"safety_risk"`
}
