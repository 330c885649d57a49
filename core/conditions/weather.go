package conditions

import (
	"fmt"

	"github.com/takaflow/dispatch/core/model"
)

// ParseWeather maps a config label to the canonical weather state.
func ParseWeather(label string) (model.WeatherState, error) {
	switch label {
	case "clear":
		return model.WeatherState{Condition: model.WeatherClear}, nil
	case "rain":
		return model.WeatherState{
			Condition:        model.WeatherRain,
			SpeedReduction:   10,
			VisibilityImpact: 20,
			SafetyRisk:       model.RiskMedium,
		}, nil
	case "heavy_rain":
		return model.WeatherState{
			Condition:        model.WeatherHeavyRain,
			SpeedReduction:   30,
			VisibilityImpact: 50,
			SafetyRisk:       model.RiskHigh,
		}, nil
	case "fog":
		return model.WeatherState{
			Condition:        model.WeatherFog,
			SpeedReduction:   20,
			VisibilityImpact: 60,
			SafetyRisk:       model.RiskHigh,
		}, nil
	default:
		return model.WeatherState{}, fmt.Errorf("unknown weather %q", label)
	}
}
