package provider

import (
	"encoding/json"
	"strconv"
)

// Ключи настроек интеграции, которые понимают прямые раннеры.
const (
	settingModelName   = "model_name"
	settingModel       = "model"
	settingTemperature = "temperature"
	settingMaxTokens   = "max_tokens"
	settingTopP        = "top_p"
)

// generationSettings - параметры генерации, извлеченные из настроек интеграции.
type generationSettings struct {
	Model       string
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

func parseSettings(settings map[string]any, defaultModel string) generationSettings {
	gs := generationSettings{Model: defaultModel}
	if m, ok := settings[settingModelName].(string); ok && m != "" {
		gs.Model = m
	} else if m, ok := settings[settingModel].(string); ok && m != "" {
		gs.Model = m
	}
	gs.Temperature = floatSetting(settings[settingTemperature])
	gs.TopP = floatSetting(settings[settingTopP])
	if f := floatSetting(settings[settingMaxTokens]); f != nil {
		n := int(*f)
		gs.MaxTokens = &n
	}
	return gs
}

// floatSetting принимает число из JSON, YAML или строку.
func floatSetting(v any) *float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case uint64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}
