package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/daybook-ai/daybook/internal/llm"
	"github.com/daybook-ai/daybook/internal/logger"
)

// WeatherTool is a placeholder external-API boundary returning canned
// forecasts. It still validates its inputs the way a real provider client
// would.
type WeatherTool struct {
	logger *logger.Logger
}

// NewWeatherTool creates a new get_weather tool.
func NewWeatherTool(log *logger.Logger) *WeatherTool {
	return &WeatherTool{logger: log.WithComponent("weather-tool")}
}

func (t *WeatherTool) Name() string { return "get_weather" }

func (t *WeatherTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Type: "function",
		Function: llm.FunctionDef{
			Name:        "get_weather",
			Description: "查询某个城市某天的天气",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"city": map[string]interface{}{
						"type":        "string",
						"description": "城市名",
					},
					"date": map[string]interface{}{
						"type":        "string",
						"description": "日期 YYYY-MM-DD",
					},
				},
				"required":             []string{"city", "date"},
				"additionalProperties": false,
			},
		},
	}
}

type weatherArgs struct {
	City string `json:"city"`
	Date string `json:"date"`
}

// mock forecast table; rotates by the day-of-month so answers vary.
var mockForecasts = []struct {
	condition string
	low, high int
}{
	{"晴", 18, 26},
	{"多云", 16, 24},
	{"小雨", 14, 20},
	{"阴", 15, 22},
	{"雷阵雨", 19, 27},
}

func (t *WeatherTool) Execute(ctx context.Context, rc RuntimeContext, args string) (string, error) {
	var a weatherArgs
	if err := ParseArguments(args, &a); err != nil {
		return errorResult("参数解析失败"), nil
	}
	if strings.TrimSpace(a.City) == "" {
		return errorResult("城市不能为空"), nil
	}
	if !dateFormatRe.MatchString(a.Date) {
		return errorResult(fmt.Sprintf("日期格式不正确：%s，请使用 YYYY-MM-DD", a.Date)), nil
	}

	day := int(a.Date[len(a.Date)-1]-'0') + int(a.Date[len(a.Date)-2]-'0')*10
	forecast := mockForecasts[day%len(mockForecasts)]

	return ToolResult{
		Status: StatusSuccess,
		Message: fmt.Sprintf("%s %s 天气：%s，%d°C 到 %d°C",
			a.City, a.Date, forecast.condition, forecast.low, forecast.high),
		Data: map[string]interface{}{
			"city":      a.City,
			"date":      a.Date,
			"condition": forecast.condition,
			"low":       forecast.low,
			"high":      forecast.high,
		},
	}.JSON(), nil
}
