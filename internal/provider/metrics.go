package provider

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_studio_ai_requests_total",
			Help: "Total number of direct chat requests to AI providers.",
		},
		[]string{"runner", "model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prompt_studio_ai_request_duration_seconds",
			Help:    "Histogram of direct AI chat request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"runner", "model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prompt_studio_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"runner", "model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prompt_studio_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"runner", "model"},
	)
)

// Usage - число токенов запроса и ответа.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

func observeUsage(runner, model string, usage Usage) {
	if usage.PromptTokens > 0 {
		aiPromptTokens.WithLabelValues(runner, model).Observe(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		aiCompletionTokens.WithLabelValues(runner, model).Observe(float64(usage.CompletionTokens))
	}
}

const fallbackEncoding = "cl100k_base"

var encodings sync.Map // model -> *tiktoken.Tiktoken

// CountTokens оценивает число токенов текста для модели. Для неизвестных
// моделей используется cl100k_base.
func CountTokens(model, text string) (int, error) {
	if cached, ok := encodings.Load(model); ok {
		return len(cached.(*tiktoken.Tiktoken).Encode(text, nil, nil)), nil
	}
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tke, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return 0, err
		}
	}
	encodings.Store(model, tke)
	return len(tke.Encode(text, nil, nil)), nil
}

func estimatePromptTokens(model string, msgs []message) int {
	total := 0
	for _, m := range msgs {
		n, err := CountTokens(model, m.Content)
		if err != nil {
			return 0
		}
		total += n
	}
	return total
}
