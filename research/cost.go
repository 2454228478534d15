package research

import (
	"math"

	"github.com/JohanWes/deepresearch/config"
	"github.com/JohanWes/deepresearch/llm"
)

// Cost estimates the run cost in USD from token usage and the model's
// per-million prices, rounded to 6 decimals. Returns nil when usage is
// missing or incomplete.
func Cost(usage *llm.Usage, model config.Model) *float64 {
	if usage == nil || usage.PromptTokens == 0 || usage.CompletionTokens == 0 {
		return nil
	}
	promptCost := float64(usage.PromptTokens) / 1e6 * model.InputPrice
	completionCost := float64(usage.CompletionTokens) / 1e6 * model.OutputPrice
	cost := math.Round((promptCost+completionCost)*1e6) / 1e6
	return &cost
}
