package providers

import (
	"slices"
	"strings"
)

// KnownModels is the catalogue offered by `lamp models list` and
// GET /api/models. Any OpenRouter model id is accepted; this list is only a
// starting point.
var KnownModels = []string{
	"google/gemini-2.5-pro-preview-05-06",
	"google/gemini-2.5-flash-preview-09-2025",
	"x-ai/grok-code-fast-1",
	"x-ai/grok-4",
	"x-ai/grok-4-fast",
	"anthropic/claude-sonnet-4.5",
	"anthropic/claude-sonnet-4",
	"anthropic/claude-haiku-4.5",
	"openai/gpt-5",
	"openai/gpt-5-codex",
	"z-ai/glm-4.6",
	"moonshotai/kimi-k2-0905",
	"qwen/qwen3-coder:free",
	"deepseek/deepseek-chat-v3.1:free",
	"tngtech/deepseek-r1t2-chimera:free",
	"minimax/minimax-m2:free",
	"baidu/ernie-4.5-21b-a3b-thinking",
}

// ModelsByVendor groups KnownModels by the vendor prefix of the id, keeping
// catalogue order within each group.
func ModelsByVendor() (vendors []string, models map[string][]string) {
	models = make(map[string][]string)
	for _, id := range KnownModels {
		vendor, _, ok := strings.Cut(id, "/")
		if !ok {
			vendor = "other"
		}
		if _, seen := models[vendor]; !seen {
			vendors = append(vendors, vendor)
		}
		models[vendor] = append(models[vendor], id)
	}
	return vendors, models
}

// IsKnownModel reports whether id is in the catalogue.
func IsKnownModel(id string) bool {
	return slices.Contains(KnownModels, id)
}

// IsFreeModel reports whether id names a free OpenRouter variant.
func IsFreeModel(id string) bool {
	return strings.HasSuffix(id, ":free")
}
