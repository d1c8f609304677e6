package output

import (
	"github.com/dshills/lamp/internal/ingest"
	"github.com/dshills/lamp/internal/providers"
	"github.com/dshills/lamp/internal/review"
)

func sampleOutcome(text, finishReason string) *review.Outcome {
	return &review.Outcome{
		Prepared: review.Prepared{
			RequestID: "a1b2c3d4",
			Model:     "openai/gpt-5",
			Mode:      review.ModeStandard,
			Ingest: ingest.Result{
				Records: []ingest.FileRecord{
					{Name: "main.go", Content: "package main\n"},
					{Name: "big.go", Content: "x\n", Truncated: true, TruncatedAt: 900, RetainedLines: 1},
				},
				Skipped: []ingest.Skip{{Name: "logo.png", Reason: ingest.ReasonUnsupportedExtension}},
			},
			Payload: review.NewPayload("review these files please"),
			Valid:   true,
		},
		Completion: providers.Completion{
			ID:    "gen-1",
			Text:  text,
			Usage: providers.Usage{PromptTokens: 1200, CompletionTokens: 300, TotalTokens: 1500},
		},
		Result: review.NewResult(text, finishReason),
		Timing: review.Timing{PrepareMs: 3, LLMMs: 4200, TotalMs: 4203},
	}
}

const fullReview = "## Executive Summary\nThe code is small and tidy.\n\n## Prioritized Findings\n1. **Medium**: missing error check in main.go.\n"
