// Package review turns uploaded files into a single review prompt, submits it
// and interprets the response.
//
// The pipeline is linear: ingest.Load, optional redaction, ingest.Guard,
// BuildPrompt, Validate, a provider Submit, then NewResult. Engine wires the
// stages together and records each attempt to history.
//
// Two review modes are supported. ModeStandard asks for a prioritized list of
// findings; ModeRefactor asks for an incremental refactor plan. Both ask the
// model to open with an "Executive Summary" section, which ExtractSummary pulls
// back out of the response.
//
// Token estimates are a word-count heuristic. They gate submission but never
// promise that the provider will accept the prompt.
package review
