package review

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dshills/lamp/internal/ingest"
)

const standardInstructions = `You are a strict, expert code reviewer. Review the complete source files below and produce an actionable report.

Assess the code along these dimensions and give every issue a severity (Critical, High, Medium, Low):
1. Architecture and design: structure, modularity, separation of concerns.
2. Security: injection, data exposure, hardcoded secrets, unsafe input handling.
3. Performance: algorithmic cost, resource management, bottlenecks.
4. Correctness and resilience: logic errors, edge cases, error handling.
5. Code quality: readability, naming, duplication, documentation.
6. Testing: missing coverage, weak assertions, untested edge cases.
7. Configuration: secrets handling, magic numbers, environment assumptions.
`

const refactorInstructions = `You are an expert software architect. Analyze the structure of the source files below and propose a safe, incremental refactor plan that preserves behavior.

Principles:
1. Behavior preservation: every step must keep existing functionality intact.
2. Incremental progress: small steps that can be tested and reverted independently.
3. Risk awareness: rate each step Low, Medium or High risk and offer a safer alternative for High.

Look for files with too many responsibilities, long functions, tight coupling, duplicated logic, deep nesting, missing abstractions and unclear module boundaries.
`

const thinkingProcess = `## How to Work

1. Read the Submission Metadata, Project Context and Project Structure to understand the scope.
2. Read every file fully before judging any one of them; note how they depend on each other.
3. Note the Processing Report at the end: skipped or truncated files were not shown in full, so do not report issues about code you cannot see.
4. Rank what you found by impact, then write the report.
`

const standardOutputFormat = `## Response Format

Start with a level-two heading "## Executive Summary": a short overview of overall quality, key strengths and the most critical problems. Then use these sections:

## Prioritized Findings
One entry per issue, most severe first, each with Severity, Category, File and line, Issue and Recommendation (with code where it helps).

## Positive Aspects
What the code does well.
`

const refactorOutputFormat = `## Response Format

Start with a level-two heading "## Executive Summary": overall structural health (Excellent, Good, Fair, Needs Work), the top three issues and the recommended approach. Then use these sections:

## Refactor Readiness
Per file: readiness, current issues, proposed changes, estimated impact.

## Proposed Module Structure
Current and proposed layout.

## Incremental Plan
Numbered steps, each with risk level, rationale and files changed.
`

// PromptOptions controls prompt assembly.
type PromptOptions struct {
	Mode  Mode
	Model string
}

// BuildPrompt renders the full review prompt for the included records.
//
// Sections, in order: instructions, working process, response format,
// submission metadata, project context, the project tree, shared imports, an
// index of the files, one delimited block per record in upload order, and a
// Processing Report that is always present.
func BuildPrompt(res ingest.Result, opts PromptOptions) string {
	var b strings.Builder

	if opts.Mode == ModeRefactor {
		b.WriteString(refactorInstructions)
	} else {
		b.WriteString(standardInstructions)
	}
	writeReviewContext(&b, opts)
	b.WriteString("\n")
	b.WriteString(thinkingProcess)
	b.WriteString("\n")
	if opts.Mode == ModeRefactor {
		b.WriteString(refactorOutputFormat)
	} else {
		b.WriteString(standardOutputFormat)
	}
	b.WriteString("\n")

	writeMetadata(&b, res.Records)
	writeProjectContext(&b, res.Records)
	writeProjectStructure(&b, res.Records)
	writeSharedPatterns(&b, res.Records)
	writeFileIndex(&b, res.Records)

	b.WriteString("## Files\n\n")
	for _, rec := range res.Records {
		writeFileBlock(&b, rec)
	}

	writeProcessingReport(&b, res)
	return b.String()
}

func writeReviewContext(b *strings.Builder, opts PromptOptions) {
	mode := opts.Mode
	if mode == "" {
		mode = ModeStandard
	}
	b.WriteString("\n## Review Request Context\n\n")
	fmt.Fprintf(b, "- Review mode: %s\n", mode.Title())
	if opts.Model != "" {
		fmt.Fprintf(b, "- Selected model: %s\n", opts.Model)
	}
	fmt.Fprintf(b, "- Requested focus: %s\n", mode.Focus())
}

func writeMetadata(b *strings.Builder, records []ingest.FileRecord) {
	var lines, size int
	names := make([]string, 0, len(records))
	for _, rec := range records {
		lines += rec.Lines()
		size += len(rec.Content)
		names = append(names, rec.Name)
	}

	b.WriteString("## Submission Metadata\n\n")
	fmt.Fprintf(b, "- Files: %d\n", len(records))
	fmt.Fprintf(b, "- Total lines: %s\n", humanize.Comma(int64(lines)))
	fmt.Fprintf(b, "- Total size: %s\n", humanize.IBytes(uint64(size)))
	if langs := detectLanguages(names); len(langs) > 0 {
		fmt.Fprintf(b, "- Languages: %s\n", strings.Join(langs, ", "))
	}
	b.WriteString("\n")
}

var langMap = map[string]string{
	".go":   "Go",
	".py":   "Python",
	".js":   "JavaScript",
	".ts":   "TypeScript",
	".tsx":  "TypeScript/React",
	".jsx":  "JavaScript/React",
	".rs":   "Rust",
	".java": "Java",
	".rb":   "Ruby",
	".cpp":  "C++",
	".hpp":  "C++",
	".c":    "C",
	".h":    "C/C++",
	".cs":   "C#",
	".php":  "PHP",
	".sql":  "SQL",
	".sh":   "Shell",
	".bat":  "Batch",
	".ps1":  "PowerShell",
	".html": "HTML",
	".htm":  "HTML",
	".css":  "CSS",
	".md":   "Markdown",
	".txt":  "Text",
	".xml":  "XML",
	".yaml": "YAML",
	".yml":  "YAML",
	".json": "JSON",
}

// detectLanguages returns "Language (count)" entries in order of first
// appearance.
func detectLanguages(files []string) []string {
	counts := make(map[string]int)
	var order []string
	for _, f := range files {
		lang, ok := langMap[strings.ToLower(path.Ext(f))]
		if !ok {
			lang = "Other"
		}
		if counts[lang] == 0 {
			order = append(order, lang)
		}
		counts[lang]++
	}
	out := make([]string, 0, len(order))
	for _, lang := range order {
		out = append(out, fmt.Sprintf("%s (%d)", lang, counts[lang]))
	}
	return out
}

type treeNode struct {
	children map[string]*treeNode
}

func writeProjectStructure(b *strings.Builder, records []ingest.FileRecord) {
	if len(records) == 0 {
		return
	}
	root := &treeNode{children: map[string]*treeNode{}}
	for _, rec := range records {
		node := root
		for _, part := range strings.Split(rec.Name, "/") {
			child, ok := node.children[part]
			if !ok {
				child = &treeNode{children: map[string]*treeNode{}}
				node.children[part] = child
			}
			node = child
		}
	}

	b.WriteString("## Project Structure\n\n```text\n")
	writeTree(b, root, 0)
	b.WriteString("```\n\n")
}

func writeTree(b *strings.Builder, node *treeNode, depth int) {
	names := make([]string, 0, len(node.children))
	for name := range node.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child := node.children[name]
		indent := strings.Repeat("  ", depth)
		if len(child.children) > 0 {
			fmt.Fprintf(b, "%s%s/\n", indent, name)
			writeTree(b, child, depth+1)
			continue
		}
		fmt.Fprintf(b, "%s%s\n", indent, name)
	}
}

func writeFileBlock(b *strings.Builder, rec ingest.FileRecord) {
	fmt.Fprintf(b, "--- BEGIN FILE: %s ---\n", rec.Name)
	if rec.Truncated {
		fmt.Fprintf(b, "[TRUNCATED: showing first %d of %d lines]\n", rec.RetainedLines, rec.TruncatedAt)
	}
	b.WriteString(rec.Content)
	if !strings.HasSuffix(rec.Content, "\n") {
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "--- END FILE: %s ---\n\n", rec.Name)
}

// ProcessingSummary is the first line of the Processing Report.
func ProcessingSummary(res ingest.Result) string {
	processed := len(res.Records)
	return fmt.Sprintf("Processed: %d/%d, Skipped: %d, Truncated: %d",
		processed, processed+len(res.Skipped), len(res.Skipped), res.TruncatedCount())
}

func writeProcessingReport(b *strings.Builder, res ingest.Result) {
	b.WriteString("## Processing Report\n\n")
	b.WriteString(ProcessingSummary(res))
	b.WriteString("\n\nSkipped files:\n")
	if len(res.Skipped) == 0 {
		b.WriteString("- none\n")
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(b, "- %s: %s\n", s.Name, s.Reason)
	}

	b.WriteString("\nTruncated files:\n")
	if res.TruncatedCount() == 0 {
		b.WriteString("- none\n")
	}
	for _, rec := range res.Records {
		if !rec.Truncated {
			continue
		}
		fmt.Fprintf(b, "- %s: %s -> %s, %d -> %d lines\n",
			rec.Name,
			humanize.IBytes(uint64(rec.SizeBytes)),
			humanize.IBytes(uint64(len(rec.Content))),
			rec.TruncatedAt, rec.RetainedLines)
	}
}
