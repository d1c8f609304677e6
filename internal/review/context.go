package review

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/dshills/lamp/internal/ingest"
)

// contextScanBytes is how much of each file the framework scan looks at.
const contextScanBytes = 1000

// maxSharedImports caps the Shared Patterns list.
const maxSharedImports = 10

type framework struct {
	name     string
	content  []*regexp.Regexp
	filename []*regexp.Regexp
}

// frameworks is ordered by precedence: the first match decides the project
// type.
var frameworks = []framework{
	{
		name:     "django",
		content:  patterns(`from\s+django\.`, `(?i)django==`),
		filename: patterns(`(^|/)manage\.py$`, `(^|/)settings\.py$`, `(^|/)urls\.py$`),
	},
	{
		name:    "fastapi",
		content: patterns(`from\s+fastapi\s+import`, `FastAPI\(`, `uvicorn\.run`),
	},
	{
		name:    "flask",
		content: patterns(`from\s+flask\s+import`, `(?i)flask==`, `@app\.route`),
	},
	{
		name:     "react",
		content:  patterns(`import\s+React`, `from\s+["']react["']`),
		filename: patterns(`\.(jsx|tsx)$`),
	},
	{
		name:    "streamlit",
		content: patterns(`import\s+streamlit`),
	},
	{
		name:     "node",
		content:  patterns(`require\(["']`, `module\.exports`),
		filename: patterns(`(^|/)package\.json$`, `(^|/)node_modules/`),
	},
}

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

var entryPoints = map[string]bool{
	"main.py":   true,
	"app.py":    true,
	"run.py":    true,
	"manage.py": true,
	"index.js":  true,
	"server.js": true,
	"main.go":   true,
}

var configFiles = map[string]bool{
	"requirements.txt":    true,
	"package.json":        true,
	"pyproject.toml":      true,
	"setup.py":            true,
	"dockerfile":          true,
	"docker-compose.yml":  true,
	"docker-compose.yaml": true,
	".env":                true,
	"config.py":           true,
	"settings.py":         true,
	"app.yaml":            true,
	"procfile":            true,
}

var testFile = regexp.MustCompile(`(^test_.*\.py|_test\.(py|go)|\.(spec|test)\.(js|ts|jsx|tsx))$`)

// projectContext summarizes what the submitted files look like as a project.
type projectContext struct {
	Type        string
	Frameworks  []string
	EntryPoints []string
	ConfigFiles []string
	TestFiles   []string
}

func detectProjectContext(records []ingest.FileRecord) projectContext {
	pc := projectContext{Type: "unknown"}
	for _, fw := range frameworks {
		if usesFramework(fw, records) {
			pc.Frameworks = append(pc.Frameworks, fw.name)
		}
	}
	if len(pc.Frameworks) > 0 {
		pc.Type = pc.Frameworks[0]
	}
	for _, rec := range records {
		base := path.Base(rec.Name)
		if entryPoints[strings.ToLower(base)] {
			pc.EntryPoints = append(pc.EntryPoints, rec.Name)
		}
		if configFiles[strings.ToLower(base)] {
			pc.ConfigFiles = append(pc.ConfigFiles, rec.Name)
		}
		if testFile.MatchString(base) {
			pc.TestFiles = append(pc.TestFiles, rec.Name)
		}
	}
	return pc
}

func usesFramework(fw framework, records []ingest.FileRecord) bool {
	for _, rec := range records {
		for _, re := range fw.filename {
			if re.MatchString(rec.Name) {
				return true
			}
		}
		head := rec.Content
		if len(head) > contextScanBytes {
			head = head[:contextScanBytes]
		}
		for _, re := range fw.content {
			if re.MatchString(head) {
				return true
			}
		}
	}
	return false
}

func writeProjectContext(b *strings.Builder, records []ingest.FileRecord) {
	if len(records) == 0 {
		return
	}
	pc := detectProjectContext(records)
	b.WriteString("## Project Context\n\n")
	fmt.Fprintf(b, "- Project type: %s\n", pc.Type)
	fmt.Fprintf(b, "- Frameworks: %s\n", listOrNone(pc.Frameworks))
	fmt.Fprintf(b, "- Entry points: %s\n", listOrNone(pc.EntryPoints))
	fmt.Fprintf(b, "- Config files: %s\n", listOrNone(pc.ConfigFiles))
	fmt.Fprintf(b, "- Test files: %s\n", listOrNone(pc.TestFiles))
	b.WriteString("\n")
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none detected"
	}
	return strings.Join(items, ", ")
}

var importLine = regexp.MustCompile(`(?m)^(?:from|import)[ \t]+[^( \t\r\n].*$`)

// sharedImports returns import lines that appear in more than one file,
// sorted and capped at maxSharedImports.
func sharedImports(records []ingest.FileRecord) []string {
	files := make(map[string]int)
	for _, rec := range records {
		seen := make(map[string]bool)
		for _, line := range importLine.FindAllString(rec.Content, -1) {
			line = strings.TrimRight(line, " \t\r")
			if seen[line] {
				continue
			}
			seen[line] = true
			files[line]++
		}
	}
	var shared []string
	for line, n := range files {
		if n > 1 {
			shared = append(shared, line)
		}
	}
	sort.Strings(shared)
	if len(shared) > maxSharedImports {
		shared = shared[:maxSharedImports]
	}
	return shared
}

func writeSharedPatterns(b *strings.Builder, records []ingest.FileRecord) {
	shared := sharedImports(records)
	if len(shared) == 0 {
		return
	}
	b.WriteString("## Shared Patterns\n\nImports used by more than one file:\n")
	for _, line := range shared {
		fmt.Fprintf(b, "- `%s`\n", line)
	}
	b.WriteString("\n")
}

// writeFileIndex lists the records in the order their blocks follow.
func writeFileIndex(b *strings.Builder, records []ingest.FileRecord) {
	if len(records) == 0 {
		return
	}
	b.WriteString("## Files to Analyze\n\n")
	for i, rec := range records {
		lang, ok := langMap[strings.ToLower(path.Ext(rec.Name))]
		if !ok {
			lang = "Other"
		}
		fmt.Fprintf(b, "%d. %s (%s lines, %s chars, %s", i+1, rec.Name,
			humanize.Comma(int64(rec.Lines())), humanize.Comma(int64(utf8.RuneCountInString(rec.Content))), lang)
		if rec.Truncated {
			b.WriteString(", truncated")
		}
		b.WriteString(")\n")
	}
	b.WriteString("\n")
}
