package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
)

// DefaultExtensions is the built-in allow-list of reviewable file types.
var DefaultExtensions = []string{
	".py", ".js", ".ts", ".tsx", ".jsx", ".java", ".go", ".rb", ".php", ".cs",
	".c", ".cpp", ".h", ".hpp", ".rs", ".html", ".htm", ".css", ".sql", ".md",
	".txt", ".json", ".yaml", ".yml", ".xml", ".sh", ".bat", ".ps1",
}

const archiveExt = ".zip"

// LoadOptions controls ingestion.
type LoadOptions struct {
	// Extensions is the allow-list; nil means DefaultExtensions.
	Extensions []string
	// MaxMemberBytes caps the decompressed size of a single archive member.
	// Zero disables the cap.
	MaxMemberBytes int64
	// MaxFileBytes and MaxTotalBytes are the budgets Guard enforces. When set,
	// Load applies them while reading: archive members are kept only up to
	// the last line inside MaxFileBytes, and once the running total would pass
	// MaxTotalBytes the remaining uploads are skipped unread. Zero disables
	// either check.
	MaxFileBytes  int
	MaxTotalBytes int
}

// Load converts uploads into file records, preserving upload order. Archive
// members are inserted at the position of their archive.
func Load(uploads []Upload, opts LoadOptions) Result {
	l := &loader{opts: opts, allowed: extensionSet(opts.Extensions)}
	for _, u := range uploads {
		if isArchive(u.Name) {
			l.loadArchive(u)
			continue
		}
		l.loadFile(u.Name, u.Data)
	}
	for _, rec := range l.res.Records {
		l.res.TotalBytes += len(rec.Content)
	}
	return l.res
}

type loader struct {
	opts    LoadOptions
	allowed map[string]bool
	res     Result
	// charged is the size the admitted records will have after Guard.
	charged  int
	overflow bool
}

func (l *loader) loadFile(name string, data []byte) {
	if !l.allowed[strings.ToLower(path.Ext(name))] {
		l.res.skip(name, ReasonUnsupportedExtension)
		return
	}
	if l.overflow {
		l.res.skip(name, ReasonTotalSizeExceeded)
		return
	}
	if len(data) == 0 {
		l.res.skip(name, ReasonEmpty)
		return
	}
	text, err := decodeText(data)
	if err != nil {
		l.res.skip(name, ReasonUndecodable)
		return
	}
	if strings.TrimSpace(text) == "" {
		l.res.skip(name, ReasonEmpty)
		return
	}
	l.admit(FileRecord{
		Name:      name,
		Content:   text,
		SizeBytes: len(text),
	})
}

// admit appends rec unless it would push the running total past the budget.
// The charge is the record's size after Guard's line-boundary cut, so the
// cut-off lands on the same record Guard would choose.
func (l *loader) admit(rec FileRecord) {
	size := len(rec.Content)
	if limit := l.opts.MaxFileBytes; limit > 0 && size > limit {
		cut, ok := TruncateLines(rec.Content, limit)
		if !ok {
			// Guard reports it; it costs nothing against the total.
			l.res.Records = append(l.res.Records, rec)
			return
		}
		size = len(cut)
	}
	if limit := l.opts.MaxTotalBytes; limit > 0 && l.charged+size > limit {
		l.overflow = true
		l.res.skip(rec.Name, ReasonTotalSizeExceeded)
		return
	}
	l.charged += size
	l.res.Records = append(l.res.Records, rec)
}

func (l *loader) loadArchive(u Upload) {
	// A reader returned alongside an error still lists every member; unsafe
	// member names are handled per entry below.
	zr, err := zip.NewReader(bytes.NewReader(u.Data), int64(len(u.Data)))
	if err != nil && zr == nil {
		l.res.skip(u.Name, ReasonInvalidArchive)
		return
	}
	maxMember := l.opts.MaxMemberBytes
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		inner, ok := SanitizeArchivePath(f.Name)
		if !ok {
			l.res.skip(u.Name+"/"+f.Name, ReasonUnsafeArchivePath)
			continue
		}
		name := u.Name + "/" + inner
		if isArchive(inner) {
			l.res.skip(name, ReasonNestedArchive)
			continue
		}
		if !l.allowed[strings.ToLower(path.Ext(inner))] {
			l.res.skip(name, ReasonUnsupportedExtension)
			continue
		}
		if l.overflow {
			l.res.skip(name, ReasonTotalSizeExceeded)
			continue
		}
		if maxMember > 0 && f.UncompressedSize64 > uint64(maxMember) {
			l.res.skip(name, ReasonMemberTooLarge)
			continue
		}
		m, err := readMember(f, int64(l.opts.MaxFileBytes), maxMember)
		if err != nil {
			if errors.Is(err, errMemberTooLarge) {
				l.res.skip(name, ReasonMemberTooLarge)
			} else {
				l.res.skip(name, ReasonInvalidArchive)
			}
			continue
		}
		if m.complete() {
			l.loadFile(name, m.head)
			continue
		}
		l.loadPartial(name, m)
	}
}

// loadPartial admits a member whose body was only partly kept. It is cut to
// the last line inside MaxFileBytes here, with the line count and size of the
// whole member, the same way Guard would have cut it.
func (l *loader) loadPartial(name string, m member) {
	idx := bytes.LastIndexByte(m.head[:l.opts.MaxFileBytes], '\n')
	if idx < 0 {
		l.res.skip(name, ReasonNoLineBoundary)
		return
	}
	text, err := decodeText(m.head[:idx+1])
	if err != nil {
		l.res.skip(name, ReasonUndecodable)
		return
	}
	if strings.TrimSpace(text) == "" {
		l.res.skip(name, ReasonEmpty)
		return
	}
	l.admit(FileRecord{
		Name:          name,
		Content:       text,
		SizeBytes:     int(m.size),
		Truncated:     true,
		TruncatedAt:   m.lines,
		RetainedLines: CountLines(text),
	})
}

var errMemberTooLarge = errors.New(ReasonMemberTooLarge)

// member is an archive entry read with a bounded head. Bytes past the head are
// counted but not kept.
type member struct {
	head  []byte
	size  int64
	lines int
}

func (m member) complete() bool {
	return int64(len(m.head)) == m.size
}

// readMember reads one archive member, refusing to inflate beyond maxBytes
// even when the header understates the size. At most headBytes+1 bytes are
// kept in memory; zero keeps the whole member.
func readMember(f *zip.File, headBytes, maxBytes int64) (member, error) {
	rc, err := f.Open()
	if err != nil {
		return member{}, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxBytes > 0 {
		r = io.LimitReader(rc, maxBytes+1)
	}
	head := r
	if headBytes > 0 {
		head = io.LimitReader(r, headBytes+1)
	}
	data, err := io.ReadAll(head)
	if err != nil {
		return member{}, fmt.Errorf("reading %s: %w", f.Name, err)
	}

	lc := lineCounter{newlines: bytes.Count(data, []byte{'\n'})}
	if len(data) > 0 {
		lc.last = data[len(data)-1]
	}
	rest, err := io.Copy(&lc, r)
	if err != nil {
		return member{}, fmt.Errorf("reading %s: %w", f.Name, err)
	}

	m := member{head: data, size: int64(len(data)) + rest}
	if maxBytes > 0 && m.size > maxBytes {
		return member{}, errMemberTooLarge
	}
	m.lines = lc.newlines
	if m.size > 0 && lc.last != '\n' {
		m.lines++
	}
	return m, nil
}

// lineCounter counts newlines in everything written to it.
type lineCounter struct {
	newlines int
	last     byte
}

func (c *lineCounter) Write(p []byte) (int, error) {
	c.newlines += bytes.Count(p, []byte{'\n'})
	if len(p) > 0 {
		c.last = p[len(p)-1]
	}
	return len(p), nil
}

// SanitizeArchivePath normalizes a zip member name to a relative slash path.
// It reports false for absolute paths, parent traversal, or names that are
// empty after cleaning.
func SanitizeArchivePath(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(name, "/") || hasDriveLetter(name) {
		return "", false
	}
	var parts []string
	for _, p := range strings.Split(name, "/") {
		switch p {
		case "", ".":
			continue
		case "..":
			return "", false
		}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "/"), true
}

func hasDriveLetter(name string) bool {
	if len(name) < 2 || name[1] != ':' {
		return false
	}
	c := name[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isArchive(name string) bool {
	return strings.EqualFold(path.Ext(name), archiveExt)
}

func extensionSet(exts []string) map[string]bool {
	if exts == nil {
		exts = DefaultExtensions
	}
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = true
	}
	return set
}

func (r *Result) skip(name, reason string) {
	r.Skipped = append(r.Skipped, Skip{Name: name, Reason: reason})
}
