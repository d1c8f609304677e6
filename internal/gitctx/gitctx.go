package gitctx

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotRepo is returned when the directory is not inside a git work tree.
var ErrNotRepo = errors.New("not a git repository")

// Filter narrows a file list by glob patterns. Include, when set, keeps only
// matching paths; Exclude always wins.
type Filter struct {
	Include []string
	Exclude []string
}

// Keep reports whether path passes the filter.
func (f Filter) Keep(path string) bool {
	if len(f.Include) > 0 && !MatchesAny(path, f.Include) {
		return false
	}
	return !MatchesAny(path, f.Exclude)
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string `json:"root"`
	Head   string `json:"head,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// GetRepoMeta collects repository metadata for the work tree containing dir.
func GetRepoMeta(ctx context.Context, dir string) (RepoMeta, error) {
	root, err := gitOutput(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("%w: %v", ErrNotRepo, err)
	}
	head, err := gitOutput(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// IsRepo reports whether dir is inside a git work tree.
func IsRepo(ctx context.Context, dir string) bool {
	out, err := gitOutput(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// TrackedFiles returns the files git tracks under dir, relative to dir, in
// slash form and sorted. Ignored and untracked files never appear.
func TrackedFiles(ctx context.Context, dir string, f Filter) ([]string, error) {
	out, err := gitOutput(ctx, dir, "ls-files", "-z")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}
	return filterList(splitNull(out), f), nil
}

// ChangedFiles returns the files under dir that differ from rev in the work
// tree, staged or not, plus untracked files that are not ignored. Deleted
// files are left out since there is nothing to read.
func ChangedFiles(ctx context.Context, dir, rev string, f Filter) ([]string, error) {
	if rev == "" {
		rev = "HEAD"
	}
	if strings.HasPrefix(rev, "-") {
		return nil, fmt.Errorf("invalid revision %q", rev)
	}
	changed, err := gitOutput(ctx, dir, "diff", "--name-only", "-z", "--diff-filter=d", "--relative", rev, "--")
	if err != nil {
		return nil, fmt.Errorf("git diff %s: %w", rev, err)
	}
	untracked, err := gitOutput(ctx, dir, "ls-files", "-z", "--others", "--exclude-standard")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	seen := make(map[string]bool)
	var files []string
	for _, p := range append(splitNull(changed), splitNull(untracked)...) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	return filterList(files, f), nil
}

// splitNull splits -z output. Paths are kept byte for byte; only the empty
// entries around terminators are dropped.
func splitNull(out string) []string {
	var paths []string
	for _, p := range strings.Split(out, "\x00") {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func filterList(files []string, f Filter) []string {
	result := make([]string, 0, len(files))
	for _, p := range files {
		if f.Keep(p) {
			result = append(result, p)
		}
	}
	sort.Strings(result)
	return result
}

// MatchesAny returns true if the path matches any of the given glob patterns.
// A leading "**/" matches at any depth and a trailing "/**" matches everything
// below a directory.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			d := strings.TrimPrefix(dir, "**/")
			if strings.HasPrefix(path, d+"/") || strings.Contains(path, "/"+d+"/") {
				return true
			}
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
