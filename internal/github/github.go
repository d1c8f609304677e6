package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAPIURL = "https://api.github.com"

	// MaxCommentChars is GitHub's limit on an issue comment body.
	MaxCommentChars = 65536

	truncatedNotice = "\n\n> Review truncated to fit GitHub's comment size limit. Run lamp locally for the full report.\n"
)

// ErrNoToken is returned by NewClient when GITHUB_TOKEN is unset.
var ErrNoToken = errors.New("GITHUB_TOKEN environment variable is not set")

// Client provides access to the GitHub REST API.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
}

// NewClient creates a new GitHub client from GITHUB_TOKEN and, for GitHub
// Enterprise, GITHUB_API_URL.
func NewClient() (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, ErrNoToken
	}

	apiURL := os.Getenv("GITHUB_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	apiURL = strings.TrimRight(apiURL, "/")

	return &Client{
		token:   token,
		apiURL:  apiURL,
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Target identifies a pull request.
type Target struct {
	Owner  string
	Repo   string
	Number int
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s#%d", t.Owner, t.Repo, t.Number)
}

// ParseTarget parses "owner/repo#N". When ref is just a number, owner and
// repo come from fallbackRepo ("owner/repo").
func ParseTarget(ref, fallbackRepo string) (Target, error) {
	repoPart, numPart, found := strings.Cut(ref, "#")
	if !found {
		repoPart, numPart = fallbackRepo, ref
	}
	n, err := strconv.Atoi(strings.TrimSpace(numPart))
	if err != nil || n <= 0 {
		return Target{}, fmt.Errorf("invalid pull request number %q", numPart)
	}
	owner, repo, ok := strings.Cut(repoPart, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return Target{}, fmt.Errorf("invalid repository %q, want owner/repo", repoPart)
	}
	return Target{Owner: owner, Repo: repo, Number: n}, nil
}

// Comment is a posted issue comment.
type Comment struct {
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
}

// PostComment adds body as a comment on the pull request conversation.
func (c *Client) PostComment(ctx context.Context, t Target, body string) (Comment, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.apiURL, t.Owner, t.Repo, t.Number)

	payload, err := json.Marshal(map[string]string{"body": FitComment(body)})
	if err != nil {
		return Comment{}, fmt.Errorf("marshaling comment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Comment{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return Comment{}, fmt.Errorf("posting comment: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Comment{}, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Comment{}, fmt.Errorf("pull request %s not found", t)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Comment{}, fmt.Errorf("authentication failed: %s", string(respBody))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return Comment{}, fmt.Errorf("GitHub API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var comment Comment
	if err := json.Unmarshal(respBody, &comment); err != nil {
		return Comment{}, fmt.Errorf("parsing response: %w", err)
	}
	return comment, nil
}

// FitComment shortens body to GitHub's comment limit, cutting at a line
// boundary and appending a notice.
func FitComment(body string) string {
	if len([]rune(body)) <= MaxCommentChars {
		return body
	}
	runes := []rune(body)
	cut := string(runes[:MaxCommentChars-len([]rune(truncatedNotice))])
	if i := strings.LastIndex(cut, "\n"); i > 0 {
		cut = cut[:i]
	}
	return cut + truncatedNotice
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo returns "owner/repo" from the origin remote of the repository
// containing dir.
func DetectRepo(ctx context.Context, dir string) (string, error) {
	out, err := exec.CommandContext(ctx, "git", "-C", dir, "remote", "get-url", "origin").Output()
	if err != nil {
		return "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	owner, repo, err := ParseRemoteURL(strings.TrimSpace(string(out)))
	if err != nil {
		return "", err
	}
	return owner + "/" + repo, nil
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}
