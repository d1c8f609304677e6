// Package github posts lamp reviews to pull requests.
//
// The report is added as a single conversation comment, shortened to fit
// GitHub's comment limit. The token comes from GITHUB_TOKEN; the repository
// can be given explicitly or detected from the origin remote.
package github
