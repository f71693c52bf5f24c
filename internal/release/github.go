package release

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/go-github/v84/github"
)

// GitHubSource implements Source against GitHub Releases.
type GitHubSource struct {
	client *github.Client
	owner  string
	repo   string
}

// GitHubOption configures a GitHubSource.
type GitHubOption func(*gitHubOptions)

type gitHubOptions struct {
	httpClient *http.Client
	baseURL    string
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) GitHubOption {
	return func(o *gitHubOptions) {
		o.httpClient = client
	}
}

// WithBaseURL points the source at a non-default API endpoint (for testing).
func WithBaseURL(baseURL string) GitHubOption {
	return func(o *gitHubOptions) {
		o.baseURL = baseURL
	}
}

// NewGitHubSource creates a Source reading releases of owner/repo.
// An API token is picked up from GH_TOKEN or GITHUB_TOKEN when present;
// unauthenticated access works within GitHub's anonymous rate limits.
func NewGitHubSource(owner, repo string, opts ...GitHubOption) *GitHubSource {
	var options gitHubOptions
	for _, opt := range opts {
		opt(&options)
	}

	httpClient := options.httpClient
	if httpClient == nil {
		if token := tokenFromEnv(); token != "" {
			httpClient = &http.Client{
				Transport: &authTransport{token: token},
			}
		}
	}

	client := github.NewClient(httpClient)

	if options.baseURL != "" {
		if base, err := url.Parse(ensureTrailingSlash(options.baseURL)); err == nil {
			client.BaseURL = base
		}
	}

	return &GitHubSource{
		client: client,
		owner:  owner,
		repo:   repo,
	}
}

// FetchLatest retrieves the latest published release. The result is never
// cached: every check observes the channel fresh.
func (s *GitHubSource) FetchLatest(ctx context.Context) (*Info, error) {
	rel, resp, err := s.client.Repositories.GetLatestRelease(ctx, s.owner, s.repo)
	if err != nil {
		return nil, s.handleError(resp, err)
	}

	tag := rel.GetTagName()
	if tag == "" {
		return nil, errors.Wrap(ErrMalformedRelease, "release has no tag")
	}

	assets := make([]Asset, 0, len(rel.Assets))
	for _, a := range rel.Assets {
		assets = append(assets, Asset{
			Name:        a.GetName(),
			DownloadURL: a.GetBrowserDownloadURL(),
			Size:        int64(a.GetSize()),
		})
	}

	return &Info{
		Tag:        tag,
		Prerelease: rel.GetPrerelease(),
		Assets:     assets,
		Notes:      rel.GetBody(),
	}, nil
}

// handleError converts GitHub API errors to our error types.
func (*GitHubSource) handleError(resp *github.Response, err error) error {
	if resp == nil {
		return errors.Wrap(err, "fetching latest release")
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		// GitHub answers 404 both for a missing repository and for a
		// repository without any published release.
		return ErrNoReleases
	case http.StatusForbidden:
		if resp.Rate.Remaining == 0 {
			return ErrRateLimited
		}

		return errors.Wrap(err, "fetching latest release")
	default:
		return errors.Wrap(err, "fetching latest release")
	}
}

// tokenFromEnv retrieves an API token from the environment.
func tokenFromEnv() string {
	if token := os.Getenv("GH_TOKEN"); token != "" {
		return token
	}

	return os.Getenv("GITHUB_TOKEN")
}

// authTransport adds authentication header to requests.
type authTransport struct {
	token string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)

	return http.DefaultTransport.RoundTrip(req)
}

func ensureTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}

	return s + "/"
}
