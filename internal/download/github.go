package download

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"

	"github.com/pulsar-engine/installer/internal/errdefs"
)

// Release is one entry of the GitHub releases endpoint. The engine only
// consumes BrowserDownloadURL and Size from the assets.
type Release struct {
	TagName    string  `json:"tag_name"`
	Name       string  `json:"name"`
	Body       string  `json:"body"`
	Assets     []Asset `json:"assets"`
	Prerelease bool    `json:"prerelease"`
}

// Asset is a downloadable artifact attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               uint64 `json:"size"`
}

// ReleaseClient queries the GitHub releases API for one repository.
type ReleaseClient struct {
	client  *http.Client
	baseURL string
	owner   string
	repo    string
}

// NewReleaseClient returns a client for github.com/<owner>/<repo>.
func NewReleaseClient(owner, repo string) *ReleaseClient {
	return &ReleaseClient{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://api.github.com",
		owner:   owner,
		repo:    repo,
	}
}

// NewReleaseClientWithBase points the client at a custom API base, used by
// tests and by mirrors.
func NewReleaseClientWithBase(baseURL, owner, repo string) *ReleaseClient {
	c := NewReleaseClient(owner, repo)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Releases fetches every release, newest first by tag version where the tags
// parse as versions (GitHub's own ordering is by creation date, which lies
// after re-tagging).
func (c *ReleaseClient) Releases(ctx context.Context) ([]Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases", c.baseURL, c.owner, c.repo)

	var releases []Release
	if err := c.getJSON(ctx, url, &releases); err != nil {
		return nil, err
	}

	sort.SliceStable(releases, func(i, j int) bool {
		vi, erri := goversion.NewVersion(strings.TrimPrefix(releases[i].TagName, "v"))
		vj, errj := goversion.NewVersion(strings.TrimPrefix(releases[j].TagName, "v"))
		if erri != nil || errj != nil {
			return false
		}
		return vi.GreaterThan(vj)
	})
	return releases, nil
}

// LatestRelease returns the newest stable release, skipping prereleases.
func (c *ReleaseClient) LatestRelease(ctx context.Context) (Release, error) {
	releases, err := c.Releases(ctx)
	if err != nil {
		return Release{}, err
	}
	for _, rel := range releases {
		if !rel.Prerelease {
			return rel, nil
		}
	}
	return Release{}, &errdefs.DownloadError{
		URL: c.baseURL,
		Err: fmt.Errorf("no stable release found for %s/%s", c.owner, c.repo),
	}
}

// FindPlatformAsset locates the latest stable release's asset for the given
// OS and architecture.
func (c *ReleaseClient) FindPlatformAsset(ctx context.Context, osName, arch string) (Asset, error) {
	release, err := c.LatestRelease(ctx)
	if err != nil {
		return Asset{}, err
	}
	return FindAsset(release, osName, arch)
}

// FindAsset picks the asset for the given OS and architecture out of a
// release, trying the conventional naming patterns first and falling back to
// any asset whose name mentions both.
func FindAsset(release Release, osName, arch string) (Asset, error) {
	ext := "tar.gz"
	if osName == "windows" {
		ext = "exe"
	}

	patterns := []string{
		fmt.Sprintf("pulsar-%s-%s.%s", osName, arch, ext),
		fmt.Sprintf("pulsar_%s_%s.%s", osName, arch, ext),
		fmt.Sprintf("%s-%s.%s", osName, arch, ext),
		fmt.Sprintf("%s_%s.%s", osName, arch, ext),
	}
	for _, pattern := range patterns {
		for _, asset := range release.Assets {
			if strings.Contains(strings.ToLower(asset.Name), strings.ToLower(pattern)) {
				return asset, nil
			}
		}
	}

	for _, asset := range release.Assets {
		name := strings.ToLower(asset.Name)
		if strings.Contains(name, strings.ToLower(osName)) && strings.Contains(name, strings.ToLower(arch)) {
			return asset, nil
		}
	}

	names := make([]string, 0, len(release.Assets))
	for _, asset := range release.Assets {
		names = append(names, asset.Name)
	}
	return Asset{}, &errdefs.DownloadError{
		Err: fmt.Errorf("no asset for %s-%s in release %s (available: %s)",
			osName, arch, release.TagName, strings.Join(names, ", ")),
	}
}

func (c *ReleaseClient) getJSON(ctx context.Context, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &errdefs.DownloadError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &errdefs.DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &errdefs.DownloadError{URL: url, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &errdefs.DownloadError{URL: url, Err: fmt.Errorf("parsing release JSON: %w", err)}
	}
	return nil
}
