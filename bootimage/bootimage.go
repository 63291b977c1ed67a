// Package bootimage fetches the initcode blob nucleus boots its first
// process with from a configured GitHub release, falling back to a small
// embedded default when no release repository is configured. A configured
// release that cannot be reached is an error, not a fallback.
package bootimage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/go-github/v48/github"
	"golang.org/x/oauth2"
)

// defaultInitCode is a minimal placeholder payload used when no release is
// configured: nucleus's collab.Sim only copies it into the init process's
// simulated memory and never interprets it, so this is enough to boot the
// kernel without network access.
var defaultInitCode = []byte("nucleus-default-initcode")

type Release struct {
	Name      string
	Tag       string
	Artifacts []Artifact
}

type Artifact struct {
	Name        string
	URL         string
	ContentType string
}

type GHRetriever interface {
	GetArtifacts(repoURL string) ([]Release, error)
}

type GHManager struct {
	GHManagerConfig
	client *github.Client
}

// GHManagerConfig provide configuration options for creating a GitHub Manager.
type GHManagerConfig struct {
	// the access token to use when interacting with GitHub. If you plan to
	// access private repositories, this must be set.
	GHToken string
}

// NewGHManager takes an optional configuration (conf) and returns a
// [GHManager]. If required configuration values are not set, defaults are
// used. While conf is variadic, only the last conf argument passed will be
// used.
func NewGHManager(conf ...GHManagerConfig) GHManager {
	opts := GHManagerConfig{}
	if len(conf) > 0 {
		opts = conf[len(conf)-1]
	}
	var httpClient *http.Client

	if opts.GHToken != "" {
		srcToken := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: opts.GHToken},
		)
		httpClient = oauth2.NewClient(context.Background(), srcToken)
	}
	c := github.NewClient(httpClient)

	return GHManager{GHManagerConfig: opts, client: c}
}

// GetArtifacts lists every release and its assets for repoURL
// ($ORG_NAME/$REPO_NAME, e.g. golang/go).
func (g *GHManager) GetArtifacts(repoURL string) ([]Release, error) {
	repo := strings.Split(repoURL, "/")
	if len(repo) < 2 {
		return nil, fmt.Errorf("repoURL (%s) was invalid. Repository should be represented with $ORG_NAME/$REPO_NAME. For example, golang's repo would be (golang/go)", repoURL)
	}
	releases, _, err := g.client.Repositories.ListReleases(context.Background(), repo[0], repo[1], &github.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed retrieving releases from GitHub for (%s). Error was: %s", repoURL, err)
	}

	r := []Release{}
	for _, release := range releases {
		a := []Artifact{}
		for _, asset := range release.Assets {
			a = append(a, Artifact{
				Name:        asset.GetName(),
				URL:         asset.GetBrowserDownloadURL(),
				ContentType: asset.GetContentType(),
			})
		}
		r = append(r, Release{
			Name:      release.GetName(),
			Tag:       release.GetTagName(),
			Artifacts: a,
		})
	}

	return r, nil
}

// FetchInitCodeOpts configures FetchInitCode.
type FetchInitCodeOpts struct {
	// RepoURL is $ORG_NAME/$REPO_NAME hosting the release. Empty means "use
	// the embedded default, don't hit the network".
	RepoURL string
	// Tag selects the release; empty means the most recent release.
	Tag string
	// AssetName is the release asset to download; defaults to "initcode".
	AssetName string
}

const defaultAssetName = "initcode"

// FetchInitCode resolves the initcode blob nucleus's first process is
// booted with: if opts.RepoURL is unset, it returns the embedded default
// without touching the network; otherwise it looks up the named (or
// latest) release, finds the named (or default) asset, and downloads it.
func (g *GHManager) FetchInitCode(opts FetchInitCodeOpts) ([]byte, error) {
	if opts.RepoURL == "" {
		return defaultInitCode, nil
	}
	if opts.AssetName == "" {
		opts.AssetName = defaultAssetName
	}

	releases, err := g.GetArtifacts(opts.RepoURL)
	if err != nil {
		return nil, fmt.Errorf("fetchinitcode: %s", err)
	}

	var target *Release
	for i := range releases {
		// releases are listed newest-first, so the first match is either
		// the requested tag or (when Tag is empty) the latest release.
		if opts.Tag == "" || releases[i].Tag == opts.Tag {
			target = &releases[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("fetchinitcode: no release found for %s (tag %q)", opts.RepoURL, opts.Tag)
	}

	for _, a := range target.Artifacts {
		if a.Name == opts.AssetName {
			return downloadAsset(a.URL)
		}
	}
	return nil, fmt.Errorf("fetchinitcode: asset %q not found in release %q of %s", opts.AssetName, target.Tag, opts.RepoURL)
}

func downloadAsset(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetchinitcode: failed downloading asset: %s", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetchinitcode: asset download returned status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
