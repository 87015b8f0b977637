// Package gadget manages Frida gadget payloads: fetching the matching
// release for the locally installed frida version, downloading and
// extracting the android gadget libraries into a per-version cache, and
// picking the right one for a device ABI.
package gadget

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	version "github.com/hashicorp/go-version"
)

// DefaultFeedURL is the Frida release feed on GitHub.
const DefaultFeedURL = "https://api.github.com/repos/frida/frida/releases"

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
	Size        int64  `json:"size"`
}

// Release is one entry of the release feed.
type Release struct {
	Tag    string  `json:"tag_name"`
	URL    string  `json:"url"`
	Assets []Asset `json:"assets"`
}

// Feed queries a GitHub-style release feed.
type Feed struct {
	Client *http.Client
	// URL defaults to DefaultFeedURL; tests point it at a local server.
	URL string
}

func (f *Feed) url() string {
	if f.URL != "" {
		return f.URL
	}
	return DefaultFeedURL
}

func (f *Feed) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

// Releases fetches the whole feed.
func (f *Feed) Releases() ([]Release, error) {
	resp, err := f.client().Get(f.url())
	if err != nil {
		return nil, fmt.Errorf("fetching release feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release feed returned %s", resp.Status)
	}

	var releases []Release
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("decoding release feed: %w", err)
	}
	return releases, nil
}

// ReleaseFor returns the release whose tag matches fridaVersion. Tags are
// compared as versions, not as raw strings, so "16.2.1" matches "v16.2.1".
func (f *Feed) ReleaseFor(fridaVersion string) (*Release, error) {
	want, err := version.NewVersion(fridaVersion)
	if err != nil {
		return nil, fmt.Errorf("parsing frida version %q: %w", fridaVersion, err)
	}

	releases, err := f.Releases()
	if err != nil {
		return nil, err
	}

	for i := range releases {
		tag, err := version.NewVersion(releases[i].Tag)
		if err != nil {
			continue
		}
		if tag.Equal(want) {
			return &releases[i], nil
		}
	}

	return nil, fmt.Errorf("no release matching frida version %s", fridaVersion)
}

// AndroidGadgets filters a release down to its android gadget assets.
func AndroidGadgets(rel *Release) []Asset {
	var gadgets []Asset
	for _, asset := range rel.Assets {
		if strings.Contains(asset.Name, "gadget") && strings.Contains(asset.Name, "android") {
			gadgets = append(gadgets, asset)
		}
	}
	return gadgets
}
