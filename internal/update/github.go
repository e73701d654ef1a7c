// Package update checks GitHub for a newer ScaleBridge release. It only
// reports; installing is left to the operator.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIBase = "https://api.github.com"
	requestTimeout = 8 * time.Second
)

var errNotFound = errors.New("github api: not found")

type Result struct {
	HasUpdate bool
	Version   string
	URL       string
	Notes     string
}

type Checker struct {
	Repo    string
	Current string
	// APIBase overrides https://api.github.com.
	APIBase string
	Client  *http.Client
}

type release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
	Body    string `json:"body"`
}

type tag struct {
	Name string `json:"name"`
}

// Check asks for the latest published release and falls back to the newest
// tag when the repository has no releases.
func (c Checker) Check(ctx context.Context) (Result, error) {
	repo := strings.Trim(strings.TrimSpace(c.Repo), "/")
	if repo == "" {
		return Result{}, errors.New("repozytorium GitHub nie może być puste")
	}

	var rel release
	err := c.get(ctx, "/repos/"+repo+"/releases/latest", &rel)
	if errors.Is(err, errNotFound) {
		return c.checkTags(ctx, repo)
	}
	if err != nil {
		return Result{}, err
	}

	latest := normalize(rel.TagName)
	return Result{
		HasUpdate: IsNewer(latest, normalize(c.Current)),
		Version:   latest,
		URL:       rel.HTMLURL,
		Notes:     rel.Body,
	}, nil
}

func (c Checker) checkTags(ctx context.Context, repo string) (Result, error) {
	var tags []tag
	if err := c.get(ctx, "/repos/"+repo+"/tags", &tags); err != nil {
		return Result{}, err
	}
	if len(tags) == 0 {
		return Result{}, errors.New("brak wersji w repozytorium")
	}

	latest := normalize(tags[0].Name)
	return Result{
		HasUpdate: IsNewer(latest, normalize(c.Current)),
		Version:   latest,
		URL:       fmt.Sprintf("https://github.com/%s/releases/tag/%s", repo, tags[0].Name),
	}, nil
}

func (c Checker) get(ctx context.Context, path string, v any) error {
	base := c.APIBase
	if base == "" {
		base = defaultAPIBase
	}

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "application/vnd.github+json")

	response, err := client.Do(request)
	if err != nil {
		return err
	}
	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("github api zwróciło status: %d", response.StatusCode)
	}

	return json.NewDecoder(response.Body).Decode(v)
}

func normalize(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// IsNewer compares dotted major.minor.patch versions. Non-numeric suffixes are
// ignored; a development build ("dev") is never considered current.
func IsNewer(latest, current string) bool {
	if latest == "" {
		return false
	}
	if current == "" || current == "dev" {
		return true
	}

	latestParts := parseVersion(latest)
	currentParts := parseVersion(current)

	for i := range latestParts {
		if latestParts[i] != currentParts[i] {
			return latestParts[i] > currentParts[i]
		}
	}

	return false
}

func parseVersion(v string) [3]int {
	parts := strings.Split(v, ".")
	result := [3]int{}

	for i := 0; i < len(parts) && i < 3; i++ {
		value := 0
		for _, ch := range parts[i] {
			if ch < '0' || ch > '9' {
				break
			}
			value = value*10 + int(ch-'0')
		}
		result[i] = value
	}

	return result
}
