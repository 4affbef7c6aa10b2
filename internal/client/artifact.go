package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ArtifactStore talks to the artifact service over HTTP: GET returns the CSV
// text for a ref, PUT stores it. PUT of the same text twice produces the same
// stored artifact.
type ArtifactStore struct {
	baseURL    string
	httpClient *http.Client
}

func NewArtifactStore(baseURL string, timeout time.Duration) *ArtifactStore {
	return &ArtifactStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *ArtifactStore) refURL(ref string) string {
	return s.baseURL + "/artifacts/" + url.PathEscape(ref)
}

func (s *ArtifactStore) Get(ctx context.Context, ref string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.refURL(ref), nil)
	if err != nil {
		return "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("artifact store get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("artifact store get: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("artifact store get: %w", err)
	}
	return string(body), nil
}

func (s *ArtifactStore) Put(ctx context.Context, ref, text string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.refURL(ref), strings.NewReader(text))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/csv")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("artifact store put: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	default:
		return fmt.Errorf("artifact store put: status %d", resp.StatusCode)
	}
}
