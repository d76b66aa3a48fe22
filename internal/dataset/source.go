package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Source provides the two halves of a dataset.
type Source interface {
	Students(ctx context.Context) ([]Student, error)
	Tutoring(ctx context.Context) ([]Tutoring, error)
}

// Load fetches students and tutoring concurrently.
func Load(ctx context.Context, src Source) (*Dataset, error) {
	var ds Dataset
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := src.Students(ctx)
		if err != nil {
			return fmt.Errorf("students: %w", err)
		}
		ds.Students = s
		return nil
	})
	g.Go(func() error {
		t, err := src.Tutoring(ctx)
		if err != nil {
			return fmt.Errorf("tutoring: %w", err)
		}
		ds.Tutoring = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// APIClient reads the dataset from the mentoring API.
type APIClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewAPIClient returns a client for baseURL with the given request timeout.
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *APIClient) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", path, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

// Students implements Source.
func (c *APIClient) Students(ctx context.Context) ([]Student, error) {
	var out []Student
	if err := c.get(ctx, "/students", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Tutoring implements Source.
func (c *APIClient) Tutoring(ctx context.Context) ([]Tutoring, error) {
	var out []Tutoring
	if err := c.get(ctx, "/tutoring", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FileSource reads the dataset from two local files, JSON or YAML by
// extension.
type FileSource struct {
	StudentsPath string
	TutoringPath string
}

// Paths lists the files the source reads.
func (f FileSource) Paths() []string {
	return []string{f.StudentsPath, f.TutoringPath}
}

func readFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Students implements Source.
func (f FileSource) Students(context.Context) ([]Student, error) {
	var out []Student
	if err := readFile(f.StudentsPath, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Tutoring implements Source.
func (f FileSource) Tutoring(context.Context) ([]Tutoring, error) {
	var out []Tutoring
	if err := readFile(f.TutoringPath, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Static is an in-memory source.
type Static struct {
	Data *Dataset
}

// Students implements Source.
func (s Static) Students(context.Context) ([]Student, error) {
	if s.Data == nil {
		return nil, nil
	}
	return s.Data.Students, nil
}

// Tutoring implements Source.
func (s Static) Tutoring(context.Context) ([]Tutoring, error) {
	if s.Data == nil {
		return nil, nil
	}
	return s.Data.Tutoring, nil
}
