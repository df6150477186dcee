package gdrive

import (
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"google.golang.org/api/slides/v1"
)

// clients lazily builds the Google API services from one service account.
// The read-only Drive scope covers the Docs, Sheets and Slides APIs as well,
// so a single authorized HTTP client backs all four services. Construction is
// deferred until a service is first needed and the result is cached; a failed
// construction leaves nothing cached, so the next call retries.
type clients struct {
	credentialsFile string

	mu     sync.Mutex
	http   *http.Client
	drive  *drive.Service
	docs   *docs.Service
	sheets *sheets.Service
	slides *slides.Service
}

func newClients(credentialsFile string) *clients {
	return &clients{credentialsFile: credentialsFile}
}

// httpClient returns the authorized HTTP client, building it on first use.
// Callers must hold c.mu.
func (c *clients) httpClient() (*http.Client, error) {
	if c.http != nil {
		return c.http, nil
	}

	raw, err := os.ReadFile(c.credentialsFile)
	if err != nil {
		return nil, errors.Wrap(err, "read service account credentials")
	}

	conf, err := google.JWTConfigFromJSON(raw, drive.DriveReadonlyScope)
	if err != nil {
		return nil, errors.Wrap(err, "parse service account credentials")
	}

	c.http = conf.Client(context.Background())
	return c.http, nil
}

func (c *clients) Drive() (*drive.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drive != nil {
		return c.drive, nil
	}
	hc, err := c.httpClient()
	if err != nil {
		return nil, err
	}
	srv, err := drive.NewService(context.Background(), option.WithHTTPClient(hc))
	if err != nil {
		return nil, errors.Wrap(err, "drive.NewService")
	}
	c.drive = srv
	return srv, nil
}

func (c *clients) Docs() (*docs.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.docs != nil {
		return c.docs, nil
	}
	hc, err := c.httpClient()
	if err != nil {
		return nil, err
	}
	srv, err := docs.NewService(context.Background(), option.WithHTTPClient(hc))
	if err != nil {
		return nil, errors.Wrap(err, "docs.NewService")
	}
	c.docs = srv
	return srv, nil
}

func (c *clients) Sheets() (*sheets.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sheets != nil {
		return c.sheets, nil
	}
	hc, err := c.httpClient()
	if err != nil {
		return nil, err
	}
	srv, err := sheets.NewService(context.Background(), option.WithHTTPClient(hc))
	if err != nil {
		return nil, errors.Wrap(err, "sheets.NewService")
	}
	c.sheets = srv
	return srv, nil
}

func (c *clients) Slides() (*slides.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.slides != nil {
		return c.slides, nil
	}
	hc, err := c.httpClient()
	if err != nil {
		return nil, err
	}
	srv, err := slides.NewService(context.Background(), option.WithHTTPClient(hc))
	if err != nil {
		return nil, errors.Wrap(err, "slides.NewService")
	}
	c.slides = srv
	return srv, nil
}
