package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gdrive-assistant/gdrive-assistant/internal/test"
)

func TestHandler(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	for _, path := range []string{"/health", "/healthz"} {
		resp, err := http.Get(srv.URL + path)
		test.OK(t, err)
		test.Equals(t, http.StatusOK, resp.StatusCode)
		test.OK(t, resp.Body.Close())
	}

	resp, err := http.Get(srv.URL + "/metrics")
	test.OK(t, err)
	test.Equals(t, http.StatusNotFound, resp.StatusCode)
	test.OK(t, resp.Body.Close())
}
