package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a id="nextButton" href="/list2">Next</a></body></html>`)
	})
	mux.HandleFunc("/list2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>second</p><a id="nextButton" aria-disabled="true">Next</a></body></html>`)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCollyPage_OpenAndHTML(t *testing.T) {
	srv := newSite(t)
	page, err := NewCollyBrowser(CollyOptions{}).NewPage()
	require.NoError(t, err)

	require.NoError(t, page.Open(context.Background(), srv.URL+"/list"))
	html, err := page.HTML(context.Background())
	require.NoError(t, err)
	assert.Contains(t, html, `id="nextButton"`)
	assert.Equal(t, srv.URL+"/list", page.URL())
}

func TestCollyPage_OpenNotFound(t *testing.T) {
	srv := newSite(t)
	page, err := NewCollyBrowser(CollyOptions{}).NewPage()
	require.NoError(t, err)

	err = page.Open(context.Background(), srv.URL+"/gone")
	require.ErrorIs(t, err, ErrNavigation)
}

func TestCollyPage_WaitReady(t *testing.T) {
	srv := newSite(t)
	page, err := NewCollyBrowser(CollyOptions{}).NewPage()
	require.NoError(t, err)
	require.NoError(t, page.Open(context.Background(), srv.URL+"/list"))

	assert.NoError(t, page.WaitReady(context.Background(), "body", time.Second))
	assert.ErrorIs(t, page.WaitReady(context.Background(), "table#missing", time.Second), ErrTimeout)
}

func TestCollyPage_ClickFollowsHref(t *testing.T) {
	srv := newSite(t)
	page, err := NewCollyBrowser(CollyOptions{}).NewPage()
	require.NoError(t, err)
	require.NoError(t, page.Open(context.Background(), srv.URL+"/list"))

	require.NoError(t, page.Click(context.Background(), "a#nextButton"))
	assert.Equal(t, srv.URL+"/list2", page.URL())

	html, err := page.HTML(context.Background())
	require.NoError(t, err)
	assert.Contains(t, html, "second")

	// the disabled control carries no href
	assert.ErrorIs(t, page.Click(context.Background(), "a#nextButton"), ErrNoElement)
}

func TestCollyPage_CancelledContext(t *testing.T) {
	srv := newSite(t)
	page, err := NewCollyBrowser(CollyOptions{}).NewPage()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, page.Open(ctx, srv.URL+"/list"), context.Canceled)
}

func TestFindChrome_Explicit(t *testing.T) {
	assert.Equal(t, "/opt/chrome", findChrome("/opt/chrome"))
}
