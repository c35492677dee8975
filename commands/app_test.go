package commands

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"directory-scraper/config"
	"directory-scraper/scraper"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	listingPage1 = `<html><body><table id="table81">
<tr><td><a href="/detail/1"> Acme
  Corp </a></td></tr>
<tr><td><a href="">Empty</a></td></tr>
<tr><td><a href="/detail/missing">Ghost</a></td></tr>
</table><a id="nextButton" href="/list?page=2">Next</a></body></html>`
	listingPage2 = `<html><body><table id="table81">
<tr><td><a href="/detail/2">Globex</a></td></tr>
</table><a id="nextButton" aria-disabled="true">Next</a></body></html>`
	detail1 = `<html><body><p class="MsoNormal">  Description: Anvils, rockets  </p>
<a href="http://acme.example">http://acme.example</a></body></html>`
	detail2 = `<html><body><p class="MsoNormal">No label here</p></body></html>`
)

func newDirectory(t *testing.T, brokenNext bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			if brokenNext {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, listingPage2)
			return
		}
		fmt.Fprint(w, listingPage1)
	})
	mux.HandleFunc("/detail/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, detail1)
	})
	mux.HandleFunc("/detail/2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, detail2)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, startURL string) *app {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.StartURL = startURL
	cfg.Output = filepath.Join(t.TempDir(), "out.csv")
	cfg.Browser.Backend = config.BackendColly
	require.NoError(t, cfg.Validate())

	log, _ := test.NewNullLogger()
	return newApp(context.Background(), cfg, log)
}

func TestRunOnce_WritesCSV(t *testing.T) {
	srv := newDirectory(t, false)
	a := newTestApp(t, srv.URL+"/list")

	require.NoError(t, a.runOnce(context.Background(), uuid.New()))

	data, err := os.ReadFile(a.cfg.Output)
	require.NoError(t, err)
	expected := "text,url,description,homepage_url\n" +
		"Acme Corp,/detail/1,\"Description: Anvils, rockets\",http://acme.example\n" +
		"Globex,/detail/2,Description not found.,\n"
	assert.Equal(t, expected, string(data))
}

func TestRunOnce_Deterministic(t *testing.T) {
	srv := newDirectory(t, false)
	a := newTestApp(t, srv.URL+"/list")

	require.NoError(t, a.runOnce(context.Background(), uuid.New()))
	first, err := os.ReadFile(a.cfg.Output)
	require.NoError(t, err)

	require.NoError(t, a.runOnce(context.Background(), uuid.New()))
	second, err := os.ReadFile(a.cfg.Output)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunOnce_PaginationFailureKeepsPartialCSV(t *testing.T) {
	srv := newDirectory(t, true)
	a := newTestApp(t, srv.URL+"/list")

	err := a.runOnce(context.Background(), uuid.New())
	require.ErrorIs(t, err, scraper.ErrPagination)

	data, readErr := os.ReadFile(a.cfg.Output)
	require.NoError(t, readErr)
	assert.Equal(t, "text,url,description,homepage_url\n"+
		"Acme Corp,/detail/1,\"Description: Anvils, rockets\",http://acme.example\n", string(data))
}

func TestRunOnce_StartPageUnreachable(t *testing.T) {
	srv := newDirectory(t, false)
	a := newTestApp(t, srv.URL+"/nowhere")

	err := a.runOnce(context.Background(), uuid.New())
	require.Error(t, err)

	data, readErr := os.ReadFile(a.cfg.Output)
	require.NoError(t, readErr)
	assert.Equal(t, "text,url,description,homepage_url\n", string(data))
}

func TestRunOnce_UnwritableOutput(t *testing.T) {
	srv := newDirectory(t, false)
	a := newTestApp(t, srv.URL+"/list")
	a.cfg.Output = filepath.Join(t.TempDir(), "missing", "out.csv")

	assert.Error(t, a.runOnce(context.Background(), uuid.New()))
}

func TestNewApp_TelegramWithoutToken(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Telegram.ChatID = 42
	log, hook := test.NewNullLogger()

	a := newApp(context.Background(), cfg, log)
	defer a.Close()

	assert.Nil(t, a.telegram)
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "Telegram notifications disabled")
}

func TestCrawlerOptions(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.MaxPages = 4
	cfg.ExcludeLinks = []string{"*/ads/*"}

	opts := crawlerOptions(cfg)
	assert.Equal(t, "table#table81 a", opts.ListingLinks)
	assert.Equal(t, "a#nextButton", opts.NextButton)
	assert.Equal(t, "p.MsoNormal", opts.Detail.Paragraphs)
	assert.Equal(t, "Description:", opts.Detail.DescriptionLabel)
	assert.Equal(t, "http", opts.Detail.HomepageMarker)
	assert.Equal(t, cfg.Timeouts.Ready.Duration, opts.ReadyTimeout)
	assert.Equal(t, 4, opts.MaxPages)
	assert.Equal(t, []string{"*/ads/*"}, opts.ExcludeLinks)
}
