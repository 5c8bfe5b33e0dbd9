package scraper

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfollowers/pkg/browser"
	"igfollowers/pkg/browser/browsertest"
	"igfollowers/pkg/checkpoint"
	"igfollowers/pkg/collector"
	"igfollowers/pkg/config"
	errs "igfollowers/pkg/errors"
	"igfollowers/pkg/instagram"
	"igfollowers/pkg/logger"
	"igfollowers/pkg/metadata"
	"igfollowers/pkg/models"
	"igfollowers/pkg/retry"
)

const base = "https://ig.test"

type fixture struct {
	cfg      *config.Config
	bctx     *browsertest.Context
	panel    *browsertest.Panel
	launches int
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Instagram.BaseURL = base
	cfg.Credentials.Username = "scraper"
	cfg.Credentials.Password = "hunter2"
	cfg.Browser.SessionFile = filepath.Join(dir, "auth.json")
	cfg.Checkpoint.Dir = filepath.Join(dir, "checkpoints")
	cfg.Output.Path = filepath.Join(dir, "followers.csv")
	cfg.Resolution.RequestsPerMinute = 0

	cookies, err := json.Marshal([]browser.Cookie{{Name: "sessionid", Value: "abc", Domain: ".ig.test", Path: "/"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.Browser.SessionFile, cookies, 0600))

	panel := browsertest.NewPanel(
		[]string{"alice", "bob"},
		[]string{"alice", "bob", "carol"},
	)

	site := browsertest.Site{
		instagram.ProfileURL(base, "natgeo"): {
			Elements: map[string][]browser.Element{
				instagram.FollowersLinkSelector:      {browsertest.NewElement("1,234 followers")},
				instagram.DialogSelector:             {browsertest.NewElement("")},
				instagram.PanelSelectors[0].Selector: {panel},
			},
		},
		instagram.ProfileURL(base, "alice"): {
			Elements: map[string][]browser.Element{
				instagram.MetaDescriptionSelector: {browsertest.NewMeta("12 Followers, 3 Following, 1 Posts")},
			},
		},
		instagram.ProfileURL(base, "bob"): {
			HTML: `{"edge_followed_by": {"count": 7}}`,
		},
		instagram.ProfileURL(base, "carol"): {
			HTML: `<html><body>Sorry, this page isn't available.</body></html>`,
		},
	}

	return &fixture{
		cfg:   cfg,
		bctx:  browsertest.NewContext(site),
		panel: panel,
		dir:   dir,
	}
}

func (f *fixture) scraper(opts ...Option) *Scraper {
	launch := func(ctx context.Context) (browser.Context, error) {
		f.launches++
		return f.bctx, nil
	}
	opts = append([]Option{
		WithPacing(collector.NoDelay, collector.FixedScroll(600), func(ctx context.Context, d time.Duration) error { return ctx.Err() }),
		WithRetryBackoff(&retry.ConstantBackoff{}),
	}, opts...)
	return New(f.cfg, launch, logger.NewTestLogger(), opts...)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

type recordingProgress struct {
	mu          sync.Mutex
	collections int
	resolutions []models.AttributeResult
}

func (r *recordingProgress) CollectionProgress(discovered, max, stagnant int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collections++
}

func (r *recordingProgress) ResolutionProgress(done, total int, result models.AttributeResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolutions = append(r.resolutions, result)
}

func TestRunEndToEnd(t *testing.T) {
	f := newFixture(t)
	progress := &recordingProgress{}

	summary, err := f.scraper(WithProgress(progress)).Run(context.Background(), "@natgeo", RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, "natgeo", summary.Target)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 3, summary.Collected)
	assert.Equal(t, string(collector.StopStagnated), summary.StopReason)
	assert.Equal(t, "dialog-overflow", summary.PanelLayout)
	assert.Equal(t, 2, summary.Resolved)
	assert.Equal(t, 1, summary.Unresolved)
	assert.Equal(t, map[string]int{"meta-description": 1, "embedded-data": 1}, summary.StrategyHits)
	assert.False(t, summary.Interrupted)

	rows := readCSV(t, f.cfg.Output.Path)
	assert.Equal(t, [][]string{
		{"username", "followers_count", "profile_url"},
		{"alice", "12", "https://ig.test/alice/"},
		{"bob", "7", "https://ig.test/bob/"},
		{"carol", "", "https://ig.test/carol/"},
	}, rows)

	saved, err := metadata.Load(f.cfg.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, saved.RunID)

	// checkpoint is removed once the export is written
	_, err = os.Stat(filepath.Join(f.cfg.Checkpoint.Dir, "natgeo.checkpoint.json"))
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, 1, f.launches)
	assert.True(t, f.bctx.Closed)
	assert.Len(t, f.bctx.Jar, 1)
	assert.Len(t, progress.resolutions, 3)
	assert.Positive(t, progress.collections)
}

func TestRunRequiresCredentialsBeforeLaunch(t *testing.T) {
	f := newFixture(t)
	f.cfg.Credentials.Password = ""

	_, err := f.scraper().Run(context.Background(), "natgeo", RunOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrMissingCredentials))
	assert.Equal(t, 0, f.launches)
}

func TestRunRejectsInvalidTarget(t *testing.T) {
	f := newFixture(t)

	_, err := f.scraper().Run(context.Background(), "not a user!", RunOptions{})
	require.Error(t, err)
	assert.Equal(t, 0, f.launches)
}

func TestRunDialogNeverOpens(t *testing.T) {
	f := newFixture(t)
	f.bctx.Site[instagram.ProfileURL(base, "natgeo")] = &browsertest.Document{}

	_, err := f.scraper().Run(context.Background(), "natgeo", RunOptions{})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindDialogUnavailable))

	visits := 0
	for _, url := range f.bctx.Pages[0].VisitedURLs() {
		if url == instagram.ProfileURL(base, "natgeo") {
			visits++
		}
	}
	assert.Equal(t, f.cfg.Collection.OpenAttempts, visits)

	_, err = os.Stat(f.cfg.Output.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestRunRefusesExistingCheckpoint(t *testing.T) {
	f := newFixture(t)
	mgr, err := checkpoint.NewManager(f.cfg.Checkpoint.Dir, "natgeo", nil)
	require.NoError(t, err)
	_, err = mgr.Create("natgeo", "previous")
	require.NoError(t, err)

	_, err = f.scraper().Run(context.Background(), "natgeo", RunOptions{})
	assert.ErrorIs(t, err, ErrCheckpointExists)
	assert.Equal(t, 0, f.launches)
}

func TestRunForceRestart(t *testing.T) {
	f := newFixture(t)
	mgr, err := checkpoint.NewManager(f.cfg.Checkpoint.Dir, "natgeo", nil)
	require.NoError(t, err)
	cp, err := mgr.Create("natgeo", "previous")
	require.NoError(t, err)
	require.NoError(t, mgr.RecordCollection(cp, []string{"zed"}, true, "stagnated"))

	summary, err := f.scraper().Run(context.Background(), "natgeo", RunOptions{ForceRestart: true})
	require.NoError(t, err)
	assert.False(t, summary.Resumed)
	assert.Equal(t, 3, summary.Collected)
}

func TestRunResumesFromCheckpoint(t *testing.T) {
	f := newFixture(t)
	mgr, err := checkpoint.NewManager(f.cfg.Checkpoint.Dir, "natgeo", nil)
	require.NoError(t, err)
	cp, err := mgr.Create("natgeo", "previous")
	require.NoError(t, err)
	require.NoError(t, mgr.RecordCollection(cp, []string{"alice", "bob", "carol"}, true, "max_reached"))
	require.NoError(t, mgr.RecordResolution(cp, models.AttributeResult{Identifier: "alice", Followers: models.Count(99)}))

	summary, err := f.scraper().Run(context.Background(), "natgeo", RunOptions{Resume: true})
	require.NoError(t, err)

	assert.True(t, summary.Resumed)
	assert.Equal(t, "max_reached", summary.StopReason)
	assert.Equal(t, 0, f.panel.ScrollCount())
	assert.Equal(t, []string{
		instagram.ProfileURL(base, "bob"),
		instagram.ProfileURL(base, "carol"),
	}, f.bctx.Pages[0].VisitedURLs())

	rows := readCSV(t, f.cfg.Output.Path)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"alice", "99", "https://ig.test/alice/"}, rows[1])
	assert.Equal(t, []string{"bob", "7", "https://ig.test/bob/"}, rows[2])
}

func TestRunWithCheckpointsDisabled(t *testing.T) {
	f := newFixture(t)
	f.cfg.Checkpoint.Enabled = false
	f.cfg.Output.Summary = false

	_, err := f.scraper().Run(context.Background(), "natgeo", RunOptions{})
	require.NoError(t, err)

	_, err = os.Stat(f.cfg.Checkpoint.Dir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(f.dir, "followers.summary.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunUsesExtraTabs(t *testing.T) {
	f := newFixture(t)
	f.cfg.Resolution.Concurrency = 2

	_, err := f.scraper().Run(context.Background(), "natgeo", RunOptions{})
	require.NoError(t, err)

	require.Len(t, f.bctx.Pages, 2)
	assert.True(t, f.bctx.Pages[1].Closed)
	assert.Len(t, readCSV(t, f.cfg.Output.Path), 4)
}
