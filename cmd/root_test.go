package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Johannes-Berggren/hydrasect/internal/git"
	"github.com/Johannes-Berggren/hydrasect/internal/history"
)

type testEnv struct {
	*env
	stdout, stderr bytes.Buffer
	copied         []string
	vars           map[string]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	te := &testEnv{vars: map[string]string{
		"XDG_CONFIG_HOME": t.TempDir(),
		"XDG_CACHE_HOME":  t.TempDir(),
	}}
	te.env = &env{
		stdin:      strings.NewReader(""),
		stdout:     &te.stdout,
		stderr:     &te.stderr,
		getenv:     func(k string) string { return te.vars[k] },
		isTerminal: func(any) bool { return false },
		copy: func(s string) error {
			te.copied = append(te.copied, s)
			return nil
		},
	}
	return te
}

func (te *testEnv) run(args ...string) error {
	root := newRootCmd(te.env)
	root.SetArgs(args)
	return root.Execute()
}

// bisection is a five commit line c0..c4 with c4 marked bad, c0 marked
// good and HEAD detached at c2.
type bisection struct {
	dir     string
	commits []plumbing.Hash
}

func newBisection(t *testing.T) *bisection {
	t.Helper()
	dir := t.TempDir()
	r, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := r.Worktree()
	require.NoError(t, err)

	b := &bisection{dir: dir}
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		sig := &object.Signature{Name: "hydrasect", Email: "hydrasect@example.com", When: when.Add(time.Duration(i) * time.Minute)}
		h, err := wt.Commit("commit", &gogit.CommitOptions{Author: sig, Committer: sig, AllowEmptyCommits: true})
		require.NoError(t, err)
		b.commits = append(b.commits, h)
	}

	setRef := func(name plumbing.ReferenceName, h plumbing.Hash) {
		require.NoError(t, r.Storer.SetReference(plumbing.NewHashReference(name, h)))
	}
	setRef(git.BadRef, b.commits[4])
	setRef(plumbing.ReferenceName(git.GoodRefPrefix+b.commits[0].String()), b.commits[0])
	setRef(plumbing.HEAD, b.commits[2])
	return b
}

// writeHistory records the given commits, oldest first.
func writeHistory(t *testing.T, path string, ids ...plumbing.Hash) {
	t.Helper()
	var buf bytes.Buffer
	for i, id := range ids {
		fmt.Fprintf(&buf, "%s %d\n", id, 1700000000+i)
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestSearch(t *testing.T) {
	b := newBisection(t)
	c := b.commits
	te := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "history")
	// The last record is the bad commit itself, so the file is current.
	writeHistory(t, path, c[1], c[3], c[4])

	require.NoError(t, te.run("-C", b.dir, "--backend", "go-git", "--history-file", path, "--copy"))

	want := []string{c[1].String(), c[3].String()}
	if want[0] > want[1] {
		want[0], want[1] = want[1], want[0]
	}
	assert.Equal(t, strings.Join(want, "\n")+"\n", te.stdout.String())
	assert.Equal(t, []string{strings.Join(want, "\n")}, te.copied)
}

func TestSearch_SkippedCommit(t *testing.T) {
	b := newBisection(t)
	c := b.commits
	r, err := gogit.PlainOpen(b.dir)
	require.NoError(t, err)
	require.NoError(t, r.Storer.SetReference(plumbing.NewHashReference(plumbing.ReferenceName(git.SkipRefPrefix+c[3].String()), c[3])))

	te := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "history")
	writeHistory(t, path, c[3], c[4])

	require.NoError(t, te.run("-C", b.dir, "--backend", "go-git", "--history-file", path))
	assert.Empty(t, te.stdout.String(), "the only nearby evaluation was skipped")
	assert.Empty(t, te.copied)
}

func TestSearch_HistoryMissing(t *testing.T) {
	b := newBisection(t)
	te := newTestEnv(t)

	err := te.run("-C", b.dir, "--backend", "go-git")
	assert.ErrorIs(t, err, history.ErrHistoryMissing)
}

func TestSearch_InvalidFlags(t *testing.T) {
	te := newTestEnv(t)
	err := te.run("--source", "ftp")
	assert.ErrorContains(t, err, "invalid config: source")

	err = te.run("--max-age", "0s")
	assert.ErrorContains(t, err, "invalid config: max_age")

	err = te.run("extra")
	assert.Error(t, err)
}

func TestSearch_ConfigFile(t *testing.T) {
	te := newTestEnv(t)
	cfg := filepath.Join(t.TempDir(), "hydrasect.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("backend: svn\n"), 0o644))
	assert.ErrorContains(t, te.run("--config", cfg), "backend")

	assert.ErrorContains(t, te.run("--config", filepath.Join(t.TempDir(), "missing.yaml")), "opening config")
}

func TestSearch_BadLogLevel(t *testing.T) {
	te := newTestEnv(t)
	te.vars["HYDRASECT_LOG"] = "chatty"
	assert.ErrorContains(t, te.run(), "unknown level")
}

func TestScrape_Channel(t *testing.T) {
	const body = "0011f9065a1ad1da4db67bec8d535d91b0a78fba 1700000000\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	te := newTestEnv(t)
	dir := filepath.Join(te.vars["XDG_CONFIG_HOME"], "hydrasect")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("channel_url: "+srv.URL+"\n"), 0o644))

	require.NoError(t, te.run("scrape"))

	got, err := os.ReadFile(filepath.Join(te.vars["XDG_CACHE_HOME"], "hydrasect", "hydra-eval-history"))
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
	assert.Contains(t, te.stderr.String(), "page 1/1")
}

func TestScrape_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	te := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "history")

	cfg := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("channel_url: "+srv.URL+"\n"), 0o644))

	err := te.run("scrape", "--config", cfg, "--history-file", path)
	assert.ErrorContains(t, err, "410")
	assert.NoFileExists(t, path)
}

func TestBrowse_NeedsTerminal(t *testing.T) {
	te := newTestEnv(t)
	assert.ErrorIs(t, te.run("browse"), errNoTerminal)
}

func TestSnapshot(t *testing.T) {
	b := newBisection(t)
	c := b.commits
	te := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "history")
	writeHistory(t, path, c[1], c[4])

	root := newRootCmd(te.env)
	require.NoError(t, root.ParseFlags([]string{"--backend", "go-git", "--history-file", path}))
	opts := &options{dir: b.dir, backend: "go-git", historyFile: path}
	a, err := newApp(root, opts, te.env)
	require.NoError(t, err)

	snap, err := a.snapshot(t.Context())
	require.NoError(t, err)
	assert.Equal(t, c[4].String(), snap.Bad.String())
	assert.Equal(t, c[2].String(), snap.Head.String())
	require.Len(t, snap.Rows, 4)
	assert.Equal(t, c[2].String(), snap.Rows[0].ID.String())
	assert.True(t, snap.Rows[0].Head)
	assert.Equal(t, c[4].String(), snap.Rows[3].ID.String())
	assert.True(t, snap.Rows[3].Bad)
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, "hydrasect", errors.New(`"gh" cannot be parsed as an octet`), false)
	assert.Equal(t, "hydrasect: \"gh\" cannot be parsed as an octet\n", buf.String())

	buf.Reset()
	printError(&buf, "/usr/bin/hydrasect", errors.New("boom"), true)
	assert.Contains(t, buf.String(), "/usr/bin/hydrasect")
	assert.True(t, strings.HasSuffix(buf.String(), ": boom\n"))
}
