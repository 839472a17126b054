package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/sentiview/internal/client"
	"github.com/wolfeidau/sentiview/internal/config"
	"github.com/wolfeidau/sentiview/internal/credentials"
	"github.com/wolfeidau/sentiview/internal/guard"
	"github.com/wolfeidau/sentiview/internal/session"
)

// ErrNotLoggedIn is returned by commands behind a protected route.
var ErrNotLoggedIn = errors.New("not logged in, run 'sentiview login' first")

type Globals struct {
	Debug     bool
	Version   string
	Server    string
	ConfigDir string
	Timeout   time.Duration
	NoCache   bool

	Logger zerolog.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (g *Globals) stdout() io.Writer {
	if g.Stdout != nil {
		return g.Stdout
	}
	return os.Stdout
}

func (g *Globals) stderr() io.Writer {
	if g.Stderr != nil {
		return g.Stderr
	}
	return os.Stderr
}

func (g *Globals) stdin() io.Reader {
	if g.Stdin != nil {
		return g.Stdin
	}
	return os.Stdin
}

// app is the wiring shared by every command: settings, token store,
// backend client and a session that has finished startup verification.
type app struct {
	settings config.Settings
	store    *credentials.FileStore
	client   *client.Client
	session  *session.Manager
	out      io.Writer
	prompt   *prompter
}

func newApp(ctx context.Context, globals *Globals) (*app, error) {
	dir, file, err := loadConfig(globals)
	if err != nil {
		return nil, err
	}
	settings := config.Resolve(dir, file, globals.Server, globals.Timeout, globals.NoCache)

	store, err := credentials.NewFileStore(settings.CredentialsDir())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token store: %w", err)
	}

	cfg := client.DefaultConfig()
	cfg.ServerURL = settings.Server
	cfg.Timeout = settings.Timeout
	cfg.CacheDir = settings.CacheDir()
	cfg.NoCache = !settings.Cache
	cfg.Logger = &globals.Logger

	api, err := client.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	mgr := session.New(api, store, session.WithLogger(globals.Logger))
	mgr.StartupVerify(ctx)

	globals.Logger.Debug().
		Str("server", settings.Server).
		Str("store", store.Path()).
		Bool("authenticated", mgr.State().IsAuthenticated()).
		Msg("session ready")

	return &app{
		settings: settings,
		store:    store,
		client:   api,
		session:  mgr,
		out:      globals.stdout(),
		prompt:   newPrompter(globals.stdin(), globals.stderr()),
	}, nil
}

// close waits for background logout notifications.
func (a *app) close() {
	a.session.Wait()
}

// visit runs the route guards for path and returns the view to show.
// A protected view that bounces to the login form is ErrNotLoggedIn.
func (a *app) visit(path string) (string, error) {
	final, d := guard.Follow(path, a.session.State())
	if d.Outcome == guard.Loading {
		return "", errors.New("session verification has not finished")
	}
	if final == guard.LoginPath && path != guard.LoginPath {
		return "", ErrNotLoggedIn
	}
	return final, nil
}

// require is visit for protected views, returning the session to act as.
func (a *app) require(path string) (session.Snapshot, error) {
	if _, err := a.visit(path); err != nil {
		return session.Snapshot{}, err
	}
	return a.session.State(), nil
}
