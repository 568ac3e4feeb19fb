// Package cli implements the blogadmin command line: one-shot commands and an
// interactive shell on top of the session manager.
package cli

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/jrsteele09/go-blog-admin/adminapi"
	"github.com/jrsteele09/go-blog-admin/internal/config"
	"github.com/jrsteele09/go-blog-admin/internal/logging"
	"github.com/jrsteele09/go-blog-admin/session"
	"github.com/jrsteele09/go-blog-admin/store"
	"github.com/jrsteele09/go-blog-admin/store/memstore"
	"github.com/jrsteele09/go-blog-admin/store/sqlitestore"
)

const sessionExpiredNotice = "Session expired, please log in again."

// App holds what every command shares. One App serves a single command or a whole
// shell session; the ephemeral store lives exactly as long as the App.
type App struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	apiURL     string
	configPath string
	jsonOutput bool
	inShell    bool
	// shellJSON is the --json value the shell was started with.
	shellJSON bool

	cfg       config.Config
	durable   *sqlitestore.SQLiteStore
	ephemeral *memstore.MemStore
	manager   *session.Manager
	api       *adminapi.Client

	unsubscribe func()

	mu            sync.Mutex
	wasAuthed     bool
	noticeShown   bool
	newLineReader func(a *App) (lineReader, error)
}

func NewApp(in io.Reader, out, errOut io.Writer) *App {
	return &App{
		in:            in,
		out:           out,
		errOut:        errOut,
		configPath:    config.DefaultConfigPath(),
		newLineReader: defaultLineReader,
	}
}

// Execute runs args against a fresh App and returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	app := NewApp(in, out, errOut)
	defer app.Close()
	return app.Run(ctx, args)
}

// Run executes one command line. Errors are reported to errOut.
func (a *App) Run(ctx context.Context, args []string) int {
	root := a.RootCommand()
	root.SetArgs(args)
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	if err := root.ExecuteContext(ctx); err != nil {
		a.reportError(err)
		return exitCode(err)
	}
	return 0
}

// setup loads configuration and restores the session. It runs once per App.
func (a *App) setup(ctx context.Context) error {
	a.resetNotice()
	if a.manager != nil {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	logging.InitWriter(a.errOut, cfg.GetLogLevel(), cfg.GetLogFormat())

	apiURL := a.apiURL
	if apiURL == "" {
		apiURL = cfg.GetAPIURL()
	}

	durable, err := sqlitestore.Open(cfg.GetDurableStorePath())
	if err != nil {
		return err
	}
	a.durable = durable
	a.ephemeral = memstore.New()

	options := []session.Option{
		session.WithTimeout(cfg.GetRequestTimeout()),
		session.WithCoalescedRefresh(cfg.GetRefreshCoalescing()),
	}
	if limit := cfg.GetRateLimit(); limit > 0 {
		options = append(options, session.WithRateLimit(rate.Limit(limit), cfg.GetRateBurst()))
	}
	manager, err := session.New(apiURL, store.Stores{Durable: a.durable, Ephemeral: a.ephemeral}, options...)
	if err != nil {
		return err
	}
	a.manager = manager
	a.unsubscribe = manager.Subscribe(a.onStateChange)

	api, err := adminapi.New(manager)
	if err != nil {
		return err
	}
	a.api = api

	log.Debug().Str("apiURL", apiURL).Msg("restoring session")
	return manager.Initialize(ctx)
}

// onStateChange prints the expiry notice once when the server ends an active session.
func (a *App) onStateChange(s session.State) {
	a.mu.Lock()
	expired := a.wasAuthed && !s.IsAuthenticated && s.LogoutReason.Forced()
	a.wasAuthed = s.IsAuthenticated
	if expired {
		a.noticeShown = true
	}
	a.mu.Unlock()

	if expired {
		a.warnf("%s", sessionExpiredNotice)
	}
}

func (a *App) resetNotice() {
	a.mu.Lock()
	a.noticeShown = false
	a.mu.Unlock()
}

func (a *App) expiryNoticeShown() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.noticeShown
}

// Close releases the durable store and drops the ephemeral session.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.api != nil {
		a.api.Close()
	}
	if a.durable != nil {
		if err := a.durable.Close(); err != nil {
			log.Err(err).Msg("failed to close session database")
		}
	}
}

// interactive reports whether the App reads from a terminal.
func (a *App) interactive() bool {
	f, ok := a.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *App) requireSetup() error {
	if a.manager == nil || a.api == nil {
		return errors.New("[cli] session is not initialised")
	}
	return nil
}
