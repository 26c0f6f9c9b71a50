package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mlapshin/authkeep/internal/client/client"
	"github.com/mlapshin/authkeep/internal/client/config"
	"github.com/mlapshin/authkeep/internal/client/notify"
	"github.com/mlapshin/authkeep/internal/client/services"
	"github.com/mlapshin/authkeep/internal/logging"

	_ "modernc.org/sqlite"
)

// Mode reflects the last known reachability of the identity service.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

type App struct {
	config  *config.Config
	session services.Session
	api     client.Client
	db      *sql.DB
	log     logging.Logger
	reader  *bufio.Reader

	modeMu sync.Mutex
	mode   Mode
}

// NewApp opens the local database, builds the HTTP client and session
// manager, and returns an App ready to Run.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient := client.NewHTTPClient(c.ServerEndpointURL)
	sink := notify.NewLogSink(log)
	session := services.NewSessionManager(apiClient, db, sink, log)

	return &App{
		config:  c,
		session: session,
		api:     apiClient,
		db:      db,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Run restores any persisted session, starts the reachability watcher, and
// hands control to the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.session.Initialize(ctx)

	go a.startOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

// Close releases the App's resources. Safe to call once.
func (a *App) Close() {
	if err := a.api.Close(); err != nil {
		a.log.Warn(context.Background(), "error closing api client", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn(context.Background(), "error closing database", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	_, ok := a.session.CurrentUser()
	return ok
}

func (a *App) getStatus() string {
	s := ""
	if u, ok := a.session.CurrentUser(); ok {
		s = u.Email + " "
	}
	if m := a.getMode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) getMode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.log.Info(ctx, "connectivity changed", "mode", mode)
	}
}

// startOnlineStatusWatcher periodically pings the identity service and
// flips the online/offline indicator shown in the prompt.
func (a *App) startOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.api.Ping(pingCtx)
			cancel()

			if err != nil {
				a.setMode(ctx, ModeOffline)
			} else {
				a.setMode(ctx, ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
