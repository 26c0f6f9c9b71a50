// Package services contains the application services of the authkeep client.
// This file defines the session manager: server-authenticated login/signup,
// durable caching of the resulting identity, and session queries.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mlapshin/authkeep/internal/client/client"
	"github.com/mlapshin/authkeep/internal/client/models"
	"github.com/mlapshin/authkeep/internal/client/notify"
	"github.com/mlapshin/authkeep/internal/client/repositories/audit"
	"github.com/mlapshin/authkeep/internal/client/repositories/state"
	"github.com/mlapshin/authkeep/internal/dbx"
	"github.com/mlapshin/authkeep/internal/logging"
)

// Session defines the session operations the UI layer consumes.
//
// Contract:
//   - Initialize: restore persisted state once at startup; never fails.
//   - Login/Signup: authenticate, replace the session on success, report
//     the outcome as a bool plus a notification.
//   - Logout: clear state locally, no server call, always succeeds.
//   - The queries are pure reads over in-memory state; AuditLog reads the
//     local login history.
type Session interface {
	Initialize(ctx context.Context)
	Login(ctx context.Context, email, password string) bool
	Signup(ctx context.Context, name, email, password string, role models.Role) bool
	Logout(ctx context.Context)
	CurrentUser() (models.User, bool)
	IsAdmin() bool
	IsLoading() bool
	Ready() bool
	AuditLog(ctx context.Context) ([]models.LoginRecord, error)
}

// Well-known storage keys. The session manager is the sole reader and writer
// of these; other rows in the state table belong to other components.
const (
	keyUser  = "session.user"
	keyToken = "session.token"
)

// SessionManager holds the single client-side session: at most one
// authenticated user, cached in memory and mirrored to local storage.
//
// Lifecycle: construct, Initialize once, then use. Login and Signup replace
// the session on success and leave it untouched on any failure. Overlapping
// login attempts are not mutually excluded; the last writer wins.
type SessionManager struct {
	client client.Client
	db     *sql.DB
	sink   notify.Sink
	log    logging.Logger

	// test seams
	newID func() string
	now   func() time.Time

	mu      sync.RWMutex
	user    *models.User
	ready   bool
	loading int
}

// NewSessionManager wires a session manager to its collaborators: the
// identity-service client, the local database, a notification sink, and a
// logger.
func NewSessionManager(c client.Client, db *sql.DB, sink notify.Sink, log logging.Logger) *SessionManager {
	return &SessionManager{
		client: c,
		db:     db,
		sink:   sink,
		log:    log,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

func (s *SessionManager) stateRepo(db dbx.DBTX) state.Repository {
	return state.NewSQLiteRepository(db)
}

func (s *SessionManager) auditRepo(db dbx.DBTX) audit.Repository {
	return audit.NewSQLiteRepository(db)
}

// Initialize restores a previously persisted session, if any. A stored
// record that is not valid JSON is discarded (the storage entry is removed)
// and the session starts anonymous. Initialize never fails from the caller's
// point of view; when it returns, Ready reports true.
func (s *SessionManager) Initialize(ctx context.Context) {
	s.beginLoading()
	defer func() {
		s.mu.Lock()
		s.loading--
		s.ready = true
		s.mu.Unlock()
	}()

	repo := s.stateRepo(s.db)

	data, err := repo.Get(ctx, keyUser)
	if err != nil {
		s.log.Warn(ctx, "could not read persisted session, starting anonymous", "error", err)
		return
	}
	if data == nil {
		return
	}

	var u models.User
	if err := json.Unmarshal(data, &u); err != nil {
		s.log.Warn(ctx, "discarding corrupted session record", "error", err)
		if delErr := repo.Delete(ctx, keyUser); delErr != nil {
			s.log.Error(ctx, "could not remove corrupted session record", "error", delErr)
		}
		return
	}

	// The role invariant holds even for records written by older builds.
	u.Role = models.ParseRole(string(u.Role))

	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()

	s.log.Info(ctx, "session restored", "user_id", u.ID, "role", u.Role)
}

// Login authenticates against the identity service. On success the
// normalized user replaces the current session, the record (and token, when
// issued) is persisted together with an audit entry, and true is returned.
// On any failure the prior session is left untouched, a notification
// explains what happened, and false is returned.
func (s *SessionManager) Login(ctx context.Context, email, password string) bool {
	s.beginLoading()
	defer s.endLoading()

	raw, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.reportAuthFailure(ctx, "Login failed", err)
		return false
	}

	u := models.NormalizeLogin(*raw, email, s.newID)
	if !s.commitSession(ctx, u, raw.Token) {
		return false
	}

	s.sink.Notify(notify.Notification{
		Title:       "Logged in",
		Description: "Welcome back, " + u.Name,
		Severity:    notify.SeverityInfo,
	})
	return true
}

// Signup registers a new account. The contract mirrors Login, with signup
// fallbacks: a response missing the role keeps the role that was requested,
// not RoleUser. An empty role argument requests RoleUser.
func (s *SessionManager) Signup(ctx context.Context, name, email, password string, role models.Role) bool {
	s.beginLoading()
	defer s.endLoading()

	if role == "" {
		role = models.RoleUser
	}

	raw, err := s.client.Signup(ctx, name, email, password, role)
	if err != nil {
		s.reportAuthFailure(ctx, "Signup failed", err)
		return false
	}

	u := models.NormalizeSignup(*raw, name, email, role, s.newID)
	if !s.commitSession(ctx, u, raw.Token) {
		return false
	}

	s.sink.Notify(notify.Notification{
		Title:       "Account created",
		Description: "Welcome, " + u.Name,
		Severity:    notify.SeverityInfo,
	})
	return true
}

// commitSession persists the user, token, and audit record in one
// transaction and then swaps the in-memory session. A storage failure rolls
// everything back and counts as an authentication failure.
func (s *SessionManager) commitSession(ctx context.Context, u models.User, token string) bool {
	data, err := json.Marshal(u)
	if err != nil {
		s.log.Error(ctx, "could not encode session record", "error", err)
		s.notifyError("Login failed", "could not save the session locally")
		return false
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.stateRepo(tx)

		if err := repo.Set(ctx, keyUser, data); err != nil {
			return err
		}

		if token != "" {
			if err := repo.Set(ctx, keyToken, []byte(token)); err != nil {
				return err
			}
		} else if err := repo.Delete(ctx, keyToken); err != nil {
			return err
		}

		return s.auditRepo(tx).Append(ctx, models.LoginRecord{
			UserID: u.ID,
			Email:  u.Email,
			At:     s.now(),
		})
	})
	if err != nil {
		s.log.Error(ctx, "could not persist session", "error", err)
		s.notifyError("Login failed", "could not save the session locally")
		return false
	}

	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()

	s.log.Info(ctx, "session established", "user_id", u.ID, "role", u.Role)
	return true
}

// Logout clears the current session and removes the persisted record and
// token. No server call is made. Logging out while anonymous is a no-op.
func (s *SessionManager) Logout(ctx context.Context) {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.stateRepo(tx)
		if err := repo.Delete(ctx, keyUser); err != nil {
			return err
		}
		return repo.Delete(ctx, keyToken)
	})
	if err != nil {
		// The in-memory session is cleared regardless; the stale record
		// will be overwritten by the next successful login.
		s.log.Error(ctx, "could not remove persisted session", "error", err)
	}

	s.mu.Lock()
	wasAuthenticated := s.user != nil
	s.user = nil
	s.mu.Unlock()

	if wasAuthenticated {
		s.sink.Notify(notify.Notification{
			Title:    "Logged out",
			Severity: notify.SeverityInfo,
		})
	}
}

// CurrentUser returns the authenticated user, or false while anonymous.
func (s *SessionManager) CurrentUser() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// IsAdmin reports whether the current session carries the admin role.
// It is false while anonymous.
func (s *SessionManager) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsAdmin()
}

// IsLoading is true while Initialize or any login/signup call is in flight.
// State queried while loading may be superseded the moment the call ends.
func (s *SessionManager) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// Ready reports whether Initialize has completed.
func (s *SessionManager) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// AuditLog returns the login history recorded on this device, oldest first.
func (s *SessionManager) AuditLog(ctx context.Context) ([]models.LoginRecord, error) {
	return s.auditRepo(s.db).List(ctx)
}

func (s *SessionManager) beginLoading() {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()
}

func (s *SessionManager) endLoading() {
	s.mu.Lock()
	s.loading--
	s.mu.Unlock()
}

// reportAuthFailure maps the client error taxonomy onto user-facing
// notifications. Connectivity problems are reported distinctly from
// rejected credentials.
func (s *SessionManager) reportAuthFailure(ctx context.Context, title string, err error) {
	var description string
	switch {
	case errors.Is(err, client.ErrUnavailable):
		description = "cannot reach the server, check your connection"
	case errors.Is(err, client.ErrMalformedResponse):
		description = "the server returned an unexpected response"
	default:
		description = client.ServerMessage(err)
		if description == "" {
			description = "invalid credentials"
		}
	}

	s.log.Warn(ctx, "authentication attempt failed", "error", err)
	s.notifyError(title, description)
}

func (s *SessionManager) notifyError(title, description string) {
	s.sink.Notify(notify.Notification{
		Title:       title,
		Description: description,
		Severity:    notify.SeverityError,
	})
}
