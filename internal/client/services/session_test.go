package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlapshin/authkeep/internal/client/client"
	"github.com/mlapshin/authkeep/internal/client/models"
	"github.com/mlapshin/authkeep/internal/client/notify"
	"github.com/mlapshin/authkeep/internal/logging"

	_ "modernc.org/sqlite"
)

// ---- helpers ----

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE state (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);
CREATE TABLE login_events (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id    TEXT NOT NULL,
  email      TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func getState(t *testing.T, db *sql.DB, key string) []byte {
	t.Helper()
	var v []byte
	err := db.QueryRow(`SELECT value FROM state WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return nil
	}
	require.NoError(t, err)
	return v
}

func setState(t *testing.T, db *sql.DB, key string, value []byte) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO state (key, value) VALUES (?, ?)`, key, value)
	require.NoError(t, err)
}

func countAuditRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM login_events`).Scan(&n))
	return n
}

// ---- fake client ----

// fakeClient implements client.Client for session manager unit tests.
type fakeClient struct {
	LoginRaw *models.RawIdentity
	LoginErr error

	SignupRaw *models.RawIdentity
	SignupErr error

	LastLoginEmail    string
	LastLoginPassword string

	LastSignupName  string
	LastSignupEmail string
	LastSignupRole  models.Role
}

func (f *fakeClient) Close() error                  { return nil }
func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) Login(ctx context.Context, email, password string) (*models.RawIdentity, error) {
	f.LastLoginEmail = email
	f.LastLoginPassword = password
	return f.LoginRaw, f.LoginErr
}

func (f *fakeClient) Signup(ctx context.Context, name, email, password string, role models.Role) (*models.RawIdentity, error) {
	f.LastSignupName = name
	f.LastSignupEmail = email
	f.LastSignupRole = role
	return f.SignupRaw, f.SignupErr
}

func newManager(t *testing.T) (*SessionManager, *fakeClient, *notify.MemorySink, *sql.DB) {
	t.Helper()
	db := setupDB(t)
	fc := &fakeClient{}
	sink := &notify.MemorySink{}
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	sm := NewSessionManager(fc, db, sink, log)
	sm.newID = func() string { return "gen-id" }
	sm.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return sm, fc, sink, db
}

// ---- initialize ----

func TestInitialize_EmptyStorage_StartsAnonymous(t *testing.T) {
	sm, _, _, _ := newManager(t)

	require.False(t, sm.Ready())
	sm.Initialize(context.Background())

	require.True(t, sm.Ready())
	assert.False(t, sm.IsLoading())
	_, ok := sm.CurrentUser()
	assert.False(t, ok)
	assert.False(t, sm.IsAdmin())
}

func TestInitialize_RestoresPersistedSession(t *testing.T) {
	sm, _, _, db := newManager(t)
	stored := models.User{ID: "u1", Email: "a@b.com", Name: "A", Role: models.RoleAdmin}
	data, err := json.Marshal(stored)
	require.NoError(t, err)
	setState(t, db, "session.user", data)

	sm.Initialize(context.Background())

	u, ok := sm.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, stored, u)
	assert.True(t, sm.IsAdmin())
}

func TestInitialize_CorruptedRecord_DiscardedAndRemoved(t *testing.T) {
	sm, _, _, db := newManager(t)
	setState(t, db, "session.user", []byte("definitely not json"))

	sm.Initialize(context.Background())

	_, ok := sm.CurrentUser()
	assert.False(t, ok)
	assert.Nil(t, getState(t, db, "session.user"))
	assert.True(t, sm.Ready())
}

func TestInitialize_UnknownStoredRoleClampedToUser(t *testing.T) {
	sm, _, _, db := newManager(t)
	setState(t, db, "session.user", []byte(`{"id":"u1","email":"a@b.com","name":"A","role":"root"}`))

	sm.Initialize(context.Background())

	u, ok := sm.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, models.RoleUser, u.Role)
}

// ---- login ----

func TestLogin_FullResponse_EstablishesSession(t *testing.T) {
	sm, fc, sink, db := newManager(t)
	fc.LoginRaw = &models.RawIdentity{ID: "u1", Email: "a@b.com", Name: "A", Role: "admin", Token: "t1"}
	sm.Initialize(context.Background())

	ok := sm.Login(context.Background(), "a@b.com", "x")

	require.True(t, ok)
	assert.Equal(t, "a@b.com", fc.LastLoginEmail)
	assert.Equal(t, "x", fc.LastLoginPassword)

	u, present := sm.CurrentUser()
	require.True(t, present)
	assert.Equal(t, models.User{ID: "u1", Email: "a@b.com", Name: "A", Role: models.RoleAdmin}, u)
	assert.True(t, sm.IsAdmin())

	assert.Equal(t, []byte("t1"), getState(t, db, "session.token"))
	assert.Equal(t, 1, countAuditRows(t, db))

	n, _ := sink.Last()
	assert.Equal(t, notify.SeverityInfo, n.Severity)
}

func TestLogin_SparseResponse_DefaultsApplied(t *testing.T) {
	sm, fc, _, db := newManager(t)
	fc.LoginRaw = &models.RawIdentity{}
	sm.Initialize(context.Background())

	require.True(t, sm.Login(context.Background(), "jane.doe@example.org", "pw"))

	u, _ := sm.CurrentUser()
	assert.Equal(t, "gen-id", u.ID)
	assert.Equal(t, "jane.doe@example.org", u.Email)
	assert.Equal(t, "jane.doe", u.Name)
	assert.Equal(t, models.RoleUser, u.Role)

	// no token issued, none stored
	assert.Nil(t, getState(t, db, "session.token"))
}

func TestLogin_Rejected_PriorSessionUntouched(t *testing.T) {
	sm, fc, sink, db := newManager(t)
	prior := models.User{ID: "u0", Email: "old@b.com", Name: "Old", Role: models.RoleUser}
	data, _ := json.Marshal(prior)
	setState(t, db, "session.user", data)
	sm.Initialize(context.Background())

	fc.LoginErr = &client.StatusError{Code: 401, Message: "bad password"}

	ok := sm.Login(context.Background(), "a@b.com", "wrong")

	require.False(t, ok)
	u, present := sm.CurrentUser()
	require.True(t, present)
	assert.Equal(t, prior, u)

	n, got := sink.Last()
	require.True(t, got)
	assert.Equal(t, notify.SeverityError, n.Severity)
	assert.Equal(t, "bad password", n.Description)

	assert.Equal(t, 0, countAuditRows(t, db))
}

func TestLogin_RejectedWithoutMessage_GenericText(t *testing.T) {
	sm, fc, sink, _ := newManager(t)
	sm.Initialize(context.Background())
	fc.LoginErr = &client.StatusError{Code: 403}

	require.False(t, sm.Login(context.Background(), "a@b.com", "x"))

	n, _ := sink.Last()
	assert.Equal(t, "invalid credentials", n.Description)
}

func TestLogin_ServerUnreachable_ConnectivityText(t *testing.T) {
	sm, fc, sink, _ := newManager(t)
	sm.Initialize(context.Background())
	fc.LoginErr = client.ErrUnavailable

	require.False(t, sm.Login(context.Background(), "a@b.com", "x"))

	n, _ := sink.Last()
	assert.Equal(t, notify.SeverityError, n.Severity)
	assert.Contains(t, n.Description, "cannot reach the server")
}

func TestLogin_MalformedResponse_ReportedAsFailure(t *testing.T) {
	sm, fc, sink, _ := newManager(t)
	sm.Initialize(context.Background())
	fc.LoginErr = client.ErrMalformedResponse

	require.False(t, sm.Login(context.Background(), "a@b.com", "x"))

	_, ok := sm.CurrentUser()
	assert.False(t, ok)
	n, _ := sink.Last()
	assert.Contains(t, n.Description, "unexpected response")
}

func TestLogin_TokenFromEarlierSessionRemoved(t *testing.T) {
	sm, fc, _, db := newManager(t)
	setState(t, db, "session.token", []byte("stale"))
	fc.LoginRaw = &models.RawIdentity{ID: "u1"}
	sm.Initialize(context.Background())

	require.True(t, sm.Login(context.Background(), "a@b.com", "x"))

	assert.Nil(t, getState(t, db, "session.token"))
}

// ---- signup ----

func TestSignup_MissingRole_KeepsRequestedRole(t *testing.T) {
	sm, fc, _, _ := newManager(t)
	fc.SignupRaw = &models.RawIdentity{ID: "u2"}
	sm.Initialize(context.Background())

	ok := sm.Signup(context.Background(), "Jo", "j@x.com", "p", models.RoleAdmin)

	require.True(t, ok)
	assert.Equal(t, models.RoleAdmin, fc.LastSignupRole)

	u, _ := sm.CurrentUser()
	assert.Equal(t, models.User{ID: "u2", Email: "j@x.com", Name: "Jo", Role: models.RoleAdmin}, u)
}

func TestSignup_EmptyRoleArgument_RequestsUser(t *testing.T) {
	sm, fc, _, _ := newManager(t)
	fc.SignupRaw = &models.RawIdentity{ID: "u3"}
	sm.Initialize(context.Background())

	require.True(t, sm.Signup(context.Background(), "Jo", "j@x.com", "p", ""))

	assert.Equal(t, models.RoleUser, fc.LastSignupRole)
	u, _ := sm.CurrentUser()
	assert.Equal(t, models.RoleUser, u.Role)
}

func TestSignup_Rejected_ReturnsFalse(t *testing.T) {
	sm, fc, _, _ := newManager(t)
	sm.Initialize(context.Background())
	fc.SignupErr = &client.StatusError{Code: 409, Message: "email already registered"}

	require.False(t, sm.Signup(context.Background(), "Jo", "j@x.com", "p", models.RoleUser))

	_, ok := sm.CurrentUser()
	assert.False(t, ok)
}

// ---- logout ----

func TestLogout_ClearsSessionAndStorage(t *testing.T) {
	sm, fc, _, db := newManager(t)
	fc.LoginRaw = &models.RawIdentity{ID: "u1", Token: "t1"}
	sm.Initialize(context.Background())
	require.True(t, sm.Login(context.Background(), "a@b.com", "x"))

	sm.Logout(context.Background())

	_, ok := sm.CurrentUser()
	assert.False(t, ok)
	assert.False(t, sm.IsAdmin())
	assert.Nil(t, getState(t, db, "session.user"))
	assert.Nil(t, getState(t, db, "session.token"))
}

func TestLogout_WhileAnonymous_Idempotent(t *testing.T) {
	sm, _, sink, db := newManager(t)
	sm.Initialize(context.Background())

	sm.Logout(context.Background())
	sm.Logout(context.Background())

	_, ok := sm.CurrentUser()
	assert.False(t, ok)
	assert.Nil(t, getState(t, db, "session.user"))

	// no feedback when there was nothing to log out of
	_, got := sink.Last()
	assert.False(t, got)
}

// ---- round trip ----

func TestRoundTrip_PersistedSessionSurvivesRestart(t *testing.T) {
	sm, fc, _, db := newManager(t)
	fc.LoginRaw = &models.RawIdentity{ID: "u1", Email: "a@b.com", Name: "A", Role: "admin", Token: "t1"}
	sm.Initialize(context.Background())
	require.True(t, sm.Login(context.Background(), "a@b.com", "x"))
	before, _ := sm.CurrentUser()

	// a fresh manager over the same database stands in for a process restart
	restarted := NewSessionManager(fc, db, &notify.MemorySink{}, sm.log)
	restarted.Initialize(context.Background())

	after, ok := restarted.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, before, after)
}

// ---- audit ----

func TestAuditLog_RecordsEverySuccessfulAuthentication(t *testing.T) {
	sm, fc, _, _ := newManager(t)
	fc.LoginRaw = &models.RawIdentity{ID: "u1", Email: "a@b.com"}
	fc.SignupRaw = &models.RawIdentity{ID: "u2"}
	sm.Initialize(context.Background())

	require.True(t, sm.Login(context.Background(), "a@b.com", "x"))
	require.True(t, sm.Signup(context.Background(), "Jo", "j@x.com", "p", models.RoleUser))

	recs, err := sm.AuditLog(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "u1", recs[0].UserID)
	assert.Equal(t, "u2", recs[1].UserID)
	assert.True(t, recs[0].At.Equal(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
}
