package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/realty-crm/internal/app"
	"github.com/txn2/realty-crm/pkg/actor/memory"
	"github.com/txn2/realty-crm/pkg/localstore"
)

const (
	testAdmin = "admin-1"
	testAgent = "agent-asha"
)

// session runs commands against one shared backend and store so state
// survives between invocations, as it would with a remote backend.
type session struct {
	t       *testing.T
	config  string
	backend *memory.Backend
	store   localstore.Store
}

func newSession(t *testing.T, yaml string) *session {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return &session{
		t:       t,
		config:  path,
		backend: memory.NewBackend(memory.WithAdmins(testAdmin)),
		store:   localstore.NewMemoryStore(),
	}
}

const memoryYAML = `
actor:
  backend: memory
storage:
  backend: memory
logging:
  level: error
`

func (s *session) run(args ...string) (string, string, error) {
	s.t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"--config", s.config}, args...)
	err := Run(context.Background(), args, &stdout, &stderr,
		app.WithMemoryBackend(s.backend), app.WithStore(s.store))
	return stdout.String(), stderr.String(), err
}

func (s *session) mustRun(args ...string) string {
	s.t.Helper()
	stdout, stderr, err := s.run(args...)
	require.NoError(s.t, err, "stderr: %s", stderr)
	return stdout
}

func (s *session) login(sub string) {
	s.t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).SignedString([]byte("unused"))
	require.NoError(s.t, err)
	assert.Contains(s.t, s.mustRun("login", tok), "Logged in as "+sub)
}

func TestRootCommand(t *testing.T) {
	cmd, _ := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "realty-crm", cmd.Use)

	for _, name := range []string{"login", "logout", "whoami", "profile", "leads", "metrics", "attendance", "customer", "audit"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd, _ := NewRootCommand()

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	s := newSession(t, memoryYAML)
	_, _, err := s.run("--format", "xml", "whoami")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestBadConfig(t *testing.T) {
	s := newSession(t, "actor:\n  backend: http\n")
	_, stderr, err := s.run("whoami")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "actor.endpoint is required")
}

func TestWhoami_LoggedOut(t *testing.T) {
	s := newSession(t, memoryYAML)
	assert.Contains(t, s.mustRun("whoami"), "Not logged in")
}

func TestLeadsWorkflow(t *testing.T) {
	s := newSession(t, memoryYAML)
	s.login(testAdmin)
	assert.Contains(t, s.mustRun("whoami"), "admin-1 (admin)")

	stdout, stderr, err := s.run("leads", "create", "--name", "Ravi", "--phone", "9876543210")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created lead 1")
	assert.Contains(t, stderr, "ok: Lead created successfully")

	s.mustRun("leads", "create", "--name", "Kiran", "--status", "qualified")

	list := s.mustRun("leads", "list")
	assert.Contains(t, list, "Ravi")
	assert.Contains(t, list, "Kiran")

	qualified := s.mustRun("leads", "list", "--status", "qualified")
	assert.Contains(t, qualified, "Kiran")
	assert.NotContains(t, qualified, "Ravi")

	paged := s.mustRun("leads", "list", "--page", "2", "--size", "1")
	assert.Contains(t, paged, "Kiran")
	assert.NotContains(t, paged, "Ravi")

	var resp struct {
		Status string `json:"status"`
		Data   []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(s.mustRun("--format", "json", "leads", "list")), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Ravi", resp.Data[0].Name)

	assert.Contains(t, s.mustRun("metrics"), "Leads:              2")
}

func TestLeadsCreate_ValidationFailure(t *testing.T) {
	s := newSession(t, memoryYAML)
	s.login(testAdmin)

	_, stderr, err := s.run("leads", "create", "--name", " ")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "error: Failed to create lead")
	assert.Contains(t, stderr, "Error [validation]")
}

func TestProfileAndAttendance(t *testing.T) {
	s := newSession(t, memoryYAML)
	s.login(testAgent)

	assert.Contains(t, s.mustRun("profile", "show"), "No profile saved")
	s.mustRun("profile", "save", "--name", "Asha", "--contact", "9000000001")
	show := s.mustRun("profile", "show")
	assert.Contains(t, show, "Name:    Asha")
	assert.Contains(t, show, "Contact: 9000000001")

	photo := filepath.Join(t.TempDir(), "face.jpg")
	require.NoError(t, os.WriteFile(photo, []byte("photo-bytes"), 0o600))

	assert.Contains(t, s.mustRun("attendance", "check-in", "--photo", photo, "--lat", "19.07", "--lng", "72.87"), "Checked in")
	assert.Contains(t, s.mustRun("attendance", "records"), "open")

	_, _, err := s.run("attendance", "check-in", "--photo", photo, "--lat", "19.07", "--lng", "72.87")
	require.Error(t, err)

	assert.Contains(t, s.mustRun("attendance", "check-out"), "Checked out")
	assert.NotContains(t, s.mustRun("attendance", "records"), "open")

	_, stderr, err := s.run("attendance", "check-out")
	require.Error(t, err)
	assert.Contains(t, stderr, "Failed to record check-out")
}

func TestAttendance_MissingPhoto(t *testing.T) {
	s := newSession(t, memoryYAML)
	s.login(testAgent)
	_, _, err := s.run("attendance", "check-in", "--photo", filepath.Join(t.TempDir(), "none.jpg"), "--lat", "1", "--lng", "2")
	assert.Error(t, err)
}

func TestLogout(t *testing.T) {
	s := newSession(t, memoryYAML)
	s.login(testAgent)
	assert.Contains(t, s.mustRun("logout"), "Logged out")
	assert.Contains(t, s.mustRun("whoami"), "Not logged in")
}

func TestCustomerPortal(t *testing.T) {
	s := newSession(t, memoryYAML)

	assert.Contains(t, s.mustRun("customer", "status"), "Not signed in")

	_, _, err := s.run("customer", "login", "9876543210")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")

	assert.Contains(t, s.mustRun("customer", "register", "--name", "Meera", "--phone", "9876543210"), "Registered")
	assert.Contains(t, s.mustRun("customer", "status"), "Signed in as 9876543210")

	assert.Contains(t, s.mustRun("customer", "ask", "Looking for a 2BHK", "--type", "sale"),
		"Your Query has been submitted, Team will contact you shortly.")

	s.mustRun("customer", "logout")
	assert.Contains(t, s.mustRun("customer", "status"), "Not signed in")

	_, _, err = s.run("customer", "ask", "hello")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, s.mustRun("customer", "login", "9876543210"), "Signed in as Meera")
}

func TestCustomerRegister_Invalid(t *testing.T) {
	s := newSession(t, memoryYAML)
	_, _, err := s.run("customer", "register", "--name", "Meera", "--phone", "12345")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Phone number must be exactly 10 digits")
}

func TestAudit(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := newSession(t, memoryYAML)
		_, _, err := s.run("audit", "list")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("in-memory log", func(t *testing.T) {
		s := newSession(t, memoryYAML+"audit:\n  enabled: true\n")
		s.login(testAdmin)
		s.mustRun("leads", "create", "--name", "Ravi")

		// Each invocation has its own in-memory log, so only this run's
		// mutations are listed.
		assert.Contains(t, s.mustRun("audit", "list"), "No audit events")

		_, _, err := s.run("audit", "breakdown")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "postgres audit store")
	})
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))

	wrapped := WrapExitError(ExitCommandError, "loading", assert.AnError)
	assert.Equal(t, "loading: "+assert.AnError.Error(), wrapped.Error())
	assert.ErrorIs(t, wrapped, assert.AnError)
}
