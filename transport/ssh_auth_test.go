package transport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ncerr "gossl/internal/errors"
	"gossl/util"
)

func authLogger() *util.Logger { return util.NewLogger(util.LogNone) }

func TestBuildAuthMethods_MissingKey(t *testing.T) {
	cfg := &SSHConfig{KeyPath: "/nonexistent/path/id_ed25519"}
	if _, err := BuildAuthMethods(cfg, authLogger()); err == nil {
		t.Fatal("expected error for missing key file")
	}
}

func TestBuildAuthMethods_BadKey(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "id_bad")
	if err := os.WriteFile(keyPath, []byte("not a private key"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := &SSHConfig{KeyPath: keyPath}
	_, err := BuildAuthMethods(cfg, authLogger())
	if err == nil {
		t.Fatal("expected error for unparseable key")
	}
	if !strings.Contains(err.Error(), keyPath) {
		t.Errorf("error %q should name the key file", err)
	}
}

func TestBuildAuthMethods_AgentWithoutSocket(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	cfg := &SSHConfig{UseAgent: true}
	_, err := BuildAuthMethods(cfg, authLogger())
	if err == nil {
		t.Fatal("expected error when SSH_AUTH_SOCK is unset")
	}
	if !strings.Contains(err.Error(), "SSH_AUTH_SOCK") {
		t.Errorf("error %q should mention the missing socket", err)
	}
}

func TestBuildAuthMethods_NothingAvailable(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	t.Setenv("HOME", t.TempDir()) // no ~/.ssh keys to discover

	_, err := BuildAuthMethods(&SSHConfig{}, authLogger())
	if err == nil {
		t.Fatal("expected error when no authentication is available")
	}
	var cerr *ncerr.ConfigError
	if !ncerr.As(err, &cerr) {
		t.Fatalf("error %T should be a ConfigError", err)
	}
	if !strings.Contains(cerr.Hint, "--ssh-key") {
		t.Errorf("hint %q should point at the auth flags", cerr.Hint)
	}
}

func TestHostKeyCallback_Insecure(t *testing.T) {
	cb, err := hostKeyCallback(&SSHConfig{StrictHostKey: false}, authLogger())
	if err != nil {
		t.Fatalf("hostKeyCallback: %v", err)
	}
	if cb == nil {
		t.Fatal("expected a callback")
	}
}

func TestHostKeyCallback_MissingKnownHosts(t *testing.T) {
	cfg := &SSHConfig{
		StrictHostKey: true,
		KnownHosts:    filepath.Join(t.TempDir(), "does-not-exist"),
	}
	if _, err := hostKeyCallback(cfg, authLogger()); err == nil {
		t.Fatal("expected error for missing known_hosts file")
	}
}

func TestHostKeyCallback_EmptyKnownHosts(t *testing.T) {
	khPath := filepath.Join(t.TempDir(), "known_hosts")
	if err := os.WriteFile(khPath, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	cb, err := hostKeyCallback(&SSHConfig{StrictHostKey: true, KnownHosts: khPath}, authLogger())
	if err != nil {
		t.Fatalf("hostKeyCallback: %v", err)
	}
	if cb == nil {
		t.Fatal("expected a callback")
	}
}

func TestNewSSH_Defaults(t *testing.T) {
	tr := NewSSH(&SSHConfig{Host: "gateway.example"}, util.NewLogger(util.LogNone))
	if tr.config.Port != 22 {
		t.Errorf("default port = %d, want 22", tr.config.Port)
	}
	if tr.config.ConnTimeout != 30*time.Second {
		t.Errorf("default timeout = %v, want 30s", tr.config.ConnTimeout)
	}
	if tr.IsOpen() {
		t.Error("unopened transport should not be open")
	}
	if _, err := tr.Send([]byte("x")); err == nil {
		t.Error("Send before Open should fail")
	}
	if tr.RemoteAddr() != nil || tr.LocalAddr() != nil {
		t.Error("endpoint accessors should be nil before Open")
	}

	// Deliberately not a Deadliner: SSH channels cannot interrupt a
	// pending read.
	var anyTr interface{} = tr
	if _, ok := anyTr.(Deadliner); ok {
		t.Error("SSH transport must not advertise deadline support")
	}
}
