package transport

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"

	ncerr "gossl/internal/errors"
	"gossl/util"
)

// conventionalKeys are the file names tried under ~/.ssh when no
// authentication was configured, in preference order.
var conventionalKeys = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// BuildAuthMethods assembles the authentication chain for the gateway
// hop.  Configured methods come first in a fixed order (key file,
// agent, interactive password); with nothing configured it falls back
// to the agent socket and the conventional key files.
func BuildAuthMethods(cfg *SSHConfig, log *util.Logger) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if cfg.KeyPath != "" {
		m, err := keyFileAuth(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", cfg.KeyPath, err)
		}
		methods = append(methods, m)
	}
	if cfg.UseAgent {
		m, err := agentAuth()
		if err != nil {
			return nil, fmt.Errorf("ssh-agent: %w", err)
		}
		methods = append(methods, m)
	}
	if cfg.PromptPass {
		pass, err := promptSecret(fmt.Sprintf("SSH password for %s@%s: ", cfg.User, cfg.Host))
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		methods = append(methods, ssh.Password(string(pass)))
	}

	if len(methods) == 0 {
		methods = discoverDefaultAuth(log)
	}
	if len(methods) == 0 {
		return nil, &ncerr.ConfigError{
			Field:   "tunnel",
			Message: "no SSH authentication available for the gateway",
			Hint:    "point --ssh-key at a private key, enable --ssh-agent, or prompt with --ssh-password",
		}
	}
	return methods, nil
}

// keyFileAuth loads a private key, prompting for a passphrase when the
// key turns out to be encrypted.
func keyFileAuth(path string) (ssh.AuthMethod, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err == nil {
		return ssh.PublicKeys(signer), nil
	}

	var missing *ssh.PassphraseMissingError
	if !ncerr.As(err, &missing) {
		return nil, fmt.Errorf("parsing key: %w", err)
	}
	pass, err := promptSecret(fmt.Sprintf("Enter passphrase for %s: ", path))
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	signer, err = ssh.ParsePrivateKeyWithPassphrase(data, pass)
	if err != nil {
		return nil, fmt.Errorf("decrypting key: %w", err)
	}
	return ssh.PublicKeys(signer), nil
}

func agentAuth() (ssh.AuthMethod, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, fmt.Errorf("SSH_AUTH_SOCK is not set")
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("connecting to agent at %s: %w", sock, err)
	}
	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers), nil
}

func promptSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)
	return term.ReadPassword(int(os.Stdin.Fd()))
}

// discoverDefaultAuth collects whatever unconfigured authentication
// the environment offers, logging each candidate so a failed gateway
// login is diagnosable with -vv.
func discoverDefaultAuth(log *util.Logger) []ssh.AuthMethod {
	var out []ssh.AuthMethod

	if m, err := agentAuth(); err == nil {
		log.Debug("ssh auth: agent at SSH_AUTH_SOCK")
		out = append(out, m)
	} else {
		log.Debug("ssh auth: agent unavailable: %v", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return out
	}
	for _, name := range conventionalKeys {
		path := filepath.Join(home, ".ssh", name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		m, err := keyFileAuth(path)
		if err != nil {
			log.Debug("ssh auth: skipping %s: %v", path, err)
			continue
		}
		log.Debug("ssh auth: key %s", path)
		out = append(out, m)
	}
	return out
}

// hostKeyCallback builds the gateway host-key check.  Without
// StrictHostKey every host key is accepted, which leaves the tunnel
// open to interception; the warning makes that visible.
func hostKeyCallback(cfg *SSHConfig, log *util.Logger) (ssh.HostKeyCallback, error) {
	if !cfg.StrictHostKey {
		log.Warn("gateway host key verification is disabled")
		//nolint:gosec // user opted out of host key checking
		return ssh.InsecureIgnoreHostKey(), nil
	}

	path := cfg.KnownHosts
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("loading known_hosts from %s: %w", path, err)
	}
	log.Debug("ssh auth: host keys checked against %s", path)
	return cb, nil
}
