package x11env

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func stubDetect(t *testing.T, session func() (string, string), sockets func(string) string) {
	t.Helper()
	origSession := detectSessionFn
	origSockets := detectDisplayFromSockets
	detectSessionFn = session
	detectDisplayFromSockets = sockets
	t.Cleanup(func() {
		detectSessionFn = origSession
		detectDisplayFromSockets = origSockets
	})
}

func TestResolve_ExistingEnvWins(t *testing.T) {
	stubDetect(t,
		func() (string, string) { return ":99", "/tmp/should-not-be-used" },
		func(string) string { return ":88" },
	)

	environ := []string{"HOME=" + t.TempDir(), "DISPLAY=:7", "XAUTHORITY=/tmp/xauth-existing"}
	env, err := Resolve(environ, ":1", "/tmp/cfg")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if env.Display != ":7" || env.XAuthority != "/tmp/xauth-existing" {
		t.Fatalf("Resolve() = %+v", env)
	}
}

func TestResolve_ConfigAndHomeXAuthority(t *testing.T) {
	stubDetect(t,
		func() (string, string) { return "", "" },
		func(string) string { return "" },
	)

	home := t.TempDir()
	xauth := filepath.Join(home, ".Xauthority")
	if err := os.WriteFile(xauth, []byte("cookie"), 0600); err != nil {
		t.Fatalf("write xauthority: %v", err)
	}

	env, err := Resolve([]string{"HOME=" + home}, ":1", "")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if env.Display != ":1" || env.XAuthority != xauth {
		t.Fatalf("Resolve() = %+v", env)
	}
}

func TestResolve_DetectedSession(t *testing.T) {
	stubDetect(t,
		func() (string, string) { return ":5", "/tmp/xauth-detected" },
		func(string) string { return "" },
	)

	env, err := Resolve([]string{"HOME=" + t.TempDir()}, "", "")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if env.Display != ":5" || env.XAuthority != "/tmp/xauth-detected" {
		t.Fatalf("Resolve() = %+v", env)
	}
}

func TestResolve_SocketFallback(t *testing.T) {
	stubDetect(t,
		func() (string, string) { return "", "" },
		func(string) string { return ":3" },
	)

	env, err := Resolve([]string{"HOME=" + t.TempDir()}, "", "")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if env.Display != ":3" {
		t.Fatalf("Display = %q, want :3", env.Display)
	}
}

func TestResolve_NoDisplay(t *testing.T) {
	stubDetect(t,
		func() (string, string) { return "", "" },
		func(string) string { return "" },
	)

	_, err := Resolve([]string{"HOME=" + t.TempDir()}, "", "")
	if err == nil || !strings.Contains(err.Error(), "no X display") {
		t.Fatalf("expected missing display error, got %v", err)
	}
}

func TestApply(t *testing.T) {
	environ := Env{Display: ":2", XAuthority: "/tmp/a"}.Apply([]string{"PATH=/bin", "DISPLAY=:0"})
	if Lookup(environ, "DISPLAY") != ":2" || Lookup(environ, "XAUTHORITY") != "/tmp/a" {
		t.Fatalf("Apply() = %v", environ)
	}
	if Lookup(environ, "PATH") != "/bin" {
		t.Fatalf("Apply() dropped PATH: %v", environ)
	}
}

func TestDisplayFromSockets(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"X0", "X2", "not-a-display"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if got := displayFromSockets(dir); got != ":2" {
		t.Fatalf("displayFromSockets = %q, want :2", got)
	}
	if got := displayFromSockets(filepath.Join(dir, "missing")); got != "" {
		t.Fatalf("displayFromSockets(missing) = %q", got)
	}
}

func TestParseLoginctlSessions(t *testing.T) {
	out := strings.Join([]string{
		"1 1000 george seat0",
		"2 1001 alice seat0",
		"3 1000 george seat1",
		"",
	}, "\n")
	got := parseLoginctlSessions(out, "1000")
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Fatalf("parseLoginctlSessions = %v, want [1 3]", got)
	}
}

func TestDetectSession_ReadsLeaderEnviron(t *testing.T) {
	origRun, origRead := runCommandOutputFn, readFileFn
	t.Cleanup(func() {
		runCommandOutputFn = origRun
		readFileFn = origRead
	})

	runCommandOutputFn = func(name string, args ...string) (string, error) {
		switch {
		case len(args) > 0 && args[0] == "list-sessions":
			return "c2 " + uidString() + " me seat0\n", nil
		case len(args) > 3 && args[3] == "Display":
			return ":0\n", nil
		case len(args) > 3 && args[3] == "Leader":
			return "4242\n", nil
		}
		return "", errors.New("unexpected command")
	}
	readFileFn = func(path string) ([]byte, error) {
		if path != "/proc/4242/environ" {
			return nil, os.ErrNotExist
		}
		return []byte("DISPLAY=:1\x00XAUTHORITY=/run/user/1000/xauth\x00"), nil
	}

	display, xauth := detectSession()
	if display != ":1" || xauth != "/run/user/1000/xauth" {
		t.Fatalf("detectSession() = %q, %q", display, xauth)
	}
}

func uidString() string {
	return strconv.Itoa(os.Getuid())
}
