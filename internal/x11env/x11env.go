// Package x11env locates the X session a winkeep process should talk to when
// it was started without a graphical environment, for example by an MCP
// client or a systemd user unit.
package x11env

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// SocketDir is where X servers create their listening sockets.
const SocketDir = "/tmp/.X11-unix"

var (
	runCommandOutputFn       = runCommandOutput
	readFileFn               = os.ReadFile
	readDirFn                = os.ReadDir
	detectSessionFn          = detectSession
	detectDisplayFromSockets = displayFromSockets
)

// Env is the X connection environment.
type Env struct {
	Display    string
	XAuthority string
}

// Resolve picks DISPLAY and XAUTHORITY. Values already present in environ
// win, then the configured ones, then the user's logind session, then the
// highest numbered X socket. A missing display is an error; a missing
// XAUTHORITY falls back to ~/.Xauthority when that file exists.
func Resolve(environ []string, display, xauthority string) (Env, error) {
	env := Env{
		Display:    strings.TrimSpace(Lookup(environ, "DISPLAY")),
		XAuthority: strings.TrimSpace(Lookup(environ, "XAUTHORITY")),
	}
	if env.Display == "" {
		env.Display = strings.TrimSpace(display)
	}
	if env.XAuthority == "" {
		env.XAuthority = strings.TrimSpace(xauthority)
	}

	if env.Display == "" || env.XAuthority == "" {
		detectedDisplay, detectedXAuthority := detectSessionFn()
		if env.Display == "" {
			env.Display = strings.TrimSpace(detectedDisplay)
		}
		if env.XAuthority == "" {
			env.XAuthority = strings.TrimSpace(detectedXAuthority)
		}
	}

	if env.Display == "" {
		env.Display = detectDisplayFromSockets(SocketDir)
	}
	if env.Display == "" {
		return Env{}, fmt.Errorf("no X display found; export DISPLAY or set display in config (e.g. display: \":0\")")
	}

	if env.XAuthority == "" {
		home := strings.TrimSpace(Lookup(environ, "HOME"))
		if home == "" {
			if detectedHome, err := os.UserHomeDir(); err == nil {
				home = detectedHome
			}
		}
		if home != "" {
			candidate := filepath.Join(home, ".Xauthority")
			if _, err := os.Stat(candidate); err == nil {
				env.XAuthority = candidate
			}
		}
	}
	return env, nil
}

// Apply returns environ with DISPLAY and XAUTHORITY set to e.
func (e Env) Apply(environ []string) []string {
	environ = Upsert(environ, "DISPLAY", e.Display)
	if e.XAuthority != "" {
		environ = Upsert(environ, "XAUTHORITY", e.XAuthority)
	}
	return environ
}

// Setenv exports e into the current process so X connections and child
// processes pick it up.
func (e Env) Setenv() error {
	if err := os.Setenv("DISPLAY", e.Display); err != nil {
		return err
	}
	if e.XAuthority != "" {
		return os.Setenv("XAUTHORITY", e.XAuthority)
	}
	return nil
}

func runCommandOutput(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func detectSession() (display string, xauthority string) {
	uid := strconv.Itoa(os.Getuid())
	out, err := runCommandOutputFn("loginctl", "list-sessions", "--no-legend")
	if err != nil {
		return "", ""
	}
	for _, sessionID := range parseLoginctlSessions(out, uid) {
		d := sessionProp(sessionID, "Display")
		if d == "" || strings.EqualFold(d, "n/a") {
			continue
		}

		xauth := ""
		leader := sessionProp(sessionID, "Leader")
		if leader != "" && leader != "0" {
			if envMap, err := readProcEnviron(leader); err == nil {
				if ed := strings.TrimSpace(envMap["DISPLAY"]); ed != "" {
					d = ed
				}
				xauth = strings.TrimSpace(envMap["XAUTHORITY"])
			}
		}
		return d, xauth
	}
	return "", ""
}

func parseLoginctlSessions(output string, uid string) []string {
	var sessions []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == uid {
			sessions = append(sessions, fields[0])
		}
	}
	return sessions
}

func sessionProp(sessionID string, prop string) string {
	out, err := runCommandOutputFn("loginctl", "show-session", sessionID, "-p", prop, "--value")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func readProcEnviron(pid string) (map[string]string, error) {
	data, err := readFileFn(filepath.Join("/proc", pid, "environ"))
	if err != nil {
		return nil, err
	}

	env := make(map[string]string)
	for _, part := range strings.Split(string(data), "\x00") {
		key, value, ok := strings.Cut(part, "=")
		if ok && key != "" {
			env[key] = value
		}
	}
	return env, nil
}

func displayFromSockets(dir string) string {
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}

	var displays []int
	for _, entry := range entries {
		name := entry.Name()
		if len(name) < 2 || name[0] != 'X' {
			continue
		}
		if n, err := strconv.Atoi(name[1:]); err == nil {
			displays = append(displays, n)
		}
	}
	if len(displays) == 0 {
		return ""
	}
	sort.Ints(displays)
	return fmt.Sprintf(":%d", displays[len(displays)-1])
}

// Lookup returns the value of key in environ, or "".
func Lookup(environ []string, key string) string {
	prefix := key + "="
	for _, e := range environ {
		if strings.HasPrefix(e, prefix) {
			return strings.TrimPrefix(e, prefix)
		}
	}
	return ""
}

// Upsert sets key to value in environ, replacing any existing entry.
func Upsert(environ []string, key string, value string) []string {
	prefix := key + "="
	for i, e := range environ {
		if strings.HasPrefix(e, prefix) {
			environ[i] = prefix + value
			return environ
		}
	}
	return append(environ, prefix+value)
}
