package bus

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
)

const SockName = "control.sock"
const PidName = "calltriage.pid"
const ProtoVer = "0.1"

// ~/.cache/calltriage/control.sock
func getSockPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "calltriage", SockName), nil
}

// ~/.cache/calltriage/calltriage.pid
func getPidPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "calltriage", PidName), nil
}

type socketManager struct {
	path string
}

func newSocketManager() (*socketManager, error) {
	path, err := getSockPath()
	if err != nil {
		return nil, err
	}
	return &socketManager{path: path}, nil
}

func (sm *socketManager) listen() (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(sm.path), 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(sm.path) // stale socket from last run
	return net.Listen("unix", sm.path)
}

func (sm *socketManager) dial() (net.Conn, error) {
	return net.Dial("unix", sm.path)
}

type pidManager struct {
	path string
}

func newPidManager() (*pidManager, error) {
	path, err := getPidPath()
	if err != nil {
		return nil, err
	}
	return &pidManager{path: path}, nil
}

func (pm *pidManager) create() error {
	if err := os.MkdirAll(filepath.Dir(pm.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(pm.path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func (pm *pidManager) remove() error {
	return os.Remove(pm.path)
}

// checkExisting returns an error if another daemon holds the PID file.
// Stale and malformed PID files are cleaned up on the way.
func (pm *pidManager) checkExisting() error {
	pidData, err := os.ReadFile(pm.path)
	if os.IsNotExist(err) {
		return nil // no existing daemon
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(string(pidData))
	if err != nil {
		_ = os.Remove(pm.path)
		return nil
	}

	if !pm.isProcessAlive(pid) {
		_ = os.Remove(pm.path)
		return nil
	}

	return fmt.Errorf("daemon already running with PID %d", pid)
}

func (pm *pidManager) isProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes for existence without delivering anything.
	return proc.Signal(syscall.Signal(0)) == nil
}

func SockPath() (string, error) {
	return getSockPath()
}

func PidPath() (string, error) {
	return getPidPath()
}

func Listen() (net.Listener, error) {
	sm, err := newSocketManager()
	if err != nil {
		return nil, err
	}
	return sm.listen()
}

func Dial() (net.Conn, error) {
	sm, err := newSocketManager()
	if err != nil {
		return nil, err
	}
	return sm.dial()
}

// SendCommand dials the control socket, writes a single command byte and
// returns the daemon's one-line response.
func SendCommand(cmd byte) (string, error) {
	c, err := Dial()
	if err != nil {
		return "", err
	}
	defer c.Close()

	_, err = c.Write([]byte{cmd, '\n'})
	if err != nil {
		return "", err
	}

	resp, err := bufio.NewReader(c).ReadString('\n')
	return resp, err
}

func CheckExistingDaemon() error {
	pm, err := newPidManager()
	if err != nil {
		return err
	}
	return pm.checkExisting()
}

func CreatePidFile() error {
	pm, err := newPidManager()
	if err != nil {
		return err
	}
	return pm.create()
}

func RemovePidFile() error {
	pm, err := newPidManager()
	if err != nil {
		return err
	}
	return pm.remove()
}
