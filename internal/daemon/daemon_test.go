package daemon

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sirenlab/calltriage/internal/bus"
	"github.com/sirenlab/calltriage/internal/testutil"
)

const testConfig = `[server]
addr = "127.0.0.1:0"

[transcription]
provider = "simulated"

[publish]
driver = "none"
`

func TestDaemonControlSocket(t *testing.T) {
	configHome := testutil.ConfigHome(t)
	testutil.CacheHome(t)
	testutil.WriteConfig(t, configHome, testConfig)

	d, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Run()
	}()

	// Wait for the daemon to be ready by trying to connect.
	testutil.WaitFor(t, time.Second, func() bool {
		_, err := bus.SendCommand('s')
		return err == nil
	})

	defer func() {
		bus.SendCommand('q')
		select {
		case <-errCh:
		case <-time.After(3 * time.Second):
			t.Error("daemon did not exit within timeout")
		}
	}()

	t.Run("status", func(t *testing.T) {
		out, err := bus.SendCommand('s')
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.HasPrefix(out, "STATUS addr=127.0.0.1:0 provider=simulated") {
			t.Errorf("unexpected status response: %s", out)
		}
		if !strings.Contains(out, "sessions=0") {
			t.Errorf("status should report zero sessions: %s", out)
		}
	})

	t.Run("version", func(t *testing.T) {
		out, err := bus.SendCommand('v')
		if err != nil {
			t.Fatalf("version failed: %v", err)
		}
		if out != fmt.Sprintf("STATUS proto=%s\n", bus.ProtoVer) {
			t.Errorf("unexpected version response: %s", out)
		}
	})

	t.Run("pid file blocks second daemon", func(t *testing.T) {
		if err := bus.CheckExistingDaemon(); err == nil {
			t.Error("CheckExistingDaemon should report the running daemon")
		}
	})

	t.Run("reload", func(t *testing.T) {
		out, err := bus.SendCommand('r')
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		if out != "OK reloaded\n" {
			t.Errorf("unexpected reload response: %s", out)
		}
	})

	t.Run("reload with broken config keeps daemon alive", func(t *testing.T) {
		testutil.WriteConfig(t, configHome, "not valid toml [[[")
		defer testutil.WriteConfig(t, configHome, testConfig)

		out, err := bus.SendCommand('r')
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		if !strings.HasPrefix(out, "ERR reload_failed") {
			t.Errorf("expected reload error, got: %s", out)
		}

		// The daemon still answers.
		if _, err := bus.SendCommand('s'); err != nil {
			t.Errorf("daemon should survive a failed reload: %v", err)
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		out, err := bus.SendCommand('x')
		if err != nil {
			t.Fatalf("unknown command failed: %v", err)
		}
		if out != "ERR unknown='x'\n" {
			t.Errorf("unexpected response: %s", out)
		}
	})
}

func TestDaemonQuitCommand(t *testing.T) {
	configHome := testutil.ConfigHome(t)
	testutil.CacheHome(t)
	testutil.WriteConfig(t, configHome, testConfig)

	d, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Run()
	}()

	testutil.WaitFor(t, time.Second, func() bool {
		_, err := bus.SendCommand('v')
		return err == nil
	})

	out, err := bus.SendCommand('q')
	if err != nil {
		t.Fatalf("quit failed: %v", err)
	}
	if out != "OK quitting\n" {
		t.Errorf("unexpected quit response: %s", out)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() = %v, want nil after quit", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("daemon did not exit after quit command")
	}

	// The PID file is gone, so a new daemon could start.
	if err := bus.CheckExistingDaemon(); err != nil {
		t.Errorf("CheckExistingDaemon after quit = %v, want nil", err)
	}
}
