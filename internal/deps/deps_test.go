package deps

import (
	"os/exec"
	"testing"
)

func TestCheckFFmpeg(t *testing.T) {
	status := CheckFFmpeg()

	// Behavior depends on the host, so only check consistency.
	if status.Installed {
		if status.Path == "" {
			t.Error("installed but path empty")
		}
	} else {
		if status.Path != "" {
			t.Error("not installed but path non-empty")
		}
	}
}

func TestCheckFFmpeg_Installed(t *testing.T) {
	_, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not installed, can't test installed case")
	}

	status := CheckFFmpeg()
	if !status.Installed {
		t.Error("ffmpeg in PATH but Installed=false")
	}
	if status.Path == "" {
		t.Error("ffmpeg installed but path empty")
	}
	if status.Version == "" {
		t.Error("ffmpeg installed but version empty")
	}
}
