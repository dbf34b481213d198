package deps

import (
	"os/exec"
	"strings"
)

// Status reports whether an external tool is available on this host.
type Status struct {
	Installed bool
	Path      string
	Version   string
}

// CheckFFmpeg looks for ffmpeg, which the feed command uses to convert
// arbitrary recordings into the PCM format a session accepts.
func CheckFFmpeg() Status {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return Status{Installed: false}
	}

	status := Status{
		Installed: true,
		Path:      path,
	}

	// ffmpeg -version prints version info on the first line.
	cmd := exec.Command(path, "-version")
	output, err := cmd.Output()
	if err == nil {
		lines := strings.Split(string(output), "\n")
		if len(lines) > 0 {
			status.Version = strings.TrimSpace(lines[0])
		}
	}

	return status
}
