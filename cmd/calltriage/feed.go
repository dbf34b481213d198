package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/sirenlab/calltriage/internal/audio"
	"github.com/sirenlab/calltriage/internal/config"
	"github.com/sirenlab/calltriage/internal/deps"
	"github.com/sirenlab/calltriage/internal/transport"
	"github.com/sirenlab/calltriage/internal/tui"
)

type feedOptions struct {
	url      string
	addr     string
	chunk    int
	interval time.Duration
	raw      bool
	demo     time.Duration
}

func feedCmd() *cobra.Command {
	var opts feedOptions

	cmd := &cobra.Command{
		Use:   "feed [audio-file]",
		Short: "Stream an audio file into a live session",
		Long: `Stream recorded audio into the daemon as if it were a live call,
printing transcript lines and recommendation updates as they arrive.

Files are converted to 16kHz mono PCM through ffmpeg. Pass --raw (or
use a .raw/.pcm file) to skip conversion, "-" to read from stdin, or
--demo to stream a synthetic tone without any audio file at all.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" && opts.demo <= 0 {
				return fmt.Errorf("need an audio file or --demo")
			}
			if path != "" && opts.demo > 0 {
				return fmt.Errorf("--demo does not take an audio file")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runFeed(ctx, path, opts, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "full session URL (overrides --addr and the config)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "daemon address, e.g. 127.0.0.1:8089")
	cmd.Flags().IntVar(&opts.chunk, "chunk", 4096, "bytes per audio frame")
	cmd.Flags().DurationVar(&opts.interval, "interval", 125*time.Millisecond, "delay between frames")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "treat the file as 16kHz mono s16le PCM")
	cmd.Flags().DurationVar(&opts.demo, "demo", 0, "stream a synthetic tone of this length instead of a file")

	return cmd
}

func runFeed(ctx context.Context, path string, opts feedOptions, out io.Writer) error {
	target := opts.url
	if target == "" {
		addr := opts.addr
		if addr == "" {
			cfg, err := config.LoadOrDefault()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			addr = cfg.Server.Addr
		}
		target = sessionURL("", addr)
	}

	streamer := audio.NewStreamer(audio.StreamerConfig{
		ChunkSize:         opts.chunk,
		Interval:          opts.interval,
		ChannelBufferSize: 20,
	})
	defer streamer.Stop()

	var frameCh <-chan audio.Frame
	var srcErrCh <-chan error
	var err error

	switch {
	case opts.demo > 0:
		frameCh, srcErrCh, err = streamer.Start(ctx, bytes.NewReader(synthesizeTone(opts.demo)))

	case path == "-" && opts.raw:
		frameCh, srcErrCh, err = streamer.Start(ctx, os.Stdin)

	case opts.raw || isRawFile(path):
		frameCh, srcErrCh, err = streamer.StartFile(ctx, path)

	default:
		stdout, ffmpeg, terr := startTranscode(ctx, path)
		if terr != nil {
			return terr
		}
		// Closing the pipe first unblocks both ffmpeg and the replay
		// loop if we bail out mid-stream.
		defer func() {
			stdout.Close()
			ffmpeg.Wait()
		}()
		frameCh, srcErrCh, err = streamer.Start(ctx, stdout)
	}
	if err != nil {
		return fmt.Errorf("failed to start audio source: %w", err)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect to %s (HTTP %d): %w", target, resp.StatusCode, err)
		}
		return fmt.Errorf("failed to connect to %s: %w (is the daemon running?)", target, err)
	}
	defer conn.Close()

	fmt.Fprintln(out, tui.StyleMuted.Render("connected to "+target))

	readerDone := make(chan error, 1)
	go func() {
		readerDone <- readSession(conn, out)
	}()

	for frame := range frameCh {
		if err := conn.WriteMessage(websocket.BinaryMessage, frame.Data); err != nil {
			return fmt.Errorf("failed to send audio: %w", err)
		}
	}
	if err := <-srcErrCh; err != nil {
		return err
	}

	end, _ := json.Marshal(transport.Envelope{Type: transport.TypeEndOfSession})
	if err := conn.WriteMessage(websocket.TextMessage, end); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	// The daemon flushes the pending transcript and sends the last
	// recommendation before closing, so wait for the reader.
	select {
	case err := <-readerDone:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timed out waiting for the session to close")
	}
}

// readSession prints outbound envelopes until the daemon closes the
// connection. A normal close ends the session cleanly.
func readSession(conn *websocket.Conn, out io.Writer) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("session read failed: %w", err)
		}

		var env transport.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			fmt.Fprintln(out, tui.StyleWarning.Render("unreadable message from daemon"))
			continue
		}

		switch env.Type {
		case transport.TypeTranscriptDelta:
			var p transport.TranscriptDeltaPayload
			if err := json.Unmarshal(env.Payload, &p); err == nil {
				fmt.Fprintln(out, tui.StyleSubtle.Render("… "+p.Text))
			}

		case transport.TypeTranscriptFinal:
			var p transport.TranscriptFinalPayload
			if err := json.Unmarshal(env.Payload, &p); err == nil {
				fmt.Fprintln(out, p.Text)
			}

		case transport.TypeRecommendationUpdate:
			var p transport.RecommendationPayload
			if err := json.Unmarshal(env.Payload, &p); err == nil {
				fmt.Fprintln(out, tui.RenderUpdate(p.Units, p.Severity))
			}

		case transport.TypeError:
			var p transport.ErrorPayload
			if err := json.Unmarshal(env.Payload, &p); err == nil {
				fmt.Fprintln(out, tui.StyleError.Render("error: "+p.Message))
			}
		}
	}
}

// sessionURL turns a listen address into a dialable session endpoint.
// Wildcard hosts become loopback since the daemon is local.
func sessionURL(explicit, addr string) string {
	if explicit != "" {
		return explicit
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "ws://" + addr + "/v1/session"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "ws://" + net.JoinHostPort(host, port) + "/v1/session"
}

// startTranscode shells out to ffmpeg to convert any audio container
// into the raw PCM the session expects.
func startTranscode(ctx context.Context, path string) (io.ReadCloser, *exec.Cmd, error) {
	status := deps.CheckFFmpeg()
	if !status.Installed {
		return nil, nil, fmt.Errorf("ffmpeg not found: install it, or pass --raw with 16kHz mono s16le PCM")
	}

	cmd := exec.CommandContext(ctx, status.Path, ffmpegArgs(path)...)
	cmd.Stderr = os.Stderr
	if path == "-" {
		cmd.Stdin = os.Stdin
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ffmpeg pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return stdout, cmd, nil
}

func ffmpegArgs(path string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-f", "s16le",
		"-ar", fmt.Sprint(audio.SampleRate),
		"-ac", fmt.Sprint(audio.Channels),
		"pipe:1",
	}
}

func isRawFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".raw", ".pcm":
		return true
	}
	return false
}

// synthesizeTone produces a 440Hz sine in session PCM format, enough
// to exercise a session end to end without any recording on hand.
func synthesizeTone(d time.Duration) []byte {
	samples := int(float64(audio.SampleRate) * d.Seconds())
	buf := make([]byte, 0, samples*2)
	for i := 0; i < samples; i++ {
		v := math.Sin(2 * math.Pi * 440 * float64(i) / float64(audio.SampleRate))
		s := int16(v * 0.3 * math.MaxInt16)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(s))
	}
	return buf
}
