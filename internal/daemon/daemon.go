package daemon

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirenlab/calltriage/internal/api"
	"github.com/sirenlab/calltriage/internal/bus"
	"github.com/sirenlab/calltriage/internal/config"
	"github.com/sirenlab/calltriage/internal/publish"
)

// Daemon ties the pieces together: configuration with hot reload, the
// recommendation publisher and the HTTP/websocket API, controlled over
// a unix socket.
type Daemon struct {
	manager   *config.Manager
	publisher publish.Publisher
	server    *api.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func New() (*Daemon, error) {
	manager, err := config.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize configuration: %w", err)
	}

	publisher, err := publish.New(manager.GetConfig().ToPublishConfig())
	if err != nil {
		manager.Stop()
		return nil, fmt.Errorf("failed to initialize publisher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		manager:   manager,
		publisher: publisher,
		server:    api.NewServer(manager, publisher),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Run blocks until the daemon is stopped by a signal, a 'q' command or an
// API server failure.
func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	defer d.publisher.Close()
	defer d.manager.Stop()

	if err := d.manager.StartWatching(d.ctx); err != nil {
		log.Printf("Daemon: config watching disabled: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- d.server.Run(d.ctx)
		// A server exit for any reason stops the daemon.
		d.cancel()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal %v, shutting down gracefully", sig)
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	log.Printf("Daemon started, control socket ready")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				if srvErr := <-serverErr; srvErr != nil {
					return fmt.Errorf("api server failed: %w", srvErr)
				}
				log.Printf("Shutdown complete")
				return nil
			}
			log.Printf("Accept error: %v", err)
			d.cancel()
			<-serverErr
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

// Stop requests a shutdown. Run returns once everything is torn down.
func (d *Daemon) Stop() {
	d.cancel()
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		log.Printf("Client read error: %v", err)
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	if len(line) == 0 {
		fmt.Fprint(c, "ERR empty\n")
		return
	}
	cmd := line[0]

	switch cmd {
	case 's':
		cfg := d.manager.GetConfig()
		fmt.Fprintf(c, "STATUS addr=%s provider=%s rules=%d sessions=%d\n",
			cfg.Server.Addr, cfg.Transcription.Provider,
			len(d.manager.GetRuleSet()), d.server.ActiveSessions())
	case 'v':
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case 'r':
		if err := d.manager.Reload(); err != nil {
			fmt.Fprintf(c, "ERR reload_failed: %v\n", err)
			return
		}
		fmt.Fprint(c, "OK reloaded\n")
	case 'q':
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		log.Printf("Unknown command: %c", cmd)
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}
