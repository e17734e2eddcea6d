package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/zrougamed/cerberus-watch/internal/api"
	"github.com/zrougamed/cerberus-watch/internal/backend"
	"github.com/zrougamed/cerberus-watch/internal/config"
	"github.com/zrougamed/cerberus-watch/internal/console"
	"github.com/zrougamed/cerberus-watch/internal/databases"
	"github.com/zrougamed/cerberus-watch/internal/eventlog"
	"github.com/zrougamed/cerberus-watch/internal/logger"
	"github.com/zrougamed/cerberus-watch/internal/monitor"
	"github.com/zrougamed/cerberus-watch/internal/presentation"
)

func main() {
	cfg := config.Get()

	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.SetDefaultLevel(level)
	log := logger.NewLogger("Main")

	if cfg.Prefs != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Prefs), 0755); err != nil {
			panic(err)
		}
	}
	prefs, err := databases.OpenPreferences(cfg.Prefs)
	if err != nil {
		panic(err)
	}
	defer prefs.Close()

	events, err := eventlog.New(cfg.LogSize)
	if err != nil {
		panic(err)
	}

	client := backend.NewClient(cfg.BackendClientConfig())
	mon, err := monitor.New(client, monitor.Options{
		Renderer: presentation.NewRenderer(cfg.Topology, cfg.Locale),
		Log:      events,
		Prefs:    prefs,
	})
	if err != nil {
		panic(err)
	}
	defer mon.Close()

	log.Infof("Watching simulation backend at %s", client.StartURL())

	if cfg.Console {
		screen := console.New(os.Stdout, console.Options{
			Hosts: cfg.Topology.HostIDs(),
			Clear: true,
		})
		defer mon.OnChange(screen.Update)()
	}

	var server *api.Server
	if cfg.Listen != "" {
		server = api.NewServer(mon, cfg.Topology)
		go func() {
			if err := server.Start(cfg.Listen); err != nil {
				log.Errorf("API server stopped: %v", err)
			}
		}()
	}

	mon.Ready()

	if cfg.AutoStart > 0 {
		if err := mon.StartSimulation(cfg.AutoStart); err != nil {
			log.Warnf("Auto start failed: %v", err)
		}
	} else if server != nil {
		fmt.Printf("Start a run with: curl -X POST http://%s/api/v1/simulations -d '{\"duration\": %d}' -H 'Content-Type: application/json'\n",
			cfg.Listen, mon.DefaultDuration())
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	fmt.Println("\nShutting down...")
	if server != nil {
		if err := server.Shutdown(); err != nil {
			log.Warnf("API shutdown: %v", err)
		}
	}
}
