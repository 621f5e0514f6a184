package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oldmangrizzz/looktony/internal/config"
	"github.com/oldmangrizzz/looktony/internal/protocol"
	"github.com/oldmangrizzz/looktony/internal/situation"
	"github.com/oldmangrizzz/looktony/internal/state"
)

var (
	runProtocolsDir string
	runNoWatch      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the protocol engine",
	Long: `Run the protocol engine as a foreground daemon.

Protocol definitions are loaded from the configured protocols directory
(every .yaml/.yml file). While the daemon runs, new or edited definition
files are hot-loaded into the registry unless --no-watch is given.

The engine reacts to situation updates pushed by the situational store and
stays idle otherwise. Stop with Ctrl-C.`,
	RunE: runEngine,
}

func init() {
	runCmd.Flags().StringVar(&runProtocolsDir, "protocols", "", "Protocol definitions directory (overrides config)")
	runCmd.Flags().BoolVar(&runNoWatch, "no-watch", false, "Disable hot-loading of protocol definitions")
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runProtocolsDir != "" {
		cfg.Protocols.Dir = runProtocolsDir
	}
	if runNoWatch {
		cfg.Protocols.Watch = false
	}

	// Engine debug log
	if cfg.Logging.DebugLog != "" {
		logger, err := protocol.NewDebugLogger(cfg.Logging.DebugLog)
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer logger.Close()
		protocol.SetDebugLogger(logger)
	}

	// Runtime history database
	var db *state.DB
	if cfg.State.Enabled {
		dbPath := cfg.State.Path
		if dbPath == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			dbPath = state.ProjectDBPath(cwd)
		}
		db, err = state.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open state database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate state database: %w", err)
		}
	}

	// Situational store with the default layer plus an environmental one
	store := situation.NewMemoryStore(cfg.Engine.DefaultLayer, "environmental")

	engine := protocol.New(protocol.Config{
		Store:        store,
		StateDB:      db,
		DefaultLayer: cfg.Engine.DefaultLayer,
		EventBuffer:  cfg.Engine.EventBuffer,
	})

	// Load protocol definitions
	protocols, err := protocol.LoadDir(cfg.Protocols.Dir)
	if err != nil {
		return fmt.Errorf("load protocols: %w", err)
	}
	for _, p := range protocols {
		if err := engine.LoadProtocol(p); err != nil {
			log.Printf("[looktony] warning: rejected protocol %s: %v", p.ID, err)
		}
	}
	log.Printf("[looktony] loaded %d protocols from %s", len(protocols), cfg.Protocols.Dir)

	// Hot-load definition changes. Closed before the engine stops so a late
	// file event can never hit the closed notification channel.
	var watcher *protocol.Watcher
	if cfg.Protocols.Watch {
		watcher, err = protocol.NewWatcher(cfg.Protocols.Dir, engine)
		if err != nil {
			log.Printf("[looktony] warning: protocol watcher disabled: %v", err)
			watcher = nil
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Drain engine events to the operational log
	go func() {
		for event := range engine.Events() {
			switch event.Type {
			case protocol.EventStepError:
				log.Printf("[looktony] %s %s/%s: %v", event.Type, event.ProtocolID, event.StepID, event.Error)
			case protocol.EventStepExecuted:
				log.Printf("[looktony] %s %s/%s complete=%t", event.Type, event.ProtocolID, event.StepID, event.Complete)
			default:
				log.Printf("[looktony] %s %s", event.Type, event.ProtocolID)
			}
		}
	}()

	log.Printf("[looktony] engine running, waiting for situation updates")
	engine.Run(ctx, store.Updates())
	if watcher != nil {
		watcher.Close()
	}
	engine.Stop()
	log.Printf("[looktony] engine stopped")
	return nil
}
