// Package main runs a summon beast table: a scene backed by an in-memory or
// PostgreSQL host, driven from the terminal console and Lua scene scripts.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/summonbeast/internal/config"
	"github.com/cory-johannsen/summonbeast/internal/console"
	"github.com/cory-johannsen/summonbeast/internal/game/command"
	"github.com/cory-johannsen/summonbeast/internal/game/dice"
	"github.com/cory-johannsen/summonbeast/internal/game/session"
	"github.com/cory-johannsen/summonbeast/internal/gameserver"
	"github.com/cory-johannsen/summonbeast/internal/host"
	"github.com/cory-johannsen/summonbeast/internal/host/fixture"
	"github.com/cory-johannsen/summonbeast/internal/host/memory"
	"github.com/cory-johannsen/summonbeast/internal/observability"
	"github.com/cory-johannsen/summonbeast/internal/scripting"
	"github.com/cory-johannsen/summonbeast/internal/server"
	"github.com/cory-johannsen/summonbeast/internal/storage/postgres"
)

// outboxSize bounds the chat posts a single console line or script may queue.
const outboxSize = 256

type backend struct {
	store host.Store
	board host.Board
	close func()
}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	var scripts multiFlag
	flag.Var(&scripts, "script", "Lua scene script, or directory of scripts, to run before reading input (repeatable)")
	batch := flag.Bool("batch", false, "exit after the startup scripts instead of reading stdin")
	prompt := flag.String("prompt", "> ", "console prompt; empty disables it")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting summon beast table",
		zap.String("backend", cfg.Host.Backend),
		zap.String("scene", cfg.Host.Scene),
		zap.String("trigger", cfg.Command.Trigger),
	)

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening host backend", zap.Error(err))
	}
	defer be.close()

	reg, err := command.NewRegistry(command.BuiltinCommands(cfg.Command.Trigger, cfg.Command.Aliases))
	if err != nil {
		logger.Fatal("building command registry", zap.Error(err))
	}

	sessions := session.NewManager()
	outbox := session.NewOutbox(outboxSize)
	defer func() { _ = outbox.Close() }()

	handler := gameserver.NewSummonHandler(reg, sessions, be.store, outbox, gameserver.HandlerConfig{
		Speaker:      cfg.Command.Speaker,
		TargetName:   cfg.Command.TargetName,
		StrictRemove: cfg.Tracking.StrictRemove,
	}, logger)
	table := gameserver.NewTable(cfg.Host.Scene, be.board, be.store, handler)

	runner := scripting.NewRunner(dice.NewRoller(dice.NewCryptoSource(), logger), logger, cfg.Scripting.InstructionLimit)
	bindRunner(runner, table)

	consoleCfg := console.Config{
		In:      os.Stdin,
		Out:     os.Stdout,
		Prompt:  *prompt,
		Scripts: runner,
		Startup: scripts,
	}
	if *batch {
		consoleCfg.In = strings.NewReader("")
		consoleCfg.Prompt = ""
	}
	con := console.New(consoleCfg, table, outbox, logger)

	lc := server.NewLifecycle(logger)
	lc.Add("console", con)

	logger.Info("table ready",
		zap.Int("commands", len(reg.Commands())),
		zap.Int("startup_scripts", len(scripts)),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lc.Run(ctx); err != nil {
		logger.Error("table stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

// openBackend connects the configured host and seeds it with the sheets in
// cfg.Host.SheetsDir. Sheets already present in PostgreSQL are left as is.
func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	sheets, err := loadSheets(cfg.Host.SheetsDir, logger)
	if err != nil {
		return nil, err
	}

	switch cfg.Host.Backend {
	case config.BackendPostgres:
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		st := postgres.NewStore(pool.DB())
		for _, f := range sheets {
			if _, err := st.Seed(ctx, f); err != nil {
				if errors.Is(err, postgres.ErrCharacterExists) {
					logger.Debug("sheet already stored", zap.String("id", f.ID))
					continue
				}
				pool.Close()
				return nil, err
			}
			logger.Info("sheet seeded", zap.String("id", f.ID), zap.String("name", f.Name))
		}
		return &backend{store: st, board: st, close: pool.Close}, nil
	default:
		h := memory.NewHost()
		for _, f := range sheets {
			c, err := h.Seed(f)
			if err != nil {
				return nil, err
			}
			logger.Info("sheet loaded", zap.String("id", c.ID), zap.String("name", c.Name))
		}
		return &backend{store: h, board: h, close: func() {}}, nil
	}
}

func loadSheets(dir string, logger *zap.Logger) ([]*fixture.SheetFixture, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		logger.Warn("sheets directory missing; starting with an empty host", zap.String("dir", dir))
		return nil, nil
	}
	return fixture.LoadSheets(dir)
}

// bindRunner routes the scene.* script functions through table so scripted
// tokens and chat reach the summon handler.
func bindRunner(r *scripting.Runner, table *gameserver.Table) {
	r.AddToken = func(ctx context.Context, name, characterID string) (string, error) {
		tok, err := table.PlaceToken(ctx, name, characterID)
		return tok.ID, err
	}
	r.RemoveToken = table.RemoveToken
	r.Chat = table.Say
	r.Attr = func(ctx context.Context, characterID, name string) (string, string, bool, error) {
		a, ok, err := table.Attribute(ctx, characterID, name)
		if err != nil || !ok {
			return "", "", ok, err
		}
		return a.Get(host.FieldCurrent), a.Get(host.FieldMax), true, nil
	}
}

type multiFlag []string

func (m *multiFlag) String() string {
	if m == nil {
		return ""
	}
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
