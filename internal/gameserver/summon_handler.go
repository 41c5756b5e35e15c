// Package gameserver routes host notifications to the summon-beast
// command: chat events are parsed and applied to the active Bestial
// Spirit sheet, token lifecycle events maintain which sheet is active.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/cory-johannsen/summonbeast/internal/game/beast"
	"github.com/cory-johannsen/summonbeast/internal/game/command"
	"github.com/cory-johannsen/summonbeast/internal/game/session"
	"github.com/cory-johannsen/summonbeast/internal/game/sheet"
	"github.com/cory-johannsen/summonbeast/internal/host"
)

// Defaults for HandlerConfig fields left empty.
const (
	DefaultSpeaker    = "Summon Beast API"
	DefaultTargetName = "bestial spirit"
)

// HandlerConfig tunes a SummonHandler.
type HandlerConfig struct {
	// Speaker is the chat name the handler posts as.
	Speaker string
	// TargetName is matched case-insensitively against the name of the
	// sheet a token represents.
	TargetName string
	// StrictRemove clears the active target on token removal only when the
	// removed token represents the tracked sheet.
	StrictRemove bool
}

// SummonHandler serves the summon-beast chat command and tracks the active
// Bestial Spirit sheet per scene.
type SummonHandler struct {
	registry *command.Registry
	parser   *command.SummonParser
	sessions *session.Manager
	store    host.Store
	updater  *sheet.Updater
	chat     host.Chat
	cfg      HandlerConfig
	target   string
	logger   *zap.Logger
}

// NewSummonHandler creates a SummonHandler with the given dependencies.
//
// Precondition: All arguments must be non-nil.
// Postcondition: Empty cfg fields are replaced by their defaults.
func NewSummonHandler(
	reg *command.Registry,
	sessions *session.Manager,
	store host.Store,
	chat host.Chat,
	cfg HandlerConfig,
	logger *zap.Logger,
) *SummonHandler {
	if cfg.Speaker == "" {
		cfg.Speaker = DefaultSpeaker
	}
	if strings.TrimSpace(cfg.TargetName) == "" {
		cfg.TargetName = DefaultTargetName
	}
	return &SummonHandler{
		registry: reg,
		parser:   command.NewSummonParser(reg),
		sessions: sessions,
		store:    store,
		updater:  sheet.NewUpdater(store, logger),
		chat:     chat,
		cfg:      cfg,
		target:   cases.Fold().String(strings.TrimSpace(cfg.TargetName)),
		logger:   logger,
	}
}

// HandleChat processes one chat event in sceneID. Events that are not
// summon-beast commands are ignored. A rejected command is reported to
// chat as one error panel and no sheet is touched; an accepted one
// rewrites the active sheet and posts one confirmation.
//
// Postcondition: Returns an error only when the store or chat fails.
func (h *SummonHandler) HandleChat(ctx context.Context, sceneID string, evt command.Event) error {
	cmd, _, ok := h.parser.Match(evt)
	if !ok {
		return nil
	}
	if cmd.Handler == command.HandlerSummonHelp {
		return h.post(ctx, RenderHelp(h.registry.Commands()))
	}

	scene := h.sessions.Scene(sceneID)
	targetID, active := scene.ActiveTarget()
	params, err := h.parser.Parse(evt, active)
	if err != nil {
		return h.reject(ctx, sceneID, evt, err)
	}
	if params == nil {
		return nil
	}

	if !beast.IsKnownCategory(params.Category) {
		h.logger.Debug("unrecognised beast type, using land",
			zap.String("scene", sceneID),
			zap.String("beast_type", params.Category),
		)
	}

	rep, err := h.updater.Apply(ctx, targetID, *params)
	if errors.Is(err, host.ErrCharacterNotFound) {
		// The tracked sheet was deleted after its token was placed.
		scene.ClearActiveTargetIf(targetID)
		return h.reject(ctx, sceneID, evt, command.NoTargetError())
	}
	if err != nil {
		h.logger.Error("updating bestial spirit sheet",
			zap.String("scene", sceneID),
			zap.String("character_id", targetID),
			zap.Error(err),
		)
		return fmt.Errorf("applying summon to %q: %w", targetID, err)
	}

	h.logger.Info("bestial spirit set",
		zap.String("scene", sceneID),
		zap.String("character_id", targetID),
		zap.String("who", evt.Who),
		zap.String("category", rep.Stats.Category.String()),
		zap.Int("spell_level", params.SpellLevel),
		zap.Int("spell_attack_bonus", params.SpellAttackBonus),
		zap.Strings("missing", rep.Missing),
	)
	return h.post(ctx, RenderSuccess(rep.Stats))
}

func (h *SummonHandler) reject(ctx context.Context, sceneID string, evt command.Event, err error) error {
	pe, ok := command.AsParseError(err)
	if !ok {
		return fmt.Errorf("parsing %q: %w", evt.Content, err)
	}
	h.logger.Info("summon command rejected",
		zap.String("scene", sceneID),
		zap.String("who", evt.Who),
		zap.Stringer("code", pe.Code),
		zap.Int("details", len(pe.Details)),
	)
	return h.post(ctx, RenderParseError(pe))
}

// HandleTokenAdded makes the token's sheet the scene's active target when
// it is a Bestial Spirit sheet. Any other token leaves the target as is.
//
// Postcondition: Returns an error only when the store fails.
func (h *SummonHandler) HandleTokenAdded(ctx context.Context, sceneID string, tok host.Token) error {
	characterID, ok, err := h.spiritSheet(ctx, tok)
	if err != nil || !ok {
		return err
	}
	previous := h.sessions.Scene(sceneID).SetActiveTarget(characterID)
	h.logger.Info("bestial spirit token added",
		zap.String("scene", sceneID),
		zap.String("token_id", tok.ID),
		zap.String("character_id", characterID),
		zap.String("previous", previous),
	)
	return nil
}

// HandleTokenRemoved clears the scene's active target when the removed
// token represents a Bestial Spirit sheet. With StrictRemove the target is
// only cleared if it is that sheet.
//
// Postcondition: Returns an error only when the store fails.
func (h *SummonHandler) HandleTokenRemoved(ctx context.Context, sceneID string, tok host.Token) error {
	characterID, ok, err := h.spiritSheet(ctx, tok)
	if err != nil || !ok {
		return err
	}
	scene := h.sessions.Scene(sceneID)
	var cleared bool
	if h.cfg.StrictRemove {
		cleared = scene.ClearActiveTargetIf(characterID)
	} else {
		cleared = scene.ClearActiveTarget() != ""
	}
	h.logger.Info("bestial spirit token removed",
		zap.String("scene", sceneID),
		zap.String("token_id", tok.ID),
		zap.String("character_id", characterID),
		zap.Bool("cleared", cleared),
	)
	return nil
}

// ActiveTarget returns the active Bestial Spirit sheet of sceneID without
// opening the scene.
//
// Postcondition: ok is false when the scene is not open or has no target.
func (h *SummonHandler) ActiveTarget(sceneID string) (characterID string, ok bool) {
	scene, open := h.sessions.Lookup(sceneID)
	if !open {
		return "", false
	}
	return scene.ActiveTarget()
}

// IsSpiritName reports whether a sheet called name is a Bestial Spirit.
func (h *SummonHandler) IsSpiritName(name string) bool {
	return strings.Contains(cases.Fold().String(name), h.target)
}

// spiritSheet resolves the sheet tok represents.
//
// Postcondition: ok is true iff tok represents an existing sheet whose name
// matches the target name.
func (h *SummonHandler) spiritSheet(ctx context.Context, tok host.Token) (characterID string, ok bool, err error) {
	if tok.Represents == "" {
		return "", false, nil
	}
	c, err := h.store.Character(ctx, tok.Represents)
	if errors.Is(err, host.ErrCharacterNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolving token %q: %w", tok.ID, err)
	}
	return c.ID, h.IsSpiritName(c.Name), nil
}

func (h *SummonHandler) post(ctx context.Context, html string) error {
	if err := h.chat.Send(ctx, h.cfg.Speaker, html); err != nil {
		h.logger.Error("posting to chat", zap.Error(err))
		return fmt.Errorf("posting to chat: %w", err)
	}
	return nil
}
