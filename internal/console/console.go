// Package console is a line-oriented terminal front end for one scene: chat
// lines go to the summon handler, slash commands move tokens and inspect
// sheets, and every chat post the handler makes is printed as styled text.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/cory-johannsen/summonbeast/internal/game/session"
	"github.com/cory-johannsen/summonbeast/internal/gameserver"
	"github.com/cory-johannsen/summonbeast/internal/host"
)

// DefaultWho is the chat sender used until /who changes it.
const DefaultWho = "GM"

// ScriptRunner runs scene scripts.
type ScriptRunner interface {
	RunFile(ctx context.Context, path string) error
	// RunDir runs every script in dir in name order.
	RunDir(ctx context.Context, dir string) error
}

// Config configures a Console.
type Config struct {
	In  io.Reader
	Out io.Writer
	// Who is the initial chat sender; "" uses DefaultWho.
	Who string
	// Prompt is written before each line is read; "" disables it.
	Prompt string
	// Scripts serves /run; nil disables it.
	Scripts ScriptRunner
	// Startup scripts are run in order before the first line is read.
	Startup []string
}

// Console reads commands from In and prints chat posts to Out.
// It implements server.Service.
type Console struct {
	table   *gameserver.Table
	outbox  *session.Outbox
	in      io.Reader
	out     io.Writer
	prompt  string
	scripts ScriptRunner
	startup []string
	styles  Styles
	logger  *zap.Logger

	who      string
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Console driving table and printing the posts queued in outbox.
//
// Precondition: table, outbox and logger must be non-nil; cfg.In and cfg.Out must be non-nil.
func New(cfg Config, table *gameserver.Table, outbox *session.Outbox, logger *zap.Logger) *Console {
	who := cfg.Who
	if who == "" {
		who = DefaultWho
	}
	return &Console{
		table:   table,
		outbox:  outbox,
		in:      cfg.In,
		out:     cfg.Out,
		prompt:  cfg.Prompt,
		scripts: cfg.Scripts,
		startup: cfg.Startup,
		styles:  NewStyles(lipgloss.NewRenderer(cfg.Out)),
		logger:  logger,
		who:     who,
		stop:    make(chan struct{}),
	}
}

// Start reads lines until input ends, /quit is entered, ctx is cancelled or
// Stop is called.
//
// Postcondition: Every post queued before Start returns has been printed.
// Returns nil on a clean finish and the read error otherwise.
func (c *Console) Start(ctx context.Context) error {
	for _, path := range c.startup {
		c.runScript(ctx, path)
		c.flush()
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-c.stop:
				return
			}
		}
		readErr <- sc.Err()
	}()

	posts := c.outbox.Posts()
	c.writePrompt()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				c.flush()
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("reading console input: %w", err)
					}
				default:
				}
				return nil
			}
			quit := c.Exec(ctx, line)
			c.flush()
			if quit {
				return nil
			}
			c.writePrompt()
		case post, ok := <-posts:
			if !ok {
				posts = nil
				continue
			}
			c.print(post)
		case <-ctx.Done():
			c.flush()
			return nil
		case <-c.stop:
			c.flush()
			return nil
		}
	}
}

// Stop makes Start return.
func (c *Console) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Exec runs one input line. It reports whether the console should quit.
func (c *Console) Exec(ctx context.Context, line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		if err := c.table.Say(ctx, c.who, line); err != nil {
			c.fail(err)
		}
		return false
	}

	fields := strings.Fields(line)
	args := fields[1:]
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		c.notice(helpText)
	case "/who":
		if len(args) == 0 {
			c.notice("speaking as " + c.who)
			return false
		}
		c.who = strings.Join(args, " ")
		c.notice("speaking as " + c.who)
	case "/add":
		if len(args) == 0 {
			c.notice("usage: /add <character id> [token name]")
			return false
		}
		tok, err := c.table.PlaceToken(ctx, strings.Join(args[1:], " "), args[0])
		if err != nil {
			c.fail(err)
			return false
		}
		c.notice(fmt.Sprintf("token %s placed (%s)", tok.ID, tok.Name))
	case "/remove":
		if len(args) != 1 {
			c.notice("usage: /remove <token id>")
			return false
		}
		if err := c.table.RemoveToken(ctx, args[0]); err != nil {
			c.fail(err)
			return false
		}
		c.notice("token " + args[0] + " removed")
	case "/run":
		if len(args) != 1 {
			c.notice("usage: /run <script path or directory>")
			return false
		}
		c.runScript(ctx, args[0])
	case "/sheets":
		chars, err := c.table.Characters(ctx)
		if err != nil {
			c.fail(err)
			return false
		}
		c.printCharacters(chars)
	case "/tokens":
		toks, err := c.table.Tokens(ctx)
		if err != nil {
			c.fail(err)
			return false
		}
		c.printTokens(toks)
	case "/target":
		id, ok := c.table.ActiveTarget()
		if !ok {
			c.notice("no active bestial spirit")
			return false
		}
		c.notice("active bestial spirit: " + id)
	case "/delete":
		if len(args) != 1 {
			c.notice("usage: /delete <character id>")
			return false
		}
		if err := c.table.DeleteCharacter(ctx, args[0]); err != nil {
			c.fail(err)
			return false
		}
		c.notice("sheet " + args[0] + " deleted")
	case "/sheet":
		if len(args) != 1 {
			c.notice("usage: /sheet <character id>")
			return false
		}
		attrs, err := c.table.Sheet(ctx, args[0])
		if err != nil {
			c.fail(err)
			return false
		}
		c.printSheet(attrs)
	default:
		c.notice("unknown command " + fields[0] + "; try /help")
	}
	return false
}

const helpText = `commands:
  /add <character id> [token name]   place a token for a sheet
  /remove <token id>                 remove a token
  /sheet <character id>              print a sheet's attributes
  /sheets                            list the sheets
  /tokens                            list the tokens on the map
  /target                            show the active bestial spirit sheet
  /delete <character id>             delete a sheet
  /run <script path or directory>    run a Lua scene script, or every one in a directory
  /who [name]                        show or change who is speaking
  /quit                              leave
anything else is sent to chat, e.g. !summon-beast air 4 5`

func (c *Console) runScript(ctx context.Context, path string) {
	if c.scripts == nil {
		c.notice("scripting is disabled")
		return
	}
	run := c.scripts.RunFile
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		run = c.scripts.RunDir
	}
	var err error
	c.draining(func() { err = run(ctx, path) })
	if err != nil {
		c.fail(err)
		return
	}
	c.notice("ran " + path)
}

// draining runs fn while a second goroutine prints the posts it queues, so
// a script may post more than the outbox holds.
//
// Precondition: Must only be called from the goroutine running Start.
// Postcondition: Every post queued by fn has been printed.
func (c *Console) draining(fn func()) {
	done := make(chan struct{})
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			select {
			case post, ok := <-c.outbox.Posts():
				if !ok {
					return
				}
				c.print(post)
			case <-done:
				return
			}
		}
	}()
	fn()
	close(done)
	<-drained
	c.flush()
}

func (c *Console) flush() {
	for {
		select {
		case post, ok := <-c.outbox.Posts():
			if !ok {
				return
			}
			c.print(post)
		default:
			return
		}
	}
}

func (c *Console) print(p session.Post) {
	fmt.Fprintf(c.out, "%s\n%s\n", c.styles.Speaker.Render(p.Speaker+":"), Text(c.styles, p.HTML))
}

func (c *Console) printSheet(attrs []host.Attribute) {
	var b strings.Builder
	for _, a := range attrs {
		b.WriteString(c.styles.Bold.Render(a.Name()))
		b.WriteString(" = ")
		b.WriteString(a.Get(host.FieldCurrent))
		if m := a.Get(host.FieldMax); m != "" {
			b.WriteString(" / ")
			b.WriteString(m)
		}
		b.WriteByte('\n')
	}
	fmt.Fprint(c.out, b.String())
}

func (c *Console) printCharacters(chars []host.Character) {
	if len(chars) == 0 {
		c.notice("no sheets")
		return
	}
	for _, ch := range chars {
		fmt.Fprintf(c.out, "%s  %s\n", c.styles.Bold.Render(ch.ID), ch.Name)
	}
}

func (c *Console) printTokens(toks []host.Token) {
	if len(toks) == 0 {
		c.notice("no tokens on the map")
		return
	}
	for _, t := range toks {
		represents := t.Represents
		if represents == "" {
			represents = "-"
		}
		fmt.Fprintf(c.out, "%s  %s -> %s\n", c.styles.Bold.Render(t.ID), t.Name, represents)
	}
}

func (c *Console) notice(msg string) {
	fmt.Fprintln(c.out, c.styles.Notice.Render(msg))
}

func (c *Console) fail(err error) {
	switch {
	case errors.Is(err, host.ErrCharacterNotFound), errors.Is(err, host.ErrTokenNotFound):
		c.logger.Debug("console command failed", zap.Error(err))
	default:
		c.logger.Warn("console command failed", zap.Error(err))
	}
	fmt.Fprintln(c.out, c.styles.Error.Render("error: "+err.Error()))
}

func (c *Console) writePrompt() {
	if c.prompt != "" {
		fmt.Fprint(c.out, c.prompt)
	}
}
