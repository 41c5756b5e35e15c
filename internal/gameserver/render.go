package gameserver

import (
	"fmt"
	"html"
	"strings"

	"github.com/cory-johannsen/summonbeast/internal/game/beast"
	"github.com/cory-johannsen/summonbeast/internal/game/command"
)

const (
	errorPanelOpen = `<div style = "background-color: white; padding: 5px 10px; border: 1px solid black">` +
		`<p style = "color: white; font-weight: bold; font-size: 110%; background-color: red; padding: 5px 10px; border: 1px solid black">`
	messagePanelOpen = `<div style = "background-color: white; padding: 5px 10px; border: 1px solid green">`
	detailBodyOpen   = `<p style="padding-left: 5px">`
)

// SpiritSetMessage is the first line of every success panel.
const SpiritSetMessage = "The bestial spirit has been set."

// ErrorPanel wraps body in the red-titled error box.
func ErrorPanel(title, body string) string {
	return errorPanelOpen + "ERROR-" + html.EscapeString(title) + "</p>" + body + "</div>"
}

// MessagePanel wraps body in the green-bordered message box.
func MessagePanel(body string) string {
	return messagePanelOpen + body + "</div>"
}

// RenderParseError formats pe as an error panel. Argument details become
// one bold heading each; other details are plain paragraphs.
func RenderParseError(pe *command.ParseError) string {
	var b strings.Builder
	for _, d := range pe.Details {
		switch {
		case d.Position > 0:
			b.WriteString("<div><b>")
			b.WriteString(html.EscapeString(d.Heading()))
			b.WriteString("</b>")
			b.WriteString(detailBodyOpen)
			b.WriteString(html.EscapeString(d.Message))
			b.WriteString("</p></div>")
		case pe.Code == command.TooFewArgs || pe.Code == command.TooManyArgs:
			b.WriteString(usageBlock())
		default:
			b.WriteString("<p>")
			b.WriteString(html.EscapeString(d.Message))
			b.WriteString("</p>")
		}
	}
	return ErrorPanel(pe.Code.Title(), b.String())
}

// RenderSuccess formats the confirmation posted after a sheet update.
func RenderSuccess(stats beast.Stats) string {
	dmg := stats.Damage()
	var b strings.Builder
	b.WriteString("<p>" + SpiritSetMessage + "</p>")
	fmt.Fprintf(&b, "<p><b>%s</b></p><ul>", html.EscapeString(stats.DisplayName()))
	fmt.Fprintf(&b, "<li>AC %d</li>", stats.ArmorClass)
	fmt.Fprintf(&b, "<li>HP %d</li>", stats.HitPoints)
	fmt.Fprintf(&b, "<li>Speed %s</li>", html.EscapeString(stats.Speed))
	fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(stats.Multiattack))
	fmt.Fprintf(&b, "<li>Maul %+d to hit, %s (avg %d)</li>", stats.AttackBonus, dmg, dmg.Average())
	b.WriteString("</ul>")
	return MessagePanel(b.String())
}

// RenderHelp formats the usage panel listing cmds.
func RenderHelp(cmds []*command.Command) string {
	var b strings.Builder
	b.WriteString(usageBlock())
	b.WriteString("<p>Commands:</p><ul>")
	for _, c := range cmds {
		b.WriteString("<li><b>")
		b.WriteString(html.EscapeString(strings.TrimSpace(c.Name + " " + c.Usage)))
		b.WriteString("</b>")
		if len(c.Aliases) > 0 {
			b.WriteString(" (also " + html.EscapeString(strings.Join(c.Aliases, ", ")) + ")")
		}
		b.WriteString(": " + html.EscapeString(c.Help) + "</li>")
	}
	b.WriteString("</ul>")
	return MessagePanel(b.String())
}

func usageBlock() string {
	var b strings.Builder
	b.WriteString("<p>" + html.EscapeString(command.UsageIntro) + "<ul>")
	for _, arg := range command.UsageArguments {
		b.WriteString("<li>" + html.EscapeString(arg) + "</li>")
	}
	b.WriteString("</ul></p>")
	return b.String()
}
