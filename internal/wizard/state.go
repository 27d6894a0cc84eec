package wizard

import (
	"fmt"

	"t4studio/internal/domain"
)

// Page is the screen the campaign wizard is showing.
type Page string

const (
	PageDashboard Page = "dashboard"
	PageScoping   Page = "wizard_1"
	PageAssets    Page = "wizard_2"
	PageResults   Page = "results"
)

// Command is a discrete user action that may move the wizard.
type Command string

const (
	CmdStartProject  Command = "start_project"
	CmdSubmitScoping Command = "submit_scoping"
	CmdBack          Command = "back"
	CmdSubmitAssets  Command = "submit_assets"
	CmdGenerate      Command = "generate"
	CmdNewProject    Command = "new_project"
)

var transitions = map[Page]map[Command]Page{
	PageDashboard: {
		CmdStartProject: PageScoping,
		CmdNewProject:   PageDashboard,
	},
	PageScoping: {
		CmdSubmitScoping: PageAssets,
		CmdNewProject:    PageDashboard,
	},
	PageAssets: {
		CmdBack:         PageScoping,
		CmdSubmitAssets: PageResults,
		CmdNewProject:   PageDashboard,
	},
	PageResults: {
		CmdGenerate:   PageResults,
		CmdNewProject: PageDashboard,
	},
}

// Next returns the page reached from p by cmd.
func Next(p Page, cmd Command) (Page, error) {
	next, ok := transitions[p][cmd]
	if !ok {
		return p, fmt.Errorf("%w: %s on %s", domain.ErrInvalidTransition, cmd, p)
	}
	return next, nil
}

// Commands lists the commands accepted on p, in a stable order.
func Commands(p Page) []Command {
	var out []Command
	for _, cmd := range []Command{CmdStartProject, CmdSubmitScoping, CmdBack, CmdSubmitAssets, CmdGenerate, CmdNewProject} {
		if _, ok := transitions[p][cmd]; ok {
			out = append(out, cmd)
		}
	}
	return out
}

// ParseCommand reports whether value names a known command.
func ParseCommand(value string) (Command, bool) {
	switch cmd := Command(value); cmd {
	case CmdStartProject, CmdSubmitScoping, CmdBack, CmdSubmitAssets, CmdGenerate, CmdNewProject:
		return cmd, true
	}
	return "", false
}
