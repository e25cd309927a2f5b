package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada-board/internal/board"
	"github.com/Makepad-fr/tada-board/internal/model"
	"github.com/Makepad-fr/tada-board/internal/ui"
)

func newListCmd(app *App) *cobra.Command {
	var group bool
	var search string
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Print todos in a panel",
		Args:    noArgs("todo ls [--group] [--search <text>]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.newBoard(app.log)
			if err != nil {
				return err
			}
			if err := b.Load(cmd.Context()); err != nil {
				return err
			}
			app.printPanel(b.Items(), b.Visible(search), search, group)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&group, "group", "g", false, "Group output by open/done")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only show todos whose title or description contains text")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Create a todo (title can be multiple words)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageError{"usage: todo add <title...> [-d <description>]"}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.newBoard(app.log)
			if err != nil {
				return err
			}
			t, err := b.Submit(cmd.Context(), strings.Join(args, " "), description)
			if err != nil {
				return err
			}
			ui.OK(app.out, fmt.Sprintf("added #%d %s", t.ID, t.Title))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Optional description")
	return cmd
}

func newDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle the completed flag of a todo",
		Args:  exactArgs(1, "todo done <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := app.newBoard(app.log)
			if err != nil {
				return err
			}
			if err := b.Load(cmd.Context()); err != nil {
				return err
			}
			if err := b.Toggle(cmd.Context(), id); err != nil {
				return withHint(err)
			}
			t, _ := b.Find(id)
			state := "open"
			if t.Completed {
				state = "done"
			}
			ui.OK(app.out, fmt.Sprintf("#%d %s is %s", t.ID, t.Title, state))
			return nil
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    exactArgs(1, "todo rm <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := app.newBoard(app.log)
			if err != nil {
				return err
			}
			if err := b.Load(cmd.Context()); err != nil {
				return err
			}
			if err := b.Remove(cmd.Context(), id); err != nil {
				return withHint(err)
			}
			ui.OK(app.out, fmt.Sprintf("removed #%d", id))
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError{"not a todo id: " + s}
	}
	return id, nil
}

func withHint(err error) error {
	if errors.Is(err, board.ErrNotFound) {
		return fmt.Errorf("%w (run `todo ls` to see ids)", err)
	}
	return err
}

// -------------- rendering helpers --------------

func (a *App) printPanel(all, visible []model.Todo, search string, group bool) {
	t := ui.Current()
	open, done := board.Counts(all)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(t.Title, "Todos"),
		ui.C(t.Pending, t.SymOpen), open,
		ui.C(t.Success, t.SymDone), done,
		ui.C(t.Accent, "Total"), len(all),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(t.Muted, ui.ProgressBar(done, open+done, 28)))
	if strings.TrimSpace(search) != "" {
		lines = append(lines, ui.C(t.Muted, fmt.Sprintf("filter %q: %d of %d", search, len(visible), len(all))))
	}
	lines = append(lines, "")

	if group {
		lines = append(lines, groupLines(visible)...)
	} else {
		lines = append(lines, flatLines(visible)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `todo add \"Buy milk\"`"))
	ui.Panel(a.out, lines)
}

func flatLines(todos []model.Todo) []string {
	t := ui.Current()
	if len(todos) == 0 {
		return []string{ui.C(t.Muted, "no todos")}
	}
	out := make([]string, 0, len(todos))
	for _, td := range todos {
		box, color, badge := t.BoxUnchecked, t.Muted, t.BadgeOpen
		if td.Completed {
			box, color, badge = t.BoxChecked, t.Success, t.BadgeDone
		}
		line := fmt.Sprintf("%s %s %s %s",
			ui.Dim(fmt.Sprintf("#%-3d", td.ID)), ui.C(color, box), ui.Truncate(td.Title, 60), ui.C(color, badge))
		if td.Description != "" {
			line += ui.C(t.Muted, " · "+ui.Truncate(td.Description, 40))
		}
		out = append(out, line)
	}
	return out
}

func groupLines(todos []model.Todo) []string {
	t := ui.Current()
	var open, done []model.Todo
	for _, td := range todos {
		if td.Completed {
			done = append(done, td)
		} else {
			open = append(open, td)
		}
	}
	var lines []string
	lines = append(lines, ui.C(t.Accent, "Open"))
	if len(open) == 0 {
		lines = append(lines, ui.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(open)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Accent, "Done"))
	if len(done) == 0 {
		lines = append(lines, ui.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(done)...)
	}
	return lines
}
