package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Leganyst/session-booking/internal/editor"
)

// shell — интерактивная сессия редактора: правки копятся до commit.
type shell struct {
	ed  *editor.Editor
	out io.Writer
}

const shellHelp = `commands:
  show [DATE]            slots with effective status
  toggle DATE LABEL...   flip available/closed locally
  pending                uncommitted edits
  commit                 send all edits in one batch
  discard                drop all edits
  refresh                reload slots from the server
  quit`

func (s *shell) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 {
			if fields[0] == "quit" || fields[0] == "exit" {
				if n := len(s.ed.Pending()); n > 0 {
					fmt.Fprintf(s.out, "%d uncommitted edits dropped\n", n)
				}
				return nil
			}
			if err := s.exec(ctx, fields[0], fields[1:]); err != nil {
				fmt.Fprintf(s.out, "error: %v\n", err)
			}
		}
		fmt.Fprint(s.out, "> ")
	}
	return sc.Err()
}

func (s *shell) exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		fmt.Fprintln(s.out, shellHelp)
	case "show":
		day := ""
		if len(args) > 0 {
			day = args[0]
		}
		printSlots(s.out, s.ed, day)
	case "toggle":
		if len(args) < 2 {
			return fmt.Errorf("usage: toggle DATE LABEL...")
		}
		for _, label := range args[1:] {
			st, err := s.ed.Toggle(args[0], label)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "%s %s -> %s\n", args[0], label, st)
		}
	case "pending":
		printPending(s.out, s.ed)
	case "commit":
		res, err := s.ed.CommitAll(ctx)
		if err != nil {
			return fmt.Errorf("%w (edits kept, retry with commit)", err)
		}
		printCommit(s.out, res)
	case "discard":
		s.ed.DiscardAll()
		fmt.Fprintln(s.out, "edits discarded")
	case "refresh":
		return s.ed.Refresh(ctx)
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

func printSlots(w io.Writer, ed *editor.Editor, day string) {
	seen := map[string]bool{}
	for _, sl := range ed.Slots() {
		if day != "" && sl.Date != day {
			continue
		}
		key := sl.Date + " " + sl.TimeLabel
		seen[key] = true
		st := ed.EffectiveStatus(sl.Date, sl.TimeLabel)
		mark := ""
		if st != sl.Status {
			mark = fmt.Sprintf(" (was %s)", sl.Status)
		}
		fmt.Fprintf(w, "%s %-12s %s%s\n", sl.Date, sl.TimeLabel, st, mark)
	}
	for _, p := range ed.Pending() {
		if day != "" && p.Date != day {
			continue
		}
		if !seen[p.Date+" "+p.TimeLabel] {
			fmt.Fprintf(w, "%s %-12s %s (new)\n", p.Date, p.TimeLabel, p.Status)
		}
	}
}

func printPending(w io.Writer, ed *editor.Editor) {
	pending := ed.Pending()
	if len(pending) == 0 {
		fmt.Fprintln(w, "no pending edits")
		return
	}
	for _, p := range pending {
		fmt.Fprintf(w, "%s %-12s -> %s\n", p.Date, p.TimeLabel, p.Status)
	}
}

func printCommit(w io.Writer, res *editor.CommitResult) {
	fmt.Fprintf(w, "committed %d edits\n", res.Sent)
	for _, sk := range res.Skipped {
		fmt.Fprintf(w, "skipped %s %s: slot is booked\n", sk.Date, sk.TimeLabel)
	}
}
