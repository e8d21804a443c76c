// ABOUTME: Interactive chat loop with slash commands for managing conversations
// ABOUTME: Plain lines are sent to the active conversation; replies stream into the terminal

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/HarshalVankudre/digitalocean/internal/api"
	"github.com/HarshalVankudre/digitalocean/internal/render"
)

func newChatCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), flags, cmd.OutOrStdout(), cmd.InOrStdin())
		},
	}
}

// chatSession is the state of one interactive run.
type chatSession struct {
	*app
	out  io.Writer
	term *render.Terminal
	// last listing shown by /list, for /open <n>
	listed []api.Conversation
}

func runChat(ctx context.Context, flags *rootFlags, out io.Writer, in io.Reader) error {
	a, err := newApp(flags)
	if err != nil {
		return err
	}
	defer a.Close()

	term, err := render.NewTerminal(out, render.Options{
		Style:    a.cfg.Render.Style,
		WordWrap: a.cfg.Render.WordWrap,
		NoColor:  flags.noColor,
	})
	if err != nil {
		return err
	}
	a.msgs.Subscribe(term.Observe)

	s := &chatSession{app: a, out: out, term: term}

	fmt.Fprintf(out, "gradient-chat connected to %s\n", a.cfg.Backend.BaseURL)
	checkToken(out, a.tokens)

	if _, err := a.mgr.Resolve(ctx); err != nil {
		return err
	}
	s.showActive(ctx)
	term.History(a.msgs.Snapshot())
	fmt.Fprintln(out, "Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Fprintln(out)

	return s.loop(ctx, in)
}

func (s *chatSession) loop(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
			return
		}
		readErr <- io.EOF
	}()

	prompt := color.New(color.FgGreen)
	for {
		prompt.Fprint(s.out, "> ")

		var input string
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out, "\nGoodbye!")
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out, "\nGoodbye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-lines:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := s.command(ctx, input)
			if err != nil {
				s.printError(err)
			}
			if quit {
				fmt.Fprintln(s.out, "Goodbye!")
				return nil
			}
			fmt.Fprintln(s.out)
			continue
		}

		s.send(ctx, input)
	}
}

func (s *chatSession) send(ctx context.Context, input string) {
	if err := s.ctrl.Submit(ctx, input); err != nil {
		s.printError(err)
		return
	}
	if last, ok := s.msgs.Last(); ok {
		s.term.Finish(last)
	}
}

// command runs a slash command and reports whether the loop should end.
func (s *chatSession) command(ctx context.Context, input string) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit", "/q":
		return true, nil

	case "/help":
		printHelp(s.out)

	case "/list":
		convs, err := s.dir.List(ctx)
		if err != nil {
			return false, err
		}
		s.listed = convs
		printConversations(s.out, convs, s.mgr.Active())

	case "/new":
		conv, err := s.mgr.NewConversationTitled(ctx, arg)
		if err != nil {
			return false, err
		}
		s.term.Notice("Started %q (%s)", conv.DisplayTitle(), conv.ID)

	case "/open":
		id, err := s.pick(arg)
		if err != nil {
			return false, err
		}
		if err := s.mgr.Switch(ctx, id); err != nil {
			return false, err
		}
		s.showActive(ctx)
		s.term.History(s.msgs.Snapshot())

	case "/rename":
		conv, err := s.mgr.Rename(ctx, s.mgr.Active(), arg)
		if err != nil {
			return false, err
		}
		s.term.Notice("Renamed to %q", conv.DisplayTitle())

	case "/delete":
		id := s.mgr.Active()
		if arg != "" {
			picked, err := s.pick(arg)
			if err != nil {
				return false, err
			}
			id = picked
		}
		wasActive := id == s.mgr.Active()
		if err := s.mgr.Delete(ctx, id); err != nil {
			return false, err
		}
		s.term.Notice("Deleted %s", id)
		if wasActive {
			s.showActive(ctx)
		}

	case "/history":
		s.term.History(s.msgs.Snapshot())

	case "/export":
		if arg == "" {
			return false, errors.New("usage: /export <file>")
		}
		conv := api.Conversation{ID: s.mgr.Active()}
		if c, ok := s.dir.Find(conv.ID); ok {
			conv = c
		}
		if err := writeTranscript(arg, conv, s.msgs.Snapshot()); err != nil {
			return false, err
		}
		s.term.Notice("Exported to %s", arg)

	default:
		return false, fmt.Errorf("unknown command %s (try /help)", name)
	}
	return false, nil
}

// pick accepts a conversation id or a 1-based index into the last /list.
func (s *chatSession) pick(arg string) (string, error) {
	if arg == "" {
		return "", errors.New("a conversation id or /list number is required")
	}
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(s.listed) {
			return "", fmt.Errorf("no conversation #%d in the last /list", n)
		}
		return s.listed[n-1].ID, nil
	}
	return arg, nil
}

func (s *chatSession) showActive(ctx context.Context) {
	id := s.mgr.Active()
	conv, ok := s.dir.Find(id)
	if !ok {
		if _, err := s.dir.List(ctx); err == nil {
			conv, ok = s.dir.Find(id)
		}
	}
	title := "Chat"
	if ok {
		title = conv.DisplayTitle()
	}
	color.New(color.FgCyan).Fprintf(s.out, "Conversation: %s ", title)
	color.New(color.FgHiBlack).Fprintf(s.out, "(%s)\n", id)
}

func (s *chatSession) printError(err error) {
	s.logger.Debug("command failed", "error", err)
	color.New(color.FgRed).Fprintf(s.out, "[error] %s\n", describeError(err))
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  /list              List conversations")
	fmt.Fprintln(w, "  /new [title]       Start a new conversation")
	fmt.Fprintln(w, "  /open <id|n>       Switch to a conversation")
	fmt.Fprintln(w, "  /rename <title>    Rename the current conversation")
	fmt.Fprintln(w, "  /delete [id|n]     Delete a conversation (default: current)")
	fmt.Fprintln(w, "  /history           Show the current conversation again")
	fmt.Fprintln(w, "  /export <file>     Save the current conversation as HTML")
	fmt.Fprintln(w, "  /help              Show this help")
	fmt.Fprintln(w, "  /quit              Exit")
}

func printConversations(w io.Writer, convs []api.Conversation, active string) {
	if len(convs) == 0 {
		fmt.Fprintln(w, "No conversations")
		return
	}
	gray := color.New(color.FgHiBlack)
	for i, c := range convs {
		marker := " "
		if c.ID == active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %2d. %s ", marker, i+1, c.DisplayTitle())
		updated := ""
		if !c.UpdatedAt.IsZero() {
			updated = " " + c.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		gray.Fprintf(w, "(%s)%s\n", c.ID, updated)
	}
}

// stdoutName is the file argument meaning standard output.
const stdoutName = "-"

func openOutput(path string) (io.WriteCloser, error) {
	if path == stdoutName {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
