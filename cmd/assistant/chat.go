package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/example/pocket-assistant/internal/application"
	"github.com/example/pocket-assistant/internal/calendar"
	"github.com/example/pocket-assistant/internal/persistence"
	"github.com/example/pocket-assistant/internal/persistence/memory"
)

const consoleRecipient = "console"

type chatOptions struct {
	memory bool
	quiet  bool
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	chat := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant from the terminal; reminders print inline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var store persistence.Store
			if chat.memory {
				store = memory.New(time.Now)
			} else {
				storage, err := openStorage(ctx, cfg, logger)
				if err != nil {
					return err
				}
				defer storage.Close()
				store = storage
			}

			console := &consoleNotifier{out: opts.stdout}
			svc := newServices(cfg, store, console, consoleRecipient, calendar.Nop{}, logger)
			if !chat.quiet {
				if err := svc.scheduler.Start(ctx); err != nil {
					return err
				}
				defer svc.scheduler.Stop()
			}

			return runChat(ctx, svc.assistant, opts.stdin, console)
		},
	}
	cmd.Flags().BoolVar(&chat.memory, "memory", false, "use an in-memory store instead of SQLite")
	cmd.Flags().BoolVar(&chat.quiet, "no-timers", false, "do not run the digest and reminder timers")
	return cmd
}

// consoleNotifier serialises replies and timer notifications on one writer.
type consoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func (c *consoleNotifier) Send(_ context.Context, _, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, "\n%s\n", text)
	return err
}

func (c *consoleNotifier) print(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

type handler interface {
	Handle(ctx context.Context, msg application.Message) application.Reply
}

func runChat(ctx context.Context, assistant handler, in io.Reader, console *consoleNotifier) error {
	interactive := false
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		interactive = true
		console.print("Assistente pronto. Escreva \"ajuda\" para ver os comandos, Ctrl+D para sair.\n")
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for n := 1; ; n++ {
		if interactive {
			console.print("> ")
		}
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			reply := assistant.Handle(ctx, application.Message{ID: "console-" + strconv.Itoa(n), From: consoleRecipient, Text: line})
			if reply.Text != "" {
				_ = console.Send(ctx, consoleRecipient, reply.Text)
			}
		}
	}
}
