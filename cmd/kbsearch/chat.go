package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/poiesic/kbsearch/chat"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/provider"
	"github.com/urfave/cli/v2"
)

const chatHelp = `Commands:
  /new [name]        create a session (auto-named without a name) and switch to it
  /switch <name>     switch to a session
  /delete <name>     delete a session
  /clear             clear the current session
  /sessions          list sessions
  /history           show the current session with message numbers
  /web on|off        toggle web search
  /regen <n>         regenerate assistant message n
  /provider [key]    show or switch the chat provider
  /quit              leave
Anything else is sent as a message.`

func chatCommand(c *cli.Context) error {
	app, cfg, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	if key := c.String("provider"); key != "" {
		if err := app.Providers().SetActive(key); err != nil {
			return err
		}
	}
	app.Chat().SetWebSearch(c.Bool("web"))

	r := &repl{
		chat:      app.Chat(),
		providers: app.Providers(),
		template:  cfg.Chat.SessionTemplate,
		out:       c.App.Writer,
	}
	return r.run(context.Background(), c.App.Reader)
}

// repl is a line-oriented chat driver. Each line is handled to completion
// before the next is read.
type repl struct {
	chat      *chat.Orchestrator
	providers *provider.Registry
	template  string
	out       io.Writer
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintf(r.out, "Session %q. Type /help for commands.\n", r.chat.ActiveSession())

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprintf(r.out, "[%s]> ", r.chat.ActiveSession())
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !r.handle(ctx, line) {
			return nil
		}
	}
}

// handle runs one input line and reports whether to keep going.
func (r *repl) handle(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, "/") {
		r.send(ctx, line)
		return true
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch cmd {
	case "/quit", "/exit":
		return false
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/new":
		if arg == "" {
			var name string
			name, err = r.chat.CreateAutoSession(r.template)
			if err == nil {
				fmt.Fprintf(r.out, "Created session %q\n", name)
			}
		} else if err = r.chat.CreateSession(arg); err == nil {
			fmt.Fprintf(r.out, "Created session %q\n", arg)
		}
	case "/switch":
		err = r.chat.SwitchActive(arg)
	case "/delete":
		if err = r.chat.DeleteSession(arg); err == nil {
			fmt.Fprintf(r.out, "Deleted session %q\n", arg)
		}
	case "/clear":
		if err = r.chat.ClearSession(r.chat.ActiveSession()); err == nil {
			fmt.Fprintln(r.out, "Session cleared")
		}
	case "/sessions":
		for _, s := range r.chat.ListSessions() {
			marker := " "
			if s.Active {
				marker = "*"
			}
			fmt.Fprintf(r.out, "%s %s (%d messages)\n", marker, s.Name, s.Messages)
		}
	case "/history":
		err = r.history()
	case "/web":
		switch arg {
		case "on":
			r.chat.SetWebSearch(true)
		case "off":
			r.chat.SetWebSearch(false)
		case "":
		default:
			fmt.Fprintln(r.out, "usage: /web on|off")
			return true
		}
		fmt.Fprintf(r.out, "Web search: %s\n", onOff(r.chat.WebSearchEnabled()))
	case "/regen":
		err = r.regenerate(ctx, arg)
	case "/provider":
		if arg != "" {
			err = r.providers.SetActive(arg)
		}
		if err == nil {
			printProviders(r.out, r.providers.ListAvailable(), r.providers.ActiveKey())
		}
	default:
		fmt.Fprintf(r.out, "unknown command %s, try /help\n", cmd)
	}

	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
	}
	return true
}

func (r *repl) send(ctx context.Context, text string) {
	reply, err := r.chat.SendMessage(ctx, r.chat.ActiveSession(), text, r.chat.WebSearchEnabled())
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	r.printReply(reply)
}

func (r *repl) regenerate(ctx context.Context, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("usage: /regen <n>")
	}
	reply, err := r.chat.Regenerate(ctx, r.chat.ActiveSession(), n)
	if err != nil {
		return err
	}
	r.printReply(reply)
	return nil
}

func (r *repl) history() error {
	sess, err := r.chat.Session(r.chat.ActiveSession())
	if err != nil {
		return err
	}
	for i, msg := range sess.Messages {
		fmt.Fprintf(r.out, "%d [%s %s] %s\n", i, msg.CreatedAt.Format("15:04:05"), msg.Role, msg.Content)
	}
	return nil
}

func (r *repl) printReply(reply core.ChatMessage) {
	if meta := reply.SearchMeta; meta != nil {
		switch {
		case meta.UsedWebSearch:
			fmt.Fprintln(r.out, "(answered with web search)")
		case meta.SearchFailed:
			fmt.Fprintf(r.out, "(web search failed: %s)\n", meta.Error)
		}
	}
	fmt.Fprintln(r.out, reply.Content)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
