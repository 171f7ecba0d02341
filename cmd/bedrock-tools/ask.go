package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/effective-security/bedrocktools/agents"
	"github.com/effective-security/bedrocktools/callbacks"
	"github.com/effective-security/bedrocktools/chatmodel"
	"github.com/effective-security/bedrocktools/mcp/transport/localtransport"
	"golang.org/x/term"
)

const welcome = `Welcome! I am an AI assistant, tell me what you need in plain English.
For example:
  - Give me the short version of this article: [paste article]
  - How does this review sound? [paste review]
  - Can you say 'hello world' in French?
Type 'exit' or 'quit' to end the session.
`

// AskCmd sends requests to the assistant
type AskCmd struct {
	Request    []string `arg:"" optional:"" help:"Request in plain English, including the text to process"`
	Verbose    bool     `short:"v" help:"Print the agents events"`
	Scratchpad bool     `help:"Print the events and stats of each request after the answer"`
}

type asker struct {
	client     *localtransport.Client
	scratchpad *callbacks.Scratchpad
	chatID     string
	g          *Globals
}

// Run the command
func (cmd *AskCmd) Run(g *Globals) error {
	a := &asker{
		g:      g,
		chatID: chatmodel.NewChatID(),
	}

	fanout := callbacks.NewFanout(callbacks.NewPackageLogger(logger))
	if cmd.Verbose {
		fanout.Add(callbacks.NewPrinter(g.err, callbacks.ModeVerbose))
	}
	if cmd.Scratchpad {
		a.scratchpad = callbacks.NewScratchpad(callbacks.ModeDefault)
		fanout.Add(a.scratchpad)
	}

	client, server, err := g.newLocalClient(fanout)
	if err != nil {
		return err
	}
	defer func() {
		_ = server.Close()
	}()
	a.client = client

	if len(cmd.Request) > 0 {
		return a.ask(g.ctx, strings.Join(cmd.Request, " "))
	}
	return a.chat()
}

func (a *asker) ask(ctx context.Context, request string) error {
	ctx = chatmodel.WithChatContext(ctx, chatmodel.NewChatContext(a.chatID, nil))
	if a.scratchpad != nil {
		ctx = a.scratchpad.StartRun(ctx)
	}

	res, err := a.client.GetPrompt(ctx, agents.OrchestratorName, map[string]string{
		"request": request,
		"chat_id": a.chatID,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.g.out, res.Text())

	if a.scratchpad != nil {
		if _, out := a.scratchpad.EndRun(ctx); len(out) > 0 {
			_, _ = a.g.err.Write(out)
		}
	}
	return nil
}

// chat runs read-eval-print loop until exit, quit or end of input
func (a *asker) chat() error {
	interactive := isTerminal(a.g.in)
	if interactive {
		fmt.Fprint(a.g.out, welcome)
	}

	scanner := bufio.NewScanner(a.g.in)
	scanner.Buffer(make([]byte, 64*1024), int(agents.DefaultMaxContentSize))
	for {
		if interactive {
			fmt.Fprint(a.g.out, "\nYou: ")
		}
		if !scanner.Scan() {
			break
		}
		request := strings.TrimSpace(scanner.Text())
		if request == "" {
			continue
		}
		switch strings.ToLower(request) {
		case "exit", "quit":
			fmt.Fprintln(a.g.out, "Goodbye!")
			return nil
		}
		if a.g.ctx.Err() != nil {
			return nil
		}

		if interactive {
			fmt.Fprint(a.g.out, "AI: ")
		}
		if err := a.ask(a.g.ctx, request); err != nil {
			fmt.Fprintf(a.g.err, "error: %s\n", err.Error())
		}
	}
	return scanner.Err()
}

func isTerminal(r any) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
