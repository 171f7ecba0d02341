package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/bedrocktools/agents"
	"github.com/effective-security/bedrocktools/mcp"
	"github.com/effective-security/bedrocktools/mcp/transport/localtransport"
	"github.com/effective-security/bedrocktools/pkg/llmutils"
)

// newLocalClient returns the client of in-process server
func (g *Globals) newLocalClient(callback agents.Callback) (*localtransport.Client, *mcp.Server, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	tr := localtransport.New()
	server, err := newServer(tr, cfg, callback)
	if err != nil {
		return nil, nil, err
	}
	if err = server.Serve(g.ctx); err != nil {
		return nil, nil, err
	}

	client := localtransport.NewClient(tr)
	if _, err = client.Initialize(g.ctx, "bedrock-tools-cli", Version); err != nil {
		_ = server.Close()
		return nil, nil, err
	}
	return client, server, nil
}

// ToolsCmd lists the tools
type ToolsCmd struct {
	YAML bool `help:"Print the tools with the input schema in YAML"`
}

type toolInfo struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	InputSchema map[string]any `json:"input_schema" yaml:"input_schema"`
}

// Run the command
func (cmd *ToolsCmd) Run(g *Globals) error {
	client, server, err := g.newLocalClient(nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = server.Close()
	}()

	tools, err := client.ListTools(g.ctx)
	if err != nil {
		return err
	}

	if cmd.YAML {
		list := make([]toolInfo, 0, len(tools))
		for _, t := range tools {
			info := toolInfo{
				Name:        t.Name,
				Description: t.Description,
			}
			if err = json.Unmarshal(t.InputSchema, &info.InputSchema); err != nil {
				return errors.Wrapf(err, "invalid schema of %s", t.Name)
			}
			list = append(list, info)
		}
		fmt.Fprint(g.out, llmutils.ToYAML(list))
		return nil
	}

	w := tabwriter.NewWriter(g.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, t := range tools {
		fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
	}
	return w.Flush()
}

// CallCmd calls a tool
type CallCmd struct {
	Tool string   `arg:"" help:"Name of the tool: summarize_text, analyze_sentiment or translate_to_french"`
	Text []string `arg:"" help:"Text to process"`
}

// Run the command
func (cmd *CallCmd) Run(g *Globals) error {
	client, server, err := g.newLocalClient(nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = server.Close()
	}()

	res, err := client.CallTool(g.ctx, cmd.Tool, agents.TextInput{Text: strings.Join(cmd.Text, " ")})
	if err != nil {
		return err
	}
	if res.IsError {
		return errors.Newf("tool %s failed: %s", cmd.Tool, res.Text())
	}
	fmt.Fprintln(g.out, res.Text())
	return nil
}

// VersionCmd prints the version
type VersionCmd struct{}

// Run the command
func (cmd *VersionCmd) Run(g *Globals) error {
	fmt.Fprintf(g.out, "%s %s\n", mcp.DefaultServerName, Version)
	return nil
}
