package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/effective-security/bedrocktools/mcp"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/bedrocktools", "cmd")

// Version is set at build time
var Version = mcp.DefaultServerVersion

// Globals are the flags shared by all commands
type Globals struct {
	Config   string `short:"c" env:"BEDROCK_TOOLS_CONFIG" help:"Path to the configuration file"`
	LogLevel string `name:"log-level" help:"Log level: TRACE, DEBUG, INFO, NOTICE, WARNING, ERROR"`
	Region   string `env:"AWS_REGION" help:"AWS region of Bedrock runtime"`
	Model    string `env:"BEDROCK_MODEL_ID" help:"Model ID of the agents"`

	ctx context.Context
	in  io.Reader
	out io.Writer
	err io.Writer
}

// CLI is the command line of bedrock-tools
type CLI struct {
	Globals

	Serve   ServeCmd   `cmd:"" help:"Run the MCP server over streamable HTTP"`
	Tools   ToolsCmd   `cmd:"" help:"List the tools"`
	Call    CallCmd    `cmd:"" help:"Call a tool with the text"`
	Ask     AskCmd     `cmd:"" help:"Ask the assistant in plain English, without a request starts interactive chat"`
	Version VersionCmd `cmd:"" help:"Print the version"`
}

func newParser(cli *CLI, opts ...kong.Option) (*kong.Kong, error) {
	return kong.New(cli, append([]kong.Option{
		kong.Name("bedrock-tools"),
		kong.Description("MCP server of text tools backed by AWS Bedrock"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	}, opts...)...)
}

func main() {
	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cli := &CLI{
		Globals: Globals{
			ctx: ctx,
			in:  os.Stdin,
			out: os.Stdout,
			err: os.Stderr,
		},
	}
	parser, err := newParser(cli)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	kctx.FatalIfErrorf(kctx.Run(&cli.Globals))
}
