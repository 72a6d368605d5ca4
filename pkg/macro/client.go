package macro

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"

	"github.com/vito/quartz/pkg/ast"
)

// ExpandMethod is the JSON-RPC method a macro server implements.
const ExpandMethod = "macro.expand"

// WireRequest is the JSON form of a Request. Trees travel as YAML in the
// same format the compiler reads.
type WireRequest struct {
	Name   string   `json:"name"`
	Params []string `json:"params"`
	Args   []string `json:"args"`
	Body   string   `json:"body,omitempty"`
}

// WireResponse carries the expansion as YAML source.
type WireResponse struct {
	Source string `json:"source"`
}

// Client expands macros by calling a JSON-RPC server.
type Client struct {
	rpc *jrpc2.Client
	cmd *exec.Cmd
}

// NewClient talks to a server over a line-delimited channel.
func NewClient(ch channel.Channel) *Client {
	return &Client{rpc: jrpc2.NewClient(ch, nil)}
}

// Start launches a macro server and talks to it over its stdio.
func Start(ctx context.Context, argv []string) (*Client, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("no macro command configured")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = os.Stderr
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting macro server: %w", err)
	}
	slog.DebugContext(ctx, "started macro server", "command", argv, "pid", cmd.Process.Pid)
	c := NewClient(channel.Line(out, in))
	c.cmd = cmd
	return c, nil
}

func (c *Client) Expand(ctx context.Context, req Request) (ast.Node, error) {
	wire := WireRequest{Name: req.Name, Params: req.Params}
	for _, a := range req.Args {
		src, err := ast.Encode(a)
		if err != nil {
			return nil, err
		}
		wire.Args = append(wire.Args, string(src))
	}
	if req.Body != nil {
		src, err := ast.Encode(req.Body)
		if err != nil {
			return nil, err
		}
		wire.Body = string(src)
	}

	var resp WireResponse
	if err := c.rpc.CallResult(ctx, ExpandMethod, wire, &resp); err != nil {
		return nil, fmt.Errorf("expanding macro '%s': %w", req.Name, err)
	}
	return ast.Decode("<macro "+req.Name+">", []byte(resp.Source))
}

// Close shuts the connection down, which closes a started server's stdin,
// and waits for the server to exit.
func (c *Client) Close() error {
	err := c.rpc.Close()
	if c.cmd != nil {
		if werr := c.cmd.Wait(); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}
