// Package debugcli implements a small interactive REPL for inspecting and
// driving a running bridge.Instance: info, link state, and port-forwarding
// commands, the Go analogue of the original driver's debugger info handler
// and CLI debug commands.
package debugcli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/slirpnat/slirpnat/pkg/bridge"
)

// CLI is the interactive debug console for one bridge.Instance.
type CLI struct {
	rl   *readline.Instance
	inst *bridge.Instance
	out  io.Writer
}

// New creates a CLI bound to inst. Output defaults to os.Stdout.
func New(inst *bridge.Instance) *CLI {
	return &CLI{inst: inst, out: os.Stdout}
}

// Run starts the REPL loop. It returns nil on a clean "exit" or EOF.
func (c *CLI) Run() error {
	var err error
	c.rl, err = readline.NewEx(&readline.Config{
		Prompt:          "slirpnat> ",
		HistoryFile:     "/tmp/slirpnat_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("debugcli: readline init: %w", err)
	}
	defer c.rl.Close()

	fmt.Fprintln(c.out, "slirpnat debug console - type '?' for help")

	for {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := c.dispatch(line); err != nil {
			if err == errExit {
				return nil
			}
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

var errExit = fmt.Errorf("exit")

func (c *CLI) dispatch(line string) error {
	parts := strings.Fields(line)
	switch parts[0] {
	case "info":
		fmt.Fprint(c.out, c.inst.DumpInfo())
		return nil

	case "link":
		return c.handleLink(parts[1:])

	case "redirect":
		return c.handleRedirect(parts[1:])

	case "dns":
		return c.handleDNS(parts[1:])

	case "quit", "exit":
		return errExit

	case "?", "help":
		c.showHelp()
		return nil

	default:
		return fmt.Errorf("unknown command: %s", parts[0])
	}
}

func (c *CLI) showHelp() {
	fmt.Fprintln(c.out, "  info                                              dump instance/engine state")
	fmt.Fprintln(c.out, "  link up|down|down-resume                          set desired link state")
	fmt.Fprintln(c.out, "  redirect add|remove udp|tcp hostip hostport guestip guestport")
	fmt.Fprintln(c.out, "  dns <domain> [search...]                          update DNS passthrough")
	fmt.Fprintln(c.out, "  quit | exit")
}

func (c *CLI) handleLink(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("link: expected exactly one of up|down|down-resume")
	}
	var state bridge.LinkState
	switch args[0] {
	case "up":
		state = bridge.LinkUp
	case "down":
		state = bridge.LinkDown
	case "down-resume":
		state = bridge.LinkDownResume
	default:
		return fmt.Errorf("link: unknown state %q", args[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.inst.NotifyLinkChanged(ctx, state); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "link state set to %s\n", state.String())
	return nil
}

func (c *CLI) handleRedirect(args []string) error {
	if len(args) != 6 {
		return fmt.Errorf("redirect: expected add|remove udp|tcp hostip hostport guestip guestport")
	}
	var add bool
	switch args[0] {
	case "add":
		add = true
	case "remove":
		add = false
	default:
		return fmt.Errorf("redirect: unknown action %q", args[0])
	}
	var udp bool
	switch args[1] {
	case "udp":
		udp = true
	case "tcp":
		udp = false
	default:
		return fmt.Errorf("redirect: unknown protocol %q", args[1])
	}
	hostPort, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("redirect: bad host port: %w", err)
	}
	guestPort, err := strconv.Atoi(args[5])
	if err != nil {
		return fmt.Errorf("redirect: bad guest port: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.inst.RedirectCommand(ctx, add, udp, args[2], hostPort, args[4], guestPort); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "ok")
	return nil
}

func (c *CLI) handleDNS(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("dns: expected a domain name")
	}
	cfg := bridge.DNSConfig{Domain: args[0], SearchList: args[1:]}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.inst.NotifyDNSChanged(ctx, cfg); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "ok")
	return nil
}
