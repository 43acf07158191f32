// natbridged runs a standalone slirpnat bridge instance: one guest-facing
// device port bridged to a user-mode NAT engine, with a Prometheus scrape
// endpoint and an optional interactive debug console.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/slirpnat/slirpnat/pkg/bridge"
	"github.com/slirpnat/slirpnat/pkg/config"
	"github.com/slirpnat/slirpnat/pkg/debugcli"
	"github.com/slirpnat/slirpnat/pkg/deviceport/fakeport"
	"github.com/slirpnat/slirpnat/pkg/natengine/fakeengine"
)

func main() {
	network := flag.String("network", "10.0.2.0/24", "guest network CIDR")
	hostfwd := flag.String("hostfwd", "", "comma-separated host:hostport-guest:guestport[/udp] forwarding rules")
	apiAddr := flag.String("api-addr", "127.0.0.1:9901", "Prometheus scrape listen address (empty to disable)")
	interactive := flag.Bool("interactive", false, "run the interactive debug console instead of blocking on signals")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if err := run(*network, *hostfwd, *apiAddr, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "natbridged: %v\n", err)
		os.Exit(1)
	}
}

func run(network, hostfwd, apiAddr string, interactive bool) error {
	root := config.New()
	root.Set("Network", network)

	resolved, err := config.Resolve(root)
	if err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}

	rules, err := parseHostfwd(hostfwd, resolved.Addresses.VDHCPStart4.String())
	if err != nil {
		return fmt.Errorf("parse hostfwd: %w", err)
	}
	resolved.PortForwards = append(resolved.PortForwards, rules...)

	// No production NAT engine library ships in this module (the engine
	// is an external black box per the bridge contract); fakeengine
	// stands in as the reference engine for a runnable demo instance.
	inst, err := bridge.New(bridge.Config{
		InstanceID:   "natbridged0",
		Engine:       fakeengine.New,
		EngineConfig: resolved.Engine,
		DevicePort:   fakeport.New(),
		GuestIP:      resolved.Addresses.VDHCPStart4.String(),
		PortForwards: resolved.PortForwards,
	})
	if err != nil {
		return fmt.Errorf("construct bridge instance: %w", err)
	}
	defer inst.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	linkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = inst.NotifyLinkChanged(linkCtx, bridge.LinkUp)
	cancel()
	if err != nil {
		return fmt.Errorf("bring link up: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if apiAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(inst.MetricsGatherer(), promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: apiAddr, Handler: mux}
		g.Go(func() error {
			slog.Info("metrics endpoint listening", "addr", apiAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if interactive {
		g.Go(func() error {
			return debugcli.New(inst).Run()
		})
	} else {
		g.Go(func() error {
			<-ctx.Done()
			return nil
		})
	}

	return g.Wait()
}

// parseHostfwd parses "hostip:hostport-guestip:guestport[/udp]" entries
// separated by commas into config.Rule values, defaulting the guest IP to
// guestIPDefault when omitted.
func parseHostfwd(s, guestIPDefault string) ([]config.Rule, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var rules []config.Rule
	for i, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		udp := false
		if strings.HasSuffix(entry, "/udp") {
			udp = true
			entry = strings.TrimSuffix(entry, "/udp")
		} else {
			entry = strings.TrimSuffix(entry, "/tcp")
		}

		left, right, ok := strings.Cut(entry, "-")
		if !ok {
			return nil, fmt.Errorf("hostfwd %d: expected host-guest, got %q", i, entry)
		}
		hostIP, hostPortStr, ok := strings.Cut(left, ":")
		if !ok {
			return nil, fmt.Errorf("hostfwd %d: expected hostip:hostport, got %q", i, left)
		}
		guestIP, guestPortStr, ok := strings.Cut(right, ":")
		if !ok {
			guestIP, guestPortStr = guestIPDefault, right
		}

		var hostPort, guestPort int
		if _, err := fmt.Sscanf(hostPortStr, "%d", &hostPort); err != nil {
			return nil, fmt.Errorf("hostfwd %d: bad host port %q", i, hostPortStr)
		}
		if _, err := fmt.Sscanf(guestPortStr, "%d", &guestPort); err != nil {
			return nil, fmt.Errorf("hostfwd %d: bad guest port %q", i, guestPortStr)
		}

		rules = append(rules, config.Rule{
			Name: fmt.Sprintf("hostfwd%d", i), UDP: udp,
			HostIP: hostIP, HostPort: hostPort,
			GuestIP: guestIP, GuestPort: guestPort,
		})
	}
	return rules, nil
}
