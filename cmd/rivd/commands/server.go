package commands

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rivcore/riv/binding"
	"github.com/rivcore/riv/config"
	"github.com/rivcore/riv/discovery"
	"github.com/rivcore/riv/errors"
	"github.com/rivcore/riv/graph"
	"github.com/rivcore/riv/listener"
	"github.com/rivcore/riv/logger"
	"github.com/rivcore/riv/provider"
)

// ServerCmd starts the demo rivd communicator: one provider exposing
// one synthetic RGB binding, reachable over the TCP control/data
// protocol (spec.md §4.5, §6).
var ServerCmd = &cobra.Command{
	Use:     "server",
	Aliases: []string{"serve"},
	Short:   "Start the rivd communicator",
	RunE:    runServer,
}

var (
	serverNoIPComm  bool
	serverIPCommPort uint16
	serverName      string
)

func init() {
	ServerCmd.Flags().BoolVar(&serverNoIPComm, "noipcomm", false, "disable the IP communicator")
	ServerCmd.Flags().Uint16Var(&serverIPCommPort, "ipcommport", 0, "override listen port")
	ServerCmd.Flags().StringVarP(&serverName, "name", "n", "", "provider name")
}

func runServer(cmd *cobra.Command, args []string) error {
	verbosity, _ := cmd.Flags().GetCount("verbose")

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	if cmd.Flags().Changed("noipcomm") {
		cfg.Communicator.Enabled = !serverNoIPComm
	}
	if cmd.Flags().Changed("ipcommport") {
		cfg.Communicator.Port = int(serverIPCommPort)
	}
	if cmd.Flags().Changed("name") {
		cfg.Provider.Name = serverName
	}

	if !cfg.Communicator.Enabled {
		pterm.Warning.Println("IP communicator disabled (--noipcomm); nothing to serve")
		return nil
	}

	g := graph.New()
	coreID := g.AddNode(nil, nil)
	if err := g.SetCore(coreID); err != nil {
		return errors.Wrap(err, "set core")
	}

	p := provider.New(g, cfg.Provider.Name)

	raw := binding.NewRawImage(640, 480, binding.ColorRGB, binding.TopDown, 0)
	bindingID := g.AddNode(nil, nil)
	if err := graph.RegisterCapability[binding.Binding](g, bindingID, raw); err != nil {
		return errors.Wrap(err, "register demo binding capability")
	}
	if err := p.RegisterBinding("rgb_raw", bindingID); err != nil {
		return errors.Wrap(err, "register demo binding")
	}

	l := listener.New(g)
	if err := g.Connect(coreID, l.ID); err != nil {
		return errors.Wrap(err, "connect communicator to core")
	}
	g.RunDiscovery()

	if err := l.RegisterProvider(p); err != nil {
		return errors.Wrap(err, "register provider")
	}

	enum := discovery.New(cfg.Communicator.Port)
	uris, err := enum.URIs(cfg.Provider.Name, cfg.Provider.Name)
	if err != nil {
		logger.Warnw("public URI enumeration failed", logger.FieldError, err.Error())
	}

	printStartupBanner(cfg.Provider.Name, cfg.Communicator.Port, verbosity, uris)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopFeed := make(chan struct{})
	go feedSyntheticFrames(raw, stopFeed)
	defer close(stopFeed)

	addr := fmt.Sprintf("%s:%d", cfg.Communicator.Bind, cfg.Communicator.Port)
	errChan := make(chan error, 1)
	go func() { errChan <- l.ListenAndServe(ctx, addr) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			return errors.Wrap(err, "communicator stopped unexpectedly")
		}
		return nil
	case <-sigChan:
		pterm.Info.Println("\nShutting down gracefully (press Ctrl+C again to force)...")
		cancel()
		select {
		case err := <-errChan:
			if err != nil {
				return errors.Wrap(err, "shutdown")
			}
			pterm.Success.Println("rivd stopped cleanly")
			return nil
		case <-sigChan:
			pterm.Warning.Println("\nforce shutdown - exiting immediately")
			os.Exit(1)
			return nil
		}
	}
}

// feedSyntheticFrames drives the demo binding with a changing solid
// color so a connected client sees visible motion, standing in for
// whatever in-process renderer would own the real framebuffer.
func feedSyntheticFrames(raw *binding.RawImage, stop <-chan struct{}) {
	width, height := raw.Dimensions()
	ticker := time.NewTicker(66 * time.Millisecond)
	defer ticker.Stop()

	pixels := make([]byte, width*height*3)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r, gc, b := byte(rand.Intn(256)), byte(rand.Intn(256)), byte(rand.Intn(256))
			for i := 0; i < len(pixels); i += 3 {
				pixels[i], pixels[i+1], pixels[i+2] = r, gc, b
			}
			if err := raw.Write(pixels); err != nil {
				logger.Warnw("synthetic frame write failed", logger.FieldError, err.Error())
				continue
			}
			raw.NotifyDataAvailable()
		}
	}
}
