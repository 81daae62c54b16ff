package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/farmstay/farmstay/internal/channels"
	"github.com/farmstay/farmstay/internal/config"
	"github.com/farmstay/farmstay/internal/dependency"
)

var gatewayConsole bool

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the farmstay gateway with all enabled channels",
	RunE:  runGateway,
}

func init() {
	gatewayCmd.Flags().BoolVar(&gatewayConsole, "console", false, "Also attach the terminal as a channel")
}

func runGateway(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	defer container.Store().Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := container.Store().Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	fmt.Printf("%s Starting farmstay gateway...\n", logo)

	channelMgr := channels.NewManager(cfg, container.MessageBus(), gatewayConsole)
	if enabled := channelMgr.EnabledChannels(); len(enabled) > 0 {
		fmt.Printf("✓ Channels enabled: %s\n", strings.Join(enabled, ", "))
	} else {
		fmt.Println("Warning: no channels enabled — run 'farmstay onboard' and edit the config")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return container.AgentLoop().Run(gctx) })
	g.Go(func() error { return channelMgr.StartAll(gctx) })
	if cfg.Maintenance.Enabled {
		g.Go(func() error { return container.Sweeper().Start(gctx) })
	}

	fmt.Printf("%s Gateway running. Press Ctrl+C to stop.\n", logo)

	if err := g.Wait(); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "gateway error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}
