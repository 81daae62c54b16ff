package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/farmstay/farmstay/internal/bus"
	"github.com/farmstay/farmstay/internal/config"
	"github.com/farmstay/farmstay/internal/dependency"
	"github.com/farmstay/farmstay/internal/shared/cmdutils"
)

var (
	chatMessage string
	chatID      string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the booking assistant from the terminal",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send a single message and exit")
	chatCmd.Flags().StringVarP(&chatID, "chat", "c", "direct", "Chat ID within the cli channel")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	defer container.Store().Close()

	ctx := context.Background()
	if err := container.Store().Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	loop := container.AgentLoop()

	if chatMessage != "" {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		fmt.Fprintf(os.Stderr, "  ↳ thinking...\n")
		cmdutils.PrintResponse(loop.ProcessDirect(ctx, bus.ChannelCLI, chatID, chatMessage))
		return nil
	}

	fmt.Printf("%s Interactive mode (type 'exit' or Ctrl+C to quit)\n\n", logo)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if exitCommands[strings.ToLower(line)] {
			fmt.Println("Goodbye!")
			return nil
		}

		turnCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		cmdutils.PrintResponse(loop.ProcessDirect(turnCtx, bus.ChannelCLI, chatID, line))
		cancel()
	}
}
