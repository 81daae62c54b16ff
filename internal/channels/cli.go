package channels

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/farmstay/farmstay/internal/bus"
	"github.com/farmstay/farmstay/internal/shared/cmdutils"
)

var cliExitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

// CLIChannel wires the terminal into the gateway. Lines typed on stdin go
// to the agent through the bus; replies routed back by the channel manager
// are printed to stdout.
type CLIChannel struct {
	Base
	replies chan bus.OutboundMessage
}

func NewCLIChannel(b bus.Bus) *CLIChannel {
	return &CLIChannel{
		Base:    NewBase(bus.ChannelCLI, b, nil),
		replies: make(chan bus.OutboundMessage, 8),
	}
}

func (c *CLIChannel) Name() string { return string(bus.ChannelCLI) }

// Start runs the stdin REPL. Blocks until ctx is cancelled or stdin closes.
func (c *CLIChannel) Start(ctx context.Context) error {
	fmt.Printf("Console ready. Type 'exit' or press Ctrl+C to quit.\n\n")

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("You: ")

		scanDone := make(chan bool, 1)
		go func() {
			scanDone <- scanner.Scan()
		}()

		select {
		case ok := <-scanDone:
			if !ok {
				fmt.Println("\nGoodbye!")
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if cliExitCommands[strings.ToLower(line)] {
			fmt.Println("Goodbye!")
			return nil
		}

		c.HandleMessage("operator", "console", line, nil)

		select {
		case msg := <-c.replies:
			cmdutils.PrintResponse(msg.Content())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Send hands an agent reply to the REPL loop for printing.
func (c *CLIChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	select {
	case c.replies <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
