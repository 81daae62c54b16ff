package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/farmstay/farmstay/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show farmstay status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	fmt.Printf("%s farmstay Status\n\n", logo)

	cfgMark := "✗"
	if _, err := os.Stat(cfgPath); err == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:   %s %s\n", cfgPath, cfgMark)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	driver := cfg.Database.Driver
	if driver == "" {
		driver = "sqlite"
	}
	fmt.Printf("Database: %s (%s)\n", driver, cfg.DatabaseDSN())
	fmt.Printf("Model:    %s\n\n", cfg.Agents.Defaults.Model)

	fmt.Println("Providers:")
	for _, name := range []string{"custom", "anthropic", "openai", "deepseek", "groq"} {
		p := cfg.ProviderByName(name)
		switch {
		case p.APIKey != "":
			fmt.Printf("  %-10s ✓\n", name)
		case p.APIBase != "":
			fmt.Printf("  %-10s ✓ %s\n", name, p.APIBase)
		default:
			fmt.Printf("  %-10s (not set)\n", name)
		}
	}

	fmt.Println("\nChannels:")
	for _, ch := range []struct {
		name    string
		enabled bool
	}{
		{"whatsapp", cfg.Channels.WhatsApp.Enabled},
		{"web", cfg.Channels.Web.Enabled},
		{"telegram", cfg.Channels.Telegram.Enabled},
	} {
		mark := "(disabled)"
		if ch.enabled {
			mark = "✓"
		}
		fmt.Printf("  %-10s %s\n", ch.name, mark)
	}

	if cfg.Maintenance.Enabled {
		fmt.Printf("\nMaintenance: %q, idle after %d days\n", cfg.Maintenance.CronExpr, cfg.Maintenance.IdleDays)
	} else {
		fmt.Println("\nMaintenance: disabled")
	}
	return nil
}
