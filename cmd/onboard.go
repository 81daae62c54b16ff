package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/farmstay/farmstay/internal/config"
	"github.com/farmstay/farmstay/internal/store"
	"github.com/farmstay/farmstay/internal/store/db"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration and database",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Config already exists at %s\n", cfgPath)
		fmt.Printf("Press Enter to refresh (keep existing values) or Ctrl+C to cancel: ")
		fmt.Scanln()
		existing, loadErr := config.Load(cfgPath)
		if loadErr != nil {
			def := config.DefaultConfig()
			existing = &def
		}
		if err := config.Save(existing, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Config refreshed at %s\n", cfgPath)
	} else {
		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(config.DataDir(), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	driver, err := db.NewDriver(cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return err
	}
	st := store.New(driver)
	defer st.Close()
	if err := st.Migrate(context.Background()); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	fmt.Printf("✓ Database ready (%s)\n", cfg.DatabaseDSN())

	writePersonaTemplate()

	fmt.Printf("\n%s farmstay is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add an LLM API key to %s\n", cfgPath)
	fmt.Println("  2. Enable your channels in the same file")
	fmt.Printf("  3. Try it: farmstay chat -m \"Do you have a farmhouse for Saturday?\"\n")
	return nil
}

// writePersonaTemplate drops a starter persona file next to the config so
// operators have something concrete to edit.
func writePersonaTemplate() {
	path := filepath.Join(config.DataDir(), "persona.yaml")
	if _, err := os.Stat(path); err == nil {
		return
	}
	template := `name: Meadow
description: Booking assistant for farmhouse and hut stays.
style:
  - Warm and practical, like a host welcoming guests.
  - Short answers; one question at a time.
rules:
  - Confirm the date and shift before talking prices.
  - Never invent availability; only state recorded facts.
`
	if err := os.WriteFile(path, []byte(template), 0o644); err == nil {
		fmt.Printf("  Created %s\n", path)
	}
}
