package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/farmstay/farmstay/internal/config"
	"github.com/farmstay/farmstay/internal/dependency"
	"github.com/farmstay/farmstay/internal/store"
)

var memorySessionKey string

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect or reset a conversation's memory",
}

var memoryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored summary and booking facts for a session",
	RunE:  runMemoryShow,
}

var memoryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the conversation summary for a session",
	RunE:  runMemoryClear,
}

func init() {
	memoryCmd.PersistentFlags().StringVarP(&memorySessionKey, "session", "s", "",
		"Session key in channel:chat_id form (e.g. whatsapp:4917012345)")
	_ = memoryCmd.MarkPersistentFlagRequired("session")

	memoryCmd.AddCommand(memoryShowCmd)
	memoryCmd.AddCommand(memoryClearCmd)
}

func memorySession(ctx context.Context) (*dependency.Container, *store.Session, error) {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	container, err := dependency.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := container.Store().Migrate(ctx); err != nil {
		container.Store().Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	sess, err := container.Store().GetSessionByUserKey(ctx, memorySessionKey)
	if err != nil {
		container.Store().Close()
		return nil, nil, err
	}
	return container, sess, nil
}

func runMemoryShow(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	container, sess, err := memorySession(ctx)
	if err != nil {
		return err
	}
	defer container.Store().Close()

	if sess == nil {
		fmt.Printf("No session found for %q\n", memorySessionKey)
		return nil
	}

	fmt.Printf("Session %d (%s)\n\n", sess.ID, sess.UserKey)
	if sess.ConversationSummary != nil {
		fmt.Printf("Summary (generation %d):\n%s\n\n", sess.SummaryGenerationCount, *sess.ConversationSummary)
	} else {
		fmt.Printf("Summary: (none, generation %d)\n\n", sess.SummaryGenerationCount)
	}
	fmt.Printf("Needs summarization: %v\n\n", sess.NeedsSummarization)

	fmt.Println("Booking facts:")
	for _, fact := range []struct {
		label string
		value any
	}{
		{"Property type", sess.PropertyType},
		{"Booking date", sess.BookingDate},
		{"Shift", sess.ShiftType},
		{"Property id", sess.PropertyID},
		{"Booking id", sess.BookingID},
		{"Min price", sess.MinPrice},
		{"Max price", sess.MaxPrice},
		{"Max occupancy", sess.MaxOccupancy},
	} {
		fmt.Printf("  %-14s %s\n", fact.label+":", formatFact(fact.value))
	}
	return nil
}

func runMemoryClear(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	container, sess, err := memorySession(ctx)
	if err != nil {
		return err
	}
	defer container.Store().Close()

	if sess == nil {
		fmt.Printf("No session found for %q\n", memorySessionKey)
		return nil
	}

	existed, err := container.Memory().ClearMemory(ctx, sess.ID)
	if err != nil {
		return err
	}
	if existed {
		fmt.Printf("✓ Summary cleared for %s (booking facts kept)\n", memorySessionKey)
	}
	return nil
}

func formatFact(v any) string {
	switch p := v.(type) {
	case *string:
		if p != nil {
			return *p
		}
	case *int64:
		if p != nil {
			return fmt.Sprintf("%d", *p)
		}
	case *float64:
		if p != nil {
			return fmt.Sprintf("%g", *p)
		}
	}
	return "(not set)"
}
