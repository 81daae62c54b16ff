// Package dependency wires core farmstay services using go.uber.org/dig.
package dependency

import (
	"path/filepath"

	"go.uber.org/dig"

	"github.com/farmstay/farmstay/internal/agent"
	"github.com/farmstay/farmstay/internal/bus"
	"github.com/farmstay/farmstay/internal/config"
	"github.com/farmstay/farmstay/internal/maintenance"
	"github.com/farmstay/farmstay/internal/memory"
	"github.com/farmstay/farmstay/internal/notify"
	"github.com/farmstay/farmstay/internal/providers"
	"github.com/farmstay/farmstay/internal/schema"
	"github.com/farmstay/farmstay/internal/store"
	"github.com/farmstay/farmstay/internal/store/db"
	"github.com/farmstay/farmstay/internal/tools"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	store    *store.Store
	provider schema.LLMProvider
	msgBus   *bus.MessageBus
	mem      *memory.Manager
	loop     *agent.Loop
	sweeper  *maintenance.Sweeper
}

func (c *Container) Store() *store.Store           { return c.store }
func (c *Container) Provider() schema.LLMProvider  { return c.provider }
func (c *Container) MessageBus() *bus.MessageBus   { return c.msgBus }
func (c *Container) Memory() *memory.Manager       { return c.mem }
func (c *Container) AgentLoop() *agent.Loop        { return c.loop }
func (c *Container) Sweeper() *maintenance.Sweeper { return c.sweeper }

// AgentRegistry wraps the tool registry handed to the agent loop.
type AgentRegistry struct{ *tools.Registry }

// New builds and wires all core services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	constructors := []any{
		func() *config.Config { return cfg },
		newStore,
		newProvider,
		newMessageBus,
		newNotifier,
		newSummarizer,
		newMemoryManager,
		newRegistry,
		newPromptBuilder,
		newAgentLoop,
		newSweeper,
	}
	for _, c := range constructors {
		if err := d.Provide(c); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		st *store.Store,
		provider schema.LLMProvider,
		msgBus *bus.MessageBus,
		mem *memory.Manager,
		loop *agent.Loop,
		sweeper *maintenance.Sweeper,
	) {
		result = &Container{
			store:    st,
			provider: provider,
			msgBus:   msgBus,
			mem:      mem,
			loop:     loop,
			sweeper:  sweeper,
		}
	})
	return result, err
}

func newStore(cfg *config.Config) (*store.Store, error) {
	driver, err := db.NewDriver(cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}
	return store.New(driver), nil
}

func newProvider(cfg *config.Config) (schema.LLMProvider, error) {
	return providers.NewFromConfig(cfg)
}

func newMessageBus() *bus.MessageBus {
	return bus.NewMessageBus(100)
}

func newNotifier(cfg *config.Config) *notify.SlackNotifier {
	return notify.NewSlackNotifier(cfg.Notifications, nil)
}

func newSummarizer(cfg *config.Config, provider schema.LLMProvider, notifier *notify.SlackNotifier) *memory.Summarizer {
	return memory.NewSummarizer(provider, memory.SummarizerOptions{
		Model:        cfg.Memory.SummaryModel,
		MaxWords:     cfg.Memory.MaxSummaryWords,
		SnippetChars: cfg.Memory.PromptSnippetChars,
		MaxTokens:    cfg.Memory.SummaryMaxTokens,
		Temperature:  cfg.Memory.SummaryTemperature,
	}, notifier, nil)
}

func newMemoryManager(cfg *config.Config, st *store.Store, summarizer *memory.Summarizer) *memory.Manager {
	return memory.NewManager(st, summarizer, memory.Options{
		SummaryInterval:  cfg.Memory.SummaryInterval,
		RecentWindow:     cfg.Memory.RecentWindow,
		MessageLoadLimit: cfg.Memory.MessageLoadLimit,
	}, nil)
}

func newRegistry(st *store.Store, mem *memory.Manager) AgentRegistry {
	registry := tools.NewRegistryBuilder().
		WithTool(tools.NewSelectPropertyTool(st, mem)).
		WithTool(tools.NewSetBookingDateTool(st, mem, tools.DefaultBookingHorizonDays)).
		WithTool(tools.NewSetShiftTool(st, mem)).
		WithTool(tools.NewSetBudgetTool(st, mem)).
		WithTool(tools.NewClearPreferencesTool(st, mem)).
		WithTool(tools.NewFetchPageTool(0)).
		Build()
	return AgentRegistry{registry}
}

func newPromptBuilder(cfg *config.Config) (*agent.PromptBuilder, error) {
	path := cfg.Agents.Defaults.PersonaPath
	if path == "" {
		path = filepath.Join(config.DataDir(), "persona.yaml")
	}
	persona, err := agent.LoadPersona(path)
	if err != nil {
		return nil, err
	}
	return agent.NewPromptBuilder(persona), nil
}

func newAgentLoop(
	b *bus.MessageBus,
	st *store.Store,
	mem *memory.Manager,
	prompt *agent.PromptBuilder,
	reg AgentRegistry,
	provider schema.LLMProvider,
	cfg *config.Config,
) *agent.Loop {
	defaults := cfg.Agents.Defaults
	settings := schema.NewAgentSettings(defaults.Model, defaults.MaxToolIter, defaults.Temperature, defaults.MaxTokens)
	return agent.NewLoop(b, st, mem, prompt, reg.Registry, provider, settings, nil)
}

func newSweeper(st *store.Store, mem *memory.Manager, notifier *notify.SlackNotifier, cfg *config.Config) *maintenance.Sweeper {
	return maintenance.NewSweeper(st, mem, notifier, cfg.Maintenance, nil)
}
