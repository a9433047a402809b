// Command medoryx runs the MedOryx chat service: a web UI and optional
// messaging channels in front of an LLM agent that answers questions by
// querying the OnSIDES adverse-drug-event database through an MCP SQL
// tool server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medoryx/internal/agent"
	"medoryx/internal/channel"
	"medoryx/internal/config"
	"medoryx/internal/eventbus"
	"medoryx/internal/llm"
	"medoryx/internal/mcptool"
	"medoryx/internal/security"
	"medoryx/internal/tool"
	"medoryx/internal/transcript"
	"medoryx/internal/web"
)

func main() {
	check := flag.Bool("check", false, "verify LLM and tool server connectivity, then exit")
	flag.Parse()

	loader, err := config.NewLoader()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[config] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		log.Fatalf("[llm] %v", err)
	}
	if cfg.Fallback != nil && cfg.Fallback.APIKey != "" {
		if fallback, err := llm.NewProvider(*cfg.Fallback); err == nil {
			provider = llm.NewFallbackProvider(provider, fallback)
		} else {
			log.Printf("[llm] fallback provider unusable: %v", err)
		}
	}

	toolset, err := mcptool.Connect(ctx, mcptool.Config{
		Command: cfg.MCP.Command,
		Args:    cfg.MCP.Args,
		Env:     append(os.Environ(), config.EnvDatabaseURL+"="+cfg.Database.URL),
	})
	if err != nil {
		log.Fatalf("[mcp] %v", err)
	}
	defer toolset.Close()

	registry := tool.NewRegistry()
	registry.RegisterAll(toolset.Tools())

	bus := eventbus.New()
	sanitizer := security.NewSanitizer(cfg.Privacy)
	ag := agent.New(cfg.Agent, provider, registry, bus, sanitizer)

	if *check {
		if err := ag.TestConnection(ctx); err != nil {
			log.Fatalf("[agent] connection check failed: %v", err)
		}
		log.Println("[agent] connection check OK")
		return
	}

	store := transcript.NewStore()
	router := channel.NewRouter(ag, store)
	manager := channel.NewManager()

	if cfg.Channels.Console {
		console := channel.NewConsoleChannel()
		router.Attach(console)
		manager.Register(console)
	}
	if cfg.Channels.Telegram != nil && cfg.Channels.Telegram.Token != "" {
		tg := channel.NewTelegramChannel(*cfg.Channels.Telegram)
		router.Attach(tg)
		manager.Register(tg)
	}
	if err := manager.StartAll(ctx); err != nil {
		log.Fatalf("[channel] %v", err)
	}

	server := web.New(ag, store, registry, bus)
	go func() {
		log.Printf("[web] listening on %s", cfg.HTTP.Addr)
		if err := server.Start(cfg.HTTP.Addr); err != nil {
			log.Printf("[web] server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	manager.StopAll(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[web] shutdown: %v", err)
	}
}
