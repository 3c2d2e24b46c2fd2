package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"trade-profit-calculator-go/internal/binance"
	"trade-profit-calculator-go/internal/config"
	"trade-profit-calculator-go/internal/logger"
	"trade-profit-calculator-go/internal/shell"
	"trade-profit-calculator-go/internal/store"
	"trade-profit-calculator-go/internal/tracker"
)

const prompt = "calc> "

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	var paths []string
	if cfg.Logger.File != "" {
		paths = append(paths, cfg.Logger.File)
	}
	log, err := logger.FromConfig(cfg.Logger, paths...)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	st, closer, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open calculator store", zap.Error(err), zap.String("driver", cfg.Storage.Driver))
	}
	defer closer.Close()

	var prices binance.PriceClient
	if cfg.Market.Enabled {
		client := binance.NewRestClient(&cfg.Market, log)
		if _, err := client.GetServerTime(ctx); err != nil {
			log.Warn("Market API unreachable, prices may fail", zap.Error(err))
		}
		prices = client
	}

	engine := tracker.NewEngine(log, &cfg, st, prices)
	recoveries := engine.Load(ctx)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile(),
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		log.Fatal("Failed to start line editor", zap.Error(err))
	}
	defer rl.Close()

	out := rl.Stdout()
	if len(recoveries) > 0 {
		fmt.Fprintf(out, "Recovered %d calculator(s) from damaged saved data.\n", len(recoveries))
	}

	sh := shell.New(engine, out, func(question string) bool {
		rl.SetPrompt(question + " [y/N] ")
		defer rl.SetPrompt(prompt)
		answer, err := rl.Readline()
		if err != nil {
			return false
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	})
	sh.UseTerminalColors()

	_ = sh.Exec(ctx, "list")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				break
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Error("Failed to read input", zap.Error(err))
			break
		}

		err = sh.Exec(ctx, line)
		if errors.Is(err, shell.ErrQuit) {
			break
		}
		if err != nil {
			fmt.Fprintln(out, err)
		}
		if ctx.Err() != nil {
			break
		}
	}
}

func completer() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(shell.Names()))
	for _, name := range shell.Names() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "trade-profit-calculator.history")
}
