package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"orderbook/internal/common"
	"orderbook/internal/engine"
	"orderbook/internal/feed"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	file := flag.String("file", "", "CSV file of orders (side,type,quantity,price)")
	depth := flag.Int("depth", 10, "Number of price levels to print per side (0 for all)")
	auction := flag.Bool("auction", false, "Collect file orders in an opening call auction before continuous trading")
	tick := flag.String("tick", "", "Tick size limit prices must be a multiple of (e.g. 0.01)")
	policy := flag.String("market-policy", "drop", "Unfilled market orders: 'drop' the remainder or 'reject' up front")
	interactive := flag.Bool("interactive", false, "Read orders from stdin after the file, e.g. 'buy limit 10 12.23'")
	logLevel := flag.String("log-level", "info", "Log level: ['debug', 'info', 'warn', 'error']")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", *logLevel).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	opts, err := engineOptions(*tick, *policy, *auction)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid flags")
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	eng := engine.New(opts...)
	eng.SetReporter(engine.ReporterFunc(func(trade common.Trade) error {
		_, err := fmt.Println(trade)
		return err
	}))
	worker := engine.NewWorker(ctx, eng)
	defer func() {
		if err := worker.Stop(); err != nil {
			log.Error().Err(err).Msg("unable to stop matching worker")
		}
	}()

	if *file != "" {
		if err := replayFile(ctx, worker, *file); err != nil {
			log.Error().Err(err).Str("file", *file).Msg("replay failed")
			return
		}
	}

	if *auction {
		result, err := worker.Open(ctx)
		if err != nil {
			log.Error().Err(err).Msg("unable to open the book")
			return
		}
		if result.Volume > 0 {
			fmt.Printf("Opening price %s, %d units matched\n", result.Price, result.Volume)
		} else {
			fmt.Println("No opening match")
		}
	}

	if err := printBook(ctx, worker, *depth); err != nil {
		log.Error().Err(err).Msg("unable to read the book")
		return
	}

	if *interactive {
		prompt(ctx, worker, os.Stdin, *depth)
	}
}

func engineOptions(tick, policy string, auction bool) ([]engine.Option, error) {
	var opts []engine.Option
	if tick != "" {
		size, err := decimal.NewFromString(tick)
		if err != nil {
			return nil, fmt.Errorf("tick size %q: %w", tick, err)
		}
		if !size.IsPositive() {
			return nil, fmt.Errorf("tick size must be positive, got %s", size)
		}
		opts = append(opts, engine.WithTickSize(size))
	}

	switch strings.ToLower(policy) {
	case "drop":
		opts = append(opts, engine.WithMarketPolicy(engine.DropRemainder))
	case "reject":
		opts = append(opts, engine.WithMarketPolicy(engine.RejectInsufficient))
	default:
		return nil, fmt.Errorf("unknown market policy %q", policy)
	}

	if auction {
		opts = append(opts, engine.WithCallAuction())
	}
	return opts, nil
}

// replayFile submits every order in the file in order. Orders the engine rejects
// are logged and skipped; a malformed file aborts the replay.
func replayFile(ctx context.Context, worker *engine.Worker, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	orders, err := feed.ReadCSV(f)
	if err != nil {
		return err
	}
	log.Info().Int("orders", len(orders)).Str("file", path).Msg("replaying orders")

	for _, order := range orders {
		if _, err := worker.Submit(ctx, order); err != nil {
			if errors.Is(err, engine.ErrInvalidOrder) || errors.Is(err, engine.ErrNotEnoughLiquidity) {
				continue
			}
			return err
		}
	}
	return nil
}

// prompt reads one order per line until EOF, printing the book after each.
func prompt(ctx context.Context, worker *engine.Worker, in io.Reader, depth int) {
	scanner := bufio.NewScanner(in)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}

		order, err := feed.ParseLine(line)
		if err != nil {
			fmt.Println(err)
			fmt.Print("> ")
			continue
		}

		result, err := worker.Submit(ctx, order)
		switch {
		case errors.Is(err, engine.ErrInvalidOrder), errors.Is(err, engine.ErrNotEnoughLiquidity):
			fmt.Println(err)
		case err != nil:
			log.Error().Err(err).Msg("submit failed")
			return
		default:
			fmt.Printf("Order %d: filled %d, resting %d, cancelled %d\n",
				result.OrderID, result.Filled(), result.Resting, result.Cancelled)
			if err := printBook(ctx, worker, depth); err != nil {
				log.Error().Err(err).Msg("unable to read the book")
				return
			}
		}
		fmt.Print("> ")
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("error reading input")
	}
}

func printBook(ctx context.Context, worker *engine.Worker, depth int) error {
	top, err := worker.Top(ctx)
	if err != nil {
		return err
	}
	ladder, err := worker.Depth(ctx, depth)
	if err != nil {
		return err
	}

	fmt.Print(ladder)
	fmt.Printf("Best bid: %s  Best ask: %s  Spread: %s\n\n",
		quoteString(top.BestBid), quoteString(top.BestAsk), spreadString(top.Spread))
	return nil
}

func quoteString(q *engine.Quote) string {
	if q == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%d)", q.Price, q.Size)
}

func spreadString(s decimal.NullDecimal) string {
	if !s.Valid {
		return "-"
	}
	return s.Decimal.String()
}
