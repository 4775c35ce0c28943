// cmd/loan-assistant/main.go
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"loan-journey/internal/common/config"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/common/observability"
	"loan-journey/internal/common/random"
	"loan-journey/internal/journey"
	"loan-journey/internal/models"
	"loan-journey/internal/store"
	sn "loan-journey/internal/workers/application/send-notification"
	"loan-journey/pkg/loancalc"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (default: configs/config.yaml)")
		admin      = flag.Bool("admin", false, "list stored applications and exit")
		search     = flag.String("search", "", "with -admin, full-text search the application index")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appStore, closeStore, err := store.Open(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("application store failed", zap.Error(err))
	}
	defer closeStore()

	if *admin {
		if err := runAdmin(ctx, os.Stdout, appStore, *search); err != nil {
			zapLog.Error("admin listing failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	obs, err := observability.New("loan-assistant")
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown()

	opts := []journey.Option{journey.WithObservability(obs)}
	if cfg.Notifications.Enabled {
		notifier, err := sn.NewFromConfig(ctx, cfg.Notifications, log)
		if err != nil {
			zapLog.Fatal("notification clients failed", zap.Error(err))
		}
		opts = append(opts, journey.WithNotifier(notifier))
	}

	agents := journey.NewAgents(cfg.Journey, random.New(cfg.Journey.RandomSeed), time.Now, log)
	j := journey.New(agents, appStore, cfg.Journey, log, opts...)

	runChat(ctx, os.Stdin, os.Stdout, j)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// runChat reads one applicant message per line until EOF, interrupt or a
// concluded journey.
func runChat(ctx context.Context, in io.Reader, out io.Writer, j *journey.Journey) {
	s := journey.NewSession()
	printResponses(out, j.Start(s))

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Fprint(out, "\nYou: ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			printResponses(out, j.HandleMessage(ctx, s, line))
			if s.Concluded() {
				return
			}
		}
	}
}

func printResponses(out io.Writer, responses []models.Response) {
	for _, r := range responses {
		fmt.Fprintf(out, "\nAssistant%s: %s\n", statusTag(r.Status), r.Content)
	}
}

func statusTag(s models.MessageStatus) string {
	if s == models.MessageNeutral {
		return ""
	}
	return " [" + string(s) + "]"
}

func runAdmin(ctx context.Context, out io.Writer, s store.Store, query string) error {
	var (
		apps []models.StoredApplication
		err  error
	)
	if query != "" {
		indexed, ok := s.(*store.IndexedStore)
		if !ok {
			return fmt.Errorf("search needs storage.index.enabled")
		}
		apps, err = indexed.Search(ctx, store.SearchQuery{Text: query})
	} else {
		apps, err = s.ListAll(ctx)
	}
	if err != nil {
		return err
	}

	stats := models.NewDashboardStats(apps)
	fmt.Fprintf(out, "Total: %d  Approved: %d (%d%%)  Rejected: %d (%d%%)  Pending: %d (%d%%)\n\n",
		stats.Total,
		stats.Approved, stats.Percent(stats.Approved),
		stats.Rejected, stats.Percent(stats.Rejected),
		stats.Pending, stats.Percent(stats.Pending))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tAMOUNT\tCREATED")
	for _, app := range apps {
		amount := app.Data.LoanAmount
		if app.Sanction != nil {
			amount = app.Sanction.ApprovedAmount
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t₹%s\t%s\n",
			app.ID, app.Data.Name, app.Status, loancalc.FormatAmount(amount),
			app.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
