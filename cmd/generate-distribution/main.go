package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/teambalancer/teambalancer-api/internal/config"
	"github.com/teambalancer/teambalancer-api/internal/cycle"
	"github.com/teambalancer/teambalancer-api/internal/database"
	"github.com/teambalancer/teambalancer-api/internal/notify"
	"github.com/teambalancer/teambalancer-api/internal/oracle"
	"github.com/teambalancer/teambalancer-api/internal/services"
)

func main() {
	date := flag.String("date", "", "any day inside the cycle to generate (YYYY-MM-DD, default today)")
	force := flag.Bool("force", false, "regenerate even if the cycle already has assignments")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cycles, err := cycle.NewCalculator(cfg.Cycle.Epoch, cfg.Cycle.LengthDays)
	if err != nil {
		log.Fatalf("Invalid cycle configuration: %v", err)
	}

	day := time.Now().UTC()
	if *date != "" {
		day, err = time.Parse("2006-01-02", *date)
		if err != nil {
			log.Fatalf("Invalid -date: %v", err)
		}
	}
	cycleDate := cycles.Current(day)

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Oracle.Timeout)
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	distributor, err := oracle.New(ctx, cfg.Oracle, logger)
	if err != nil {
		log.Fatalf("Failed to create distribution oracle: %v", err)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Webhook.DiscordURL != "" {
		notifier = notify.NewDiscordNotifier(cfg.Webhook, cfg.DashboardURL)
	}

	svc := services.NewAssignmentService(db, distributor, notifier, nil, logger)

	if !*force {
		has, err := svc.WasGenerated(ctx, cycleDate)
		if err != nil {
			log.Fatalf("Failed to check cycle: %v", err)
		}
		if has {
			fmt.Printf("Cycle %s was already generated, use -force to regenerate\n", cycleDate.Format("2006-01-02"))
			return
		}
	}

	result, err := svc.GenerateAndSave(ctx, cycleDate)
	svc.Wait()
	if err != nil {
		log.Fatalf("Generation failed (%s): %v", oracle.Kind(err), err)
	}

	fmt.Printf("Generated %d assignments for cycle %s (run %s)\n",
		len(result.Assignments), cycleDate.Format("2006-01-02"), result.RunID)
	if len(result.Unassigned) > 0 {
		fmt.Printf("Unassigned work portions: %v\n", result.Unassigned)
	}
}
