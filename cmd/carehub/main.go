package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carehub/internal/config"
	"carehub/internal/logger"
	"carehub/internal/notify"
	"carehub/internal/repository"
	"carehub/internal/server"
	"carehub/internal/service"
)

func main() {
	configPath := flag.String("config", "carehub.yaml", "path to the config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer appLog.Sync()

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		appLog.Fatal("open database", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	taskRepo := repository.NewTaskRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	occurrenceSvc := service.NewOccurrenceService(taskRepo, appLog)
	seriesSvc := service.NewSeriesService(taskRepo, appLog)
	taskSvc := service.NewTaskService(taskRepo, categoryRepo, appLog)
	reminderSvc := service.NewReminderService(occurrenceSvc, appLog)
	calendarSvc := service.NewCalendarService(occurrenceSvc, appLog)

	router := server.NewRouter(server.RouterConfig{
		Families:    server.NewFamilyHandler(familyRepo, categoryRepo),
		Tasks:       server.NewTaskHandler(taskSvc),
		Occurrences: server.NewOccurrenceHandler(occurrenceSvc, calendarSvc),
		Series:      server.NewSeriesHandler(seriesSvc),
	})

	scheduler := service.NewSchedulerService(time.Local)
	if cfg.Reminders.Enabled && cfg.Reminders.TelegramToken != "" {
		notifier, err := notify.NewTelegramNotifier(cfg.Reminders.TelegramToken, appLog)
		if err != nil {
			appLog.Fatal("telegram notifier", "error", err)
		}
		digestJob := func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			sendDigests(jobCtx, appLog, familyRepo, reminderSvc, notifier)
		}
		if cfg.Reminders.Every != "" {
			every, err := time.ParseDuration(cfg.Reminders.Every)
			if err != nil {
				appLog.Fatal("parse reminder interval", "every", cfg.Reminders.Every, "error", err)
			}
			if _, err := scheduler.ScheduleInterval(every, digestJob); err != nil {
				appLog.Fatal("schedule digests", "error", err)
			}
			appLog.Info("interval digests scheduled", "every", cfg.Reminders.Every)
		} else {
			if _, err := scheduler.ScheduleDaily(cfg.Reminders.DailyAt, digestJob); err != nil {
				appLog.Fatal("schedule digests", "error", err)
			}
			appLog.Info("daily digests scheduled", "at", cfg.Reminders.DailyAt)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	httpServer := &http.Server{Addr: cfg.Listen, Handler: router}
	go func() {
		appLog.Info("carehub listening", "addr", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("http server", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("shutdown", "error", err)
	}
	appLog.Info("shutdown complete")
}

// sendDigests builds and delivers the daily digest for every family
// with a Telegram chat configured.
func sendDigests(ctx context.Context, appLog *logger.Logger, families *repository.FamilyRepository, reminders *service.ReminderService, notifier *notify.TelegramNotifier) {
	all, err := families.ListAll(ctx)
	if err != nil {
		appLog.Error("list families for digest", "error", err)
		return
	}
	for _, family := range all {
		if family.TelegramChatID == nil {
			continue
		}
		text, ok, err := reminders.DailyDigest(ctx, family, time.Now())
		if err != nil {
			appLog.Error("build digest", "family_id", family.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if err := notifier.SendDigest(*family.TelegramChatID, text); err != nil {
			appLog.Error("send digest", "family_id", family.ID, "error", err)
		}
	}
}
