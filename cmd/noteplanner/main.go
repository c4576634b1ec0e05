package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"note-planner/internal/bot"
	"note-planner/internal/config"
	"note-planner/internal/repository"
	"note-planner/internal/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	root := &cobra.Command{
		Use:           "noteplanner",
		Short:         "Multi-user note and task planner with tree-shaped categories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBotCmd(logger), newFlattenCmd(logger))

	if err := root.Execute(); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func newBotCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := config.Load()
			if cfg.TelegramToken == "" {
				return fmt.Errorf("TELEGRAM_TOKEN is required")
			}

			db, closeDB, err := openDB(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer closeDB()

			userRepo := repository.NewUserRepository(db)
			categoryRepo := repository.NewCategoryRepository(db)
			noteRepo := repository.NewNoteRepository(db)
			taskRepo := repository.NewTaskRepository(db)

			categorySvc := service.NewCategoryService(db, categoryRepo)
			noteSvc := service.NewNoteService(noteRepo, categorySvc)
			taskSvc := service.NewTaskService(taskRepo, categorySvc)
			digestSvc := service.NewDigestService(taskRepo, noteRepo, categoryRepo)
			flattenSvc := service.NewFlattenService(db, categoryRepo, logger)

			telegramBot, err := bot.New(cfg.TelegramToken, userRepo, categorySvc, noteSvc, taskSvc, digestSvc, logger)
			if err != nil {
				return fmt.Errorf("bot: %w", err)
			}

			if cfg.FlattenInterval > 0 {
				scheduler := service.NewSchedulerService(time.Local)
				if _, err := scheduler.ScheduleInterval(cfg.FlattenInterval, func() {
					jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
					defer cancel()
					if _, err := flattenSvc.FlattenAll(jobCtx); err != nil {
						logger.Error("scheduled flatten failed", zap.Error(err))
					}
				}); err != nil {
					return fmt.Errorf("schedule flatten: %w", err)
				}
				scheduler.Start()
				defer scheduler.Stop()
			}

			logger.Info("note planner bot started")
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("bot stopped: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		},
	}
}

func newFlattenCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "flatten",
		Short: "Collapse every user's category forest to two levels",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := config.Load()
			db, closeDB, err := openDB(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer closeDB()

			categoryRepo := repository.NewCategoryRepository(db)
			flattenSvc := service.NewFlattenService(db, categoryRepo, logger)

			report, err := flattenSvc.FlattenAll(ctx)
			if err != nil {
				return err
			}
			for _, owner := range report.Owners {
				if owner.Err != nil {
					fmt.Printf("owner %d: FAILED: %v\n", owner.UserID, owner.Err)
					continue
				}
				fmt.Printf("owner %d: moved %d categories\n", owner.UserID, owner.Moved)
			}
			if failed := report.Failed(); failed > 0 {
				return fmt.Errorf("%d owner(s) failed", failed)
			}
			return nil
		},
	}
}

func openDB(dsn string) (*gorm.DB, func(), error) {
	db, err := repository.NewDB(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	closeDB := func() {}
	if sqlDB, err := db.DB(); err == nil {
		closeDB = func() { sqlDB.Close() }
	}
	return db, closeDB, nil
}
