// Package main 提供数据库维护命令：应用迁移与写入默认分类。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	configloader "github.com/sanidhyy/yt-clone/internal/infrastructure/configloader"
	"github.com/sanidhyy/yt-clone/internal/repositories"
	"github.com/sanidhyy/yt-clone/internal/services"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var (
	confPath      string
	migrationsDir string
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "database maintenance for yt-clone",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "apply all SQL migrations in order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool, logger log.Logger) error {
			return applyMigrations(ctx, pool, migrationsDir, log.NewHelper(logger))
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed-categories",
	Short: "insert the default video categories",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool, logger log.Logger) error {
			svc := services.NewCategoryService(repositories.NewCategoryRepository(pool, logger), logger)
			inserted, err := svc.Seed(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Categories seeded successfully! (%d new)\n", inserted)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&confPath, "conf", "", "config path or directory, eg: --conf configs/config.yaml")
	upCmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "directory containing *.sql migrations")
	rootCmd.AddCommand(upCmd, seedCmd)
}

func withPool(ctx context.Context, fn func(context.Context, *pgxpool.Pool, log.Logger) error) error {
	cfg, err := configloader.Load(configloader.Params{ConfPath: confPath})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := log.With(log.NewStdLogger(os.Stdout), "ts", log.DefaultTimestamp, "service", cfg.Service.Name)
	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	return fn(ctx, pool, logger)
}

// applyMigrations 按文件名顺序执行迁移。迁移脚本自身保证可重复执行。
func applyMigrations(ctx context.Context, pool *pgxpool.Pool, dir string, helper *log.Helper) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no migrations found in %s", dir)
	}
	sort.Strings(paths)
	for _, path := range paths {
		sql, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s: %w", filepath.Base(path), err)
		}
		helper.Infof("migration applied: %s", filepath.Base(path))
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
