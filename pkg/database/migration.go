package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Migration - файл вида NNNN_name.sql из директории миграций.
type Migration struct {
	Version string
	Name    string
	Path    string
}

// LoadMigrations читает директорию и возвращает миграции по возрастанию версии.
func LoadMigrations(dir string, logger *zap.Logger) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении директории миграций: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, name, ok := strings.Cut(strings.TrimSuffix(entry.Name(), ".sql"), "_")
		if !ok || version == "" {
			logger.Warn("неверный формат имени файла миграции", zap.String("file", entry.Name()))
			continue
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    name,
			Path:    filepath.Join(dir, entry.Name()),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

func RunMigrations(ctx context.Context, db *pgxpool.Pool, migrationsDir string, logger *zap.Logger) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS migrations (
			version VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("ошибка при создании таблицы миграций: %w", err)
	}

	rows, err := db.Query(ctx, "SELECT version FROM migrations")
	if err != nil {
		return fmt.Errorf("ошибка при получении списка выполненных миграций: %w", err)
	}
	applied, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("ошибка при обработке результатов запроса: %w", err)
	}

	appliedSet := make(map[string]struct{}, len(applied))
	for _, v := range applied {
		appliedSet[v] = struct{}{}
	}

	migrations, err := LoadMigrations(migrationsDir, logger)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if _, ok := appliedSet[m.Version]; ok {
			logger.Debug("миграция уже выполнена", zap.String("version", m.Version), zap.String("name", m.Name))
			continue
		}

		content, err := os.ReadFile(m.Path)
		if err != nil {
			return fmt.Errorf("ошибка при чтении файла миграции %s: %w", m.Path, err)
		}

		logger.Info("выполнение миграции", zap.String("version", m.Version), zap.String("name", m.Name))

		err = pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(content)); err != nil {
				return fmt.Errorf("ошибка при выполнении миграции %s: %w", m.Path, err)
			}
			_, err := tx.Exec(ctx,
				"INSERT INTO migrations (version, name, applied_at) VALUES ($1, $2, $3)",
				m.Version, m.Name, time.Now(),
			)
			if err != nil {
				return fmt.Errorf("ошибка при записи информации о выполненной миграции: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
