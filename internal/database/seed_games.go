package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type seedGame struct {
	title, description, category string
	minAge, maxAge               int
	minPlayers, maxPlayers       int
	minutes                      int
	materials                    string
}

var defaultGames = []seedGame{
	{"Крокодил", "Один игрок без слов показывает загаданное слово, остальные угадывают.", "Тихие", 7, 17, 4, 30, 20, ""},
	{"Снежный ком", "Каждый называет своё имя и повторяет имена всех предыдущих участников.", "Знакомство", 7, 17, 6, 30, 15, ""},
	{"Верёвочный курс", "Командное прохождение препятствий из верёвок на сплочение отряда.", "Командные", 10, 17, 8, 20, 60, "Верёвки, карабины"},
	{"Захват флага", "Две команды пытаются унести флаг соперников на свою территорию.", "Подвижные", 8, 17, 10, 40, 45, "Два флага, разметка"},
	{"Мафия", "Ролевая игра с ведущим, в которой мирные жители вычисляют мафию.", "Вечерние", 11, 17, 8, 20, 40, "Карточки ролей"},
	{"Ручеёк", "Пары проходят под сомкнутыми руками и меняются партнёрами.", "Подвижные", 6, 14, 9, 40, 15, ""},
	{"Да и нет не говорить", "Ведущий задаёт вопросы, запрещено отвечать словами «да» и «нет».", "Тихие", 6, 15, 3, 25, 10, ""},
	{"Квест по лагерю", "Команды проходят станции с заданиями по карте лагеря.", "Командные", 8, 17, 6, 40, 90, "Карта, конверты с заданиями"},
}

// SeedDefaultGames fills the game catalogue on first start.
// It does nothing when games already exist.
func (db *DB) SeedDefaultGames(ctx context.Context, log *zap.Logger) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM games").Scan(&count); err != nil {
		return fmt.Errorf("failed to check games count: %w", err)
	}
	if count > 0 {
		if log != nil {
			log.Debug("game catalogue already populated", zap.Int("count", count))
		}
		return nil
	}

	err := db.WithTx(ctx, func(tx *Tx) error {
		query := `INSERT INTO games (title, description, category, min_age, max_age,
			min_players, max_players, duration_minutes, materials)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for _, g := range defaultGames {
			var materials *string
			if g.materials != "" {
				m := g.materials
				materials = &m
			}
			if _, err := tx.ExecContext(ctx, query, g.title, g.description, g.category,
				g.minAge, g.maxAge, g.minPlayers, g.maxPlayers, g.minutes, NullString(materials)); err != nil {
				return fmt.Errorf("failed to insert game %q: %w", g.title, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.Changed(TableGames)
	if log != nil {
		log.Info("game catalogue populated", zap.Int("count", len(defaultGames)))
	}
	return nil
}
