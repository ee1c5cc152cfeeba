package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"resops/internal/model"
)

type ModeratorRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewModeratorRepository(db *pgxpool.Pool, logger *zap.Logger) *ModeratorRepository {
	return &ModeratorRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ModeratorRepository) GetByID(ctx context.Context, id int) (*model.Moderator, error) {
	query := `
		SELECT id, name, email, specialty, active, created_at, updated_at
		FROM moderators WHERE id = $1
	`
	var m model.Moderator
	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.Name,
		&m.Email,
		&m.Specialty,
		&m.Active,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: moderator %d", ErrNotFound, id)
		}
		r.logger.Error("Failed to fetch moderator", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	return &m, nil
}

func (r *ModeratorRepository) List(ctx context.Context) ([]*model.Moderator, error) {
	query := `
		SELECT id, name, email, specialty, active, created_at, updated_at
		FROM moderators ORDER BY name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list moderators", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var moderators []*model.Moderator
	for rows.Next() {
		var m model.Moderator
		err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.Email,
			&m.Specialty,
			&m.Active,
			&m.CreatedAt,
			&m.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		moderators = append(moderators, &m)
	}
	return moderators, rows.Err()
}

func (r *ModeratorRepository) Insert(ctx context.Context, m *model.Moderator) (int, error) {
	r.logger.Debug("Inserting moderator", zap.String("name", m.Name))

	query := `
        INSERT INTO moderators (name, email, specialty, active)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	var id int
	err := r.db.QueryRow(ctx, query,
		m.Name,
		m.Email,
		m.Specialty,
		m.Active,
	).Scan(&id)

	if err != nil {
		r.logger.Error("Failed to insert moderator", zap.Error(err))
		return 0, err
	}

	r.logger.Info("Moderator inserted successfully",
		zap.Int("id", id),
		zap.String("name", m.Name),
	)
	return id, nil
}

// ListScheduleEntries 返回主持人手工维护的档期条目（显式 booking 来源）。
func (r *ModeratorRepository) ListScheduleEntries(ctx context.Context, moderatorID int) ([]*model.ScheduleEntry, error) {
	query := `
		SELECT id, moderator_id, start_date, end_date, kind, label, created_at
		FROM moderator_schedule
		WHERE moderator_id = $1
		ORDER BY start_date
	`
	rows, err := r.db.Query(ctx, query, moderatorID)
	if err != nil {
		r.logger.Error("Failed to list schedule entries",
			zap.Int("moderator_id", moderatorID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	var entries []*model.ScheduleEntry
	for rows.Next() {
		var e model.ScheduleEntry
		var start, end string
		err := rows.Scan(
			&e.ID,
			&e.ModeratorID,
			&start,
			&end,
			&e.Kind,
			&e.Label,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		// 日期列以 YYYY-MM-DD 文本存储，入库前已经过严格校验
		if e.Start, err = parseStoredDate(start); err != nil {
			return nil, err
		}
		if e.End, err = parseStoredDate(end); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *ModeratorRepository) InsertScheduleEntry(ctx context.Context, e *model.ScheduleEntry) (int, error) {
	query := `
        INSERT INTO moderator_schedule (moderator_id, start_date, end_date, kind, label)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	var id int
	err := r.db.QueryRow(ctx, query,
		e.ModeratorID,
		e.Start.String(),
		e.End.String(),
		e.Kind,
		e.Label,
	).Scan(&id)

	if err != nil {
		r.logger.Error("Failed to insert schedule entry",
			zap.Int("moderator_id", e.ModeratorID),
			zap.Error(err),
		)
		return 0, err
	}

	r.logger.Info("Schedule entry inserted",
		zap.Int("id", id),
		zap.Int("moderator_id", e.ModeratorID),
		zap.String("kind", string(e.Kind)),
	)
	return id, nil
}

func (r *ModeratorRepository) DeleteScheduleEntry(ctx context.Context, moderatorID, entryID int) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM moderator_schedule WHERE id = $1 AND moderator_id = $2
	`, entryID, moderatorID)
	if err != nil {
		r.logger.Error("Failed to delete schedule entry",
			zap.Int("entry_id", entryID),
			zap.Error(err),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: schedule entry %d", ErrNotFound, entryID)
	}
	return nil
}
