package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"resops/internal/model"
	"resops/pkg/outbox"
)

// ErrVersionConflict 表示乐观并发校验失败：写入时版本已被其他操作者更新。
// 调用方应重新读取并重放编辑。
var ErrVersionConflict = errors.New("project version conflict")

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

type ProjectRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, ob *outbox.Repository, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		outbox: ob,
		logger: logger,
	}
}

const projectColumns = `
	id, title, client, archived, moderator_id, last_phase,
	timeline, deadlines, version, created_at, updated_at
`

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	var timelineJSON, deadlinesJSON []byte
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Client,
		&p.Archived,
		&p.ModeratorID,
		&p.LastPhase,
		&timelineJSON,
		&deadlinesJSON,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(timelineJSON) > 0 {
		if err := json.Unmarshal(timelineJSON, &p.Timeline); err != nil {
			return nil, fmt.Errorf("failed to decode timeline: %w", err)
		}
	}
	if len(deadlinesJSON) > 0 {
		if err := json.Unmarshal(deadlinesJSON, &p.Deadlines); err != nil {
			return nil, fmt.Errorf("failed to decode deadlines: %w", err)
		}
	}
	return &p, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: project %d", ErrNotFound, id)
		}
		r.logger.Error("Failed to fetch project", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *ProjectRepository) List(ctx context.Context) ([]*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list projects", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListByModerator 返回指定主持人负责的全部项目（用于派生档期）。
func (r *ProjectRepository) ListByModerator(ctx context.Context, moderatorID int) ([]*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE moderator_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, moderatorID)
	if err != nil {
		r.logger.Error("Failed to list projects by moderator",
			zap.Int("moderator_id", moderatorID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) Insert(ctx context.Context, p *model.Project) (int, error) {
	r.logger.Debug("Inserting project",
		zap.String("title", p.Title),
		zap.String("client", p.Client),
	)

	timelineJSON, err := json.Marshal(p.Timeline)
	if err != nil {
		return 0, err
	}
	deadlinesJSON, err := json.Marshal(p.Deadlines)
	if err != nil {
		return 0, err
	}

	query := `
        INSERT INTO projects (title, client, archived, moderator_id, last_phase, timeline, deadlines, version)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
        RETURNING id
    `
	var id int
	err = r.db.QueryRow(ctx, query,
		p.Title,
		p.Client,
		p.Archived,
		p.ModeratorID,
		p.LastPhase,
		timelineJSON,
		deadlinesJSON,
	).Scan(&id)

	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return 0, err
	}

	r.logger.Info("Project inserted successfully",
		zap.Int("id", id),
		zap.String("title", p.Title),
	)
	return id, nil
}

// UpdateTimeline 以乐观并发方式写回时间线、截止日与回退阶段，
// 并在同一事务中向 outbox 插入事件。版本不匹配时返回 ErrVersionConflict，
// 数据库不做任何改动。
func (r *ProjectRepository) UpdateTimeline(ctx context.Context, p *model.Project, routingKey string, payload any) error {
	timelineJSON, err := json.Marshal(p.Timeline)
	if err != nil {
		return err
	}
	deadlinesJSON, err := json.Marshal(p.Deadlines)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE projects
		SET timeline = $1, deadlines = $2, last_phase = $3, version = version + 1, updated_at = NOW()
		WHERE id = $4 AND version = $5
	`
	tag, err := tx.Exec(ctx, query,
		timelineJSON,
		deadlinesJSON,
		p.LastPhase,
		p.ID,
		p.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update timeline", zap.Int("id", p.ID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		// 区分是版本冲突还是项目不存在
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: project %d", ErrNotFound, p.ID)
		}
		r.logger.Warn("Timeline write rejected by version check",
			zap.Int("id", p.ID),
			zap.Int("version", p.Version),
		)
		return ErrVersionConflict
	}

	if routingKey != "" {
		if err := outbox.InsertProjectEventInTx(ctx, tx, r.outbox, p.ID, routingKey, payload); err != nil {
			r.logger.Error("Failed to insert outbox event",
				zap.Int("id", p.ID),
				zap.String("routing_key", routingKey),
				zap.Error(err),
			)
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	p.Version++
	r.logger.Info("Timeline updated successfully",
		zap.Int("id", p.ID),
		zap.Int("new_version", p.Version),
	)
	return nil
}

// AssignModerator 给项目指派主持人，同样走版本校验与 outbox。
func (r *ProjectRepository) AssignModerator(ctx context.Context, projectID, moderatorID, version int, payload any) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE projects
		SET moderator_id = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3
	`
	tag, err := tx.Exec(ctx, query, moderatorID, projectID, version)
	if err != nil {
		r.logger.Error("Failed to assign moderator",
			zap.Int("project_id", projectID),
			zap.Int("moderator_id", moderatorID),
			zap.Error(err),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	if err := outbox.InsertProjectEventInTx(ctx, tx, r.outbox, projectID, "moderator.assigned", payload); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Info("Moderator assigned successfully",
		zap.Int("project_id", projectID),
		zap.Int("moderator_id", moderatorID),
	)
	return nil
}

// SetArchived 归档/取消归档项目（归档后项目级状态为 Complete）。
func (r *ProjectRepository) SetArchived(ctx context.Context, projectID int, archived bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE projects SET archived = $1, updated_at = NOW() WHERE id = $2
	`, archived, projectID)
	if err != nil {
		r.logger.Error("Failed to set archived flag", zap.Int("id", projectID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: project %d", ErrNotFound, projectID)
	}
	return nil
}
