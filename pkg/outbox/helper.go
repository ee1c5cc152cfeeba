package outbox

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
)

// InsertProjectEventInTx 在业务事务中为一个项目插入 outbox 事件，
// 事件与业务写入同事务提交，保证不丢不多。
func InsertProjectEventInTx(
	ctx context.Context,
	tx pgx.Tx,
	repo *Repository,
	projectID int,
	routingKey string,
	payload any,
) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	aggregateID := int64(projectID)
	event := &Event{
		AggregateType: "project",
		AggregateID:   &aggregateID,
		RoutingKey:    routingKey,
		Payload:       payloadJSON,
		Status:        "pending",
	}

	return repo.InsertEvent(ctx, tx, event)
}
