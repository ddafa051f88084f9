package crm

import (
	"context"
	"fmt"

	"github.com/inforum/diagnostico/internal/domain/region"
	"github.com/inforum/diagnostico/pkg/logger"
)

// DealTitlePrefix starts every deal title.
const DealTitlePrefix = "Diagnóstico de Infraestructura de Servidores – "

// DealTitle returns the deal title for a respondent.
func DealTitle(name string) string { return DealTitlePrefix + name }

// DealInput describes a new deal. Zero ids are omitted from the request.
type DealInput struct {
	Title    string
	PersonID int64
	OrgID    int64
	Target   region.Target
}

type dealBody struct {
	Title      string  `json:"title"`
	PersonID   int64   `json:"person_id,omitempty"`
	OrgID      int64   `json:"org_id,omitempty"`
	PipelineID int64   `json:"pipeline_id"`
	StageID    int64   `json:"stage_id"`
	Value      float64 `json:"value"`
	Currency   string  `json:"currency"`
}

// CreateDeal creates a zero-value deal in the target pipeline and stage.
func (c *Client) CreateDeal(ctx context.Context, in DealInput) (int64, error) {
	id, err := c.create(ctx, "deals", dealBody{
		Title:      in.Title,
		PersonID:   in.PersonID,
		OrgID:      in.OrgID,
		PipelineID: in.Target.PipelineID,
		StageID:    in.Target.StageID,
		Value:      0,
		Currency:   c.currency,
	})
	if err != nil {
		return 0, fmt.Errorf("create deal: %w", err)
	}
	c.logger.Info(ctx, "deal created",
		logger.Int64("dealID", id),
		logger.Int64("pipelineID", in.Target.PipelineID),
		logger.Int64("stageID", in.Target.StageID))
	return id, nil
}

func logErr(err error) []logger.Field {
	return []logger.Field{logger.Error(err)}
}
