package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/models"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
	"github.com/noah-isme/training-monitor-api/pkg/export"
)

const (
	exportPageSize = 100
	exportMaxRows  = 5000
)

type evaluationLister interface {
	List(ctx context.Context, actor models.Actor, query dto.SubmissionQuery) ([]models.Evaluation, *models.Pagination, error)
}

// ExportResult is a rendered document ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

// ExportService renders the evaluations an actor can see through the scoped list.
type ExportService struct {
	evaluations evaluationLister
	renderers   map[export.Format]export.Renderer
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService constructs an ExportService. A nil renderer map uses the built-in CSV and PDF renderers.
func NewExportService(evaluations evaluationLister, renderers map[export.Format]export.Renderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderers == nil {
		renderers = export.Renderers()
	}
	return &ExportService{evaluations: evaluations, renderers: renderers, logger: logger, now: time.Now}
}

// Evaluations exports the actor's visible evaluations in the requested format.
func (s *ExportService) Evaluations(ctx context.Context, actor models.Actor, query dto.SubmissionQuery, rawFormat string) (*ExportResult, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "export format not enabled")
	}

	var rows []models.Evaluation
	query.PageSize = exportPageSize
	for page := 1; len(rows) < exportMaxRows; page++ {
		query.Page = page
		batch, pagination, err := s.evaluations.List(ctx, actor, query)
		if err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
		if len(batch) < exportPageSize || pagination == nil || len(rows) >= pagination.TotalCount {
			break
		}
	}
	if len(rows) > exportMaxRows {
		rows = rows[:exportMaxRows]
	}

	dataset := evaluationDataset(rows)
	body, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("evaluations exported", zap.String("actor_id", actor.UserID), zap.String("format", string(format)), zap.Int("rows", len(rows)))
	return &ExportResult{
		Filename:    fmt.Sprintf("evaluations-%s.%s", s.now().UTC().Format("20060102-150405"), format),
		ContentType: format.ContentType(),
		Body:        body,
		Rows:        len(rows),
	}, nil
}

func evaluationDataset(rows []models.Evaluation) export.Dataset {
	data := export.Dataset{
		Title:   "Evaluations",
		Headers: []string{"id", "trainee_id", "status", "technical", "communication", "teamwork", "initiative", "professionalism", "overall", "period", "created_at"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, e := range rows {
		data.Rows = append(data.Rows, []string{
			e.ID,
			e.TraineeID,
			string(e.Status),
			strconv.Itoa(e.Technical),
			strconv.Itoa(e.Communication),
			strconv.Itoa(e.Teamwork),
			strconv.Itoa(e.Initiative),
			strconv.Itoa(e.Professionalism),
			strconv.Itoa(e.OverallScore),
			formatPeriod(e.PeriodStart, e.PeriodEnd),
			e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return data
}

func formatPeriod(start, end *time.Time) string {
	switch {
	case start != nil && end != nil:
		return start.Format("2006-01-02") + " - " + end.Format("2006-01-02")
	case start != nil:
		return start.Format("2006-01-02")
	case end != nil:
		return end.Format("2006-01-02")
	default:
		return ""
	}
}
