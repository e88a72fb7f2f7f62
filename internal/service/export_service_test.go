package service

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-monitor-api/internal/dto"
	"github.com/noah-isme/training-monitor-api/internal/models"
	appErrors "github.com/noah-isme/training-monitor-api/pkg/errors"
)

func TestExportOnlyContainsVisibleEvaluations(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.assign(t, "sup-1", "t1")
	for _, trainee := range []string{"t1", "t2"} {
		_, err := w.evaluations.Submit(ctx, adminActor, evaluationRequest(trainee, 80, 90, 70, 85, 75))
		require.NoError(t, err)
	}

	svc := NewExportService(w.evaluations, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }

	result, err := svc.Evaluations(ctx, supervisorActor, dto.SubmissionQuery{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "evaluations-20240501-080000.csv", result.Filename)
	assert.Equal(t, 1, result.Rows)

	records, err := csv.NewReader(strings.NewReader(string(result.Body))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "t1", records[1][1])
	assert.Equal(t, "80", records[1][8])

	pdf, err := svc.Evaluations(ctx, adminActor, dto.SubmissionQuery{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, pdf.Rows)
	assert.Equal(t, "application/pdf", pdf.ContentType)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	w := newWorld(t)
	svc := NewExportService(w.evaluations, nil, nil)
	_, err := svc.Evaluations(context.Background(), adminActor, dto.SubmissionQuery{}, "xlsx")
	requireAppError(t, err, appErrors.ErrValidation)
}

func TestEvaluationDatasetFormatsPeriod(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	data := evaluationDataset([]models.Evaluation{{PeriodStart: &start, PeriodEnd: &end}})
	assert.Equal(t, "2024-01-01 - 2024-03-31", data.Rows[0][9])
}
