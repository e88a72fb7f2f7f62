package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/training-monitor-api/internal/models"
)

var assignmentRowColumns = []string{"id", "supervisor_id", "trainee_id", "is_primary", "assigned_date"}

func expectTraineeLock(mock sqlmock.Sqlmock, traineeID string) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM trainees WHERE id = $1 FOR UPDATE")).
		WithArgs(traineeID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(traineeID))
}

func TestAssignmentCreateInsertsInsideTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	expectTraineeLock(mock, "t1")
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE trainee_id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(assignmentRowColumns))
	mock.ExpectExec("INSERT INTO assignments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	assignment := &models.Assignment{SupervisorID: "s1", TraineeID: "t1"}
	err := repo.Create(context.Background(), assignment, CreateAssignmentOptions{PromoteFirst: true})
	require.NoError(t, err)
	assert.NotEmpty(t, assignment.ID)
	assert.True(t, assignment.IsPrimary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentCreateFailedInsertLeavesCallerUnpromoted(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	expectTraineeLock(mock, "t1")
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE trainee_id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(assignmentRowColumns))
	mock.ExpectExec("INSERT INTO assignments").
		WithArgs(sqlmock.AnyArg(), "s1", "t1", true, sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	assignment := &models.Assignment{SupervisorID: "s1", TraineeID: "t1"}
	err := repo.Create(context.Background(), assignment, CreateAssignmentOptions{PromoteFirst: true})
	require.Error(t, err)
	assert.False(t, assignment.IsPrimary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentCreateRejectsDuplicatePair(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	expectTraineeLock(mock, "t1")
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE trainee_id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(assignmentRowColumns).AddRow("a1", "s1", "t1", false, time.Now()))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Assignment{SupervisorID: "s1", TraineeID: "t1"}, CreateAssignmentOptions{})
	assert.True(t, errors.Is(err, ErrDuplicateAssignment))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentCreateRejectsSecondPrimary(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	expectTraineeLock(mock, "t1")
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE trainee_id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(assignmentRowColumns).AddRow("a1", "s1", "t1", true, time.Now()))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Assignment{SupervisorID: "s2", TraineeID: "t1", IsPrimary: true}, CreateAssignmentOptions{})
	assert.True(t, errors.Is(err, ErrPrimaryTaken))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentCreateSecondaryIsNotPromoted(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	expectTraineeLock(mock, "t1")
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE trainee_id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(assignmentRowColumns).AddRow("a1", "s1", "t1", true, time.Now()))
	mock.ExpectExec("INSERT INTO assignments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	assignment := &models.Assignment{SupervisorID: "s2", TraineeID: "t1"}
	require.NoError(t, repo.Create(context.Background(), assignment, CreateAssignmentOptions{PromoteFirst: true}))
	assert.False(t, assignment.IsPrimary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentCreateMissingTrainee(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM trainees WHERE id = $1 FOR UPDATE")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Assignment{SupervisorID: "s1", TraineeID: "ghost"}, CreateAssignmentOptions{})
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentDeleteIsIdempotent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE id = $1")).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE id = $1")).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := repo.Delete(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(context.Background(), "a1")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupervisorIDsByTraineeOrdersPrimaryFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT supervisor_id FROM assignments WHERE trainee_id = $1 ORDER BY is_primary DESC, assigned_date ASC")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"supervisor_id"}).AddRow("s2").AddRow("s1"))

	ids, err := repo.SupervisorIDsByTrainee(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2", "s1"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
