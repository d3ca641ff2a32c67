package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tms-allocation-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func trainerColumns() []string {
	return []string{"id", "email", "full_name", "payment_type", "hourly_rate", "domain", "active", "created_at", "updated_at"}
}

func TestTrainerRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTrainerRepository(db)

	rows := sqlmock.NewRows(trainerColumns()).
		AddRow("t1", "asha@example.com", "Asha", "hourly", 1200.0, "Java", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, full_name, payment_type, hourly_rate, domain, active, created_at, updated_at FROM trainers WHERE 1=1 ORDER BY full_name ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM trainers WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.TrainerFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainerRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTrainerRepository(db)

	active := true
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND active = $1 AND domain = $2 AND (LOWER(full_name) LIKE $3 OR LOWER(email) LIKE $3)")).
		WithArgs(true, "Java", "%asha%").
		WillReturnRows(sqlmock.NewRows(trainerColumns()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(true, "Java", "%asha%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.TrainerFilter{
		Active: &active,
		Domain: "Java",
		Search: "Asha",
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainerRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTrainerRepository(db)

	rows := sqlmock.NewRows(trainerColumns()).
		AddRow("t1", "asha@example.com", "Asha", "hourly", 1200.0, "Java", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, full_name, payment_type, hourly_rate, domain, active, created_at, updated_at FROM trainers WHERE id = $1")).
		WithArgs("t1").
		WillReturnRows(rows)

	trainer, err := repo.FindByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", trainer.FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainerRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTrainerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM trainers WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "asha@example.com", "")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM trainers WHERE LOWER(email) = LOWER($1) AND id <> $2 LIMIT 1")).
		WithArgs("asha@example.com", "t1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err = repo.ExistsByEmail(context.Background(), "asha@example.com", "t1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainerRepositoryCreateAndDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTrainerRepository(db)

	mock.ExpectExec("INSERT INTO trainers").
		WithArgs(sqlmock.AnyArg(), "asha@example.com", "Asha", "hourly", 1200.0, "Java", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	trainer := &models.Trainer{Email: "asha@example.com", FullName: "Asha", PaymentType: "hourly", HourlyRate: 1200, Domain: "Java", Active: true}
	require.NoError(t, repo.Create(context.Background(), trainer))
	assert.NotEmpty(t, trainer.ID)

	mock.ExpectExec("UPDATE trainers SET active = FALSE").
		WithArgs("t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "t1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainerRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTrainerRepository(db)

	mock.ExpectExec("UPDATE trainers SET email =").
		WithArgs("asha@example.com", "Asha K", "fixed", 0.0, "Java", false, sqlmock.AnyArg(), "t1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	trainer := &models.Trainer{ID: "t1", Email: "asha@example.com", FullName: "Asha K", PaymentType: "fixed", Domain: "Java"}
	require.NoError(t, repo.Update(context.Background(), trainer))
	assert.NoError(t, mock.ExpectationsWereMet())
}
