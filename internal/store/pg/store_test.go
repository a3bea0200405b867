package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formnotif/internal/domain"
	"formnotif/internal/store"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	s := New(mock)
	s.Now = func() time.Time { return fixedNow }
	return s, mock
}

func TestAppend(t *testing.T) {
	s, mock := newMockStore(t)
	r := domain.DispatchResult{ID: "res-1", FormID: 3, Recipient: "6281", Audience: domain.AudienceAdmin, Success: true, Message: "Message sent successfully"}

	mock.ExpectExec("INSERT INTO dispatch_logs").
		WithArgs("res-1", "sub-1", 3, "6281", "admin", true, "Message sent successfully", fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Append(context.Background(), "sub-1", r))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendWrapsError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO dispatch_logs").WillReturnError(errors.New("boom"))

	err := s.Append(context.Background(), "sub-1", domain.DispatchResult{ID: "r", Timestamp: fixedNow})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store/pg: append")
}

func TestListFiltersByRetention(t *testing.T) {
	s, mock := newMockStore(t)
	rows := pgxmock.NewRows([]string{"id", "submission_id", "form_id", "recipient", "audience", "success", "message", "created_at"}).
		AddRow("res-1", "sub-1", 3, "6281", "admin", true, "ok", fixedNow.Add(-time.Hour)).
		AddRow("res-2", "sub-1", 3, "6282", "customer", false, "invalid", fixedNow)

	mock.ExpectQuery("SELECT id, submission_id").
		WithArgs("sub-1", fixedNow.Add(-store.Retention)).
		WillReturnRows(rows)

	got, err := s.List(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.AudienceAdmin, got[0].Audience)
	assert.False(t, got[1].Success)
	assert.Equal(t, "invalid", got[1].Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPrune(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM dispatch_logs").
		WithArgs(fixedNow.Add(-store.Retention)).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := s.Prune(context.Background(), fixedNow)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmptySubmissionID(t *testing.T) {
	s, _ := newMockStore(t)
	_, err := s.List(context.Background(), "")
	assert.ErrorIs(t, err, store.ErrSubmissionIDRequired)
}
