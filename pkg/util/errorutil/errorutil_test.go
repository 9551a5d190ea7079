package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskops/sla-service/internal/sla"
)

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	nf := ToDomainError(NewNotFound("ticket", nil))
	assert.Equal(t, "NOT_FOUND", nf.Code)
	assert.Equal(t, "ticket not found", nf.Message)

	rows := ToDomainError(fmt.Errorf("load ticket: %w", pgx.ErrNoRows))
	assert.Equal(t, http.StatusNotFound, rows.HTTPStatus)

	internal := ToDomainError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus)
	assert.ErrorContains(t, internal, "boom")
}

func TestToDomainError_SLAValidation(t *testing.T) {
	err := sla.ValidatePolicy(sla.Policy{})
	require.Error(t, err)

	de := ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Contains(t, de.Details, "name")
}

func TestToDomainError_MalformedIdentifier(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}

	de := ToDomainError(fmt.Errorf("list tickets: %w", pgErr))
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Equal(t, pgErr.Message, de.Details["reason"])

	other := ToDomainError(&pgconn.PgError{Code: "23505"})
	assert.Equal(t, http.StatusInternalServerError, other.HTTPStatus)
}
