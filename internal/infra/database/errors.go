package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vitalmed-app/clinica-automation/internal/usecase"
)

// classifyWriteError separa "banco alcançável mas recusou a escrita"
// (violação de constraint, dado inválido) de "banco inalcançável".
// O chamador trata o primeiro como fatal para o save e o segundo como
// recuperável localmente.
func classifyWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &usecase.DomainError{
			Code:    usecase.CodePersistenceRejected,
			Message: fmt.Sprintf("%s rejected by store: %s (sqlstate %s)", op, pgErr.Message, pgErr.Code),
		}
	}

	return &usecase.TechnicalError{
		Code:    usecase.CodePersistenceUnavailable,
		Message: fmt.Sprintf("%s: store unreachable: %v", op, err),
	}
}
