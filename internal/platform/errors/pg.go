package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// sqlState is how the tracker treats one postgres SQLSTATE
type sqlState struct {
	code  ErrorCode
	retry bool
}

// sqlStates covers the codes the pipeline and the board read path can hit.
// Anything missing maps to ErrorCodeDB and is not retried
var sqlStates = map[string]sqlState{
	"23505": {code: ErrorCodeDuplicateKey},             // unique_violation
	"23503": {code: ErrorCodeInvalidArgument},          // foreign_key_violation
	"23502": {code: ErrorCodeValidation},               // not_null_violation
	"23514": {code: ErrorCodeValidation},               // check_violation, score out of 0..100
	"22001": {code: ErrorCodeInvalidArgument},          // string_data_right_truncation
	"22P02": {code: ErrorCodeInvalidArgument},          // invalid_text_representation
	"40001": {code: ErrorCodeDB, retry: true},          // serialization_failure
	"40P01": {code: ErrorCodeDB, retry: true},          // deadlock_detected
	"55P03": {code: ErrorCodeDB, retry: true},          // lock_not_available
	"57014": {code: ErrorCodeDB, retry: true},          // query_canceled, statement_timeout
	"25006": {code: ErrorCodeUnavailable},              // read_only_sql_transaction
	"57P01": {code: ErrorCodeUnavailable, retry: true}, // admin_shutdown
	"57P03": {code: ErrorCodeUnavailable},              // cannot_connect_now
}

// pgx reports some commit aborts only as text
var retryableText = []string{
	"commit unexpectedly resulted in rollback",
	"deadlock detected",
	"could not serialize access",
	"canceling statement due to statement timeout",
	"canceling statement due to lock timeout",
	"terminating connection due to administrator command",
}

func asPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	ok := stderrs.As(err, &pgErr)
	return pgErr, ok
}

// DBErrorCode maps a postgres error to an ErrorCode.
// ok is false when err carries no *pgconn.PgError
func DBErrorCode(err error) (ErrorCode, bool) {
	pgErr, ok := asPgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	if st, known := sqlStates[pgErr.Code]; known {
		return st.code, true
	}
	return ErrorCodeDB, true
}

// IsDuplicateKey reports a unique violation anywhere in the chain
func IsDuplicateKey(err error) bool {
	pgErr, ok := asPgError(err)
	return ok && pgErr.Code == "23505"
}

// FromPostgres wraps err with its mapped code. nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, ok := DBErrorCode(err)
	if !ok {
		code = ErrorCodeDB
	}
	return Wrap(err, code, msg)
}

// FromPostgresf is FromPostgres with a formatted message
func FromPostgresf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// IsRetryable reports a transient database failure that a chunk retry may clear.
// Local cancellation never is
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pgErr, ok := asPgError(err); ok {
		return sqlStates[pgErr.Code].retry
	}
	s := strings.ToLower(Root(err).Error())
	for _, frag := range retryableText {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}
