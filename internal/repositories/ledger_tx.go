package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

const (
	serializationFailureCode = "40001" // Postgres serialization_failure
	txMaxAttempts            = 3
	txRetryDelay             = 50 * time.Millisecond
)

// LedgerTxRunner executes a function against transaction-scoped views of the
// two token ledgers. The promotion path (delete-from-active plus
// insert-into-blacklisted) must happen inside a single SERIALIZABLE
// transaction so a reader never observes neither-record or both-records
// states across a commit boundary.
type LedgerTxRunner interface {
	InSerializableTx(ctx context.Context, fn func(active ActiveTokenRepository, blacklist BlacklistedTokenRepository) error) error
}

type pgLedgerTxRunner struct {
	db TxBeginner
}

func NewLedgerTxRunner(db TxBeginner) LedgerTxRunner {
	return &pgLedgerTxRunner{db: db}
}

// InSerializableTx runs fn in a SERIALIZABLE transaction, retrying a bounded
// number of times when Postgres aborts the transaction with a
// serialization_failure. Any other error rolls back and surfaces as-is.
func (r *pgLedgerTxRunner) InSerializableTx(
	ctx context.Context,
	fn func(active ActiveTokenRepository, blacklist BlacklistedTokenRepository) error,
) error {
	var err error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		time.Sleep(txRetryDelay)
	}
	return err
}

func (r *pgLedgerTxRunner) runOnce(
	ctx context.Context,
	fn func(active ActiveTokenRepository, blacklist BlacklistedTokenRepository) error,
) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}

	if err := fn(NewActiveTokenRepository(tx), NewBlacklistedTokenRepository(tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == serializationFailureCode
}
