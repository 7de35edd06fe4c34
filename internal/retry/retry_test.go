package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff(maxAttempts int) *ExponentialBackoff {
	return NewExponentialBackoff(maxAttempts,
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(2*time.Millisecond),
		WithJitter(0),
	)
}

func TestExponentialBackoff_NextDelay_Growth(t *testing.T) {
	b := NewExponentialBackoff(5,
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(1*time.Second),
		WithJitter(0),
	)

	assert.Equal(t, 100*time.Millisecond, b.NextDelay(0))
	assert.Equal(t, 200*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 400*time.Millisecond, b.NextDelay(2))
	// capped at maxDelay
	assert.Equal(t, 1*time.Second, b.NextDelay(10))
}

func TestExponentialBackoff_Jitter_Deterministic(t *testing.T) {
	b := NewExponentialBackoff(3,
		WithInitialDelay(100*time.Millisecond),
		WithJitter(0.1),
		WithJitterFunc(func() float64 { return 1.0 }), // max positive offset
	)

	// 100ms * (1 + 0.1*1.0) = 110ms
	assert.Equal(t, 110*time.Millisecond, b.NextDelay(0))
}

func TestClassifier_TransientPgErrors(t *testing.T) {
	c := NewPostgreSQLErrorClassifier()

	tests := []struct {
		name string
		code string
		want bool
	}{
		{"connection failure", "08006", true},
		{"too many connections", "53300", true},
		{"admin shutdown", "57P01", true},
		{"deadlock", "40P01", true},
		{"serialization failure", "40001", true},
		{"lock not available", "55P03", true},
		{"not null violation", "23502", false},
		{"undefined table", "42P01", false},
		{"invalid text representation", "22P02", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &pgconn.PgError{Code: tt.code}
			assert.Equal(t, tt.want, c.IsTransient(err))
		})
	}
}

func TestClassifier_NilAndPlainErrors(t *testing.T) {
	c := NewPostgreSQLErrorClassifier()

	assert.False(t, c.IsTransient(nil))
	assert.False(t, c.IsTransient(errors.New("syntax error")))
	assert.True(t, c.IsTransient(errors.New("dial tcp: connection refused")))
	assert.True(t, c.IsTransient(errors.New("read: i/o timeout")))
}

func TestExecutor_SuccessOnFirstAttempt(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(3))

	calls := 0
	err := executor.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecutor_RetriesTransientThenSucceeds(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(3))

	calls := 0
	err := executor.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecutor_FatalErrorNotRetried(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(3))

	calls := 0
	fatal := errors.New("password authentication failed")
	err := executor.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return fatal
	})

	assert.Equal(t, fatal, err)
	assert.Equal(t, 1, calls)
}

func TestExecutor_ExhaustsAttempts(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(2))

	calls := 0
	transient := errors.New("connection refused")
	err := executor.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return transient
	})

	assert.Equal(t, transient, err)
	// initial attempt + 2 retries
	assert.Equal(t, 3, calls)
}

func TestExecutor_ContextCancellation(t *testing.T) {
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), NewExponentialBackoff(5,
		WithInitialDelay(time.Hour), WithJitter(0)))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := executor.Execute(ctx, func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecutor_OnRetryCallback(t *testing.T) {
	base := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(2))

	var attempts []int
	executor := base.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
	})

	_ = executor.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	assert.Equal(t, []int{0, 1}, attempts)
	// the original executor is unchanged
	assert.Nil(t, base.onRetry)
}
