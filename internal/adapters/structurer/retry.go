package structurer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/kellyjoo3/pickandcook/internal/domain"
)

// Retrying 은 구조화 호출에 유계 재시도와 지수 백오프를 적용하는
// 데코레이터다. 모든 시도가 소진되면 domain.StructuringError 로 전파한다.
type Retrying struct {
	inner    domain.RecipeStructurer
	attempts int
	minWait  time.Duration
	maxWait  time.Duration
	log      zerolog.Logger
}

// NewRetrying 은 재시도 데코레이터를 생성한다.
func NewRetrying(inner domain.RecipeStructurer, attempts int, minWait, maxWait time.Duration, logger zerolog.Logger) *Retrying {
	if attempts <= 0 {
		attempts = 3
	}
	if minWait <= 0 {
		minWait = 4 * time.Second
	}
	if maxWait < minWait {
		maxWait = 10 * time.Second
	}
	return &Retrying{inner: inner, attempts: attempts, minWait: minWait, maxWait: maxWait, log: logger}
}

var _ domain.RecipeStructurer = (*Retrying)(nil)

// Structure 는 최대 attempts 회까지 내부 구조화를 시도한다.
// 시도 사이에는 minWait 에서 시작해 maxWait 까지 지수적으로 늘어나는
// 시간만큼 대기한다.
func (r *Retrying) Structure(ctx context.Context, text string) (domain.RecipeResult, error) {
	// 대기는 minWait 에서 시작해 2배씩 늘어나며 maxWait 를 넘지 않는다.
	// 기본값으로는 4s, 8s 가 된다.
	wait := backoff.NewExponentialBackOff()
	wait.InitialInterval = r.minWait
	wait.MaxInterval = r.maxWait
	wait.Multiplier = 2
	wait.RandomizationFactor = 0
	wait.MaxElapsedTime = 0
	wait.Reset()

	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		result, err := r.inner.Structure(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err
		r.log.Warn().Err(err).Int("attempt", attempt).Msg("구조화 호출 실패")

		if attempt == r.attempts {
			break
		}
		select {
		case <-time.After(wait.NextBackOff()):
		case <-ctx.Done():
			return domain.RecipeResult{}, &domain.StructuringError{Attempts: attempt, Err: ctx.Err()}
		}
	}
	return domain.RecipeResult{}, &domain.StructuringError{Attempts: r.attempts, Err: lastErr}
}
