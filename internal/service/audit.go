package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartPendingAudit запускает фоновый процесс, который считает покупки, зависшие в pending
// дольше staleAfter. Места таких покупок не освобождаются, процесс лишь сообщает о них.
func (s *Service) StartPendingAudit(ctx context.Context, interval, staleAfter time.Duration) {
	if interval <= 0 || staleAfter <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.auditPending(ctx, staleAfter)
			}
		}
	}()
}

func (s *Service) auditPending(ctx context.Context, staleAfter time.Duration) {
	n, err := s.repo.CountPendingBefore(ctx, s.now().Add(-staleAfter))
	if err != nil {
		s.logger.Error("pending audit error", zap.Error(err))
		return
	}

	s.metrics.StalePending.Set(float64(n))
	if n > 0 {
		s.logger.Warn("stale pending purchases need reconciliation",
			zap.Int("count", n),
			zap.Duration("olderThan", staleAfter),
		)
	}
}
