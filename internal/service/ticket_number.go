package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/repository"
)

const ticketSeqKeyPrefix = "helpdesk:ticket_seq:"

// TicketNumberGenerator produces ticket numbers of the form YYYY-MM-NNNNNN
// where the sequence resets each calendar month. Redis INCR provides the
// counter; when Redis is unavailable the generator falls back to the
// highest persisted sequence for the month plus one. The unique constraint
// on the number column catches the rare collision either path can produce.
type TicketNumberGenerator struct {
	redis   *redis.Client
	tickets repository.TicketRepository
	logger  *zap.Logger
}

// NewTicketNumberGenerator builds a generator. The redis client may be nil.
func NewTicketNumberGenerator(redisClient *redis.Client, tickets repository.TicketRepository, logger *zap.Logger) *TicketNumberGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketNumberGenerator{redis: redisClient, tickets: tickets, logger: logger}
}

// Next returns the next ticket number for the month containing now.
func (g *TicketNumberGenerator) Next(ctx context.Context, now time.Time) (string, error) {
	bucket := now.Format("2006-01")
	if g.redis != nil {
		seq, err := g.redis.Incr(ctx, ticketSeqKeyPrefix+bucket).Result()
		if err == nil {
			return formatTicketNumber(bucket, int(seq)), nil
		}
		g.logger.Warn("redis ticket counter unavailable, falling back to store", zap.Error(err))
	}
	return g.NextFromStore(ctx, now)
}

// NextFromStore derives the next number from persisted tickets, bypassing
// the Redis counter. Used as the retry path after a number collision.
func (g *TicketNumberGenerator) NextFromStore(ctx context.Context, now time.Time) (string, error) {
	bucket := now.Format("2006-01")
	max, err := g.tickets.MaxSequenceForBucket(ctx, bucket)
	if err != nil {
		return "", err
	}
	next := max + 1
	if g.redis != nil {
		// keep the counter ahead of the store so later INCRs do not collide
		if err := g.redis.Set(ctx, ticketSeqKeyPrefix+bucket, next, 0).Err(); err != nil {
			g.logger.Warn("failed to resync redis ticket counter", zap.Error(err))
		}
	}
	return formatTicketNumber(bucket, next), nil
}

func formatTicketNumber(bucket string, seq int) string {
	return fmt.Sprintf("%s-%06d", bucket, seq)
}
