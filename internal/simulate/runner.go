// Package simulate drives the ranking API with synthetic voters that share a
// hidden preference order, then measures how well the served rankings
// recovered it.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/bookarena/pkg/logger"
)

// Run executes a complete simulated voting session against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting simulated voting",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("votes", cfg.Votes),
		logger.Int("workers", cfg.Workers),
		logger.Int64("seed", cfg.Seed),
		logger.Float64("noise", cfg.Noise))

	if err := client.Health(ctx); err != nil {
		return nil, err
	}

	before, err := client.Rankings(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial rankings: %w", err)
	}
	if len(before) < 2 {
		return nil, ErrTooFewBooks
	}
	stats.Books = len(before)

	rng := rand.New(rand.NewSource(cfg.Seed))
	truth := hiddenOrder(before, rng)
	v := &voters{client: client, truth: truth, rng: rng, cfg: cfg, log: log}

	if err := v.vote(ctx, stats); err != nil {
		return nil, err
	}

	after, err := client.Rankings(ctx)
	if err != nil {
		return nil, fmt.Errorf("final rankings: %w", err)
	}
	stats.Agreement = Agreement(after, truth)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

// hiddenOrder assigns every book a distinct strength. Higher wins.
func hiddenOrder(entries []Entry, rng *rand.Rand) map[int64]int {
	perm := rng.Perm(len(entries))
	truth := make(map[int64]int, len(entries))
	for i, e := range entries {
		truth[e.ID] = perm[i]
	}
	return truth
}

type voters struct {
	client *Client
	truth  map[int64]int
	cfg    *Config
	log    logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// roll returns a uniform float; rand.Rand is not safe for concurrent use.
func (v *voters) roll() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rng.Float64()
}

func (v *voters) vote(ctx context.Context, stats *Stats) error {
	var submitted, accepted, replayed, failed int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, v.cfg.Workers))
	for i := 0; i < v.cfg.Votes; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			atomic.AddInt64(&submitted, 1)
			n, err := v.one(gctx)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				atomic.AddInt64(&failed, 1)
				if v.cfg.Verbose {
					v.log.Warn(gctx, "vote failed", logger.Error(err))
				}
				return nil
			}
			atomic.AddInt64(&accepted, 1)
			atomic.AddInt64(&replayed, int64(n))
			return nil
		})
	}
	err := g.Wait()

	stats.VotesSubmitted = int(submitted)
	stats.VotesAccepted = int(accepted)
	stats.VotesReplayed = int(replayed)
	stats.VotesFailed = int(failed)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}

// one casts a single vote and returns how many replays it confirmed.
func (v *voters) one(ctx context.Context) (int, error) {
	p, err := v.client.Pair(ctx)
	if err != nil {
		return 0, err
	}
	winner, loser := p.A, p.B
	if v.truth[p.B.ID] > v.truth[p.A.ID] {
		winner, loser = loser, winner
	}
	if v.roll() < v.cfg.Noise {
		winner, loser = loser, winner
	}

	key := uuid.NewString()
	vote := Vote{WinnerID: winner.ID, LoserID: loser.ID}
	if _, err := v.client.Submit(ctx, key, vote); err != nil {
		return 0, err
	}
	if v.cfg.Verbose {
		v.log.Debug(ctx, "vote accepted",
			logger.String("key", key),
			logger.String("winner", winner.Title),
			logger.String("loser", loser.Title))
	}

	if v.roll() >= v.cfg.Replay {
		return 0, nil
	}
	again, err := v.client.Submit(ctx, key, vote)
	if err != nil {
		return 0, fmt.Errorf("replay %s: %w", key, err)
	}
	if !again {
		return 0, fmt.Errorf("replay %s was applied twice", key)
	}
	return 1, nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.VotesAccepted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.String("books", humanize.Comma(int64(stats.Books))),
		logger.String("submitted", humanize.Comma(int64(stats.VotesSubmitted))),
		logger.String("accepted", humanize.Comma(int64(stats.VotesAccepted))),
		logger.Int("replayed", stats.VotesReplayed),
		logger.Int("failed", stats.VotesFailed),
		logger.String("agreement", fmt.Sprintf("%.1f%%", stats.Agreement*100)),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("votesPerSecond", perSecond))
}
