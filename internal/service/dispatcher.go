package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/popeskul/cadence/internal/config"
	"github.com/popeskul/cadence/internal/metrics"
	"github.com/popeskul/cadence/internal/models"
	"github.com/popeskul/cadence/internal/repository"
	"github.com/popeskul/cadence/internal/transport"
)

const (
	modeBatch  = "batch"
	modeSingle = "single"
)

// Dispatcher sends the next message of every due submission.
type Dispatcher struct {
	repo           repository.Repository
	sender         transport.Sender
	locker         Locker
	sent           SentRecorder
	advancer       *CursorAdvancer
	concurrency    int
	lockTTL        time.Duration
	advanceTimeout time.Duration
	logger         *zap.Logger
}

func NewDispatcher(
	cfg *config.DispatcherConfig,
	repo repository.Repository,
	sender transport.Sender,
	locker Locker,
	sent SentRecorder,
	logger *zap.Logger,
) *Dispatcher {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	lockTTL := time.Duration(cfg.LockTTLSeconds) * time.Second
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	advanceTimeout := time.Duration(cfg.AdvanceTimeoutSeconds) * time.Second
	if advanceTimeout <= 0 {
		advanceTimeout = 10 * time.Second
	}

	return &Dispatcher{
		repo:           repo,
		sender:         sender,
		locker:         locker,
		sent:           sent,
		advancer:       NewCursorAdvancer(repo.Submission()),
		concurrency:    concurrency,
		lockTTL:        lockTTL,
		advanceTimeout: advanceTimeout,
		logger:         logger,
	}
}

// outcome of one submission; skipped submissions are left out of the result.
type outcome struct {
	result  models.SubmissionResult
	skipped bool
}

// Run dispatches every due submission, or only opts.SubmissionID when set.
// Failures of single submissions are reported in the result and never abort
// the run; only failing to load candidates does.
func (d *Dispatcher) Run(ctx context.Context, now time.Time, opts models.DispatchOptions) (*models.DispatchResult, error) {
	started := time.Now()
	single := opts.SubmissionID != nil
	mode := modeBatch
	if single {
		mode = modeSingle
	}
	defer func() {
		metrics.DispatchRunDuration.Observe(time.Since(started).Seconds())
	}()

	candidates, err := d.loadCandidates(ctx, now, opts)
	if err != nil {
		metrics.DispatchRunsTotal.WithLabelValues(mode, "error").Inc()
		d.logger.Error("Failed to load dispatch candidates", zap.String("mode", mode), zap.Error(err))
		return &models.DispatchResult{
			Success: false,
			Results: []models.SubmissionResult{},
			Error:   err.Error(),
		}, err
	}

	outcomes := make([]outcome, len(candidates))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			outcomes[i] = d.dispatchGuarded(ctx, c, now, single)
			return nil
		})
	}
	_ = g.Wait()

	results := make([]models.SubmissionResult, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.skipped {
			results = append(results, o.result)
		}
	}

	metrics.DispatchRunsTotal.WithLabelValues(mode, "success").Inc()
	d.logger.Info("Dispatch run finished",
		zap.String("mode", mode),
		zap.Int("due", len(candidates)),
		zap.Int("processed", len(results)),
		zap.Duration("duration", time.Since(started)))

	return &models.DispatchResult{
		Success:   true,
		Processed: len(results),
		Results:   results,
	}, nil
}

func (d *Dispatcher) loadCandidates(ctx context.Context, now time.Time, opts models.DispatchOptions) ([]*models.DispatchCandidate, error) {
	if opts.SubmissionID != nil {
		c, err := d.repo.Submission().GetCandidate(ctx, *opts.SubmissionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load submission: %w", err)
		}
		return []*models.DispatchCandidate{c}, nil
	}

	all, err := d.repo.Submission().ListDispatchable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	due := make([]*models.DispatchCandidate, 0, len(all))
	for _, c := range all {
		if IsDue(&c.Submission, now) {
			due = append(due, c)
		}
	}
	return due, nil
}

// dispatchGuarded turns a panic while dispatching one submission into an
// error result for that submission.
func (d *Dispatcher) dispatchGuarded(ctx context.Context, c *models.DispatchCandidate, now time.Time, single bool) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			metrics.MessagesSentTotal.WithLabelValues(string(models.ResultStatusError)).Inc()
			d.logger.Error("Panic while dispatching submission",
				zap.String("submissionID", c.ID.String()),
				zap.Any("panic", r),
				zap.Stack("stack"))
			o = outcome{result: models.SubmissionResult{
				SubmissionID: c.ID,
				Status:       models.ResultStatusError,
				Error:        fmt.Sprintf("panic: %v", r),
			}}
		}
	}()
	return d.dispatchOne(ctx, c, now, single)
}

func (d *Dispatcher) dispatchOne(ctx context.Context, c *models.DispatchCandidate, now time.Time, single bool) outcome {
	logger := d.logger.With(zap.String("submissionID", c.ID.String()))

	fail := func(err error) outcome {
		metrics.MessagesSentTotal.WithLabelValues(string(models.ResultStatusError)).Inc()
		logger.Error("Failed to dispatch submission", zap.Error(err))
		return outcome{result: models.SubmissionResult{
			SubmissionID: c.ID,
			Status:       models.ResultStatusError,
			Error:        err.Error(),
		}}
	}
	skip := func(reason string) outcome {
		metrics.DispatchSkippedTotal.WithLabelValues(reason).Inc()
		logger.Debug("Submission skipped", zap.String("reason", reason))
		return outcome{skipped: true}
	}

	key := c.ID.String()
	token, ok, err := d.locker.Acquire(ctx, key, d.lockTTL)
	if err != nil {
		return fail(err)
	}
	if !ok {
		return skip("claimed")
	}
	defer func() {
		if err := d.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			logger.Warn("Failed to release submission claim", zap.Error(err))
		}
	}()

	sub := &c.Submission
	if !single {
		// State loaded before the claim may already be stale.
		fresh, err := d.repo.Submission().GetByID(ctx, c.ID)
		if err != nil {
			return fail(fmt.Errorf("failed to reload submission: %w", err))
		}
		if !IsDue(fresh, now) {
			return skip("not_due")
		}
		sub = fresh
	}
	if !sub.IsReady() {
		return fail(models.ErrSubmissionNotReady)
	}

	msg, err := d.repo.Message().GetByID(ctx, sub.MessageToSend.UUID)
	if err != nil {
		return fail(fmt.Errorf("failed to load message: %w", err))
	}

	res, err := d.sender.Send(ctx, c.Address(), msg.Text)
	if err != nil {
		return fail(fmt.Errorf("failed to send message: %w", err))
	}

	// The send went out; record it even if the run's context is gone.
	advanceCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.advanceTimeout)
	defer cancel()

	if err := d.advancer.Advance(advanceCtx, sub, msg, now, single); err != nil {
		if errors.Is(err, models.ErrCursorConflict) {
			metrics.CursorConflictsTotal.Inc()
		}
		return fail(err)
	}

	if d.sent != nil && res != nil && res.ProviderID != "" {
		if err := d.sent.Record(advanceCtx, res.ProviderID, msg.ID, now); err != nil {
			logger.Warn("Failed to cache sent message id", zap.Error(err))
		}
	}

	metrics.MessagesSentTotal.WithLabelValues(string(models.ResultStatusSuccess)).Inc()
	logger.Info("Message sent",
		zap.String("messageID", msg.ID.String()),
		zap.String("nextMessageID", msg.NextMessageID.String()),
		zap.Bool("firstSend", single))

	return outcome{result: models.SubmissionResult{
		SubmissionID: c.ID,
		Status:       models.ResultStatusSuccess,
	}}
}
