package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/popeskul/cadence/internal/config"
	"github.com/popeskul/cadence/internal/extractor"
	"github.com/popeskul/cadence/internal/metrics"
	"github.com/popeskul/cadence/internal/models"
	"github.com/popeskul/cadence/internal/repository"
	"github.com/popeskul/cadence/internal/transport"
)

const (
	maxNoticeDetail = 50
	chunkClaimTTL   = 5 * time.Minute
)

// ChunkProcessor builds message chains for pending submissions.
type ChunkProcessor struct {
	repo             repository.Repository
	extractor        ContentExtractor
	builder          *ChainBuilder
	dispatcher       DispatchService
	sender           transport.Sender
	locker           Locker
	batchSize        int
	notifyOnFailure  bool
	sendFirstOnReady bool
	now              func() time.Time
	logger           *zap.Logger
}

func NewChunkProcessor(
	cfg *config.Config,
	repo repository.Repository,
	ext ContentExtractor,
	dispatcher DispatchService,
	sender transport.Sender,
	locker Locker,
	logger *zap.Logger,
) *ChunkProcessor {
	batchSize := cfg.Chunking.BatchSize
	if batchSize < 1 {
		batchSize = 20
	}

	return &ChunkProcessor{
		repo:             repo,
		extractor:        ext,
		builder:          NewChainBuilder(repo.Submission(), logger),
		dispatcher:       dispatcher,
		sender:           sender,
		locker:           locker,
		batchSize:        batchSize,
		notifyOnFailure:  cfg.Chunking.NotifyOnFail,
		sendFirstOnReady: cfg.Dispatcher.SendFirstOnReady,
		now:              time.Now,
		logger:           logger,
	}
}

// ProcessPending chunks up to batchSize unready submissions, oldest first.
// A submission that cannot be chunked is deleted and its owner notified.
func (p *ChunkProcessor) ProcessPending(ctx context.Context) (*models.ProcessResult, error) {
	subs, err := p.repo.Submission().ListPending(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("Failed to list pending submissions", zap.Error(err))
		return &models.ProcessResult{Success: false, Error: err.Error()}, fmt.Errorf("failed to list pending submissions: %w", err)
	}

	if len(subs) == 0 {
		return &models.ProcessResult{Success: true, Message: "No submissions to process"}, nil
	}

	results := make([]models.SubmissionResult, 0, len(subs))
	for _, sub := range subs {
		res, skipped := p.handle(ctx, sub)
		if skipped {
			continue
		}
		results = append(results, res)
	}

	return &models.ProcessResult{Success: true, Processed: results}, nil
}

func chunkLockKey(id uuid.UUID) string {
	return "chunk:" + id.String()
}

// handle chunks one submission under a claim. Submissions claimed by another
// run, already chunked or deleted meanwhile are skipped and left untouched.
func (p *ChunkProcessor) handle(ctx context.Context, listed *models.Submission) (models.SubmissionResult, bool) {
	logger := p.logger.With(zap.String("submissionID", listed.ID.String()))

	skip := func(reason string) (models.SubmissionResult, bool) {
		metrics.SubmissionsProcessedTotal.WithLabelValues("skipped").Inc()
		logger.Debug("Submission skipped", zap.String("reason", reason))
		return models.SubmissionResult{}, true
	}
	fail := func(err error) (models.SubmissionResult, bool) {
		metrics.SubmissionsProcessedTotal.WithLabelValues(string(models.ResultStatusError)).Inc()
		logger.Error("Failed to process submission", zap.Error(err))
		return models.SubmissionResult{
			SubmissionID: listed.ID,
			Status:       models.ResultStatusError,
			Error:        err.Error(),
		}, false
	}

	key := chunkLockKey(listed.ID)
	token, ok, err := p.locker.Acquire(ctx, key, chunkClaimTTL)
	if err != nil {
		return fail(err)
	}
	if !ok {
		return skip("claimed")
	}
	defer func() {
		if err := p.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			logger.Warn("Failed to release submission claim", zap.Error(err))
		}
	}()

	// The pending list may be stale by the time the claim is held.
	sub, err := p.repo.Submission().GetByID(ctx, listed.ID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return skip("deleted")
	case err != nil:
		return fail(fmt.Errorf("failed to reload submission: %w", err))
	case sub.MessageToSend.Valid:
		return skip("already_chunked")
	}

	if err := p.processOne(ctx, sub); err != nil {
		if errors.Is(err, models.ErrAlreadyChunked) || errors.Is(err, models.ErrNotFound) {
			return skip("already_chunked")
		}
		res, _ := fail(err)
		p.discard(ctx, sub)
		return res, false
	}

	metrics.SubmissionsProcessedTotal.WithLabelValues(string(models.ResultStatusSuccess)).Inc()
	if p.sendFirstOnReady {
		p.sendFirst(ctx, sub.ID)
	}

	return models.SubmissionResult{SubmissionID: sub.ID, Status: models.ResultStatusSuccess}, false
}

func (p *ChunkProcessor) processOne(ctx context.Context, sub *models.Submission) error {
	chunks, err := p.extractor.Extract(ctx, sub)
	if err != nil {
		return err
	}

	if _, err := p.builder.BuildChain(ctx, sub.ID, sub.Timezone, chunks); err != nil {
		return err
	}

	p.logger.Info("Processed submission", zap.String("submissionID", sub.ID.String()))
	return nil
}

// sendFirst delivers the first chunk right away. Its failure does not undo
// the chunking; the scheduled send still happens at start_time.
func (p *ChunkProcessor) sendFirst(ctx context.Context, id uuid.UUID) {
	res, err := p.dispatcher.Run(ctx, p.now(), models.DispatchOptions{SubmissionID: &id})
	if err != nil {
		p.logger.Warn("Immediate first send failed", zap.String("submissionID", id.String()), zap.Error(err))
		return
	}
	for _, r := range res.Results {
		if r.Status == models.ResultStatusError {
			p.logger.Warn("Immediate first send failed",
				zap.String("submissionID", id.String()),
				zap.String("error", r.Error))
		}
	}
}

// discard deletes a submission that failed chunking and tells its owner.
func (p *ChunkProcessor) discard(ctx context.Context, sub *models.Submission) {
	if err := p.repo.Submission().Delete(ctx, sub.ID); err != nil {
		p.logger.Error("Failed to delete failed submission",
			zap.String("submissionID", sub.ID.String()),
			zap.Error(err))
	}

	if !p.notifyOnFailure {
		return
	}

	user, err := p.repo.User().GetByID(ctx, sub.UserID)
	if err != nil {
		p.logger.Warn("Failed to load user for failure notice",
			zap.String("submissionID", sub.ID.String()),
			zap.Error(err))
		return
	}
	if user.PhoneNumber == "" {
		return
	}

	if _, err := p.sender.Send(ctx, user.Recipient().Address(), FailureNotice(user.FirstName, sub)); err != nil {
		p.logger.Warn("Failed to send failure notice",
			zap.String("submissionID", sub.ID.String()),
			zap.Error(err))
	}
}

// FailureNotice is the text sent to a user whose submission was removed
// because it could not be processed.
func FailureNotice(firstName string, sub *models.Submission) string {
	if firstName == "" {
		firstName = "there"
	}

	kind, detail := extractor.Classify(sub)
	label := string(kind)
	if kind == extractor.SourcePDF && len(sub.UploadedFiles) > 1 {
		label += "s"
	}

	msg := fmt.Sprintf("Hey %s, there was an issue processing your recent %s submission on Cadence.", firstName, label)
	if detail != "" {
		if utf8.RuneCountInString(detail) > maxNoticeDetail {
			detail = string([]rune(detail)[:maxNoticeDetail-3]) + "..."
		}
		msg += "\n\nSubmission: " + detail
	}
	msg += "\n\nThe submission has been removed - please try submitting again. If the issue persists, contact support."

	return msg
}
