package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/kavyarc11/postpilot/internal/models"
	"github.com/kavyarc11/postpilot/internal/publisher"
	"github.com/kavyarc11/postpilot/internal/repository"
	"github.com/kavyarc11/postpilot/pkg/utils"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrPostNotFound        = errors.New("post not found")
	ErrPostNotRetargetable = errors.New("post cannot be rescheduled in its current state")
)

// MediaResolver turns a due post's media reference into a URL the target
// platform can fetch.
type MediaResolver interface {
	ResolveURL(ctx context.Context, dp *models.DuePost) (string, error)
}

type BatchSummary struct {
	RunID     string `json:"run_id"`
	Attempted int    `json:"attempted"`
	Published int    `json:"published"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}

type PostOutcome struct {
	PostID         int64  `json:"post_id"`
	Status         string `json:"status"`
	PlatformPostID string `json:"platform_post_id,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

// Engine is the publishing engine: it claims due posts, drives each one
// through its platform protocol and records the outcome. One bad post never
// aborts the rest of the batch.
type Engine struct {
	pr          repository.PostRepository
	lr          repository.PostLogRepository
	mr          MediaResolver
	reg         *publisher.Registry
	secretKey   []byte
	batchLimit  int
	callTimeout time.Duration
	now         func() time.Time
}

func New(
	pr repository.PostRepository,
	lr repository.PostLogRepository,
	mr MediaResolver,
	reg *publisher.Registry,
	secretKey string,
	batchLimit int,
	callTimeout time.Duration) *Engine {
	if batchLimit <= 0 {
		batchLimit = 10
	}
	if callTimeout <= 0 {
		callTimeout = 60 * time.Second
	}
	return &Engine{
		pr:          pr,
		lr:          lr,
		mr:          mr,
		reg:         reg,
		secretKey:   []byte(secretKey),
		batchLimit:  batchLimit,
		callTimeout: callTimeout,
		now:         time.Now,
	}
}

const (
	outcomePublished = "published"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)

// RunBatch sweeps due posts once. An empty sweep is a successful no-op;
// only the due-post fetch itself can fail the batch.
func (e *Engine) RunBatch(ctx context.Context) (*BatchSummary, error) {
	now := e.now()
	runID := newRunID()

	posts, err := e.pr.ListDue(ctx, now, e.batchLimit)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("fetching due posts: %w", err)
	}

	summary := &BatchSummary{RunID: runID}
	if len(posts) == 0 {
		return summary, nil
	}

	log.Printf("publish sweep %s: %d due post(s)", runID, len(posts))

	for _, post := range posts {
		if ctx.Err() != nil {
			// Caller gave up; unclaimed posts stay scheduled for the
			// next sweep.
			break
		}
		switch e.publishOne(ctx, runID, post) {
		case outcomePublished:
			summary.Attempted++
			summary.Published++
		case outcomeFailed:
			summary.Attempted++
			summary.Failed++
		case outcomeSkipped:
			summary.Skipped++
		}
	}

	return summary, nil
}

// PublishSpecific retargets one post to be due immediately and publishes
// just that post, independent of the periodic sweep.
func (e *Engine) PublishSpecific(ctx context.Context, postID, workspaceID int64) (*PostOutcome, error) {
	now := e.now()

	ok, err := e.pr.RescheduleNow(ctx, postID, workspaceID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		existing, err := e.pr.GetByID(ctx, postID)
		if err != nil {
			return nil, err
		}
		if existing == nil || existing.WorkspaceID != workspaceID {
			return nil, ErrPostNotFound
		}
		return nil, ErrPostNotRetargetable
	}

	dp, err := e.pr.GetDueByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if dp == nil {
		return nil, ErrPostNotFound
	}

	e.publishOne(ctx, newRunID(), dp)

	post, err := e.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	return &PostOutcome{
		PostID:         post.ID,
		Status:         post.Status,
		PlatformPostID: post.PlatformPostID,
		ErrorMessage:   post.ErrorMessage,
	}, nil
}

// publishOne runs the full per-post state machine. Every failure, panics
// included, is absorbed here and lands the post in failed.
func (e *Engine) publishOne(ctx context.Context, runID string, dp *models.DuePost) (outcome string) {
	defer func() {
		if rec := recover(); rec != nil {
			msg := fmt.Sprintf("panic while publishing post %d: %v", dp.ID, rec)
			slog.Error(msg)
			if err := e.pr.MarkFailed(ctx, dp.ID, msg); err != nil {
				slog.Info(err.Error())
			}
			e.appendLog(ctx, dp.ID, models.LogEventFailed, map[string]any{
				"run_id": runID,
				"error":  msg,
			})
			outcome = outcomeFailed
		}
	}()

	claimed, err := e.pr.ClaimPublishing(ctx, dp.ID)
	if err != nil {
		slog.Info(err.Error())
		return outcomeSkipped
	}
	if !claimed {
		// Another invocation owns this row.
		return outcomeSkipped
	}

	e.appendLog(ctx, dp.ID, models.LogEventPublishingStarted, map[string]any{
		"run_id":   runID,
		"platform": dp.Platform,
	})

	result, err := e.attempt(ctx, dp)
	if err != nil {
		if markErr := e.pr.MarkFailed(ctx, dp.ID, err.Error()); markErr != nil {
			slog.Info(markErr.Error())
		}
		e.appendLog(ctx, dp.ID, models.LogEventFailed, map[string]any{
			"run_id":    runID,
			"error":     err.Error(),
			"retryable": publisher.IsRetryable(err),
		})
		return outcomeFailed
	}

	publishedAt := e.now()
	if err := e.pr.MarkPublished(ctx, dp.ID, result.PlatformPostID, publishedAt); err != nil {
		slog.Info(err.Error())
		return outcomeFailed
	}
	e.appendLog(ctx, dp.ID, models.LogEventPublished, map[string]any{
		"run_id":           runID,
		"platform_post_id": result.PlatformPostID,
	})
	return outcomePublished
}

func (e *Engine) attempt(ctx context.Context, dp *models.DuePost) (*publisher.Result, error) {
	mediaURL, err := e.mr.ResolveURL(ctx, dp)
	if err != nil {
		return nil, err
	}

	pub, ok := e.reg.Lookup(dp.Platform)
	if !ok {
		return nil, fmt.Errorf("no publisher registered for platform %q", dp.Platform)
	}

	accessToken, err := utils.Decrypt(dp.AccessToken, e.secretKey)
	if err != nil {
		return nil, fmt.Errorf("decrypting access token: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	return pub.Publish(callCtx, &publisher.Publication{
		AccountID:   dp.PlatformAccountID,
		AccessToken: accessToken,
		MediaURL:    mediaURL,
		MediaKind:   models.MediaKind(dp.MediaType),
		Caption:     dp.Caption,
	})
}

// appendLog is best effort: a failed audit write never aborts the primary
// status transition.
func (e *Engine) appendLog(ctx context.Context, postID int64, event string, detail map[string]any) {
	_, err := e.lr.Create(ctx, &models.PostLogEntry{
		PostID: postID,
		Event:  event,
		Detail: detail,
	})
	if err != nil {
		slog.Info(err.Error())
	}
}

func newRunID() string {
	id, err := gonanoid.New()
	if err != nil {
		return "unknown"
	}
	return id
}
