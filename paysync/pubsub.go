package paysync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/sigayyury-ai/crmtowfirma-sub012/config"
	"github.com/sigayyury-ai/crmtowfirma-sub012/models"
	"github.com/sigayyury-ai/crmtowfirma-sub012/utils"
)

// PublishRun enqueues a reconciliation run for the push worker.
func PublishRun(ctx context.Context, payload RunPayload) error {
	topicName := strings.TrimSpace(os.Getenv("PAYSYNC_RUN_TOPIC"))
	if topicName == "" {
		topicName = "paysync-run"
	}

	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}

	topic := client.Topic(topicName)
	if utils.BoolFromEnv("PAYSYNC_CREATE_TOPIC", false) {
		topic, err = config.CreateTopicIfNotExists(client, topicName)
		if err != nil {
			return err
		}
	}

	data, _ := json.Marshal(payload)
	res := topic.Publish(ctx, &pubsub.Message{Data: data})
	_, err = res.Get(ctx)
	return err
}

// PubSubPushHandler accepts the push delivery. Malformed envelopes are acked
// with 204 so the subscription does not redeliver garbage forever.
func PubSubPushHandler(engine *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.BoolFromEnv("ENABLE_PAYSYNC_PUBSUB_PUSH_ENDPOINT", true) {
			c.Status(204)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(204)
			return
		}

		var envelope PubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.Status(204)
			return
		}

		var payload RunPayload
		if err := json.Unmarshal(envelope.Message.Data, &payload); err != nil {
			c.Status(204)
			return
		}
		if payload.RunId == "" || payload.Job == "" {
			c.Status(204)
			return
		}

		_ = ProcessRun(c.Request.Context(), engine, payload)
		c.Status(204)
	}
}

// ProcessRun executes one queued reconciliation run: claim the run row, take
// a best-effort per-job lock, drive the engine entry point, write the
// summary. Correctness does not depend on the lock; the ActionLog does the
// real dedup, the lock only avoids wasting API quota on overlapping runs.
func ProcessRun(ctx context.Context, engine *Engine, payload RunPayload) error {
	if payload.RunId == "" || payload.Job == "" {
		return errors.New("invalid run payload")
	}

	db := config.GetDB()
	if db == nil {
		return errors.New("database is not connected")
	}
	db = db.WithContext(ctx)

	var run models.ReconciliationRun
	if err := db.Where("run_id = ?", payload.RunId).Take(&run).Error; err != nil {
		return err
	}
	if run.Status != models.RunStatusQueued {
		// Push retries redeliver; a run already claimed or finished is done.
		return nil
	}

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "paysync:run:"+payload.Job, 10*time.Minute, nil)
		if err != nil {
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil
			}
			return err
		}
		defer func() { _ = lock.Release(context.Background()) }()
	}

	now := time.Now()
	if err := db.Model(&run).Updates(map[string]interface{}{
		"status":     models.RunStatusRunning,
		"started_at": now,
	}).Error; err != nil {
		return err
	}

	ctx = utils.SetRunIdInContext(ctx, payload.RunId)
	ctx = utils.SetTriggerInContext(ctx, payload.TriggeredBy)

	summary := RunJob(ctx, engine, payload.Job)

	finishedAt := time.Now()
	status := models.RunStatusSuccess
	if len(summary.Errors) > 0 && summary.Performed() == 0 {
		status = models.RunStatusFailed
	} else if len(summary.Errors) > 0 {
		status = models.RunStatusPartial
	}

	statsJSON, _ := json.Marshal(summary)
	return db.Model(&run).Updates(map[string]interface{}{
		"status":      status,
		"finished_at": finishedAt,
		"duration_ms": finishedAt.Sub(now).Milliseconds(),
		"total_found": summary.TotalFound,
		"performed":   summary.Performed(),
		"skip_count":  len(summary.Skipped),
		"error_count": len(summary.Errors),
		"stats_json":  statsJSON,
	}).Error
}

// RunJob dispatches a job name to its engine entry point.
func RunJob(ctx context.Context, engine *Engine, job string) *Summary {
	switch job {
	case models.RunJobReminders:
		return engine.ProcessAllReminders(ctx)
	case models.RunJobExpired:
		return engine.ProcessExpiredSessions(ctx)
	default:
		return engine.ProcessAllDeals(ctx)
	}
}
