package paysync

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sigayyury-ai/crmtowfirma-sub012/config"
	"github.com/sigayyury-ai/crmtowfirma-sub012/models"
	"github.com/sigayyury-ai/crmtowfirma-sub012/utils"
)

func validJob(job string) bool {
	switch job {
	case models.RunJobDeals, models.RunJobReminders, models.RunJobExpired:
		return true
	}
	return false
}

// TriggerHandler queues a reconciliation run for the given job. The run is
// normally handed to Pub/Sub; PAYSYNC_DIRECT_RUN=true executes it in-process
// instead, for environments without a push subscription.
func TriggerHandler(engine *Engine, job string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !validJob(job) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown job"})
			return
		}

		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database is not connected"})
			return
		}

		run := models.ReconciliationRun{
			RunId:       uuid.New().String(),
			Job:         job,
			Status:      models.RunStatusQueued,
			TriggeredBy: models.TriggerManual,
		}
		if err := db.WithContext(c.Request.Context()).Create(&run).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		payload := RunPayload{RunId: run.RunId, Job: job, TriggeredBy: models.TriggerManual}

		if utils.BoolFromEnv("PAYSYNC_DIRECT_RUN", false) {
			go func() {
				runCtx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
				defer cancel()
				if err := ProcessRun(runCtx, engine, payload); err != nil {
					config.LogError(config.GetLogger(), moduleName, "TriggerHandler", "direct run "+run.RunId, payload, err)
				}
			}()
		} else {
			if err := PublishRun(c.Request.Context(), payload); err != nil {
				config.LogError(config.GetLogger(), moduleName, "TriggerHandler", "publish run "+run.RunId, payload, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue run"})
				return
			}
		}

		c.JSON(http.StatusAccepted, gin.H{"success": true, "run_id": run.RunId, "status": run.Status})
	}
}

// RunHistoryHandler lists recent reconciliation runs, newest first.
func RunHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database is not connected"})
			return
		}

		limit := 20
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		query := db.WithContext(c.Request.Context()).Order("created_at DESC").Limit(limit)
		if job := c.Query("job"); job != "" {
			if !validJob(job) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown job"})
				return
			}
			query = query.Where("job = ?", job)
		}

		var runs []models.ReconciliationRun
		if err := query.Find(&runs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "runs": runs})
	}
}

// RunStatusHandler returns one run by its public run id.
func RunStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		db := config.GetDB()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database is not connected"})
			return
		}

		var run models.ReconciliationRun
		err := db.WithContext(c.Request.Context()).
			Where("run_id = ?", c.Param("runId")).
			Take(&run).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "run": run})
	}
}
