package sheetsync

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/config"
	"github.com/KajanthanDigitWeb/summery-Dash/models"
	"github.com/KajanthanDigitWeb/summery-Dash/utils"
	"github.com/gin-gonic/gin"
)

type HandlerOptions struct {
	MaxUploadBytes     int64
	RefreshTopic       string
	CreateRefreshTopic bool
	EnablePushEndpoint bool
}

// RegisterRoutes mounts the data source API on rg (normally /api/sources).
func RegisterRoutes(rg *gin.RouterGroup, syncer *Syncer, opts HandlerOptions) {
	rg.GET("/status", StatusHandler(syncer))
	rg.POST("/sheets/connect", ConnectHandler(syncer))
	rg.POST("/sheets/disconnect", DisconnectHandler(syncer))
	rg.POST("/sheets/refresh", RefreshHandler(syncer, opts))
	rg.POST("/sheets/pubsub/push", PubSubPushHandler(syncer, opts.EnablePushEndpoint))
	rg.POST("/upload", UploadHandler(syncer, opts))
	rg.POST("/mock", DisconnectHandler(syncer))
	rg.GET("/load-runs", LoadRunsHandler(syncer))
}

func StatusHandler(syncer *Syncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := syncer.ActiveRequest()
		resp := StatusResponse{
			Source: syncer.Session().Status(),
			Connection: ConnectionResponse{
				SpreadsheetId: req.Current.SpreadsheetId,
				Range:         req.Current.Range,
				HasAPIKey:     strings.TrimSpace(syncer.withAPIKey(req.Current).APIKey) != "",
			},
		}
		if req.PriorYear != nil {
			resp.Connection.PriorYearSpreadsheetId = req.PriorYear.SpreadsheetId
			resp.Connection.PriorYearRange = req.PriorYear.Range
		}

		conn, err := syncer.Store().GetConnection(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if conn != nil {
			resp.LastLoadAt = formatTime(conn.LastLoadAt)
			resp.LastSuccessLoadAt = formatTime(conn.LastSuccessLoadAt)
		}
		c.JSON(http.StatusOK, resp)
	}
}

func ConnectHandler(syncer *Syncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ConnectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := utils.ValidateStruct(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "spreadsheetId is required", "fields": utils.ProcessValidationErrors(err)})
			return
		}

		loadReq := syncer.RequestFromConnect(req)
		outcome, err := syncer.Connect(c.Request.Context(), loadReq, models.LoadTriggeredManual)
		if err != nil {
			writeLoadError(c, syncer, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"records":          outcome.RecordsLoaded,
			"priorYearRecords": outcome.PriorYearRecords,
			"source":           syncer.Session().Status(),
		})
	}
}

func DisconnectHandler(syncer *Syncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		syncer.Disconnect(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"source": syncer.Session().Status()})
	}
}

// RefreshHandler reloads inline, or publishes to the refresh topic with ?async=true.
func RefreshHandler(syncer *Syncer, opts HandlerOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if async, _ := strconv.ParseBool(c.Query("async")); async && opts.RefreshTopic != "" {
			msgID, err := PublishRefresh(ctx, opts.RefreshTopic, opts.CreateRefreshTopic)
			if err != nil {
				config.LogError(config.GetLogger(), "sheetsync", "RefreshHandler", "Error publishing refresh", opts.RefreshTopic, err)
				c.JSON(http.StatusBadGateway, gin.H{"error": "failed to queue refresh"})
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"messageId": msgID})
			return
		}

		release, ok := utils.ObtainLock(ctx, refreshLockKey, 2*time.Minute, "sheetsync", "RefreshHandler")
		if !ok {
			c.JSON(http.StatusConflict, gin.H{"error": "refresh already running"})
			return
		}
		defer release()

		outcome, err := syncer.Refresh(ctx, models.LoadTriggeredManual)
		if err != nil {
			writeLoadError(c, syncer, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"records":          outcome.RecordsLoaded,
			"priorYearRecords": outcome.PriorYearRecords,
			"source":           syncer.Session().Status(),
		})
	}
}

func UploadHandler(syncer *Syncer, opts HandlerOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.MaxUploadBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, opts.MaxUploadBytes)
		}
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		outcome, err := syncer.LoadUpload(c.Request.Context(), fh.Filename, data, models.LoadTriggeredManual)
		if err != nil {
			writeLoadError(c, syncer, err)
			return
		}
		c.JSON(http.StatusOK, UploadResponse{Records: outcome.RecordsLoaded, Source: syncer.Session().Status()})
	}
}

func LoadRunsHandler(syncer *Syncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		runs, err := syncer.Store().ListLoadRuns(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make([]LoadRunResponse, 0, len(runs))
		for _, r := range runs {
			out = append(out, LoadRunResponse{
				ID:               r.ID,
				Source:           r.Source,
				Status:           r.Status,
				TriggeredBy:      r.TriggeredBy,
				RowsRead:         r.RowsRead,
				RecordsLoaded:    r.RecordsLoaded,
				PriorYearRecords: r.PriorYearRecords,
				ErrorMessage:     r.ErrorMessage,
				StartedAt:        formatTime(r.StartedAt),
				FinishedAt:       formatTime(r.FinishedAt),
				DurationMs:       r.DurationMs,
			})
		}
		c.JSON(http.StatusOK, gin.H{"runs": out})
	}
}

func writeLoadError(c *gin.Context, syncer *Syncer, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, utils.ErrMissingAPIKey), errors.Is(err, utils.ErrSourceNotSet):
		status = http.StatusBadRequest
	case errors.Is(err, utils.ErrEmptyBatch), errors.Is(err, utils.ErrMalformedBatch):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, utils.ErrStaleLoad):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error(), "source": syncer.Session().Status()})
}
