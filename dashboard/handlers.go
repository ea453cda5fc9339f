package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/KajanthanDigitWeb/summery-Dash/models"
	"github.com/KajanthanDigitWeb/summery-Dash/models/reports"
	"github.com/KajanthanDigitWeb/summery-Dash/utils"
	"github.com/gin-gonic/gin"
)

type DateRangeRequest struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
	End   string `json:"end" validate:"required,datetime=2006-01-02"`
}

type AutoRotateRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// RegisterRoutes mounts the dashboard API on rg (normally /api/dashboard).
func RegisterRoutes(rg *gin.RouterGroup, s *Session) {
	rg.GET("", ViewHandler(s))
	rg.GET("/accounts", AccountsHandler(s))
	rg.POST("/date-range", DateRangeHandler(s))
	rg.POST("/rotation/next", RotationStepHandler(s.Next))
	rg.POST("/rotation/prev", RotationStepHandler(s.Prev))
	rg.POST("/rotation/advance", RotationStepHandler(s.Advance))
	rg.POST("/rotation/auto", AutoRotateHandler(s))
	rg.POST("/rotation/account/:index", SelectAccountHandler(s))
	rg.POST("/rotation/mode/:mode", SelectModeHandler(s))
	rg.GET("/export.xlsx", ExportExcelHandler(s))
	rg.GET("/export.csv", ExportCSVHandler(s))
}

func ViewHandler(s *Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.View(c.Request.Context()))
	}
}

func AccountsHandler(s *Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		view := s.View(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"dateRange": view.DateRange,
			"accounts":  view.Accounts,
		})
	}
}

func DateRangeHandler(s *Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DateRangeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := utils.ValidateStruct(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date range", "fields": utils.ProcessValidationErrors(err)})
			return
		}
		rng, err := s.SetDateRange(models.DateRange{Start: req.Start, End: req.End})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"dateRange": rng})
	}
}

func RotationStepHandler[T any](step func() T) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rotation": step()})
	}
}

func AutoRotateHandler(s *Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AutoRotateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := utils.ValidateStruct(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "enabled is required", "fields": utils.ProcessValidationErrors(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rotation": s.SetAutoRotate(*req.Enabled)})
	}
}

func SelectAccountHandler(s *Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
			return
		}
		state, err := s.SelectAccount(index)
		if errors.Is(err, utils.ErrAccountOutOfRange) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rotation": state})
	}
}

func SelectModeHandler(s *Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		g, err := models.ParseGranularity(c.Param("mode"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ErrUnknownMode.Error()})
			return
		}
		state, err := s.SelectMode(g)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rotation": state})
	}
}

func exportFilename(rng models.DateRange, ext string) string {
	return fmt.Sprintf("sales-summary_%s_%s.%s", strings.ReplaceAll(rng.Start, "-", ""), strings.ReplaceAll(rng.End, "-", ""), ext)
}

func ExportExcelHandler(s *Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		view := s.View(c.Request.Context())
		report := reports.ExcelReport{Range: view.DateRange, Summaries: view.Accounts, Overview: &view.Overview}

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+exportFilename(view.DateRange, "xlsx"))
		if err := reports.WriteExcel(c.Writer, report); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write file"})
		}
	}
}

func ExportCSVHandler(s *Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		view := s.View(c.Request.Context())
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename="+exportFilename(view.DateRange, "csv"))
		if err := reports.WriteSummariesCSV(c.Writer, view.Accounts); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write file"})
		}
	}
}
