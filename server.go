package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/fleetfocus/rentals_backend/config"
	"github.com/fleetfocus/rentals_backend/models"
	"github.com/fleetfocus/rentals_backend/models/reports"
	"github.com/fleetfocus/rentals_backend/utils"
	"github.com/fleetfocus/rentals_backend/workflow"
)

const defaultPort = "8080"

var tracer = otel.Tracer("rentals-backend")

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type errorBody struct {
	Error string `json:"error"`
}

// respondError maps the error taxonomy onto HTTP statuses. A failed report
// query is never disguised as an empty report.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrInvalidDateRange):
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, utils.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, utils.ErrInvalidStatusTransition):
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{Error: msg})
}

// requiredDate parses a required YYYY-MM-DD query param. ok=false means a 400
// was already written.
func requiredDate(c *gin.Context, name string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		badRequest(c, name+" is required (YYYY-MM-DD)")
		return time.Time{}, false
	}
	parsed, err := models.ParseDateString(raw)
	if err != nil {
		badRequest(c, name+" must be a valid YYYY-MM-DD date")
		return time.Time{}, false
	}
	return parsed.Time(), true
}

func optionalInt(c *gin.Context, name string) (*int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		badRequest(c, name+" must be a positive integer")
		return nil, false
	}
	return &n, true
}

func optionalString(c *gin.Context, name string) *string {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	return &raw
}

// fingerprintParams builds the canonical filter encoding from parsed values,
// so defaulted and explicit forms of the same filter collide to one key.
// Empty values are dropped.
func fingerprintParams(kv ...string) map[string]string {
	params := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			params[kv[i]] = kv[i+1]
		}
	}
	return params
}

func intOrEmpty(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func dateParam(t time.Time) string {
	return models.NewDateString(t).String()
}

func revenueReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "reports.revenue")
		defer span.End()

		dateFrom, ok := requiredDate(c, "dateFrom")
		if !ok {
			return
		}
		dateTo, ok := requiredDate(c, "dateTo")
		if !ok {
			return
		}
		groupBy := c.DefaultQuery("groupBy", string(reports.GranularityDay))
		granularity, err := reports.ParseGranularity(groupBy)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		branchId, ok := optionalInt(c, "branchId")
		if !ok {
			return
		}
		filter := reports.RevenueFilter{
			BranchId:        branchId,
			VehicleCategory: optionalString(c, "vehicleCategory"),
			CustomerType:    optionalString(c, "customerType"),
		}

		fp := reports.Fingerprint(reports.FamilyRevenue, fingerprintParams(
			"dateFrom", dateParam(dateFrom),
			"dateTo", dateParam(dateTo),
			"groupBy", string(granularity),
			"branchId", intOrEmpty(branchId),
			"vehicleCategory", utils.DereferencePtr(filter.VehicleCategory, ""),
			"customerType", utils.DereferencePtr(filter.CustomerType, "")))
		report, err := reports.GetOrCompute(ctx, reports.DefaultCache(), fp, reports.ReportCacheTTL(),
			func(ctx context.Context) (*reports.RevenueReportResponse, error) {
				return reports.GetRevenueReport(ctx, dateFrom, dateTo, granularity, filter)
			})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func pnlReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "reports.pnl")
		defer span.End()

		dateFrom, ok := requiredDate(c, "dateFrom")
		if !ok {
			return
		}
		dateTo, ok := requiredDate(c, "dateTo")
		if !ok {
			return
		}
		periodType, err := reports.ParseGranularity(c.DefaultQuery("periodType", string(reports.GranularityMonth)))
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		compareWith, err := reports.ParseCompareMode(c.Query("compareWith"))
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		branchId, ok := optionalInt(c, "branchId")
		if !ok {
			return
		}

		compareParam := string(compareWith)
		if compareWith == reports.CompareNone {
			compareParam = ""
		}
		fp := reports.Fingerprint(reports.FamilyPnl, fingerprintParams(
			"dateFrom", dateParam(dateFrom),
			"dateTo", dateParam(dateTo),
			"periodType", string(periodType),
			"branchId", intOrEmpty(branchId),
			"compareWith", compareParam))
		report, err := reports.GetOrCompute(ctx, reports.DefaultCache(), fp, reports.ReportCacheTTL(),
			func(ctx context.Context) (*reports.PnlReportResponse, error) {
				return reports.GetProfitAndLossReport(ctx, dateFrom, dateTo, periodType, branchId, compareWith)
			})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func arAgingReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "reports.ar")
		defer span.End()

		dateAsOf, ok := requiredDate(c, "dateAsOf")
		if !ok {
			return
		}

		fp := reports.Fingerprint(reports.FamilyReceivables, fingerprintParams(
			"dateAsOf", dateParam(dateAsOf)))
		report, err := reports.GetOrCompute(ctx, reports.DefaultCache(), fp, reports.ReportCacheTTL(),
			func(ctx context.Context) (*reports.ArAgingResponse, error) {
				return reports.GetArAgingReport(ctx, dateAsOf)
			})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func investorsReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "reports.investors")
		defer span.End()

		dateFrom, ok := requiredDate(c, "dateFrom")
		if !ok {
			return
		}
		dateTo, ok := requiredDate(c, "dateTo")
		if !ok {
			return
		}
		rawPercent := strings.TrimSpace(c.Query("commissionPercent"))
		if rawPercent == "" {
			badRequest(c, "commissionPercent is required")
			return
		}
		commissionPercent, err := decimal.NewFromString(rawPercent)
		if err != nil || commissionPercent.IsNegative() || commissionPercent.GreaterThan(decimal.NewFromInt(100)) {
			badRequest(c, "commissionPercent must be a number in [0, 100]")
			return
		}

		fp := reports.Fingerprint(reports.FamilyInvestors, fingerprintParams(
			"dateFrom", dateParam(dateFrom),
			"dateTo", dateParam(dateTo),
			"commissionPercent", commissionPercent.String()))
		report, err := reports.GetOrCompute(ctx, reports.DefaultCache(), fp, reports.ReportCacheTTL(),
			func(ctx context.Context) (*reports.InvestorsReportResponse, error) {
				return reports.GetInvestorsReport(ctx, dateFrom, dateTo, commissionPercent)
			})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func utilizationReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "reports.utilization")
		defer span.End()

		dateFrom, ok := requiredDate(c, "dateFrom")
		if !ok {
			return
		}
		dateTo, ok := requiredDate(c, "dateTo")
		if !ok {
			return
		}
		branchId, ok := optionalInt(c, "branchId")
		if !ok {
			return
		}
		filter := reports.UtilizationFilter{
			BranchId:        branchId,
			VehicleCategory: optionalString(c, "vehicleCategory"),
		}

		fp := reports.Fingerprint(reports.FamilyUtilization, fingerprintParams(
			"dateFrom", dateParam(dateFrom),
			"dateTo", dateParam(dateTo),
			"branchId", intOrEmpty(branchId),
			"vehicleCategory", utils.DereferencePtr(filter.VehicleCategory, "")))
		report, err := reports.GetOrCompute(ctx, reports.DefaultCache(), fp, reports.ReportCacheTTL(),
			func(ctx context.Context) (*reports.UtilizationResponse, error) {
				return reports.GetUtilizationReport(ctx, dateFrom, dateTo, filter)
			})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func payoutPreviewHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "reports.payout_preview")
		defer span.End()

		rawInvestor := strings.TrimSpace(c.Query("investorId"))
		investorId, err := strconv.Atoi(rawInvestor)
		if err != nil || investorId <= 0 {
			badRequest(c, "investorId must be a positive integer")
			return
		}
		periodFrom, ok := requiredDate(c, "periodFrom")
		if !ok {
			return
		}
		periodTo, ok := requiredDate(c, "periodTo")
		if !ok {
			return
		}
		branchId, ok := optionalInt(c, "branchId")
		if !ok {
			return
		}

		fp := reports.Fingerprint(reports.FamilyInvestors, fingerprintParams(
			"investorId", strconv.Itoa(investorId),
			"periodFrom", dateParam(periodFrom),
			"periodTo", dateParam(periodTo),
			"branchId", intOrEmpty(branchId)))
		preview, err := reports.GetOrCompute(ctx, reports.DefaultCache(), fp, reports.ReportCacheTTL(),
			func(ctx context.Context) (*reports.InvestorPayoutPreview, error) {
				return reports.GetInvestorPayoutPreview(ctx, investorId, periodFrom, periodTo, branchId)
			})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, preview)
	}
}

func createPayoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "workflow.create_payout")
		defer span.End()

		var input workflow.NewInvestorPayout
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err.Error())
			return
		}
		payout, err := workflow.CreateInvestorPayout(ctx, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, payout)
	}
}

func changePayoutStatusHandler() gin.HandlerFunc {
	type statusInput struct {
		Status models.PayoutStatus `json:"status" binding:"required"`
	}
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "workflow.change_payout_status")
		defer span.End()

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			badRequest(c, "id must be a positive integer")
			return
		}
		var input statusInput
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err.Error())
			return
		}
		payout, err := workflow.ChangeInvestorPayoutStatus(ctx, id, input.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payout)
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Monetary fields serialize as plain 2-decimal numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	// Payout creation only accepts the two initial lifecycle statuses.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("payoutinitialstatus", func(fl validator.FieldLevel) bool {
			s := models.PayoutStatus(fl.Field().String())
			return s == models.PayoutStatusDraft || s == models.PayoutStatusPending
		})
	}

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until the DB is ready, app endpoints return 503.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate app endpoints on DB readiness. Redis is optional: the report
		// cache degrades to pass-through without it.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/reports/revenue", revenueReportHandler())
	r.GET("/reports/pnl", pnlReportHandler())
	r.GET("/reports/ar", arAgingReportHandler())
	r.GET("/reports/investors", investorsReportHandler())
	r.GET("/reports/utilization", utilizationReportHandler())
	r.GET("/investor-payouts/preview", payoutPreviewHandler())
	r.POST("/investor-payouts", createPayoutHandler())
	r.POST("/investor-payouts/:id/status", changePayoutStatusHandler())

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateAll()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Seed well-known expense categories once per process start.
	if err := models.EnsureDefaultExpenseCategories(context.Background()); err != nil {
		logger.WithFields(logrus.Fields{"field": "seed"}).Error("failed to seed expense categories: " + err.Error())
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
