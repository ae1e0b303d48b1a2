package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/models"
	"github.com/rgreyesph/paspro/utils"
	"github.com/rgreyesph/paspro/workflow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// httpStatusFor maps workflow errors onto response codes. Authorization
// failures are 403 rather than 401: the actor is known, just not allowed.
func httpStatusFor(err error) int {
	switch {
	case err == utils.ErrorRecordNotFound:
		return http.StatusNotFound
	case utils.IsAuthorization(err):
		return http.StatusForbidden
	case utils.IsValidation(err), utils.IsLimitExceeded(err):
		return http.StatusBadRequest
	case utils.IsPolicy(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(httpStatusFor(err), gin.H{"error": err.Error()})
}

type batchDocumentRequest struct {
	Documents []workflow.DocumentRef `json:"documents"`
}

func submitDocumentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req batchDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Documents) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "documents are required"})
			return
		}
		c.JSON(http.StatusOK, workflow.SubmitDocuments(c.Request.Context(), req.Documents))
	}
}

func approveDocumentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req batchDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Documents) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "documents are required"})
			return
		}
		c.JSON(http.StatusOK, workflow.ApproveDocuments(c.Request.Context(), req.Documents))
	}
}

func rejectDocumentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req batchDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Documents) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "documents are required"})
			return
		}
		c.JSON(http.StatusOK, workflow.RejectDocuments(c.Request.Context(), req.Documents))
	}
}

type recalculateRequest struct {
	Type models.DocumentType `json:"type"`
	ID   string              `json:"id"`
}

func recalculateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req recalculateRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type and id are required"})
			return
		}
		totals, err := workflow.RecalculateTotals(c.Request.Context(), req.Type, req.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, totals)
	}
}

type paymentLinkRequest struct {
	PaymentID  string `json:"payment_id"`
	DocumentID string `json:"document_id"`
}

func paymentLinkHandler(link func(ctx context.Context, paymentID, documentID string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req paymentLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.PaymentID == "" || req.DocumentID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment_id and document_id are required"})
			return
		}
		if err := link(c.Request.Context(), req.PaymentID, req.DocumentID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type reconcileRequest struct {
	Type models.DocumentType `json:"type"`
	ID   string              `json:"id"`
}

func reconcileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reconcileRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type and id are required"})
			return
		}
		var (
			result *workflow.ReconcileResult
			err    error
		)
		switch req.Type {
		case models.DocumentTypeBill:
			result, err = workflow.ReconcileBill(c.Request.Context(), req.ID)
		case models.DocumentTypeSalesInvoice:
			result, err = workflow.ReconcileInvoice(c.Request.Context(), req.ID)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported document type"})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		if result == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

type stockDeltaRequest struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Delta       decimal.Decimal `json:"delta"`
}

func stockDeltaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req stockDeltaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		level, err := models.ApplyStockDelta(c.Request.Context(), config.GetDB(), req.ProductID, req.WarehouseID, req.Delta)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, level)
	}
}

func invoiceTransitionHandler(transition func(ctx context.Context, invoiceID string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := transition(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Writer.Header().Set("x-correlation-id", cid)
		c.Next()
	})
	// Acting user propagation. Upstream authentication terminates at the
	// gateway; this service trusts the forwarded identity header.
	r.Use(func(c *gin.Context) {
		if actor := c.GetHeader("x-actor-id"); actor != "" {
			c.Request = c.Request.WithContext(utils.SetUserIdInContext(c.Request.Context(), actor))
		}
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "x-actor-id", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	v1 := r.Group("/v1")
	v1.POST("/documents/submit", submitDocumentsHandler())
	v1.POST("/documents/approve", approveDocumentsHandler())
	v1.POST("/documents/reject", rejectDocumentsHandler())
	v1.POST("/documents/recalculate", recalculateHandler())
	v1.POST("/payments/made/link", paymentLinkHandler(workflow.LinkPaymentToBill))
	v1.POST("/payments/made/unlink", paymentLinkHandler(workflow.UnlinkPaymentFromBill))
	v1.POST("/payments/received/link", paymentLinkHandler(workflow.LinkPaymentToInvoice))
	v1.POST("/payments/received/unlink", paymentLinkHandler(workflow.UnlinkPaymentFromInvoice))
	v1.POST("/documents/reconcile", reconcileHandler())
	v1.POST("/invoices/:id/send", invoiceTransitionHandler(workflow.MarkInvoiceSent))
	v1.POST("/invoices/:id/ship", invoiceTransitionHandler(workflow.MarkInvoiceShipped))
	v1.POST("/stock/apply-delta", stockDeltaHandler())
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedis()

	db := config.GetDB()
	sqlDB, err := db.DB()
	utils.ErrorPanic(err)
	defer func() {
		_ = sqlDB.Close()
	}()
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on port ", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger logs only requests that attached errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
