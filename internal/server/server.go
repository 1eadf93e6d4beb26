// Package server exposes the HTTP surface: the org-scoped /api/v1 routes,
// the unauthenticated /share routes, and the health and metrics endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Cymoe/bill/internal/audit"
	auditdomain "github.com/Cymoe/bill/internal/audit/domain"
	"github.com/Cymoe/bill/internal/client"
	clientdomain "github.com/Cymoe/bill/internal/client/domain"
	"github.com/Cymoe/bill/internal/clock"
	"github.com/Cymoe/bill/internal/config"
	"github.com/Cymoe/bill/internal/costcode"
	costcodedomain "github.com/Cymoe/bill/internal/costcode/domain"
	"github.com/Cymoe/bill/internal/estimate"
	estimatedomain "github.com/Cymoe/bill/internal/estimate/domain"
	"github.com/Cymoe/bill/internal/expense"
	expensedomain "github.com/Cymoe/bill/internal/expense/domain"
	"github.com/Cymoe/bill/internal/invoice"
	invoicedomain "github.com/Cymoe/bill/internal/invoice/domain"
	"github.com/Cymoe/bill/internal/mailer"
	"github.com/Cymoe/bill/internal/numbering"
	"github.com/Cymoe/bill/internal/observability"
	"github.com/Cymoe/bill/internal/organization"
	organizationdomain "github.com/Cymoe/bill/internal/organization/domain"
	"github.com/Cymoe/bill/internal/project"
	projectdomain "github.com/Cymoe/bill/internal/project/domain"
	"github.com/Cymoe/bill/internal/providers/email"
	"github.com/Cymoe/bill/internal/providers/pdf"
	"github.com/Cymoe/bill/internal/publicshare"
	publicsharedomain "github.com/Cymoe/bill/internal/publicshare/domain"
	"github.com/Cymoe/bill/internal/ratelimit"
	"github.com/Cymoe/bill/internal/vendors"
	vendordomain "github.com/Cymoe/bill/internal/vendors/domain"
)

var Module = fx.Module("http.server",
	audit.Module,
	client.Module,
	clock.Module,
	costcode.Module,
	email.Module,
	estimate.Module,
	expense.Module,
	invoice.Module,
	mailer.Module,
	numbering.Module,
	organization.Module,
	pdf.Module,
	project.Module,
	publicshare.Module,
	ratelimit.Module,
	vendors.Module,
	fx.Provide(observability.NewMetrics),
	fx.Provide(observability.NewTracerProvider),
	fx.Provide(NewEngine),
	fx.Invoke(ensureTracerProvider),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

// ensureTracerProvider forces fx to construct the tracer provider; nothing
// injects it directly because instrumentation reads the global set by
// observability.NewTracerProvider.
func ensureTracerProvider(_ *sdktrace.TracerProvider) {}

func NewEngine(cfg config.Config, log *zap.Logger, metrics *observability.Metrics) *gin.Engine {
	if !cfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestContext())
	r.Use(RequestLogger(log, metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	db           *gorm.DB
	genID        *snowflake.Node
	metrics      *observability.Metrics
	shareLimiter *ratelimit.ShareLimiter

	estimateSvc     estimatedomain.Service
	invoiceSvc      invoicedomain.Service
	clientSvc       clientdomain.Service
	organizationSvc organizationdomain.Service
	projectSvc      projectdomain.Service
	vendorSvc       vendordomain.Service
	expenseSvc      expensedomain.Service
	costCodeSvc     costcodedomain.Service
	auditSvc        auditdomain.Service
	publicShareSvc  publicsharedomain.Service
	pdfProvider     pdf.Provider
	clientRepo      clientdomain.Repository
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	DB              *gorm.DB
	GenID           *snowflake.Node
	Metrics         *observability.Metrics
	ShareLimiter    *ratelimit.ShareLimiter
	EstimateSvc     estimatedomain.Service
	InvoiceSvc      invoicedomain.Service
	ClientSvc       clientdomain.Service
	OrganizationSvc organizationdomain.Service
	ProjectSvc      projectdomain.Service
	VendorSvc       vendordomain.Service
	ExpenseSvc      expensedomain.Service
	CostCodeSvc     costcodedomain.Service
	AuditSvc        auditdomain.Service
	PublicShareSvc  publicsharedomain.Service
	PDFProvider     pdf.Provider
	ClientRepo      clientdomain.Repository
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("server"),
		db:              p.DB,
		genID:           p.GenID,
		metrics:         p.Metrics,
		shareLimiter:    p.ShareLimiter,
		estimateSvc:     p.EstimateSvc,
		invoiceSvc:      p.InvoiceSvc,
		clientSvc:       p.ClientSvc,
		organizationSvc: p.OrganizationSvc,
		projectSvc:      p.ProjectSvc,
		vendorSvc:       p.VendorSvc,
		expenseSvc:      p.ExpenseSvc,
		costCodeSvc:     p.CostCodeSvc,
		auditSvc:        p.AuditSvc,
		publicShareSvc:  p.PublicShareSvc,
		pdfProvider:     p.PDFProvider,
		clientRepo:      p.ClientRepo,
	}

	s.registerAPIRoutes()
	s.registerShareRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1", OrgContext())

	estimates := api.Group("/estimates")
	estimates.POST("", s.CreateEstimate)
	estimates.GET("", s.ListEstimates)
	estimates.GET("/:id", s.GetEstimate)
	estimates.PATCH("/:id", s.UpdateEstimate)
	estimates.DELETE("/:id", s.DeleteEstimate)
	estimates.POST("/:id/signature", s.AddEstimateSignature)
	estimates.POST("/:id/convert", s.ConvertEstimate)
	estimates.POST("/:id/send", s.SendEstimate)
	estimates.PUT("/:id/status", s.UpdateEstimateStatus)
	estimates.GET("/:id/pdf", s.DownloadEstimatePDF)

	invoices := api.Group("/invoices")
	invoices.POST("", s.CreateInvoice)
	invoices.GET("", s.ListInvoices)
	invoices.GET("/:id", s.GetInvoice)
	invoices.PATCH("/:id", s.UpdateInvoice)
	invoices.DELETE("/:id", s.DeleteInvoice)
	invoices.POST("/:id/send", s.SendInvoice)
	invoices.POST("/:id/remind", s.SendPaymentReminder)
	invoices.POST("/:id/pay", s.MarkInvoicePaid)
	invoices.PUT("/:id/status", s.UpdateInvoiceStatus)
	invoices.GET("/:id/pdf", s.DownloadInvoicePDF)

	clients := api.Group("/clients")
	clients.POST("", s.CreateClient)
	clients.GET("", s.ListClients)
	clients.GET("/:id", s.GetClient)
	clients.PATCH("/:id", s.UpdateClient)
	clients.DELETE("/:id", s.DeleteClient)

	projects := api.Group("/projects")
	projects.POST("", s.CreateProject)
	projects.GET("", s.ListProjects)
	projects.GET("/:id", s.GetProject)
	projects.PATCH("/:id", s.UpdateProject)
	projects.DELETE("/:id", s.DeleteProject)

	vendors := api.Group("/vendors")
	vendors.POST("", s.CreateVendor)
	vendors.GET("", s.ListVendors)
	vendors.GET("/:id", s.GetVendor)
	vendors.PATCH("/:id", s.UpdateVendor)
	vendors.DELETE("/:id", s.DeleteVendor)

	expenses := api.Group("/expenses")
	expenses.POST("", s.CreateExpense)
	expenses.GET("", s.ListExpenses)
	expenses.GET("/:id", s.GetExpense)
	expenses.PATCH("/:id", s.UpdateExpense)
	expenses.DELETE("/:id", s.DeleteExpense)

	costCodes := api.Group("/cost-codes")
	costCodes.POST("", s.CreateCostCode)
	costCodes.GET("", s.ListCostCodes)
	costCodes.GET("/:id", s.GetCostCode)
	costCodes.PATCH("/:id", s.UpdateCostCode)
	costCodes.DELETE("/:id", s.DeleteCostCode)

	api.GET("/organization", s.GetOrganization)
	api.PATCH("/organization/settings", s.UpdateOrganizationSettings)

	api.GET("/activity", s.ListActivity)

	s.engine.POST("/api/v1/organizations", s.CreateOrganization)
}

func (s *Server) registerShareRoutes() {
	share := s.engine.Group("/share", s.ShareRateLimit())
	share.GET("/estimates/:token", s.GetSharedEstimate)
	share.GET("/invoices/:token", s.GetSharedInvoice)
}
