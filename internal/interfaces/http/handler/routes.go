package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/notification"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/middleware"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/router"
)

// Handlers bundles every API handler. Nil handlers are skipped when
// routes are built.
type Handlers struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Grants    *GrantHandler
	Tickets   *TicketHandler
	Watch     *WatchHandler
	Comments  *CommentHandler
	Media     *MediaHandler
	Documents *DocumentHandler
	Expenses  *ExpenseHandler
	Payments  *PaymentHandler
	Reports   *ReportHandler
	Export    *ExportHandler
	Import    *ImportHandler
	Mediawiki *MediawikiHandler
	Health    *HealthHandler

	// AuthLimiter throttles login and registration per client when set
	AuthLimiter *middleware.RateLimiter
}

// DomainGroups builds the route groups served under /api/v1. Object level
// permissions are checked by the services; the groups only turn anonymous
// writes away early.
func (hs *Handlers) DomainGroups() []*router.DomainGroup {
	var groups []*router.DomainGroup
	add := func(g *router.DomainGroup) { groups = append(groups, g) }

	if hs.Auth != nil {
		g := router.NewDomainGroup("auth", "/auth")
		if hs.AuthLimiter != nil {
			limit := middleware.AuthRateLimit(hs.AuthLimiter)
			g.POST("/login", limit, hs.Auth.Login)
			g.POST("/register", limit, hs.Auth.Register)
		} else {
			g.POST("/login", hs.Auth.Login)
			g.POST("/register", hs.Auth.Register)
		}
		g.POST("/refresh", hs.Auth.RefreshToken)
		g.POST("/logout", middleware.RequireAuth(), hs.Auth.Logout)
		g.POST("/logout-all", middleware.RequireAuth(), hs.Auth.LogoutAll)
		add(g)
	}

	if hs.Users != nil {
		g := router.NewDomainGroup("users", "/users")
		g.GET("", hs.Users.List)
		g.GET("/me", middleware.RequireAuth(), hs.Users.Me)
		g.POST("/me/deactivate", middleware.RequireAuth(), hs.Users.Deactivate)
		g.GET("/by-username/:username", hs.Users.GetByUsername)
		g.GET("/:id", hs.Users.Get)
		if hs.Reports != nil {
			g.GET("/summary", hs.Reports.UserSummary)
		}
		add(g)

		profiles := router.NewDomainGroup("trackerprofile", "/trackerprofile").Use(middleware.RequireAuth())
		profiles.GET("/me", hs.Users.GetMyProfile)
		profiles.PUT("/me", hs.Users.UpdateMyProfile)
		profiles.GET("/:id", hs.Users.GetProfile)
		profiles.PUT("/:id", hs.Users.UpdateProfile)
		add(profiles)

		prefs := router.NewDomainGroup("trackerpreferences", "/trackerpreferences").Use(middleware.RequireAuth())
		prefs.GET("", hs.Users.GetPreferences)
		prefs.PUT("", hs.Users.UpdatePreferences)
		add(prefs)

		languages := router.NewDomainGroup("languages", "/languages")
		languages.GET("", hs.Users.Languages)
		add(languages)
	}

	if hs.Grants != nil {
		grants := router.NewDomainGroup("grants", "/grants").Use(middleware.AuthenticatedOrReadOnly())
		grants.GET("", hs.Grants.ListGrants)
		grants.POST("", hs.Grants.CreateGrant)
		grants.GET("/by-slug/:slug", hs.Grants.GetGrantBySlug)
		grants.GET("/:id", hs.Grants.GetGrant)
		grants.PUT("/:id", hs.Grants.UpdateGrant)
		grants.DELETE("/:id", hs.Grants.DeleteGrant)
		hs.watchRoutes(grants, notification.WatchGrant)
		add(grants)

		topics := router.NewDomainGroup("topics", "/topics").Use(middleware.AuthenticatedOrReadOnly())
		topics.GET("", hs.Grants.ListTopics)
		topics.POST("", hs.Grants.CreateTopic)
		topics.GET("/:id", hs.Grants.GetTopic)
		topics.PUT("/:id", hs.Grants.UpdateTopic)
		topics.DELETE("/:id", hs.Grants.DeleteTopic)
		hs.watchRoutes(topics, notification.WatchTopic)
		add(topics)

		subtopics := router.NewDomainGroup("subtopics", "/subtopics").Use(middleware.AuthenticatedOrReadOnly())
		subtopics.GET("", hs.Grants.ListSubtopics)
		subtopics.POST("", hs.Grants.CreateSubtopic)
		subtopics.GET("/:id", hs.Grants.GetSubtopic)
		subtopics.PUT("/:id", hs.Grants.UpdateSubtopic)
		subtopics.DELETE("/:id", hs.Grants.DeleteSubtopic)
		add(subtopics)

		finance := router.NewDomainGroup("finance", "/finance").Use(middleware.ReadOnly())
		finance.GET("", hs.Grants.Finance)
		add(finance)
	}

	if hs.Tickets != nil {
		tickets := router.NewDomainGroup("tickets", "/tickets").Use(middleware.AuthenticatedOrReadOnly())
		tickets.GET("", hs.Tickets.List)
		tickets.POST("", hs.Tickets.Create)
		tickets.GET("/json/:lang", hs.Tickets.Rows)
		tickets.GET("/:id", hs.Tickets.Get)
		tickets.PATCH("/:id", hs.Tickets.Update)
		tickets.PUT("/:id", hs.Tickets.Update)
		tickets.DELETE("/:id", hs.Tickets.Delete)
		tickets.POST("/:id/acks", hs.Tickets.AddAck)
		tickets.DELETE("/:id/acks/:ack_id", hs.Tickets.RemoveAck)
		tickets.POST("/:id/copy-preexpeditures", hs.Tickets.CopyPreexpeditures)
		tickets.GET("/:id/sign", middleware.RequireAuth(), hs.Tickets.SignState)
		tickets.POST("/:id/sign", hs.Tickets.Sign)
		tickets.GET("/:id/signatures", hs.Tickets.Signatures)
		hs.watchRoutes(tickets, notification.WatchTicket)
		if hs.Comments != nil {
			tickets.GET("/:id/comments", hs.Comments.List)
			tickets.POST("/:id/comments", hs.Comments.Create)
		}
		if hs.Media != nil {
			tickets.GET("/:id/media", hs.Media.List)
			tickets.GET("/:id/media/summary", hs.Media.Summary)
			tickets.POST("/:id/media/refresh", hs.Media.Refresh)
		}
		if hs.Documents != nil {
			docs := middleware.RequireAuth()
			tickets.GET("/:id/documents", docs, hs.Documents.List)
			tickets.POST("/:id/documents", hs.Documents.Upload)
			tickets.GET("/:id/documents/:filename", docs, hs.Documents.Download)
		}
		add(tickets)
	}

	if hs.Documents != nil {
		docs := router.NewDomainGroup("documents", "/documents").Use(middleware.RequireAuth())
		docs.PATCH("/:id", hs.Documents.Update)
		docs.DELETE("/:id", hs.Documents.Delete)
		add(docs)
	}

	if hs.Media != nil {
		media := router.NewDomainGroup("mediainfo", "/mediainfo").Use(middleware.AuthenticatedOrReadOnly())
		media.POST("", hs.Media.CreateBulk)
		media.GET("/:id", hs.Media.Get)
		media.DELETE("/:id", hs.Media.Delete)
		add(media)
	}

	if hs.Expenses != nil {
		expeditures := router.NewDomainGroup("expeditures", "/expeditures").Use(middleware.AuthenticatedOrReadOnly())
		expeditures.GET("", hs.Expenses.ListExpeditures)
		expeditures.POST("", hs.Expenses.CreateExpediture)
		expeditures.GET("/:id", hs.Expenses.GetExpediture)
		expeditures.PATCH("/:id", hs.Expenses.UpdateExpediture)
		expeditures.DELETE("/:id", hs.Expenses.DeleteExpediture)
		add(expeditures)

		preexpeditures := router.NewDomainGroup("preexpeditures", "/preexpeditures").Use(middleware.AuthenticatedOrReadOnly())
		preexpeditures.GET("", hs.Expenses.ListPreexpeditures)
		preexpeditures.POST("", hs.Expenses.CreatePreexpediture)
		preexpeditures.GET("/:id", hs.Expenses.GetPreexpediture)
		preexpeditures.PATCH("/:id", hs.Expenses.UpdatePreexpediture)
		preexpeditures.DELETE("/:id", hs.Expenses.DeletePreexpediture)
		add(preexpeditures)
	}

	if hs.Payments != nil {
		transactions := router.NewDomainGroup("transactions", "/transactions").Use(middleware.ReadOnly())
		transactions.GET("", hs.Payments.ListTransactions)
		transactions.GET("/csv", hs.Payments.TransactionsCSV)
		add(transactions)

		clusters := router.NewDomainGroup("clusters", "/clusters").Use(middleware.ReadOnly())
		clusters.GET("/:id", hs.Payments.GetCluster)
		add(clusters)
	}

	if hs.Reports != nil {
		acks := router.NewDomainGroup("acks-per-user", "/acks-per-user").Use(middleware.ReadOnly())
		acks.GET("", hs.Reports.AcksPerUser)
		acks.GET("/csv", hs.Reports.AcksPerUserCSV)
		add(acks)
	}

	if hs.Export != nil {
		export := router.NewDomainGroup("export", "/export").Use(middleware.RequireAuth())
		export.POST("", hs.Export.Export)
		add(export)
	}

	if hs.Import != nil {
		imports := router.NewDomainGroup("import", "/import").Use(middleware.RequireAuth())
		imports.GET("", hs.Import.Types)
		imports.POST("/:type", hs.Import.Import)
		imports.GET("/:type/example", hs.Import.Example)
		add(imports)
	}

	if hs.Mediawiki != nil {
		wiki := router.NewDomainGroup("mediawiki", "/mediawiki")
		wiki.GET("", hs.Mediawiki.Proxy)
		wiki.POST("", hs.Mediawiki.Proxy)
		add(wiki)
	}

	if hs.Health != nil {
		health := router.NewDomainGroup("health", "/health")
		health.GET("", hs.Health.Health)
		add(health)
	}

	return groups
}

func (hs *Handlers) watchRoutes(g *router.DomainGroup, kind notification.WatchedKind) {
	if hs.Watch == nil {
		return
	}
	g.GET("/:id/watch", middleware.RequireAuth(), hs.Watch.State(kind))
	g.POST("/:id/watch", hs.Watch.Set(kind))
}

// Register adds every route group to r and the root health check to
// engine
func (hs *Handlers) Register(engine *gin.Engine, r *router.Router) {
	for _, g := range hs.DomainGroups() {
		r.Register(g)
	}
	if hs.Health != nil {
		engine.GET("/health", hs.Health.Health)
	}
}
