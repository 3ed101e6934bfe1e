package api

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"nebulafleet.dev/server/internal/api/handlers"
	"nebulafleet.dev/server/internal/api/middleware"
	"nebulafleet.dev/server/internal/certmanager"
	"nebulafleet.dev/server/internal/configbuild"
	"nebulafleet.dev/server/internal/ipalloc"
	"nebulafleet.dev/server/internal/metrics"
	"nebulafleet.dev/server/internal/nebulacert"
	"nebulafleet.dev/server/internal/ratelimit"
	"nebulafleet.dev/server/internal/repository"
	"nebulafleet.dev/server/internal/tokenmgr"
)

// RouterConfig holds everything SetupRouter needs to wire the control
// plane's repository/manager layer and mount every route.
type RouterConfig struct {
	// DB is the database connection.
	DB *sql.DB

	// Logger is the Zap logger for request logging.
	Logger *zap.Logger

	// TokenHMACSecret signs issued node bearer tokens.
	TokenHMACSecret string

	// TokenPrefix is prepended to every generated token value.
	TokenPrefix string

	// NebulaCertBinaryPath overrides the nebula-cert executable used
	// for CA/host-cert operations; empty resolves "nebula-cert" on PATH.
	NebulaCertBinaryPath string

	// NebulaVersion is the Nebula release this binary itself embeds,
	// returned from GET /v1/version alongside the managed version.
	NebulaVersion string

	// CertManager bundles CA/host-cert lifetime parameters.
	CertManager certmanager.Config

	// AllowOrigins is the list of allowed CORS origins. Use []string{"*"}
	// to allow all (not recommended for production).
	AllowOrigins []string
}

// SetupRouter constructs the repository/manager layer from config and
// mounts every route from the health surface through CA, client,
// firewall, RBAC, secret-scanning, and enrollment endpoints.
func SetupRouter(config *RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(config.Logger))
	if len(config.AllowOrigins) > 0 {
		router.Use(middleware.CORS(config.AllowOrigins))
	}
	router.Use(middleware.RateLimitByIP(100.0, 200))

	newID := func() string { return uuid.New().String() }

	nodes := repository.NewNodeRepository(config.DB)
	cas := repository.NewCARepository(config.DB)
	hostCerts := repository.NewHostCertRepository(config.DB)
	ipPools := repository.NewIPPoolRepository(config.DB)
	ipGroups := repository.NewIPGroupRepository(config.DB)
	ipAssignments := repository.NewIPAssignmentRepository(config.DB)
	tokens := repository.NewTokenRepository(config.DB)
	settings := repository.NewSettingsRepository(config.DB)
	groups := repository.NewGroupRepository(config.DB)
	rulesets := repository.NewFirewallRulesetRepository(config.DB)
	rules := repository.NewFirewallRuleRepository(config.DB)
	userGroups := repository.NewUserGroupRepository(config.DB)
	memberships := repository.NewUserGroupMembershipRepository(config.DB)
	permissions := repository.NewPermissionRepository(config.DB)
	clientPerms := repository.NewClientPermissionRepository(config.DB)
	auditLog := repository.NewSecretScanAuditRepository(config.DB)
	enrollments := repository.NewEnrollmentRepository(config.DB)

	cert := &nebulacert.Runner{BinaryPath: config.NebulaCertBinaryPath}
	certs := certmanager.New(config.DB, cas, hostCerts, cert, config.Logger, config.CertManager, newID, nil)
	ipAlloc := ipalloc.New(ipPools, ipGroups, ipAssignments, newID)
	tokenMgr := tokenmgr.New(tokens, config.TokenHMACSecret, config.TokenPrefix, newID, nil)
	builder := configbuild.New(nodes, ipPools, ipAssignments, cas, hostCerts, groups, rulesets, rules, settings, certs, nil)
	configFetchLimiter := ratelimit.NewLimiter(ratelimit.DefaultConfig())

	healthHandler := handlers.NewHealthHandler(settings, config.NebulaVersion)
	clientConfigHandler := handlers.NewClientConfigHandler(tokenMgr, nodes, builder, configFetchLimiter)
	clientHandler := handlers.NewClientHandler(nodes, ipPools, settings, ipAlloc, tokenMgr, builder, newID, nil)
	caHandler := handlers.NewCAHandler(certs, cas)
	ipPoolHandler := handlers.NewIPPoolHandler(ipPools, ipGroups, ipAssignments, newID)
	groupHandler := handlers.NewGroupHandler(groups, newID)
	firewallHandler := handlers.NewFirewallHandler(rulesets, rules, newID)
	rbacHandler := handlers.NewRBACHandler(userGroups, memberships, permissions, clientPerms, newID)
	secretScanHandler := handlers.NewSecretScanHandler(tokenMgr, nodes, settings, auditLog, nil)
	enrollHandler := handlers.NewEnrollHandler(enrollments, nodes, tokenMgr, nil)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	router.GET("/.well-known/secret-scanning.json", secretScanHandler.WellKnown)

	v1 := router.Group("/v1")
	{
		v1.GET("/healthz", healthHandler.Healthz)
		v1.GET("/version", healthHandler.Version)

		v1.POST("/client/config", clientConfigHandler.Fetch)
		v1.POST("/enroll", enrollHandler.Enroll)

		v1.POST("/github/secret-scanning/verify", secretScanHandler.Verify)
		v1.POST("/github/secret-scanning/revoke", secretScanHandler.Revoke)

		admin := v1.Group("")
		admin.Use(middleware.RequireAdmin())
		{
			clients := admin.Group("/clients")
			{
				clients.POST("", clientHandler.Create)
				clients.GET("", clientHandler.List)
				clients.GET("/:id", clientHandler.Get)
				clients.PUT("/:id", clientHandler.Update)
				clients.DELETE("/:id", clientHandler.Delete)
				clients.POST("/:id/token/reissue", clientHandler.ReissueToken)
				clients.GET("/:id/config", clientHandler.GetConfig)
				clients.GET("/:id/docker-compose", clientHandler.GetDockerCompose)

				clients.GET("/:id/groups", groupHandler.ListForClient)
				clients.POST("/:id/groups/:group_id", groupHandler.Attach)
				clients.DELETE("/:id/groups/:group_id", groupHandler.Detach)

				clients.GET("/:id/firewall-rulesets", firewallHandler.ListRulesetsForClient)
				clients.POST("/:id/firewall-rulesets/:ruleset_id", firewallHandler.AttachRuleset)
				clients.DELETE("/:id/firewall-rulesets/:ruleset_id", firewallHandler.DetachRuleset)

				clients.POST("/:id/permissions", rbacHandler.GrantClientPermission)
				clients.DELETE("/:id/permissions/:perm_id", rbacHandler.RevokeClientPermission)
			}

			ca := admin.Group("/ca")
			{
				ca.GET("", caHandler.List)
				ca.POST("/create", caHandler.Create)
				ca.POST("/import", caHandler.Import)
				ca.POST("/:id/set-signing", caHandler.SetSigning)
				ca.DELETE("/:id", caHandler.Delete)
			}

			pools := admin.Group("/ip-pools")
			{
				pools.POST("", ipPoolHandler.Create)
				pools.GET("", ipPoolHandler.List)
				pools.GET("/:id", ipPoolHandler.Get)
				pools.DELETE("/:id", ipPoolHandler.Delete)
				pools.POST("/:id/groups", ipPoolHandler.CreateGroup)
				pools.GET("/:id/groups", ipPoolHandler.ListGroups)
			}

			fwGroups := admin.Group("/groups")
			{
				fwGroups.POST("", groupHandler.Create)
				fwGroups.GET("", groupHandler.List)
				fwGroups.GET("/:id", groupHandler.Get)
				fwGroups.DELETE("/:id", groupHandler.Delete)
				fwGroups.GET("/:id/permissions", rbacHandler.GroupPermissions)
			}

			firewallRulesets := admin.Group("/firewall-rulesets")
			{
				firewallRulesets.POST("", firewallHandler.CreateRuleset)
				firewallRulesets.GET("", firewallHandler.ListRulesets)
				firewallRulesets.GET("/:id", firewallHandler.GetRuleset)
				firewallRulesets.DELETE("/:id", firewallHandler.DeleteRuleset)
				firewallRulesets.POST("/:id/rules", firewallHandler.CreateRule)
				firewallRulesets.GET("/:id/rules", firewallHandler.ListRules)
				firewallRulesets.DELETE("/:id/rules/:rule_id", firewallHandler.DeleteRule)
			}

			userGroupsGroup := admin.Group("/user-groups")
			{
				userGroupsGroup.POST("", rbacHandler.CreateUserGroup)
				userGroupsGroup.GET("", rbacHandler.ListUserGroups)
				userGroupsGroup.GET("/:id", rbacHandler.GetUserGroup)
				userGroupsGroup.DELETE("/:id", rbacHandler.DeleteUserGroup)
				userGroupsGroup.POST("/:id/members", rbacHandler.AddMember)
				userGroupsGroup.DELETE("/:id/members/:user_id", rbacHandler.RemoveMember)
				userGroupsGroup.GET("/:id/permissions", rbacHandler.UserGroupPermissions)
			}

			admin.GET("/users/:user_id/user-groups", rbacHandler.ListUserGroupsForUser)

			permissionsGroup := admin.Group("/permissions")
			{
				permissionsGroup.POST("", rbacHandler.CreatePermission)
				permissionsGroup.GET("", rbacHandler.ListPermissions)
			}
		}
	}

	return router
}
