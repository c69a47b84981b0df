// Package api exposes the gateway consumed by the host bot framework:
// the watchlist operations plus the stateless lookup commands.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/JianyueLab/JianyueBOT/internal/models"
	"github.com/JianyueLab/JianyueBOT/internal/monitor"
	"github.com/JianyueLab/JianyueBOT/internal/services"
	"github.com/JianyueLab/JianyueBOT/internal/store"
)

// Handler holds service dependencies
type Handler struct {
	store          *store.Store
	whoisService   *services.WhoisService
	monitorService *monitor.Service
	authService    *services.AuthService
	pricing        *services.PricingService
	ipinfo         *services.IPInfoService
	zipcode        *services.ZipcodeService
	minecraft      *services.MinecraftService
	bincheck       *services.BinCheckService
	log            zerolog.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	st *store.Store,
	whoisService *services.WhoisService,
	monitorService *monitor.Service,
	authService *services.AuthService,
	pricing *services.PricingService,
	ipinfo *services.IPInfoService,
	zipcode *services.ZipcodeService,
	minecraft *services.MinecraftService,
	bincheck *services.BinCheckService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		store:          st,
		whoisService:   whoisService,
		monitorService: monitorService,
		authService:    authService,
		pricing:        pricing,
		ipinfo:         ipinfo,
		zipcode:        zipcode,
		minecraft:      minecraft,
		bincheck:       bincheck,
		log:            log.With().Str("component", "api").Logger(),
	}
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, handler *Handler) {
	r.Use(RequestID())

	api := r.Group("/api/v1")
	api.POST("/auth/login", handler.Login)

	protected := api.Group("")
	protected.Use(AuthRequired(handler.authService))
	{
		// Watchlist operations
		protected.GET("/monitors/:user", handler.ListMonitors)
		protected.POST("/monitors", handler.AddMonitor)
		protected.DELETE("/monitors/:user/:domain", handler.RemoveMonitor)
		protected.POST("/monitors/:user/check", handler.CheckNow)

		// Lookup commands
		protected.GET("/whois/:domain", handler.Whois)
		protected.GET("/pricing/cheapest", handler.CheapestRegistrars)
		protected.GET("/pricing/registrar", handler.RegistrarPrices)
		protected.GET("/ip/:address/detail", handler.IPDetail)
		protected.GET("/ip/:address/location", handler.IPLocation)
		protected.GET("/zipcode/:country/:code", handler.Zipcode)
		protected.GET("/minecraft/:type/:address", handler.MinecraftStatus)
		protected.GET("/bincheck/:bin", handler.BinCheck)
	}
}

// Login authenticates the host bot framework and issues a token
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ListMonitors returns one user's watchlist
func (h *Handler) ListMonitors(c *gin.Context) {
	entries := h.store.List(c.Param("user"))
	if entries == nil {
		entries = []models.WatchedDomain{}
	}
	c.JSON(http.StatusOK, gin.H{"domains": entries, "count": len(entries)})
}

// AddMonitor validates, looks up, and stores a new watch entry
func (h *Handler) AddMonitor(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Domain string `json:"domain" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, err := h.whoisService.Lookup(c.Request.Context(), req.Domain)
	if errors.Is(err, services.ErrInvalidDomain) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid domain format"})
		return
	}
	if err != nil {
		// The cause is already logged; the caller gets one generic outcome.
		c.JSON(http.StatusNotFound, gin.H{"error": "domain information unavailable"})
		return
	}

	if !h.store.Add(req.UserID, req.Domain, info) {
		c.JSON(http.StatusConflict, gin.H{"error": "domain is already in the monitor list"})
		return
	}

	resp := gin.H{"domain": info.Domain}
	if info.ExpirationDate != "" {
		if expiry, err := models.ParseTimestamp(info.ExpirationDate); err == nil {
			resp["expirationDate"] = info.ExpirationDate
			resp["daysUntilExpiry"] = models.DaysUntil(expiry, time.Now().UTC())
		}
	}
	c.JSON(http.StatusCreated, resp)
}

// RemoveMonitor deletes a watch entry
func (h *Handler) RemoveMonitor(c *gin.Context) {
	user := c.Param("user")
	domain := c.Param("domain")
	if !h.store.Remove(user, domain) {
		c.JSON(http.StatusNotFound, gin.H{"error": "domain is not in the monitor list"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"domain": services.NormalizeDomain(domain), "removed": true})
}

// CheckNow evaluates one user's watchlist against cached data. It never
// refreshes stored state, so the reply does not block on provider calls.
func (h *Handler) CheckNow(c *gin.Context) {
	user := c.Param("user")
	now := time.Now().UTC()

	expiring := h.monitorService.CheckUser(c.Request.Context(), user, now)
	if expiring == nil {
		expiring = []models.ExpiringDomain{}
	}
	c.JSON(http.StatusOK, gin.H{
		"expiring":  expiring,
		"checkedAt": now.Format(time.RFC3339),
	})
}

// Whois returns registration metadata for a single domain
func (h *Handler) Whois(c *gin.Context) {
	info, err := h.whoisService.Lookup(c.Request.Context(), c.Param("domain"))
	if errors.Is(err, services.ErrInvalidDomain) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid domain format"})
		return
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "domain information unavailable"})
		return
	}

	resp := gin.H{"info": info}
	if info.ExpirationDate != "" {
		if expiry, err := models.ParseTimestamp(info.ExpirationDate); err == nil {
			resp["daysUntilExpiry"] = models.DaysUntil(expiry, time.Now().UTC())
		}
	}
	c.JSON(http.StatusOK, resp)
}

// CheapestRegistrars returns the cheapest registrars for a TLD
func (h *Handler) CheapestRegistrars(c *gin.Context) {
	order, err := services.ParseOrder(c.DefaultQuery("order", string(services.OrderNew)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tld := c.Query("tld")
	if tld == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tld is required"})
		return
	}

	result, err := h.pricing.Cheapest(c.Request.Context(), tld, order)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "pricing information unavailable"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// RegistrarPrices returns domain prices offered by one registrar
func (h *Handler) RegistrarPrices(c *gin.Context) {
	order, err := services.ParseOrder(c.DefaultQuery("order", string(services.OrderNew)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	result, err := h.pricing.ByRegistrar(c.Request.Context(), name, order)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "pricing information unavailable"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// IPDetail returns registry information for an IP address
func (h *Handler) IPDetail(c *gin.Context) {
	details, err := h.ipinfo.Details(c.Request.Context(), c.Param("address"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ip information unavailable"})
		return
	}
	c.JSON(http.StatusOK, details)
}

// IPLocation returns geolocation information for an IP address
func (h *Handler) IPLocation(c *gin.Context) {
	location, err := h.ipinfo.Location(c.Request.Context(), c.Param("address"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ip information unavailable"})
		return
	}
	c.JSON(http.StatusOK, location)
}

// Zipcode returns the address behind a postal code
func (h *Handler) Zipcode(c *gin.Context) {
	address, err := h.zipcode.Search(c.Request.Context(), c.Param("country"), c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "address information unavailable"})
		return
	}
	c.JSON(http.StatusOK, address)
}

// MinecraftStatus returns the live status of a Minecraft server
func (h *Handler) MinecraftStatus(c *gin.Context) {
	serverType, err := services.ParseServerType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := h.minecraft.Status(c.Request.Context(), serverType, c.Param("address"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "server is offline or unavailable"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// BinCheck returns card issuer and country information for a BIN
func (h *Handler) BinCheck(c *gin.Context) {
	bin, err := strconv.Atoi(c.Param("bin"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid BIN"})
		return
	}

	info, err := h.bincheck.Check(c.Request.Context(), bin)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bin information unavailable"})
		return
	}
	c.JSON(http.StatusOK, info)
}
