package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rayen-brigui/altv-athena/game/inventory"
	"github.com/rayen-brigui/altv-athena/game/player"
	"github.com/rayen-brigui/altv-athena/game/world"
	"github.com/rayen-brigui/altv-athena/model"
	"github.com/rayen-brigui/altv-athena/scheduler"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	db     *gorm.DB
	sm     *player.SessionManager
	wm     *world.Manager
	ground *inventory.GroundStore
	sched  *scheduler.Scheduler
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	db *gorm.DB,
	sm *player.SessionManager,
	wm *world.Manager,
	ground *inventory.GroundStore,
	sched *scheduler.Scheduler,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{db: db, sm: sm, wm: wm, ground: ground, sched: sched, logger: logger}
}

// Metrics returns server health metrics.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"online_players":  h.sm.Count(),
		"ground_items":    h.ground.Count(),
		"scheduler_tasks": h.sched.ListTickers(),
	})
}

// ListPlayers returns a snapshot of all online players.
// GET /api/admin/players
func (h *AdminHandler) ListPlayers(c *gin.Context) {
	sessions := h.sm.All()
	type playerInfo struct {
		CharID    int64   `json:"char_id"`
		CharName  string  `json:"char_name"`
		Dimension int     `json:"dimension"`
		X         float64 `json:"x"`
		Y         float64 `json:"y"`
		Z         float64 `json:"z"`
	}
	result := make([]playerInfo, 0, len(sessions))
	for _, s := range sessions {
		pos, _, dimension := s.Position()
		result = append(result, playerInfo{
			CharID:    s.CharID,
			CharName:  s.CharName,
			Dimension: dimension,
			X:         pos.X,
			Y:         pos.Y,
			Z:         pos.Z,
		})
	}
	c.JSON(http.StatusOK, gin.H{"players": result, "count": len(result)})
}

// ListGroundItems returns every currently-dropped item.
// GET /api/admin/ground
func (h *AdminHandler) ListGroundItems(c *gin.Context) {
	items := h.ground.All()
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// ClearGround administratively removes all dropped items and retracts
// their world representation.
// POST /api/admin/ground/clear
func (h *AdminHandler) ClearGround(c *gin.Context) {
	items := h.ground.All()
	n := h.ground.Clear()
	for _, d := range items {
		h.wm.RemoveGroundItem(d.Dimension, d.Band, d.Token)
	}
	h.logger.Info("admin cleared ground items", zap.Int("count", n))
	c.JSON(http.StatusOK, gin.H{"ok": true, "removed": n})
}

// KickPlayer forcibly disconnects a player by character ID.
// POST /api/admin/kick/:id
func (h *AdminHandler) KickPlayer(c *gin.Context) {
	charID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	s := h.sm.Get(charID)
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not online"})
		return
	}
	s.Close()
	h.logger.Info("admin kicked player", zap.Int64("char_id", charID))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// BanAccount bans or unbans a player account.
// POST /api/admin/accounts/:id/ban
func (h *AdminHandler) BanAccount(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Ban    bool   `json:"ban"`
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	status := 1
	reason := ""
	if req.Ban {
		status = 0
		reason = req.Reason
	}
	result := h.db.Model(&model.Account{}).Where("id = ?", accountID).
		Updates(map[string]interface{}{"status": status, "ban_reason": reason})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	// Kick the player if currently online.
	if req.Ban {
		for _, s := range h.sm.All() {
			if s.AccountID == accountID {
				s.Close()
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
