package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rayen-brigui/altv-athena/game/inventory"
	mw "github.com/rayen-brigui/altv-athena/middleware"
	"github.com/rayen-brigui/altv-athena/model"
	"gorm.io/gorm"
)

// InventoryHandler exposes the read-only REST view of a character's
// containers. All mutation goes through the WS entry points.
type InventoryHandler struct {
	db  *gorm.DB
	inv *inventory.Service
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(db *gorm.DB, inv *inventory.Service) *InventoryHandler {
	return &InventoryHandler{db: db, inv: inv}
}

// Get handles GET /api/characters/:id/inventory and serves the
// character's live loadout.
func (h *InventoryHandler) Get(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	charID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	// Verify character belongs to account.
	var char model.Character
	if err := h.db.Where("id = ? AND account_id = ?", charID, accountID).First(&char).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"loadout": h.inv.Snapshot(charID)})
}
