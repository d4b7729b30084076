package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rayen-brigui/altv-athena/config"
	mw "github.com/rayen-brigui/altv-athena/middleware"
	"github.com/rayen-brigui/altv-athena/model"
	"gorm.io/gorm"
)

const maxCharactersPerAccount = 5

// CharacterHandler handles character REST endpoints.
type CharacterHandler struct {
	db   *gorm.DB
	game config.GameConfig
}

// NewCharacterHandler creates a new CharacterHandler.
func NewCharacterHandler(db *gorm.DB, game config.GameConfig) *CharacterHandler {
	return &CharacterHandler{db: db, game: game}
}

type createCharacterRequest struct {
	Name string `json:"name" binding:"required,min=2,max=32"`
	Sex  int    `json:"sex"  binding:"min=0,max=1"`
}

// Create handles POST /api/characters.
func (h *CharacterHandler) Create(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req createCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	if err := h.db.Model(&model.Character{}).Where("account_id = ?", accountID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if count >= maxCharactersPerAccount {
		c.JSON(http.StatusForbidden, gin.H{"error": "character limit reached"})
		return
	}

	char := model.Character{
		AccountID: accountID,
		Name:      req.Name,
		Sex:       req.Sex,
		Dimension: h.game.DefaultDimension,
	}
	if err := h.db.Create(&char).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "name already taken"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"character": char})
}

// List handles GET /api/characters.
func (h *CharacterHandler) List(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var chars []model.Character
	if err := h.db.Where("account_id = ?", accountID).Find(&chars).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": chars})
}

// Get handles GET /api/characters/:id.
func (h *CharacterHandler) Get(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	charID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var char model.Character
	if err := h.db.Where("id = ? AND account_id = ?", charID, accountID).First(&char).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"character": char})
}

// Delete handles DELETE /api/characters/:id.
func (h *CharacterHandler) Delete(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	charID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result := h.db.Where("id = ? AND account_id = ?", charID, accountID).Delete(&model.Character{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
		return
	}
	// Container snapshots go with the character.
	h.db.Where("char_id = ?", charID).Delete(&model.ContainerState{})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
