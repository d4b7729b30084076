package rest_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rayen-brigui/altv-athena/api/rest"
	"github.com/rayen-brigui/altv-athena/config"
	"github.com/rayen-brigui/altv-athena/game/inventory"
	"github.com/rayen-brigui/altv-athena/game/player"
	"github.com/rayen-brigui/altv-athena/game/world"
	"github.com/rayen-brigui/altv-athena/model"
	"github.com/rayen-brigui/altv-athena/scheduler"
	"github.com/rayen-brigui/altv-athena/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type adminFixture struct {
	router *gin.Engine
	db     *gorm.DB
	sm     *player.SessionManager
	ground *inventory.GroundStore
	sched  *scheduler.Scheduler
}

func newAdminRouter(t *testing.T, adminKey string) *adminFixture {
	db := testutil.SetupTestDB(t)
	sm := player.NewSessionManager(zap.NewNop())
	ground := inventory.NewGroundStore()
	sched := scheduler.New(zap.NewNop())
	t.Cleanup(sched.Stop)
	wm := world.NewManager(sm, ground, nil, config.GameConfig{BandWidth: 100}, zap.NewNop())
	h := rest.NewAdminHandler(db, sm, wm, ground, sched, zap.NewNop())

	r := gin.New()
	adminG := r.Group("/api/admin", rest.AdminAuth(adminKey))
	adminG.GET("/metrics", h.Metrics)
	adminG.GET("/players", h.ListPlayers)
	adminG.GET("/ground", h.ListGroundItems)
	adminG.DELETE("/ground", h.ClearGround)
	adminG.POST("/kick/:id", h.KickPlayer)
	adminG.POST("/accounts/:id/ban", h.BanAccount)

	return &adminFixture{router: r, db: db, sm: sm, ground: ground, sched: sched}
}

func adminGet(f *adminFixture, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set("X-Admin-Key", key)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func adminSession(charID int64, name string) *player.Session {
	return &player.Session{
		AccountID: charID,
		CharID:    charID,
		CharName:  name,
		Wielded:   -1,
		SendChan:  make(chan []byte, 16),
		Done:      make(chan struct{}),
	}
}

func TestAdminAuth_EmptyKeyDisablesEndpoints(t *testing.T) {
	f := newAdminRouter(t, "")
	w := adminGet(f, "/api/admin/metrics", "anything")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminAuth_WrongKeyRejected(t *testing.T) {
	f := newAdminRouter(t, "s3cret")
	assert.Equal(t, http.StatusUnauthorized, adminGet(f, "/api/admin/metrics", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, adminGet(f, "/api/admin/metrics", "").Code)
}

func TestAdminMetrics(t *testing.T) {
	f := newAdminRouter(t, "s3cret")
	f.sm.Register(adminSession(1, "Avery"))
	f.ground.Add(&inventory.DroppedItem{Token: "tok", Item: inventory.Item{ID: 1}})
	f.sched.AddTicker("noop", time.Hour, func() {})

	w := adminGet(f, "/api/admin/metrics", "s3cret")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		OnlinePlayers  int      `json:"online_players"`
		GroundItems    int      `json:"ground_items"`
		SchedulerTasks []string `json:"scheduler_tasks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.OnlinePlayers)
	assert.Equal(t, 1, resp.GroundItems)
	assert.Contains(t, resp.SchedulerTasks, "noop")
}

func TestAdminListPlayers(t *testing.T) {
	f := newAdminRouter(t, "s3cret")
	s := adminSession(7, "Avery")
	s.SetPosition(player.Vector3{X: 150, Y: 20, Z: 3}, 0, 2)
	f.sm.Register(s)

	w := adminGet(f, "/api/admin/players", "s3cret")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count   int `json:"count"`
		Players []struct {
			CharID    int64   `json:"char_id"`
			CharName  string  `json:"char_name"`
			Dimension int     `json:"dimension"`
			X         float64 `json:"x"`
		} `json:"players"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, int64(7), resp.Players[0].CharID)
	assert.Equal(t, 2, resp.Players[0].Dimension)
	assert.Equal(t, 150.0, resp.Players[0].X)
}

func TestAdminClearGround(t *testing.T) {
	f := newAdminRouter(t, "s3cret")
	f.ground.Add(&inventory.DroppedItem{Token: "a", Item: inventory.Item{ID: 1}})
	f.ground.Add(&inventory.DroppedItem{Token: "b", Item: inventory.Item{ID: 2}})

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/ground", nil)
	req.Header.Set("X-Admin-Key", "s3cret")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, f.ground.Count())
}

func TestAdminKickPlayer(t *testing.T) {
	f := newAdminRouter(t, "s3cret")
	s := adminSession(7, "Avery")
	f.sm.Register(s)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/kick/7", nil)
	req.Header.Set("X-Admin-Key", "s3cret")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.IsClosed())

	req = httptest.NewRequest(http.MethodPost, "/api/admin/kick/999", nil)
	req.Header.Set("X-Admin-Key", "s3cret")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminBanAccount(t *testing.T) {
	f := newAdminRouter(t, "s3cret")
	account := model.Account{Username: "alice", PasswordHash: "x", Status: 1}
	require.NoError(t, f.db.Create(&account).Error)

	s := adminSession(account.ID, "Avery")
	f.sm.Register(s)

	w := doRequestWithKey(f, http.MethodPost,
		fmt.Sprintf("/api/admin/accounts/%d/ban", account.ID),
		map[string]interface{}{"ban": true, "reason": "duping items"}, "s3cret")
	require.Equal(t, http.StatusOK, w.Code)

	var banned model.Account
	require.NoError(t, f.db.First(&banned, account.ID).Error)
	assert.Equal(t, 0, banned.Status)
	assert.Equal(t, "duping items", banned.BanReason)
	assert.True(t, s.IsClosed(), "banning must disconnect the online player")
}

func doRequestWithKey(f *adminFixture, method, path string, body interface{}, key string) *httptest.ResponseRecorder {
	var b []byte
	if body != nil {
		b, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Key", key)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}
