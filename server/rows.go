package server

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
)

// Row payloads mirror what the CLI client sends. The server never interprets
// progression values; it stores and returns them per user.

type profileRow struct {
	DisplayName     string         `json:"display_name"`
	WeeklyGoalMin   int            `json:"weekly_goal_min"`
	Theme           string         `json:"theme"`
	StopwatchCapMin int            `json:"stopwatch_cap_min"`
	AmbientSound    string         `json:"ambient_sound"`
	IslandXPSec     int64          `json:"island_xp_sec"`
	GardenGrowthSec int64          `json:"garden_growth_sec"`
	TreeType        string         `json:"tree_type"`
	HarvestedOnTree int64          `json:"harvested_on_tree"`
	FruitCollection map[string]int `json:"fruit_collection"`
	UpdatedMs       int64          `json:"updated_ms"`
}

type labelRow struct {
	LocalID   string `json:"local_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Favorite  bool   `json:"favorite"`
	CreatedMs int64  `json:"created_ms"`
	UpdatedMs int64  `json:"updated_ms"`
}

type sessionRow struct {
	ClientID    string `json:"client_id"`
	StartedMs   int64  `json:"started_ms"`
	EndedMs     int64  `json:"ended_ms"`
	DurationSec int    `json:"duration_sec"`
	Label       string `json:"label"`
	Method      string `json:"method"`
	RewardMode  string `json:"reward_mode"`
	UpdatedMs   int64  `json:"updated_ms"`
}

// handleProfileGet returns the user's profile row, or null when none exists.
func (s *Server) handleProfileGet(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var row profileRow
	var fruits []byte
	err := s.db.QueryRow(`
		SELECT display_name, weekly_goal_min, theme, stopwatch_cap_min,
		       ambient_sound, island_xp_sec, garden_growth_sec, tree_type,
		       harvested_on_tree, fruit_collection, updated_ms
		FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&row.DisplayName, &row.WeeklyGoalMin, &row.Theme, &row.StopwatchCapMin,
		&row.AmbientSound, &row.IslandXPSec, &row.GardenGrowthSec, &row.TreeType,
		&row.HarvestedOnTree, &fruits, &row.UpdatedMs)

	if err == sql.ErrNoRows {
		return c.JSON(http.StatusOK, map[string]interface{}{"profile": nil})
	}
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	row.FruitCollection = map[string]int{}
	if len(fruits) > 0 {
		if err := json.Unmarshal(fruits, &row.FruitCollection); err != nil {
			c.Logger().Error("fruit_collection decode error:", err)
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"profile": &row})
}

// handleProfilePut upserts the user's profile row.
func (s *Server) handleProfilePut(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var row profileRow
	if err := c.Bind(&row); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if row.FruitCollection == nil {
		row.FruitCollection = map[string]int{}
	}
	fruits, err := json.Marshal(row.FruitCollection)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid fruit collection"})
	}

	_, err = s.db.Exec(`
		INSERT INTO profiles (user_id, display_name, weekly_goal_min, theme,
		                      stopwatch_cap_min, ambient_sound, island_xp_sec,
		                      garden_growth_sec, tree_type, harvested_on_tree,
		                      fruit_collection, updated_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			weekly_goal_min = EXCLUDED.weekly_goal_min,
			theme = EXCLUDED.theme,
			stopwatch_cap_min = EXCLUDED.stopwatch_cap_min,
			ambient_sound = EXCLUDED.ambient_sound,
			island_xp_sec = EXCLUDED.island_xp_sec,
			garden_growth_sec = EXCLUDED.garden_growth_sec,
			tree_type = EXCLUDED.tree_type,
			harvested_on_tree = EXCLUDED.harvested_on_tree,
			fruit_collection = EXCLUDED.fruit_collection,
			updated_ms = EXCLUDED.updated_ms`,
		userID, row.DisplayName, row.WeeklyGoalMin, row.Theme,
		row.StopwatchCapMin, row.AmbientSound, row.IslandXPSec,
		row.GardenGrowthSec, row.TreeType, row.HarvestedOnTree,
		fruits, row.UpdatedMs,
	)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleLabelsGet returns all label rows for the user.
func (s *Server) handleLabelsGet(c echo.Context) error {
	userID := c.Get("user_id").(string)

	rows, err := s.db.Query(`
		SELECT local_id, name, color, favorite, created_ms, updated_ms
		FROM labels WHERE user_id = $1
		ORDER BY created_ms`,
		userID,
	)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer rows.Close()

	labels := []labelRow{}
	for rows.Next() {
		var l labelRow
		if err := rows.Scan(&l.LocalID, &l.Name, &l.Color, &l.Favorite, &l.CreatedMs, &l.UpdatedMs); err != nil {
			c.Logger().Error("scan error:", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		labels = append(labels, l)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"labels": labels})
}

// handleLabelsPost upserts a batch of label rows. A label whose name
// collides with a different label of the same user is rejected with 409.
func (s *Server) handleLabelsPost(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var req struct {
		Labels []labelRow `json:"labels"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	for _, l := range req.Labels {
		if l.LocalID == "" || l.Name == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "label local_id and name required"})
		}
		_, err := s.db.Exec(`
			INSERT INTO labels (user_id, local_id, name, color, favorite, created_ms, updated_ms)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (user_id, local_id) DO UPDATE SET
				name = EXCLUDED.name,
				color = EXCLUDED.color,
				favorite = EXCLUDED.favorite,
				updated_ms = EXCLUDED.updated_ms`,
			userID, l.LocalID, l.Name, l.Color, l.Favorite, l.CreatedMs, l.UpdatedMs,
		)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return c.JSON(http.StatusConflict, map[string]string{"error": "label name already exists: " + l.Name})
			}
			c.Logger().Error("db error:", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleLabelsDelete removes label rows by local id. Unknown ids are
// ignored so tombstone replays stay harmless.
func (s *Server) handleLabelsDelete(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if len(req.IDs) > 0 {
		_, err := s.db.Exec(`
			DELETE FROM labels WHERE user_id = $1 AND local_id = ANY($2)`,
			userID, pq.Array(req.IDs),
		)
		if err != nil {
			c.Logger().Error("db error:", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleSessionsGet returns all session rows for the user.
func (s *Server) handleSessionsGet(c echo.Context) error {
	userID := c.Get("user_id").(string)

	rows, err := s.db.Query(`
		SELECT client_id, COALESCE(started_ms, 0), COALESCE(ended_ms, 0),
		       duration_sec, label, method, reward_mode, updated_ms
		FROM study_sessions WHERE user_id = $1
		ORDER BY ended_ms DESC`,
		userID,
	)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer rows.Close()

	sessions := []sessionRow{}
	for rows.Next() {
		var sr sessionRow
		if err := rows.Scan(&sr.ClientID, &sr.StartedMs, &sr.EndedMs,
			&sr.DurationSec, &sr.Label, &sr.Method, &sr.RewardMode, &sr.UpdatedMs); err != nil {
			c.Logger().Error("scan error:", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		sessions = append(sessions, sr)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// handleSessionsPost upserts a batch of session rows keyed by client id.
func (s *Server) handleSessionsPost(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var req struct {
		Sessions []sessionRow `json:"sessions"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	for _, sr := range req.Sessions {
		if sr.ClientID == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "session client_id required"})
		}
		if sr.DurationSec < 60 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "session shorter than 60 seconds"})
		}
		_, err := s.db.Exec(`
			INSERT INTO study_sessions (user_id, client_id, started_ms, ended_ms,
			                            duration_sec, label, method, reward_mode, updated_ms)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (user_id, client_id) DO UPDATE SET
				started_ms = EXCLUDED.started_ms,
				ended_ms = EXCLUDED.ended_ms,
				duration_sec = EXCLUDED.duration_sec,
				label = EXCLUDED.label,
				method = EXCLUDED.method,
				reward_mode = EXCLUDED.reward_mode,
				updated_ms = EXCLUDED.updated_ms`,
			userID, sr.ClientID, sr.StartedMs, sr.EndedMs,
			sr.DurationSec, sr.Label, sr.Method, sr.RewardMode, sr.UpdatedMs,
		)
		if err != nil {
			c.Logger().Error("db error:", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleSessionsDelete removes session rows by client id.
func (s *Server) handleSessionsDelete(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if len(req.IDs) > 0 {
		_, err := s.db.Exec(`
			DELETE FROM study_sessions WHERE user_id = $1 AND client_id = ANY($2)`,
			userID, pq.Array(req.IDs),
		)
		if err != nil {
			c.Logger().Error("db error:", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
