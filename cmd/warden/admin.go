package main

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/haven-chat/warden/automod/flagstore"
	"github.com/haven-chat/warden/automod/ledger"
	"github.com/haven-chat/warden/automod/policy"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
)

// JSON shape of a guild policy on the admin API. Durations are seconds.
type policyJSON struct {
	GuildID            string          `json:"guild_id"`
	SpamThreshold      int             `json:"spam_threshold"`
	SpamWindowSeconds  int             `json:"spam_window_seconds"`
	DuplicateThreshold int             `json:"duplicate_threshold"`
	CapsRatio          float64         `json:"caps_ratio"`
	MaxMentions        int             `json:"max_mentions"`
	MaxEmojis          int             `json:"max_emojis"`
	LinkFilter         bool            `json:"link_filter"`
	InviteFilter       bool            `json:"invite_filter"`
	KeywordFilter      bool            `json:"keyword_filter"`
	ExemptRoles        []string        `json:"exempt_roles"`
	ExemptChannels     []string        `json:"exempt_channels"`
	AutoAction         bool            `json:"auto_action"`
	Escalation         []thresholdJSON `json:"escalation"`
}

type thresholdJSON struct {
	Count           int    `json:"count"`
	Action          string `json:"action"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

type policyPatchJSON struct {
	SpamThreshold      *int            `json:"spam_threshold,omitempty"`
	SpamWindowSeconds  *int            `json:"spam_window_seconds,omitempty"`
	DuplicateThreshold *int            `json:"duplicate_threshold,omitempty"`
	CapsRatio          *float64        `json:"caps_ratio,omitempty"`
	MaxMentions        *int            `json:"max_mentions,omitempty"`
	MaxEmojis          *int            `json:"max_emojis,omitempty"`
	LinkFilter         *bool           `json:"link_filter,omitempty"`
	InviteFilter       *bool           `json:"invite_filter,omitempty"`
	KeywordFilter      *bool           `json:"keyword_filter,omitempty"`
	ExemptRoles        []string        `json:"exempt_roles,omitempty"`
	ExemptChannels     []string        `json:"exempt_channels,omitempty"`
	AutoAction         *bool           `json:"auto_action,omitempty"`
	Escalation         []thresholdJSON `json:"escalation,omitempty"`
}

type violationJSON struct {
	GuildID   string    `json:"guild_id"`
	UserID    string    `json:"user_id"`
	ChannelID string    `json:"channel_id"`
	MessageID string    `json:"message_id"`
	Kind      string    `json:"kind"`
	Snippet   string    `json:"snippet"`
	CreatedAt time.Time `json:"created_at"`
}

func policyView(p policy.GuildPolicy) policyJSON {
	out := policyJSON{
		GuildID:            p.GuildID,
		SpamThreshold:      p.SpamThreshold,
		SpamWindowSeconds:  int(p.SpamWindow / time.Second),
		DuplicateThreshold: p.DuplicateThreshold,
		CapsRatio:          p.CapsRatio,
		MaxMentions:        p.MaxMentions,
		MaxEmojis:          p.MaxEmojis,
		LinkFilter:         p.LinkFilter,
		InviteFilter:       p.InviteFilter,
		KeywordFilter:      p.KeywordFilter,
		ExemptRoles:        p.ExemptRoles,
		ExemptChannels:     p.ExemptChannels,
		AutoAction:         p.AutoAction,
	}
	for _, t := range p.Escalation {
		out.Escalation = append(out.Escalation, thresholdJSON{
			Count:           t.Count,
			Action:          string(t.Action.Kind),
			DurationSeconds: int(t.Action.Duration / time.Second),
		})
	}
	return out
}

func (req *policyPatchJSON) toPatch() policy.Patch {
	patch := policy.Patch{
		SpamThreshold:      req.SpamThreshold,
		DuplicateThreshold: req.DuplicateThreshold,
		CapsRatio:          req.CapsRatio,
		MaxMentions:        req.MaxMentions,
		MaxEmojis:          req.MaxEmojis,
		LinkFilter:         req.LinkFilter,
		InviteFilter:       req.InviteFilter,
		KeywordFilter:      req.KeywordFilter,
		ExemptRoles:        req.ExemptRoles,
		ExemptChannels:     req.ExemptChannels,
		AutoAction:         req.AutoAction,
	}
	if req.SpamWindowSeconds != nil {
		win := time.Duration(*req.SpamWindowSeconds) * time.Second
		patch.SpamWindow = &win
	}
	for _, t := range req.Escalation {
		patch.Escalation = append(patch.Escalation, policy.Threshold{
			Count: t.Count,
			Action: policy.Action{
				Kind:     policy.ActionKind(t.Action),
				Duration: time.Duration(t.DurationSeconds) * time.Second,
			},
		})
	}
	return patch
}

// Serves the operator-facing admin API: policy management, violation
// history, guild stats, and the human-review queue.
func (s *Server) RunAdminAPI(listen, token string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(s.logger.With("system", "admin-api")))
	e.Use(middleware.Recover())
	e.Use(middleware.KeyAuth(func(key string, c echo.Context) (bool, error) {
		return subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1, nil
	}))

	e.GET("/admin/guilds/:guildID/policy", s.handleGetPolicy)
	e.PUT("/admin/guilds/:guildID/policy", s.handleSetPolicy)
	e.DELETE("/admin/guilds/:guildID/policy", s.handleResetPolicy)
	e.GET("/admin/guilds/:guildID/stats", s.handleGuildStats)
	e.GET("/admin/guilds/:guildID/users/:userID/violations", s.handleUserViolations)
	e.GET("/admin/guilds/:guildID/users/:userID/flags", s.handleUserFlags)
	e.DELETE("/admin/guilds/:guildID/users/:userID/flags/:flag", s.handleResolveFlag)

	return e.Start(listen)
}

func (s *Server) handleGetPolicy(c echo.Context) error {
	pol := s.engine.Policies.GetPolicy(c.Request().Context(), c.Param("guildID"))
	return c.JSON(http.StatusOK, policyView(pol))
}

func (s *Server) handleSetPolicy(c echo.Context) error {
	var req policyPatchJSON
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pol, err := s.engine.Policies.SetPolicy(c.Request().Context(), c.Param("guildID"), req.toPatch())
	if err != nil {
		if errors.Is(err, policy.ErrInvalidPolicy) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, policyView(pol))
}

func (s *Server) handleResetPolicy(c echo.Context) error {
	pol, err := s.engine.Policies.ResetPolicy(c.Request().Context(), c.Param("guildID"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, policyView(pol))
}

func (s *Server) handleGuildStats(c echo.Context) error {
	days := 30
	if err := echo.QueryParamsBinder(c).Int("days", &days).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid days param")
	}
	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	stats, err := s.engine.Ledger.Stats(c.Request().Context(), c.Param("guildID"), since)
	if err != nil {
		return err
	}
	kinds := []map[string]any{}
	for _, kc := range stats {
		kinds = append(kinds, map[string]any{"kind": kc.Kind, "count": kc.Count})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"guild_id": c.Param("guildID"),
		"days":     days,
		"kinds":    kinds,
	})
}

func (s *Server) handleUserViolations(c echo.Context) error {
	limit := 50
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid limit param")
	}
	hist, err := s.engine.Ledger.History(c.Request().Context(), c.Param("guildID"), c.Param("userID"), limit)
	if err != nil {
		if errors.Is(err, ledger.ErrStorageFailure) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "ledger unavailable")
		}
		return err
	}
	out := make([]violationJSON, 0, len(hist))
	for _, v := range hist {
		out = append(out, violationJSON{
			GuildID:   v.GuildID,
			UserID:    v.UserID,
			ChannelID: v.ChannelID,
			MessageID: v.MessageID,
			Kind:      v.Kind,
			Snippet:   v.Snippet,
			CreatedAt: v.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleUserFlags(c echo.Context) error {
	flags, err := s.flags.Get(c.Request().Context(), flagstore.UserKey(c.Param("guildID"), c.Param("userID")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"flags": flags})
}

func (s *Server) handleResolveFlag(c echo.Context) error {
	key := flagstore.UserKey(c.Param("guildID"), c.Param("userID"))
	if err := s.flags.Remove(c.Request().Context(), key, []string{c.Param("flag")}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
