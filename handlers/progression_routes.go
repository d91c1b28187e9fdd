// handlers/progression_routes.go
package handlers

import (
	"errors"
	"strconv"

	"pie-progression/logger"
	"pie-progression/middleware"
	"pie-progression/models"
	"pie-progression/services"
	"pie-progression/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const defaultNotificationLimit = 50

// fail maps engine errors onto HTTP statuses: missing records 404, bad input 400,
// everything else 500.
func fail(c *fiber.Ctx, msg string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrUnknownEventType), errors.Is(err, services.ErrInvalidAmount):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
		"cause": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, msg, cause string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
		"cause": cause,
	})
}

func queryLimit(c *fiber.Ctx, def int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

type userRef struct {
	UserID string `json:"user_id"`
}

// parseUserRef reads {"user_id": "..."} and checks it is a UUID.
func parseUserRef(c *fiber.Ctx) (string, error) {
	var req userRef
	if err := c.BodyParser(&req); err != nil {
		return "", err
	}
	if err := uuid.Validate(req.UserID); err != nil {
		return "", errors.New("user_id must be a UUID")
	}
	return req.UserID, nil
}

// notFoundParam answers 404 for a path id that cannot name a row.
func notFoundParam(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": what + " not found",
		"cause": c.Params("id"),
	})
}

func SetupProgressionRoutes(app *fiber.App, svc *services.ProgressionService, log *logger.Logger) {
	log = log.With("handler", "progression")

	// The gateway forwards /api/v1/progression/s/user/progress -> /user/progress
	securedGroup := app.Group("/", middleware.UserContextMiddleware(log))

	requireUser := func(c *fiber.Ctx) error {
		if middleware.UserID(c) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID",
			})
		}
		if err := uuid.Validate(middleware.UserID(c)); err != nil {
			return badRequest(c, "X-User-ID must be a UUID", err.Error())
		}
		return c.Next()
	}
	userGroup := securedGroup.Group("/user", requireUser)

	userGroup.Get("/progress", func(c *fiber.Ctx) error {
		user, err := svc.Store.GetUser(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to get progress", err)
		}
		return c.JSON(fiber.Map{
			"id":               user.ID,
			"username":         user.Username,
			"xp":               user.XP,
			"level":            user.Level,
			"next_level_xp":    svc.XPForNextLevel(user.Level),
			"progress":         svc.XPProgress(user.XP, user.Level),
			"influence_score":  user.InfluenceScore,
			"last_level_up_at": user.LastLevelUpAt,
		})
	})

	userGroup.Get("/progress/badges", func(c *fiber.Ctx) error {
		badges, err := svc.Badges(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to get badges", err)
		}
		response := make([]fiber.Map, 0, len(badges))
		for _, ub := range badges {
			response = append(response, fiber.Map{
				"id":          ub.ID,
				"badge_id":    ub.Badge.ID,
				"slug":        ub.Badge.Slug,
				"name":        ub.Badge.Name,
				"description": ub.Badge.Description,
				"icon_url":    ub.Badge.IconURL,
				"rarity":      ub.Badge.Rarity,
				"awarded_at":  ub.AwardedAt,
			})
		}
		return c.JSON(response)
	})

	userGroup.Get("/progress/achievements", func(c *fiber.Ctx) error {
		achievements, err := svc.Achievements(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to get achievements", err)
		}
		response := make([]fiber.Map, 0, len(achievements))
		for _, ua := range achievements {
			response = append(response, fiber.Map{
				"id":             ua.ID,
				"achievement_id": ua.Achievement.ID,
				"slug":           ua.Achievement.Slug,
				"name":           ua.Achievement.Name,
				"description":    ua.Achievement.Description,
				"icon_url":       ua.Achievement.IconURL,
				"unlocked_at":    ua.UnlockedAt,
			})
		}
		return c.JSON(response)
	})

	userGroup.Get("/progress/challenges", func(c *fiber.Ctx) error {
		challenges, err := svc.Challenges(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to get challenges", err)
		}
		return c.JSON(challenges)
	})

	userGroup.Get("/notifications", func(c *fiber.Ctx) error {
		notes, err := svc.Store.ListNotifications(c.UserContext(), middleware.UserID(c), queryLimit(c, defaultNotificationLimit))
		if err != nil {
			return fail(c, "failed to get notifications", err)
		}
		return c.JSON(notes)
	})

	securedGroup.Get("/leaderboard/current", func(c *fiber.Ctx) error {
		season, standings, err := svc.ActiveSeasonStandings(c.UserContext(), queryLimit(c, services.DefaultStandingsLimit))
		if err != nil {
			return fail(c, "failed to get current leaderboard", err)
		}
		return c.JSON(fiber.Map{"season": season, "standings": standings})
	})

	securedGroup.Get("/leaderboard/seasons/:id", func(c *fiber.Ctx) error {
		if uuid.Validate(c.Params("id")) != nil {
			return notFoundParam(c, "season")
		}
		season, standings, err := svc.SeasonStandings(c.UserContext(), c.Params("id"), queryLimit(c, services.DefaultStandingsLimit))
		if err != nil {
			return fail(c, "failed to get season standings", err)
		}
		return c.JSON(fiber.Map{"season": season, "standings": standings})
	})

	securedGroup.Get("/levels/:xp", func(c *fiber.Ctx) error {
		xp, err := strconv.ParseInt(c.Params("xp"), 10, 64)
		if err != nil || xp < 0 {
			return badRequest(c, "xp must be a non-negative integer", c.Params("xp"))
		}
		level := svc.CalculateLevel(xp)
		return c.JSON(fiber.Map{
			"xp":            xp,
			"level":         level,
			"next_level_xp": svc.XPForNextLevel(level),
			"progress":      svc.XPProgress(xp, level),
		})
	})

	// Admin endpoints
	adminGroup := securedGroup.Group("/s/admin")

	adminGroup.Post("/xp/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID     string `json:"user_id"`
			EventType  string `json:"event_type"`
			SourceID   string `json:"source_id"`
			SourceType string `json:"source_type"`
			XP         *int64 `json:"xp"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err.Error())
		}
		if err := uuid.Validate(req.UserID); err != nil {
			return badRequest(c, "invalid user_id", err.Error())
		}
		if req.EventType == "" {
			return badRequest(c, "event_type is required", "")
		}

		opts := []services.AwardOption{services.WithSource(req.SourceID, req.SourceType)}
		if req.XP != nil {
			opts = append(opts, services.WithCustomXP(*req.XP))
		}
		result, err := svc.AwardXP(c.UserContext(), req.UserID, models.EventType(req.EventType), opts...)
		if err != nil {
			return fail(c, "XP award failed", err)
		}
		log.Info("admin xp grant", "admin_id", middleware.UserID(c), "user_id", req.UserID,
			"event_type", req.EventType, "xp", result.NewXP)

		return c.JSON(fiber.Map{
			"message": "XP granted successfully",
			"user_id": req.UserID,
			"result":  result,
		})
	})

	adminGroup.Post("/challenges/:id/complete", func(c *fiber.Ctx) error {
		userID, err := parseUserRef(c)
		if err != nil {
			return badRequest(c, "invalid request", err.Error())
		}
		if err := svc.CompleteChallenge(c.UserContext(), userID, c.Params("id")); err != nil {
			return fail(c, "challenge completion failed", err)
		}
		return c.JSON(fiber.Map{"message": "challenge completed", "user_id": userID, "challenge_id": c.Params("id")})
	})

	adminGroup.Post("/badges/:id/award", func(c *fiber.Ctx) error {
		userID, err := parseUserRef(c)
		if err != nil {
			return badRequest(c, "invalid request", err.Error())
		}
		granted, err := svc.AwardBadge(c.UserContext(), userID, c.Params("id"))
		if err != nil {
			return fail(c, "badge award failed", err)
		}
		return c.JSON(fiber.Map{"granted": granted, "user_id": userID, "badge_id": c.Params("id")})
	})

	adminGroup.Post("/achievements/:id/unlock", func(c *fiber.Ctx) error {
		userID, err := parseUserRef(c)
		if err != nil {
			return badRequest(c, "invalid request", err.Error())
		}
		granted, err := svc.UnlockAchievement(c.UserContext(), userID, c.Params("id"))
		if err != nil {
			return fail(c, "achievement unlock failed", err)
		}
		return c.JSON(fiber.Map{"granted": granted, "user_id": userID, "achievement_id": c.Params("id")})
	})

	adminGroup.Post("/users/:id/influence", func(c *fiber.Ctx) error {
		if uuid.Validate(c.Params("id")) != nil {
			return notFoundParam(c, "user")
		}
		score, err := svc.UpdateInfluenceScore(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, "influence update failed", err)
		}
		return c.JSON(fiber.Map{"user_id": c.Params("id"), "influence_score": score})
	})
}
