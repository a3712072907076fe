package routes

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/dict-cli/dict/internal/cache"
	"github.com/dict-cli/dict/internal/server"
)

// RegisterCacheRoutes 暴露 GET /v1/cache（列表报告）与 DELETE /v1/cache/:word。
func RegisterCacheRoutes(app *fiber.App, svc Service, logger *logrus.Logger) {
	if app == nil || svc == nil || logger == nil {
		return
	}

	app.Get("/v1/cache", func(c fiber.Ctx) error {
		var buf bytes.Buffer
		report, err := svc.List(c.Context(), &buf)
		if err != nil {
			if errors.Is(err, cache.ErrDisabled) {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "cache_disabled"})
			}
			logger.WithError(err).WithField("request_id", server.RequestID(c)).Error("cache_list_failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
		}
		c.Set("X-Dict-Cache-Entries", strconv.Itoa(report.Entries))
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Send(buf.Bytes())
	})

	app.Delete("/v1/cache/:word", func(c fiber.Ctx) error {
		word := c.Params("word")
		status, err := svc.Remove(c.Context(), word)
		fields := logrus.Fields{
			"action":     "remove",
			"word":       word,
			"status":     status.String(),
			"request_id": server.RequestID(c),
		}
		switch {
		case errors.Is(err, cache.ErrDisabled):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "cache_disabled"})
		case err != nil:
			var pathErr *cache.PathError
			if errors.As(err, &pathErr) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_word"})
			}
			logger.WithFields(fields).WithError(err).Error("cache_remove_failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
		case status == cache.RemoveNotFound:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
		}
		logger.WithFields(fields).Info("cache_entry_removed")
		return c.SendStatus(fiber.StatusNoContent)
	})
}
