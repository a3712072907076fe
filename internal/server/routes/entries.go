package routes

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/dict-cli/dict/internal/logging"
	"github.com/dict-cli/dict/internal/lookup"
	"github.com/dict-cli/dict/internal/render"
	"github.com/dict-cli/dict/internal/server"
)

// RegisterEntryRoutes 暴露 /v1/entries/:word（原始 JSON）与 /v1/entries/:word/text（纯文本渲染）。
func RegisterEntryRoutes(app *fiber.App, svc Service, logger *logrus.Logger) {
	if app == nil || svc == nil || logger == nil {
		return
	}

	app.Get("/v1/entries/:word", func(c fiber.Ctx) error {
		res, err := lookupFromRequest(c, svc, logger)
		if err != nil {
			return writeLookupError(c, err)
		}
		c.Set("X-Dict-Cache-Hit", strconv.FormatBool(res.CacheHit))
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.Send(res.Payload)
	})

	app.Get("/v1/entries/:word/text", func(c fiber.Ctx) error {
		res, err := lookupFromRequest(c, svc, logger)
		if err != nil {
			return writeLookupError(c, err)
		}
		text, err := render.Text(res.Payload)
		if err != nil {
			return writeLookupError(c, err)
		}
		c.Set("X-Dict-Cache-Hit", strconv.FormatBool(res.CacheHit))
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(text)
	})
}

func lookupFromRequest(c fiber.Ctx, svc Service, logger *logrus.Logger) (*lookup.Result, error) {
	word := c.Params("word")
	opts := lookup.Options{
		Force: queryFlag(c, "force"),
		Skip:  queryFlag(c, "skip"),
	}

	res, err := svc.Lookup(c.Context(), word, opts)
	fields := logging.LookupFields(word, res != nil && res.CacheHit, opts.Force, opts.Skip)
	fields["request_id"] = server.RequestID(c)
	if err != nil {
		logger.WithFields(fields).WithError(err).Warn("lookup_failed")
		return nil, err
	}
	logger.WithFields(fields).Info("lookup_served")
	return res, nil
}

func writeLookupError(c fiber.Ctx, err error) error {
	var noDef *lookup.NoDefinitionError
	var fetchErr *lookup.FetchError
	switch {
	case errors.Is(err, lookup.ErrInvalidWord):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_word"})
	case errors.As(err, &noDef):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "no_definition",
			"title":   noDef.Title,
			"message": noDef.Message,
		})
	case errors.Is(err, render.ErrNoDefinition):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no_definition"})
	case errors.As(err, &fetchErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_failed"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
}

// queryFlag 将 ?force=1 / ?force=true / ?force 解析为布尔值。
func queryFlag(c fiber.Ctx, key string) bool {
	raw, ok := c.Queries()[key]
	if !ok {
		return false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}
