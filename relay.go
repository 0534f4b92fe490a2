package main

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Zachkp/retro-desktop/internal/content"
)

const missingUpstreamConfig = "Missing API_URL or API_KEY"

// relayRoute describes one pass-through to the content API.
type relayRoute struct {
	// upstream builds the API path and query from the incoming request.
	upstream    func(c *gin.Context) (string, url.Values)
	contentType string
	// disposition, when set, forwards content-disposition with this
	// fallback.
	disposition string
}

func fixedPath(path string) func(*gin.Context) (string, url.Values) {
	return func(*gin.Context) (string, url.Values) { return path, nil }
}

// relay streams the upstream response back to the browser with the API key
// attached server-side.
func relay(client *content.Client, logger zerolog.Logger, route relayRoute) gin.HandlerFunc {
	return func(c *gin.Context) {
		path, query := route.upstream(c)

		resp, err := client.Get(c.Request.Context(), path, query)
		if errors.Is(err, content.ErrNotConfigured) {
			c.String(http.StatusInternalServerError, missingUpstreamConfig)
			return
		}
		if err != nil {
			logger.Error().Err(err).Str("upstream", path).Msg("relay request failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unavailable"})
			return
		}
		defer resp.Body.Close()

		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = route.contentType
		}

		headers := map[string]string{"Cache-Control": "no-store"}
		if route.disposition != "" {
			disposition := resp.Header.Get("Content-Disposition")
			if disposition == "" {
				disposition = route.disposition
			}
			headers["Content-Disposition"] = disposition
		}

		event := logger.Debug().Str("upstream", path).Int("status", resp.StatusCode)
		if resp.ContentLength >= 0 {
			event = event.Str("size", humanize.Bytes(uint64(resp.ContentLength)))
		}
		event.Msg("relaying")

		c.DataFromReader(resp.StatusCode, resp.ContentLength, contentType, resp.Body, headers)
	}
}

// setupRelayRoutes mounts the /api pass-throughs.
func setupRelayRoutes(r *gin.Engine, client *content.Client, limiter *ipRateLimiter, logger zerolog.Logger) {
	logger = logger.With().Str("component", "relay").Logger()

	api := r.Group("/api")
	api.Use(limiter.middleware())

	api.GET("/projects", relay(client, logger, relayRoute{upstream: fixedPath("/projects"), contentType: "application/json"}))
	api.GET("/experiences", relay(client, logger, relayRoute{upstream: fixedPath("/experiences"), contentType: "application/json"}))
	api.GET("/contact", relay(client, logger, relayRoute{upstream: fixedPath("/contact"), contentType: "application/json"}))
	api.GET("/resume", relay(client, logger, relayRoute{upstream: fixedPath("/resume"), contentType: "application/json"}))

	api.GET("/songs/:collection", relay(client, logger, relayRoute{
		upstream: func(c *gin.Context) (string, url.Values) {
			return content.SongsPath(c.Param("collection")), url.Values{"noshuffle": {c.DefaultQuery("noshuffle", "false")}}
		},
		contentType: "application/json",
	}))
	api.GET("/songs/:collection/:id/audio", relay(client, logger, relayRoute{
		upstream: func(c *gin.Context) (string, url.Values) {
			return content.AudioPath(c.Param("collection"), c.Param("id")), nil
		},
		contentType: "audio/mpeg",
	}))

	api.GET("/resume/view", relay(client, logger, relayRoute{upstream: fixedPath("/resume/view"), contentType: "application/pdf"}))
	api.GET("/resume/download", relay(client, logger, relayRoute{
		upstream:    fixedPath("/resume/download"),
		contentType: "application/pdf",
		disposition: "attachment",
	}))
}
