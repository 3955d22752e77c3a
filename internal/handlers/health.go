package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"evermedia/gateway/internal/upstream"
)

type healthResponse struct {
	Status      string `json:"status"`
	Upstream    string `json:"upstream"`
	Sessions    string `json:"sessions"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	upstreamStatus := "ok"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.factory.URL(upstream.EndpointHealth), nil)
	if err == nil {
		resp, err := h.public.Do(req)
		if err != nil || resp.StatusCode >= 500 {
			upstreamStatus = "error"
			h.log.Error().Err(err).Msg("upstream health check failed")
		}
		if resp != nil {
			resp.Body.Close()
		}
	} else {
		upstreamStatus = "error"
	}

	sessionStatus := "ok"
	if h.cache != nil {
		if err := h.cache.Ping(ctx).Err(); err != nil {
			sessionStatus = "error"
			h.log.Error().Err(err).Msg("redis ping failed")
		}
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:      "ok",
		Upstream:    upstreamStatus,
		Sessions:    sessionStatus,
		Environment: h.cfg.Environment,
	})
}
