// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sketch

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers the sketch routes with the router.
//
// Description:
//
//	Registers all /v1/sketch/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Endpoints:
//
//	POST /v1/sketch/extract    - Extract documents from one source
//	POST /v1/sketch/synthesize - Synthesize programs from a sketch
//	GET  /v1/sketch/schema     - JSON Schema for sketches
//	GET  /v1/sketch/health     - Health check
//
// Example:
//
//	handlers, _ := sketch.NewHandlers(extractor, service)
//	v1 := router.Group("/v1")
//	sketch.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	sketch := rg.Group("/sketch")
	{
		sketch.POST("/extract", handlers.HandleExtract)
		sketch.POST("/synthesize", handlers.HandleSynthesize)
		sketch.GET("/schema", handlers.HandleSchema)
		sketch.GET("/health", handlers.HandleHealth)
	}
}

// RegisterMetrics exposes the Prometheus registry on GET /metrics.
func RegisterMetrics(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
