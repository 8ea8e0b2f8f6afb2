package handler

import (
	"net/http"
	"time"

	"hippocampus/services"

	"github.com/gin-gonic/gin"
)

// HealthHandler is the liveness check. It never probes; the status reflects
// the last outcome recorded by the detailed check.
func HealthHandler(c *gin.Context, monitor *services.HealthMonitor) {
	status := services.StatusHealthy
	for _, name := range monitor.Names() {
		if !monitor.Healthy(name) {
			status = services.StatusDegraded
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DetailedHealthHandler probes every dependency. A degraded service still
// answers 503 so load balancers can act on it.
func DetailedHealthHandler(c *gin.Context, monitor *services.HealthMonitor) {
	report := monitor.Check(c.Request.Context())

	status := http.StatusOK
	if report.Status != services.StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
