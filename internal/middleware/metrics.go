package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var orderOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "order_operations_total",
		Help: "Total order API operations by operation and result.",
	},
	[]string{"operation", "result"},
)

func init() {
	prometheus.MustRegister(orderOperations)
}

// RecordOperation counts the outcome of the wrapped order operation.
func RecordOperation(operation string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		result := "success"
		if err != nil || c.Response().StatusCode() >= 400 {
			result = "failure"
		}
		orderOperations.WithLabelValues(operation, result).Inc()
		return err
	}
}

// MetricsHandler exposes the prometheus registry over Fiber.
func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
