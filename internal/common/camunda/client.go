// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"festival-workers/internal/common/config"
	"festival-workers/internal/common/resilience"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ConnectPolicy is the broker connection retry used at startup.
var ConnectPolicy = resilience.RetryPolicy{MaxAttempts: 10, BaseDelay: 2 * time.Second}

// Connect creates the Zeebe client and waits until the broker answers a
// topology request.
func Connect(ctx context.Context, cfg config.CamundaConfig, policy resilience.RetryPolicy, log Logger) (zbc.Client, error) {
	policy.OnRetry = func(name string, attempt int, delay time.Duration, err error) {
		log.Warn(name+" failed, retrying", map[string]interface{}{
			"attempt":     attempt,
			"maxAttempts": policy.MaxAttempts,
			"nextRetryIn": delay.String(),
			"error":       err.Error(),
		})
	}

	return resilience.Retry(ctx, policy, "Zeebe connection", func(ctx context.Context) (zbc.Client, error) {
		client, err := zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.BrokerAddress,
			UsePlaintextConnection: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
		}
		if err := HealthCheck(ctx, client, config.GetDuration(cfg.RequestTimeout)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to reach Zeebe broker at %s: %w", cfg.BrokerAddress, err)
		}
		return client, nil
	}, isRetryableZeebeError)
}

// HealthCheck sends a topology request bounded by timeout.
func HealthCheck(ctx context.Context, client zbc.Client, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// StartWorker opens a job worker for taskType. It returns nil when the
// worker is disabled.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler worker.JobHandler, log Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return jw
}

// isRetryableZeebeError checks if the error is transient and should be retried.
func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
