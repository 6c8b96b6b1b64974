package services

import (
	"context"
	"fmt"
	"net/http"
)

// Checker is a dependency that can report whether it is reachable
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a function to Checker
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// HTTPCheck reports an endpoint as healthy when it answers with a status
// below 500
func HTTPCheck(client *http.Client, url string) Checker {
	if client == nil {
		client = http.DefaultClient
	}
	return CheckFunc(func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return nil
	})
}
