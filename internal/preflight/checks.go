package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"quill/internal/catalog"
	"quill/internal/config"
)

// CheckToken reports whether a bearer token is configured.
func CheckToken(token string) Result {
	const name = "API token"
	token = strings.TrimSpace(token)
	if token == "" {
		return Result{Name: name, Detail: "missing (set QUILL_API_TOKEN or api.token)"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("configured (%d chars)", len(token))}
}

// CheckBackend verifies that the catalog endpoint is reachable and accepts
// the configured token. It uses a 5-second timeout and a single attempt.
func CheckBackend(ctx context.Context, cfg *config.Config) Result {
	const name = "Backend"

	endpoints, err := cfg.APIEndpoints()
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	base := strings.TrimRight(endpoints.Catalog, "/")
	if base == "" {
		return Result{Name: name, Detail: "missing catalog url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/"+string(catalog.KindFormats), nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("backend request failed (%v)", err)}
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(cfg.API.Token))
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeRequestError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid token)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("backend request failed (%d)", resp.StatusCode)}
	}
}

// CheckPreviewBind verifies that the preview server can listen on bind.
func CheckPreviewBind(bind string) Result {
	const name = "Preview server"
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", bind, err)}
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (bind ok as %s)", bind, addr)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeRequestError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out (backend unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out (backend unreachable)"
	}
	return err.Error()
}
