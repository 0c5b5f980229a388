package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"editpdf/internal/docconv"
	"editpdf/internal/queue"
)

// CheckConverter verifies that the conversion service answers its health endpoint.
func CheckConverter(ctx context.Context, baseURL, token string) Result {
	const name = "Converter"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := docconv.NewClient(base, token, 5*time.Second, nil)
	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeConverterError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckQueueDatabase opens the queue database and runs its health check.
func CheckQueueDatabase(ctx context.Context, path string) Result {
	const name = "Queue database"

	store, err := queue.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()

	health, err := store.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	switch {
	case !health.TableExists:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: queue table missing)", path)}
	case len(health.MissingColumns) > 0:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: missing columns %s)", path, strings.Join(health.MissingColumns, ", "))}
	case !health.IntegrityCheck:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: integrity check failed)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d queued)", path, health.TotalEntries)}
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

func summarizeConverterError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (converter unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (converter unreachable)"
	}
	return err.Error()
}
