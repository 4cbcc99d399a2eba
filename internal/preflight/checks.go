package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"cropdoc/internal/config"
	"cropdoc/internal/kb"
	"cropdoc/internal/services/classifier"
	"cropdoc/internal/services/enhancer"
)

// minFreeBytes is the smallest amount of free space considered healthy
// for the data directory.
const minFreeBytes = 256 << 20

// CheckKnowledgeBase verifies the KB catalog loads cleanly.
func CheckKnowledgeBase(dir string) Result {
	const name = "Knowledge base"
	index, err := kb.Load(dir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dir, err)}
	}
	return Result{Name: name, Passed: true,
		Detail: fmt.Sprintf("%d entries across %d crops", index.Len(), len(index.Crops()))}
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable and writable.
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

// CheckDiskSpace verifies the filesystem holding path has free space
// for the case database to grow.
func CheckDiskSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (only %d MiB free)", path, free>>20)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MiB free)", path, free>>20)}
}

// CheckClassifier verifies the vision endpoint answers.
func CheckClassifier(ctx context.Context, cfg *config.Config) Result {
	const name = "Vision classifier"
	if cfg.Vision.Endpoint == "" {
		return Result{Name: name, Detail: "endpoint missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := classifier.NewClient(cfg.Vision.Endpoint, cfg.Vision.APIKey)
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckEnhancer verifies the generative endpoint answers and the key
// is valid. Single attempt, no retries.
func CheckEnhancer(ctx context.Context, cfg *config.Config) Result {
	const name = "Enhancer"
	if cfg.Enhancer.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := enhancer.NewClient(enhancer.Config{
		APIKey:  cfg.Enhancer.APIKey,
		BaseURL: cfg.Enhancer.Endpoint,
		Model:   cfg.Enhancer.Model,
	}, enhancer.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}
