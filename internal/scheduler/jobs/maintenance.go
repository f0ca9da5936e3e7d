package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wonny/sentiforecast/pkg/logger"
)

// OutputCleanupJob removes old run directories written by PipelineJob
type OutputCleanupJob struct {
	dir    string
	keep   int           // 최근 N개는 항상 보존
	maxAge time.Duration // 이보다 오래된 디렉터리 삭제
	now    func() time.Time
	logger *logger.Logger
}

// NewOutputCleanupJob creates a new output cleanup job
func NewOutputCleanupJob(dir string, keep int, maxAge time.Duration, log *logger.Logger) *OutputCleanupJob {
	return &OutputCleanupJob{
		dir:    dir,
		keep:   keep,
		maxAge: maxAge,
		now:    time.Now,
		logger: log,
	}
}

// Name returns the job name
func (j *OutputCleanupJob) Name() string {
	return "output_cleanup"
}

// Schedule returns the cron schedule (daily 3 AM)
func (j *OutputCleanupJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run deletes run directories older than maxAge, keeping the newest keep ones
func (j *OutputCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled output cleanup")

	entries, err := os.ReadDir(j.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read output dir: %w", err)
	}

	type runDir struct {
		path    string
		modTime time.Time
	}
	var dirs []runDir
	for _, e := range entries {
		// 진행 중인 실행의 staging dir (숨김) 제외
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, runDir{path: filepath.Join(j.dir, e.Name()), modTime: info.ModTime()})
	}

	// 최신순
	sort.Slice(dirs, func(a, b int) bool { return dirs[a].modTime.After(dirs[b].modTime) })

	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	for i, d := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i < j.keep || d.modTime.After(cutoff) {
			continue
		}
		if err := os.RemoveAll(d.path); err != nil {
			return fmt.Errorf("remove %s: %w", d.path, err)
		}
		removed++
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Output cleanup completed")
	}

	return nil
}
