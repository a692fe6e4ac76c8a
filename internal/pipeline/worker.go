package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Worker processes queued jobs against a shared Runner. Uploads land
// under <dataDir>/uploads/<job> and run artifacts under
// <dataDir>/runs/<job>.
type Worker struct {
	runner  *Runner
	stats   *PhaseStats
	dataDir string
	log     *slog.Logger
}

func NewWorker(runner *Runner, stats *PhaseStats, dataDir string, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		runner:  runner,
		stats:   stats,
		dataDir: dataDir,
		log:     log,
	}
}

// Process runs the full pipeline for one job, moving it from queued to
// completed or failed. Phase transitions are pushed into the job as the
// runner reaches them.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	job.Start()

	inputPath, err := w.persistUpload(job)
	if err != nil {
		log.Error("persist upload failed", "error", err)
		job.Fail(err)
		return
	}

	outputDir := filepath.Join(w.dataDir, "runs", job.ID)
	started := time.Now()
	res, err := w.runner.Run(ctx, inputPath, outputDir, job.SetPhase)
	if err != nil {
		log.Error("pipeline run failed", "error", err)
		job.Fail(err)
		return
	}

	w.stats.RecordAll(res.PhaseTimings)
	job.Complete(res)
	log.Info("job complete",
		"run_id", res.RunID,
		"chunks", res.Chunking.TotalChunks,
		"output_dir", res.OutputDir,
		"duration_ms", time.Since(started).Milliseconds())
}

// persistUpload writes the held upload bytes to disk and releases them.
// Each job gets its own upload directory so the stored file keeps the
// original base name, which the parser uses for source and title.
func (w *Worker) persistUpload(job *Job) (string, error) {
	data := job.FileData()
	if data == nil {
		return "", fmt.Errorf("job %s has no file data", job.ID)
	}

	dir := filepath.Join(w.dataDir, "uploads", job.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(job.Filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	job.SetFileData(nil)
	return path, nil
}
