package combine

import (
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// processConcurrently reads files with a pool of workers. The returned
// contents are unordered; files that could not be read are listed separately.
func processConcurrently(files []string, root string, maxWorkers int, logger *zap.Logger) ([]FileContent, []string) {
	if len(files) == 0 {
		return nil, nil
	}
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	if maxWorkers > len(files) {
		maxWorkers = len(files)
	}

	jobs := make(chan string, len(files))
	results := make(chan workResult, len(files))
	var wg sync.WaitGroup

	logger.Debug("Initializing worker pool", zap.Int("workers", maxWorkers))
	for w := 0; w < maxWorkers; w++ {
		wg.Add(1)
		go worker(jobs, results, root, &wg, logger.With(zap.Int("workerID", w)))
	}

	for _, file := range files {
		jobs <- file
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var contents []FileContent
	var failed []string
	for r := range results {
		if r.err != nil {
			failed = append(failed, r.rel)
			continue
		}
		contents = append(contents, r.content)
	}
	logger.Debug("All files processed", zap.Int("processedFiles", len(contents)), zap.Int("failedFiles", len(failed)))
	return contents, failed
}

type workResult struct {
	rel     string
	content FileContent
	err     error
}

func worker(jobs <-chan string, results chan<- workResult, root string, wg *sync.WaitGroup, logger *zap.Logger) {
	defer wg.Done()
	for rel := range jobs {
		content, err := processSingleFile(root, rel)
		if err != nil {
			logger.Error("Worker failed to process file", zap.String("file", rel), zap.Error(err))
		}
		results <- workResult{rel: rel, content: content, err: err}
	}
}
