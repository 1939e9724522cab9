package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/MeKo-Tech/stylizer/internal/pipeline"
	"github.com/MeKo-Tech/stylizer/internal/style"
	"github.com/MeKo-Tech/stylizer/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Apply one or more styles to every image in a directory",
	Example: `  stylizer batch --style comic,anime --input-dir ./photos --output-dir ./styled
  stylizer batch --style all --input-dir ./photos --output-dir ./styled --workers 4`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("style", "s", "", "Comma-separated style names or labels, or \"all\"")
	batchCmd.Flags().String("input-dir", "", "Directory of input images (not recursive)")
	batchCmd.Flags().String("output-dir", "./styled", "Directory for styled images")
	batchCmd.Flags().String("format", "png", "Output format (png, jpg, gif, bmp, tiff)")
	batchCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	batchCmd.Flags().Bool("progress", true, "Show progress bar during batch processing")
	batchCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some images fail")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"batch.style", "style"},
		{"batch.input_dir", "input-dir"},
		{"batch.output_dir", "output-dir"},
		{"batch.format", "format"},
		{"batch.workers", "workers"},
		{"batch.progress", "progress"},
		{"batch.allow_failures", "allow-failures"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, batchCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	styleList := viper.GetString("batch.style")
	inputDir := viper.GetString("batch.input_dir")
	outputDir := viper.GetString("batch.output_dir")
	format := viper.GetString("batch.format")
	workers := viper.GetInt("batch.workers")
	showProgress := viper.GetBool("batch.progress")
	allowFailures := viper.GetBool("batch.allow_failures")

	if logger == nil {
		initLogging()
	}

	if inputDir == "" {
		return fmt.Errorf("--input-dir is required")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	runner, err := newRunner("")
	if err != nil {
		return err
	}
	styles, err := resolveStyles(runner.Registry(), styleList)
	if err != nil {
		return err
	}

	tasks, err := worker.PlanDirectory(inputDir, outputDir, styles, format)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return fmt.Errorf("no supported images found in %s", inputDir)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	logger.Info("Starting batch transform",
		"input_dir", inputDir,
		"output_dir", outputDir,
		"styles", strings.Join(styles, ","),
		"tasks", len(tasks),
		"workers", workers,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	progress := worker.NewTerminalProgress(len(tasks), showProgress)
	pool := worker.New(worker.Config{
		Workers:     workers,
		Transformer: runner,
		OnProgress:  progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failedCount int
	for _, r := range results {
		res := pipeline.Result{
			Style:   r.Task.Style,
			Input:   r.Task.Input,
			Output:  r.Path,
			Width:   r.Width,
			Height:  r.Height,
			Elapsed: r.Elapsed,
		}
		recordHistory(ctx, store, res, r.Err)
		if r.Err != nil {
			failedCount++
			logger.Error("Transform failed", "input", r.Task.Input, "style", r.Task.Style, "error", r.Err)
		}
	}

	logger.Info(progress.Summary())

	if skipped := len(tasks) - len(results); skipped > 0 {
		return fmt.Errorf("batch cancelled with %d images not processed", skipped)
	}
	if failedCount > 0 {
		if allowFailures {
			logger.Warn("Some images failed to transform, but continuing due to --allow-failures flag", "failed_count", failedCount)
			return nil
		}
		return fmt.Errorf("%d images failed to transform", failedCount)
	}
	return nil
}

// resolveStyles turns a comma-separated list of names or labels into
// canonical style names. "all" selects every registered style.
func resolveStyles(reg *style.Registry, list string) ([]string, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, fmt.Errorf("--style is required")
	}
	if strings.EqualFold(list, "all") {
		return reg.Names(), nil
	}

	var names []string
	seen := map[string]bool{}
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		st, ok := reg.Lookup(part)
		if !ok {
			return nil, fmt.Errorf("%w %q (valid: %v)", pipeline.ErrUnknownStyle, part, reg.Names())
		}
		if !seen[st.Name] {
			seen[st.Name] = true
			names = append(names, st.Name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("--style is required")
	}
	return names, nil
}
