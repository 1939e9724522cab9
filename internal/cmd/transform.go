package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/MeKo-Tech/stylizer/internal/history"
	"github.com/MeKo-Tech/stylizer/internal/imageio"
	"github.com/MeKo-Tech/stylizer/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Apply one style to one image",
	Example: `  stylizer transform --style comic -i photo.jpg -o comic.png
  stylizer transform --style "Pencil Sketch" -i photo.jpg --keep-stages ./stages`,
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().StringP("style", "s", "", "Style name or label (see 'stylizer styles')")
	transformCmd.Flags().StringP("input", "i", "", "Input image")
	transformCmd.Flags().StringP("output", "o", "", "Output image (default: <input>-<style>.png next to the input)")
	transformCmd.Flags().String("keep-stages", "", "Directory receiving a PNG of every intermediate stage")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"transform.style", "style"},
		{"transform.input", "input"},
		{"transform.output", "output"},
		{"transform.keep_stages", "keep-stages"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, transformCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runTransform(cmd *cobra.Command, args []string) error {
	styleName := viper.GetString("transform.style")
	input := viper.GetString("transform.input")
	output := viper.GetString("transform.output")
	stageDir := viper.GetString("transform.keep_stages")

	if logger == nil {
		initLogging()
	}

	if styleName == "" {
		return fmt.Errorf("--style is required")
	}
	if input == "" {
		return fmt.Errorf("--input is required")
	}

	runner, err := newRunner(stageDir)
	if err != nil {
		return err
	}
	st, err := runner.Lookup(styleName)
	if err != nil {
		return err
	}
	if output == "" {
		output = defaultOutputPath(input, st.Name)
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := runner.Run(ctx, st, input, output)
	recordHistory(ctx, store, res, err)
	if err != nil {
		return fmt.Errorf("failed to transform %s: %w", input, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s, %dx%d)\n", input, output, st.Label, res.Width, res.Height)
	return nil
}

// defaultOutputPath places <base>-<style>.png next to input.
func defaultOutputPath(input, styleName string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), base+"-"+styleName+".png")
}

func openHistory() (*history.Store, error) {
	path := viper.GetString("history")
	if path == "" {
		return nil, nil
	}
	store, err := history.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

// recordHistory stores the outcome of a run. Failures to record are logged only.
func recordHistory(ctx context.Context, store *history.Store, res pipeline.Result, runErr error) {
	if store == nil {
		return
	}
	rec := history.Record{
		Style:   res.Style,
		Input:   res.Input,
		Output:  res.Output,
		Width:   res.Width,
		Height:  res.Height,
		Elapsed: res.Elapsed,
		Status:  history.StatusOK,
	}
	if runErr != nil {
		rec.Status = history.StatusFailed
		rec.Error = runErr.Error()
		rec.Output = ""
	} else if img, err := imageio.Load(res.Output); err == nil {
		if thumb, err := history.MakeThumbnail(img); err == nil {
			rec.Thumbnail = thumb
		}
	}
	if _, err := store.Add(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("Failed to record history", "input", res.Input, "error", err)
	}
}
