package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/MeKo-Tech/stylizer/internal/pipeline"
	"github.com/MeKo-Tech/stylizer/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "stylizer",
	Short: "Turn photographs into sketches, paintings and cartoons",
	Long: `Stylizer applies artistic styles to photographs: pencil sketch, oil painting,
2D cartoon, 3D cartoon, comic and anime.

Every style is a declarative sequence of classic image filters (edge-preserving
smoothing, color quantization, edge detection, color-space adjustments), so
results are deterministic for a given input. Additional styles can be declared
in the config file under "styles".`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().Int("max-dimension", 1920, "Longest side of the working image; larger inputs are downscaled")
	rootCmd.PersistentFlags().String("history", "", "SQLite database recording every transform (disabled when empty)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"verbose", "verbose"},
		{"log-format", "log-format"},
		{"max-dimension", "max-dimension"},
		{"history", "history"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, rootCmd.PersistentFlags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("STYLIZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// newRegistry returns the built-in styles plus any declared under "styles"
// in the config file.
func newRegistry() (*style.Registry, error) {
	reg := style.NewRegistry()
	if raw := viper.Get("styles"); raw != nil {
		if err := reg.RegisterAll(raw); err != nil {
			return nil, fmt.Errorf("invalid styles in config: %w", err)
		}
	}
	return reg, nil
}

// newRunner builds a runner from the global flags.
func newRunner(stageDir string) (*pipeline.Runner, error) {
	reg, err := newRegistry()
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(pipeline.Options{
		MaxDimension: viper.GetInt("max-dimension"),
		StageDir:     stageDir,
		Registry:     reg,
		Logger:       logger,
	}), nil
}
