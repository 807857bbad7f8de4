package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/amikos-tech/pure-qnn/config"
	"github.com/amikos-tech/pure-qnn/qnn"
)

type rootOptions struct {
	configPath      string
	logLevel        string
	workDir         string
	backend         string
	model           string
	inputList       string
	labels          string
	numClasses      int
	profiling       string
	backendLogLevel string
	outputTensor    string
	outputFormat    string
	debug           bool
	exportPath      bool

	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "qnn-classify",
		Short:         "Classify images with a QNN backend and model library",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setupLogging(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Configuration file (.toml, .yaml, .yml or .json)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	flags.StringVarP(&opts.workDir, "workdir", "w", "", "Working directory holding inputs; results are written here")
	flags.StringVar(&opts.backend, "backend", "", "Backend library, e.g. libQnnHtp.so")
	flags.StringVar(&opts.model, "model", "", "Model library; omit when the model is embedded in the backend")
	flags.StringVar(&opts.inputList, "input-list", "", "Input list naming the raw input files of each batch")
	flags.StringVar(&opts.labels, "labels", "", "Label file with one class per line")
	flags.IntVar(&opts.numClasses, "num-classes", 0, "Number of classes the model scores")
	flags.StringVar(&opts.profiling, "profiling", "", "Backend profiling level (off, basic, detailed)")
	flags.StringVar(&opts.backendLogLevel, "backend-log-level", "", "Backend log level (error, warn, info, verbose, debug)")
	flags.StringVar(&opts.outputTensor, "output-tensor", "", "Output tensor holding class scores")
	flags.StringVar(&opts.outputFormat, "output-format", "", "Score encoding of the output tensor (float32, float16)")
	flags.BoolVar(&opts.debug, "debug", false, "Keep intermediate tensors when composing graphs")
	flags.BoolVar(&opts.exportPath, "export-search-path", false, "Export the working directory as ADSP_LIBRARY_PATH and LD_LIBRARY_PATH")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newCheckCmd(opts),
		newLabelsCmd(opts),
	)
	return rootCmd
}

func (o *rootOptions) setupLogging(w io.Writer) error {
	level, err := zerolog.ParseLevel(strings.ToLower(o.logLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", o.logLevel, err)
	}
	o.log = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
	qnn.SetLogger(o.log)
	return nil
}

// resolveConfig layers the config file, QNN_* environment variables and
// explicitly set flags, in increasing precedence.
func (o *rootOptions) resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return cfg, qnn.NewError(qnn.KindConfiguration, "", o.configPath, err)
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, qnn.NewError(qnn.KindConfiguration, "", "", err)
	}

	flags := cmd.Flags()
	for name, pair := range map[string]struct {
		dst *string
		val string
	}{
		"workdir":           {&cfg.WorkingDir, o.workDir},
		"backend":           {&cfg.BackendPath, o.backend},
		"model":             {&cfg.ModelPath, o.model},
		"input-list":        {&cfg.InputList, o.inputList},
		"labels":            {&cfg.Labels, o.labels},
		"profiling":         {&cfg.Profiling, o.profiling},
		"backend-log-level": {&cfg.BackendLogLevel, o.backendLogLevel},
		"output-tensor":     {&cfg.OutputTensor, o.outputTensor},
		"output-format":     {&cfg.OutputFormat, o.outputFormat},
	} {
		if flags.Changed(name) {
			*pair.dst = pair.val
		}
	}
	if flags.Changed("num-classes") {
		cfg.NumClasses = o.numClasses
	}
	if flags.Changed("debug") {
		cfg.Debug = o.debug
	}
	if flags.Changed("export-search-path") {
		cfg.ExportSearchPath = o.exportPath
	}

	if cfg.WorkingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return cfg, qnn.NewError(qnn.KindConfiguration, "", "", err)
		}
		cfg.WorkingDir = wd
	}
	return cfg, nil
}
