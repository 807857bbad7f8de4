// Package config loads controller settings from a file and the environment
// and turns them into a qnn.SessionConfig.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/amikos-tech/pure-qnn/classify"
	"github.com/amikos-tech/pure-qnn/qnn"
)

// Config holds the controller's settings. Enumerated values are kept as
// strings until ToSession parses them.
type Config struct {
	WorkingDir       string `json:"working_dir" yaml:"working_dir" toml:"working_dir"`
	BackendPath      string `json:"backend" yaml:"backend" toml:"backend"`
	ModelPath        string `json:"model" yaml:"model" toml:"model"`
	InputList        string `json:"input_list" yaml:"input_list" toml:"input_list"`
	Labels           string `json:"labels" yaml:"labels" toml:"labels"`
	NumClasses       int    `json:"num_classes" yaml:"num_classes" toml:"num_classes"`
	Profiling        string `json:"profiling" yaml:"profiling" toml:"profiling"`
	InputPrecision   string `json:"input_precision" yaml:"input_precision" toml:"input_precision"`
	OutputPrecision  string `json:"output_precision" yaml:"output_precision" toml:"output_precision"`
	BackendLogLevel  string `json:"backend_log_level" yaml:"backend_log_level" toml:"backend_log_level"`
	OutputTensor     string `json:"output_tensor" yaml:"output_tensor" toml:"output_tensor"`
	OutputFormat     string `json:"output_format" yaml:"output_format" toml:"output_format"`
	Debug            bool   `json:"debug" yaml:"debug" toml:"debug"`
	ExportSearchPath bool   `json:"export_search_path" yaml:"export_search_path" toml:"export_search_path"`
}

// Default returns the settings of the bundled ImageNet classifier: float
// inputs, float outputs and a 1000-line label file next to the input list.
func Default() Config {
	return Config{
		InputList:       "input_list.txt",
		Labels:          "imagenet-classes.txt",
		NumClasses:      1000,
		Profiling:       "off",
		InputPrecision:  "float",
		OutputPrecision: "float_only",
		BackendLogLevel: "warn",
		OutputTensor:    classify.ClassLogitsTensor,
		OutputFormat:    "float32",
	}
}

// Load reads a configuration file over Default based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Environment variables read by ApplyEnv.
const (
	EnvWorkingDir       = "QNN_WORKING_DIR"
	EnvBackendPath      = "QNN_BACKEND_PATH"
	EnvModelPath        = "QNN_MODEL_PATH"
	EnvInputList        = "QNN_INPUT_LIST"
	EnvLabels           = "QNN_LABELS"
	EnvNumClasses       = "QNN_NUM_CLASSES"
	EnvProfiling        = "QNN_PROFILING"
	EnvBackendLogLevel  = "QNN_BACKEND_LOG_LEVEL"
	EnvDebug            = "QNN_DEBUG"
	EnvExportSearchPath = "QNN_EXPORT_SEARCH_PATH"
)

// ApplyEnv overlays every QNN_* variable that is set and non-empty.
func ApplyEnv(cfg *Config) error {
	for name, dst := range map[string]*string{
		EnvWorkingDir:      &cfg.WorkingDir,
		EnvBackendPath:     &cfg.BackendPath,
		EnvModelPath:       &cfg.ModelPath,
		EnvInputList:       &cfg.InputList,
		EnvLabels:          &cfg.Labels,
		EnvProfiling:       &cfg.Profiling,
		EnvBackendLogLevel: &cfg.BackendLogLevel,
	} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvNumClasses)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %q", EnvNumClasses, v)
		}
		cfg.NumClasses = n
	}
	for name, dst := range map[string]*bool{
		EnvDebug:            &cfg.Debug,
		EnvExportSearchPath: &cfg.ExportSearchPath,
	} {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			continue
		}
		v, err := parseBoolEnv(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}

func parseBoolEnv(name string) (bool, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return false, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err == nil {
		return parsed, nil
	}

	switch strings.ToLower(value) {
	case "1", "yes", "y", "on":
		return true, nil
	case "0", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value for %s: %q (expected true/false, 1/0, yes/no, on/off)", name, value)
	}
}

// ToSession parses the enumerated settings into a qnn.SessionConfig.
// Failures are qnn configuration errors.
func (c Config) ToSession() (qnn.SessionConfig, error) {
	profiling, err := qnn.ParseProfilingLevel(c.Profiling)
	if err != nil {
		return qnn.SessionConfig{}, configError(err)
	}
	input, err := qnn.ParseInputPrecision(c.InputPrecision)
	if err != nil {
		return qnn.SessionConfig{}, configError(err)
	}
	output, err := qnn.ParseOutputPrecision(c.OutputPrecision)
	if err != nil {
		return qnn.SessionConfig{}, configError(err)
	}
	logLevel, err := qnn.ParseLogLevel(c.BackendLogLevel)
	if err != nil {
		return qnn.SessionConfig{}, configError(err)
	}

	return qnn.SessionConfig{
		WorkingDir:       c.WorkingDir,
		BackendPath:      c.BackendPath,
		ModelPath:        c.ModelPath,
		InputManifest:    c.InputList,
		Profiling:        profiling,
		InputPrecision:   input,
		OutputPrecision:  output,
		BackendLogLevel:  logLevel,
		Debug:            c.Debug,
		ExportSearchPath: c.ExportSearchPath,
	}.Resolved(), nil
}

// LabelsPath returns the label file path, resolved against WorkingDir.
func (c Config) LabelsPath() string {
	path := strings.TrimSpace(c.Labels)
	if path == "" || filepath.IsAbs(path) || c.WorkingDir == "" {
		return path
	}
	return filepath.Join(strings.TrimSpace(c.WorkingDir), path)
}

// Format parses OutputFormat.
func (c Config) Format() (classify.Format, error) {
	switch strings.ToLower(strings.TrimSpace(c.OutputFormat)) {
	case "", "float32":
		return classify.Float32, nil
	case "float16":
		return classify.Float16, nil
	default:
		return classify.Float32, configError(fmt.Errorf("invalid output format %q (expected float32 or float16)", c.OutputFormat))
	}
}

func configError(err error) error {
	return qnn.NewError(qnn.KindConfiguration, "", "", err)
}
