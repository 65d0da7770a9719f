package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/thisisjab/oafilter/api"
	"github.com/thisisjab/oafilter/catalog"
	"github.com/thisisjab/oafilter/entity"
	"github.com/thisisjab/oafilter/processor"
	"github.com/thisisjab/oafilter/source"
	"github.com/thisisjab/oafilter/storage"
	"go.yaml.in/yaml/v3"
)

type Config struct {
	Logger                LoggerConfig      `yaml:"logger"`
	API                   api.Config        `yaml:"api"`
	Storage               *StorageConfig    `yaml:"storage"`
	Processors            []ProcessorConfig `yaml:"processors"`
	Sources               []SourceConfig    `yaml:"sources"`
	DocumentsBufferSize   uint              `yaml:"documents_buffer_size"`
	ProcessorWorkersCount uint              `yaml:"processor_workers_count"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Type   string `yaml:"type"`
	Output string `yaml:"output"`
}

type StorageConfig struct {
	Type   string `yaml:"type"`
	Config any    `yaml:"config"`
}

type ProcessorConfig struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Config any    `yaml:"config"`
}

type SourceConfig struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Collection string   `yaml:"collection"`
	Processors []string `yaml:"processors"`
	Config     any      `yaml:"config"`
}

type FileSourceConfig struct {
	Path string `yaml:"path"`
}

type InlineSourceConfig struct {
	Queryables []entity.Queryable `yaml:"queryables"`
}

// Components are the parts of the application described by a Config.
type Components struct {
	Catalog catalog.Config
	API     api.Config

	// Storage is nil when saved filters are disabled.
	Storage *storage.ClickHouseStorage
}

// Load reads a YAML config file.
func Load(path string) (Config, error) {
	fileContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read config file content: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(fileContent, &cfg); err != nil {
		return Config{}, fmt.Errorf("cannot parse config file: %w", err)
	}

	return cfg, nil
}

// Parse builds the logger and all components. The logger is returned as soon as it could
// be created, even when a later step fails.
func (cfg Config) Parse() (*Components, *slog.Logger, error) {
	logger, err := ParseLoggerConfig(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create logger: %w", err)
	}

	var st *storage.ClickHouseStorage
	if cfg.Storage != nil {
		st, err = parseStorageConfig(*cfg.Storage)
		if err != nil {
			return nil, logger, fmt.Errorf("cannot create storage: %w", err)
		}
	}

	processors := make(map[string]catalog.Processor, len(cfg.Processors))
	for _, pc := range cfg.Processors {
		if _, ok := processors[pc.Name]; ok {
			return nil, logger, fmt.Errorf("duplicate processor name `%s`", pc.Name)
		}

		p, err := parseProcessorConfig(pc)
		if err != nil {
			return nil, logger, fmt.Errorf("cannot create processor `%s`: %w", pc.Name, err)
		}
		processors[pc.Name] = p
	}

	sources := make(map[string]catalog.Source, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		if _, ok := sources[sc.Name]; ok {
			return nil, logger, fmt.Errorf("duplicate source name `%s`", sc.Name)
		}

		s, err := parseSourceConfig(logger, sc)
		if err != nil {
			return nil, logger, fmt.Errorf("cannot create source `%s`: %w", sc.Name, err)
		}
		sources[sc.Name] = s
	}

	return &Components{
		Catalog: catalog.Config{
			Sources:               sources,
			Processors:            processors,
			DocumentsBufferSize:   cfg.DocumentsBufferSize,
			ProcessorWorkersCount: cfg.ProcessorWorkersCount,
		},
		API:     cfg.API,
		Storage: st,
	}, logger, nil
}

// ParseLoggerConfig creates the logger described by cfg.
func ParseLoggerConfig(cfg LoggerConfig) (*slog.Logger, error) {
	var handler slog.Handler

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	var w io.Writer
	switch cfg.Output {
	case "stdout", "":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		return nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	switch cfg.Type {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "colored-text", "":
		handler = tint.NewHandler(w, &tint.Options{Level: level, AddSource: true})
	default:
		return nil, fmt.Errorf("invalid log type: %s", cfg.Type)
	}

	return slog.New(handler), nil
}

func parseStorageConfig(cfg StorageConfig) (*storage.ClickHouseStorage, error) {
	switch cfg.Type {
	case "clickhouse":
		var clickHouseConfig storage.ClickHouseStorageConfig

		if err := remarshal(cfg.Config, &clickHouseConfig); err != nil {
			return nil, fmt.Errorf("cannot parse clickhouse storage config: %w", err)
		}

		s, err := storage.NewClickHouseStorage(clickHouseConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create clickhouse storage: %w", err)
		}

		return s, nil

	default:
		return nil, fmt.Errorf("invalid storage type: %s", cfg.Type)
	}
}

func parseSourceConfig(logger *slog.Logger, cfg SourceConfig) (catalog.Source, error) {
	if cfg.Collection == "" {
		return nil, errors.New("source has no collection")
	}

	switch cfg.Type {
	case "file":
		var fileConfig FileSourceConfig
		if err := remarshal(cfg.Config, &fileConfig); err != nil {
			return nil, fmt.Errorf("cannot create file source: %w", err)
		}

		if fileConfig.Path == "" {
			return nil, errors.New("file source has no path")
		}

		return source.NewFileSource(logger, cfg.Name, cfg.Collection, fileConfig.Path, cfg.Processors), nil

	case "inline":
		var inlineConfig InlineSourceConfig
		if err := remarshal(cfg.Config, &inlineConfig); err != nil {
			return nil, fmt.Errorf("cannot create inline source: %w", err)
		}

		// Inline queryables go through the same decoding as documents from files.
		data, err := json.Marshal(inlineConfig.Queryables)
		if err != nil {
			return nil, fmt.Errorf("cannot create inline source: %w", err)
		}

		return source.NewStaticSource(cfg.Name, cfg.Collection, data, cfg.Processors), nil

	default:
		return nil, fmt.Errorf("invalid source type: %s", cfg.Type)
	}
}

func parseProcessorConfig(cfg ProcessorConfig) (catalog.Processor, error) {
	switch cfg.Type {
	case "lua":
		var luaConfig processor.LuaProcessorConfig
		if err := remarshal(cfg.Config, &luaConfig); err != nil {
			return nil, fmt.Errorf("cannot create lua processor: %w", err)
		}

		luaConfig.Name = cfg.Name

		p, err := processor.NewLuaProcessor(luaConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create lua processor: %w", err)
		}

		return p, nil

	case "finalize":
		var finalizeConfig processor.FinalizeProcessorConfig
		if err := remarshal(cfg.Config, &finalizeConfig); err != nil {
			return nil, fmt.Errorf("cannot create finalize processor: %w", err)
		}

		finalizeConfig.Name = cfg.Name

		p, err := processor.NewFinalizeProcessor(finalizeConfig)
		if err != nil {
			return nil, fmt.Errorf("cannot create finalize processor: %w", err)
		}

		return p, nil

	default:
		return nil, fmt.Errorf("invalid processor type: %s", cfg.Type)
	}
}

// remarshal takes an input value, marshals it to YAML, and then unmarshals it into a new value of the same type.
// This is useful for converting generic interfaces (like map[string]any) into concrete struct types.
// The output parameter must be a pointer to the target type.
func remarshal(input any, output any) error {
	// Marshal the input to YAML
	yamlBytes, err := yaml.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal to YAML: %w", err)
	}

	// Unmarshal the YAML into the output
	if err := yaml.Unmarshal(yamlBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal from YAML: %w", err)
	}

	return nil
}
