package main

import (
	"fmt"

	"github.com/Brownie44l1/emotion-api/internal/config"
	"github.com/Brownie44l1/emotion-api/internal/logging"
	"github.com/Brownie44l1/emotion-api/internal/model"
	"github.com/Brownie44l1/emotion-api/internal/pipeline"
	"github.com/Brownie44l1/emotion-api/internal/preprocess"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the application version.
const Version = "0.2.0"

var rootCmd = &cobra.Command{
	Use:          "server",
	Short:        "Emotion recognition from face images and short video clips",
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("model", "", "Path to the ONNX model (overrides MODEL_PATH)")
	rootCmd.PersistentFlags().String("metadata", "", "Path to the model metadata JSON/YAML (overrides METADATA_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

// app bundles everything a command needs to run predictions.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	model   *model.Server
	service *pipeline.Service
}

func (rt *app) Close() {
	rt.model.Close()
	_ = rt.logger.Sync()
}

// loadRuntime reads configuration, applies flag overrides and loads the model once.
func loadRuntime(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.ModelPath = v
	}
	if v, _ := cmd.Flags().GetString("metadata"); v != "" {
		cfg.MetadataPath = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	logger.Info("loading model", zap.String("model", cfg.ModelPath), zap.String("metadata", cfg.MetadataPath))
	modelServer, err := model.NewServer(cfg.ModelPath, cfg.MetadataPath,
		model.WithSharedLibrary(cfg.ONNXRuntimeLib),
		model.WithLogger(logger))
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to initialize model server: %w", err)
	}

	pre := preprocess.New(preprocess.Options{
		Size:       modelServer.Metadata.FrameSize(),
		ScratchDir: cfg.ScratchDir,
		Logger:     logger,
	})

	return &app{
		cfg:     cfg,
		logger:  logger,
		model:   modelServer,
		service: pipeline.New(modelServer, pre, logger),
	}, nil
}
