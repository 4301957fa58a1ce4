package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Brownie44l1/emotion-api/internal/media"
	"github.com/Brownie44l1/emotion-api/internal/model"
	"github.com/Brownie44l1/emotion-api/internal/pipeline"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var predictCmd = &cobra.Command{
	Use:   "predict FILE...",
	Short: "Predict the emotion in local image or video files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().Bool("scores", false, "Print the score of every label")
}

func runPredict(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	showScores, _ := cmd.Flags().GetBool("scores")
	out := cmd.OutOrStdout()

	var bar *progressbar.ProgressBar
	if len(args) > 1 {
		bar = progressbar.NewOptions(len(args),
			progressbar.OptionSetDescription("Predicting"),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var failed int
	for _, path := range args {
		prediction, err := predictFile(cmd, rt.service, path)
		if bar != nil {
			bar.Add(1)
		}
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			continue
		}
		printPrediction(out, path, prediction, showScores)
	}
	if bar != nil {
		bar.Finish()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func predictFile(cmd *cobra.Command, svc *pipeline.Service, path string) (model.Prediction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("failed to read file: %w", err)
	}
	// Local files have no declared type, so the content is sniffed.
	upload, err := media.New(data, "", filepath.Base(path))
	if err != nil {
		return model.Prediction{}, err
	}
	return svc.Predict(cmd.Context(), upload)
}

func printPrediction(w io.Writer, path string, p model.Prediction, showScores bool) {
	fmt.Fprintf(w, "%s\t%s\t%.3f\n", path, p.Label, p.Confidence)
	if !showScores {
		return
	}
	for _, label := range model.Labels() {
		fmt.Fprintf(w, "  %-10s %.4f\n", label, p.Scores[label])
	}
}
