// Package commands implements the recommend CLI subcommands.
package commands

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/propsignal/incentive-recommender/internal/artifact"
	"github.com/propsignal/incentive-recommender/internal/config"
	"github.com/propsignal/incentive-recommender/internal/dataset"
	"github.com/propsignal/incentive-recommender/internal/trainer"
)

// NewTrainCmd creates the train command.
func NewTrainCmd() *cobra.Command {
	var (
		incentivePath string
		propertyPath  string
		behaviorPath  string
		outputDir     string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the incentive recommendation model",
		Long: `Cleans the three raw input tables, builds the joined training table,
freezes the feature schema, fits the preprocessing and classifier pipeline,
and writes the trained artifact plus a metrics record to the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(incentivePath, propertyPath, behaviorPath, outputDir)
		},
	}

	cmd.Flags().StringVar(&incentivePath, "incentive-data", "", "Path to the incentive catalog CSV")
	cmd.Flags().StringVar(&propertyPath, "property-data", "", "Path to the property/owner attributes CSV")
	cmd.Flags().StringVar(&behaviorPath, "behavior-data", "", "Path to the behavior history CSV")
	cmd.Flags().StringVar(&outputDir, "output-dir", "artifacts", "Directory for the trained artifact and metrics")
	_ = cmd.MarkFlagRequired("incentive-data")
	_ = cmd.MarkFlagRequired("property-data")
	_ = cmd.MarkFlagRequired("behavior-data")
	return cmd
}

func runTrain(incentivePath, propertyPath, behaviorPath, outputDir string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	incentives, err := dataset.ReadCSV(incentivePath)
	if err != nil {
		return err
	}
	properties, err := dataset.ReadCSV(propertyPath)
	if err != nil {
		return err
	}
	behavior, err := dataset.ReadCSV(behaviorPath)
	if err != nil {
		return err
	}

	bundle, metrics, err := trainer.Train(incentives, properties, behavior, trainer.Options{
		TestSize: cfg.Training.TestSize,
		Seed:     cfg.Training.Seed,
		Trees:    cfg.Training.Trees,
	})
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	modelPath := filepath.Join(outputDir, "incentive_recommender.gob")
	metricsPath := filepath.Join(outputDir, "metrics.json")
	if err := artifact.Save(modelPath, bundle); err != nil {
		return err
	}
	if err := artifact.WriteMetrics(metricsPath, metrics); err != nil {
		return err
	}

	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	_, _ = bold.Printf("Training run %s complete\n", metrics.RunID)
	fmt.Printf("Model saved to:   %s\n", modelPath)
	fmt.Printf("Metrics saved to: %s\n", metricsPath)
	fmt.Printf("Rows: %d train / %d holdout, %d features, %d classes\n",
		metrics.TrainRows, metrics.HoldoutRows, len(bundle.Schema.Features), len(bundle.Classes))
	_, _ = green.Printf("Holdout accuracy: %.4f\n", metrics.Accuracy)
	return nil
}
