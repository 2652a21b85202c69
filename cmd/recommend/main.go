package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/propsignal/incentive-recommender/internal/commands"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "recommend",
		Short: "Incentive recommendation pipeline for property owners",
		Long: `Recommend trains and serves an incentive recommendation model.
Training cleans and joins the incentive catalog, property attributes, and
behavior history into a supervised matrix, freezes the feature schema, and
fits a preprocessing + classifier pipeline. Serving reconstructs the frozen
schema from partial request payloads using the same derivation logic.`,
		Version: version,
	}

	root.AddCommand(
		commands.NewTrainCmd(),
		commands.NewServeCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
