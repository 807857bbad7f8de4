package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/amikos-tech/pure-qnn/classify"
	"github.com/amikos-tech/pure-qnn/qnn"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and label file, then load and unload the libraries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, root)
		},
	}
}

func runCheck(cmd *cobra.Command, root *rootOptions) error {
	cfg, err := root.resolveConfig(cmd)
	if err != nil {
		return err
	}
	sessionCfg, err := cfg.ToSession()
	if err != nil {
		return err
	}
	if _, err := cfg.Format(); err != nil {
		return err
	}
	labels, err := classify.LoadLabels(cfg.LabelsPath(), cfg.NumClasses)
	if err != nil {
		return err
	}
	manifest, err := qnn.ParseInputManifest(sessionCfg.InputManifest, sessionCfg.WorkingDir)
	if err != nil {
		return qnn.NewError(qnn.KindConfiguration, "", sessionCfg.InputManifest, err)
	}
	if err := manifest.Validate(); err != nil {
		return qnn.NewError(qnn.KindConfiguration, "", sessionCfg.InputManifest, err)
	}

	_, lib, err := qnn.Load(sessionCfg.BackendPath, sessionCfg.ModelPath)
	if err != nil {
		return err
	}
	if err := lib.Close(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "backend:  %s (%s)\n", lib.BackendPath(), fileSize(lib.BackendPath()))
	if lib.Embedded() {
		fmt.Fprintln(out, "model:    embedded in backend")
	} else {
		fmt.Fprintf(out, "model:    %s (%s)\n", lib.ModelPath(), fileSize(lib.ModelPath()))
	}
	fmt.Fprintf(out, "symbols:  %d resolved\n", len(qnn.RequiredSymbols()))
	fmt.Fprintf(out, "labels:   %d\n", len(labels))
	fmt.Fprintf(out, "batches:  %d\n", len(manifest.Batches))
	return nil
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "unknown size"
	}
	return humanize.Bytes(uint64(info.Size()))
}
