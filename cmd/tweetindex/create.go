// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gwlib/tweetindex/internal/esindex"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Drop and recreate the tweet index",
	Long: `Create deletes the tweet index and its file-record companion if they
exist and recreates them with the canonical mappings. All indexed tweets
and already-indexed file markers are lost.`,
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ix, err := esindex.New(cfg.Index, log)
	if err != nil {
		return err
	}
	if err := ix.WaitReady(ctx); err != nil {
		return err
	}
	if err := ix.Recreate(ctx); err != nil {
		return err
	}

	fmt.Printf("Index %s recreated.\n", ix.Name())
	return nil
}

func init() {
	rootCmd.AddCommand(createCmd)
}
