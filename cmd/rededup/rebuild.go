package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sherwoodwang/rededup/hasher"
	"github.com/sherwoodwang/rededup/indexer"
	"github.com/sherwoodwang/rededup/internal/dcontext"
	"github.com/sherwoodwang/rededup/repository"
)

var rebuildHashAlgorithm string

func init() {
	rebuildCmd.Flags().StringVar(&rebuildHashAlgorithm, "hash-algorithm", string(hasher.DefaultAlgorithm), "hash algorithm to (re)build the index with")
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "discard and rebuild the repository's entire index",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := commandContext()
		if err != nil {
			return err
		}

		alg := hasher.Algorithm(rebuildHashAlgorithm)
		if !alg.Available() {
			return fmt.Errorf("rededup: unsupported hash algorithm %q", rebuildHashAlgorithm)
		}

		repo, err := repository.Init(repositoryFlag)
		if err != nil {
			return err
		}
		defer repo.Close()

		log := dcontext.GetLoggerWithField(ctx, "repository", repo.Root)
		log.Info("rebuilding index")

		if err := indexer.Rebuild(ctx, repo.Store, repo.Root, alg); err != nil {
			return fmt.Errorf("rededup: rebuild: %w", err)
		}

		log.Info("rebuild complete")
		return nil
	},
}
