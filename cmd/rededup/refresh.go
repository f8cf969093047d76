package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sherwoodwang/rededup/hasher"
	"github.com/sherwoodwang/rededup/indexer"
	"github.com/sherwoodwang/rededup/internal/dcontext"
	"github.com/sherwoodwang/rededup/repository"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "incrementally update the repository's index for on-disk changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := commandContext()
		if err != nil {
			return err
		}

		repo, err := repository.Open(ctx, repositoryFlag)
		if err != nil {
			return err
		}
		defer repo.Close()

		alg, err := repo.CheckHashAlgorithm(ctx, hasher.Algorithm(""))
		if err != nil {
			return err
		}
		if alg == "" {
			alg = hasher.DefaultAlgorithm
		}

		log := dcontext.GetLoggerWithField(ctx, "repository", repo.Root)
		log.Info("refreshing index")

		if err := indexer.Refresh(ctx, repo.Store, repo.Root, alg); err != nil {
			return fmt.Errorf("rededup: refresh: %w", err)
		}

		log.Info("refresh complete")
		return nil
	},
}
