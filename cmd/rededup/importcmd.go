package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sherwoodwang/rededup/importer"
	"github.com/sherwoodwang/rededup/internal/dcontext"
	"github.com/sherwoodwang/rededup/repository"
	"github.com/sherwoodwang/rededup/rerrcode"
)

var importCmd = &cobra.Command{
	Use:   "import <source>",
	Short: "merge another repository's index into this one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := commandContext()
		if err != nil {
			return err
		}
		if len(args) != 1 {
			return rerrcode.ErrorCodeUsage.WithArgs("import takes exactly one source repository path")
		}

		dst, err := repository.Open(ctx, repositoryFlag)
		if err != nil {
			return err
		}
		defer dst.Close()

		src, err := repository.Open(ctx, args[0])
		if err != nil {
			return err
		}
		defer src.Close()

		log := dcontext.GetLoggerWithField(ctx, "repository", dst.Root)
		log.Infof("importing from %s", src.Root)

		if err := importer.Import(ctx, src.Store, src.Root, dst.Store, dst.Root); err != nil {
			return fmt.Errorf("rededup: import: %w", err)
		}

		log.Info("import complete")
		return nil
	},
}
