package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sherwoodwang/rededup/inspect"
	"github.com/sherwoodwang/rededup/repository"
	"github.com/sherwoodwang/rededup/rerrcode"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "print every entry of the repository's index, one line per entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := commandContext()
		if err != nil {
			return err
		}

		repo, err := repository.OpenAllowingTruncating(ctx, repositoryFlag)
		if err != nil {
			return err
		}
		defer repo.Close()

		err = inspect.Walk(ctx, repo.Store, func(l inspect.Line) error {
			fmt.Println(l.String())
			return nil
		})
		if err != nil {
			return rerrcode.ErrorCodeIO.WithArgs(err.Error())
		}
		return nil
	},
}
