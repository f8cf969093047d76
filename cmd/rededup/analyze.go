package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sherwoodwang/rededup/analyzer"
	"github.com/sherwoodwang/rededup/hasher"
	"github.com/sherwoodwang/rededup/internal/dcontext"
	"github.com/sherwoodwang/rededup/repository"
	"github.com/sherwoodwang/rededup/rerrcode"
)

var (
	analyzeIncludeAtime bool
	analyzeIncludeCtime bool
	analyzeExcludeOwner bool
	analyzeExcludeGroup bool
)

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeIncludeAtime, "include-atime", false, "require access time to match for files to be considered identical")
	analyzeCmd.Flags().BoolVar(&analyzeIncludeCtime, "include-ctime", false, "require inode change time to match for files to be considered identical")
	analyzeCmd.Flags().BoolVar(&analyzeExcludeOwner, "exclude-owner", false, "do not require owner uid to match")
	analyzeCmd.Flags().BoolVar(&analyzeExcludeGroup, "exclude-group", false, "do not require owner gid to match")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <paths...>",
	Short: "find and report duplicates of files or directories against the repository",
	Args:  cobra.MinimumNArgs(1),
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

		policy := analyzer.DefaultPolicy()
		policy.IncludeAtime = analyzeIncludeAtime
		policy.IncludeCtime = analyzeIncludeCtime
		policy.IncludeOwner = !analyzeExcludeOwner
		policy.IncludeGroup = !analyzeExcludeGroup

		createdAtNS := time.Now().UnixNano()
		log := dcontext.GetLoggerWithField(ctx, "repository", repo.Root)

		for _, path := range args {
			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("rededup: resolve %q: %w", path, err)
			}
			info, err := os.Lstat(absPath)
			if err != nil {
				return rerrcode.ErrorCodeIO.WithArgs(err.Error())
			}

			if info.IsDir() {
				log.Infof("analyzing directory %s", absPath)
				tree, err := analyzer.AnalyzeDirectory(ctx, repo.Store, repo.Root, absPath, alg, policy)
				if err != nil {
					return fmt.Errorf("rededup: analyze %q: %w", absPath, err)
				}
				if err := analyzer.WriteDirectoryReport(absPath, repo.Root, policy, createdAtNS, tree); err != nil {
					return fmt.Errorf("rededup: write report for %q: %w", absPath, err)
				}
				continue
			}

			log.Infof("analyzing file %s", absPath)
			records, err := analyzer.AnalyzeFile(ctx, repo.Store, repo.Root, absPath, alg, policy)
			if err != nil {
				return fmt.Errorf("rededup: analyze %q: %w", absPath, err)
			}
			if err := analyzer.WriteFileReport(absPath, repo.Root, policy, createdAtNS, records); err != nil {
				return fmt.Errorf("rededup: write report for %q: %w", absPath, err)
			}
		}

		return nil
	},
}
