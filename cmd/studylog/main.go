package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"studylog/internal/providers"
	"studylog/internal/repository"
	"studylog/pkg/auth"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

func main() {
	u := newUI()

	var redisAddr, redisPassword, uploadsDir, thumbsDir, timezone string

	root := &cobra.Command{
		Use:           "studylog",
		Short:         "Admin tooling for the studylog daily check-in server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&redisAddr, "redis-addr", "localhost:6379", "redis address of the record store")
	root.PersistentFlags().StringVar(&redisPassword, "redis-password", "", "redis password")
	root.PersistentFlags().StringVar(&uploadsDir, "uploads-dir", "./uploads", "uploads root directory")
	root.PersistentFlags().StringVar(&thumbsDir, "thumbnails-dir", "./thumbnails", "thumbnails root directory")
	root.PersistentFlags().StringVar(&timezone, "timezone", "Asia/Shanghai", "record store timezone")

	root.AddCommand(newHashPasswordCmd(u))
	root.AddCommand(newDataCmd(u, &redisAddr, &redisPassword, &timezone))
	root.AddCommand(newVerifyCmd(u, &redisAddr, &redisPassword, &timezone, &uploadsDir, &thumbsDir))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, u.err("error:"), err)
		os.Exit(1)
	}
}

func newHashPasswordCmd(u *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a login password for the PASSWORD_HASH config value",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print("Enter the login password to set: ")
			pw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return err
			}
			if len(pw) == 0 {
				return fmt.Errorf("password must not be empty")
			}
			hash, err := auth.HashPassword(string(pw))
			if err != nil {
				return err
			}
			fmt.Println(u.ok("password hash generated"))
			fmt.Println(u.dim("copy this into your .env:"))
			fmt.Printf("\nPASSWORD_HASH=%q\n\n", hash)
			return nil
		},
	}
}

func openRepo(addr, password, timezone string) (repository.RecordRepository, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.FixedZone("UTC", 0)
	}
	rdb := providers.NewRedisProvider(addr, password)
	return repository.NewRecordRepository(rdb, loc), nil
}

func newDataCmd(u *ui, addr, password, timezone *string) *cobra.Command {
	return &cobra.Command{
		Use:   "data",
		Short: "Dump the full record store as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(*addr, *password, *timezone)
			if err != nil {
				return err
			}
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " loading records"
			spin.Start()
			all, err := repo.All(context.Background())
			spin.Stop()
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(all, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		},
	}
}

// newVerifyCmd reports disk files that no record references (orphans
// from crashes between file write and record persist). Read-only: it
// never removes anything.
func newVerifyCmd(u *ui, addr, password, timezone, uploadsDir, thumbsDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Report stored files not referenced by any daily record",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(*addr, *password, *timezone)
			if err != nil {
				return err
			}
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " loading records"
			spin.Start()
			all, err := repo.All(context.Background())
			spin.Stop()
			if err != nil {
				return err
			}

			referenced := make(map[string]bool)
			for _, rec := range all {
				for _, files := range rec.Items {
					for _, f := range files {
						referenced[f.Path] = true
						if f.ThumbnailPath != "" {
							referenced[f.ThumbnailPath] = true
						}
					}
				}
			}

			onDisk, err := listStored(*uploadsDir, "/uploads")
			if err != nil {
				return err
			}
			thumbs, err := listStored(*thumbsDir, "/thumbnails")
			if err != nil {
				return err
			}
			onDisk = append(onDisk, thumbs...)

			fmt.Println(u.title("studylog verify"), u.dim(fmt.Sprintf("(%d records, %d stored files)", len(all), len(onDisk))))
			bar := progressbar.NewOptions(len(onDisk),
				progressbar.OptionSetDescription("Scanning stored files"),
				progressbar.OptionSetWidth(18),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			var orphans []string
			for _, p := range onDisk {
				if !referenced[p] {
					orphans = append(orphans, p)
				}
				_ = bar.Add(1)
			}
			sort.Strings(orphans)

			if len(orphans) == 0 {
				fmt.Println(u.ok("no orphaned files"))
				return nil
			}
			fmt.Println(u.warn(fmt.Sprintf("%d orphaned file(s):", len(orphans))))
			for _, p := range orphans {
				fmt.Println("  " + p)
			}
			return nil
		},
	}
}

// listStored walks a namespace root and returns record-style paths
// ("/uploads/<date>/<name>").
func listStored(root, prefix string) ([]string, error) {
	var out []string
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		out = append(out, prefix+"/"+strings.ReplaceAll(rel, string(filepath.Separator), "/"))
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	return out, err
}
