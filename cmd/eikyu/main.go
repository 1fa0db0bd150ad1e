/*
Copyright (C) 2023-2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Command ak is a thin, non-interactive entry point over the eikyu core. It
// has none of the argument-parsing polish, prompts, or pre-commit hook
// orchestration a real CLI would carry: those belong to the surrounding
// tool, not the log.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/hackiado/eikyu/internal/backup"
	"github.com/hackiado/eikyu/internal/commit"
	"github.com/hackiado/eikyu/internal/config"
	"github.com/hackiado/eikyu/internal/cube"
	"github.com/hackiado/eikyu/internal/ingest"
	"github.com/hackiado/eikyu/internal/runid"
	"github.com/hackiado/eikyu/internal/snapshot"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	id := runid.New()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[%s] ak: %v\n", id, err)
		os.Exit(1)
	}

	var runErr error
	switch os.Args[1] {
	case "init":
		runErr = runInit(cfg)
	case "ingest":
		runErr = runIngest(cfg)
	case "commit":
		runErr = runCommit(cfg)
	case "log":
		runErr = runLog(cfg)
	case "diff":
		runErr = runDiff(cfg)
	case "backup":
		runErr = runBackup(cfg)
	case "watch":
		runErr = runWatch(cfg)
	default:
		usage()
		os.Exit(2)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "[%s] ak %s: %v\n", id, os.Args[1], runErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ak <init|ingest|commit|log|diff|backup|watch> [flags]")
}

func currentCube(repoRoot, author string) (string, error) {
	return cube.ResolveForAuthor(repoRoot, author, time.Now())
}

func runInit(cfg config.Config) error {
	repoRoot, err := os.Getwd()
	if err != nil {
		return err
	}
	path, err := cube.InitLayout(repoRoot, cfg.Username)
	if err != nil {
		return err
	}
	fmt.Println("initialised", path)
	return nil
}

func runIngest(cfg config.Config) error {
	repoRoot, err := os.Getwd()
	if err != nil {
		return err
	}
	cubePath, err := currentCube(repoRoot, cfg.Username)
	if err != nil {
		return err
	}

	w, err := cube.Open(cubePath)
	if err != nil {
		return err
	}
	defer w.Close()

	sum, err := ingest.Run(w, repoRoot)
	if err != nil {
		return err
	}
	fmt.Println(sum.String())
	return nil
}

func runCommit(cfg config.Config) error {
	fs := flag.NewFlagSet("commit", flag.ExitOnError)
	ty := fs.String("type", "chore", "commit type")
	summary := fs.String("summary", "", "one-line commit summary")
	body := fs.String("body", "", "commit body")
	_ = fs.Parse(os.Args[2:])

	if *summary == "" {
		return fmt.Errorf("commit: -summary is required")
	}

	repoRoot, err := os.Getwd()
	if err != nil {
		return err
	}
	cubePath, err := currentCube(repoRoot, cfg.Username)
	if err != nil {
		return err
	}

	w, err := cube.Open(cubePath)
	if err != nil {
		return err
	}
	defer w.Close()

	rec, err := commit.Seal(w, repoRoot, cfg.Username, commit.Options{
		Ty:          *ty,
		Summary:     *summary,
		Body:        *body,
		AuthorEmail: cfg.Email,
	})
	if err != nil {
		return err
	}
	fmt.Printf("commit %d: %s\n", rec.ID, rec.Summary)
	return nil
}

func runLog(cfg config.Config) error {
	repoRoot, err := os.Getwd()
	if err != nil {
		return err
	}
	cubePath, err := currentCube(repoRoot, cfg.Username)
	if err != nil {
		return err
	}

	records, err := commit.Log(cubePath)
	if err != nil {
		return err
	}
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		fmt.Printf("%d %s %s\n", r.ID, r.Ty, r.Summary)
	}
	return nil
}

func runDiff(cfg config.Config) error {
	repoRoot, err := os.Getwd()
	if err != nil {
		return err
	}
	lines, err := snapshot.Diff(repoRoot, cfg.Username)
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Println(l)
	}
	return nil
}

// runWatch opens the current cube, attaches a live-tail websocket server to
// it, and serves until the process is killed. Off by default: nothing about
// ingest or commit depends on this running (spec §4.8).
func runWatch(cfg config.Config) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:7417", "listen address")
	_ = fs.Parse(os.Args[2:])

	repoRoot, err := os.Getwd()
	if err != nil {
		return err
	}
	cubePath, err := currentCube(repoRoot, cfg.Username)
	if err != nil {
		return err
	}

	w, err := cube.Open(cubePath)
	if err != nil {
		return err
	}
	defer w.Close()

	ws := cube.NewWatchServer()
	w.Attach(ws)

	fmt.Println("watching", cubePath, "on", *addr)
	return http.ListenAndServe(*addr, ws)
}

func runBackup(cfg config.Config) error {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	dest := fs.String("dest", "", "local destination directory; defaults to .eikyu/backups")
	remote := fs.Bool("s3", false, "also upload to AK_BACKUP_BUCKET")
	_ = fs.Parse(os.Args[2:])

	repoRoot, err := os.Getwd()
	if err != nil {
		return err
	}
	cubePath, err := currentCube(repoRoot, cfg.Username)
	if err != nil {
		return err
	}

	destDir := *dest
	if destDir == "" {
		destDir = repoRoot + "/.eikyu/backups"
	}

	now := time.Now()
	if err := backup.ExportLocal(cubePath, destDir, now); err != nil {
		return err
	}
	fmt.Println("wrote local backup to", destDir)

	if *remote {
		if cfg.BackupBucket == "" {
			return fmt.Errorf("backup: -s3 requires AK_BACKUP_BUCKET")
		}
		target := backup.S3Target{Bucket: cfg.BackupBucket, Prefix: cfg.BackupPrefix}
		if err := backup.ExportS3(context.Background(), cubePath, target, now); err != nil {
			return err
		}
		fmt.Println("uploaded backup to s3://" + cfg.BackupBucket + "/" + cfg.BackupPrefix)
	}

	return nil
}
