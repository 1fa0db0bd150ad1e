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

// Package backup mirrors a cube to a read-only archive, local or on S3. It
// never mutates or rewrites the source cube: the log's append-only contract
// is out of scope for backup (spec §1 Non-goals: no compaction).
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
)

// Manifest accompanies every archive: enough to verify it without
// decompressing the cube it describes.
type Manifest struct {
	SourcePath     string    `json:"source_path"`
	SourceSize     int64     `json:"source_size"`
	SourceChecksum string    `json:"source_checksum_blake3"`
	CreatedAt      time.Time `json:"created_at"`
}

func buildManifest(cubePath string, data []byte, now time.Time) Manifest {
	sum := blake3.Sum256(data)
	return Manifest{
		SourcePath:     cubePath,
		SourceSize:     int64(len(data)),
		SourceChecksum: fmt.Sprintf("%x", sum),
		CreatedAt:      now,
	}
}

// ExportLocal reads cubePath, lz4-compresses it, and writes
// `<destDir>/<base>.lz4` plus a `.manifest.json` sidecar. The source cube is
// only ever opened for reading.
func ExportLocal(cubePath, destDir string, now time.Time) error {
	data, err := os.ReadFile(cubePath)
	if err != nil {
		return fmt.Errorf("backup: read %s: %w", cubePath, err)
	}

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return fmt.Errorf("backup: create %s: %w", destDir, err)
	}

	base := filepath.Base(cubePath)
	archivePath := filepath.Join(destDir, base+".lz4")

	var compressed bytes.Buffer
	zw := lz4.NewWriter(&compressed)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("backup: compress %s: %w", cubePath, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("backup: finalise compression %s: %w", cubePath, err)
	}

	if err := os.WriteFile(archivePath, compressed.Bytes(), 0644); err != nil {
		return fmt.Errorf("backup: write %s: %w", archivePath, err)
	}

	manifest := buildManifest(cubePath, data, now)
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("backup: encode manifest: %w", err)
	}
	manifestPath := filepath.Join(destDir, base+".manifest.json")
	if err := os.WriteFile(manifestPath, manifestData, 0644); err != nil {
		return fmt.Errorf("backup: write %s: %w", manifestPath, err)
	}

	return nil
}

// S3Target names where ExportS3 uploads to; the bucket and prefix come from
// AK_BACKUP_BUCKET / AK_BACKUP_PREFIX (spec §6).
type S3Target struct {
	Bucket string
	Prefix string
}

// ExportS3 uploads an lz4-compressed copy of cubePath and its manifest to
// S3, using ambient credentials via config.LoadDefaultConfig, with an
// optional static override from AK_BACKUP_ACCESS_KEY_ID /
// AK_BACKUP_SECRET_ACCESS_KEY.
func ExportS3(ctx context.Context, cubePath string, target S3Target, now time.Time) error {
	data, err := os.ReadFile(cubePath)
	if err != nil {
		return fmt.Errorf("backup: read %s: %w", cubePath, err)
	}

	var compressed bytes.Buffer
	zw := lz4.NewWriter(&compressed)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("backup: compress %s: %w", cubePath, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("backup: finalise compression %s: %w", cubePath, err)
	}

	manifest := buildManifest(cubePath, data, now)
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("backup: encode manifest: %w", err)
	}

	var opts []func(*config.LoadOptions) error
	if accessKey := os.Getenv("AK_BACKUP_ACCESS_KEY_ID"); accessKey != "" {
		secretKey := os.Getenv("AK_BACKUP_SECRET_ACCESS_KEY")
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("backup: load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)

	base := filepath.Base(cubePath)
	prefix := target.Prefix
	if prefix != "" {
		prefix += "/"
	}

	if _, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(target.Bucket),
		Key:    aws.String(prefix + base + ".lz4"),
		Body:   bytes.NewReader(compressed.Bytes()),
	}); err != nil {
		return fmt.Errorf("backup: upload archive: %w", err)
	}

	if _, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(target.Bucket),
		Key:    aws.String(prefix + base + ".manifest.json"),
		Body:   bytes.NewReader(manifestData),
	}); err != nil {
		return fmt.Errorf("backup: upload manifest: %w", err)
	}

	return nil
}
