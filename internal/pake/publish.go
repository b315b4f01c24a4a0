package pake

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"
)

// ReleaseEntry is one published artifact in the remote index.
type ReleaseEntry struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
	Filename string `json:"filename"`
	B3Sum    string `json:"b3sum"`
	Date     string `json:"date"`
}

const releaseIndexKey = "release-index.json"

// PublishArtifact uploads a built artifact to the configured R2 bucket and
// updates the shared release index. The index is fetched, patched and
// re-uploaded; last writer wins, which is acceptable for a one-person
// release flow.
func PublishArtifact(ctx context.Context, cfg *Config, name string, platform Platform, artifactPath string) error {
	r2, err := NewR2Client(cfg)
	if err != nil {
		return err
	}

	sum, err := fileB3Sum(artifactPath)
	if err != nil {
		return fmt.Errorf("failed to checksum %s: %w", artifactPath, err)
	}

	remoteName := filepath.Base(artifactPath)
	colArrow.Print("-> ")
	if !askForConfirmation(colWarn, "Upload %s (%s) to bucket?", remoteName, sum[:12]) {
		colArrow.Print("-> ")
		colSuccess.Println("Publish canceled.")
		return nil
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Uploading to R2: %s\n", remoteName)
	if err := r2.UploadLocalFile(ctx, remoteName, artifactPath); err != nil {
		return fmt.Errorf("failed to upload %s: %w", remoteName, err)
	}

	var index []ReleaseEntry
	if data, err := r2.DownloadFile(ctx, releaseIndexKey); err == nil {
		if err := json.Unmarshal(data, &index); err != nil {
			debugf("Remote index unreadable, rebuilding: %v\n", err)
			index = nil
		}
	} else {
		debugf("Remote index not found or error fetching: %v\n", err)
	}

	entry := ReleaseEntry{
		Name:     name,
		Platform: string(platform),
		Filename: remoteName,
		B3Sum:    sum,
		Date:     time.Now().UTC().Format(time.RFC3339),
	}
	replaced := false
	for i := range index {
		if index[i].Name == entry.Name && index[i].Platform == entry.Platform {
			index[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		index = append(index, entry)
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	if err := r2.UploadFile(ctx, releaseIndexKey, data); err != nil {
		return fmt.Errorf("failed to update release index: %w", err)
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Published %s for %s.\n", name, platform)
	return nil
}
