package pake

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSHandshakeTimeout = 30 * time.Second
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// downloadFile fetches a URL into the icon cache. It prefers curl, falls
// back to wget, and finally to the native HTTP client. A flock on the
// destination serializes concurrent fetches of the same file.
func downloadFile(ctx context.Context, url, destFile string) error {
	absPath, err := filepath.Abs(destFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory for %s: %w", absPath, err)
	}

	return withDownloadLock(absPath, func() error {
		// Someone else may have finished it while we waited for the lock.
		if _, err := os.Stat(absPath); err == nil {
			debugf("File %s appeared after acquiring lock, skipping download.\n", absPath)
			return nil
		}

		debugf("Downloading %s -> %s\n", url, absPath)

		// --- Primary choice: curl ---
		if _, err := exec.LookPath("curl"); err == nil {
			cmd := exec.CommandContext(ctx, "curl", "-L", "--fail", "-sS", "-o", absPath, url)
			cmd.Stdout = io.Discard
			cmd.Stderr = io.Discard
			if err := cmd.Run(); err == nil {
				return nil
			}
			debugf("curl failed, falling back to wget\n")
		}

		// --- Fallback 1: wget ---
		if _, err := exec.LookPath("wget"); err == nil {
			cmd := exec.CommandContext(ctx, "wget", "-q", "-O", absPath, url)
			cmd.Stdout = io.Discard
			cmd.Stderr = io.Discard
			if err := cmd.Run(); err == nil {
				return nil
			}
			debugf("wget failed, falling back to native Go HTTP client\n")
		}

		// --- Fallback 2: native Go HTTP client ---
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := newHTTPClient().Do(req)
		if err != nil {
			return fmt.Errorf("native http get failed: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("download failed with status: %s", resp.Status)
		}

		out, err := os.Create(absPath)
		if err != nil {
			return fmt.Errorf("failed to create destination file %s: %w", absPath, err)
		}
		if _, err := io.Copy(out, resp.Body); err != nil {
			out.Close()
			_ = os.Remove(absPath)
			return fmt.Errorf("failed to write to destination file: %w", err)
		}
		return out.Close()
	})
}
