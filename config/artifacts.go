// Package config holds the descriptors and the integrity checked loader for
// the proof system artifacts (the Groth16 verifying keys of the sender and
// receiver circuits), plus their default remote locations.
package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/giftring/giftring-core/log"
	"github.com/giftring/giftring-core/types"
)

// CheckHashes determines if artifact hashes are verified on load and
// download. It can be disabled by setting the GIFTRING_CHECK_HASHES
// environment variable to false or 0.
var CheckHashes = true

// BaseDir is the path of the artifact cache. Artifacts missing from it are
// downloaded and stored there, keyed by their hash. It defaults to the
// GIFTRING_ARTIFACTS_DIR environment variable or the user cache directory.
var BaseDir string

func init() {
	if v := os.Getenv("GIFTRING_CHECK_HASHES"); v != "" {
		if strings.ToLower(v) == "false" || v == "0" {
			CheckHashes = false
		}
	}
	BaseDir = defaultBaseDir()
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		log.Errorf("failed to create artifact cache %s: %v", BaseDir, err)
	}
}

func defaultBaseDir() string {
	if dir := os.Getenv("GIFTRING_ARTIFACTS_DIR"); dir != "" {
		return dir
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		log.Warnf("no user cache directory, using temporary directory: %v", err)
		return filepath.Join(os.TempDir(), "giftring-artifacts")
	}
	return filepath.Join(cache, "giftring-artifacts")
}

// Artifact is one content addressed proof system artifact. It knows where a
// copy lives remotely, the sha256 of its content, and once loaded, the
// content itself.
type Artifact struct {
	Name      string
	RemoteURL string
	Hash      types.HexBytes
	Content   types.HexBytes
}

// Load fills Content from memory, the local cache or, as a last resort, the
// remote URL. The content hash is always checked against Hash while
// CheckHashes holds.
func (a *Artifact) Load(ctx context.Context) error {
	if len(a.Content) != 0 {
		return nil
	}
	if len(a.Hash) == 0 {
		return fmt.Errorf("artifact %s: hash not provided", a.Name)
	}
	content, err := loadCached(a.Hash)
	if err != nil {
		return fmt.Errorf("artifact %s: %w", a.Name, err)
	}
	if content == nil {
		if a.RemoteURL == "" {
			return fmt.Errorf("artifact %s: not cached and no remote url provided", a.Name)
		}
		if err := downloadAndStore(ctx, a.Hash, a.RemoteURL); err != nil {
			return fmt.Errorf("artifact %s: %w", a.Name, err)
		}
		if content, err = loadCached(a.Hash); err != nil {
			return fmt.Errorf("artifact %s: %w", a.Name, err)
		}
		if content == nil {
			return fmt.Errorf("artifact %s: no content found after download", a.Name)
		}
	}
	a.Content = content
	return nil
}

// VerifyingKeys bundles the verifying keys the protocol engine consumes, one
// per proof circuit.
type VerifyingKeys struct {
	sender   *Artifact
	receiver *Artifact
}

// NewVerifyingKeys creates a VerifyingKeys bundle from the two artifacts.
func NewVerifyingKeys(sender, receiver *Artifact) *VerifyingKeys {
	return &VerifyingKeys{sender: sender, receiver: receiver}
}

// LoadAll loads both verifying keys concurrently.
func (vk *VerifyingKeys) LoadAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return vk.sender.Load(ctx) })
	g.Go(func() error { return vk.receiver.Load(ctx) })
	return g.Wait()
}

// SenderKey returns the content of the sender circuit verifying key, nil if
// not loaded.
func (vk *VerifyingKeys) SenderKey() types.HexBytes {
	if vk.sender == nil {
		return nil
	}
	return vk.sender.Content
}

// ReceiverKey returns the content of the receiver circuit verifying key, nil
// if not loaded.
func (vk *VerifyingKeys) ReceiverKey() types.HexBytes {
	if vk.receiver == nil {
		return nil
	}
	return vk.receiver.Content
}

// cachePath is where an artifact with the given content hash lives on disk.
func cachePath(hash []byte) string {
	return filepath.Join(BaseDir, hex.EncodeToString(hash))
}

// ensureBaseDir recreates the cache directory, which callers may have
// repointed after init.
func ensureBaseDir() error {
	return os.MkdirAll(BaseDir, 0o755)
}

// loadCached reads an artifact from the hash addressed cache. A missing file
// is not an error, it returns nil content so the caller can download.
func loadCached(hash []byte) ([]byte, error) {
	content, err := os.ReadFile(cachePath(hash))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read cached artifact: %w", err)
	}
	if CheckHashes {
		sum := sha256.Sum256(content)
		if !bytes.Equal(sum[:], hash) {
			return nil, fmt.Errorf("cache corruption for %x: content hashes to %x", hash, sum)
		}
	}
	return content, nil
}

// downloadAndStore fetches a file into the hash addressed cache, resuming a
// previous partial download when the server honors Range requests. The file
// only becomes visible under its final name once the content hash checks out.
func downloadAndStore(ctx context.Context, expectedHash []byte, fileURL string) error {
	if _, err := url.Parse(fileURL); err != nil {
		return fmt.Errorf("invalid artifact url %q: %w", fileURL, err)
	}
	if err := ensureBaseDir(); err != nil {
		return fmt.Errorf("cannot create artifact cache: %w", err)
	}
	finalPath := cachePath(expectedHash)
	partialPath := finalPath + ".partial"

	var offset int64
	if info, err := os.Stat(partialPath); err == nil {
		offset = info.Size()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("cannot build download request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("artifact download failed: %w", err)
	}
	defer res.Body.Close()

	var fd *os.File
	switch res.StatusCode {
	case http.StatusPartialContent:
		fd, err = os.OpenFile(partialPath, os.O_APPEND|os.O_WRONLY, 0o644)
	case http.StatusOK:
		offset = 0 // server ignored the Range header, start over
		fd, err = os.Create(partialPath)
	default:
		return fmt.Errorf("artifact download %s: http status %d", fileURL, res.StatusCode)
	}
	if err != nil {
		return fmt.Errorf("cannot open partial artifact: %w", err)
	}
	defer fd.Close()

	hasher := sha256.New()
	if offset > 0 {
		// replay the bytes already on disk so the final hash covers them
		if prev, err := os.Open(partialPath); err == nil {
			_, _ = io.Copy(hasher, prev)
			prev.Close()
		}
	}
	if err := copyWithProgress(ctx, io.MultiWriter(fd, hasher), res.Body, res.ContentLength+offset, fileURL); err != nil {
		return err
	}
	if CheckHashes {
		if sum := hasher.Sum(nil); !bytes.Equal(sum, expectedHash) {
			os.Remove(partialPath)
			return fmt.Errorf("hash mismatch: expected %x, got %x", expectedHash, sum)
		}
	}
	if err := os.Rename(partialPath, finalPath); err != nil {
		return fmt.Errorf("cannot store artifact: %w", err)
	}
	return nil
}

// copyWithProgress copies src into dst while logging download progress every
// few seconds.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, size int64, fileURL string) error {
	pr := &progressReader{r: src, size: size}
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(dst, pr)
		done <- err
	}()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("artifact copy failed: %w", err)
			}
			return nil
		case <-ticker.C:
			mib, pct := pr.progress()
			log.Debugw("downloading artifact", "url", fileURL,
				"downloaded", fmt.Sprintf("%.2fMiB", mib),
				"progress", fmt.Sprintf("%.2f%%", pct))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// progressReader counts the bytes flowing through it.
type progressReader struct {
	r    io.Reader
	read atomic.Int64
	size int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.read.Add(int64(n))
	return n, err
}

func (pr *progressReader) progress() (mib, pct float64) {
	read := pr.read.Load()
	mib = float64(read) / (1 << 20)
	if pr.size > 0 {
		pct = float64(read) / float64(pr.size) * 100
	}
	return mib, pct
}
