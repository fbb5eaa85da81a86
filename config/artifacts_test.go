package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestMain(m *testing.M) {
	// isolate the artifact cache for the test run
	dir, err := os.MkdirTemp("", "giftring-artifacts-test")
	if err != nil {
		panic(err)
	}
	BaseDir = dir
	code := m.Run()
	if err := os.RemoveAll(dir); err != nil {
		panic(err)
	}
	os.Exit(code)
}

// testArtifactServer serves content under any path, counting requests.
// http.ServeContent gives us Range support for free.
func testArtifactServer(name string, content []byte, hits *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		http.ServeContent(w, r, name, time.Now(), bytes.NewReader(content))
	}))
}

func TestArtifactCache(t *testing.T) {
	c := qt.New(t)
	content := []byte("cached verifying key")
	sum := sha256.Sum256(content)

	var hits atomic.Int32
	server := testArtifactServer("cached.vk", content, &hits)

	art := &Artifact{Name: "cached", RemoteURL: server.URL + "/cached.vk", Hash: sum[:]}
	ctx := context.Background()
	c.Assert(art.Load(ctx), qt.IsNil)
	c.Assert([]byte(art.Content), qt.DeepEquals, content)
	c.Assert(hits.Load(), qt.Equals, int32(1))

	// once stored, loads come from the cache and never hit the network
	server.Close()
	art.Content = nil
	c.Assert(art.Load(ctx), qt.IsNil)
	c.Assert([]byte(art.Content), qt.DeepEquals, content)
	c.Assert(hits.Load(), qt.Equals, int32(1))
}

func TestArtifactLoadErrors(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	// the hash is mandatory, it is the cache key
	art := &Artifact{Name: "nohash", RemoteURL: "http://localhost:1"}
	c.Assert(art.Load(ctx), qt.ErrorMatches, ".*hash not provided.*")

	// not cached and nowhere to download from
	art = &Artifact{Name: "nowhere", Hash: bytes.Repeat([]byte{0xaa}, 32)}
	c.Assert(art.Load(ctx), qt.ErrorMatches, ".*no remote url.*")

	// downloads that do not match their claimed hash are rejected
	content := []byte("tampered blob")
	wrong := sha256.Sum256([]byte("something else"))
	server := testArtifactServer("blob.vk", content, nil)
	defer server.Close()
	art = &Artifact{Name: "tampered", RemoteURL: server.URL + "/blob.vk", Hash: wrong[:]}
	c.Assert(art.Load(ctx), qt.ErrorMatches, ".*hash mismatch.*")
}

func TestCorruptedCacheRejected(t *testing.T) {
	c := qt.New(t)
	content := []byte("legit content")
	sum := sha256.Sum256(content)

	// plant a bogus file under the content address
	c.Assert(os.WriteFile(cachePath(sum[:]), []byte("not the content"), 0o644), qt.IsNil)

	art := &Artifact{Name: "corrupt", Hash: sum[:]}
	c.Assert(art.Load(context.Background()), qt.ErrorMatches, ".*cache corruption.*")
}

func TestDownloadResume(t *testing.T) {
	c := qt.New(t)
	content := bytes.Repeat([]byte("0123456789abcdef"), 256)
	sum := sha256.Sum256(content)

	var gotRange atomic.Pointer[string]
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rng := r.Header.Get("Range")
		gotRange.Store(&rng)
		http.ServeContent(w, r, "blob.vk", time.Now(), bytes.NewReader(content))
	}))
	defer server.Close()

	// seed a partial download holding the first half of the content
	partial := filepath.Join(BaseDir, hex.EncodeToString(sum[:])+".partial")
	c.Assert(os.WriteFile(partial, content[:len(content)/2], 0o644), qt.IsNil)

	art := &Artifact{Name: "resume", RemoteURL: server.URL + "/blob.vk", Hash: sum[:]}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.Assert(art.Load(ctx), qt.IsNil)
	c.Assert([]byte(art.Content), qt.DeepEquals, content)
	c.Assert(*gotRange.Load(), qt.Equals, fmt.Sprintf("bytes=%d-", len(content)/2))
}

func TestVerifyingKeysLoadAll(t *testing.T) {
	c := qt.New(t)

	senderContent := []byte("sender verifying key")
	receiverContent := []byte("receiver verifying key")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sender.vk":
			http.ServeContent(w, r, "sender.vk", time.Now(), bytes.NewReader(senderContent))
		case "/receiver.vk":
			http.ServeContent(w, r, "receiver.vk", time.Now(), bytes.NewReader(receiverContent))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	senderHash := sha256.Sum256(senderContent)
	receiverHash := sha256.Sum256(receiverContent)
	keys := NewVerifyingKeys(
		&Artifact{Name: "sender-vk", RemoteURL: server.URL + "/sender.vk", Hash: senderHash[:]},
		&Artifact{Name: "receiver-vk", RemoteURL: server.URL + "/receiver.vk", Hash: receiverHash[:]},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.Assert(keys.LoadAll(ctx), qt.IsNil)
	c.Assert([]byte(keys.SenderKey()), qt.DeepEquals, senderContent)
	c.Assert([]byte(keys.ReceiverKey()), qt.DeepEquals, receiverContent)
}
