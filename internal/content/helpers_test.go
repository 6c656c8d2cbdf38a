package content

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

const (
	testSSMParam = "/sections/content/current"
	testBucket   = "sections-content"
	testPrefix   = "bundles"
)

const homePage = `---
title: Home
sections:
  - type: HeroSection
    image: /img/a.jpg
    title:
      text: Hello
---
`

const aboutPage = `---
title: About
sections:
  - type: GenericSection
    title:
      text: About us
---
`

// siteFiles is a minimal valid content tree.
func siteFiles() map[string]string {
	return map[string]string{
		"site.yaml":       "title: Labs\nversion: v1\n",
		"pages/index.md":  homePage,
		"pages/about.md":  aboutPage,
		"img/a.jpg":       "JPEG",
		"pages/.draft.md": "ignored",
	}
}

func mapFS(files map[string]string) fstest.MapFS {
	m := make(fstest.MapFS, len(files))
	for name, body := range files {
		m[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return m
}

func makeTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for _, name := range names {
		body := files[name]
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
			t.Fatalf("tar header %q: %v", name, err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatalf("tar body %q: %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

type fakeSSM struct {
	mu    sync.Mutex
	value string
	err   error
	calls int
}

func (f *fakeSSM) set(value string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value, f.err = value, err
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if aws.ToString(in.Name) != testSSMParam {
		return nil, errors.New("parameter not found")
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String(f.value)}}, nil
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	gets    []string
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) put(key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	f.gets = append(f.gets, key)
	if aws.ToString(in.Bucket) != testBucket {
		return nil, errors.New("no such bucket")
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

type fakeVerifier struct {
	err  error
	seen []byte
}

func (f *fakeVerifier) VerifyEncoded(_ context.Context, _ []byte, sig []byte) error {
	f.seen = sig
	return f.err
}

func (f *fakeVerifier) KeyID() string { return "test-key" }

type fakeMetrics struct {
	mu          sync.Mutex
	polls       int
	swaps       int
	errs        map[string]int
	loads       int
	lastSuccess float64
	stale       bool
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errs: map[string]int{}} }

func (m *fakeMetrics) IncWatcherPolls() { m.mu.Lock(); m.polls++; m.mu.Unlock() }
func (m *fakeMetrics) IncWatcherSwaps() { m.mu.Lock(); m.swaps++; m.mu.Unlock() }
func (m *fakeMetrics) IncWatcherError(kind string) {
	m.mu.Lock()
	m.errs[kind]++
	m.mu.Unlock()
}
func (m *fakeMetrics) ObserveBundleLoadDuration(float64) { m.mu.Lock(); m.loads++; m.mu.Unlock() }
func (m *fakeMetrics) SetWatcherLastSuccess(v float64) {
	m.mu.Lock()
	m.lastSuccess = v
	m.mu.Unlock()
}
func (m *fakeMetrics) SetWatcherStale(s bool) { m.mu.Lock(); m.stale = s; m.mu.Unlock() }
