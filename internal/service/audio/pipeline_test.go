package audio

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"audiorelay/internal/models"
	"audiorelay/internal/service/transcribe"
	"audiorelay/internal/storage"
)

type fakeTranscriber struct {
	text       string
	err        error
	errFromCtx bool
	gotReq     transcribe.Request
	existed    bool
	hasDL      bool
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, req transcribe.Request) (string, error) {
	f.gotReq = req
	_, statErr := os.Stat(req.Path)
	f.existed = statErr == nil
	_, f.hasDL = ctx.Deadline()
	if f.errFromCtx {
		return "", ctx.Err()
	}
	return f.text, f.err
}

func newTestPipeline(t *testing.T, tr transcribe.Transcriber, timeout time.Duration) *Pipeline {
	t.Helper()
	store, err := storage.NewTempStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new temp store: %v", err)
	}
	return NewPipeline(store, tr, timeout, nil)
}

func storeUpload(t *testing.T, p *Pipeline, mime, name string) *models.Upload {
	t.Helper()
	path := p.Store().NewPath()
	if err := os.WriteFile(path, []byte("audio-bytes"), 0o600); err != nil {
		t.Fatalf("write upload: %v", err)
	}
	return &models.Upload{Path: path, MimeType: mime, OriginalName: name, Size: 11}
}

func assertNoCandidates(t *testing.T, path string) {
	t.Helper()
	for _, candidate := range CandidatePaths(path) {
		if _, err := os.Stat(candidate); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err: %v", candidate, err)
		}
	}
}

func TestProcessSuccess(t *testing.T) {
	fake := &fakeTranscriber{text: "hello world"}
	p := newTestPipeline(t, fake, time.Minute)
	upload := storeUpload(t, p, "audio/wav", "test.wav")

	got, err := p.Process(context.Background(), upload)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	want := models.Transcript{Transcription: "hello world", OriginalName: "test.wav", Success: true}
	if *got != want {
		t.Fatalf("want %+v, got %+v", want, *got)
	}
	if fake.gotReq.Path != upload.Path+".wav" {
		t.Fatalf("transcriber should receive normalized path, got %q", fake.gotReq.Path)
	}
	if !fake.existed {
		t.Fatalf("normalized file should exist during transcription")
	}
	if !fake.hasDL {
		t.Fatalf("expected deadline on transcription context")
	}
	assertNoCandidates(t, upload.Path)
}

func TestProcessUnknownTypeKeepsPath(t *testing.T) {
	fake := &fakeTranscriber{text: "ok"}
	p := newTestPipeline(t, fake, 0)
	upload := storeUpload(t, p, "audio/ogg", "clip.ogg")

	if _, err := p.Process(context.Background(), upload); err != nil {
		t.Fatalf("process: %v", err)
	}
	if fake.gotReq.Path != upload.Path {
		t.Fatalf("expected unchanged path, got %q", fake.gotReq.Path)
	}
	if fake.hasDL {
		t.Fatalf("zero timeout should not add a deadline")
	}
	assertNoCandidates(t, upload.Path)
}

func TestProcessRemoteFailureCleansUp(t *testing.T) {
	fake := &fakeTranscriber{err: errors.New("invalid file format")}
	p := newTestPipeline(t, fake, time.Minute)
	upload := storeUpload(t, p, "audio/webm", "clip.webm")

	_, err := p.Process(context.Background(), upload)
	var remoteErr *transcribe.RemoteServiceError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteServiceError, got %v", err)
	}
	if err.Error() != "invalid file format" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	assertNoCandidates(t, upload.Path)
}

func TestProcessRenameFailure(t *testing.T) {
	fake := &fakeTranscriber{text: "never"}
	p := newTestPipeline(t, fake, time.Minute)
	upload := storeUpload(t, p, "audio/mpeg", "a.mp3")
	// an empty directory at the target makes os.Rename fail with EISDIR
	if err := os.Mkdir(upload.Path+".mp3", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, err := p.Process(context.Background(), upload)
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if fake.gotReq.Path != "" {
		t.Fatalf("transcriber must not be called after rename failure")
	}
	assertNoCandidates(t, upload.Path)
}

func TestProcessInjectedRenameFailure(t *testing.T) {
	fake := &fakeTranscriber{text: "never"}
	store, err := storage.NewTempStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new temp store: %v", err)
	}
	p := NewPipeline(store, fake, time.Minute, nil, WithRename(func(string, string) error {
		return os.ErrPermission
	}))
	upload := storeUpload(t, p, "audio/webm", "clip.webm")

	_, err = p.Process(context.Background(), upload)
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
	assertNoCandidates(t, upload.Path)
}

func TestProcessCancelledContextStillCleansUp(t *testing.T) {
	fake := &fakeTranscriber{}
	fake.errFromCtx = true
	p := newTestPipeline(t, fake, time.Minute)
	upload := storeUpload(t, p, "audio/wav", "test.wav")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Process(ctx, upload)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation to reach the transcriber, got %v", err)
	}
	assertNoCandidates(t, upload.Path)
}

func TestDiscardRemovesEveryVariant(t *testing.T) {
	p := newTestPipeline(t, &fakeTranscriber{}, 0)
	base := p.Store().NewPath()
	for _, candidate := range CandidatePaths(base) {
		if err := os.WriteFile(candidate, []byte("x"), 0o600); err != nil {
			t.Fatalf("write %s: %v", candidate, err)
		}
	}
	p.Discard(base)
	assertNoCandidates(t, base)
}

func TestProcessRequiresPath(t *testing.T) {
	p := newTestPipeline(t, &fakeTranscriber{}, 0)
	if _, err := p.Process(context.Background(), &models.Upload{}); err == nil {
		t.Fatalf("expected error for empty upload")
	}
}
