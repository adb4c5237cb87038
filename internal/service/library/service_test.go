package library

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"docshelf/internal/blobstore"
	"docshelf/internal/config"
	"docshelf/internal/models"
	"docshelf/internal/redis"
	"docshelf/internal/storage"

	_ "github.com/mattn/go-sqlite3"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *storage.MetadataStore {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(db, config.DatabaseConfig{Driver: "sqlite3", Table: "documents"}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store, err := storage.NewMetadataStore(db, "documents")
	if err != nil {
		t.Fatalf("metadata store: %v", err)
	}
	return store
}

func newTestService(t *testing.T, textAI TextAI, opts ...Option) (*Service, *blobstore.Memory, *storage.MetadataStore) {
	t.Helper()
	blobs := blobstore.NewMemory()
	store := openTestStore(t)
	base := []Option{WithClock(func() time.Time { return testTime })}
	svc := NewService(blobs, store, textAI, append(base, opts...)...)
	return svc, blobs, store
}

// serveBlobs exposes the in-memory store over HTTP and points signed URLs
// at it, so the summarize fetch goes through a real request.
func serveBlobs(t *testing.T, blobs *blobstore.Memory) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, contentType, ok := blobs.Object(strings.TrimPrefix(r.URL.Path, "/"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	blobs.URLFor = func(path string, ttl time.Duration) (string, error) {
		return srv.URL + "/" + path, nil
	}
}

func textExtractor(data []byte) (string, error) {
	return string(data), nil
}

type fakeAI struct {
	mu           sync.Mutex
	summary      string
	summarizeErr error
	translations map[string]string
	translateErr error
	calls        int32
	entered      chan struct{}
	release      chan struct{}
	gotText      string
}

func (f *fakeAI) Summarize(ctx context.Context, text string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.gotText = text
	f.mu.Unlock()
	if f.summarizeErr != nil {
		return "", f.summarizeErr
	}
	return f.summary, nil
}

func (f *fakeAI) Translate(ctx context.Context, text string, targetLanguages []string) (map[string]string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.translateErr != nil {
		return nil, f.translateErr
	}
	return f.translations, nil
}

func (f *fakeAI) summarizedText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gotText
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]string
	ttls        map[string]time.Duration
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) GetURL(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url, ok := f.entries[path]
	if !ok {
		return "", redis.ErrCacheMiss
	}
	return url, nil
}

func (f *fakeCache) SetURL(ctx context.Context, path, url string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[path] = url
	f.ttls[path] = ttl
	return nil
}

func (f *fakeCache) InvalidateURL(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, path)
	f.invalidated = append(f.invalidated, path)
	return nil
}

func TestUploadStoresObjectAndRow(t *testing.T) {
	svc, blobs, store := newTestService(t, nil)
	ctx := context.Background()

	path, id, err := svc.Upload(ctx, UploadInput{
		Filename:     "report.pdf",
		ContentType:  "application/pdf",
		Data:         []byte("%PDF-fake"),
		DocumentName: "Quarterly Report",
		Tags:         models.TagsFromString("finance, q3"),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if path != "uploads/Quarterly_Report.pdf" {
		t.Fatalf("unexpected path %q", path)
	}
	if id <= 0 {
		t.Fatalf("unexpected id %d", id)
	}

	data, contentType, ok := blobs.Object(path)
	if !ok {
		t.Fatal("object not stored")
	}
	if string(data) != "%PDF-fake" || contentType != "application/pdf" {
		t.Fatalf("object mismatch: %q %q", data, contentType)
	}

	row, err := store.SelectByPath(ctx, path)
	if err != nil || row == nil {
		t.Fatalf("row missing: %v, %v", row, err)
	}
	if row.DocumentName != "Quarterly Report" {
		t.Fatalf("unexpected name %q", row.DocumentName)
	}
	if !reflect.DeepEqual(row.Tags, []string{"finance", "q3"}) {
		t.Fatalf("unexpected tags %v", row.Tags)
	}
}

func TestUploadFallsBackToFilename(t *testing.T) {
	svc, _, store := newTestService(t, nil)
	ctx := context.Background()

	path, _, err := svc.Upload(ctx, UploadInput{
		Filename:    "My Notes.pdf",
		ContentType: "application/pdf",
		Data:        []byte("x"),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if path != "uploads/My_Notes.pdf" {
		t.Fatalf("unexpected path %q", path)
	}
	row, err := store.SelectByPath(ctx, path)
	if err != nil || row == nil {
		t.Fatalf("row missing: %v, %v", row, err)
	}
	if row.DocumentName != "My Notes.pdf" {
		t.Fatalf("unexpected name %q", row.DocumentName)
	}
	if len(row.Tags) != 0 {
		t.Fatalf("expected no tags, got %v", row.Tags)
	}
}

func TestUploadRejectsUnusableName(t *testing.T) {
	svc, blobs, _ := newTestService(t, nil)
	ctx := context.Background()

	_, _, err := svc.Upload(ctx, UploadInput{
		Filename:     "report.pdf",
		DocumentName: "***",
		Data:         []byte("x"),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	objects, err := blobs.List(ctx, uploadPrefix)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(objects) != 0 {
		t.Fatalf("object stored despite rejection: %v", objects)
	}
}

func TestUploadNeverOverwrites(t *testing.T) {
	svc, blobs, store := newTestService(t, nil)
	ctx := context.Background()

	in := UploadInput{
		Filename:     "report.pdf",
		ContentType:  "application/pdf",
		Data:         []byte("original"),
		DocumentName: "Report",
	}
	if _, _, err := svc.Upload(ctx, in); err != nil {
		t.Fatalf("first upload failed: %v", err)
	}

	in.Data = []byte("imposter")
	_, _, err := svc.Upload(ctx, in)
	if !errors.Is(err, blobstore.ErrObjectExists) {
		t.Fatalf("expected ErrObjectExists, got %v", err)
	}

	data, _, _ := blobs.Object("uploads/Report.pdf")
	if string(data) != "original" {
		t.Fatalf("original content lost: %q", data)
	}
	paths, err := store.ListPaths(ctx)
	if err != nil {
		t.Fatalf("list paths: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected one row, got %v", paths)
	}
}

func TestListMergesMetadataOverlay(t *testing.T) {
	svc, blobs, store := newTestService(t, nil)
	ctx := context.Background()

	if err := blobs.Put(ctx, "uploads/with-row.pdf", []byte("aaaa"), "application/pdf"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := blobs.Put(ctx, "uploads/no-row.pdf", []byte("bb"), "application/pdf"); err != nil {
		t.Fatalf("put: %v", err)
	}
	summary := "old summary"
	if _, err := store.Insert(ctx, &models.Metadata{
		DocumentName: "Pretty Name",
		StoragePath:  "uploads/with-row.pdf",
		Tags:         []string{"alpha"},
		Summary:      &summary,
		CreatedAt:    testTime,
		UpdatedAt:    testTime,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	docs, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	// newest object first; the rowless one was stored last
	if docs[0].Path != "uploads/no-row.pdf" {
		t.Fatalf("unexpected order: %s first", docs[0].Path)
	}
	if docs[0].Name != "no-row.pdf" {
		t.Fatalf("fallback name wrong: %q", docs[0].Name)
	}
	if docs[0].Tags == nil || len(docs[0].Tags) != 0 {
		t.Fatalf("fallback tags should be an empty set, got %#v", docs[0].Tags)
	}
	if docs[0].Summary != nil {
		t.Fatalf("unexpected summary %v", docs[0].Summary)
	}
	if docs[0].Size != 2 {
		t.Fatalf("unexpected size %d", docs[0].Size)
	}

	if docs[1].Name != "Pretty Name" {
		t.Fatalf("overlay name wrong: %q", docs[1].Name)
	}
	if !reflect.DeepEqual(docs[1].Tags, []string{"alpha"}) {
		t.Fatalf("overlay tags wrong: %v", docs[1].Tags)
	}
	if docs[1].Summary == nil || *docs[1].Summary != "old summary" {
		t.Fatalf("overlay summary wrong: %v", docs[1].Summary)
	}
}

func TestSummarizeCreatesRowForUntrackedDocument(t *testing.T) {
	fake := &fakeAI{summary: "Revenue is up."}
	svc, blobs, store := newTestService(t, fake, WithExtractor(textExtractor))
	serveBlobs(t, blobs)
	ctx := context.Background()

	if err := blobs.Put(ctx, "uploads/report.pdf", []byte("  Revenue   grew\n\nacross  regions  "), "application/pdf"); err != nil {
		t.Fatalf("put: %v", err)
	}

	summary, err := svc.Summarize(ctx, "uploads/report.pdf")
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if summary != "Revenue is up." {
		t.Fatalf("unexpected summary %q", summary)
	}
	if got := fake.summarizedText(); got != "Revenue grew across regions" {
		t.Fatalf("whitespace not collapsed: %q", got)
	}

	row, err := store.SelectByPath(ctx, "uploads/report.pdf")
	if err != nil || row == nil {
		t.Fatalf("row missing: %v, %v", row, err)
	}
	if row.DocumentName != "report.pdf" {
		t.Fatalf("inserted name should be the path basename, got %q", row.DocumentName)
	}
	if row.Summary == nil || *row.Summary != "Revenue is up." {
		t.Fatalf("summary not stored: %v", row.Summary)
	}
	if row.SummaryUpdatedAt == nil || !row.SummaryUpdatedAt.Equal(testTime) {
		t.Fatalf("summary timestamp wrong: %v", row.SummaryUpdatedAt)
	}
	if len(row.Tags) != 0 {
		t.Fatalf("inserted row should have no tags, got %v", row.Tags)
	}
}

func TestSummarizeUpdatesExistingRow(t *testing.T) {
	fake := &fakeAI{summary: "First summary."}
	svc, blobs, store := newTestService(t, fake, WithExtractor(textExtractor))
	serveBlobs(t, blobs)
	ctx := context.Background()

	path, _, err := svc.Upload(ctx, UploadInput{
		Filename:     "report.pdf",
		ContentType:  "application/pdf",
		Data:         []byte("body text"),
		DocumentName: "Quarterly Report",
		Tags:         models.TagsFromString("finance"),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if _, err := svc.Summarize(ctx, path); err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	fake.summary = "Second summary."
	if _, err := svc.Summarize(ctx, path); err != nil {
		t.Fatalf("second summarize failed: %v", err)
	}

	row, err := store.SelectByPath(ctx, path)
	if err != nil || row == nil {
		t.Fatalf("row missing: %v, %v", row, err)
	}
	if row.DocumentName != "Quarterly Report" {
		t.Fatalf("name clobbered: %q", row.DocumentName)
	}
	if !reflect.DeepEqual(row.Tags, []string{"finance"}) {
		t.Fatalf("tags clobbered: %v", row.Tags)
	}
	if row.Summary == nil || *row.Summary != "Second summary." {
		t.Fatalf("summary not refreshed: %v", row.Summary)
	}
	paths, _ := store.ListPaths(ctx)
	if len(paths) != 1 {
		t.Fatalf("duplicate rows created: %v", paths)
	}
}

func TestSummarizeChecksConfigBeforeStorage(t *testing.T) {
	svc, _, _ := newTestService(t, nil, WithExtractor(textExtractor))
	ctx := context.Background()

	// the object does not exist; a storage probe would fail differently
	_, err := svc.Summarize(ctx, "uploads/anything.pdf")
	if !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("expected ErrMissingConfig, got %v", err)
	}
}

func TestSummarizeEmptyTextWritesNothing(t *testing.T) {
	fake := &fakeAI{summary: "unused"}
	svc, blobs, store := newTestService(t, fake, WithExtractor(func([]byte) (string, error) {
		return " \n\t ", nil
	}))
	serveBlobs(t, blobs)
	ctx := context.Background()

	if err := blobs.Put(ctx, "uploads/scan.pdf", []byte("raster only"), "application/pdf"); err != nil {
		t.Fatalf("put: %v", err)
	}

	_, err := svc.Summarize(ctx, "uploads/scan.pdf")
	if !errors.Is(err, ErrUnprocessable) {
		t.Fatalf("expected ErrUnprocessable, got %v", err)
	}
	if atomic.LoadInt32(&fake.calls) != 0 {
		t.Fatal("model called for empty text")
	}
	row, err := store.SelectByPath(ctx, "uploads/scan.pdf")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if row != nil {
		t.Fatalf("row written despite failure: %+v", row)
	}
}

func TestSummarizeSharesConcurrentRuns(t *testing.T) {
	fake := &fakeAI{
		summary: "shared",
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	svc, blobs, _ := newTestService(t, fake, WithExtractor(textExtractor))
	serveBlobs(t, blobs)
	ctx := context.Background()

	if err := blobs.Put(ctx, "uploads/big.pdf", []byte("plenty of text"), "application/pdf"); err != nil {
		t.Fatalf("put: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]string, 2)
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = svc.Summarize(ctx, "uploads/big.pdf")
	}()
	<-fake.entered
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = svc.Summarize(ctx, "uploads/big.pdf")
	}()
	// give the second caller time to join the in-flight run
	time.Sleep(100 * time.Millisecond)
	close(fake.release)
	wg.Wait()

	for i := 0; i < 2; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if results[i] != "shared" {
			t.Fatalf("caller %d got %q", i, results[i])
		}
	}
	if got := atomic.LoadInt32(&fake.calls); got != 1 {
		t.Fatalf("expected one model call, got %d", got)
	}

	// the flight is not cached; a later request runs again
	if _, err := svc.Summarize(ctx, "uploads/big.pdf"); err != nil {
		t.Fatalf("followup summarize failed: %v", err)
	}
	if got := atomic.LoadInt32(&fake.calls); got != 2 {
		t.Fatalf("expected a fresh model call, got %d", got)
	}
}

func TestDownloadURLCachesSignedLinks(t *testing.T) {
	cache := newFakeCache()
	svc, blobs, _ := newTestService(t, nil, WithURLCache(cache))
	ctx := context.Background()

	var signs int32
	var signedTTL time.Duration
	blobs.URLFor = func(path string, ttl time.Duration) (string, error) {
		atomic.AddInt32(&signs, 1)
		signedTTL = ttl
		return "https://signed.example/" + path, nil
	}
	if err := blobs.Put(ctx, "uploads/report.pdf", []byte("x"), "application/pdf"); err != nil {
		t.Fatalf("put: %v", err)
	}

	first, err := svc.DownloadURL(ctx, "uploads/report.pdf")
	if err != nil {
		t.Fatalf("download url failed: %v", err)
	}
	if signedTTL != DownloadTTL {
		t.Fatalf("signed with ttl %v, want %v", signedTTL, DownloadTTL)
	}
	if cache.ttls["uploads/report.pdf"] != urlCacheTTL {
		t.Fatalf("cached with ttl %v, want %v", cache.ttls["uploads/report.pdf"], urlCacheTTL)
	}

	second, err := svc.DownloadURL(ctx, "uploads/report.pdf")
	if err != nil {
		t.Fatalf("cached download url failed: %v", err)
	}
	if second != first {
		t.Fatalf("cache returned different url: %q vs %q", second, first)
	}
	if got := atomic.LoadInt32(&signs); got != 1 {
		t.Fatalf("expected one signing call, got %d", got)
	}
}

type readFailingCache struct {
	*fakeCache
}

func (r readFailingCache) GetURL(ctx context.Context, path string) (string, error) {
	return "", errors.New("connection refused")
}

func TestDownloadURLSurvivesCacheReadFailure(t *testing.T) {
	cache := readFailingCache{newFakeCache()}
	svc, blobs, _ := newTestService(t, nil, WithURLCache(cache))
	ctx := context.Background()

	blobs.URLFor = func(path string, ttl time.Duration) (string, error) {
		return "https://signed.example/" + path, nil
	}
	if err := blobs.Put(ctx, "uploads/report.pdf", []byte("x"), "application/pdf"); err != nil {
		t.Fatalf("put: %v", err)
	}

	url, err := svc.DownloadURL(ctx, "uploads/report.pdf")
	if err != nil {
		t.Fatalf("download url failed: %v", err)
	}
	if url != "https://signed.example/uploads/report.pdf" {
		t.Fatalf("unexpected url %q", url)
	}
	// a broken cache read must not stop the fresh link from being stored
	if cache.entries["uploads/report.pdf"] != url {
		t.Fatalf("signed url not cached, entries %v", cache.entries)
	}
}

func TestDownloadURLMissingObject(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, err := svc.DownloadURL(context.Background(), "uploads/ghost.pdf")
	if !errors.Is(err, blobstore.ErrObjectNotExist) {
		t.Fatalf("expected ErrObjectNotExist, got %v", err)
	}
}

func TestDeleteRemovesObjectThenRow(t *testing.T) {
	cache := newFakeCache()
	svc, blobs, store := newTestService(t, nil, WithURLCache(cache))
	ctx := context.Background()

	path, _, err := svc.Upload(ctx, UploadInput{
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		Data:        []byte("x"),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if _, err := svc.DownloadURL(ctx, path); err != nil {
		t.Fatalf("download url: %v", err)
	}

	if err := svc.Delete(ctx, path); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, _, ok := blobs.Object(path); ok {
		t.Fatal("object still present")
	}
	row, err := store.SelectByPath(ctx, path)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if row != nil {
		t.Fatalf("row still present: %+v", row)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != path {
		t.Fatalf("cache not invalidated: %v", cache.invalidated)
	}

	// a second delete finds neither object nor row and still succeeds
	if err := svc.Delete(ctx, path); err != nil {
		t.Fatalf("repeat delete failed: %v", err)
	}
}

type removeFailingStore struct {
	*blobstore.Memory
}

func (r removeFailingStore) Remove(ctx context.Context, path string) error {
	return errors.New("backend unavailable")
}

func TestDeleteKeepsRowWhenStorageFails(t *testing.T) {
	blobs := removeFailingStore{blobstore.NewMemory()}
	store := openTestStore(t)
	svc := NewService(blobs, store, nil, WithClock(func() time.Time { return testTime }))
	ctx := context.Background()

	path, _, err := svc.Upload(ctx, UploadInput{
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		Data:        []byte("x"),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if err := svc.Delete(ctx, path); err == nil {
		t.Fatal("expected delete to fail")
	}
	row, err := store.SelectByPath(ctx, path)
	if err != nil || row == nil {
		t.Fatalf("row should survive a storage failure: %v, %v", row, err)
	}
}

func TestEditUpdatesNameAndOptionallyTags(t *testing.T) {
	svc, _, store := newTestService(t, nil)
	ctx := context.Background()

	path, _, err := svc.Upload(ctx, UploadInput{
		Filename:     "report.pdf",
		ContentType:  "application/pdf",
		Data:         []byte("x"),
		DocumentName: "Report",
		Tags:         models.TagsFromString("finance, q3"),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if err := svc.Edit(ctx, path, "  Renamed  ", models.TagInput{}); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	row, _ := store.SelectByPath(ctx, path)
	if row.DocumentName != "Renamed" {
		t.Fatalf("name not trimmed and updated: %q", row.DocumentName)
	}
	if !reflect.DeepEqual(row.Tags, []string{"finance", "q3"}) {
		t.Fatalf("tags touched without being sent: %v", row.Tags)
	}

	if err := svc.Edit(ctx, path, "Renamed", models.TagsFromString("archived")); err != nil {
		t.Fatalf("edit with tags failed: %v", err)
	}
	row, _ = store.SelectByPath(ctx, path)
	if !reflect.DeepEqual(row.Tags, []string{"archived"}) {
		t.Fatalf("tags not replaced: %v", row.Tags)
	}

	if err := svc.Edit(ctx, path, "   ", models.TagInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}

	// no row, no error
	if err := svc.Edit(ctx, "uploads/ghost.pdf", "Name", models.TagInput{}); err != nil {
		t.Fatalf("edit of unknown path failed: %v", err)
	}
}

func TestUpdateNoteSetAndClear(t *testing.T) {
	svc, _, store := newTestService(t, nil)
	ctx := context.Background()

	path, _, err := svc.Upload(ctx, UploadInput{
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		Data:        []byte("x"),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	note := "follow up with finance"
	if err := svc.UpdateNote(ctx, path, &note); err != nil {
		t.Fatalf("update note failed: %v", err)
	}
	row, _ := store.SelectByPath(ctx, path)
	if row.NoteTaking == nil || *row.NoteTaking != note {
		t.Fatalf("note not stored: %v", row.NoteTaking)
	}

	if err := svc.UpdateNote(ctx, path, nil); err != nil {
		t.Fatalf("clear note failed: %v", err)
	}
	row, _ = store.SelectByPath(ctx, path)
	if row.NoteTaking != nil {
		t.Fatalf("note not cleared: %q", *row.NoteTaking)
	}

	if err := svc.UpdateNote(ctx, "uploads/ghost.pdf", &note); err != nil {
		t.Fatalf("note on unknown path failed: %v", err)
	}
}

func TestTranslateDelegatesToModel(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.Translate(ctx, "Hello", []string{"French"}); !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("expected ErrMissingConfig, got %v", err)
	}

	fake := &fakeAI{translations: map[string]string{"French": "Bonjour"}}
	svc, _, _ = newTestService(t, fake)

	if _, err := svc.Translate(ctx, "   ", []string{"French"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank text, got %v", err)
	}
	if _, err := svc.Translate(ctx, "Hello", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for no languages, got %v", err)
	}

	got, err := svc.Translate(ctx, "Hello", []string{"French"})
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if got["French"] != "Bonjour" {
		t.Fatalf("unexpected translations %v", got)
	}

	fake.translateErr = errors.New("model said no")
	if _, err := svc.Translate(ctx, "Hello", []string{"French"}); err == nil {
		t.Fatal("expected model failure to propagate")
	} else if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrUnprocessable) {
		t.Fatalf("model failure mapped to the wrong class: %v", err)
	}
}
