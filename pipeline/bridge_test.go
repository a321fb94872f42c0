package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"vidlingo/models"
	"vidlingo/services/subtitles"
	"vidlingo/services/tasks"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type bridgeFixture struct {
	bridge    *Bridge
	subtitles subtitles.Service
	tasks     tasks.Store
}

func newBridgeFixture(t *testing.T, serverURL string) *bridgeFixture {
	t.Helper()
	log := testLogger()
	subs := subtitles.NewService(log)
	store := tasks.NewStore(log)
	client := NewClient(serverURL, 5*time.Second)
	bridge := NewBridge(client, subs, store, log, Config{
		PollInterval:   5 * time.Millisecond,
		ProcessTimeout: 2 * time.Second,
		FromLang:       "en",
		ToLang:         "zh-CHS",
	})
	return &bridgeFixture{bridge: bridge, subtitles: subs, tasks: store}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestExtractHappyPath(t *testing.T) {
	var polls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/extract":
			var req map[string]string
			json.NewDecoder(r.Body).Decode(&req)
			if req["video_path"] != "/videos/lesson.mp4" {
				t.Errorf("unexpected video_path %q", req["video_path"])
			}
			writeJSON(w, map[string]interface{}{"ok": true, "task_id": "remote-1"})
		case r.URL.Path == "/status/remote-1":
			if atomic.AddInt32(&polls, 1) < 3 {
				writeJSON(w, TaskState{Status: "processing", Progress: 40})
				return
			}
			writeJSON(w, TaskState{Status: "done", Progress: 100})
		case r.URL.Path == "/result/remote-1":
			writeJSON(w, ExtractResult{
				Segments: []Segment{
					{Start: 0, End: 2.5, Text: " Hello there. "},
					{Start: 2.5, End: 5, Text: "Welcome back."},
				},
				SrtPath: "/tmp/lesson.srt",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := newBridgeFixture(t, server.URL)
	lines, err := f.bridge.Extract(context.Background(), "v1", "/videos/lesson.mp4")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Text != "Hello there." {
		t.Errorf("segment text must be trimmed, got %q", lines[0].Text)
	}
	if lines[0].ID != "1" || lines[1].ID != "2" {
		t.Errorf("lines must be numbered from 1: %q %q", lines[0].ID, lines[1].ID)
	}

	stored := f.subtitles.Get("v1")
	if len(stored) != 2 {
		t.Errorf("lines must land in the subtitle store, got %d", len(stored))
	}

	all := f.tasks.All()
	if len(all) != 1 || all[0].Status != models.TaskStatusDone || all[0].Progress != 100 {
		t.Errorf("unexpected task state %+v", all)
	}
	if f.bridge.Processing() {
		t.Error("processing flag must clear on success")
	}
}

func TestExtractServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/extract":
			writeJSON(w, map[string]interface{}{"ok": true, "task_id": "remote-1"})
		case r.URL.Path == "/status/remote-1":
			writeJSON(w, TaskState{Status: "error", Error: "whisper crashed"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := newBridgeFixture(t, server.URL)

	// Pre-existing subtitles must survive a failed run.
	f.subtitles.SetSubtitles("v1", []models.SubtitleLine{{ID: "1", VideoID: "v1", Text: "old"}})

	if _, err := f.bridge.Extract(context.Background(), "v1", "/videos/x.mp4"); err == nil {
		t.Fatal("expected error from failed extraction")
	}

	if f.bridge.Processing() {
		t.Error("processing flag must clear on failure")
	}
	if got := f.subtitles.Get("v1"); len(got) != 1 || got[0].Text != "old" {
		t.Errorf("committed subtitles must be kept, got %+v", got)
	}
	all := f.tasks.All()
	if len(all) != 1 || all[0].Status != models.TaskStatusError {
		t.Errorf("task must be failed, got %+v", all)
	}
}

func TestExtractRejectedUpFront(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"ok": false, "error": "file not found"})
	}))
	defer server.Close()

	f := newBridgeFixture(t, server.URL)
	if _, err := f.bridge.Extract(context.Background(), "v1", "/gone.mp4"); err == nil {
		t.Fatal("expected rejection error")
	}
	if f.bridge.Processing() {
		t.Error("processing flag must clear")
	}
}

func TestOnlyOneOperationAtATime(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, map[string]interface{}{"ok": false, "error": "late"})
	}))
	defer server.Close()

	f := newBridgeFixture(t, server.URL)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.bridge.Extract(context.Background(), "v1", "/x.mp4")
	}()

	// Wait until the first operation holds the flag.
	for !f.bridge.Processing() {
		time.Sleep(time.Millisecond)
	}
	if _, err := f.bridge.Translate(context.Background(), "v1", "/x.srt"); err == nil {
		t.Error("second operation must be refused while one is running")
	}

	close(release)
	<-done
}

func TestLabelFlattensBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/label" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, models.VocabDocument{
			Blocks: []models.VocabBlock{
				{Index: 1, Words: []models.VocabWord{
					{Original: "Hello", Entry: models.VocabEntry{Word: "hello", Translation: "你好"}},
					{Original: "there", Entry: models.VocabEntry{Word: "there", Translation: "那里"}},
				}},
				{Index: 2, Words: []models.VocabWord{
					{Original: "welcome", Entry: models.VocabEntry{Word: "welcome", Translation: "欢迎"}},
				}},
			},
			WordMap: map[string]models.VocabEntry{
				"hello":   {Word: "hello", Translation: "你好"},
				"there":   {Word: "there", Translation: "那里"},
				"welcome": {Word: "welcome", Translation: "欢迎"},
			},
		})
	}))
	defer server.Close()

	f := newBridgeFixture(t, server.URL)
	words, doc, err := f.bridge.Label(context.Background(), "v1", "/tmp/lesson.srt")
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}

	if len(words) != 3 {
		t.Errorf("expected 3 flattened words, got %d", len(words))
	}
	if words[0].Entry.Word != "hello" || words[2].Entry.Word != "welcome" {
		t.Errorf("flattening must preserve block order: %+v", words)
	}
	if len(doc.WordMap) != 3 {
		t.Errorf("document must carry the word map, got %d entries", len(doc.WordMap))
	}
}

func TestTranslateMergesByNearestStart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			http.NotFound(w, r)
			return
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["from_lang"] != "en" || req["to_lang"] != "zh-CHS" {
			t.Errorf("unexpected languages %v", req)
		}
		writeJSON(w, map[string]interface{}{
			"ok": true,
			"translations": []Translation{
				{Start: 0.3, TextCn: "你好。"},
				{Start: 2.6, TextCn: "欢迎回来。"},
				{Start: 99, TextCn: "孤儿翻译"},
			},
		})
	}))
	defer server.Close()

	f := newBridgeFixture(t, server.URL)
	f.subtitles.SetSubtitles("v1", []models.SubtitleLine{
		{ID: "1", VideoID: "v1", Start: 0, End: 2.5, Text: "Hello."},
		{ID: "2", VideoID: "v1", Start: 2.5, End: 5, Text: "Welcome back."},
		{ID: "3", VideoID: "v1", Start: 10, End: 12, Text: "Far away."},
	})

	lines, err := f.bridge.Translate(context.Background(), "v1", "/tmp/lesson.srt")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if lines[0].TextCn != "你好。" || lines[1].TextCn != "欢迎回来。" {
		t.Errorf("nearest-start match failed: %+v", lines)
	}
	if lines[2].TextCn != "" {
		t.Errorf("line with no translation within tolerance must stay empty, got %q", lines[2].TextCn)
	}

	stored := f.subtitles.Get("v1")
	if stored[0].TextCn != "你好。" {
		t.Error("merged lines must be written back to the store")
	}
}

func TestTranslateWithoutSubtitles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"ok": true, "translations": []Translation{}})
	}))
	defer server.Close()

	f := newBridgeFixture(t, server.URL)
	if _, err := f.bridge.Translate(context.Background(), "v1", "/x.srt"); err == nil {
		t.Error("expected error when no subtitles are loaded")
	}
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			http.NotFound(w, r)
			return
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["video_path"] == "" || req["srt_path"] == "" {
			t.Errorf("missing payload fields: %v", req)
		}
		writeJSON(w, map[string]interface{}{"ok": true, "out_path": "/videos/lesson_cn.mp4"})
	}))
	defer server.Close()

	f := newBridgeFixture(t, server.URL)
	out, err := f.bridge.Embed(context.Background(), "v1", "/videos/lesson.mp4", "/tmp/lesson.srt")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if out != "/videos/lesson_cn.mp4" {
		t.Errorf("unexpected output path %q", out)
	}

	all := f.tasks.All()
	if len(all) != 1 || all[0].Type != models.TaskTypeEmbed || all[0].Status != models.TaskStatusDone {
		t.Errorf("unexpected task state %+v", all)
	}
}

func TestServiceUnreachable(t *testing.T) {
	f := newBridgeFixture(t, "http://127.0.0.1:1")

	if _, err := f.bridge.Extract(context.Background(), "v1", "/x.mp4"); err == nil {
		t.Error("expected error when the service is down")
	}
	if f.bridge.Processing() {
		t.Error("processing flag must clear")
	}
}
