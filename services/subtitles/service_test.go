package subtitles

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"vidlingo/models"
)

func testService() Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewService(log)
}

func TestSetSubtitlesReplacesWholesale(t *testing.T) {
	svc := testService()

	svc.SetSubtitles("v1", []models.SubtitleLine{
		{ID: "a", VideoID: "v1", Start: 0, End: 1, Text: "old one"},
		{ID: "b", VideoID: "v1", Start: 1, End: 2, Text: "old two"},
	})
	svc.SetSubtitles("v1", []models.SubtitleLine{
		{ID: "c", VideoID: "v1", Start: 0, End: 1, Text: "new"},
	})

	lines := svc.Get("v1")
	if len(lines) != 1 || lines[0].ID != "c" {
		t.Errorf("old lines must not survive replacement: %+v", lines)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	svc := testService()
	svc.SetSubtitles("v1", []models.SubtitleLine{{ID: "a", Text: "hello"}})

	lines := svc.Get("v1")
	lines[0].Text = "mutated"

	if got := svc.Get("v1"); got[0].Text != "hello" {
		t.Error("mutating a returned slice must not affect the store")
	}
}

func TestGetUnknownVideo(t *testing.T) {
	if lines := testService().Get("nope"); lines != nil {
		t.Errorf("expected nil for unknown video, got %+v", lines)
	}
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	svc := testService()

	svc.Seed("v1")
	if len(svc.Get("v1")) == 0 {
		t.Fatal("seed must install demo lines")
	}

	svc.Seed("v2")
	if svc.Get("v2") != nil {
		t.Error("seed must be a no-op once any subtitles exist")
	}
}

func TestClear(t *testing.T) {
	svc := testService()
	svc.SetSubtitles("v1", []models.SubtitleLine{{ID: "a"}})

	svc.Clear("v1")
	if svc.Get("v1") != nil {
		t.Error("expected no lines after Clear")
	}
}
