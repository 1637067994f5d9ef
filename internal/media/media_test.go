package media

import (
	"encoding/binary"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"episode.mp3", KindAudio, true},
		{"clips/Intro.MOV", KindVideo, true},
		{"assets/cover.PNG", KindImage, true},
		{"paper.pdf", KindDocument, true},
		{"https://example.com/a.webm?x=1", KindVideo, true},
		{"https://example.com/article", KindExternalLink, true},
		{"Other note", "", false},
		{"notes/other.md", "", false},
	}
	for _, c := range cases {
		got, ok := Classify(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("Classify(%q) = %q, %v; want %q, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestClassify_SubstringMatch(t *testing.T) {
	got, ok := Classify("files/track.mp3.bak")
	if !ok || got != KindAudio {
		t.Errorf("Classify = %q, %v; want audio", got, ok)
	}
}

func TestMimeType(t *testing.T) {
	cases := map[string]string{
		"a.mp3":                       "audio/mpeg",
		"b.M4V":                       "video/mp4",
		"c.svg":                       "image/svg+xml",
		"d.docx":                      "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"https://x.test/e.png?sig=ab": "image/png",
	}
	for in, want := range cases {
		if got := MimeType(in, KindImage); got != want {
			t.Errorf("MimeType(%q) = %q, want %q", in, got, want)
		}
	}
	if got := MimeType("noext", KindAudio); got != "audio/*" {
		t.Errorf("fallback = %q, want audio/*", got)
	}
}

func TestSelectAttachment_Priority(t *testing.T) {
	refs := []Reference{
		{Kind: KindExternalLink, Location: "https://example.com"},
		{Kind: KindImage, Location: "a.png"},
		{Kind: KindDocument, Location: "b.pdf"},
		{Kind: KindVideo, Location: "c.mp4"},
	}
	got := SelectAttachment(refs)
	if got == nil || got.Location != "c.mp4" {
		t.Fatalf("SelectAttachment = %+v, want c.mp4", got)
	}

	refs = append(refs, Reference{Kind: KindAudio, Location: "d.mp3"})
	if got := SelectAttachment(refs); got.Location != "d.mp3" {
		t.Errorf("SelectAttachment = %q, want d.mp3", got.Location)
	}

	if SelectAttachment(nil) != nil {
		t.Error("expected nil for empty list")
	}
}

func TestDetectMIME(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
	if got := DetectMIME(png); got != "image/png" {
		t.Errorf("DetectMIME(png) = %q", got)
	}
	if got := DetectMIME(nil); got != "application/octet-stream" {
		t.Errorf("DetectMIME(nil) = %q", got)
	}
}

func wavHeader(byteRate, dataSize uint32) []byte {
	b := make([]byte, 44)
	copy(b[0:4], "RIFF")
	binary.LittleEndian.PutUint32(b[4:8], 36+dataSize)
	copy(b[8:12], "WAVE")
	copy(b[12:16], "fmt ")
	binary.LittleEndian.PutUint32(b[16:20], 16)
	binary.LittleEndian.PutUint16(b[20:22], 1)
	binary.LittleEndian.PutUint16(b[22:24], 1)
	binary.LittleEndian.PutUint32(b[24:28], byteRate)
	binary.LittleEndian.PutUint32(b[28:32], byteRate)
	binary.LittleEndian.PutUint16(b[32:34], 1)
	binary.LittleEndian.PutUint16(b[34:36], 8)
	copy(b[36:40], "data")
	binary.LittleEndian.PutUint32(b[40:44], dataSize)
	return b
}

func TestDuration_WAV(t *testing.T) {
	secs, ok := Duration(wavHeader(8000, 8000*42))
	if !ok || secs != 42 {
		t.Errorf("Duration = %d, %v; want 42, true", secs, ok)
	}
}

func TestDuration_Unknown(t *testing.T) {
	if _, ok := Duration([]byte(strings.Repeat("x", 64))); ok {
		t.Error("expected unknown duration for non-WAV data")
	}
}
