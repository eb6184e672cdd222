package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"nexus-capture/internal/domain"
)

func TestTranscriptionService_RequiresSecret(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	svc := NewTranscriptionService(server.URL, server.Client(), NewMockLogger())
	result := svc.Transcribe(context.Background(), []byte("audio"), domain.Settings{})
	if result.OK {
		t.Fatalf("expected failure without a secret")
	}
	if result.Error != "transcription requires an API secret" {
		t.Fatalf("unexpected error %q", result.Error)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no outbound call")
	}
}

func TestTranscriptionService_EmptyAudio(t *testing.T) {
	svc := NewTranscriptionService("http://unused", nil, NewMockLogger())
	result := svc.Transcribe(context.Background(), nil, domain.Settings{AstraPassword: "s"})
	if result.OK || result.Error != domain.ErrInvalidAudio.Error() {
		t.Fatalf("expected invalid audio failure, got %+v", result)
	}
}

func TestTranscriptionService_Success(t *testing.T) {
	var (
		gotAuth     string
		gotFilename string
		gotType     string
		gotAudio    []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		file, header, err := r.FormFile("audio")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotAudio, _ = io.ReadAll(file)
		_, _ = w.Write([]byte(`{"ok":true,"text":"remember the milk"}`))
	}))
	defer server.Close()

	svc := NewTranscriptionService(server.URL, server.Client(), NewMockLogger())
	result := svc.Transcribe(context.Background(), []byte{1, 2, 3}, domain.Settings{AstraPassword: "pw"})
	if !result.OK || result.Text != "remember the milk" {
		t.Fatalf("unexpected result %+v", result)
	}
	if gotAuth != "Bearer pw" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotFilename != "recording.webm" {
		t.Fatalf("expected recording.webm, got %q", gotFilename)
	}
	if gotType != "audio/webm" {
		t.Fatalf("expected audio/webm, got %q", gotType)
	}
	if string(gotAudio) != string([]byte{1, 2, 3}) {
		t.Fatalf("audio bytes were not forwarded intact")
	}
}

func TestTranscriptionService_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"upstream error", http.StatusBadGateway, ``, "Transcribe API error: 502"},
		{"reported failure", http.StatusOK, `{"ok":false,"error":"too short"}`, "too short"},
		{"empty text", http.StatusOK, `{"ok":true,"text":""}`, "no transcription returned"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc := NewTranscriptionService(server.URL, server.Client(), NewMockLogger())
			result := svc.Transcribe(context.Background(), []byte("a"), domain.Settings{AstraPassword: "pw"})
			if result.OK || result.Error != tt.wantErr {
				t.Fatalf("expected error %q, got %+v", tt.wantErr, result)
			}
			if atomic.LoadInt32(&calls) != 1 {
				t.Fatalf("expected exactly one call, got %d", calls)
			}
		})
	}
}
