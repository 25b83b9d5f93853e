package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"

	"github.com/RecoveryAshes/SheetHarvest/internal/models"
)

// staticHeaders 固定头部的HeaderProvider
type staticHeaders http.Header

func (h staticHeaders) GetHeaders() (http.Header, error) {
	return http.Header(h), nil
}

func TestCollyFetcher(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Harvest-Test") != "yes" {
			http.Error(w, "missing header", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<a href="/f/a.xls">A</a>`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := NewCollyFetcher(
		models.FetchConfig{Mode: models.FetchModeStatic},
		staticHeaders{"X-Harvest-Test": []string{"yes"}},
	)
	defer fetcher.Close()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"200返回页面内容", "/ok", 0, `<a href="/f/a.xls">A</a>`},
		{"404返回FetchError", "/missing", 404, ""},
		{"204也视为失败", "/empty", 204, ""},
		{"500返回FetchError", "/broken", 500, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := fetcher.Fetch(context.Background(), server.URL+tt.path)
			if tt.wantStatus == 0 {
				if err != nil {
					t.Fatalf("Fetch() error = %v", err)
				}
				if string(body) != tt.wantBody {
					t.Errorf("Fetch() = %q, want %q", body, tt.wantBody)
				}
				return
			}

			var fe *models.FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("期望FetchError, 实际 %v", err)
			}
			if fe.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", fe.StatusCode, tt.wantStatus)
			}
		})
	}

	t.Run("同一URL可重复抓取", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if _, err := fetcher.Fetch(context.Background(), server.URL+"/ok"); err != nil {
				t.Fatalf("第%d次Fetch() error = %v", i+1, err)
			}
		}
	})
}

func TestCollyFetcherTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	fetcher := NewCollyFetcher(models.FetchConfig{Mode: models.FetchModeStatic}, nil)
	_, err := fetcher.Fetch(context.Background(), addr+"/page")

	var fe *models.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("期望FetchError, 实际 %v", err)
	}
	if fe.StatusCode != 0 {
		t.Errorf("网络错误的StatusCode应为0, 实际 %d", fe.StatusCode)
	}
}

func TestCollyFetcherCancelled(t *testing.T) {
	fetcher := NewCollyFetcher(models.FetchConfig{Mode: models.FetchModeStatic}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := fetcher.Fetch(ctx, "http://127.0.0.1:1/"); !errors.Is(err, context.Canceled) {
		t.Fatalf("期望context.Canceled, 实际 %v", err)
	}
}

func TestDecodeBody(t *testing.T) {
	const plain = "<html><body>Statistics: decoded</body></html>"

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	bw.Write([]byte(plain))
	bw.Close()

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Write([]byte(plain))
	gw.Close()

	var zl bytes.Buffer
	zw := zlib.NewWriter(&zl)
	zw.Write([]byte(plain))
	zw.Close()

	var raw bytes.Buffer
	fw, _ := flate.NewWriter(&raw, flate.DefaultCompression)
	fw.Write([]byte(plain))
	fw.Close()

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{"brotli", "br", br.Bytes()},
		{"gzip未被解压", "gzip", gz.Bytes()},
		{"gzip已被解压", "gzip", []byte(plain)},
		{"zlib封装的deflate", "deflate", zl.Bytes()},
		{"裸deflate", "Deflate", raw.Bytes()},
		{"未压缩", "", []byte(plain)},
		{"未知编码原样返回", "identity", []byte(plain)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeBody(tt.encoding, tt.body)
			if err != nil {
				t.Fatalf("decodeBody() error = %v", err)
			}
			if string(got) != plain {
				t.Errorf("decodeBody() = %q", got)
			}
		})
	}
}

func TestNewPageFetcher(t *testing.T) {
	f, err := NewPageFetcher(models.FetchConfig{Mode: models.FetchModeStatic}, nil)
	if err != nil {
		t.Fatalf("NewPageFetcher() error = %v", err)
	}
	if _, ok := f.(*CollyFetcher); !ok {
		t.Errorf("static模式应创建CollyFetcher, 实际 %T", f)
	}

	if _, err := NewPageFetcher(models.FetchConfig{Mode: "ftp"}, nil); err == nil {
		t.Error("无效模式应返回错误")
	}
}
