package converter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printdesk/internal/config"
)

func TestClient_Convert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/convert", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "docx", r.FormValue("format"))

		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "source.docx", fh.Filename)
		b, _ := io.ReadAll(f)
		assert.Equal(t, "word bytes", string(b))

		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-rendered"))
	}))
	defer srv.Close()

	c := New(config.ConverterConfig{URL: srv.URL + "/", Timeout: 5 * time.Second})
	out, err := c.Convert(context.Background(), []byte("word bytes"), "docx")

	require.NoError(t, err)
	assert.Equal(t, "%PDF-rendered", string(out))
}

func TestClient_ConvertServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "libreoffice failed", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(config.ConverterConfig{URL: srv.URL, Timeout: 5 * time.Second})
	_, err := c.Convert(context.Background(), []byte("x"), "doc")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "libreoffice failed")
}

func TestClient_ConvertCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(config.ConverterConfig{URL: srv.URL, Timeout: 5 * time.Second})
	_, err := c.Convert(ctx, []byte("x"), "png")

	assert.Error(t, err)
}
