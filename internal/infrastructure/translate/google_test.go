package translate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChannelPublisher/internal/config"
)

func newTestClient(url string) *GoogleClient {
	return NewGoogleClient(config.TranslateConfig{
		Endpoint:       url,
		TargetLanguage: "ru",
		Timeout:        time.Second,
	})
}

func TestTranslateJoinsSegments(t *testing.T) {
	t.Parallel()

	queries := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.RawQuery
		fmt.Fprint(w, `[[["Биткоин ETF одобрен. ","Bitcoin ETF Approved. ",null,null,10],["Рынок растёт","Market rallies",null,null,10]],null,"en"]`)
	}))
	t.Cleanup(srv.Close)

	got, err := newTestClient(srv.URL).Translate(context.Background(), "Bitcoin ETF Approved. Market rallies")
	require.NoError(t, err)
	assert.Equal(t, "Биткоин ETF одобрен. Рынок растёт", got)

	query := <-queries
	assert.Contains(t, query, "client=gtx")
	assert.Contains(t, query, "tl=ru")
}

func TestTranslateErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>captcha</html>`)
		},
		"empty": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[[],null,"en"]`)
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(handler)
			t.Cleanup(srv.Close)

			_, err := newTestClient(srv.URL).Translate(context.Background(), "hello")
			assert.Error(t, err)
		})
	}
}

func TestTranslateBlankInputSkipsRequest(t *testing.T) {
	t.Parallel()

	got, err := newTestClient("http://127.0.0.1:1").Translate(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "  ", got)
}

func TestNoop(t *testing.T) {
	t.Parallel()

	got, err := Noop{}.Translate(context.Background(), "same")
	require.NoError(t, err)
	assert.Equal(t, "same", got)
}
