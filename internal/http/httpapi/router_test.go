package httpapi

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"t4studio/internal/compositor"
	"t4studio/internal/domain"
	"t4studio/internal/http/handlers"
	imageprovider "t4studio/internal/providers/image"
	"t4studio/internal/wizard"
)

// flakyGenerator fails every call whose prompt mentions failOn.
type flakyGenerator struct {
	failOn string
	calls  atomic.Int32
}

func (g *flakyGenerator) Generate(ctx context.Context, req imageprovider.Request) imageprovider.Result {
	g.calls.Add(1)
	if g.failOn != "" && strings.Contains(req.Prompt, g.failOn) {
		return imageprovider.Result{Err: errors.New("model returned text only")}
	}
	return imageprovider.Result{Image: image.NewNRGBA(image.Rect(0, 0, 48, 32))}
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newServer(t *testing.T, gen imageprovider.Generator) (*httptest.Server, *client) {
	t.Helper()
	comp := compositor.New(compositor.FontOptions{File: "missing.ttf", SystemDir: t.TempDir()}, nil)
	wiz := wizard.NewService(wizard.NewMemoryStore(time.Hour), gen, nil)
	app := handlers.NewApp(nil, gen, gen, wiz, comp, 8<<20)
	srv := httptest.NewServer(NewRouter(app, Options{SessionCookie: "sid"}))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return srv, &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

type view struct {
	Page     string   `json:"page"`
	Commands []string `json:"commands"`
	Results  []struct {
		Variant string `json:"variant"`
		OK      bool   `json:"ok"`
		Error   string `json:"error"`
	} `json:"results"`
	History []struct {
		ID           string `json:"id"`
		Topic        string `json:"topic"`
		ThumbnailURL string `json:"thumbnail_url"`
	} `json:"history"`
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
	Session *view `json:"session"`
}

func (c *client) do(req *http.Request) (*http.Response, []byte) {
	c.t.Helper()
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func (c *client) call(method, path, contentType string, body io.Reader, header http.Header) (int, view, []byte) {
	c.t.Helper()
	req, _ := http.NewRequest(method, c.base+path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	resp, raw := c.do(req)
	var v view
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &v); err != nil {
			c.t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode, v, raw
}

func (c *client) post(path string) (int, view) {
	c.t.Helper()
	code, v, _ := c.call(http.MethodPost, path, "", nil, nil)
	return code, v
}

func (c *client) scoping(payload string) (int, view) {
	c.t.Helper()
	code, v, _ := c.call(http.MethodPost, "/v1/wizard/scoping", "application/json", strings.NewReader(payload), nil)
	return code, v
}

func (c *client) assets() (int, view) {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("model", "model.png")
	_ = png.Encode(fw, image.NewNRGBA(image.Rect(0, 0, 4, 4)))
	_ = mw.WriteField("instructions", "warm tones")
	_ = mw.Close()
	code, v, _ := c.call(http.MethodPost, "/v1/wizard/assets", mw.FormDataContentType(), &buf, nil)
	return code, v
}

const validScoping = `{"topic":"Thingyan sale","aspect_ratio":"9:16","subjects":{"model":{"role":"main","quantity":2,"gender":"female"},"text":{"role":"supporting","quantity":1,"line_count":2,"focus_line":1}}}`

func TestWizardFlow(t *testing.T) {
	gen := &flakyGenerator{failOn: domain.StyleClause(domain.VariantDistance)}
	_, c := newServer(t, gen)

	code, v, _ := c.call(http.MethodGet, "/v1/wizard", "", nil, nil)
	if code != http.StatusOK || v.Page != "dashboard" {
		t.Fatalf("expected dashboard, got %d %q", code, v.Page)
	}

	if code, v := c.scoping(validScoping); code != http.StatusConflict || v.Error.Code != "invalid_transition" {
		t.Fatalf("scoping from dashboard: got %d %q", code, v.Error.Code)
	}

	if code, v := c.post("/v1/wizard/start"); code != http.StatusOK || v.Page != "wizard_1" {
		t.Fatalf("start: got %d %q", code, v.Page)
	}

	code, v = c.scoping(`{"topic":"   "}`)
	if code != http.StatusUnprocessableEntity || v.Error.Code != "topic_required" {
		t.Fatalf("empty topic: got %d %q", code, v.Error.Code)
	}
	if v.Session == nil || v.Session.Page != "wizard_1" {
		t.Fatalf("empty topic must keep wizard_1, got %+v", v.Session)
	}

	if code, v := c.scoping(validScoping); code != http.StatusOK || v.Page != "wizard_2" {
		t.Fatalf("scoping: got %d %q", code, v.Page)
	}
	if code, v := c.post("/v1/wizard/back"); code != http.StatusOK || v.Page != "wizard_1" {
		t.Fatalf("back: got %d %q", code, v.Page)
	}
	if code, _ := c.scoping(validScoping); code != http.StatusOK {
		t.Fatalf("rescoping: got %d", code)
	}
	if code, v := c.assets(); code != http.StatusOK || v.Page != "results" {
		t.Fatalf("assets: got %d %q", code, v.Page)
	}

	code, v = c.post("/v1/wizard/generate")
	if code != http.StatusBadRequest || v.Error.Code != "api_key_required" {
		t.Fatalf("generate without key: got %d %q", code, v.Error.Code)
	}
	if gen.calls.Load() != 0 {
		t.Fatal("generator called without an api key")
	}

	code, v, _ = c.call(http.MethodPost, "/v1/wizard/generate", "", nil, http.Header{"X-Gemini-Key": {"user-key"}})
	if code != http.StatusOK {
		t.Fatalf("generate: got %d", code)
	}
	if len(v.Results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(v.Results))
	}
	wantOK := map[string]bool{"standard": true, "uncommon": true, "distance": false, "abstract": true}
	for i, r := range v.Results {
		if r.Variant != string(domain.Variants[i]) {
			t.Fatalf("result %d is %q, want %q", i, r.Variant, domain.Variants[i])
		}
		if r.OK != wantOK[r.Variant] {
			t.Fatalf("variant %s ok=%v error=%q", r.Variant, r.OK, r.Error)
		}
	}

	code, _, raw := c.call(http.MethodGet, "/v1/wizard/results/standard", "", nil, nil)
	if code != http.StatusOK {
		t.Fatalf("download standard: got %d", code)
	}
	if _, err := png.Decode(bytes.NewReader(raw)); err != nil {
		t.Fatalf("download is not a png: %v", err)
	}
	if code, _, _ := c.call(http.MethodGet, "/v1/wizard/results/distance", "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("failed variant must not be downloadable, got %d", code)
	}

	code, _, raw = c.call(http.MethodGet, "/v1/wizard/results.zip", "", nil, nil)
	if code != http.StatusOK {
		t.Fatalf("zip: got %d", code)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	if len(zr.File) != 3 {
		t.Fatalf("expected 3 zipped variants, got %d", len(zr.File))
	}

	code, v, _ = c.call(http.MethodGet, "/v1/wizard/history", "", nil, nil)
	if code != http.StatusOK || len(v.History) != 1 || v.History[0].Topic != "Thingyan sale" {
		t.Fatalf("history: got %d %+v", code, v.History)
	}
	if code, _, _ := c.call(http.MethodGet, v.History[0].ThumbnailURL, "", nil, nil); code != http.StatusOK {
		t.Fatalf("thumbnail: got %d", code)
	}

	code, v = c.post("/v1/wizard/new")
	if code != http.StatusOK || v.Page != "dashboard" || len(v.Results) != 0 {
		t.Fatalf("new project: got %d %q results=%d", code, v.Page, len(v.Results))
	}
	if len(v.History) != 1 {
		t.Fatalf("history must survive a new project, got %d", len(v.History))
	}
}

func TestWizardSessionsAreIsolated(t *testing.T) {
	srv, a := newServer(t, &flakyGenerator{})
	jar, _ := cookiejar.New(nil)
	b := &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}

	if code, _ := a.post("/v1/wizard/start"); code != http.StatusOK {
		t.Fatalf("start: %d", code)
	}
	_, v, _ := b.call(http.MethodGet, "/v1/wizard", "", nil, nil)
	if v.Page != "dashboard" {
		t.Fatalf("second client should be on dashboard, got %q", v.Page)
	}
}

func TestWizardStream(t *testing.T) {
	srv, c := newServer(t, &flakyGenerator{})
	c.post("/v1/wizard/start")
	c.scoping(validScoping)
	c.assets()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/wizard/stream"
	header := http.Header{}
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/wizard", nil)
	for _, ck := range c.http.Jar.Cookies(req.URL) {
		header.Add("Cookie", ck.String())
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "generate", "api_key": "k"}); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var variants []string
	for {
		var msg struct {
			Type   string `json:"type"`
			Result *struct {
				Variant string `json:"variant"`
				OK      bool   `json:"ok"`
			} `json:"result"`
			Image   []byte `json:"image"`
			Session *view  `json:"session"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type == "done" {
			if msg.Session == nil || len(msg.Session.History) != 1 {
				t.Fatalf("done message should carry the saved session")
			}
			break
		}
		if msg.Type != "variant" || msg.Result == nil || !msg.Result.OK || len(msg.Image) == 0 {
			t.Fatalf("unexpected message %+v", msg)
		}
		variants = append(variants, msg.Result.Variant)
	}
	if strings.Join(variants, ",") != "standard,uncommon,distance,abstract" {
		t.Fatalf("variants arrived as %v", variants)
	}
}

func TestStreamRequiresAPIKey(t *testing.T) {
	srv, c := newServer(t, &flakyGenerator{})
	c.post("/v1/wizard/start")
	c.scoping(validScoping)
	c.assets()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/wizard", nil)
	header := http.Header{}
	for _, ck := range c.http.Jar.Cookies(req.URL) {
		header.Add("Cookie", ck.String())
	}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/wizard/stream", header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.WriteJSON(map[string]string{"type": "generate"})
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg struct {
		Type  string `json:"type"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "error" || msg.Error.Code != "api_key_required" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestHealthz(t *testing.T) {
	_, c := newServer(t, &flakyGenerator{})
	code, _, raw := c.call(http.MethodGet, "/v1/healthz", "", nil, nil)
	if code != http.StatusOK || !strings.Contains(string(raw), "ok") {
		t.Fatalf("healthz: %d %s", code, raw)
	}
}
