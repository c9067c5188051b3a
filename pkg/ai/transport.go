package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/johnstilia/commitscope/pkg/apperr"
	"github.com/johnstilia/commitscope/pkg/config"
	"github.com/johnstilia/commitscope/pkg/logging"
)

// errorBodyLimit bounds the response body carried by a transport error.
const errorBodyLimit = 400

// rawHeadLimit bounds the raw response logged when log_raw is on.
const rawHeadLimit = 1000

// Transport posts a request to the model endpoint.
type Transport interface {
	Post(ctx context.Context, req Request) (Response, error)
}

// NewTransport returns the transport selected by the configuration.
func NewTransport(cfg *config.Config, log zerolog.Logger) Transport {
	if cfg.AI.Transport == config.Curl {
		return &CurlTransport{Timeout: cfg.Timeout(), LogRaw: cfg.AI.LogRaw, Log: log}
	}
	return &DirectTransport{Timeout: cfg.Timeout(), LogRaw: cfg.AI.LogRaw, Log: log}
}

// DirectTransport posts with net/http. The timeout and the caller's
// cancellation share one context, so whichever fires first aborts the request.
type DirectTransport struct {
	Client  *http.Client
	Timeout time.Duration
	LogRaw  bool
	Log     zerolog.Logger
}

// Post sends req and classifies the answer.
func (t *DirectTransport) Post(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return Response{}, fmt.Errorf("encode payload: %w", err)
	}

	reqCtx := ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, req.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, apperr.Wrap(err, apperr.ErrCodeConfigInvalid, "invalid endpoint")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		return Response{}, requestError(ctx, reqCtx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, requestError(ctx, reqCtx, err)
	}

	t.Log.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(data)).
		Msg("model endpoint answered")
	if t.LogRaw {
		logging.Section(t.Log, "raw-head", logging.Truncate(string(data), rawHeadLimit))
	}
	return classify(resp.StatusCode, resp.Header.Get("Content-Type"), data)
}

// requestError distinguishes caller cancellation from the transport's own
// timeout and from network failures.
func requestError(parent, reqCtx context.Context, err error) error {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return apperr.Cancelled(parent.Err())
	case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
		return apperr.TransportTimeout(err)
	default:
		return apperr.Wrap(err, apperr.ErrCodeTransportFailed, "request failed")
	}
}

// classify turns a status, content type and body into a Response, or an
// error carrying the head of the body for any non-2xx status.
func classify(status int, contentType string, body []byte) (Response, error) {
	if status < 200 || status > 299 {
		return Response{}, apperr.TransportFailed(status, logging.Truncate(string(body), errorBodyLimit))
	}
	return ParseResponse(body, isJSONContentType(contentType)), nil
}

func isJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// CurlTransport shells out to curl. It is bounded by curl's --max-time only:
// once curl has started, cancelling ctx does not stop it.
type CurlTransport struct {
	// Bin is the curl executable; empty means "curl" on PATH.
	Bin     string
	Timeout time.Duration
	LogRaw  bool
	Log     zerolog.Logger
	// TempDir holds the payload, header and body files; empty means os.TempDir().
	TempDir string
}

// curlTimeoutExit is curl's exit status for an operation timeout.
const curlTimeoutExit = 28

// Post sends req through curl and classifies the answer.
func (t *CurlTransport) Post(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, apperr.Cancelled(err)
	}

	body, err := json.Marshal(req.Payload)
	if err != nil {
		return Response{}, fmt.Errorf("encode payload: %w", err)
	}

	dir := t.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	base := filepath.Join(dir, "commitscope-"+uuid.NewString())
	payloadFile, headerFile, bodyFile := base+".json", base+".headers", base+".body"
	defer func() {
		for _, f := range []string{payloadFile, headerFile, bodyFile} {
			os.Remove(f)
		}
	}()

	if err := os.WriteFile(payloadFile, body, 0o600); err != nil {
		return Response{}, fmt.Errorf("write payload: %w", err)
	}
	// Headers go through a file so the API key never shows up in ps.
	if err := os.WriteFile(headerFile, []byte(headerLines(req.Headers)), 0o600); err != nil {
		return Response{}, fmt.Errorf("write headers: %w", err)
	}

	bin := t.Bin
	if bin == "" {
		bin = "curl"
	}
	args := []string{"-sS", "-L", "-X", http.MethodPost}
	if t.Timeout > 0 {
		args = append(args, "--max-time", strconv.FormatFloat(t.Timeout.Seconds(), 'f', 3, 64))
	}
	args = append(args,
		"-H", "@"+headerFile,
		"--data-binary", "@"+payloadFile,
		"-o", bodyFile,
		"-w", "%{http_code}\n%{content_type}",
		req.Endpoint,
	)

	var stderr bytes.Buffer
	cmd := exec.Command(bin, args...)
	cmd.Stderr = &stderr

	start := time.Now()
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == curlTimeoutExit {
			return Response{}, apperr.TransportTimeout(err)
		}
		return Response{}, apperr.Wrapf(err, apperr.ErrCodeTransportFailed, "curl failed: %s", strings.TrimSpace(stderr.String()))
	}

	status, contentType := parseWriteOut(string(out))
	data, err := os.ReadFile(bodyFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Response{}, fmt.Errorf("read response body: %w", err)
	}

	t.Log.Debug().
		Int("status", status).
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(data)).
		Msg("model endpoint answered via curl")
	if t.LogRaw {
		logging.Section(t.Log, "raw-head", logging.Truncate(string(data), rawHeadLimit))
	}
	return classify(status, contentType, data)
}

func headerLines(headers map[string]string) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", k, headers[k])
	}
	return sb.String()
}

// parseWriteOut reads curl's "-w %{http_code}\n%{content_type}" output.
func parseWriteOut(out string) (int, string) {
	lines := strings.SplitN(strings.TrimSpace(out), "\n", 2)
	status, _ := strconv.Atoi(strings.TrimSpace(lines[0]))
	contentType := ""
	if len(lines) > 1 {
		contentType = strings.TrimSpace(lines[1])
	}
	return status, contentType
}
