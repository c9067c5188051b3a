package ai

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/johnstilia/commitscope/pkg/apperr"
	"github.com/johnstilia/commitscope/pkg/config"
	"github.com/johnstilia/commitscope/pkg/logging"
)

// PingResult is the answer of the endpoint's model listing.
type PingResult struct {
	URL    string
	Status int
	Head   string
}

// OK reports a 2xx status.
func (p PingResult) OK() bool { return p.Status >= 200 && p.Status <= 299 }

// ModelsURL derives the model-listing URL from the configured endpoint,
// e.g. https://openrouter.ai/api/v1/models.
func ModelsURL(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "https://openrouter.ai/api/v1/models"
	}
	return u.Scheme + "://" + u.Host + "/api/v1/models"
}

// Ping lists the endpoint's models with the configured key. Any HTTP answer
// is a result; only network failures are errors.
func Ping(ctx context.Context, cfg *config.Config, client *http.Client) (PingResult, error) {
	if client == nil {
		client = http.DefaultClient
	}
	reqCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	res := PingResult{URL: ModelsURL(cfg.AI.Endpoint)}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, res.URL, nil)
	if err != nil {
		return res, apperr.Wrap(err, apperr.ErrCodeConfigInvalid, "invalid endpoint")
	}
	req.Header.Set("Authorization", "Bearer "+cfg.AI.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return res, requestError(ctx, reqCtx, err)
	}
	defer resp.Body.Close()

	head, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	res.Status = resp.StatusCode
	res.Head = logging.Truncate(string(head), errorBodyLimit)
	return res, nil
}
