package formclient

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Client posts card details to a running paysim payment form.
type Client struct {
	Base string
	HTTP *http.Client
}

func New(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{Base: strings.TrimRight(base, "/"), HTTP: hc}
}

type Card struct {
	HolderName  string
	Number      string
	CVV         string
	ExpiryMonth int
	ExpiryYear  int
}

func (c Card) Values() url.Values {
	return url.Values{
		"cardHolderName": {c.HolderName},
		"cardNumber":     {c.Number},
		"cvv":            {c.CVV},
		"expiryMonth":    {strconv.Itoa(c.ExpiryMonth)},
		"expiryYear":     {strconv.Itoa(c.ExpiryYear)},
	}
}

// Result is what the page reported inline after a submission.
type Result struct {
	Message     string
	Error       string
	FieldErrors []string
}

func (r Result) Approved() bool {
	return r.Error == "" && r.Message != ""
}

var (
	messageRe    = regexp.MustCompile(`<p class="message" id="message">(.*?)</p>`)
	errorRe      = regexp.MustCompile(`<p class="error" id="error">(.*?)</p>`)
	fieldErrorRe = regexp.MustCompile(`<span class="field-error">(.*?)</span>`)
)

func (c *Client) Submit(ctx context.Context, card Card) (*Result, error) {
	target := c.Base + "/payment"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(card.Values().Encode()))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit payment: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("submit payment status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return parsePage(string(body)), nil
}

func parsePage(page string) *Result {
	res := &Result{}
	if m := messageRe.FindStringSubmatch(page); m != nil {
		res.Message = html.UnescapeString(m[1])
	}
	if m := errorRe.FindStringSubmatch(page); m != nil {
		res.Error = html.UnescapeString(m[1])
	}
	for _, m := range fieldErrorRe.FindAllStringSubmatch(page, -1) {
		res.FieldErrors = append(res.FieldErrors, html.UnescapeString(m[1]))
	}
	return res
}
