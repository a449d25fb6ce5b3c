package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"lojinha/models"
)

var (
	// ErrRateLimited maps to the "try again in a few seconds" message.
	ErrRateLimited = errors.New("ai endpoint rate limited")
	// ErrQuotaExceeded means the account's quota ran out, not a transient
	// condition.
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	ErrNoMatch       = errors.New("no items recognized in image")
)

// ItemGuess is one structured guess from the image-understanding
// endpoint.
type ItemGuess struct {
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Description string  `json:"description"`
}

// ProductMatch pairs a guess with an existing product by name similarity.
type ProductMatch struct {
	Product models.Product `json:"product"`
	Score   int            `json:"score"`
}

// Client talks to the two AI-backed HTTP endpoints: image understanding
// (base64 image in, item guesses out) and image generation (two images
// plus a prompt in, one composited image out).
type Client struct {
	httpClient *http.Client
	extractURL string
	tryOnURL   string
	apiKey     string
	log        *zap.Logger
}

func NewClient(extractURL, tryOnURL, apiKey string, log *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		extractURL: extractURL,
		tryOnURL:   tryOnURL,
		apiKey:     apiKey,
		log:        log,
	}
}

type extractRequest struct {
	Image string `json:"image"`
}

type extractResponse struct {
	Items []ItemGuess `json:"items"`
}

// ExtractItems sends a base64 image and returns the endpoint's item
// guesses. An empty result maps to ErrNoMatch.
func (c *Client) ExtractItems(ctx context.Context, imageBase64 string) ([]ItemGuess, error) {
	var resp extractResponse
	if err := c.post(ctx, c.extractURL, extractRequest{Image: imageBase64}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, ErrNoMatch
	}
	return resp.Items, nil
}

type tryOnRequest struct {
	UserImage    string `json:"user_image"`
	ProductImage string `json:"product_image"`
	Prompt       string `json:"prompt"`
}

type tryOnResponse struct {
	Image string `json:"image"`
}

// TryOn composites the user photo with the product photo and returns the
// generated image as base64.
func (c *Client) TryOn(ctx context.Context, userImage, productImage, prompt string) (string, error) {
	var resp tryOnResponse
	req := tryOnRequest{UserImage: userImage, ProductImage: productImage, Prompt: prompt}
	if err := c.post(ctx, c.tryOnURL, req, &resp); err != nil {
		return "", err
	}
	return resp.Image, nil
}

func (c *Client) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call ai endpoint: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusPaymentRequired:
		return ErrQuotaExceeded
	default:
		c.log.Warn("ai endpoint error", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("ai endpoint returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Similarity scores two names by word overlap, 0–100: the share of words
// of the shorter name found in the other, case-insensitive.
func Similarity(a, b string) int {
	wordsA := strings.Fields(strings.ToLower(a))
	wordsB := strings.Fields(strings.ToLower(b))
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	if len(wordsB) < len(wordsA) {
		wordsA, wordsB = wordsB, wordsA
	}
	set := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		set[w] = true
	}
	matched := 0
	for _, w := range wordsA {
		if set[w] {
			matched++
		}
	}
	return matched * 100 / len(wordsA)
}

// MatchProducts ranks existing products against a guessed name, best
// first, dropping zero scores.
func MatchProducts(guessName string, products []models.Product) []ProductMatch {
	matches := make([]ProductMatch, 0, len(products))
	for _, p := range products {
		if score := Similarity(guessName, p.Name); score > 0 {
			matches = append(matches, ProductMatch{Product: p, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches
}
