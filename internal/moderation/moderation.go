// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package moderation screens reader comments against a hosted moderation
// API before they enter the approval queue.
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Result contains the outcome of a text safety check.
type Result struct {
	Flagged    bool     // true if the text violates a policy category
	Categories []string // flagged category names, sorted (empty when clean)
}

// Screener checks text for policy violations.
type Screener interface {
	Screen(ctx context.Context, text string) (*Result, error)
}

// OpenAI uses the OpenAI Moderation API (POST /v1/moderations), which is
// free for all OpenAI API key holders.
type OpenAI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenAI creates a screener for the OpenAI moderation endpoint.
func NewOpenAI(apiKey, baseURL string) *OpenAI {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAI{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type modRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type modResponse struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
}

// Screen evaluates text and returns the flagged categories, if any.
func (m *OpenAI) Screen(ctx context.Context, text string) (*Result, error) {
	payload, err := json.Marshal(modRequest{Model: "omni-moderation-latest", Input: text})
	if err != nil {
		return nil, fmt.Errorf("moderation marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/moderations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("moderation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moderation http: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("moderation read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("moderation API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result modResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("moderation unmarshal: %w", err)
	}
	if len(result.Results) == 0 || !result.Results[0].Flagged {
		return &Result{}, nil
	}

	var flagged []string
	for cat, on := range result.Results[0].Categories {
		if on {
			flagged = append(flagged, displayName(cat))
		}
	}
	sort.Strings(flagged)

	return &Result{Flagged: true, Categories: flagged}, nil
}

// displayName turns "hate/threatening" into "hate (threatening)" and
// "self_harm" into "self harm".
func displayName(cat string) string {
	display := strings.ReplaceAll(cat, "/", " (")
	if strings.Contains(cat, "/") {
		display += ")"
	}
	return strings.ReplaceAll(display, "_", " ")
}
