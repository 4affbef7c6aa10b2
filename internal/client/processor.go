// Package client holds the HTTP clients for the external collaborators: the
// automated processing service, the artifact store, and the orchestrator's
// own API (used by orderctl).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"order-processing-backend/internal/models"
)

// Processor invokes the automated order-qualification service for one
// dealership at a time. Every failure is converted into a failed
// DealershipOutcome; Process never aborts the caller's queue.
type Processor struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewProcessor(baseURL string, timeout time.Duration, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type processRequest struct {
	DealershipID string         `json:"dealershipId"`
	Options      map[string]any `json:"options,omitempty"`
}

// flexString decodes a JSON string, number or null into a plain string. The
// processing service is not consistent about numeric vs. quoted years and
// prices.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// rawVehicle tolerates the field spellings the processing service has been
// seen to use for the same logical vehicle attributes.
type rawVehicle struct {
	VIN         string     `json:"vin"`
	Year        flexString `json:"year"`
	Make        string     `json:"make"`
	Model       string     `json:"model"`
	Trim        string     `json:"trim"`
	Stock       string     `json:"stock"`
	StockNumber string     `json:"stock_number"`
	Price       flexString `json:"price"`
}

// rawResponse captures every name the remote side uses for the count, list
// and artifact fields. Normalization happens here and nowhere else.
type rawResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	VehicleCount      *int `json:"vehicleCount,omitempty"`
	VehicleCountSnake *int `json:"vehicle_count,omitempty"`
	Count             *int `json:"count,omitempty"`

	Vehicles []rawVehicle `json:"vehicles,omitempty"`
	Records  []rawVehicle `json:"records,omitempty"`
	Items    []rawVehicle `json:"items,omitempty"`

	ArtifactRef string `json:"artifactRef,omitempty"`
	ArtifactURL string `json:"artifact_url,omitempty"`
	File        string `json:"file,omitempty"`
}

// Process runs the automated order call for one dealership. The returned
// outcome is always usable: transport failures, non-2xx responses and
// application-level errors all come back as Success=false with an error
// message, never as a panic or an aborted queue.
func (p *Processor) Process(ctx context.Context, dealershipID string) models.DealershipOutcome {
	failed := func(msg string) models.DealershipOutcome {
		return models.DealershipOutcome{DealershipID: dealershipID, Success: false, Error: msg}
	}

	body, err := json.Marshal(processRequest{DealershipID: dealershipID})
	if err != nil {
		return failed(fmt.Sprintf("encode request: %v", err))
	}

	resp, err := p.post(ctx, body)
	if err != nil {
		// Transport-level failure: exactly one retry, logged so it is
		// distinguishable from a fresh attempt.
		p.logger.Warn("process call transport failure, retrying",
			"dealership", dealershipID, "attempt", 2, "error", err)
		resp, err = p.post(ctx, body)
		if err != nil {
			return failed(fmt.Sprintf("remote call failed after retry: %v", err))
		}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return failed(fmt.Sprintf("read response: %v", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failed(fmt.Sprintf("remote call returned status %d", resp.StatusCode))
	}

	var raw rawResponse
	if err := json.Unmarshal(payload, &raw); err != nil {
		return failed(fmt.Sprintf("decode response: %v", err))
	}
	if !raw.Success {
		msg := raw.Error
		if msg == "" {
			msg = "processing service reported failure"
		}
		return failed(msg)
	}

	return p.normalize(dealershipID, raw)
}

func (p *Processor) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/process", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return p.httpClient.Do(req)
}

// normalize maps the duck-typed remote shape onto the canonical outcome.
// Fallback order is explicit: camelCase, snake_case, then the short alias.
func (p *Processor) normalize(dealershipID string, raw rawResponse) models.DealershipOutcome {
	rawVehicles := raw.Vehicles
	if rawVehicles == nil {
		rawVehicles = raw.Records
	}
	if rawVehicles == nil {
		rawVehicles = raw.Items
	}

	vehicles := make([]models.VehicleRecord, 0, len(rawVehicles))
	for _, v := range rawVehicles {
		if !models.ValidVIN(v.VIN) {
			p.logger.Warn("dropping vehicle with malformed VIN from remote result",
				"dealership", dealershipID, "vin", v.VIN)
			continue
		}
		stock := v.Stock
		if stock == "" {
			stock = v.StockNumber
		}
		vehicles = append(vehicles, models.VehicleRecord{
			VIN:    models.NormalizeVIN(v.VIN),
			Year:   string(v.Year),
			Make:   v.Make,
			Model:  v.Model,
			Trim:   v.Trim,
			Stock:  stock,
			Price:  string(v.Price),
			Source: models.SourceAutomated,
		})
	}

	count := len(vehicles)
	switch {
	case raw.VehicleCount != nil:
		count = *raw.VehicleCount
	case raw.VehicleCountSnake != nil:
		count = *raw.VehicleCountSnake
	case raw.Count != nil:
		count = *raw.Count
	}

	artifactRef := raw.ArtifactRef
	if artifactRef == "" {
		artifactRef = raw.ArtifactURL
	}
	if artifactRef == "" {
		artifactRef = raw.File
	}

	return models.DealershipOutcome{
		DealershipID: dealershipID,
		Success:      true,
		VehicleCount: count,
		Vehicles:     vehicles,
		ArtifactRef:  artifactRef,
	}
}
