package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-processing-backend/internal/models"
)

func TestProcessNormalizesCamelCase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/process", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"vehicleCount": 2,
			"vehicles": [
				{"vin": "1hgbh41jxmn109186", "year": 2021, "make": "Honda", "model": "Civic", "stock": "S1", "price": 24999},
				{"vin": "2FMDK3GC4DBA54321", "year": "2019", "make": "Ford", "model": "Edge", "stock_number": "S2", "price": "31500.00"}
			],
			"artifactRef": "ref-123"
		}`))
	}))
	defer srv.Close()

	p := NewProcessor(srv.URL, 5*time.Second, nil)
	out := p.Process(context.Background(), "Alpha Motors")

	require.True(t, out.Success)
	assert.Equal(t, "Alpha Motors", out.DealershipID)
	assert.Equal(t, 2, out.VehicleCount)
	assert.Equal(t, "ref-123", out.ArtifactRef)
	require.Len(t, out.Vehicles, 2)
	// VINs normalized, numeric and string attributes both decoded, stock
	// fallback applied.
	assert.Equal(t, "1HGBH41JXMN109186", out.Vehicles[0].VIN)
	assert.Equal(t, "2021", out.Vehicles[0].Year)
	assert.Equal(t, "S2", out.Vehicles[1].Stock)
	assert.Equal(t, models.SourceAutomated, out.Vehicles[0].Source)
}

func TestProcessNormalizesSnakeCaseAndAliases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"vehicle_count": 1,
			"records": [{"vin": "1HGBH41JXMN109186", "year": "2020", "make": "Honda"}],
			"artifact_url": "ref-snake"
		}`))
	}))
	defer srv.Close()

	p := NewProcessor(srv.URL, 5*time.Second, nil)
	out := p.Process(context.Background(), "D")

	require.True(t, out.Success)
	assert.Equal(t, 1, out.VehicleCount)
	assert.Equal(t, "ref-snake", out.ArtifactRef)
}

func TestProcessNormalizesShortAliases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"count": 1,
			"items": [{"vin": "1HGBH41JXMN109186"}],
			"file": "ref-file"
		}`))
	}))
	defer srv.Close()

	p := NewProcessor(srv.URL, 5*time.Second, nil)
	out := p.Process(context.Background(), "D")

	require.True(t, out.Success)
	assert.Equal(t, 1, out.VehicleCount)
	assert.Equal(t, "ref-file", out.ArtifactRef)
}

func TestProcessDropsMalformedVINs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"vehicles": [{"vin": "NOTAVIN"}, {"vin": "1HGBH41JXMN109186"}]
		}`))
	}))
	defer srv.Close()

	p := NewProcessor(srv.URL, 5*time.Second, nil)
	out := p.Process(context.Background(), "D")

	require.True(t, out.Success)
	require.Len(t, out.Vehicles, 1)
	assert.Equal(t, "1HGBH41JXMN109186", out.Vehicles[0].VIN)
}

func TestProcessApplicationFailureNoRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"success": false, "error": "dealership has no active feed"}`))
	}))
	defer srv.Close()

	p := NewProcessor(srv.URL, 5*time.Second, nil)
	out := p.Process(context.Background(), "D")

	assert.False(t, out.Success)
	assert.Equal(t, "dealership has no active feed", out.Error)
	// Application-level failure is never retried.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestProcessNon2xxIsFailureNoRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewProcessor(srv.URL, 5*time.Second, nil)
	out := p.Process(context.Background(), "D")

	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "status 502")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestProcessTransportFailureRetriedOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// Kill the connection mid-request to simulate a transport fault.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.Write([]byte(`{"success": true, "vehicles": [{"vin": "1HGBH41JXMN109186"}]}`))
	}))
	defer srv.Close()

	p := NewProcessor(srv.URL, 5*time.Second, nil)
	out := p.Process(context.Background(), "D")

	require.True(t, out.Success)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestProcessTransportFailureAfterRetryIsOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening

	p := NewProcessor(srv.URL, time.Second, nil)
	out := p.Process(context.Background(), "D")

	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "after retry")
}
