package soil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"krishi/pkg/geo"
	"krishi/pkg/ratelimit"
	"krishi/pkg/reading"
)

func soilGridsJSON(n, ph, soc, cec any) string {
	layer := func(name string, v any) string {
		return fmt.Sprintf(`{"name":%q,"depths":[{"range":{"top_depth":0,"bottom_depth":5},"label":"0-5cm","values":{"Q0.5":%v}}]}`, name, v)
	}
	return fmt.Sprintf(`{"type":"Feature","properties":{"layers":[%s,%s,%s,%s]}}`,
		layer("nitrogen", n), layer("phh2o", ph), layer("soc", soc), layer("cec", cec))
}

func TestConvert(t *testing.T) {
	d := Convert(Raw{
		Nitrogen: reading.Of(200),
		PHH2O:    reading.Of(65),
		SOC:      reading.Of(150),
		CEC:      reading.Of(3), // clamps to 5
	})
	assert.Equal(t, "0.2", d.Nitrogen.String())
	assert.Equal(t, "6.5", d.PH.String())
	assert.Equal(t, "2.59", d.OrganicMatter.String())
	assert.Equal(t, "0.12", d.Phosphorus.String())
	assert.Equal(t, "0.06", d.Potassium.String())
}

func TestConvertWithoutCECOrNitrogen(t *testing.T) {
	d := Convert(Raw{PHH2O: reading.Of(72)})
	assert.Equal(t, reading.Placeholder, d.Nitrogen.String())
	assert.Equal(t, reading.Placeholder, d.Phosphorus.String())
	assert.Equal(t, reading.Placeholder, d.Potassium.String())
	assert.Equal(t, "7.2", d.PH.String())

	// CEC without nitrogen still yields the CEC boost alone
	d = Convert(Raw{CEC: reading.Of(5)})
	assert.Equal(t, "0.02", d.Phosphorus.String())
	assert.Equal(t, "0.01", d.Potassium.String())
}

type fakeUpstream struct {
	hits  atomic.Int32
	body  string
	delay time.Duration
}

func (f *fakeUpstream) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		if f.delay > 0 {
			select {
			case <-time.After(f.delay):
			case <-r.Context().Done():
				return
			}
		}
		switch r.URL.Path {
		case "/properties/query":
			assert.ElementsMatch(t, []string{"nitrogen", "phh2o", "soc", "cec"}, r.URL.Query()["property"])
			assert.Equal(t, "0-5cm", r.URL.Query().Get("depth"))
			fmt.Fprint(w, f.body)
		case "/search":
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			if r.URL.Query().Get("q") == "Pune,Maharashtra,IN" {
				fmt.Fprint(w, `[{"lat":"18.5204","lon":"73.8567","display_name":"Pune"}]`)
				return
			}
			fmt.Fprint(w, `[]`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(url string, limiter ratelimit.Limiter, timeout time.Duration) *Client {
	return NewClient(Config{SoilGridsURL: url, NominatimURL: url, Timeout: timeout}, limiter, nil, zap.NewNop(), nil)
}

func TestFetchParsesSoilGrids(t *testing.T) {
	up := &fakeUpstream{body: soilGridsJSON(200, 65, 150, "null")}
	srv := up.server(t)

	d, err := newClient(srv.URL, nil, time.Second).Fetch(context.Background(), 18.52, 73.85)
	require.NoError(t, err)
	assert.Equal(t, "0.2", d.Nitrogen.String())
	assert.Equal(t, reading.Placeholder, d.Phosphorus.String())
}

func TestFetchOutOfRangeNumberIsPlaceholder(t *testing.T) {
	up := &fakeUpstream{body: soilGridsJSON(200, "1e999", 150, 100)}
	srv := up.server(t)

	d, err := newClient(srv.URL, nil, time.Second).Fetch(context.Background(), 18.52, 73.85)
	require.NoError(t, err)
	assert.Equal(t, reading.Placeholder, d.PH.String())
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "Inf")
}

func TestFetchRejectsMalformed(t *testing.T) {
	up := &fakeUpstream{body: `{"properties":{}}`}
	srv := up.server(t)
	_, err := newClient(srv.URL, nil, time.Second).Fetch(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFetchRateLimitWindow(t *testing.T) {
	up := &fakeUpstream{body: soilGridsJSON(200, 65, 150, 100)}
	srv := up.server(t)

	now := time.Unix(1_700_000_000, 0)
	limiter := ratelimit.NewFixedWindow(5, time.Minute).WithClock(func() time.Time { return now })
	c := newClient(srv.URL, limiter, time.Second)

	for i := 0; i < 5; i++ {
		_, err := c.Fetch(context.Background(), 18.5, 73.8)
		require.NoError(t, err, "call %d", i+1)
	}

	now = now.Add(5 * time.Second)
	_, err := c.Fetch(context.Background(), 18.5, 73.8)
	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, "Rate limit exceeded. Please wait 55 seconds", err.Error())
	assert.Equal(t, int32(5), up.hits.Load(), "rejected call must not reach SoilGrids")

	now = now.Add(56 * time.Second)
	_, err = c.Fetch(context.Background(), 18.5, 73.8)
	assert.NoError(t, err)
	assert.Equal(t, int32(6), up.hits.Load())
}

func TestFetchTimeout(t *testing.T) {
	up := &fakeUpstream{body: soilGridsJSON(1, 1, 1, 1), delay: time.Second}
	srv := up.server(t)

	start := time.Now()
	_, err := newClient(srv.URL, nil, 50*time.Millisecond).Fetch(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "soil data request timed out", err.Error())
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestFromLocationTimeoutCoversGeocoding(t *testing.T) {
	soilUp := &fakeUpstream{body: soilGridsJSON(200, 65, 150, 100)}
	soilSrv := soilUp.server(t)
	geoUp := &fakeUpstream{delay: time.Second}
	geoSrv := geoUp.server(t)

	c := NewClient(Config{SoilGridsURL: soilSrv.URL, NominatimURL: geoSrv.URL, Timeout: 50 * time.Millisecond}, nil, nil, zap.NewNop(), nil)
	start := time.Now()
	_, err := c.FromLocation(context.Background(), geo.Parse("", "", "Pune", "Maharashtra", ""))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
	assert.Equal(t, int32(0), soilUp.hits.Load())
}

func TestFromLocationSharesOneDeadline(t *testing.T) {
	soilUp := &fakeUpstream{body: soilGridsJSON(200, 65, 150, 100), delay: 150 * time.Millisecond}
	soilSrv := soilUp.server(t)
	geoUp := &fakeUpstream{delay: 150 * time.Millisecond}
	geoSrv := geoUp.server(t)

	// each step alone fits in the timeout, both together do not
	c := NewClient(Config{SoilGridsURL: soilSrv.URL, NominatimURL: geoSrv.URL, Timeout: 250 * time.Millisecond}, nil, nil, zap.NewNop(), nil)
	_, err := c.FromLocation(context.Background(), geo.Parse("", "", "Pune", "Maharashtra", ""))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, int32(1), geoUp.hits.Load())
}

func TestFromLocationGeocodes(t *testing.T) {
	up := &fakeUpstream{body: soilGridsJSON(200, 65, 150, 100)}
	srv := up.server(t)
	c := newClient(srv.URL, nil, time.Second)

	d, err := c.FromLocation(context.Background(), geo.Parse("", "", "Pune", "Maharashtra", ""))
	require.NoError(t, err)
	assert.True(t, d.PH.Valid())

	_, err = c.FromLocation(context.Background(), geo.Parse("", "", "Atlantis", "Nowhere", ""))
	var le *LocationError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "Could not find coordinates for Atlantis, Nowhere", err.Error())
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis down")
}

func TestLimiterFailureFailsOpen(t *testing.T) {
	up := &fakeUpstream{body: soilGridsJSON(200, 65, 150, 100)}
	srv := up.server(t)
	_, err := newClient(srv.URL, brokenLimiter{}, time.Second).Fetch(context.Background(), 1, 1)
	assert.NoError(t, err)
}
