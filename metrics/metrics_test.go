package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offerdesk/lineitems"
)

func TestObserveMutation(t *testing.T) {
	r := New()

	r.ObserveMutation("environment", "add_item", false, nil, time.Millisecond)
	r.ObserveMutation("environment", "add_item", false, nil, time.Millisecond)
	r.ObserveMutation("environment", "add_item", true, &lineitems.ConfigurationError{ItemNoun: "component"}, 0)
	r.ObserveMutation("service set", "update_group", true,
		&lineitems.RemoteMutationError{Op: "update", Err: errors.New("x"), Reloaded: true}, 0)
	r.ObserveMutation("service set", "delete_item", true, errors.New("boom"), 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.mutations.WithLabelValues("environment", "add_item", "local", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.mutations.WithLabelValues("environment", "add_item", "remote", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.mutations.WithLabelValues("service set", "update_group", "remote", "reloaded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.mutations.WithLabelValues("service set", "delete_item", "remote", "error")))
}

func TestHandlerExposesCounters(t *testing.T) {
	r := New()
	r.OfferEvent("saved")
	r.CatalogImported("license_pricing", 12)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	out := string(body)
	assert.True(t, strings.Contains(out, `offerdesk_offers_total{event="saved"} 1`), out)
	assert.Contains(t, out, `offerdesk_catalog_rows_imported_total{table="license_pricing"} 12`)
}
