package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBusinessCounters(t *testing.T) {
	created := testutil.ToFloat64(Business.CustomersCreatedTotal)
	updated := testutil.ToFloat64(Business.CustomersUpdatedTotal)
	removed := testutil.ToFloat64(Business.CustomersRemovedTotal)

	RecordCustomerCreated()
	RecordCustomerUpdated()
	RecordCustomerUpdated()
	RecordCustomerRemoved()

	assert.Equal(t, created+1, testutil.ToFloat64(Business.CustomersCreatedTotal))
	assert.Equal(t, updated+2, testutil.ToFloat64(Business.CustomersUpdatedTotal))
	assert.Equal(t, removed+1, testutil.ToFloat64(Business.CustomersRemovedTotal))
}

func TestBusinessRuleRejection(t *testing.T) {
	counter := Business.BusinessRuleRejections.WithLabelValues("email_duplicado")
	before := testutil.ToFloat64(counter)

	RecordBusinessRuleRejection("email_duplicado")

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestSetCustomersRegistered(t *testing.T) {
	SetCustomersRegistered(42)
	assert.Equal(t, float64(42), testutil.ToFloat64(Business.CustomersRegistered))
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(Cache.LookupsTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(Cache.LookupsTotal.WithLabelValues("miss"))

	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)

	assert.Equal(t, hits+1, testutil.ToFloat64(Cache.LookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(Cache.LookupsTotal.WithLabelValues("miss")))
}

func TestRecordDBQuery(t *testing.T) {
	RecordDBQuery("find_by_id", nil, 3*time.Millisecond)
	RecordDBQuery("find_by_id", errors.New("boom"), time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(DB.QueryDuration, "osworks_db_query_duration_seconds"))
}
