package rpc

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVitalsClient_ChainView(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vitals", r.URL.Path)
		_, _ = w.Write([]byte(`{"chain_view":{"epoch":9,"validator_view":[
			{"account_address":"ABCD","vote_count_in_epoch":10,"prop_count_in_epoch":2,
			 "autopay":{"recurring_sum":1250,"payments":[{"payee":"ff","amount":500,"end_epoch":100}]}}]}}`))
	})
	c := NewVitalsClient(Opts{Endpoints: []string{srv.URL}})

	v, err := c.Vitals(context.Background())
	require.NoError(t, err)
	validators := v.Validators()
	require.Len(t, validators, 1)
	assert.Equal(t, "ABCD", validators[0].AccountAddress)
	require.NotNil(t, validators[0].Autopay)
	assert.Equal(t, uint64(1250), validators[0].Autopay.RecurringSum)
	assert.Equal(t, uint64(100), validators[0].Autopay.Payments[0].EndEpoch)
}

func TestVitals_TopLevelLayout(t *testing.T) {
	v := &Vitals{ValidatorView: []ValidatorView{{AccountAddress: "aa"}}}
	assert.Len(t, v.Validators(), 1)
	assert.Nil(t, (*Vitals)(nil).Validators())
}
