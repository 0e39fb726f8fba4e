package httpx

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusmall/internal/pkg/apperr"
)

func TestCallerID(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		claimed string
		want    string
		kind    apperr.Kind
	}{
		{name: "header only", header: "u1", want: "u1"},
		{name: "header and matching query", header: "u1", claimed: "u1", want: "u1"},
		{name: "query without gateway", claimed: "u2", want: "u2"},
		{name: "query impersonates", header: "u1", claimed: "admin1", kind: apperr.KindForbidden},
		{name: "nothing", kind: apperr.KindValidation},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws/chat", nil)
			if c.header != "" {
				r.Header.Set(HeaderUserID, c.header)
			}
			got, err := CallerID(r, c.claimed)
			if c.want == "" {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, c.kind))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestActingFor(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/chat/history/u2", nil)
	assert.NoError(t, ActingFor(r, "u2"))

	r.Header.Set(HeaderUserID, "u1")
	assert.True(t, apperr.Is(ActingFor(r, "u2"), apperr.KindForbidden))
	assert.NoError(t, ActingFor(r, "u1"))

	r.Header.Set(HeaderUserRole, "admin")
	assert.NoError(t, ActingFor(r, "u2"))
}
