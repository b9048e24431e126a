package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]string{"request.lang=nl", "cart::total=12", "request.note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, Request{
		"request": {"lang": "nl", "note": "a=b"},
		"cart":    {"total": "12"},
	}, req)
}

func TestParseRequest_Invalid(t *testing.T) {
	for _, arg := range []string{"novalue", "nofield=1", ".field=1", "loc.=1"} {
		t.Run(arg, func(t *testing.T) {
			_, err := ParseRequest([]string{arg})
			assert.Error(t, err)
		})
	}
}

func TestRequest_CloneIsDeep(t *testing.T) {
	req := Request{}.Set("r", "a", "1")
	c := req.clone()
	c["r"]["a"] = "2"
	assert.Equal(t, "1", req["r"]["a"])

	assert.Nil(t, Request{}.clone())
}
