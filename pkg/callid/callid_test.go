package callid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foolcalls/pkg/callid"
)

const appleURL = "https://www.fool.com/earnings/call-transcripts/2020/01/28/apple-aapl-q1-2020-earnings-call-transcript.aspx"

func TestToCID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "full url",
			url:  appleURL,
			want: "2020-01-28-apple-aapl-q1-2020-earnings-call-transcript",
		},
		{
			name: "trailing slash",
			url:  "https://www.fool.com/earnings/call-transcripts/2019/10/30/tesla-tsla-q3-2019-earnings-call-transcript.aspx/",
			want: "2019-10-30-tesla-tsla-q3-2019-earnings-call-transcript",
		},
		{
			name: "query string",
			url:  appleURL + "?source=listing",
			want: "2020-01-28-apple-aapl-q1-2020-earnings-call-transcript",
		},
		{
			name: "bare path",
			url:  "2020/07/21/ibm-ibm-q2-2020-earnings-call-transcript.aspx",
			want: "2020-07-21-ibm-ibm-q2-2020-earnings-call-transcript",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := callid.ToCID(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToCID_TooFewSegments(t *testing.T) {
	t.Parallel()

	for _, u := range []string{
		"28/apple.aspx",
		"https://www.fool.com/earnings/call-transcripts/",
		"https://www.fool.com/earnings-call-transcripts?page=2",
		"https://www.fool.com/earnings//2020/.aspx",
	} {
		_, err := callid.ToCID(u)
		assert.ErrorIs(t, err, callid.ErrTooFewSegments, u)
	}
}

func TestToURLPath(t *testing.T) {
	t.Parallel()

	got, err := callid.ToURLPath("2020-01-28-apple-aapl-q1-2020-earnings-call-transcript")
	require.NoError(t, err)
	assert.Equal(t, "2020/01/28/apple-aapl-q1-2020-earnings-call-transcript.aspx", got)

	_, err = callid.ToURLPath("2020-01-28")
	require.ErrorIs(t, err, callid.ErrTooFewParts)
}

func TestToURL(t *testing.T) {
	t.Parallel()

	got, err := callid.ToURL("https://www.fool.com/earnings/call-transcripts/",
		"2020-01-28-apple-aapl-q1-2020-earnings-call-transcript")
	require.NoError(t, err)
	assert.Equal(t, appleURL, got)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	ids := []string{
		"2020-01-28-apple-aapl-q1-2020-earnings-call-transcript",
		"2018-11-01-a-b",
		"2021-02-03-x",
		"2017-05-09-mcdonalds-corp-mcd-q1-2017-earnings-conference-call-transcript",
	}
	for _, id := range ids {
		path, err := callid.ToURLPath(id)
		require.NoError(t, err)

		back, err := callid.ToCID(path)
		require.NoError(t, err)
		assert.Equal(t, id, back, "path %s", path)
	}

	cid, err := callid.ToCID(appleURL)
	require.NoError(t, err)
	path, err := callid.ToURLPath(cid)
	require.NoError(t, err)
	assert.Equal(t, "https://www.fool.com/earnings/call-transcripts/"+path, appleURL)
}
