package urls_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foolcalls/pkg/urls"
)

func TestFilterURLs(t *testing.T) {
	t.Parallel()

	in := []string{
		"https://www.fool.com/",
		"https://www.fool.com/earnings/call-transcripts/2020/07/14/acme-q2.aspx",
		"https://www.fool.com/earnings/call-transcripts/2020/07/13/globex-q2.aspx",
		"https://www.fool.com/investing/2020/07/14/unrelated.aspx",
		"https://www.fool.com/earnings/call-transcripts/",
	}
	known := map[string]bool{"2020-07-13-globex-q2": true}

	got, err := urls.FilterURLs(context.Background(), in,
		urls.NewBaseURLFilter(),
		urls.NewContainsPathFilter("/earnings/call-transcripts/"),
		urls.NewKnownCIDFilter(known),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.fool.com/earnings/call-transcripts/2020/07/14/acme-q2.aspx"}, got)
}

func TestKnownCIDFilter_Unparsable(t *testing.T) {
	t.Parallel()

	keep, err := urls.NewKnownCIDFilter(nil).ShouldKeep(context.Background(), "acme.aspx")
	require.NoError(t, err)
	assert.False(t, keep)
}
