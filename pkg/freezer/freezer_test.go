package freezer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFreezeUnfreezeRoundTrip(t *testing.T) {
	src := "Visit https://example.com/path or email us at a.b@example.co for details."
	res, err := Freeze(src)
	require.NoError(t, err)
	require.NotEqual(t, src, res.Text)
	require.Equal(t, src, Unfreeze(res.Text, res.NTMap))
}

func TestFreezeClauseReferenceAndEnumerator(t *testing.T) {
	src := "See clause 4.1(b) and item (ii) for the schedule."
	res, err := Freeze(src)
	require.NoError(t, err)
	require.Len(t, res.Mask, 2)
	require.Equal(t, src, Unfreeze(res.Text, res.NTMap))
}

func TestFreezeSkipsExistingSentinels(t *testing.T) {
	src := "already <<MT_NT:0000>> frozen and https://example.com too"
	res, err := Freeze(src)
	require.NoError(t, err)
	// the pre-existing sentinel must survive unchanged, only the URL gets a
	// fresh token
	require.Contains(t, res.Text, "<<MT_NT:0000>>")
	require.Len(t, res.Mask, 1)
}

func TestFreezeOtherScriptRun(t *testing.T) {
	src := "English text with русский текст inline."
	res, err := Freeze(src)
	require.NoError(t, err)
	require.Len(t, res.Mask, 1)
	require.Equal(t, "русский текст", res.Mask[0].Original)
}

func TestUnfreezeLeavesUnknownTokenIntact(t *testing.T) {
	out := Unfreeze("hello <<MT_NT:0099>> world", map[string]string{})
	require.Equal(t, "hello <<MT_NT:0099>> world", out)
}

func TestFreezeEmptyText(t *testing.T) {
	res, err := Freeze("")
	require.NoError(t, err)
	require.Equal(t, "", res.Text)
	require.Empty(t, res.Mask)
}
