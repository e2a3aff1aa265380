package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-chat-portal/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestFirstNonEmpty(t *testing.T) {
	require.Equal(t, "b", utils.FirstNonEmpty("", "b", "c"))
	require.Equal(t, "a", utils.FirstNonEmpty("a", "b"))
	require.Equal(t, "", utils.FirstNonEmpty("", ""))
	require.Equal(t, "", utils.FirstNonEmpty())
}
