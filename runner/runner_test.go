package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prannn182/CodeCollab/domain"
)

func TestRunner_UnsupportedLanguage(t *testing.T) {
	r := New()

	for _, lang := range []string{"html", "css", "java", "cpp", "brainfuck", ""} {
		_, err := r.Execute(context.Background(), "x", lang)

		var execErr *domain.ExecutionError
		require.ErrorAs(t, err, &execErr, "language %q", lang)
		assert.Equal(t, "Language not supported for execution.", execErr.Message)
	}
}

func TestRunner_MissingInterpreterReportsExecutionError(t *testing.T) {
	r := New()
	r.nodeBin = "definitely-not-a-real-binary"

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := r.Execute(ctx, "console.log(1)", "javascript")

	var execErr *domain.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.NotEmpty(t, execErr.Message)
}
