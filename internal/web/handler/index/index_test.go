package index

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledgeai/knowledge-console/internal/web/handler/handlertest"
)

func TestGet(t *testing.T) {
	env := handlertest.New(t, http.NotFoundHandler())
	app := handlertest.NewApp()

	var s Service
	require.NoError(t, s.Init(app, env.Deps))

	resp, body := handlertest.Get(t, app, "/")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, TemplateName, body)
}
