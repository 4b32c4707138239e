package admin

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accelerator-admin/internal/engine"
	"accelerator-admin/internal/metadata"
)

func testApp(t *testing.T) *fiber.App {
	t.Helper()
	reg := metadata.NewRegistry()
	require.NoError(t, reg.Load(metadata.DefaultCatalog()))

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr *engine.AppError
			if errors.As(err, &appErr) {
				return c.Status(appErr.Status).JSON(engine.NewErrorResponse(appErr))
			}
			return c.SendStatus(http.StatusInternalServerError)
		},
	})
	RegisterAdminRoutes(app, NewHandler(reg, engine.Defaults{Limit: 10, MaxLimit: 100}))
	return app
}

func get(t *testing.T, app *fiber.App, path string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestListEntities(t *testing.T) {
	resp, body := get(t, testApp(t), "/api/_admin/entities")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data []EntitySummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.Data)

	byName := map[string]EntitySummary{}
	for _, e := range out.Data {
		byName[e.Name] = e
	}
	ideas := byName["ideas"]
	assert.Equal(t, "Ideas", ideas.Label)
	assert.Equal(t, []string{"approve", "archive", "delete", "reject"}, ideas.Actions)
	assert.Contains(t, ideas.Filterable, "status")
	assert.Equal(t, 10, ideas.PageSize)
	assert.Equal(t, 25, byName["notifications"].PageSize)
	assert.Equal(t, "activity_logs", out.Data[0].Name, "sorted by name")
}

func TestGetEntity(t *testing.T) {
	app := testApp(t)

	resp, body := get(t, app, "/api/_admin/entities/users")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data metadata.Entity `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "users", out.Data.Name)
	assert.Equal(t, "uuid", out.Data.PrimaryKey.Type)
	assert.True(t, out.Data.HasField("role"))

	resp, body = get(t, app, "/api/_admin/entities/widgets")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "UNKNOWN_ENTITY")
}
