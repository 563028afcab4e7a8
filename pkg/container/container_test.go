package container

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-backend/internal/config"
	"catalog-backend/internal/domains/catalog/model"
)

func memoryConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Environment: "test", Version: "9.9.9"},
		Catalog: config.CatalogConfig{StorageDriver: config.StorageMemory, ReplaceUpsert: false},
	}
}

func TestNewMemoryContainer(t *testing.T) {
	c, err := New(context.Background(), memoryConfig())
	require.NoError(t, err)
	t.Cleanup(c.Cleanup)

	assert.Nil(t, c.DB)
	assert.Nil(t, c.Redis)
	require.NotNil(t, c.AuthorHandler)
	require.NotNil(t, c.BookHandler)

	// ReplaceUpsert=false -> PUT trên id lạ trả 404
	_, err = c.AuthorRepo.Replace(context.Background(), uuid.New(), model.AuthorInput{Name: "x"})
	assert.Equal(t, model.KindNotFound, model.KindOf(err))

	h, healthy := c.Health(context.Background())
	assert.True(t, healthy)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "9.9.9", h.Version)
	assert.Equal(t, "memory", h.Services["database"])
}

func TestNewUnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Catalog.StorageDriver = "mongo"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown storage driver")
}
