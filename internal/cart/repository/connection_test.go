package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMongoConfig_Defaults(t *testing.T) {
	cfg := MongoConfig{URI: "mongodb://localhost:27017", Database: "yingshop"}.withDefaults()

	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.SelectionTimeout)
	assert.Equal(t, uint64(100), cfg.MaxPoolSize)
	assert.Equal(t, uint64(10), cfg.MinPoolSize)
}

func TestMongoConfig_ExplicitValuesKept(t *testing.T) {
	cfg := MongoConfig{
		ConnectTimeout:   time.Second,
		SelectionTimeout: 2 * time.Second,
		MaxPoolSize:      5,
		MinPoolSize:      1,
	}.withDefaults()

	assert.Equal(t, time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 2*time.Second, cfg.SelectionTimeout)
	assert.Equal(t, uint64(5), cfg.MaxPoolSize)
	assert.Equal(t, uint64(1), cfg.MinPoolSize)
}
