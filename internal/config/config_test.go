package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "clearskies.yaml"), []byte(content), 0o644)
	require.NoError(t, err)
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeConfig(t, `dynamodb:
  tableName: clearskies
  region: us-west-2
weather:
  requestTimeout: 10s
reschedule:
  model: gpt-4o-mini
mail:
  fromAddress: no-reply@clearskies.app
  fromName: ClearSkies
queue:
  batchSize: 20
  maxAttempts: 3
  retryDelay: 8h
monitor:
  lookaheadDays: 7
  concurrency: 4
alerts:
  - type: console
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "clearskies", cfg.DynamoDB.TableName)
	assert.Equal(t, "us-west-2", cfg.DynamoDB.Region)
	assert.Equal(t, "10s", cfg.Weather.RequestTimeout)
	assert.Equal(t, "gpt-4o-mini", cfg.Reschedule.Model)
	assert.Equal(t, "no-reply@clearskies.app", cfg.Mail.FromAddress)
	assert.Equal(t, 20, cfg.Queue.BatchSize)
	assert.Equal(t, 7, cfg.Monitor.LookaheadDays)
	assert.Len(t, cfg.Alerts, 1)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := writeConfig(t, "invalid: [yaml")
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidationMissingTable(t *testing.T) {
	dir := writeConfig(t, `dynamodb:
  region: us-west-2
`)
	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tableName")
}

func TestValidationBadDuration(t *testing.T) {
	dir := writeConfig(t, `dynamodb:
  tableName: clearskies
queue:
  retryDelay: soon
`)
	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retryDelay")
}

func TestValidationWebhookRequiresURL(t *testing.T) {
	dir := writeConfig(t, `dynamodb:
  tableName: clearskies
alerts:
  - type: webhook
`)
	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url")
}
